package services

import (
	"errors"
	"fmt"
	"sync"

	apperrors "panier/internal/errors"
	"panier/internal/metrics"
	"panier/internal/models"
)

// AlertKind identifies which spending threshold an alert reports.
type AlertKind string

const (
	AlertKindThreshold75 AlertKind = "threshold_75"
	AlertKindThreshold90 AlertKind = "threshold_90"
	AlertKindOverBudget  AlertKind = "over_budget"
)

// Threshold returns the percentage this alert kind represents. Stored on the
// notification so de-duplication reads structured state, never message text.
func (k AlertKind) Threshold() int {
	switch k {
	case AlertKindOverBudget:
		return 100
	case AlertKindThreshold90:
		return 90
	case AlertKindThreshold75:
		return 75
	}
	return 0
}

// ShouldAlert decides whether a new alert must fire given the current stats
// and the threshold of the last alert sent for this budget (0 if none).
// De-duplication is monotonic: each threshold fires at most once per budget,
// and a spend that drops and rises again only re-arms higher thresholds.
func ShouldAlert(stats *BudgetStats, lastThreshold int) (AlertKind, bool) {
	var rawPct float64
	if stats.Amount > 0 {
		rawPct = float64(stats.TotalSpent) / float64(stats.Amount) * 100
	}

	switch {
	case stats.IsOverBudget && lastThreshold < 100:
		return AlertKindOverBudget, true
	case rawPct >= 90 && lastThreshold < 90:
		return AlertKindThreshold90, true
	case rawPct >= 75 && lastThreshold < 75:
		return AlertKindThreshold75, true
	}
	return "", false
}

// alertService runs the stateful load-decide-persist alert sequence. All
// persistence goes through the injected services.
type alertService struct {
	budgets       BudgetServicer
	notifications NotificationServicer

	// Per-budget locks serialize the check so concurrent expense submissions
	// for one budget cannot both pass the de-duplication read.
	locks sync.Map
}

// NewAlertService creates a new AlertServicer.
func NewAlertService(budgets BudgetServicer, notifications NotificationServicer) AlertServicer {
	return &alertService{budgets: budgets, notifications: notifications}
}

func (s *alertService) lockFor(budgetID uint) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(budgetID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// CheckBudgetAlerts recomputes stats for the budget, compares them against
// the last alert recorded, and persists a new notification when a threshold
// has been newly crossed. Returns the alerts fired by this call.
func (s *alertService) CheckBudgetAlerts(userID, budgetID uint) ([]models.Notification, error) {
	stats, err := s.budgets.GetBudgetStats(userID, budgetID)
	if err != nil {
		return nil, err
	}

	mu := s.lockFor(budgetID)
	mu.Lock()
	defer mu.Unlock()

	lastThreshold := 0
	last, err := s.notifications.GetLastBudgetAlert(userID, budgetID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if last != nil {
		lastThreshold = last.ThresholdReached
	}

	kind, fire := ShouldAlert(stats, lastThreshold)
	if !fire {
		return []models.Notification{}, nil
	}

	notification := buildAlertNotification(userID, budgetID, kind, stats)
	if err := s.notifications.Create(notification); err != nil {
		return nil, err
	}

	metrics.RecordAlertFired(string(kind))
	return []models.Notification{*notification}, nil
}

// buildAlertNotification renders the human-readable alert for a fired kind.
// The message is presentation only; ThresholdReached carries the state.
func buildAlertNotification(userID, budgetID uint, kind AlertKind, stats *BudgetStats) *models.Notification {
	var title, message string
	switch kind {
	case AlertKindOverBudget:
		title = "Budget exceeded"
		message = fmt.Sprintf("You have spent %s, which is %s over your %s budget.",
			formatCents(stats.TotalSpent), formatCents(-stats.Remaining), formatCents(stats.Amount))
	case AlertKindThreshold90:
		title = "90% of budget used"
		message = fmt.Sprintf("You have spent %s of your %s budget. Only %s left for %d day(s).",
			formatCents(stats.TotalSpent), formatCents(stats.Amount), formatCents(stats.Remaining), stats.DaysRemaining)
	case AlertKindThreshold75:
		title = "75% of budget used"
		message = fmt.Sprintf("You have spent %s of your %s budget.",
			formatCents(stats.TotalSpent), formatCents(stats.Amount))
	}

	if stats.DaysRemaining > 0 && stats.SuggestedDailyBudget > 0 {
		message += fmt.Sprintf(" Suggestion: limit daily spending to %s to stay on budget.",
			formatCents(int64(stats.SuggestedDailyBudget)))
	}

	return &models.Notification{
		UserID:           userID,
		Type:             models.NotificationTypeBudget,
		Title:            title,
		Message:          message,
		ReferenceID:      budgetID,
		ReferenceType:    models.ReferenceTypeBudget,
		ThresholdReached: kind.Threshold(),
	}
}

// formatCents renders an amount in cents as a euro string for messages.
func formatCents(cents int64) string {
	return fmt.Sprintf("%.2f €", float64(cents)/100)
}
