package services

import (
	"math"
	"sort"
	"time"

	"panier/internal/models"
)

// RiskLevel is a coarse classification of current and projected spend
// versus the budget ceiling.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// Fallback labels for expenses missing a category or source.
const (
	labelUncategorized = "Uncategorized"
	labelUnknownSource = "Unknown"
)

// BudgetStats is a snapshot derived from one budget and its expenses.
// It is never persisted; every read recomputes it from current rows.
// Monetary values are cents. PercentageUsed is capped at 100 for display
// while IsOverBudget reflects the uncapped comparison.
type BudgetStats struct {
	BudgetID    uint      `json:"budget_id"`
	Amount      int64     `json:"amount"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	TotalSpent     int64   `json:"total_spent"`
	Remaining      int64   `json:"remaining"`
	PercentageUsed float64 `json:"percentage_used"`
	IsOverBudget   bool    `json:"is_over_budget"`
	IsNearBudget   bool    `json:"is_near_budget"`

	TotalDays     int `json:"total_days"`
	DaysElapsed   int `json:"days_elapsed"`
	DaysRemaining int `json:"days_remaining"`

	AverageDailySpending float64 `json:"average_daily_spending"`
	ProjectedSpending    float64 `json:"projected_spending"`
	SuggestedDailyBudget float64 `json:"suggested_daily_budget"`

	RiskLevel RiskLevel `json:"risk_level"`

	ByCategory    []BreakdownEntry `json:"by_category"`
	BySource      []BreakdownEntry `json:"by_source"`
	DailySpending []DailyPoint     `json:"daily_spending"`
}

// BreakdownEntry aggregates expenses sharing a label.
type BreakdownEntry struct {
	Label            string  `json:"label"`
	Amount           int64   `json:"amount"`
	Percentage       float64 `json:"percentage"`
	TransactionCount int     `json:"transaction_count"`
}

// DailyPoint is one day in the cumulative spending series used for charting.
// Every calendar day of the period appears, including zero-spend days.
type DailyPoint struct {
	Date       string `json:"date"`
	Amount     int64  `json:"amount"`
	Cumulative int64  `json:"cumulative"`
}

// ComputeStats derives a BudgetStats snapshot from a budget and its expenses.
// Pure and deterministic: identical inputs (including now) yield identical
// output. Callers pass time.Now(); tests inject a fixed clock.
func ComputeStats(budget *models.Budget, expenses []models.Expense, now time.Time) *BudgetStats {
	var totalSpent int64
	for _, e := range expenses {
		totalSpent += e.Amount
	}

	remaining := budget.Amount - totalSpent

	var rawPct float64
	if budget.Amount > 0 {
		rawPct = float64(totalSpent) / float64(budget.Amount) * 100
	}
	pct := math.Min(rawPct, 100)

	start := models.DateOnly(budget.PeriodStart)
	end := models.DateOnly(budget.PeriodEnd)
	today := models.DateOnly(now)

	totalDays := ceilDays(end.Sub(start))
	daysElapsed := ceilDays(today.Sub(start))
	if daysElapsed < 0 {
		daysElapsed = 0
	}
	daysRemaining := totalDays - daysElapsed
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	var avgDaily float64
	if daysElapsed > 0 {
		avgDaily = float64(totalSpent) / float64(daysElapsed)
	}

	projected := float64(totalSpent)
	if daysRemaining > 0 {
		projected = float64(totalSpent) + avgDaily*float64(daysRemaining)
	}

	var suggestedDaily float64
	if daysRemaining > 0 {
		suggestedDaily = math.Max(0, float64(remaining)/float64(daysRemaining))
	}

	isOver := totalSpent > budget.Amount
	isNear := rawPct > 75

	risk := RiskLevelLow
	switch {
	case isOver || projected > float64(budget.Amount)*1.1:
		risk = RiskLevelHigh
	case isNear || projected > float64(budget.Amount):
		risk = RiskLevelMedium
	}

	return &BudgetStats{
		BudgetID:             budget.ID,
		Amount:               budget.Amount,
		PeriodStart:          start,
		PeriodEnd:            end,
		TotalSpent:           totalSpent,
		Remaining:            remaining,
		PercentageUsed:       pct,
		IsOverBudget:         isOver,
		IsNearBudget:         isNear,
		TotalDays:            totalDays,
		DaysElapsed:          daysElapsed,
		DaysRemaining:        daysRemaining,
		AverageDailySpending: avgDaily,
		ProjectedSpending:    projected,
		SuggestedDailyBudget: suggestedDaily,
		RiskLevel:            risk,
		ByCategory:           breakdownBy(expenses, totalSpent, func(e *models.Expense) string { return e.Category }, labelUncategorized),
		BySource:             breakdownBy(expenses, totalSpent, func(e *models.Expense) string { return e.Source }, labelUnknownSource),
		DailySpending:        dailySeries(expenses, start, end),
	}
}

// ceilDays converts a duration to whole calendar days, rounding up.
func ceilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}

func breakdownBy(expenses []models.Expense, totalSpent int64, key func(*models.Expense) string, fallback string) []BreakdownEntry {
	type acc struct {
		amount int64
		count  int
	}
	groups := make(map[string]*acc)
	for i := range expenses {
		label := key(&expenses[i])
		if label == "" {
			label = fallback
		}
		g, ok := groups[label]
		if !ok {
			g = &acc{}
			groups[label] = g
		}
		g.amount += expenses[i].Amount
		g.count++
	}

	entries := make([]BreakdownEntry, 0, len(groups))
	for label, g := range groups {
		var pctOfTotal float64
		if totalSpent > 0 {
			pctOfTotal = float64(g.amount) / float64(totalSpent) * 100
		}
		entries = append(entries, BreakdownEntry{
			Label:            label,
			Amount:           g.amount,
			Percentage:       pctOfTotal,
			TransactionCount: g.count,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Amount != entries[j].Amount {
			return entries[i].Amount > entries[j].Amount
		}
		return entries[i].Label < entries[j].Label
	})
	return entries
}

func dailySeries(expenses []models.Expense, start, end time.Time) []DailyPoint {
	perDay := make(map[string]int64)
	for i := range expenses {
		day := models.DateOnly(expenses[i].Date).Format(time.DateOnly)
		perDay[day] += expenses[i].Amount
	}

	var points []DailyPoint
	var cumulative int64
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format(time.DateOnly)
		amount := perDay[key]
		cumulative += amount
		points = append(points, DailyPoint{Date: key, Amount: amount, Cumulative: cumulative})
	}
	return points
}
