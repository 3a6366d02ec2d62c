package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "panier/internal/errors"
	"panier/internal/metrics"
	"panier/internal/models"
	"panier/internal/pagination"
)

// budgetService handles budget period resolution and provisioning.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates a budget for an explicit period. When the new budget is
// active, any existing active budget whose period overlaps it is deactivated
// within the same transaction, so at most one active budget ever covers a
// given date for a user.
func (s *budgetService) CreateBudget(userID uint, amount int64, periodStart, periodEnd time.Time, isActive bool) (*models.Budget, error) {
	return s.createBudget(userID, amount, periodStart, periodEnd, isActive, nil)
}

func (s *budgetService) createBudget(userID uint, amount int64, periodStart, periodEnd time.Time, isActive bool, previousBudgetID *uint) (*models.Budget, error) {
	if amount < 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	start := models.DateOnly(periodStart)
	end := models.DateOnly(periodEnd)
	if !start.Before(end) {
		return nil, apperrors.ErrInvalidPeriod
	}

	var budget *models.Budget
	// A concurrent provision can commit between the deactivation and the
	// insert without either transaction seeing the other. The partial unique
	// index on (user_id, period_start) for active rows rejects the loser,
	// whose retry then sees and deactivates the committed winner.
	for attempt := 0; ; attempt++ {
		budget = &models.Budget{
			UserID:           userID,
			Amount:           amount,
			PeriodStart:      start,
			PeriodEnd:        end,
			IsActive:         isActive,
			PreviousBudgetID: previousBudgetID,
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if isActive {
				// Deactivate predecessors whose period overlaps the new one.
				// Overlap: newStart <= existingEnd && newEnd >= existingStart.
				if err := tx.Model(&models.Budget{}).
					Where("user_id = ? AND is_active = ? AND period_start <= ? AND period_end >= ?",
						userID, true, end, start).
					Update("is_active", false).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			}

			if err := tx.Create(budget).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		})
		if err == nil {
			break
		}
		if attempt == 0 && errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return nil, err
	}

	mode := "explicit"
	if previousBudgetID != nil {
		mode = "rollover"
	}
	metrics.RecordBudgetProvisioned(mode)

	return budget, nil
}

// CreateMonthlyBudget creates an active budget spanning the given calendar
// month. A zero year or month defaults to the current one.
func (s *budgetService) CreateMonthlyBudget(userID uint, amount int64, year int, month time.Month) (*models.Budget, error) {
	now := time.Now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	start, end := monthBounds(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
	return s.CreateBudget(userID, amount, start, end, true)
}

// ResolveBudgetForDate finds the active budget whose period contains the given
// date. Read-only. If the uniqueness invariant were ever violated, the most
// recently created budget wins.
func (s *budgetService) ResolveBudgetForDate(userID uint, date time.Time) (*models.Budget, error) {
	day := models.DateOnly(date)

	var budget models.Budget
	err := s.db.Where("user_id = ? AND is_active = ? AND period_start <= ? AND period_end >= ?",
		userID, true, day, day).
		Order("created_at DESC, id DESC").
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoBudgetForPeriod
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// EnsureBudgetForDate resolves the budget for a date, auto-provisioning one by
// rollover when none covers it: the most recent budget's amount is copied into
// a new budget spanning the calendar month of the date. A first-time user with
// no prior budget gets ErrNoBudgetConfigured unless fallbackAmount is given —
// no silent default is ever created.
func (s *budgetService) EnsureBudgetForDate(userID uint, date time.Time, fallbackAmount *int64) (*models.Budget, error) {
	budget, err := s.ResolveBudgetForDate(userID, date)
	if err == nil {
		return budget, nil
	}
	if !errors.Is(err, apperrors.ErrNoBudgetForPeriod) {
		return nil, err
	}

	start, end := monthBounds(date)

	last, err := s.lastBudget(userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNoBudgetConfigured) {
			return nil, err
		}
		if fallbackAmount == nil {
			return nil, apperrors.ErrNoBudgetConfigured
		}
		return s.createBudget(userID, *fallbackAmount, start, end, true, nil)
	}

	prevID := last.ID
	return s.createBudget(userID, last.Amount, start, end, true, &prevID)
}

// lastBudget returns the user's most recently created budget of any period.
func (s *budgetService) lastBudget(userID uint) (*models.Budget, error) {
	var budget models.Budget
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoBudgetConfigured
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// GetCurrentBudget resolves the budget covering now and computes its stats.
// Distinguishes a user who never configured a budget (ErrNoBudgetConfigured)
// from one whose budgets simply don't cover today (ErrNoBudgetForPeriod).
func (s *budgetService) GetCurrentBudget(userID uint, now time.Time) (*models.Budget, *BudgetStats, error) {
	budget, err := s.ResolveBudgetForDate(userID, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoBudgetForPeriod) {
			if _, lastErr := s.lastBudget(userID); errors.Is(lastErr, apperrors.ErrNoBudgetConfigured) {
				return nil, nil, apperrors.ErrNoBudgetConfigured
			}
		}
		return nil, nil, err
	}

	stats, err := s.statsFor(budget, now)
	if err != nil {
		return nil, nil, err
	}
	return budget, stats, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID uint) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// GetUserBudgets returns a paginated list of budgets for the user with an
// optional active-status filter.
func (s *budgetService) GetUserBudgets(userID uint, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Order("period_start DESC").Scopes(pagination.Paginate(page)).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetStats recomputes the stats snapshot for a budget from its current
// persisted expenses. No caching: always consistent with the ledger.
func (s *budgetService) GetBudgetStats(userID, budgetID uint) (*BudgetStats, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	return s.statsFor(budget, time.Now())
}

func (s *budgetService) statsFor(budget *models.Budget, now time.Time) (*BudgetStats, error) {
	var expenses []models.Expense
	if err := s.db.Where("budget_id = ?", budget.ID).Order("date ASC, id ASC").Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return ComputeStats(budget, expenses, now), nil
}

// DeleteBudget soft-deletes a budget and cascades to its expenses.
func (s *budgetService) DeleteBudget(userID, budgetID uint) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("budget_id = ?", budget.ID).Delete(&models.Expense{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// monthBounds returns the first and last day of the calendar month containing d.
func monthBounds(d time.Time) (time.Time, time.Time) {
	start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
	end := start.AddDate(0, 1, -1)
	return start, end
}
