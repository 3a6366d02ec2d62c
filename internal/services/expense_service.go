package services

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	apperrors "panier/internal/errors"
	"panier/internal/logger"
	"panier/internal/metrics"
	"panier/internal/models"
	"panier/internal/pagination"
)

const (
	maxSourceLen   = 100
	maxCategoryLen = 50
	maxNotesLen    = 500
)

// expenseService reconciles expenses against budget periods.
type expenseService struct {
	db      *gorm.DB
	budgets BudgetServicer
	alerts  AlertServicer
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB, budgets BudgetServicer, alerts AlertServicer) ExpenseServicer {
	return &expenseService{db: db, budgets: budgets, alerts: alerts}
}

// RecordExpense validates a candidate expense, attaches it to its budget
// (explicit or resolved from the date, auto-provisioning by rollover when
// needed), persists it, and triggers the alert check for that budget. The
// alert check is best-effort: its failure never fails the recording.
func (s *expenseService) RecordExpense(userID uint, in ExpenseInput) (*models.Expense, error) {
	expense, err := s.recordExpense(userID, in, "manual")
	if err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *expenseService) recordExpense(userID uint, in ExpenseInput, origin string) (*models.Expense, error) {
	if in.Amount < 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if in.Date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}
	if models.DateOnly(in.Date).After(models.DateOnly(time.Now())) {
		return nil, apperrors.ErrFutureDate
	}
	if utf8.RuneCountInString(in.Source) > maxSourceLen {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "source must be at most 100 characters")
	}
	if utf8.RuneCountInString(in.Category) > maxCategoryLen {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category must be at most 50 characters")
	}
	notes := strings.TrimSpace(in.Notes)
	if utf8.RuneCountInString(notes) > maxNotesLen {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "notes must be at most 500 characters")
	}

	var budget *models.Budget
	var err error
	if in.BudgetID != nil {
		budget, err = s.budgets.GetBudgetByID(userID, *in.BudgetID)
	} else {
		budget, err = s.budgets.EnsureBudgetForDate(userID, in.Date, nil)
	}
	if err != nil {
		return nil, err
	}

	// The date must fall inside the resolved period. Never clamp the date or
	// silently reassign the expense to a different budget.
	if !budget.ContainsDate(in.Date) {
		return nil, apperrors.ErrDateOutsidePeriod
	}

	expense := &models.Expense{
		UserID:          userID,
		BudgetID:        budget.ID,
		Amount:          in.Amount,
		Date:            models.DateOnly(in.Date),
		Source:          in.Source,
		Category:        in.Category,
		Notes:           notes,
		ReceiptID:       in.ReceiptID,
		InventoryItemID: in.InventoryItemID,
	}
	if err := s.db.Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	metrics.RecordExpense(origin)
	s.checkAlerts(userID, budget.ID)

	return expense, nil
}

// checkAlerts runs the alert check for a budget, logging and swallowing any
// failure. A missed alert must never fail the expense that triggered it.
func (s *expenseService) checkAlerts(userID, budgetID uint) {
	if s.alerts == nil {
		return
	}
	if _, err := s.alerts.CheckBudgetAlerts(userID, budgetID); err != nil {
		logger.Get().Errorw("budget alert check failed",
			"error", err,
			"user_id", userID,
			"budget_id", budgetID,
		)
	}
}

// RecordExpenseFromProduct records the financial side of a product purchase.
// A purchase without a price is tracked elsewhere and records no expense here.
// Budget resolution failures are reported as a soft result, not an error, so
// the inventory flow that called us can still complete.
func (s *expenseService) RecordExpenseFromProduct(userID uint, in ProductExpenseInput) (*ProductExpenseResult, error) {
	if in.Amount != nil && *in.Amount < 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if in.Amount == nil || *in.Amount == 0 {
		return &ProductExpenseResult{
			Message: "No price on this purchase; nothing was charged to the budget",
		}, nil
	}

	date := in.PurchaseDate
	if date.IsZero() {
		date = time.Now()
	}

	budget, err := s.budgets.ResolveBudgetForDate(userID, date)
	budgetUpdated := false
	if err != nil {
		if !errors.Is(err, apperrors.ErrNoBudgetForPeriod) {
			return nil, err
		}
		if !in.FindOrCreateBudget {
			return &ProductExpenseResult{
				Message: "No budget covers this purchase date; expense not recorded",
			}, nil
		}
		budget, err = s.budgets.EnsureBudgetForDate(userID, date, in.DefaultBudgetAmount)
		if err != nil {
			if errors.Is(err, apperrors.ErrNoBudgetConfigured) {
				return &ProductExpenseResult{
					Message: "No budget configured and no default amount given; expense not recorded",
				}, nil
			}
			return nil, err
		}
		budgetUpdated = true
	}

	category := ""
	if in.AutoDetectCategory {
		category = DetectCategory(in.ProductName)
	}

	source := in.Source
	if source == "" {
		source = in.ProductName
	}

	expense, err := s.recordExpense(userID, ExpenseInput{
		BudgetID:        &budget.ID,
		Amount:          *in.Amount,
		Date:            date,
		Source:          source,
		Category:        category,
		Notes:           in.Notes,
		InventoryItemID: in.InventoryItemID,
	}, "product")
	if err != nil {
		return nil, err
	}

	return &ProductExpenseResult{
		Expense:       expense,
		BudgetID:      &budget.ID,
		BudgetUpdated: budgetUpdated,
		Message:       "Expense recorded",
	}, nil
}

// GetExpenseByID retrieves an expense by ID for a specific user.
func (s *expenseService) GetExpenseByID(userID, expenseID uint) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// GetBudgetExpenses returns a paginated list of a budget's expenses, most
// recent first.
func (s *expenseService) GetBudgetExpenses(userID, budgetID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	if _, err := s.budgets.GetBudgetByID(userID, budgetID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.Expense{}).Where("user_id = ? AND budget_id = ?", userID, budgetID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := base.Order("date DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateExpense updates an expense's mutable fields. The date (and with it
// the budget attachment) cannot change after creation.
func (s *expenseService) UpdateExpense(userID, expenseID uint, upd ExpenseUpdate) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if upd.Amount != nil {
		if *upd.Amount < 0 {
			return nil, apperrors.ErrInvalidAmount
		}
		updates["amount"] = *upd.Amount
	}
	if upd.Source != nil {
		if utf8.RuneCountInString(*upd.Source) > maxSourceLen {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "source must be at most 100 characters")
		}
		updates["source"] = *upd.Source
	}
	if upd.Category != nil {
		if utf8.RuneCountInString(*upd.Category) > maxCategoryLen {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category must be at most 50 characters")
		}
		updates["category"] = *upd.Category
	}
	if upd.Notes != nil {
		notes := strings.TrimSpace(*upd.Notes)
		if utf8.RuneCountInString(notes) > maxNotesLen {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "notes must be at most 500 characters")
		}
		updates["notes"] = notes
	}

	if len(updates) > 0 {
		if err := s.db.Model(expense).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if _, ok := updates["amount"]; ok {
			s.checkAlerts(userID, expense.BudgetID)
		}
	}

	return expense, nil
}

// DeleteExpense soft-deletes an expense.
func (s *expenseService) DeleteExpense(userID, expenseID uint) error {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(expense).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
