package services

import (
	"time"

	"panier/internal/models"
	"panier/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// BudgetServicer defines the contract for budget period resolution and
// provisioning. Creation is the sole mutation path that changes which budget
// is active for a period: any existing active budget overlapping a newly
// created one is deactivated in the same database transaction.
type BudgetServicer interface {
	CreateBudget(userID uint, amount int64, periodStart, periodEnd time.Time, isActive bool) (*models.Budget, error)
	CreateMonthlyBudget(userID uint, amount int64, year int, month time.Month) (*models.Budget, error)
	ResolveBudgetForDate(userID uint, date time.Time) (*models.Budget, error)
	EnsureBudgetForDate(userID uint, date time.Time, fallbackAmount *int64) (*models.Budget, error)
	GetCurrentBudget(userID uint, now time.Time) (*models.Budget, *BudgetStats, error)
	GetBudgetByID(userID, budgetID uint) (*models.Budget, error)
	GetUserBudgets(userID uint, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.Budget], error)
	GetBudgetStats(userID, budgetID uint) (*BudgetStats, error)
	DeleteBudget(userID, budgetID uint) error
}

// ExpenseInput holds the caller-supplied fields for recording an expense.
// A nil BudgetID means the target budget is resolved (or provisioned) from
// the expense date.
type ExpenseInput struct {
	BudgetID        *uint
	Amount          int64
	Date            time.Time
	Source          string
	Category        string
	Notes           string
	ReceiptID       string
	InventoryItemID string
}

// ExpenseUpdate holds the mutable fields of an expense. The date is
// immutable after creation: an expense can never move between periods.
type ExpenseUpdate struct {
	Amount   *int64
	Source   *string
	Category *string
	Notes    *string
}

// ProductExpenseInput describes a purchase recorded from the inventory side.
type ProductExpenseInput struct {
	ProductName  string
	Amount       *int64
	PurchaseDate time.Time
	Source       string
	Notes        string

	// InventoryItemID ties the expense back to the inventory record that
	// triggered it. Opaque to this service.
	InventoryItemID string

	// FindOrCreateBudget allows provisioning a budget for the purchase date
	// when none covers it. DefaultBudgetAmount seeds a first-time budget;
	// without it a user who never configured one gets a soft refusal.
	FindOrCreateBudget  bool
	DefaultBudgetAmount *int64
	AutoDetectCategory  bool
}

// ProductExpenseResult reports what the product-purchase flow did. Expense is
// nil when no expense with financial impact was recorded.
type ProductExpenseResult struct {
	Expense       *models.Expense `json:"expense"`
	BudgetID      *uint           `json:"budget_id"`
	BudgetUpdated bool            `json:"budget_updated"`
	Message       string          `json:"message"`
}

// ExpenseServicer defines the contract for expense reconciliation.
type ExpenseServicer interface {
	RecordExpense(userID uint, in ExpenseInput) (*models.Expense, error)
	RecordExpenseFromProduct(userID uint, in ProductExpenseInput) (*ProductExpenseResult, error)
	GetExpenseByID(userID, expenseID uint) (*models.Expense, error)
	GetBudgetExpenses(userID, budgetID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	UpdateExpense(userID, expenseID uint, upd ExpenseUpdate) (*models.Expense, error)
	DeleteExpense(userID, expenseID uint) error
}

// AlertServicer decides and records threshold alerts for a budget.
// CheckBudgetAlerts returns any alert fired by this call (empty when spend
// has not crossed a new threshold since the last recorded alert).
type AlertServicer interface {
	CheckBudgetAlerts(userID, budgetID uint) ([]models.Notification, error)
}

// NotificationServicer defines the contract for notification persistence.
type NotificationServicer interface {
	Create(n *models.Notification) error
	GetUserNotifications(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error)
	GetLastBudgetAlert(userID, budgetID uint) (*models.Notification, error)
}
