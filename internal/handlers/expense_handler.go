package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "panier/internal/errors"
	"panier/internal/pagination"
	"panier/internal/services"
)

// ExpenseHandler handles expense-related requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// RecordExpenseRequest represents the request payload for recording an
// expense. Amount is in cents; zero marks a tracked purchase with no price.
// When budget_id is omitted the budget is resolved from the date.
type RecordExpenseRequest struct {
	BudgetID        *uint     `json:"budget_id"`
	Amount          int64     `json:"amount" binding:"min=0"`
	Date            time.Time `json:"date" binding:"required,not_future"`
	Source          string    `json:"source" binding:"max=100"`
	Category        string    `json:"category" binding:"max=50"`
	Notes           string    `json:"notes" binding:"max=500"`
	ReceiptID       string    `json:"receipt_id" binding:"max=100"`
	InventoryItemID string    `json:"inventory_item_id" binding:"max=100"`
}

// UpdateExpenseRequest represents the request payload for updating an
// expense. The date is immutable and deliberately absent.
type UpdateExpenseRequest struct {
	Amount   *int64  `json:"amount" binding:"omitempty,min=0"`
	Source   *string `json:"source" binding:"omitempty,max=100"`
	Category *string `json:"category" binding:"omitempty,max=50"`
	Notes    *string `json:"notes" binding:"omitempty,max=500"`
}

// ProductExpenseRequest represents a purchase forwarded from the inventory
// flow. Options control budget provisioning and category detection.
type ProductExpenseRequest struct {
	ProductName     string    `json:"product_name" binding:"required,max=100"`
	Amount          *int64    `json:"amount" binding:"omitempty,min=0"`
	PurchaseDate    time.Time `json:"purchase_date" binding:"required,not_future"`
	Source          string    `json:"source" binding:"max=100"`
	Notes           string    `json:"notes" binding:"max=500"`
	InventoryItemID string    `json:"inventory_item_id" binding:"max=100"`

	Options ProductExpenseOptions `json:"options"`
}

// ProductExpenseOptions controls the product-purchase flow.
type ProductExpenseOptions struct {
	FindOrCreateBudget  bool   `json:"find_or_create_budget"`
	DefaultBudgetAmount *int64 `json:"default_budget_amount" binding:"omitempty,min=0"`
	AutoDetectCategory  bool   `json:"auto_detect_category"`
}

// RecordExpense handles recording a new expense.
// @Summary     Record an expense
// @Description Record an expense against an explicit or date-resolved budget
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RecordExpenseRequest true "Expense details"
// @Success     201 {object} models.Expense "Expense recorded"
// @Failure     400 {object} ErrorResponse "Invalid amount, future date, or date outside period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found or none configured"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [post]
func (h *ExpenseHandler) RecordExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RecordExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	expense, err := h.expenseService.RecordExpense(userID, services.ExpenseInput{
		BudgetID:        req.BudgetID,
		Amount:          req.Amount,
		Date:            req.Date,
		Source:          req.Source,
		Category:        req.Category,
		Notes:           req.Notes,
		ReceiptID:       req.ReceiptID,
		InventoryItemID: req.InventoryItemID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// RecordExpenseFromProduct handles the product-purchase expense flow.
// @Summary     Record an expense from a product purchase
// @Description Record the financial side of a product purchase, optionally provisioning a budget and detecting the category
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ProductExpenseRequest true "Purchase details"
// @Success     200 {object} services.ProductExpenseResult "Outcome of the purchase flow"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/from-product [post]
func (h *ExpenseHandler) RecordExpenseFromProduct(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ProductExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.expenseService.RecordExpenseFromProduct(userID, services.ProductExpenseInput{
		ProductName:         req.ProductName,
		Amount:              req.Amount,
		PurchaseDate:        req.PurchaseDate,
		Source:              req.Source,
		Notes:               req.Notes,
		InventoryItemID:     req.InventoryItemID,
		FindOrCreateBudget:  req.Options.FindOrCreateBudget,
		DefaultBudgetAmount: req.Options.DefaultBudgetAmount,
		AutoDetectCategory:  req.Options.AutoDetectCategory,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetExpense handles retrieving a specific expense.
// @Summary     Get expense by ID
// @Description Get a specific expense by ID
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Expense ID"
// @Success     200 {object} models.Expense "Expense details"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpenseByID(userID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// GetBudgetExpenses handles listing a budget's expenses.
// @Summary     Get budget expenses
// @Description Get a paginated list of expenses for a budget, most recent first
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  int true  "Budget ID"
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Paginated expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/expenses [get]
func (h *ExpenseHandler) GetBudgetExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.expenseService.GetBudgetExpenses(userID, budgetID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateExpense handles updating an existing expense.
// @Summary     Update expense
// @Description Update an expense's amount, source, category, or notes; the date cannot change
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                  true "Expense ID"
// @Param       request body UpdateExpenseRequest true "Updated expense fields"
// @Success     200 {object} models.Expense "Updated expense"
// @Failure     400 {object} ErrorResponse "Invalid input or expense ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	expense, err := h.expenseService.UpdateExpense(userID, expenseID, services.ExpenseUpdate{
		Amount:   req.Amount,
		Source:   req.Source,
		Category: req.Category,
		Notes:    req.Notes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// DeleteExpense handles deleting an expense.
// @Summary     Delete expense
// @Description Delete an expense by ID
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Expense ID"
// @Success     200 {object} MessageResponse "Expense deleted"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(userID, expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}
