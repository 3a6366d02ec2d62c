package services

import (
	"strings"
	"testing"
	"time"

	"panier/internal/models"
	"panier/internal/pagination"
	"panier/internal/testutil"

	"gorm.io/gorm"
)

func newExpenseServiceForTest(db *gorm.DB) ExpenseServicer {
	return NewExpenseService(db, NewBudgetService(db), nil)
}

func TestRecordExpense(t *testing.T) {
	t.Run("valid_with_explicit_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 50000, day(2024, time.January, 1), day(2024, time.January, 31))

		expense, err := svc.RecordExpense(user.ID, ExpenseInput{
			BudgetID: &budget.ID,
			Amount:   2350,
			Date:     day(2024, time.January, 10),
			Source:   "Carrefour",
			Category: "Boulangerie",
		})
		testutil.AssertNoError(t, err)

		if expense.ID == 0 {
			t.Fatal("expected non-zero expense ID")
		}
		if expense.BudgetID != budget.ID {
			t.Errorf("expected budget %d, got %d", budget.ID, expense.BudgetID)
		}
		if expense.Amount != 2350 {
			t.Errorf("expected amount 2350, got %d", expense.Amount)
		}
	})

	t.Run("resolves_budget_from_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 50000, day(2024, time.January, 1), day(2024, time.January, 31))

		expense, err := svc.RecordExpense(user.ID, ExpenseInput{
			Amount: 1000,
			Date:   day(2024, time.January, 20),
		})
		testutil.AssertNoError(t, err)

		if expense.BudgetID != budget.ID {
			t.Errorf("expected resolved budget %d, got %d", budget.ID, expense.BudgetID)
		}
	})

	t.Run("date_outside_explicit_budget_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 50000, day(2024, time.January, 1), day(2024, time.January, 31))

		_, err := svc.RecordExpense(user.ID, ExpenseInput{
			BudgetID: &budget.ID,
			Amount:   1000,
			Date:     day(2024, time.February, 1),
		})
		testutil.AssertAppError(t, err, "DATE_OUTSIDE_PERIOD")
	})

	t.Run("negative_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.RecordExpense(user.ID, ExpenseInput{
			Amount: -500,
			Date:   day(2024, time.January, 10),
		})
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("zero_amount_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 50000, day(2024, time.January, 1), day(2024, time.January, 31))

		expense, err := svc.RecordExpense(user.ID, ExpenseInput{
			BudgetID: &budget.ID,
			Amount:   0,
			Date:     day(2024, time.January, 10),
		})
		testutil.AssertNoError(t, err)
		if expense.Amount != 0 {
			t.Errorf("expected zero amount, got %d", expense.Amount)
		}
	})

	t.Run("future_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.RecordExpense(user.ID, ExpenseInput{
			Amount: 1000,
			Date:   time.Now().AddDate(0, 0, 2),
		})
		testutil.AssertAppError(t, err, "FUTURE_DATE")
	})

	t.Run("missing_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.RecordExpense(user.ID, ExpenseInput{Amount: 1000})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("overlong_notes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.RecordExpense(user.ID, ExpenseInput{
			Amount: 1000,
			Date:   day(2024, time.January, 10),
			Notes:  strings.Repeat("x", 501),
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("trims_notes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 50000, day(2024, time.January, 1), day(2024, time.January, 31))

		expense, err := svc.RecordExpense(user.ID, ExpenseInput{
			BudgetID: &budget.ID,
			Amount:   1000,
			Date:     day(2024, time.January, 10),
			Notes:    "  weekly shop  ",
		})
		testutil.AssertNoError(t, err)
		if expense.Notes != "weekly shop" {
			t.Errorf("expected trimmed notes, got %q", expense.Notes)
		}
	})

	t.Run("auto_provisions_budget_by_rollover", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		april := testutil.CreateTestBudget(t, db, user.ID, 42000, day(2024, time.April, 1), day(2024, time.April, 30))

		expense, err := svc.RecordExpense(user.ID, ExpenseInput{
			Amount: 1000,
			Date:   day(2024, time.June, 10),
		})
		testutil.AssertNoError(t, err)

		var budget models.Budget
		if err := db.First(&budget, expense.BudgetID).Error; err != nil {
			t.Fatalf("failed to load provisioned budget: %v", err)
		}
		if budget.Amount != 42000 {
			t.Errorf("expected rolled-over amount 42000, got %d", budget.Amount)
		}
		if budget.PreviousBudgetID == nil || *budget.PreviousBudgetID != april.ID {
			t.Errorf("expected previous budget reference to %d, got %v", april.ID, budget.PreviousBudgetID)
		}
	})

	t.Run("first_time_user_without_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.RecordExpense(user.ID, ExpenseInput{
			Amount: 1000,
			Date:   day(2024, time.June, 10),
		})
		testutil.AssertAppError(t, err, "NO_BUDGET_CONFIGURED")
	})

	t.Run("wrong_user_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user1.ID, 50000, day(2024, time.January, 1), day(2024, time.January, 31))

		_, err := svc.RecordExpense(user2.ID, ExpenseInput{
			BudgetID: &budget.ID,
			Amount:   1000,
			Date:     day(2024, time.January, 10),
		})
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestRecordExpenseFromProduct(t *testing.T) {
	t.Run("no_price_records_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)

		result, err := svc.RecordExpenseFromProduct(user.ID, ProductExpenseInput{
			ProductName:  "Baguette tradition",
			PurchaseDate: day(2024, time.January, 10),
		})
		testutil.AssertNoError(t, err)

		if result.Expense != nil {
			t.Error("expected no expense for a purchase without a price")
		}
		if result.BudgetUpdated {
			t.Error("expected no budget change for a purchase without a price")
		}
		if result.Message == "" {
			t.Error("expected an explanatory message")
		}
	})

	t.Run("zero_price_records_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)

		amount := int64(0)
		result, err := svc.RecordExpenseFromProduct(user.ID, ProductExpenseInput{
			ProductName:  "Baguette tradition",
			Amount:       &amount,
			PurchaseDate: day(2024, time.January, 10),
		})
		testutil.AssertNoError(t, err)
		if result.Expense != nil {
			t.Error("expected no expense for a zero-price purchase")
		}
	})

	t.Run("negative_price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)

		amount := int64(-100)
		_, err := svc.RecordExpenseFromProduct(user.ID, ProductExpenseInput{
			ProductName:  "Baguette tradition",
			Amount:       &amount,
			PurchaseDate: day(2024, time.January, 10),
		})
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("records_against_existing_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 50000, day(2024, time.January, 1), day(2024, time.January, 31))

		amount := int64(120)
		result, err := svc.RecordExpenseFromProduct(user.ID, ProductExpenseInput{
			ProductName:  "Baguette tradition",
			Amount:       &amount,
			PurchaseDate: day(2024, time.January, 10),
		})
		testutil.AssertNoError(t, err)

		if result.Expense == nil {
			t.Fatal("expected an expense to be recorded")
		}
		if result.Expense.BudgetID != budget.ID {
			t.Errorf("expected budget %d, got %d", budget.ID, result.Expense.BudgetID)
		}
		if result.BudgetUpdated {
			t.Error("expected budget_updated false for an existing budget")
		}
		if result.Expense.Source != "Baguette tradition" {
			t.Errorf("expected source to default to product name, got %q", result.Expense.Source)
		}
	})

	t.Run("persists_inventory_item_reference", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestBudget(t, db, user.ID, 50000, day(2024, time.January, 1), day(2024, time.January, 31))

		amount := int64(450)
		result, err := svc.RecordExpenseFromProduct(user.ID, ProductExpenseInput{
			ProductName:     "Camembert au lait cru",
			Amount:          &amount,
			PurchaseDate:    day(2024, time.January, 12),
			InventoryItemID: "inv-7c21",
		})
		testutil.AssertNoError(t, err)

		if result.Expense == nil {
			t.Fatal("expected an expense to be recorded")
		}
		if result.Expense.InventoryItemID != "inv-7c21" {
			t.Errorf("expected inventory item reference inv-7c21, got %q", result.Expense.InventoryItemID)
		}

		var reloaded models.Expense
		if err := db.First(&reloaded, result.Expense.ID).Error; err != nil {
			t.Fatalf("failed to reload expense: %v", err)
		}
		if reloaded.InventoryItemID != "inv-7c21" {
			t.Errorf("expected persisted inventory item reference inv-7c21, got %q", reloaded.InventoryItemID)
		}
	})

	t.Run("auto_detects_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestBudget(t, db, user.ID, 50000, day(2024, time.January, 1), day(2024, time.January, 31))

		amount := int64(120)
		result, err := svc.RecordExpenseFromProduct(user.ID, ProductExpenseInput{
			ProductName:        "Baguette tradition",
			Amount:             &amount,
			PurchaseDate:       day(2024, time.January, 10),
			AutoDetectCategory: true,
		})
		testutil.AssertNoError(t, err)

		if result.Expense.Category != "Boulangerie" {
			t.Errorf("expected detected category Boulangerie, got %q", result.Expense.Category)
		}
	})

	t.Run("no_budget_without_provisioning", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)

		amount := int64(120)
		result, err := svc.RecordExpenseFromProduct(user.ID, ProductExpenseInput{
			ProductName:  "Baguette tradition",
			Amount:       &amount,
			PurchaseDate: day(2024, time.January, 10),
		})
		testutil.AssertNoError(t, err)

		if result.Expense != nil {
			t.Error("expected no expense when no budget covers the date")
		}
		if result.Message == "" {
			t.Error("expected an explanatory message")
		}
	})

	t.Run("provisions_budget_by_rollover", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestBudget(t, db, user.ID, 42000, day(2024, time.April, 1), day(2024, time.April, 30))

		amount := int64(120)
		result, err := svc.RecordExpenseFromProduct(user.ID, ProductExpenseInput{
			ProductName:        "Baguette tradition",
			Amount:             &amount,
			PurchaseDate:       day(2024, time.June, 10),
			FindOrCreateBudget: true,
		})
		testutil.AssertNoError(t, err)

		if result.Expense == nil {
			t.Fatal("expected an expense to be recorded")
		}
		if !result.BudgetUpdated {
			t.Error("expected budget_updated true after provisioning")
		}
	})

	t.Run("first_time_user_without_default_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)

		amount := int64(120)
		result, err := svc.RecordExpenseFromProduct(user.ID, ProductExpenseInput{
			ProductName:        "Baguette tradition",
			Amount:             &amount,
			PurchaseDate:       day(2024, time.June, 10),
			FindOrCreateBudget: true,
		})
		testutil.AssertNoError(t, err)

		if result.Expense != nil {
			t.Error("expected no expense for a first-time user without a default amount")
		}
		if result.Message == "" {
			t.Error("expected an explanatory message")
		}
	})

	t.Run("first_time_user_with_default_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)

		amount := int64(120)
		defaultAmount := int64(30000)
		result, err := svc.RecordExpenseFromProduct(user.ID, ProductExpenseInput{
			ProductName:         "Baguette tradition",
			Amount:              &amount,
			PurchaseDate:        day(2024, time.June, 10),
			FindOrCreateBudget:  true,
			DefaultBudgetAmount: &defaultAmount,
		})
		testutil.AssertNoError(t, err)

		if result.Expense == nil {
			t.Fatal("expected an expense to be recorded")
		}
		if !result.BudgetUpdated {
			t.Error("expected budget_updated true after provisioning")
		}

		var budget models.Budget
		if err := db.First(&budget, result.Expense.BudgetID).Error; err != nil {
			t.Fatalf("failed to load provisioned budget: %v", err)
		}
		if budget.Amount != 30000 {
			t.Errorf("expected provisioned amount 30000, got %d", budget.Amount)
		}
	})
}

func TestGetBudgetExpenses(t *testing.T) {
	t.Run("most_recent_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 50000, day(2024, time.January, 1), day(2024, time.January, 31))
		testutil.CreateTestExpense(t, db, user.ID, budget.ID, 1000, day(2024, time.January, 5))
		testutil.CreateTestExpense(t, db, user.ID, budget.ID, 2000, day(2024, time.January, 20))
		testutil.CreateTestExpense(t, db, user.ID, budget.ID, 3000, day(2024, time.January, 12))

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetBudgetExpenses(user.ID, budget.ID, page)
		testutil.AssertNoError(t, err)

		if result.TotalItems != 3 {
			t.Fatalf("expected 3 expenses, got %d", result.TotalItems)
		}
		if result.Data[0].Amount != 2000 {
			t.Errorf("expected most recent expense first, got amount %d", result.Data[0].Amount)
		}
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user1.ID, 50000, day(2024, time.January, 1), day(2024, time.January, 31))

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		_, err := svc.GetBudgetExpenses(user2.ID, budget.ID, page)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestUpdateExpense(t *testing.T) {
	t.Run("updates_mutable_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 50000, day(2024, time.January, 1), day(2024, time.January, 31))
		expense := testutil.CreateTestExpense(t, db, user.ID, budget.ID, 1000, day(2024, time.January, 5))

		amount := int64(1500)
		category := "Boulangerie"
		updated, err := svc.UpdateExpense(user.ID, expense.ID, ExpenseUpdate{
			Amount:   &amount,
			Category: &category,
		})
		testutil.AssertNoError(t, err)

		if updated.Amount != 1500 {
			t.Errorf("expected amount 1500, got %d", updated.Amount)
		}
		if updated.Category != "Boulangerie" {
			t.Errorf("expected category Boulangerie, got %q", updated.Category)
		}
	})

	t.Run("date_and_budget_unchanged", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 50000, day(2024, time.January, 1), day(2024, time.January, 31))
		expense := testutil.CreateTestExpense(t, db, user.ID, budget.ID, 1000, day(2024, time.January, 5))

		amount := int64(1500)
		_, err := svc.UpdateExpense(user.ID, expense.ID, ExpenseUpdate{Amount: &amount})
		testutil.AssertNoError(t, err)

		var reloaded models.Expense
		if err := db.First(&reloaded, expense.ID).Error; err != nil {
			t.Fatalf("failed to reload expense: %v", err)
		}
		if !reloaded.Date.Equal(expense.Date) {
			t.Error("expected expense date to be immutable")
		}
		if reloaded.BudgetID != budget.ID {
			t.Error("expected budget attachment to be immutable")
		}
	})

	t.Run("negative_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 50000, day(2024, time.January, 1), day(2024, time.January, 31))
		expense := testutil.CreateTestExpense(t, db, user.ID, budget.ID, 1000, day(2024, time.January, 5))

		amount := int64(-1)
		_, err := svc.UpdateExpense(user.ID, expense.ID, ExpenseUpdate{Amount: &amount})
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user1.ID, 50000, day(2024, time.January, 1), day(2024, time.January, 31))
		expense := testutil.CreateTestExpense(t, db, user1.ID, budget.ID, 1000, day(2024, time.January, 5))

		amount := int64(1500)
		_, err := svc.UpdateExpense(user2.ID, expense.ID, ExpenseUpdate{Amount: &amount})
		testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")
	})
}

func TestDeleteExpense(t *testing.T) {
	t.Run("deletes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 50000, day(2024, time.January, 1), day(2024, time.January, 31))
		expense := testutil.CreateTestExpense(t, db, user.ID, budget.ID, 1000, day(2024, time.January, 5))

		err := svc.DeleteExpense(user.ID, expense.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.GetExpenseByID(user.ID, expense.ID)
		testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExpenseServiceForTest(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user1.ID, 50000, day(2024, time.January, 1), day(2024, time.January, 31))
		expense := testutil.CreateTestExpense(t, db, user1.ID, budget.ID, 1000, day(2024, time.January, 5))

		err := svc.DeleteExpense(user2.ID, expense.ID)
		testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")
	})
}
