package services

import (
	"testing"
	"time"

	"panier/internal/models"
	"panier/internal/testutil"

	"gorm.io/gorm"
)

func TestShouldAlert(t *testing.T) {
	stats := func(amount, spent int64) *BudgetStats {
		return &BudgetStats{
			Amount:       amount,
			TotalSpent:   spent,
			IsOverBudget: spent > amount,
		}
	}

	cases := []struct {
		name          string
		stats         *BudgetStats
		lastThreshold int
		expectedKind  AlertKind
		expectedFire  bool
	}{
		{"below_all_thresholds", stats(10000, 5000), 0, "", false},
		{"crosses_75", stats(10000, 7600), 0, AlertKindThreshold75, true},
		{"exactly_75", stats(10000, 7500), 0, AlertKindThreshold75, true},
		{"crosses_90", stats(10000, 9100), 0, AlertKindThreshold90, true},
		{"crosses_90_after_75", stats(10000, 9100), 75, AlertKindThreshold90, true},
		{"over_budget", stats(10000, 10100), 0, AlertKindOverBudget, true},
		{"over_budget_after_90", stats(10000, 10100), 90, AlertKindOverBudget, true},
		{"no_repeat_75", stats(10000, 8000), 75, "", false},
		{"no_repeat_90", stats(10000, 9500), 90, "", false},
		{"no_repeat_over", stats(10000, 12000), 100, "", false},
		{"drop_does_not_rearm", stats(10000, 7600), 100, "", false},
		{"exactly_at_limit_not_over", stats(10000, 10000), 90, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, fire := ShouldAlert(tc.stats, tc.lastThreshold)
			if fire != tc.expectedFire {
				t.Fatalf("expected fire=%v, got %v", tc.expectedFire, fire)
			}
			if kind != tc.expectedKind {
				t.Errorf("expected kind %q, got %q", tc.expectedKind, kind)
			}
		})
	}
}

func TestAlertKindThreshold(t *testing.T) {
	if AlertKindThreshold75.Threshold() != 75 {
		t.Error("expected 75")
	}
	if AlertKindThreshold90.Threshold() != 90 {
		t.Error("expected 90")
	}
	if AlertKindOverBudget.Threshold() != 100 {
		t.Error("expected 100")
	}
}

func newAlertServiceForTest(db *gorm.DB) (AlertServicer, NotificationServicer) {
	notifications := NewNotificationService(db)
	return NewAlertService(NewBudgetService(db), notifications), notifications
}

func TestCheckBudgetAlerts(t *testing.T) {
	t.Run("fires_in_order_as_spend_climbs", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newAlertServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 10000, day(2024, time.January, 1), day(2024, time.January, 31))

		// 76% spent: the 75 threshold fires.
		testutil.CreateTestExpense(t, db, user.ID, budget.ID, 7600, day(2024, time.January, 5))
		fired, err := svc.CheckBudgetAlerts(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if len(fired) != 1 || fired[0].ThresholdReached != 75 {
			t.Fatalf("expected one 75%% alert, got %+v", fired)
		}
		if fired[0].ReferenceID != budget.ID || fired[0].ReferenceType != models.ReferenceTypeBudget {
			t.Error("expected alert to reference the budget")
		}

		// Unchanged spend: nothing new fires.
		fired, err = svc.CheckBudgetAlerts(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if len(fired) != 0 {
			t.Fatalf("expected no repeat alert, got %+v", fired)
		}

		// 91% spent: the 90 threshold fires.
		testutil.CreateTestExpense(t, db, user.ID, budget.ID, 1500, day(2024, time.January, 10))
		fired, err = svc.CheckBudgetAlerts(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if len(fired) != 1 || fired[0].ThresholdReached != 90 {
			t.Fatalf("expected one 90%% alert, got %+v", fired)
		}

		// 101% spent: the over-budget alert fires.
		testutil.CreateTestExpense(t, db, user.ID, budget.ID, 1000, day(2024, time.January, 15))
		fired, err = svc.CheckBudgetAlerts(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if len(fired) != 1 || fired[0].ThresholdReached != 100 {
			t.Fatalf("expected one over-budget alert, got %+v", fired)
		}

		// Still over: nothing new fires.
		fired, err = svc.CheckBudgetAlerts(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if len(fired) != 0 {
			t.Fatalf("expected no repeat alert, got %+v", fired)
		}
	})

	t.Run("big_jump_fires_only_highest", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newAlertServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 10000, day(2024, time.January, 1), day(2024, time.January, 31))

		testutil.CreateTestExpense(t, db, user.ID, budget.ID, 12000, day(2024, time.January, 5))
		fired, err := svc.CheckBudgetAlerts(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if len(fired) != 1 || fired[0].ThresholdReached != 100 {
			t.Fatalf("expected a single over-budget alert, got %+v", fired)
		}
	})

	t.Run("drop_and_rise_does_not_refire_lower_threshold", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newAlertServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 10000, day(2024, time.January, 1), day(2024, time.January, 31))

		expense := testutil.CreateTestExpense(t, db, user.ID, budget.ID, 7600, day(2024, time.January, 5))
		fired, err := svc.CheckBudgetAlerts(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if len(fired) != 1 || fired[0].ThresholdReached != 75 {
			t.Fatalf("expected one 75%% alert, got %+v", fired)
		}

		// Spend drops below 75 and climbs back over it: no second 75 alert.
		if err := db.Delete(expense).Error; err != nil {
			t.Fatalf("failed to delete expense: %v", err)
		}
		testutil.CreateTestExpense(t, db, user.ID, budget.ID, 7800, day(2024, time.January, 10))
		fired, err = svc.CheckBudgetAlerts(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if len(fired) != 0 {
			t.Fatalf("expected no repeat 75%% alert, got %+v", fired)
		}

		// But a higher threshold still fires.
		testutil.CreateTestExpense(t, db, user.ID, budget.ID, 1500, day(2024, time.January, 12))
		fired, err = svc.CheckBudgetAlerts(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if len(fired) != 1 || fired[0].ThresholdReached != 90 {
			t.Fatalf("expected a 90%% alert, got %+v", fired)
		}
	})

	t.Run("persists_notification", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, notifications := newAlertServiceForTest(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, 10000, day(2024, time.January, 1), day(2024, time.January, 31))

		testutil.CreateTestExpense(t, db, user.ID, budget.ID, 10500, day(2024, time.January, 5))
		_, err := svc.CheckBudgetAlerts(user.ID, budget.ID)
		testutil.AssertNoError(t, err)

		last, err := notifications.GetLastBudgetAlert(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		if last.ThresholdReached != 100 {
			t.Errorf("expected persisted threshold 100, got %d", last.ThresholdReached)
		}
		if last.Title == "" || last.Message == "" {
			t.Error("expected a rendered title and message")
		}
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newAlertServiceForTest(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user1.ID, 10000, day(2024, time.January, 1), day(2024, time.January, 31))

		_, err := svc.CheckBudgetAlerts(user2.ID, budget.ID)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestRecordExpenseFiresAlert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	budgets := NewBudgetService(db)
	notifications := NewNotificationService(db)
	alerts := NewAlertService(budgets, notifications)
	svc := NewExpenseService(db, budgets, alerts)
	user := testutil.CreateTestUser(t, db)
	budget := testutil.CreateTestBudget(t, db, user.ID, 10000, day(2024, time.January, 1), day(2024, time.January, 31))

	_, err := svc.RecordExpense(user.ID, ExpenseInput{
		BudgetID: &budget.ID,
		Amount:   9200,
		Date:     day(2024, time.January, 10),
	})
	testutil.AssertNoError(t, err)

	last, err := notifications.GetLastBudgetAlert(user.ID, budget.ID)
	testutil.AssertNoError(t, err)
	if last.ThresholdReached != 90 {
		t.Errorf("expected a 90%% alert after recording, got threshold %d", last.ThresholdReached)
	}
}
