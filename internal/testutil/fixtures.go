package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"panier/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestBudget creates an active budget with the given amount (in cents)
// covering the given period.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID uint, amount int64, periodStart, periodEnd time.Time) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:      userID,
		Amount:      amount,
		PeriodStart: models.DateOnly(periodStart),
		PeriodEnd:   models.DateOnly(periodEnd),
		IsActive:    true,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestExpense creates an expense of the given amount (in cents) dated
// on the given day.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID, budgetID uint, amount int64, date time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:   userID,
		BudgetID: budgetID,
		Amount:   amount,
		Date:     models.DateOnly(date),
		Source:   fmt.Sprintf("Test Store %d", nextID()),
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}
