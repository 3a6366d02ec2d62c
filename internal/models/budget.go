package models

import "time"

// Budget represents a spending ceiling over a closed calendar-date period.
// For a given user, at most one active budget may cover any calendar date;
// creating an overlapping budget deactivates its predecessors.
type Budget struct {
	Base
	UserID      uint      `gorm:"not null;index;uniqueIndex:uq_budgets_user_active_start,priority:1,where:is_active AND deleted_at IS NULL" json:"user_id"`
	Amount      int64     `gorm:"type:bigint;not null" json:"amount"`
	PeriodStart time.Time `gorm:"not null;uniqueIndex:uq_budgets_user_active_start,priority:2" json:"period_start"`
	PeriodEnd   time.Time `gorm:"not null" json:"period_end"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`

	// Set when this budget was auto-provisioned by rolling over a prior
	// budget's amount. Back-reference only.
	PreviousBudgetID *uint `json:"previous_budget_id,omitempty"`

	Expenses []Expense `gorm:"foreignKey:BudgetID" json:"expenses,omitempty"`
}

// ContainsDate reports whether d falls within [PeriodStart, PeriodEnd].
func (b *Budget) ContainsDate(d time.Time) bool {
	day := DateOnly(d)
	return !day.Before(DateOnly(b.PeriodStart)) && !day.After(DateOnly(b.PeriodEnd))
}

// Overlaps reports whether the given period overlaps this budget's period.
// Overlap is closed on both ends: start <= b.PeriodEnd && end >= b.PeriodStart.
func (b *Budget) Overlaps(start, end time.Time) bool {
	return !DateOnly(start).After(DateOnly(b.PeriodEnd)) &&
		!DateOnly(end).Before(DateOnly(b.PeriodStart))
}

// DateOnly truncates t to midnight in its own location. Period bounds and
// expense dates are compared at calendar-day granularity.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
