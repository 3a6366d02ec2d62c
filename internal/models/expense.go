package models

import "time"

// Expense represents a single spend entry attached to exactly one budget.
// An amount of zero is a tracked purchase with no price (weighed or
// unpriced goods). The date is immutable after creation.
type Expense struct {
	Base
	UserID   uint      `gorm:"not null;index" json:"user_id"`
	BudgetID uint      `gorm:"not null;index" json:"budget_id"`
	Amount   int64     `gorm:"type:bigint;not null" json:"amount"`
	Date     time.Time `gorm:"not null" json:"date"`
	Source   string    `gorm:"size:100" json:"source,omitempty"`
	Category string    `gorm:"size:50" json:"category,omitempty"`
	Notes    string    `gorm:"size:500" json:"notes,omitempty"`

	// External references to a stored receipt and to the inventory record
	// that triggered the purchase, if any. Opaque to this service.
	ReceiptID       string `gorm:"size:100" json:"receipt_id,omitempty"`
	InventoryItemID string `gorm:"size:100" json:"inventory_item_id,omitempty"`

	Budget Budget `gorm:"foreignKey:BudgetID" json:"-"`
}
