package models

// NotificationType classifies a notification by the feature that produced it.
type NotificationType string

const (
	NotificationTypeBudget NotificationType = "budget"
)

// ReferenceTypeBudget is the reference_type used for budget alerts.
const ReferenceTypeBudget = "budget"

// Notification is a generic user-facing notification record. Budget alerts
// store the crossed threshold in ThresholdReached so de-duplication never
// depends on parsing the rendered message.
type Notification struct {
	Base
	UserID        uint             `gorm:"not null;index" json:"user_id"`
	Type          NotificationType `gorm:"not null" json:"type"`
	Title         string           `gorm:"not null" json:"title"`
	Message       string           `json:"message"`
	ReferenceID   uint             `gorm:"index" json:"reference_id"`
	ReferenceType string           `json:"reference_type"`

	// Percentage threshold this alert represents: 75, 90, or 100 for
	// over-budget. Zero for non-threshold notifications.
	ThresholdReached int `gorm:"default:0" json:"threshold_reached"`
}
