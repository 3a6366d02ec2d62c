package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "panier/internal/errors"
	"panier/internal/models"
	"panier/internal/pagination"
)

// notificationService handles notification persistence.
type notificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new NotificationServicer.
func NewNotificationService(db *gorm.DB) NotificationServicer {
	return &notificationService{db: db}
}

// Create persists a notification.
func (s *notificationService) Create(n *models.Notification) error {
	if err := s.db.Create(n).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetUserNotifications returns a paginated list of the user's notifications,
// most recent first.
func (s *notificationService) GetUserNotifications(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error) {
	page.Defaults()

	base := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var notifications []models.Notification
	if err := base.Order("created_at DESC, id DESC").Scopes(pagination.Paginate(page)).Find(&notifications).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(notifications, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetLastBudgetAlert returns the most recent budget alert for the given
// budget, or ErrNotFound when no alert has ever been sent.
func (s *notificationService) GetLastBudgetAlert(userID, budgetID uint) (*models.Notification, error) {
	var notification models.Notification
	err := s.db.Where("user_id = ? AND type = ? AND reference_id = ?",
		userID, models.NotificationTypeBudget, budgetID).
		Order("created_at DESC, id DESC").
		First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &notification, nil
}
