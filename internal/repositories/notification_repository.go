package repositories

import (
	"fmt"

	"masterplace_backend/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(notification *models.Notification) error
	CreateOrderStatusNotification(userID, orderID, orderTitle string, status models.OrderStatus) error
	CreateResponseStatusNotification(userID, orderID, orderTitle string, status models.ResponseStatus) error
	CreateRewardNotification(userID string, amount float64, status models.RewardStatus) error
	ListByUser(userID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(id string) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

func (r *notificationRepository) CreateOrderStatusNotification(userID, orderID, orderTitle string, status models.OrderStatus) error {
	return r.Create(&models.Notification{
		UserID:  userID,
		Type:    models.NotificationOrderStatus,
		Title:   orderTitle,
		Message: fmt.Sprintf("Статус заказа изменён: %s", status),
		OrderID: &orderID,
	})
}

func (r *notificationRepository) CreateResponseStatusNotification(userID, orderID, orderTitle string, status models.ResponseStatus) error {
	return r.Create(&models.Notification{
		UserID:  userID,
		Type:    models.NotificationResponseStatus,
		Title:   orderTitle,
		Message: fmt.Sprintf("Статус отклика изменён: %s", status),
		OrderID: &orderID,
	})
}

func (r *notificationRepository) CreateRewardNotification(userID string, amount float64, status models.RewardStatus) error {
	return r.Create(&models.Notification{
		UserID:  userID,
		Type:    models.NotificationRewardStatus,
		Message: fmt.Sprintf("Вознаграждение %.2f: %s", amount, status),
	})
}

func (r *notificationRepository) ListByUser(userID string, unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	q := r.db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	err := q.Order("created_at DESC").Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) MarkRead(id string) error {
	return r.db.Model(&models.Notification{}).Where("id = ?", id).
		Update("is_read", true).Error
}
