package models

// Notification — уведомление о смене статуса. Доставка fire-and-forget,
// корректность workflow от неё не зависит.
type Notification struct {
	BaseModel
	UserID  string `gorm:"type:uuid;not null;index"`
	Type    string `gorm:"type:varchar(50);not null"`
	Title   string
	Message string
	OrderID *string `gorm:"type:uuid;index"`
	IsRead  bool    `gorm:"default:false"`
}

const (
	NotificationOrderStatus    = "order_status"
	NotificationResponseStatus = "response_status"
	NotificationRewardStatus   = "reward_status"
	NotificationQuotaWarning   = "quota_warning"
)
