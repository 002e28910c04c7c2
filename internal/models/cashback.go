package models

import "time"

// CashbackTransaction — реферальный кэшбек, привязанный к пополнению
// кошелька приглашённого пользователя. Баланс партнёра увеличивается
// ровно один раз при переходе Pending→Processed и уменьшается ровно
// один раз, если обработанная транзакция позже отменена.
type CashbackTransaction struct {
	BaseModel
	PartnerID      string  `gorm:"type:uuid;not null;index"`
	ReferredUserID string  `gorm:"type:uuid;not null;index"`
	TopUpID        *string `gorm:"type:uuid;uniqueIndex"`

	TopUpAmount float64 `gorm:"not null"`
	Percent     float64 `gorm:"not null"`
	Amount      float64 `gorm:"not null"`

	Status CashbackStatus `gorm:"type:varchar(20);not null;default:'pending';index"`

	ProcessedAt *time.Time
	CancelledAt *time.Time

	// Relations
	Partner PartnerProfile `gorm:"foreignKey:PartnerID"`
}
