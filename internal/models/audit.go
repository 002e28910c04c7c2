package models

import (
	"time"

	"gorm.io/datatypes"
)

// Типы событий журнала аудита.
const (
	AuditOrderCreated        = "ORDER_CREATED"
	AuditOrderTransition     = "ORDER_TRANSITION"
	AuditResponseSubmitted   = "RESPONSE_SUBMITTED"
	AuditResponseSelected    = "RESPONSE_SELECTED"
	AuditResponseRevoked     = "RESPONSE_REVOKED"
	AuditStepAdvanced        = "STEP_ADVANCED"
	AuditStepArchived        = "STEP_ARCHIVED"
	AuditStepReturned        = "STEP_RETURNED"
	AuditRewardCreated       = "REWARD_CREATED"
	AuditRewardPaid          = "REWARD_PAID"
	AuditRewardCancelled     = "REWARD_CANCELLED"
	AuditCashbackProcessed   = "CASHBACK_PROCESSED"
	AuditCompletionRejected  = "COMPLETION_REJECTED"
	AuditCompletionConfirmed = "COMPLETION_CONFIRMED"
)

// AuditEntry — запись append-only журнала по заказу/этапу. Запись
// неизменяема после создания; таблица заменяет конкатенацию текста
// в свободном поле заметок.
type AuditEntry struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	OrderID   *string        `gorm:"type:uuid;index"`
	StepID    *string        `gorm:"type:uuid;index"`
	ActorID   *string        `gorm:"type:uuid;index"`
	Action    string         `gorm:"type:varchar(50);not null;index"`
	Details   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP;index"`
}

func (AuditEntry) TableName() string {
	return "audit_log"
}
