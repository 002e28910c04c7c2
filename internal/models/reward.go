package models

import (
	"time"

	"gorm.io/datatypes"
)

// RewardRecord — одна рассчитанная финансовая запись (комиссия менеджера,
// вознаграждение партнёра или комиссия посредника). Сумма после расчёта
// неизменяема, мутируют только статус и платёжные метаданные.
type RewardRecord struct {
	BaseModel
	Kind    RewardKind `gorm:"type:varchar(20);not null;index"`
	OwnerID string     `gorm:"type:uuid;not null;index"`

	BaseAmount float64 `gorm:"not null"`
	Rate       float64
	Amount     float64 `gorm:"not null"`

	Status RewardStatus `gorm:"type:varchar(20);not null;default:'pending';index"`

	OrderID       *string `gorm:"type:uuid;index"`
	TransactionID *string `gorm:"type:uuid;index"`
	Period        string  `gorm:"type:varchar(10);index"` // "2026-08"

	Metadata datatypes.JSON `gorm:"type:jsonb"`

	ApprovedAt  *time.Time
	PaidAt      *time.Time
	CancelledAt *time.Time
	ExternalRef string
}

// IsTerminal reports whether the record can no longer change status.
func (r *RewardRecord) IsTerminal() bool {
	return r.Status == RewardStatusPaid || r.Status == RewardStatusCancelled
}
