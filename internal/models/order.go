package models

import "time"

type Order struct {
	BaseModel
	CustomerID string  `gorm:"type:uuid;not null;index"`
	ExecutorID *string `gorm:"type:uuid;index"`
	MediatorID *string `gorm:"type:uuid;index"`

	Title       string `gorm:"not null"`
	Description string
	City        string
	MaxAmount   float64 `gorm:"not null"`

	Status OrderStatus `gorm:"not null;default:0;index"`

	// Условия вознаграждения посредника. Приоритет при расчёте:
	// договорная цена > фиксированная ставка > процент.
	MediatorAgreedPrice       *float64
	MediatorFixedFee          *float64
	MediatorCommissionPercent *float64
	MediatorMargin            *float64

	EscrowStatus     EscrowStatus `gorm:"type:varchar(20);default:'none'"`
	EscrowAmountHeld float64      `gorm:"default:0;check:escrow_amount_held >= 0"`

	CompletedByCustomer   bool `gorm:"default:false"`
	CompletedByCustomerAt *time.Time
	CompletedByExecutor   bool `gorm:"default:false"`
	CompletedByExecutorAt *time.Time

	ArchivedByCustomer bool `gorm:"default:false"`
	ArchivedByExecutor bool `gorm:"default:false"`

	// Relations
	Customer User  `gorm:"foreignKey:CustomerID"`
	Executor *User `gorm:"foreignKey:ExecutorID"`
	Mediator *User `gorm:"foreignKey:MediatorID"`
}

// HasMediator reports whether the order is assigned to a mediator.
func (o *Order) HasMediator() bool {
	return o.MediatorID != nil && *o.MediatorID != ""
}

// BothPartiesConfirmed — завершение требует явного подтверждения обеих
// сторон, если заказ не ведёт посредник.
func (o *Order) BothPartiesConfirmed() bool {
	return o.CompletedByCustomer && o.CompletedByExecutor
}
