package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	MediatorStepClarify      = 1
	MediatorStepFindExecutor = 2
	MediatorStepExecute      = 3
)

// MediatorStep — один из трёх последовательных этапов посреднического
// сопровождения заказа. Одновременно активен не более одного этапа
// на заказ, этапы завершаются строго по возрастанию номера.
type MediatorStep struct {
	BaseModel
	OrderID    string `gorm:"type:uuid;not null;index:idx_step_order_active,unique,where:status = 'active'"`
	MediatorID string `gorm:"type:uuid;not null;index"`

	Step   int        `gorm:"not null;check:step >= 1 AND step <= 3"`
	Status StepStatus `gorm:"type:varchar(20);not null;default:'active'"`

	// Произвольные структурированные данные о ходе этапа.
	Progress datatypes.JSON `gorm:"type:jsonb"`
	Reason   string

	StartedAt   time.Time `gorm:"not null;default:now()"`
	CompletedAt *time.Time

	// Relations
	Order    Order `gorm:"foreignKey:OrderID"`
	Mediator User  `gorm:"foreignKey:MediatorID"`
}

// OrderStatusForStep maps a step number onto the mediator-track order status.
func OrderStatusForStep(step int) OrderStatus {
	switch step {
	case MediatorStepClarify:
		return OrderStatusMediatorClarify
	case MediatorStepFindExecutor:
		return OrderStatusMediatorFindExecutor
	case MediatorStepExecute:
		return OrderStatusMediatorExecute
	}
	return OrderStatusSearching
}
