package dto

import (
	"time"

	"masterplace_backend/internal/models"
)

type CreateOrderRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	City        string  `json:"city"`
	MaxAmount   float64 `json:"max_amount" binding:"required,min=0"`
}

type OrderResponseDTO struct {
	ID          string             `json:"id"`
	CustomerID  string             `json:"customer_id"`
	ExecutorID  *string            `json:"executor_id,omitempty"`
	MediatorID  *string            `json:"mediator_id,omitempty"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	City        string             `json:"city,omitempty"`
	MaxAmount   float64            `json:"max_amount"`
	Status      models.OrderStatus `json:"status"`
	StatusName  string             `json:"status_name"`

	EscrowStatus     models.EscrowStatus `json:"escrow_status"`
	EscrowAmountHeld float64             `json:"escrow_amount_held"`

	CompletedByCustomer bool `json:"completed_by_customer"`
	CompletedByExecutor bool `json:"completed_by_executor"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func BuildOrderResponse(order *models.Order) *OrderResponseDTO {
	return &OrderResponseDTO{
		ID:                  order.ID,
		CustomerID:          order.CustomerID,
		ExecutorID:          order.ExecutorID,
		MediatorID:          order.MediatorID,
		Title:               order.Title,
		Description:         order.Description,
		City:                order.City,
		MaxAmount:           order.MaxAmount,
		Status:              order.Status,
		StatusName:          order.Status.String(),
		EscrowStatus:        order.EscrowStatus,
		EscrowAmountHeld:    order.EscrowAmountHeld,
		CompletedByCustomer: order.CompletedByCustomer,
		CompletedByExecutor: order.CompletedByExecutor,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
}
