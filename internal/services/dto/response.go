package dto

import (
	"time"

	"masterplace_backend/internal/models"
)

type SubmitResponseRequest struct {
	Message string   `json:"message"`
	Price   *float64 `json:"price,omitempty"`
}

type ResponseDTO struct {
	ID         string                `json:"id"`
	OrderID    string                `json:"order_id"`
	ExecutorID string                `json:"executor_id"`
	Message    string                `json:"message,omitempty"`
	Price      *float64              `json:"price,omitempty"`
	Status     models.ResponseStatus `json:"status"`
	StatusName string                `json:"status_name"`
	RejectedBy string                `json:"rejected_by,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
}

func BuildResponseDTO(response *models.OrderResponse) *ResponseDTO {
	return &ResponseDTO{
		ID:         response.ID,
		OrderID:    response.OrderID,
		ExecutorID: response.ExecutorID,
		Message:    response.Message,
		Price:      response.Price,
		Status:     response.Status,
		StatusName: response.Status.String(),
		RejectedBy: response.RejectedBy,
		CreatedAt:  response.CreatedAt,
	}
}
