package dto

import (
	"time"

	"masterplace_backend/internal/models"
)

type AssignMediatorRequest struct {
	AgreedPrice       *float64 `json:"agreed_price,omitempty"`
	FixedFee          *float64 `json:"fixed_fee,omitempty"`
	CommissionPercent *float64 `json:"commission_percent,omitempty"`
}

type AdvanceStepRequest struct {
	Progress map[string]interface{} `json:"progress"`
}

type StepEscapeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type MediatorStepDTO struct {
	ID          string            `json:"id"`
	OrderID     string            `json:"order_id"`
	MediatorID  string            `json:"mediator_id"`
	Step        int               `json:"step"`
	Status      models.StepStatus `json:"status"`
	Progress    interface{}       `json:"progress,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

func BuildStepDTO(step *models.MediatorStep) *MediatorStepDTO {
	dto := &MediatorStepDTO{
		ID:          step.ID,
		OrderID:     step.OrderID,
		MediatorID:  step.MediatorID,
		Step:        step.Step,
		Status:      step.Status,
		Reason:      step.Reason,
		StartedAt:   step.StartedAt,
		CompletedAt: step.CompletedAt,
	}
	if len(step.Progress) > 0 {
		dto.Progress = step.Progress
	}
	return dto
}
