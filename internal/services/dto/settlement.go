package dto

import (
	"time"

	"masterplace_backend/internal/models"
)

type RegisterTopUpRequest struct {
	UserID  string  `json:"user_id" binding:"required,uuid"`
	Amount  float64 `json:"amount" binding:"required,gt=0"`
	TopUpID *string `json:"top_up_id,omitempty"`
}

type RewardRecordDTO struct {
	ID          string              `json:"id"`
	Kind        models.RewardKind   `json:"kind"`
	OwnerID     string              `json:"owner_id"`
	BaseAmount  float64             `json:"base_amount"`
	Rate        float64             `json:"rate"`
	Amount      float64             `json:"amount"`
	Status      models.RewardStatus `json:"status"`
	OrderID     *string             `json:"order_id,omitempty"`
	Period      string              `json:"period,omitempty"`
	ExternalRef string              `json:"external_ref,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	PaidAt      *time.Time          `json:"paid_at,omitempty"`
}

type CashbackDTO struct {
	ID             string                `json:"id"`
	PartnerID      string                `json:"partner_id"`
	ReferredUserID string                `json:"referred_user_id"`
	TopUpAmount    float64               `json:"top_up_amount"`
	Percent        float64               `json:"percent"`
	Amount         float64               `json:"amount"`
	Status         models.CashbackStatus `json:"status"`
	ProcessedAt    *time.Time            `json:"processed_at,omitempty"`
}

func BuildRewardDTO(record *models.RewardRecord) *RewardRecordDTO {
	return &RewardRecordDTO{
		ID:          record.ID,
		Kind:        record.Kind,
		OwnerID:     record.OwnerID,
		BaseAmount:  record.BaseAmount,
		Rate:        record.Rate,
		Amount:      record.Amount,
		Status:      record.Status,
		OrderID:     record.OrderID,
		Period:      record.Period,
		ExternalRef: record.ExternalRef,
		CreatedAt:   record.CreatedAt,
		PaidAt:      record.PaidAt,
	}
}

func BuildCashbackDTO(cb *models.CashbackTransaction) *CashbackDTO {
	return &CashbackDTO{
		ID:             cb.ID,
		PartnerID:      cb.PartnerID,
		ReferredUserID: cb.ReferredUserID,
		TopUpAmount:    cb.TopUpAmount,
		Percent:        cb.Percent,
		Amount:         cb.Amount,
		Status:         cb.Status,
		ProcessedAt:    cb.ProcessedAt,
	}
}
