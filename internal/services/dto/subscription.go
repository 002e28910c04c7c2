package dto

import (
	"time"

	"masterplace_backend/internal/models"
)

type SubscribeRequest struct {
	TariffID string `json:"tariff_id" binding:"required,uuid"`
}

type TariffDTO struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	Currency          string  `json:"currency"`
	DurationDays      int     `json:"duration_days"`
	MaxOrders         int     `json:"max_orders"`
	MaxContacts       int     `json:"max_contacts"`
	IsFree            bool    `json:"is_free"`
	GrantsOrderAccess bool    `json:"grants_order_access"`
}

// SubscriptionStateDTO — текущее состояние подписки пользователя.
// CanRespond/CanOpenContact — остаток квоты с учётом доступа тарифа.
type SubscriptionStateDTO struct {
	TariffID          *string    `json:"tariff_id,omitempty"`
	TariffName        string     `json:"tariff_name,omitempty"`
	SubscriptionStart *time.Time `json:"subscription_start,omitempty"`
	SubscriptionEnd   *time.Time `json:"subscription_end,omitempty"`
	NextTariffID      *string    `json:"next_tariff_id,omitempty"`
	NextTariffStart   *time.Time `json:"next_tariff_start,omitempty"`
	UsedOrdersCount   int        `json:"used_orders_count"`
	UsedContactsCount int        `json:"used_contacts_count"`
	MaxOrders         int        `json:"max_orders"`
	MaxContacts       int        `json:"max_contacts"`
	CanRespond        bool       `json:"can_respond"`
	CanOpenContact    bool       `json:"can_open_contact"`
}

func BuildTariffDTO(tariff *models.Tariff) *TariffDTO {
	return &TariffDTO{
		ID:                tariff.ID,
		Name:              tariff.Name,
		Price:             tariff.Price,
		Currency:          tariff.Currency,
		DurationDays:      tariff.DurationDays,
		MaxOrders:         tariff.MaxOrders,
		MaxContacts:       tariff.MaxContacts,
		IsFree:            tariff.IsFree,
		GrantsOrderAccess: tariff.GrantsOrderAccess,
	}
}
