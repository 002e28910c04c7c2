package handlers

import (
	"masterplace_backend/internal/services"
	"masterplace_backend/internal/validator"
)

// HandlerContainer собирает все HTTP-хендлеры приложения.
type HandlerContainer struct {
	Auth         *AuthHandler
	Order        *OrderHandler
	Response     *ResponseHandler
	Mediator     *MediatorHandler
	Subscription *SubscriptionHandler
	Settlement   *SettlementHandler
	Review       *ReviewHandler
}

func NewHandlerContainer(sc *services.ServiceContainer, v *validator.Validator) *HandlerContainer {
	base := NewBaseHandler(v)

	return &HandlerContainer{
		Auth:         NewAuthHandler(base, sc.Auth),
		Order:        NewOrderHandler(base, sc.Order),
		Response:     NewResponseHandler(base, sc.Response),
		Mediator:     NewMediatorHandler(base, sc.Mediator),
		Subscription: NewSubscriptionHandler(base, sc.Subscription),
		Settlement:   NewSettlementHandler(base, sc.Settlement),
		Review:       NewReviewHandler(base, sc.Review),
	}
}
