package handlers

import (
	"net/http"

	"masterplace_backend/internal/services"
	"masterplace_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	*BaseHandler
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandler(base *BaseHandler, subscriptionService services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		BaseHandler:         base,
		subscriptionService: subscriptionService,
	}
}

// ListTariffs - GET /api/v1/tariffs
func (h *SubscriptionHandler) ListTariffs(c *gin.Context) {
	tariffs, err := h.subscriptionService.ListTariffs()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tariffs": tariffs})
}

// GetState - GET /api/v1/subscription
func (h *SubscriptionHandler) GetState(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	// Запланированный тариф активируется лениво при чтении состояния.
	state, err := h.subscriptionService.ActivatePendingTariffIfDue(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// Subscribe - POST /api/v1/subscription
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SubscribeRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	state, err := h.subscriptionService.Subscribe(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}
