package handlers

import (
	"net/http"

	"masterplace_backend/internal/services"
	"masterplace_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ResponseHandler struct {
	*BaseHandler
	responseService services.ResponseService
}

func NewResponseHandler(base *BaseHandler, responseService services.ResponseService) *ResponseHandler {
	return &ResponseHandler{
		BaseHandler:     base,
		responseService: responseService,
	}
}

// Submit - POST /api/v1/orders/:id/responses
func (h *ResponseHandler) Submit(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SubmitResponseRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.responseService.SubmitResponse(c.Param("id"), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response)
}

// ListByOrder - GET /api/v1/orders/:id/responses
func (h *ResponseHandler) ListByOrder(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	responses, err := h.responseService.ListByOrder(c.Param("id"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"responses": responses})
}

// ListMine - GET /api/v1/responses/my
func (h *ResponseHandler) ListMine(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	responses, err := h.responseService.ListByExecutor(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"responses": responses})
}

// ExchangeContacts - POST /api/v1/responses/:id/exchange-contacts
func (h *ResponseHandler) ExchangeContacts(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	response, err := h.responseService.ExchangeContacts(c.Param("id"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// OpenContact - POST /api/v1/responses/:id/open-contact
func (h *ResponseHandler) OpenContact(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	response, err := h.responseService.OpenContact(c.Param("id"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// MarkOrderReceived - POST /api/v1/responses/:id/order-received
func (h *ResponseHandler) MarkOrderReceived(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	response, err := h.responseService.MarkOrderReceived(c.Param("id"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Select - POST /api/v1/orders/:id/responses/:responseId/select
func (h *ResponseHandler) Select(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	response, err := h.responseService.SelectResponse(c.Param("id"), c.Param("responseId"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// Revoke - POST /api/v1/responses/:id/revoke
func (h *ResponseHandler) Revoke(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	response, err := h.responseService.RevokeResponse(c.Param("id"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}
