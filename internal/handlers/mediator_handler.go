package handlers

import (
	"net/http"

	"masterplace_backend/internal/services"
	"masterplace_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type MediatorHandler struct {
	*BaseHandler
	mediatorService services.MediatorService
}

func NewMediatorHandler(base *BaseHandler, mediatorService services.MediatorService) *MediatorHandler {
	return &MediatorHandler{
		BaseHandler:     base,
		mediatorService: mediatorService,
	}
}

// Assign - POST /api/v1/mediator/orders/:id/assign
func (h *MediatorHandler) Assign(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.AssignMediatorRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	step, err := h.mediatorService.AssignMediator(c.Param("id"), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, step)
}

// GetActiveStep - GET /api/v1/mediator/orders/:id/step
func (h *MediatorHandler) GetActiveStep(c *gin.Context) {
	step, err := h.mediatorService.GetActiveStep(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

// ListSteps - GET /api/v1/mediator/orders/:id/steps
func (h *MediatorHandler) ListSteps(c *gin.Context) {
	steps, err := h.mediatorService.ListSteps(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"steps": steps})
}

// Advance - POST /api/v1/mediator/orders/:id/advance
func (h *MediatorHandler) Advance(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.AdvanceStepRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	step, err := h.mediatorService.AdvanceStep(c.Param("id"), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

// Archive - POST /api/v1/mediator/orders/:id/archive
func (h *MediatorHandler) Archive(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.StepEscapeRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.mediatorService.ArchiveOrder(c.Param("id"), userID, &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReturnToPool - POST /api/v1/mediator/orders/:id/return
func (h *MediatorHandler) ReturnToPool(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.StepEscapeRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.mediatorService.ReturnToPool(c.Param("id"), userID, &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Complete - POST /api/v1/mediator/orders/:id/complete
func (h *MediatorHandler) Complete(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.AdvanceStepRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	order, err := h.mediatorService.CompleteOrder(c.Param("id"), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Reject - POST /api/v1/mediator/orders/:id/reject
func (h *MediatorHandler) Reject(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.StepEscapeRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.mediatorService.RejectOrder(c.Param("id"), userID, &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
