package handlers

import (
	"net/http"

	"masterplace_backend/internal/models"
	"masterplace_backend/internal/services"
	"masterplace_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	*BaseHandler
	reviewService services.ReviewService
}

func NewReviewHandler(base *BaseHandler, reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler:   base,
		reviewService: reviewService,
	}
}

// Create - POST /api/v1/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.RecordReviewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	snapshot, err := h.reviewService.RecordReview(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

// Get - GET /api/v1/reviews/:id
func (h *ReviewHandler) Get(c *gin.Context) {
	review, err := h.reviewService.GetReview(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// ListBySubject - GET /api/v1/users/:id/reviews
func (h *ReviewHandler) ListBySubject(c *gin.Context) {
	role := models.ReviewRole(c.Query("role"))

	reviews, err := h.reviewService.ListBySubject(c.Param("id"), role)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// Delete - DELETE /api/v1/reviews/:id
func (h *ReviewHandler) Delete(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	snapshot, err := h.reviewService.DeleteReview(c.Param("id"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// ReplyExecutor - POST /api/v1/reviews/executor/:id/replies
func (h *ReviewHandler) ReplyExecutor(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.ReplyToReviewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.reviewService.ReplyToExecutorReview(c.Param("id"), userID, &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// ReplyCustomer - POST /api/v1/reviews/customer/:id/replies
func (h *ReviewHandler) ReplyCustomer(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.ReplyToReviewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.reviewService.ReplyToCustomerReview(c.Param("id"), userID, &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// ListReplies - GET /api/v1/reviews/:id/replies
func (h *ReviewHandler) ListReplies(c *gin.Context) {
	replies, err := h.reviewService.ListReplies(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"replies": replies})
}
