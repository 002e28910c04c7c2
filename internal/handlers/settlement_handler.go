package handlers

import (
	"net/http"

	"masterplace_backend/internal/models"
	"masterplace_backend/internal/services"
	"masterplace_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type SettlementHandler struct {
	*BaseHandler
	settlementService services.SettlementService
}

func NewSettlementHandler(base *BaseHandler, settlementService services.SettlementService) *SettlementHandler {
	return &SettlementHandler{
		BaseHandler:       base,
		settlementService: settlementService,
	}
}

// RegisterTopUp - POST /api/v1/settlement/top-ups
// Вебхук платёжной системы о пополнении кошелька пользователя.
func (h *SettlementHandler) RegisterTopUp(c *gin.Context) {
	var req dto.RegisterTopUpRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	cashback, err := h.settlementService.RegisterTopUp(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	if cashback == nil {
		c.JSON(http.StatusOK, gin.H{"cashback": nil})
		return
	}
	c.JSON(http.StatusCreated, cashback)
}

// ListMyRewards - GET /api/v1/settlement/rewards
func (h *SettlementHandler) ListMyRewards(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	kind := models.RewardKind(c.Query("kind"))
	rewards, err := h.settlementService.ListRewardsByOwner(userID, kind)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewards": rewards})
}

// GetReward - GET /api/v1/settlement/rewards/:id
func (h *SettlementHandler) GetReward(c *gin.Context) {
	reward, err := h.settlementService.GetReward(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reward)
}

// ApproveReward - POST /api/v1/settlement/rewards/:id/approve
func (h *SettlementHandler) ApproveReward(c *gin.Context) {
	reward, err := h.settlementService.ApproveReward(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reward)
}

// PayReward - POST /api/v1/settlement/rewards/:id/pay
func (h *SettlementHandler) PayReward(c *gin.Context) {
	reward, err := h.settlementService.PayReward(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reward)
}

// CancelReward - POST /api/v1/settlement/rewards/:id/cancel
func (h *SettlementHandler) CancelReward(c *gin.Context) {
	reward, err := h.settlementService.CancelReward(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reward)
}

// ProcessCashback - POST /api/v1/settlement/cashback/:id/process
func (h *SettlementHandler) ProcessCashback(c *gin.Context) {
	cashback, err := h.settlementService.ProcessCashback(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cashback)
}

// CancelCashback - POST /api/v1/settlement/cashback/:id/cancel
func (h *SettlementHandler) CancelCashback(c *gin.Context) {
	cashback, err := h.settlementService.CancelCashback(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cashback)
}

// ListMyCashback - GET /api/v1/settlement/cashback
func (h *SettlementHandler) ListMyCashback(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	txs, err := h.settlementService.ListCashbackByPartner(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cashback": txs})
}
