package services

import (
	"context"
	"fmt"
	"time"

	"masterplace_backend/internal/algorithms"
	"masterplace_backend/internal/apperrors"
	"masterplace_backend/internal/logger"
	"masterplace_backend/internal/models"
	"masterplace_backend/internal/payments"
	"masterplace_backend/internal/repositories"
	"masterplace_backend/internal/services/dto"
)

// SettlementService — Settlement Ledger: создание финансовых записей,
// их жизненный цикл Pending→Approved→Paid и кэшбек-транзакции.
// Балансы владельцев мутируются только отсюда, ровно один раз на переход.
type SettlementService interface {
	// RegisterTopUp регистрирует пополнение кошелька приглашённого
	// пользователя: создаёт кэшбек партнёру, запись вознаграждения
	// партнёра и комиссию его менеджера. TopUpID дедуплицирует повторную
	// доставку одного события.
	RegisterTopUp(req *dto.RegisterTopUpRequest) (*dto.CashbackDTO, error)

	GetReward(rewardID string) (*dto.RewardRecordDTO, error)
	ListRewardsByOwner(ownerID string, kind models.RewardKind) ([]*dto.RewardRecordDTO, error)

	// ApproveReward: Pending → Approved. Балансов не касается.
	ApproveReward(rewardID string) (*dto.RewardRecordDTO, error)

	// PayReward выплачивает одобренную запись через платёжный шлюз и
	// только после успеха помечает её Paid. Провал шлюза оставляет
	// запись Approved для повтора.
	PayReward(ctx context.Context, rewardID string) (*dto.RewardRecordDTO, error)

	// CancelReward отменяет нетерминальную запись с откатом pending-эффекта.
	CancelReward(rewardID string) (*dto.RewardRecordDTO, error)

	// ProcessCashback зачисляет кэшбек партнёру. Повторный вызов для уже
	// обработанной транзакции — ошибка, баланс не трогается.
	ProcessCashback(cashbackID string) (*dto.CashbackDTO, error)
	CancelCashback(cashbackID string) (*dto.CashbackDTO, error)
	ListCashbackByPartner(partnerUserID string) ([]*dto.CashbackDTO, error)
}

type settlementService struct {
	settlementRepo   repositories.SettlementRepository
	userRepo         repositories.UserRepository
	auditRepo        repositories.AuditRepository
	notificationRepo repositories.NotificationRepository
	provider         payments.Provider
	now              func() time.Time
}

func NewSettlementService(
	settlementRepo repositories.SettlementRepository,
	userRepo repositories.UserRepository,
	auditRepo repositories.AuditRepository,
	notificationRepo repositories.NotificationRepository,
	provider payments.Provider,
) SettlementService {
	return &settlementService{
		settlementRepo:   settlementRepo,
		userRepo:         userRepo,
		auditRepo:        auditRepo,
		notificationRepo: notificationRepo,
		provider:         provider,
		now:              time.Now,
	}
}

func translateSettlementError(err error) error {
	switch err {
	case nil:
		return nil
	case repositories.ErrRewardNotFound:
		return apperrors.NotFound("reward record").WithError(err)
	case repositories.ErrRewardTerminal:
		return apperrors.ErrRecordImmutable.WithError(err)
	case repositories.ErrRewardWrongStatus:
		return apperrors.ErrInvalidTransition.WithError(err)
	case repositories.ErrCashbackNotFound:
		return apperrors.NotFound("cashback transaction").WithError(err)
	case repositories.ErrCashbackNotPending, repositories.ErrCashbackNotReversed:
		return apperrors.ErrInvalidTransition.WithError(err)
	default:
		return err
	}
}

func (s *settlementService) RegisterTopUp(req *dto.RegisterTopUpRequest) (*dto.CashbackDTO, error) {
	user, err := s.userRepo.FindByID(req.UserID)
	if err != nil {
		return nil, apperrors.ErrUserNotFound.WithError(err)
	}
	if user.ReferredByPartnerID == nil {
		// Пользователь пришёл не по реферальной ссылке — начислять нечего.
		return nil, nil
	}

	partner, err := s.userRepo.FindPartnerProfileByID(*user.ReferredByPartnerID)
	if err != nil {
		return nil, apperrors.NotFound("partner profile").WithError(err)
	}
	if !partner.IsActive {
		return nil, nil
	}

	cashback := &models.CashbackTransaction{
		PartnerID:      partner.ID,
		ReferredUserID: user.ID,
		TopUpID:        req.TopUpID,
		TopUpAmount:    req.Amount,
		Percent:        partner.CashbackPercent,
		Amount:         algorithms.CashbackAmount(req.Amount, partner.CashbackPercent),
		Status:         models.CashbackStatusPending,
	}
	if err := s.settlementRepo.CreateCashback(cashback); err != nil {
		// Уникальный индекс по top_up_id гасит повторную доставку события.
		return nil, translateSettlementError(err)
	}

	reward := algorithms.PartnerReward(partner.RewardType, partner.RewardValue, req.Amount)
	if reward > 0 {
		record := &models.RewardRecord{
			Kind:       models.RewardKindPartner,
			OwnerID:    partner.UserID,
			BaseAmount: req.Amount,
			Rate:       partner.RewardValue,
			Amount:     reward,
			Status:     models.RewardStatusPending,
			Period:     s.now().Format("2006-01"),
		}
		if err := s.settlementRepo.CreateReward(record); err != nil {
			logger.Error("failed to create partner reward", "partner_id", partner.ID, "error", err)
		} else if err := s.createManagerCommission(partner, reward); err != nil {
			logger.Error("failed to create manager commission", "partner_id", partner.ID, "error", err)
		}
	}

	return dto.BuildCashbackDTO(cashback), nil
}

// createManagerCommission начисляет менеджеру партнёра прогрессивную
// комиссию от заработка партнёра.
func (s *settlementService) createManagerCommission(partner *models.PartnerProfile, partnerEarnings float64) error {
	if partner.ManagerID == nil {
		return nil
	}
	manager, err := s.userRepo.FindManagerProfile(*partner.ManagerID)
	if err != nil {
		return err
	}

	result := algorithms.ManagerCommission(algorithms.ManagerCommissionInput{
		PartnerEarnings:       partnerEarnings,
		BasePercent:           manager.BaseCommissionPercent,
		Tier2Threshold:        manager.Tier2Threshold,
		Tier2Percent:          manager.Tier2Percent,
		Tier3Threshold:        manager.Tier3Threshold,
		Tier3Percent:          manager.Tier3Percent,
		TotalPartnersEarnings: manager.TotalPartnersEarnings,
		ActivityBonusPercent:  manager.ActivityBonusPercent,
		ActivityThreshold:     manager.ActivityThreshold,
		ActivePartners:        manager.ActivePartners,
		TotalPartners:         manager.TotalPartners,
	})
	if result.Total <= 0 {
		return nil
	}

	return s.settlementRepo.CreateReward(&models.RewardRecord{
		Kind:       models.RewardKindManager,
		OwnerID:    manager.UserID,
		BaseAmount: partnerEarnings,
		Rate:       result.Rate,
		Amount:     result.Total,
		Status:     models.RewardStatusPending,
		Period:     s.now().Format("2006-01"),
	})
}

func (s *settlementService) GetReward(rewardID string) (*dto.RewardRecordDTO, error) {
	record, err := s.settlementRepo.FindReward(rewardID)
	if err != nil {
		return nil, translateSettlementError(err)
	}
	return dto.BuildRewardDTO(record), nil
}

func (s *settlementService) ListRewardsByOwner(ownerID string, kind models.RewardKind) ([]*dto.RewardRecordDTO, error) {
	records, err := s.settlementRepo.ListRewardsByOwner(ownerID, kind)
	if err != nil {
		return nil, err
	}
	result := make([]*dto.RewardRecordDTO, 0, len(records))
	for i := range records {
		result = append(result, dto.BuildRewardDTO(&records[i]))
	}
	return result, nil
}

func (s *settlementService) ApproveReward(rewardID string) (*dto.RewardRecordDTO, error) {
	if err := s.settlementRepo.Approve(rewardID, s.now()); err != nil {
		return nil, translateSettlementError(err)
	}
	return s.GetReward(rewardID)
}

func (s *settlementService) PayReward(ctx context.Context, rewardID string) (*dto.RewardRecordDTO, error) {
	record, err := s.settlementRepo.FindReward(rewardID)
	if err != nil {
		return nil, translateSettlementError(err)
	}
	if record.IsTerminal() {
		return nil, apperrors.ErrRecordImmutable
	}
	if record.Status != models.RewardStatusApproved {
		return nil, apperrors.ErrInvalidTransition.WithDetails(map[string]string{
			"status": string(record.Status),
		})
	}

	// Шлюз вызывается до пометки Paid: при его провале запись остаётся
	// Approved и выплату можно повторить.
	purpose := fmt.Sprintf("%s reward %s", record.Kind, record.ID)
	payout, err := s.provider.Payout(ctx, record.OwnerID, record.Amount, purpose)
	if err != nil {
		logger.Error("payout gateway failed", "reward_id", rewardID, "error", err)
		return nil, apperrors.ErrSettlementFailed.WithError(err)
	}

	if err := s.settlementRepo.MarkPaid(rewardID, payout.ExternalRef, s.now()); err != nil {
		// Деньги ушли, запись не обновилась: это инцидент для сверки,
		// а не повод платить второй раз.
		logger.Error("payout succeeded but MarkPaid failed",
			"reward_id", rewardID, "external_ref", payout.ExternalRef, "error", err)
		return nil, translateSettlementError(err)
	}

	s.auditSettlement(record.OrderID, record.OwnerID, models.AuditRewardPaid, map[string]interface{}{
		"reward_id":    rewardID,
		"amount":       record.Amount,
		"external_ref": payout.ExternalRef,
	})
	go func() {
		err := s.notificationRepo.CreateRewardNotification(record.OwnerID, record.Amount, models.RewardStatusPaid)
		if err != nil {
			logger.Error("failed to notify reward owner", "reward_id", rewardID, "error", err)
		}
	}()

	return s.GetReward(rewardID)
}

func (s *settlementService) CancelReward(rewardID string) (*dto.RewardRecordDTO, error) {
	record, err := s.settlementRepo.FindReward(rewardID)
	if err != nil {
		return nil, translateSettlementError(err)
	}

	if err := s.settlementRepo.Cancel(rewardID, s.now()); err != nil {
		return nil, translateSettlementError(err)
	}

	s.auditSettlement(record.OrderID, record.OwnerID, models.AuditRewardCancelled, map[string]interface{}{
		"reward_id": rewardID,
		"amount":    record.Amount,
	})
	return s.GetReward(rewardID)
}

func (s *settlementService) ProcessCashback(cashbackID string) (*dto.CashbackDTO, error) {
	cashback, err := s.settlementRepo.ProcessCashback(cashbackID, s.now())
	if err != nil {
		return nil, translateSettlementError(err)
	}

	s.auditSettlement(nil, cashback.PartnerID, models.AuditCashbackProcessed, map[string]interface{}{
		"cashback_id": cashbackID,
		"amount":      cashback.Amount,
	})
	return dto.BuildCashbackDTO(cashback), nil
}

func (s *settlementService) CancelCashback(cashbackID string) (*dto.CashbackDTO, error) {
	cashback, err := s.settlementRepo.CancelCashback(cashbackID, s.now())
	if err != nil {
		return nil, translateSettlementError(err)
	}
	return dto.BuildCashbackDTO(cashback), nil
}

// ListCashbackByPartner принимает ID пользователя-партнёра и резолвит его
// партнёрский профиль.
func (s *settlementService) ListCashbackByPartner(partnerUserID string) ([]*dto.CashbackDTO, error) {
	profile, err := s.userRepo.FindPartnerProfile(partnerUserID)
	if err != nil {
		return nil, apperrors.NotFound("partner profile").WithError(err)
	}

	txs, err := s.settlementRepo.ListCashbackByPartner(profile.ID)
	if err != nil {
		return nil, err
	}
	result := make([]*dto.CashbackDTO, 0, len(txs))
	for i := range txs {
		result = append(result, dto.BuildCashbackDTO(&txs[i]))
	}
	return result, nil
}

func (s *settlementService) auditSettlement(orderID *string, actorID, action string, details map[string]interface{}) {
	oid := ""
	if orderID != nil {
		oid = *orderID
	}
	if err := s.auditRepo.AppendAction(oid, "", actorID, action, details); err != nil {
		logger.Error("failed to append settlement audit entry", "action", action, "error", err)
	}
}
