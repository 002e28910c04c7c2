package services

import (
	"encoding/json"
	"fmt"

	"masterplace_backend/internal/algorithms"
	"masterplace_backend/internal/apperrors"
	"masterplace_backend/internal/logger"
	"masterplace_backend/internal/models"
	"masterplace_backend/internal/repositories"
	"masterplace_backend/internal/services/dto"

	"gorm.io/datatypes"
)

// MediatorService — Mediator Workflow: трёхэтапное ведение заказа
// посредником (уточнение, поиск исполнителя, исполнение) с выходами
// в архив и возвратом в общий пул.
type MediatorService interface {
	// AssignMediator назначает посредника на заказ в поиске и открывает этап 1.
	AssignMediator(orderID, mediatorID string, req *dto.AssignMediatorRequest) (*dto.MediatorStepDTO, error)

	GetActiveStep(orderID string) (*dto.MediatorStepDTO, error)
	ListSteps(orderID string) ([]*dto.MediatorStepDTO, error)

	// AdvanceStep завершает активный этап и открывает следующий.
	// С этапа 3 продвигаться некуда — заказ закрывается CompleteOrder.
	AdvanceStep(orderID, mediatorID string, req *dto.AdvanceStepRequest) (*dto.MediatorStepDTO, error)

	// ArchiveOrder архивирует этап и заказ целиком.
	ArchiveOrder(orderID, mediatorID string, req *dto.StepEscapeRequest) error

	// ReturnToPool снимает посредника: заказ возвращается в Searching,
	// условия вознаграждения очищаются.
	ReturnToPool(orderID, mediatorID string, req *dto.StepEscapeRequest) error

	// CompleteOrder закрывает заказ с этапа 3: начисляется комиссия
	// посредника, эскроу выплачивается.
	CompleteOrder(orderID, mediatorID string, req *dto.AdvanceStepRequest) (*dto.OrderResponseDTO, error)

	// RejectOrder — срыв заказа на этапе исполнения: MediatorExecute → Rejected.
	RejectOrder(orderID, mediatorID string, req *dto.StepEscapeRequest) error
}

type mediatorService struct {
	mediatorRepo     repositories.MediatorRepository
	orderRepo        repositories.OrderRepository
	userRepo         repositories.UserRepository
	settlementRepo   repositories.SettlementRepository
	auditRepo        repositories.AuditRepository
	notificationRepo repositories.NotificationRepository
}

func NewMediatorService(
	mediatorRepo repositories.MediatorRepository,
	orderRepo repositories.OrderRepository,
	userRepo repositories.UserRepository,
	settlementRepo repositories.SettlementRepository,
	auditRepo repositories.AuditRepository,
	notificationRepo repositories.NotificationRepository,
) MediatorService {
	return &mediatorService{
		mediatorRepo:     mediatorRepo,
		orderRepo:        orderRepo,
		userRepo:         userRepo,
		settlementRepo:   settlementRepo,
		auditRepo:        auditRepo,
		notificationRepo: notificationRepo,
	}
}

func translateStepError(err error) error {
	switch err {
	case nil:
		return nil
	case repositories.ErrStepFinal:
		return apperrors.ErrAlreadyFinal.WithError(err)
	case repositories.ErrStepNotFound, repositories.ErrNoActiveStep:
		return apperrors.ErrStepNotFound.WithError(err)
	case repositories.ErrStepConflict, repositories.ErrStepNotActive:
		return apperrors.ErrConcurrentModification.WithError(err)
	case repositories.ErrOrderNotFound:
		return apperrors.ErrOrderNotFound.WithError(err)
	case repositories.ErrStatusConflict:
		return apperrors.ErrConcurrentModification.WithError(err)
	default:
		return err
	}
}

func marshalProgress(progress map[string]interface{}) (datatypes.JSON, error) {
	if progress == nil {
		return nil, nil
	}
	raw, err := json.Marshal(progress)
	if err != nil {
		return nil, apperrors.NewBadRequestError("invalid progress payload").WithError(err)
	}
	return datatypes.JSON(raw), nil
}

func (s *mediatorService) AssignMediator(orderID, mediatorID string, req *dto.AssignMediatorRequest) (*dto.MediatorStepDTO, error) {
	mediator, err := s.userRepo.FindByID(mediatorID)
	if err != nil {
		return nil, apperrors.ErrUserNotFound.WithError(err)
	}
	if mediator.Role != models.UserRoleMediator {
		return nil, apperrors.ErrInsufficientPermissions
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, translateOrderError(err)
	}
	if order.Status != models.OrderStatusSearching {
		return nil, apperrors.ErrInvalidTransition.WithDetails(map[string]string{
			"status": order.Status.String(),
		})
	}

	step, err := s.mediatorRepo.Assign(orderID, mediatorID,
		req.AgreedPrice, req.FixedFee, req.CommissionPercent)
	if err != nil {
		return nil, translateStepError(err)
	}

	s.auditStep(orderID, step.ID, mediatorID, models.AuditStepAdvanced, map[string]interface{}{
		"step": step.Step,
	})
	s.notify(order, models.OrderStatusMediatorClarify)

	return dto.BuildStepDTO(step), nil
}

func (s *mediatorService) GetActiveStep(orderID string) (*dto.MediatorStepDTO, error) {
	step, err := s.mediatorRepo.FindActiveStep(orderID)
	if err != nil {
		return nil, translateStepError(err)
	}
	return dto.BuildStepDTO(step), nil
}

func (s *mediatorService) ListSteps(orderID string) ([]*dto.MediatorStepDTO, error) {
	steps, err := s.mediatorRepo.ListSteps(orderID)
	if err != nil {
		return nil, err
	}
	result := make([]*dto.MediatorStepDTO, 0, len(steps))
	for i := range steps {
		result = append(result, dto.BuildStepDTO(&steps[i]))
	}
	return result, nil
}

// requireAssignedMediator проверяет, что действие выполняет посредник заказа.
func (s *mediatorService) requireAssignedMediator(orderID, mediatorID string) (*models.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, translateOrderError(err)
	}
	if order.MediatorID == nil || *order.MediatorID != mediatorID {
		return nil, apperrors.ErrForbidden
	}
	return order, nil
}

func (s *mediatorService) AdvanceStep(orderID, mediatorID string, req *dto.AdvanceStepRequest) (*dto.MediatorStepDTO, error) {
	order, err := s.requireAssignedMediator(orderID, mediatorID)
	if err != nil {
		return nil, err
	}

	progress, err := marshalProgress(req.Progress)
	if err != nil {
		return nil, err
	}

	next, err := s.mediatorRepo.Advance(orderID, progress)
	if err != nil {
		return nil, translateStepError(err)
	}

	s.auditStep(orderID, next.ID, mediatorID, models.AuditStepAdvanced, map[string]interface{}{
		"step": next.Step,
	})
	s.notify(order, models.OrderStatusForStep(next.Step))

	return dto.BuildStepDTO(next), nil
}

func (s *mediatorService) ArchiveOrder(orderID, mediatorID string, req *dto.StepEscapeRequest) error {
	order, err := s.requireAssignedMediator(orderID, mediatorID)
	if err != nil {
		return err
	}

	if err := s.mediatorRepo.Archive(orderID, req.Reason); err != nil {
		return translateStepError(err)
	}

	s.auditStep(orderID, "", mediatorID, models.AuditStepArchived, map[string]interface{}{
		"reason": req.Reason,
	})
	s.notify(order, models.OrderStatusMediatorArchived)
	return nil
}

func (s *mediatorService) ReturnToPool(orderID, mediatorID string, req *dto.StepEscapeRequest) error {
	order, err := s.requireAssignedMediator(orderID, mediatorID)
	if err != nil {
		return err
	}

	if err := s.mediatorRepo.ReturnToPool(orderID, req.Reason); err != nil {
		return translateStepError(err)
	}

	s.auditStep(orderID, "", mediatorID, models.AuditStepReturned, map[string]interface{}{
		"reason": req.Reason,
	})
	s.notify(order, models.OrderStatusSearching)
	return nil
}

func (s *mediatorService) CompleteOrder(orderID, mediatorID string, req *dto.AdvanceStepRequest) (*dto.OrderResponseDTO, error) {
	order, err := s.requireAssignedMediator(orderID, mediatorID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusMediatorExecute {
		return nil, apperrors.ErrInvalidTransition.WithDetails(map[string]string{
			"status": order.Status.String(),
		})
	}

	progress, err := marshalProgress(req.Progress)
	if err != nil {
		return nil, err
	}

	step, err := s.mediatorRepo.CompleteFinal(orderID, progress)
	if err != nil {
		return nil, translateStepError(err)
	}

	commission := algorithms.MediatorCommission(algorithms.MediatorCommissionInput{
		OrderAmount:       order.MaxAmount,
		AgreedPrice:       order.MediatorAgreedPrice,
		FixedFee:          order.MediatorFixedFee,
		CommissionPercent: order.MediatorCommissionPercent,
	})

	err = s.orderRepo.TransitionStatus(orderID, models.OrderStatusMediatorExecute,
		models.OrderStatusCompleted)
	if err != nil {
		return nil, translateOrderError(err)
	}
	if order.EscrowStatus == models.EscrowStatusHeld {
		if err := s.orderRepo.ReleaseEscrow(orderID); err != nil {
			logger.Error("failed to release escrow on mediator completion",
				"order_id", orderID, "error", err)
		}
	}

	if commission > 0 {
		record := &models.RewardRecord{
			Kind:       models.RewardKindMediator,
			OwnerID:    mediatorID,
			BaseAmount: order.MaxAmount,
			Amount:     commission,
			Status:     models.RewardStatusPending,
			OrderID:    &orderID,
		}
		if order.MediatorCommissionPercent != nil {
			record.Rate = *order.MediatorCommissionPercent
		}
		if err := s.settlementRepo.CreateReward(record); err != nil {
			// Заказ уже закрыт — начисление не откатывает завершение,
			// но требует ручного вмешательства.
			logger.Error("failed to create mediator reward",
				"order_id", orderID, "mediator_id", mediatorID, "error", err)
			return nil, apperrors.ErrSettlementFailed.WithError(err)
		}
		s.auditStep(orderID, step.ID, mediatorID, models.AuditRewardCreated, map[string]interface{}{
			"amount": commission,
		})
	}

	s.auditStep(orderID, step.ID, mediatorID, models.AuditCompletionConfirmed, map[string]interface{}{
		"party":      "mediator",
		"commission": fmt.Sprintf("%.2f", commission),
	})
	s.notify(order, models.OrderStatusCompleted)

	fresh, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, translateOrderError(err)
	}
	return dto.BuildOrderResponse(fresh), nil
}

func (s *mediatorService) RejectOrder(orderID, mediatorID string, req *dto.StepEscapeRequest) error {
	order, err := s.requireAssignedMediator(orderID, mediatorID)
	if err != nil {
		return err
	}
	if order.Status != models.OrderStatusMediatorExecute {
		return apperrors.ErrInvalidTransition.WithDetails(map[string]string{
			"status": order.Status.String(),
		})
	}

	err = s.orderRepo.TransitionStatus(orderID, models.OrderStatusMediatorExecute,
		models.OrderStatusRejected)
	if err != nil {
		return translateOrderError(err)
	}
	if order.EscrowStatus == models.EscrowStatusHeld {
		if err := s.orderRepo.RefundEscrow(orderID); err != nil {
			logger.Error("failed to refund escrow on mediator reject",
				"order_id", orderID, "error", err)
		}
	}

	s.auditStep(orderID, "", mediatorID, models.AuditOrderTransition, map[string]interface{}{
		"to":     models.OrderStatusRejected.String(),
		"reason": req.Reason,
	})
	s.notify(order, models.OrderStatusRejected)
	return nil
}

func (s *mediatorService) auditStep(orderID, stepID, actorID, action string, details map[string]interface{}) {
	if err := s.auditRepo.AppendAction(orderID, stepID, actorID, action, details); err != nil {
		logger.Error("failed to append audit entry", "order_id", orderID, "action", action, "error", err)
	}
}

func (s *mediatorService) notify(order *models.Order, status models.OrderStatus) {
	go func() {
		err := s.notificationRepo.CreateOrderStatusNotification(
			order.CustomerID, order.ID, order.Title, status)
		if err != nil {
			logger.Error("failed to create mediator notification", "order_id", order.ID, "error", err)
		}
	}()
}
