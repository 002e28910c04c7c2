package services

import (
	"time"

	"masterplace_backend/internal/apperrors"
	"masterplace_backend/internal/logger"
	"masterplace_backend/internal/models"
	"masterplace_backend/internal/repositories"
	"masterplace_backend/internal/services/dto"
)

// OrderService — Order Workflow: жизненный цикл заказа по прямому треку
// заказчик/исполнитель. Посреднический трек ведёт MediatorService.
type OrderService interface {
	CreateOrder(customerID string, req *dto.CreateOrderRequest) (*dto.OrderResponseDTO, error)
	GetOrder(orderID string) (*dto.OrderResponseDTO, error)
	ListByCustomer(customerID string) ([]*dto.OrderResponseDTO, error)
	ListByExecutor(executorID string) ([]*dto.OrderResponseDTO, error)
	ListSearching(limit, offset int) ([]*dto.OrderResponseDTO, error)

	// CancelOrder отменяет заказ заказчиком до начала работ. Повторная
	// отмена уже отменённого заказа — no-op.
	CancelOrder(orderID, customerID string) (*dto.OrderResponseDTO, error)

	// StartWork — исполнитель принимает назначение: ExecutorSelected → InWork.
	StartWork(orderID, executorID string) (*dto.OrderResponseDTO, error)

	// ConfirmCompletion фиксирует подтверждение завершения стороной.
	// Исполнитель переводит заказ InWork → AwaitingConfirmation, заказчик
	// закрывает его AwaitingConfirmation → Completed с выплатой эскроу.
	ConfirmCompletion(orderID, actorID string) (*dto.OrderResponseDTO, error)

	// RejectCompletion возвращает заказ в работу: заказчик не принял
	// результат. Флаг подтверждения исполнителя сбрасывается, цикл
	// может повторяться без ограничений — каждый возврат журналируется.
	RejectCompletion(orderID, customerID, reason string) (*dto.OrderResponseDTO, error)

	// RejectOrder — срыв заказа из работы: InWork → Rejected, эскроу
	// возвращается заказчику.
	RejectOrder(orderID, actorID, reason string) (*dto.OrderResponseDTO, error)

	// ArchiveForActor скрывает завершённый заказ из списка стороны.
	ArchiveForActor(orderID, actorID string) error
}

type orderService struct {
	orderRepo        repositories.OrderRepository
	userRepo         repositories.UserRepository
	auditRepo        repositories.AuditRepository
	notificationRepo repositories.NotificationRepository
}

func NewOrderService(
	orderRepo repositories.OrderRepository,
	userRepo repositories.UserRepository,
	auditRepo repositories.AuditRepository,
	notificationRepo repositories.NotificationRepository,
) OrderService {
	return &orderService{
		orderRepo:        orderRepo,
		userRepo:         userRepo,
		auditRepo:        auditRepo,
		notificationRepo: notificationRepo,
	}
}

// translateOrderError приводит ошибки репозитория заказов к ошибкам API.
func translateOrderError(err error) error {
	switch err {
	case nil:
		return nil
	case repositories.ErrOrderNotFound:
		return apperrors.ErrOrderNotFound.WithError(err)
	case repositories.ErrStatusConflict:
		return apperrors.ErrConcurrentModification.WithError(err)
	case repositories.ErrEscrowOverLimit:
		return apperrors.NewBadRequestError("escrow amount exceeds order budget").WithError(err)
	default:
		return err
	}
}

func (s *orderService) CreateOrder(customerID string, req *dto.CreateOrderRequest) (*dto.OrderResponseDTO, error) {
	if _, err := s.userRepo.FindByID(customerID); err != nil {
		return nil, apperrors.ErrUserNotFound.WithError(err)
	}

	order := &models.Order{
		CustomerID:   customerID,
		Title:        req.Title,
		Description:  req.Description,
		City:         req.City,
		MaxAmount:    req.MaxAmount,
		Status:       models.OrderStatusSearching,
		EscrowStatus: models.EscrowStatusNone,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}

	s.audit(order.ID, customerID, models.AuditOrderCreated, map[string]interface{}{
		"max_amount": order.MaxAmount,
	})

	return dto.BuildOrderResponse(order), nil
}

func (s *orderService) GetOrder(orderID string) (*dto.OrderResponseDTO, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, translateOrderError(err)
	}
	return dto.BuildOrderResponse(order), nil
}

func (s *orderService) ListByCustomer(customerID string) ([]*dto.OrderResponseDTO, error) {
	orders, err := s.orderRepo.ListByCustomer(customerID)
	if err != nil {
		return nil, err
	}
	return buildOrderList(orders), nil
}

func (s *orderService) ListByExecutor(executorID string) ([]*dto.OrderResponseDTO, error) {
	orders, err := s.orderRepo.ListByExecutor(executorID)
	if err != nil {
		return nil, err
	}
	return buildOrderList(orders), nil
}

func (s *orderService) ListSearching(limit, offset int) ([]*dto.OrderResponseDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	orders, err := s.orderRepo.ListSearching(limit, offset)
	if err != nil {
		return nil, err
	}
	return buildOrderList(orders), nil
}

func (s *orderService) CancelOrder(orderID, customerID string) (*dto.OrderResponseDTO, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, translateOrderError(err)
	}
	if order.CustomerID != customerID {
		return nil, apperrors.ErrForbidden
	}

	// Идемпотентность: повторная отмена не ошибка.
	if order.Status == models.OrderStatusCancelled {
		return dto.BuildOrderResponse(order), nil
	}
	if !order.Status.CanTransition(models.OrderStatusCancelled) {
		return nil, apperrors.ErrInvalidTransition.WithDetails(map[string]string{
			"status": order.Status.String(),
		})
	}

	if err := s.orderRepo.TransitionStatus(orderID, order.Status, models.OrderStatusCancelled); err != nil {
		return nil, translateOrderError(err)
	}
	if order.EscrowStatus == models.EscrowStatusHeld {
		if err := s.orderRepo.RefundEscrow(orderID); err != nil {
			logger.Error("failed to refund escrow on cancel", "order_id", orderID, "error", err)
		}
	}

	s.audit(orderID, customerID, models.AuditOrderTransition, map[string]interface{}{
		"from": order.Status.String(),
		"to":   models.OrderStatusCancelled.String(),
	})
	s.notifyOrderParties(order, models.OrderStatusCancelled)

	return s.GetOrder(orderID)
}

func (s *orderService) StartWork(orderID, executorID string) (*dto.OrderResponseDTO, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, translateOrderError(err)
	}
	if order.ExecutorID == nil || *order.ExecutorID != executorID {
		return nil, apperrors.ErrForbidden
	}
	if !order.Status.CanTransition(models.OrderStatusInWork) {
		return nil, apperrors.ErrInvalidTransition.WithDetails(map[string]string{
			"status": order.Status.String(),
		})
	}

	if err := s.orderRepo.TransitionStatus(orderID, order.Status, models.OrderStatusInWork); err != nil {
		return nil, translateOrderError(err)
	}

	s.audit(orderID, executorID, models.AuditOrderTransition, map[string]interface{}{
		"from": order.Status.String(),
		"to":   models.OrderStatusInWork.String(),
	})
	s.notifyOrderParties(order, models.OrderStatusInWork)

	return s.GetOrder(orderID)
}

func (s *orderService) ConfirmCompletion(orderID, actorID string) (*dto.OrderResponseDTO, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, translateOrderError(err)
	}

	now := time.Now()

	switch {
	case order.ExecutorID != nil && *order.ExecutorID == actorID:
		// Исполнитель заявляет о готовности: InWork → AwaitingConfirmation.
		if !order.Status.CanTransition(models.OrderStatusAwaitingConfirmation) {
			return nil, apperrors.ErrInvalidTransition.WithDetails(map[string]string{
				"status": order.Status.String(),
			})
		}
		err = s.orderRepo.SetExecutorCompleted(orderID, order.Status,
			models.OrderStatusAwaitingConfirmation, now)
		if err != nil {
			return nil, translateOrderError(err)
		}
		s.audit(orderID, actorID, models.AuditCompletionConfirmed, map[string]interface{}{
			"party": "executor",
		})
		s.notifyOrderParties(order, models.OrderStatusAwaitingConfirmation)

	case order.CustomerID == actorID:
		// Заказчик принимает результат: AwaitingConfirmation → Completed.
		if order.Status != models.OrderStatusAwaitingConfirmation {
			return nil, apperrors.ErrInvalidTransition.WithDetails(map[string]string{
				"status": order.Status.String(),
			})
		}
		err = s.orderRepo.SetCustomerCompleted(orderID, order.Status,
			models.OrderStatusCompleted, now)
		if err != nil {
			return nil, translateOrderError(err)
		}
		// Эскроу выплачивается только после подтверждения обеих сторон.
		order.CompletedByCustomer = true
		if order.BothPartiesConfirmed() && order.EscrowStatus == models.EscrowStatusHeld {
			if err := s.orderRepo.ReleaseEscrow(orderID); err != nil {
				logger.Error("failed to release escrow", "order_id", orderID, "error", err)
			}
		}
		s.audit(orderID, actorID, models.AuditCompletionConfirmed, map[string]interface{}{
			"party": "customer",
		})
		s.notifyOrderParties(order, models.OrderStatusCompleted)

	default:
		return nil, apperrors.ErrForbidden
	}

	return s.GetOrder(orderID)
}

func (s *orderService) RejectCompletion(orderID, customerID, reason string) (*dto.OrderResponseDTO, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, translateOrderError(err)
	}
	if order.CustomerID != customerID {
		return nil, apperrors.ErrForbidden
	}
	if order.Status != models.OrderStatusAwaitingConfirmation {
		return nil, apperrors.ErrInvalidTransition.WithDetails(map[string]string{
			"status": order.Status.String(),
		})
	}

	err = s.orderRepo.ClearCompletionFlags(orderID,
		models.OrderStatusAwaitingConfirmation, models.OrderStatusInWork)
	if err != nil {
		return nil, translateOrderError(err)
	}

	s.audit(orderID, customerID, models.AuditCompletionRejected, map[string]interface{}{
		"reason": reason,
	})
	s.notifyOrderParties(order, models.OrderStatusInWork)

	return s.GetOrder(orderID)
}

func (s *orderService) RejectOrder(orderID, actorID, reason string) (*dto.OrderResponseDTO, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, translateOrderError(err)
	}
	isParty := order.CustomerID == actorID ||
		(order.ExecutorID != nil && *order.ExecutorID == actorID)
	if !isParty {
		return nil, apperrors.ErrForbidden
	}
	if !order.Status.CanTransition(models.OrderStatusRejected) {
		return nil, apperrors.ErrInvalidTransition.WithDetails(map[string]string{
			"status": order.Status.String(),
		})
	}

	if err := s.orderRepo.TransitionStatus(orderID, order.Status, models.OrderStatusRejected); err != nil {
		return nil, translateOrderError(err)
	}
	if order.EscrowStatus == models.EscrowStatusHeld {
		if err := s.orderRepo.RefundEscrow(orderID); err != nil {
			logger.Error("failed to refund escrow on reject", "order_id", orderID, "error", err)
		}
	}

	s.audit(orderID, actorID, models.AuditOrderTransition, map[string]interface{}{
		"from":   order.Status.String(),
		"to":     models.OrderStatusRejected.String(),
		"reason": reason,
	})
	s.notifyOrderParties(order, models.OrderStatusRejected)

	return s.GetOrder(orderID)
}

func (s *orderService) ArchiveForActor(orderID, actorID string) error {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return translateOrderError(err)
	}
	if !order.Status.IsTerminal() {
		return apperrors.ErrInvalidTransition.WithDetails(map[string]string{
			"status": order.Status.String(),
		})
	}

	switch {
	case order.CustomerID == actorID:
		order.ArchivedByCustomer = true
	case order.ExecutorID != nil && *order.ExecutorID == actorID:
		order.ArchivedByExecutor = true
	default:
		return apperrors.ErrForbidden
	}
	return s.orderRepo.Update(order)
}

func (s *orderService) audit(orderID, actorID, action string, details map[string]interface{}) {
	if err := s.auditRepo.AppendAction(orderID, "", actorID, action, details); err != nil {
		logger.Error("failed to append audit entry", "order_id", orderID, "action", action, "error", err)
	}
}

// notifyOrderParties шлёт уведомления сторонам заказа, не блокируя запрос.
func (s *orderService) notifyOrderParties(order *models.Order, status models.OrderStatus) {
	recipients := []string{order.CustomerID}
	if order.ExecutorID != nil {
		recipients = append(recipients, *order.ExecutorID)
	}
	if order.HasMediator() {
		recipients = append(recipients, *order.MediatorID)
	}

	go func() {
		for _, userID := range recipients {
			err := s.notificationRepo.CreateOrderStatusNotification(userID, order.ID, order.Title, status)
			if err != nil {
				logger.Error("failed to create order notification", "order_id", order.ID, "error", err)
			}
		}
	}()
}

func buildOrderList(orders []models.Order) []*dto.OrderResponseDTO {
	result := make([]*dto.OrderResponseDTO, 0, len(orders))
	for i := range orders {
		result = append(result, dto.BuildOrderResponse(&orders[i]))
	}
	return result
}
