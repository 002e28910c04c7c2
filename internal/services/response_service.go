package services

import (
	"masterplace_backend/internal/apperrors"
	"masterplace_backend/internal/logger"
	"masterplace_backend/internal/models"
	"masterplace_backend/internal/repositories"
	"masterplace_backend/internal/services/dto"
)

// ResponseService — Response Workflow: отклики исполнителей на заказы,
// обмен контактами, выбор исполнителя и отзыв откликов.
type ResponseService interface {
	// SubmitResponse создаёт отклик, списав единицу квоты откликов.
	// При конфликте вставки квота возвращается.
	SubmitResponse(orderID, executorID string, req *dto.SubmitResponseRequest) (*dto.ResponseDTO, error)

	GetResponse(responseID string) (*dto.ResponseDTO, error)
	ListByOrder(orderID, customerID string) ([]*dto.ResponseDTO, error)
	ListByExecutor(executorID string) ([]*dto.ResponseDTO, error)

	// ExchangeContacts — заказчик открывает контакты исполнителю: Sent → ContactExchanged.
	ExchangeContacts(responseID, customerID string) (*dto.ResponseDTO, error)

	// OpenContact — исполнитель открывает контакты заказчика, списывая
	// единицу квоты контактов: ContactExchanged → ContactOpenedByExecutor.
	OpenContact(responseID, executorID string) (*dto.ResponseDTO, error)

	// MarkOrderReceived фиксирует договорённость вне платформы.
	MarkOrderReceived(responseID, executorID string) (*dto.ResponseDTO, error)

	// SelectResponse — заказчик выбирает исполнителя: отклик берётся в
	// работу, конкуренты отклоняются автоматически, заказ переходит в
	// ExecutorSelected с удержанием эскроу.
	SelectResponse(orderID, responseID, customerID string) (*dto.ResponseDTO, error)

	// RevokeResponse закрывает отклик: исполнитель отзывает свой, заказчик
	// снимает ранее выбранного исполнителя (заказ возвращается в поиск).
	RevokeResponse(responseID, actorID string) (*dto.ResponseDTO, error)
}

type responseService struct {
	responseRepo     repositories.ResponseRepository
	orderRepo        repositories.OrderRepository
	userRepo         repositories.UserRepository
	subscriptions    SubscriptionService
	auditRepo        repositories.AuditRepository
	notificationRepo repositories.NotificationRepository
}

func NewResponseService(
	responseRepo repositories.ResponseRepository,
	orderRepo repositories.OrderRepository,
	userRepo repositories.UserRepository,
	subscriptions SubscriptionService,
	auditRepo repositories.AuditRepository,
	notificationRepo repositories.NotificationRepository,
) ResponseService {
	return &responseService{
		responseRepo:     responseRepo,
		orderRepo:        orderRepo,
		userRepo:         userRepo,
		subscriptions:    subscriptions,
		auditRepo:        auditRepo,
		notificationRepo: notificationRepo,
	}
}

func translateResponseError(err error) error {
	switch err {
	case nil:
		return nil
	case repositories.ErrResponseNotFound:
		return apperrors.ErrResponseNotFound.WithError(err)
	case repositories.ErrResponseConflict:
		return apperrors.ErrConcurrentModification.WithError(err)
	case repositories.ErrResponseAlreadyExists:
		return apperrors.NewBadRequestError("active response already exists for this order").WithError(err)
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

func (s *responseService) SubmitResponse(orderID, executorID string, req *dto.SubmitResponseRequest) (*dto.ResponseDTO, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, translateOrderError(err)
	}
	if order.Status != models.OrderStatusSearching &&
		order.Status != models.OrderStatusSelectingExecutor &&
		order.Status != models.OrderStatusMediatorFindExecutor {
		return nil, apperrors.ErrInvalidTransition.WithDetails(map[string]string{
			"status": order.Status.String(),
		})
	}
	if order.CustomerID == executorID {
		return nil, apperrors.NewBadRequestError("cannot respond to your own order")
	}

	executor, err := s.userRepo.FindByID(executorID)
	if err != nil {
		return nil, apperrors.ErrUserNotFound.WithError(err)
	}
	if executor.Tariff != nil && !executor.Tariff.GrantsOrderAccess {
		return nil, apperrors.ErrTariffDeniesAccess
	}

	// Квота расходуется до вставки, чтобы лимит держался и под гонками.
	if err := s.subscriptions.ConsumeQuota(executorID, models.QuotaKindOrders); err != nil {
		return nil, err
	}

	response := &models.OrderResponse{
		OrderID:    orderID,
		ExecutorID: executorID,
		Message:    req.Message,
		Price:      req.Price,
		Status:     models.ResponseStatusSent,
	}
	if err := s.responseRepo.Create(response); err != nil {
		// Вставка не состоялась — возвращаем списанную единицу.
		if relErr := s.subscriptions.ReleaseQuota(executorID, models.QuotaKindOrders); relErr != nil {
			logger.Error("failed to release quota after rejected response",
				"executor_id", executorID, "error", relErr)
		}
		return nil, translateResponseError(err)
	}

	s.auditResponse(orderID, executorID, models.AuditResponseSubmitted, response.ID)
	go func() {
		err := s.notificationRepo.CreateResponseStatusNotification(
			order.CustomerID, orderID, order.Title, models.ResponseStatusSent)
		if err != nil {
			logger.Error("failed to notify customer about response", "order_id", orderID, "error", err)
		}
	}()

	return dto.BuildResponseDTO(response), nil
}

func (s *responseService) GetResponse(responseID string) (*dto.ResponseDTO, error) {
	response, err := s.responseRepo.FindByID(responseID)
	if err != nil {
		return nil, translateResponseError(err)
	}
	return dto.BuildResponseDTO(response), nil
}

func (s *responseService) ListByOrder(orderID, customerID string) ([]*dto.ResponseDTO, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, translateOrderError(err)
	}
	isViewer := order.CustomerID == customerID ||
		(order.MediatorID != nil && *order.MediatorID == customerID)
	if !isViewer {
		return nil, apperrors.ErrForbidden
	}

	responses, err := s.responseRepo.ListByOrder(orderID)
	if err != nil {
		return nil, err
	}
	return buildResponseList(responses), nil
}

func (s *responseService) ListByExecutor(executorID string) ([]*dto.ResponseDTO, error) {
	responses, err := s.responseRepo.ListByExecutor(executorID)
	if err != nil {
		return nil, err
	}
	return buildResponseList(responses), nil
}

// transitionOwnResponse — общий путь переходов статуса отклика с проверкой
// легальности перехода и принадлежности.
func (s *responseService) transitionOwnResponse(responseID string, to models.ResponseStatus, check func(*models.OrderResponse, *models.Order) error) (*dto.ResponseDTO, error) {
	response, err := s.responseRepo.FindByID(responseID)
	if err != nil {
		return nil, translateResponseError(err)
	}
	order, err := s.orderRepo.FindByID(response.OrderID)
	if err != nil {
		return nil, translateOrderError(err)
	}
	if err := check(response, order); err != nil {
		return nil, err
	}
	if !response.Status.CanTransition(to) {
		return nil, apperrors.ErrInvalidTransition.WithDetails(map[string]string{
			"status": response.Status.String(),
		})
	}

	if err := s.responseRepo.TransitionStatus(responseID, response.Status, to); err != nil {
		return nil, translateResponseError(err)
	}
	response.Status = to
	return dto.BuildResponseDTO(response), nil
}

func (s *responseService) ExchangeContacts(responseID, customerID string) (*dto.ResponseDTO, error) {
	return s.transitionOwnResponse(responseID, models.ResponseStatusContactExchanged,
		func(response *models.OrderResponse, order *models.Order) error {
			if order.CustomerID != customerID {
				return apperrors.ErrForbidden
			}
			return nil
		})
}

func (s *responseService) OpenContact(responseID, executorID string) (*dto.ResponseDTO, error) {
	response, err := s.responseRepo.FindByID(responseID)
	if err != nil {
		return nil, translateResponseError(err)
	}
	if response.ExecutorID != executorID {
		return nil, apperrors.ErrForbidden
	}
	if !response.Status.CanTransition(models.ResponseStatusContactOpenedByExecutor) {
		return nil, apperrors.ErrInvalidTransition.WithDetails(map[string]string{
			"status": response.Status.String(),
		})
	}

	// Открытие контакта платное — расходуем квоту контактов.
	if err := s.subscriptions.ConsumeQuota(executorID, models.QuotaKindContacts); err != nil {
		return nil, err
	}

	err = s.responseRepo.TransitionStatus(responseID, response.Status,
		models.ResponseStatusContactOpenedByExecutor)
	if err != nil {
		if relErr := s.subscriptions.ReleaseQuota(executorID, models.QuotaKindContacts); relErr != nil {
			logger.Error("failed to release contact quota", "executor_id", executorID, "error", relErr)
		}
		return nil, translateResponseError(err)
	}

	response.Status = models.ResponseStatusContactOpenedByExecutor
	return dto.BuildResponseDTO(response), nil
}

func (s *responseService) MarkOrderReceived(responseID, executorID string) (*dto.ResponseDTO, error) {
	return s.transitionOwnResponse(responseID, models.ResponseStatusOrderReceived,
		func(response *models.OrderResponse, order *models.Order) error {
			if response.ExecutorID != executorID {
				return apperrors.ErrForbidden
			}
			return nil
		})
}

func (s *responseService) SelectResponse(orderID, responseID, customerID string) (*dto.ResponseDTO, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, translateOrderError(err)
	}
	isSelector := order.CustomerID == customerID ||
		(order.MediatorID != nil && *order.MediatorID == customerID)
	if !isSelector {
		return nil, apperrors.ErrForbidden
	}
	if order.Status != models.OrderStatusSearching &&
		order.Status != models.OrderStatusSelectingExecutor {
		return nil, apperrors.ErrInvalidTransition.WithDetails(map[string]string{
			"status": order.Status.String(),
		})
	}

	response, err := s.responseRepo.FindByID(responseID)
	if err != nil {
		return nil, translateResponseError(err)
	}

	escrowHold := order.MaxAmount
	if response.Price != nil && *response.Price > 0 && *response.Price <= order.MaxAmount {
		escrowHold = *response.Price
	}

	selected, err := s.responseRepo.Select(orderID, responseID, escrowHold)
	if err != nil {
		return nil, translateResponseError(err)
	}

	s.auditResponse(orderID, customerID, models.AuditResponseSelected, responseID)
	go func() {
		err := s.notificationRepo.CreateResponseStatusNotification(
			selected.ExecutorID, orderID, order.Title, models.ResponseStatusTakenIntoWork)
		if err != nil {
			logger.Error("failed to notify selected executor", "order_id", orderID, "error", err)
		}
	}()

	return dto.BuildResponseDTO(selected), nil
}

func (s *responseService) RevokeResponse(responseID, actorID string) (*dto.ResponseDTO, error) {
	response, err := s.responseRepo.FindByID(responseID)
	if err != nil {
		return nil, translateResponseError(err)
	}
	order, err := s.orderRepo.FindByID(response.OrderID)
	if err != nil {
		return nil, translateOrderError(err)
	}

	var rejectedBy string
	switch actorID {
	case response.ExecutorID:
		rejectedBy = models.ResponseRejectedByExecutor
	case order.CustomerID:
		rejectedBy = models.ResponseRejectedByCustomer
	default:
		if order.MediatorID != nil && *order.MediatorID == actorID {
			rejectedBy = models.ResponseRejectedByCustomer
		} else {
			return nil, apperrors.ErrForbidden
		}
	}

	// Снятие выбранного исполнителя возвращает заказ в поиск, но только
	// пока работа не началась.
	releaseOrder := response.Status == models.ResponseStatusTakenIntoWork &&
		order.Status == models.OrderStatusExecutorSelected
	if response.Status == models.ResponseStatusTakenIntoWork && !releaseOrder {
		return nil, apperrors.ErrInvalidTransition.WithDetails(map[string]string{
			"status": order.Status.String(),
		})
	}

	rejected, err := s.responseRepo.Reject(responseID, rejectedBy, releaseOrder)
	if err != nil {
		return nil, translateResponseError(err)
	}

	s.auditResponse(order.ID, actorID, models.AuditResponseRevoked, responseID)
	return dto.BuildResponseDTO(rejected), nil
}

func (s *responseService) auditResponse(orderID, actorID, action, responseID string) {
	err := s.auditRepo.AppendAction(orderID, "", actorID, action, map[string]interface{}{
		"response_id": responseID,
	})
	if err != nil {
		logger.Error("failed to append audit entry", "order_id", orderID, "action", action, "error", err)
	}
}

func buildResponseList(responses []models.OrderResponse) []*dto.ResponseDTO {
	result := make([]*dto.ResponseDTO, 0, len(responses))
	for i := range responses {
		result = append(result, dto.BuildResponseDTO(&responses[i]))
	}
	return result
}
