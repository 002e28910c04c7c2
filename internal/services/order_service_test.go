package services

import (
	"testing"

	"masterplace_backend/internal/apperrors"
	"masterplace_backend/internal/models"
	"masterplace_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dtoCreateOrder(title string, maxAmount float64) *dto.CreateOrderRequest {
	return &dto.CreateOrderRequest{Title: title, MaxAmount: maxAmount}
}

type orderEnv struct {
	orders        *fakeOrderRepo
	users         *fakeUserRepo
	audit         *fakeAuditRepo
	notifications *fakeNotificationRepo
	svc           OrderService
}

func newOrderEnv() *orderEnv {
	env := &orderEnv{
		orders:        newFakeOrderRepo(),
		users:         newFakeUserRepo(),
		audit:         &fakeAuditRepo{},
		notifications: &fakeNotificationRepo{},
	}
	env.svc = NewOrderService(env.orders, env.users, env.audit, env.notifications)
	return env
}

func (env *orderEnv) addParties(t *testing.T) (customer, executor *models.User) {
	t.Helper()
	customer = env.users.addUser(&models.User{Role: models.UserRoleCustomer, Status: models.UserStatusActive})
	executor = env.users.addUser(&models.User{Role: models.UserRoleExecutor, Status: models.UserStatusActive})
	return customer, executor
}

func TestCreateOrder(t *testing.T) {
	env := newOrderEnv()
	customer, _ := env.addParties(t)

	order, err := env.svc.CreateOrder(customer.ID, dtoCreateOrder("Ремонт кухни", 5000))
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusSearching, order.Status)
	assert.Equal(t, models.EscrowStatusNone, order.EscrowStatus)
	assert.Equal(t, 5000.0, order.MaxAmount)
	assert.Contains(t, env.audit.actions(), models.AuditOrderCreated)
}

func TestCreateOrder_UnknownCustomer(t *testing.T) {
	env := newOrderEnv()

	_, err := env.svc.CreateOrder("missing", dtoCreateOrder("x", 100))
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestCancelOrder(t *testing.T) {
	env := newOrderEnv()
	customer, executor := env.addParties(t)

	order := env.orders.addOrder(&models.Order{
		CustomerID:       customer.ID,
		ExecutorID:       &executor.ID,
		Status:           models.OrderStatusExecutorSelected,
		MaxAmount:        1000,
		EscrowStatus:     models.EscrowStatusHeld,
		EscrowAmountHeld: 800,
	})

	result, err := env.svc.CancelOrder(order.ID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, result.Status)

	// Удержанный эскроу возвращается заказчику.
	assert.Equal(t, models.EscrowStatusRefunded, result.EscrowStatus)
	assert.Equal(t, 0.0, result.EscrowAmountHeld)
}

func TestCancelOrder_Idempotent(t *testing.T) {
	env := newOrderEnv()
	customer, _ := env.addParties(t)

	order := env.orders.addOrder(&models.Order{
		CustomerID: customer.ID,
		Status:     models.OrderStatusCancelled,
		MaxAmount:  1000,
	})

	auditBefore := len(env.audit.actions())
	result, err := env.svc.CancelOrder(order.ID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, result.Status)
	// Повторная отмена ничего не журналирует.
	assert.Len(t, env.audit.actions(), auditBefore)
}

func TestCancelOrder_OnlyCustomer(t *testing.T) {
	env := newOrderEnv()
	customer, executor := env.addParties(t)

	order := env.orders.addOrder(&models.Order{
		CustomerID: customer.ID,
		Status:     models.OrderStatusSearching,
		MaxAmount:  1000,
	})

	_, err := env.svc.CancelOrder(order.ID, executor.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCancelOrder_InWorkNotCancellable(t *testing.T) {
	env := newOrderEnv()
	customer, executor := env.addParties(t)

	order := env.orders.addOrder(&models.Order{
		CustomerID: customer.ID,
		ExecutorID: &executor.ID,
		Status:     models.OrderStatusInWork,
		MaxAmount:  1000,
	})

	_, err := env.svc.CancelOrder(order.ID, customer.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestStartWork(t *testing.T) {
	env := newOrderEnv()
	customer, executor := env.addParties(t)

	order := env.orders.addOrder(&models.Order{
		CustomerID:   customer.ID,
		ExecutorID:   &executor.ID,
		Status:       models.OrderStatusExecutorSelected,
		MaxAmount:    1000,
		EscrowStatus: models.EscrowStatusHeld,
	})

	result, err := env.svc.StartWork(order.ID, executor.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInWork, result.Status)

	// Чужой исполнитель не может начать работу.
	_, err = env.svc.StartWork(order.ID, customer.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestConfirmCompletion_TwoPhase(t *testing.T) {
	env := newOrderEnv()
	customer, executor := env.addParties(t)

	order := env.orders.addOrder(&models.Order{
		CustomerID:       customer.ID,
		ExecutorID:       &executor.ID,
		Status:           models.OrderStatusInWork,
		MaxAmount:        1000,
		EscrowStatus:     models.EscrowStatusHeld,
		EscrowAmountHeld: 700,
	})

	// Заказчик не может закрыть заказ раньше исполнителя.
	_, err := env.svc.ConfirmCompletion(order.ID, customer.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	// Исполнитель заявляет о готовности.
	result, err := env.svc.ConfirmCompletion(order.ID, executor.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAwaitingConfirmation, result.Status)
	assert.True(t, result.CompletedByExecutor)
	assert.False(t, result.CompletedByCustomer)

	// Заказчик принимает результат, эскроу выплачивается.
	result, err = env.svc.ConfirmCompletion(order.ID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, result.Status)
	assert.True(t, result.CompletedByCustomer)
	assert.Equal(t, models.EscrowStatusReleased, result.EscrowStatus)
}

func TestRejectCompletion_ReturnsOrderToWork(t *testing.T) {
	env := newOrderEnv()
	customer, executor := env.addParties(t)

	order := env.orders.addOrder(&models.Order{
		CustomerID: customer.ID,
		ExecutorID: &executor.ID,
		Status:     models.OrderStatusInWork,
		MaxAmount:  1000,
	})

	// Цикл подтверждение/отклонение может повторяться без ограничений.
	for i := 0; i < 3; i++ {
		_, err := env.svc.ConfirmCompletion(order.ID, executor.ID)
		require.NoError(t, err)

		result, err := env.svc.RejectCompletion(order.ID, customer.ID, "переделать")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusInWork, result.Status)
		assert.False(t, result.CompletedByExecutor)
	}
}

func TestRejectOrder_RefundsEscrow(t *testing.T) {
	env := newOrderEnv()
	customer, executor := env.addParties(t)

	order := env.orders.addOrder(&models.Order{
		CustomerID:       customer.ID,
		ExecutorID:       &executor.ID,
		Status:           models.OrderStatusInWork,
		MaxAmount:        1000,
		EscrowStatus:     models.EscrowStatusHeld,
		EscrowAmountHeld: 1000,
	})

	result, err := env.svc.RejectOrder(order.ID, executor.ID, "не договорились")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusRejected, result.Status)
	assert.Equal(t, models.EscrowStatusRefunded, result.EscrowStatus)
}

func TestArchiveForActor(t *testing.T) {
	env := newOrderEnv()
	customer, executor := env.addParties(t)
	stranger := env.users.addUser(&models.User{Role: models.UserRoleExecutor})

	order := env.orders.addOrder(&models.Order{
		CustomerID: customer.ID,
		ExecutorID: &executor.ID,
		Status:     models.OrderStatusCompleted,
		MaxAmount:  1000,
	})

	require.NoError(t, env.svc.ArchiveForActor(order.ID, customer.ID))
	assert.True(t, env.orders.orders[order.ID].ArchivedByCustomer)
	assert.False(t, env.orders.orders[order.ID].ArchivedByExecutor)

	require.NoError(t, env.svc.ArchiveForActor(order.ID, executor.ID))
	assert.True(t, env.orders.orders[order.ID].ArchivedByExecutor)

	assert.ErrorIs(t, env.svc.ArchiveForActor(order.ID, stranger.ID), apperrors.ErrForbidden)
}

func TestArchiveForActor_ActiveOrder(t *testing.T) {
	env := newOrderEnv()
	customer, _ := env.addParties(t)

	order := env.orders.addOrder(&models.Order{
		CustomerID: customer.ID,
		Status:     models.OrderStatusInWork,
		MaxAmount:  1000,
	})

	assert.ErrorIs(t, env.svc.ArchiveForActor(order.ID, customer.ID), apperrors.ErrInvalidTransition)
}
