package services

import (
	"testing"

	"masterplace_backend/internal/apperrors"
	"masterplace_backend/internal/models"
	"masterplace_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Сквозной сценарий: создание заказа, отклики двух исполнителей, выбор
// одного, работа и двухстороннее подтверждение завершения.
func TestOrderLifecycle_EndToEnd(t *testing.T) {
	env := newResponseEnv()
	orderSvc := NewOrderService(env.orders, env.users, env.audit, &fakeNotificationRepo{})

	customer := env.users.addUser(&models.User{Role: models.UserRoleCustomer, Status: models.UserStatusActive})
	first := env.addExecutor(5, 5)
	second := env.addExecutor(5, 5)

	created, err := orderSvc.CreateOrder(customer.ID, dtoCreateOrder("Ремонт ванной", 3000))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusSearching, created.Status)

	price := 2500.0
	winner, err := env.svc.SubmitResponse(created.ID, first.ID,
		&dto.SubmitResponseRequest{Message: "Возьмусь на этой неделе", Price: &price})
	require.NoError(t, err)
	loser, err := env.svc.SubmitResponse(created.ID, second.ID, &dto.SubmitResponseRequest{})
	require.NoError(t, err)

	selected, err := env.svc.SelectResponse(created.ID, winner.ID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseStatusTakenIntoWork, selected.Status)

	// Конкурент отклонён автоматически, заказ удерживает цену отклика.
	rival := env.responses.responses[loser.ID]
	assert.Equal(t, models.ResponseStatusRejected, rival.Status)
	assert.Equal(t, models.ResponseRejectedAuto, rival.RejectedBy)

	order := env.orders.orders[created.ID]
	assert.Equal(t, models.OrderStatusExecutorSelected, order.Status)
	assert.Equal(t, models.EscrowStatusHeld, order.EscrowStatus)
	assert.Equal(t, 2500.0, order.EscrowAmountHeld)

	// Победитель ровно один: повторный выбор по тому же заказу не проходит.
	_, err = env.svc.SelectResponse(created.ID, loser.ID, customer.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	require.NotNil(t, order.ExecutorID)
	assert.Equal(t, first.ID, *order.ExecutorID)

	started, err := orderSvc.StartWork(created.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInWork, started.Status)

	// Завершение подтверждают обе стороны: сначала исполнитель,
	// затем заказчик закрывает заказ с выплатой эскроу.
	awaiting, err := orderSvc.ConfirmCompletion(created.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAwaitingConfirmation, awaiting.Status)

	completed, err := orderSvc.ConfirmCompletion(created.ID, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, completed.Status)
	assert.Equal(t, models.EscrowStatusReleased, completed.EscrowStatus)
	assert.True(t, completed.CompletedByCustomer)
	assert.True(t, completed.CompletedByExecutor)
}
