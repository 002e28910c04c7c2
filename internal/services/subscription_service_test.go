package services

import (
	"testing"
	"time"

	"masterplace_backend/internal/apperrors"
	"masterplace_backend/internal/models"
	"masterplace_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subscriptionEnv struct {
	users   *fakeUserRepo
	repo    *fakeSubscriptionRepo
	svc     SubscriptionService
	current time.Time
}

func newSubscriptionEnv() *subscriptionEnv {
	env := &subscriptionEnv{
		users:   newFakeUserRepo(),
		current: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	env.repo = newFakeSubscriptionRepo(env.users)

	svc := NewSubscriptionService(env.repo, env.users)
	svc.(*subscriptionService).now = func() time.Time { return env.current }
	env.svc = svc
	return env
}

func (env *subscriptionEnv) addTariff(name string, days, maxOrders int) *models.Tariff {
	return env.repo.addTariff(&models.Tariff{
		Name:              name,
		DurationDays:      days,
		MaxOrders:         maxOrders,
		MaxContacts:       maxOrders,
		GrantsOrderAccess: true,
		IsActive:          true,
	})
}

func TestSubscribe_ActivatesImmediately(t *testing.T) {
	env := newSubscriptionEnv()
	user := env.users.addUser(&models.User{Role: models.UserRoleExecutor})
	tariff := env.addTariff("Базовый", 30, 10)

	state, err := env.svc.Subscribe(user.ID, &dto.SubscribeRequest{TariffID: tariff.ID})
	require.NoError(t, err)

	require.NotNil(t, state.TariffID)
	assert.Equal(t, tariff.ID, *state.TariffID)
	assert.Equal(t, 0, state.UsedOrdersCount)
	require.NotNil(t, state.SubscriptionEnd)
	assert.Equal(t, env.current.Add(30*24*time.Hour), *state.SubscriptionEnd)
	assert.Nil(t, state.NextTariffID)
	assert.True(t, state.CanRespond)
	assert.True(t, state.CanOpenContact)
}

// Тариф без доступа к заказам не даёт отклики даже при свободной квоте,
// контакты при этом остаются доступны.
func TestGetState_TariffWithoutOrderAccess(t *testing.T) {
	env := newSubscriptionEnv()
	user := env.users.addUser(&models.User{Role: models.UserRoleExecutor})
	tariff := env.repo.addTariff(&models.Tariff{
		Name:         "Старт",
		DurationDays: 30,
		MaxOrders:    models.QuotaUnlimited,
		MaxContacts:  3,
		IsActive:     true,
	})

	_, err := env.svc.Subscribe(user.ID, &dto.SubscribeRequest{TariffID: tariff.ID})
	require.NoError(t, err)

	state, err := env.svc.GetState(user.ID)
	require.NoError(t, err)
	assert.False(t, state.CanRespond)
	assert.True(t, state.CanOpenContact)
}

func TestSubscribe_SchedulesWhenActive(t *testing.T) {
	env := newSubscriptionEnv()
	user := env.users.addUser(&models.User{Role: models.UserRoleExecutor})
	basic := env.addTariff("Базовый", 30, 10)
	pro := env.addTariff("Профи", 30, 100)

	_, err := env.svc.Subscribe(user.ID, &dto.SubscribeRequest{TariffID: basic.ID})
	require.NoError(t, err)

	// Частично израсходованная квота не сбрасывается при планировании.
	require.NoError(t, env.svc.ConsumeQuota(user.ID, models.QuotaKindOrders))

	state, err := env.svc.Subscribe(user.ID, &dto.SubscribeRequest{TariffID: pro.ID})
	require.NoError(t, err)

	// Текущий тариф не изменился, новый запланирован на конец периода.
	assert.Equal(t, basic.ID, *state.TariffID)
	require.NotNil(t, state.NextTariffID)
	assert.Equal(t, pro.ID, *state.NextTariffID)
	assert.Equal(t, 1, state.UsedOrdersCount)
	assert.Equal(t, *user.SubscriptionEnd, *state.NextTariffStart)
}

func TestConsumeQuota_ActivatesDuePendingTariff(t *testing.T) {
	env := newSubscriptionEnv()
	user := env.users.addUser(&models.User{Role: models.UserRoleExecutor})
	basic := env.addTariff("Базовый", 30, 1)
	pro := env.addTariff("Профи", 30, 100)

	_, err := env.svc.Subscribe(user.ID, &dto.SubscribeRequest{TariffID: basic.ID})
	require.NoError(t, err)
	require.NoError(t, env.svc.ConsumeQuota(user.ID, models.QuotaKindOrders))

	_, err = env.svc.Subscribe(user.ID, &dto.SubscribeRequest{TariffID: pro.ID})
	require.NoError(t, err)

	// Квота базового тарифа исчерпана.
	err = env.svc.ConsumeQuota(user.ID, models.QuotaKindOrders)
	assert.ErrorIs(t, err, apperrors.ErrQuotaExceeded)

	// Срок запланированного тарифа наступил — следующий расход квоты
	// активирует его и проходит со свежим счётчиком.
	env.current = env.current.Add(31 * 24 * time.Hour)
	require.NoError(t, env.svc.ConsumeQuota(user.ID, models.QuotaKindOrders))

	assert.Equal(t, pro.ID, *user.TariffID)
	assert.Equal(t, 1, user.UsedOrdersCount)
	assert.Nil(t, user.NextTariffID)
}

func TestConsumeQuota_NoActiveTariff(t *testing.T) {
	env := newSubscriptionEnv()
	user := env.users.addUser(&models.User{Role: models.UserRoleExecutor})

	err := env.svc.ConsumeQuota(user.ID, models.QuotaKindOrders)
	assert.ErrorIs(t, err, apperrors.ErrNoActiveTariff)
}

func TestReleaseQuota_NotBelowZero(t *testing.T) {
	env := newSubscriptionEnv()
	user := env.users.addUser(&models.User{Role: models.UserRoleExecutor})
	tariff := env.addTariff("Базовый", 30, 10)

	_, err := env.svc.Subscribe(user.ID, &dto.SubscribeRequest{TariffID: tariff.ID})
	require.NoError(t, err)

	require.NoError(t, env.svc.ReleaseQuota(user.ID, models.QuotaKindOrders))
	assert.Equal(t, 0, user.UsedOrdersCount)

	require.NoError(t, env.svc.ConsumeQuota(user.ID, models.QuotaKindOrders))
	require.NoError(t, env.svc.ReleaseQuota(user.ID, models.QuotaKindOrders))
	assert.Equal(t, 0, user.UsedOrdersCount)
}

func TestActivateDueTariffs(t *testing.T) {
	env := newSubscriptionEnv()
	basic := env.addTariff("Базовый", 30, 10)
	pro := env.addTariff("Профи", 30, 100)

	due := env.users.addUser(&models.User{Role: models.UserRoleExecutor})
	notDue := env.users.addUser(&models.User{Role: models.UserRoleExecutor})

	for _, user := range []*models.User{due, notDue} {
		_, err := env.svc.Subscribe(user.ID, &dto.SubscribeRequest{TariffID: basic.ID})
		require.NoError(t, err)
		_, err = env.svc.Subscribe(user.ID, &dto.SubscribeRequest{TariffID: pro.ID})
		require.NoError(t, err)
	}

	// У одного пользователя переносим срок активации вперёд.
	future := env.current.Add(60 * 24 * time.Hour)
	notDue.NextTariffStart = &future

	env.current = env.current.Add(31 * 24 * time.Hour)
	count, err := env.svc.ActivateDueTariffs()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.Equal(t, pro.ID, *due.TariffID)
	assert.Equal(t, basic.ID, *notDue.TariffID)
}

func TestActivatePendingTariffIfDue_NoopWhenNotDue(t *testing.T) {
	env := newSubscriptionEnv()
	user := env.users.addUser(&models.User{Role: models.UserRoleExecutor})
	basic := env.addTariff("Базовый", 30, 10)
	pro := env.addTariff("Профи", 30, 100)

	_, err := env.svc.Subscribe(user.ID, &dto.SubscribeRequest{TariffID: basic.ID})
	require.NoError(t, err)
	_, err = env.svc.Subscribe(user.ID, &dto.SubscribeRequest{TariffID: pro.ID})
	require.NoError(t, err)

	state, err := env.svc.ActivatePendingTariffIfDue(user.ID)
	require.NoError(t, err)
	assert.Equal(t, basic.ID, *state.TariffID)
	require.NotNil(t, state.NextTariffID)
}

func TestListTariffs_OnlyActive(t *testing.T) {
	env := newSubscriptionEnv()
	env.addTariff("Базовый", 30, 10)
	hidden := env.addTariff("Архивный", 30, 10)
	hidden.IsActive = false

	tariffs, err := env.svc.ListTariffs()
	require.NoError(t, err)
	assert.Len(t, tariffs, 1)
	assert.Equal(t, "Базовый", tariffs[0].Name)
}
