package algorithms

import (
	"testing"

	"masterplace_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func TestMediatorCommission_Priority(t *testing.T) {
	// Договорная цена важнее всех остальных условий
	got := MediatorCommission(MediatorCommissionInput{
		OrderAmount:       1000,
		AgreedPrice:       floatPtr(150),
		FixedFee:          floatPtr(99),
		CommissionPercent: floatPtr(10),
	})
	assert.Equal(t, 150.0, got)

	// Без договорной цены берётся фиксированная ставка
	got = MediatorCommission(MediatorCommissionInput{
		OrderAmount:       1000,
		FixedFee:          floatPtr(99),
		CommissionPercent: floatPtr(10),
	})
	assert.Equal(t, 99.0, got)

	// Иначе процент от суммы заказа
	got = MediatorCommission(MediatorCommissionInput{
		OrderAmount:       1000,
		CommissionPercent: floatPtr(10),
	})
	assert.Equal(t, 100.0, got)

	// Ничего не задано — ноль
	got = MediatorCommission(MediatorCommissionInput{OrderAmount: 1000})
	assert.Equal(t, 0.0, got)
}

func TestMediatorCommission_IgnoresZeroValues(t *testing.T) {
	// Нулевая договорная цена не перекрывает фиксированную ставку
	got := MediatorCommission(MediatorCommissionInput{
		OrderAmount: 500,
		AgreedPrice: floatPtr(0),
		FixedFee:    floatPtr(40),
	})
	assert.Equal(t, 40.0, got)
}

func TestManagerCommission_Tiers(t *testing.T) {
	base := ManagerCommissionInput{
		PartnerEarnings: 500,
		BasePercent:     10,
		Tier2Threshold:  10000,
		Tier2Percent:    15,
		Tier3Threshold:  50000,
		Tier3Percent:    20,
	}

	// Ниже порога второй ступени — базовая ставка
	in := base
	in.TotalPartnersEarnings = 5000
	got := ManagerCommission(in)
	assert.Equal(t, 10.0, got.Rate)
	assert.Equal(t, 50.0, got.Commission)

	// Накопленный объём выбирает вторую ступень
	in.TotalPartnersEarnings = 12000
	got = ManagerCommission(in)
	assert.Equal(t, 15.0, got.Rate)
	assert.Equal(t, 75.0, got.Commission)

	// Третья ступень
	in.TotalPartnersEarnings = 50000
	got = ManagerCommission(in)
	assert.Equal(t, 20.0, got.Rate)
	assert.Equal(t, 100.0, got.Commission)
}

func TestManagerCommission_ActivityBonus(t *testing.T) {
	in := ManagerCommissionInput{
		PartnerEarnings:      1000,
		BasePercent:          10,
		ActivityBonusPercent: 20,
		ActivityThreshold:    50,
		ActivePartners:       6,
		TotalPartners:        10,
	}

	// 60% активных >= порога 50% — бонус начисляется
	got := ManagerCommission(in)
	assert.Equal(t, 100.0, got.Commission)
	assert.Equal(t, 20.0, got.ActivityBonus)
	assert.Equal(t, 120.0, got.Total)

	// Доля активных ниже порога — без бонуса
	in.ActivePartners = 4
	got = ManagerCommission(in)
	assert.Equal(t, 0.0, got.ActivityBonus)
	assert.Equal(t, 100.0, got.Total)

	// Деление на ноль исключено
	in.TotalPartners = 0
	got = ManagerCommission(in)
	assert.Equal(t, 0.0, got.ActivityBonus)
}

func TestPartnerReward(t *testing.T) {
	// Фиксированное вознаграждение не зависит от базы
	assert.Equal(t, 300.0, PartnerReward(models.PartnerRewardTypeFixed, 300, 99999))

	// Процентное — от базы
	assert.Equal(t, 50.0, PartnerReward(models.PartnerRewardTypePercentage, 5, 1000))

	// Неизвестный тип — ноль
	assert.Equal(t, 0.0, PartnerReward("unknown", 5, 1000))
}

func TestCashbackAmount(t *testing.T) {
	assert.Equal(t, 25.0, CashbackAmount(500, 5))
	assert.Equal(t, 0.0, CashbackAmount(500, 0))
	assert.Equal(t, 0.0, CashbackAmount(0, 5))
	assert.Equal(t, 0.0, CashbackAmount(-100, 5))
}
