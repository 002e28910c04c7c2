package algorithms

import "masterplace_backend/internal/models"

// Чистые функции расчёта вознаграждений. Ничего не персистят —
// результаты записывает Settlement Ledger.

// MediatorCommissionInput — условия вознаграждения посредника по заказу.
type MediatorCommissionInput struct {
	OrderAmount       float64
	AgreedPrice       *float64
	FixedFee          *float64
	CommissionPercent *float64
}

// MediatorCommission computes the mediator's fee. Priority:
// agreed price > fixed fee > percentage of the order amount > zero.
func MediatorCommission(in MediatorCommissionInput) float64 {
	if in.AgreedPrice != nil && *in.AgreedPrice > 0 {
		return *in.AgreedPrice
	}
	if in.FixedFee != nil && *in.FixedFee > 0 {
		return *in.FixedFee
	}
	if in.CommissionPercent != nil && *in.CommissionPercent > 0 {
		return in.OrderAmount * *in.CommissionPercent / 100
	}
	return 0
}

// ManagerCommissionInput — параметры прогрессивной комиссии менеджера.
type ManagerCommissionInput struct {
	PartnerEarnings float64 // база начисления за период

	BasePercent    float64
	Tier2Threshold float64
	Tier2Percent   float64
	Tier3Threshold float64
	Tier3Percent   float64

	// Накопленный объём заработков партнёров менеджера, выбирает ступень.
	TotalPartnersEarnings float64

	ActivityBonusPercent float64
	ActivityThreshold    float64 // процент активных партнёров
	ActivePartners       int
	TotalPartners        int
}

// ManagerCommissionResult раскладывает начисление на составляющие.
type ManagerCommissionResult struct {
	Rate          float64
	Commission    float64
	ActivityBonus float64
	Total         float64
}

// ManagerCommission computes the tiered manager commission. The cumulative
// partners-earnings volume selects the rate; the activity bonus applies only
// when the active-partner share reaches the threshold.
func ManagerCommission(in ManagerCommissionInput) ManagerCommissionResult {
	rate := in.BasePercent
	if in.Tier3Threshold > 0 && in.TotalPartnersEarnings >= in.Tier3Threshold {
		rate = in.Tier3Percent
	} else if in.Tier2Threshold > 0 && in.TotalPartnersEarnings >= in.Tier2Threshold {
		rate = in.Tier2Percent
	}

	commission := in.PartnerEarnings * rate / 100

	var bonus float64
	if in.ActivityBonusPercent > 0 && in.TotalPartners > 0 {
		activeShare := float64(in.ActivePartners) / float64(in.TotalPartners) * 100
		if activeShare >= in.ActivityThreshold {
			bonus = commission * in.ActivityBonusPercent / 100
		}
	}

	return ManagerCommissionResult{
		Rate:          rate,
		Commission:    commission,
		ActivityBonus: bonus,
		Total:         commission + bonus,
	}
}

// PartnerReward computes the partner's reward for a referred transaction.
// Fixed rewards ignore the base amount.
func PartnerReward(rewardType string, rewardValue, baseAmount float64) float64 {
	switch rewardType {
	case models.PartnerRewardTypeFixed:
		return rewardValue
	case models.PartnerRewardTypePercentage:
		return baseAmount * rewardValue / 100
	}
	return 0
}

// CashbackAmount computes the referral cashback for a wallet top-up.
func CashbackAmount(topUpAmount, percent float64) float64 {
	if percent <= 0 || topUpAmount <= 0 {
		return 0
	}
	return topUpAmount * percent / 100
}
