package models

import "time"

type User struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex;not null"`
	PasswordHash string     `gorm:"not null"`
	Role         UserRole   `gorm:"type:varchar(20);not null"`
	Status       UserStatus `gorm:"type:varchar(20);default:'pending'"`
	Name         string
	Phone        string

	// Партнёр, по чьей реферальной ссылке пользователь зарегистрировался.
	ReferredByPartnerID *string `gorm:"type:uuid;index"`

	// Агрегаты рейтинга. Пересчитываются целиком при каждом новом отзыве,
	// nil — пока нет ни одного отзыва в соответствующей роли.
	ExecutorRating       *float64
	ExecutorReviewsCount int `gorm:"default:0"`
	CustomerRating       *float64
	CustomerReviewsCount int `gorm:"default:0"`
	OverallRating        *float64

	// Состояние подписки. Счётчики сбрасываются только при активации
	// нового периода, не при его планировании.
	TariffID          *string `gorm:"type:uuid;index"`
	SubscriptionStart *time.Time
	SubscriptionEnd   *time.Time
	NextTariffID      *string `gorm:"type:uuid"`
	NextTariffStart   *time.Time
	NextTariffEnd     *time.Time
	UsedOrdersCount   int `gorm:"default:0"`
	UsedContactsCount int `gorm:"default:0"`

	// Кошелёк. Мутируется только Settlement Ledger-ом, атомарными инкрементами.
	Balance           float64 `gorm:"default:0"`
	TotalEarnings     float64 `gorm:"default:0"`
	PendingCommission float64 `gorm:"default:0"`
	PaidCommission    float64 `gorm:"default:0"`

	// Relations
	Tariff     *Tariff `gorm:"foreignKey:TariffID"`
	NextTariff *Tariff `gorm:"foreignKey:NextTariffID"`
}

// ManagerProfile хранит параметры комиссии менеджера и его накопленные
// агрегаты. Балансы мутируются только Settlement Ledger-ом.
type ManagerProfile struct {
	BaseModel
	UserID string `gorm:"type:uuid;not null;uniqueIndex"`

	BaseCommissionPercent float64 `gorm:"not null"`
	Tier2Threshold        float64
	Tier2Percent          float64
	Tier3Threshold        float64
	Tier3Percent          float64
	ActivityBonusPercent  float64
	ActivityThreshold     float64

	TotalPartnersEarnings float64 `gorm:"default:0"`
	ActivePartners        int     `gorm:"default:0"`
	TotalPartners         int     `gorm:"default:0"`

	TotalEarnings     float64 `gorm:"default:0"`
	PendingCommission float64 `gorm:"default:0"`
	PaidCommission    float64 `gorm:"default:0"`

	User User `gorm:"foreignKey:UserID"`
}

const (
	PartnerRewardTypeFixed      = "fixed"
	PartnerRewardTypePercentage = "percentage"
)

// PartnerProfile — участник партнёрской программы с реферальной ссылкой.
type PartnerProfile struct {
	BaseModel
	UserID       string  `gorm:"type:uuid;not null;uniqueIndex"`
	ManagerID    *string `gorm:"type:uuid;index"`
	ReferralCode string  `gorm:"uniqueIndex;not null"`

	RewardType  string  `gorm:"type:varchar(20);default:'percentage'"`
	RewardValue float64 `gorm:"default:0"`

	// Кэшбек-процент для приглашённых по реферальной ссылке.
	CashbackPercent float64 `gorm:"default:0"`

	Balance           float64 `gorm:"default:0"`
	TotalEarnings     float64 `gorm:"default:0"`
	PendingCommission float64 `gorm:"default:0"`
	PaidCommission    float64 `gorm:"default:0"`
	IsActive          bool    `gorm:"default:true"`

	User User `gorm:"foreignKey:UserID"`
}
