package models

import "gorm.io/datatypes"

// QuotaUnlimited в лимите тарифа отключает проверку квоты.
// Ноль означает "действие недоступно на этом тарифе".
const QuotaUnlimited = -1

type Tariff struct {
	BaseModel
	Name         string  `gorm:"not null"`
	Price        float64 `gorm:"not null"`
	Currency     string  `gorm:"default:'RUB'"`
	DurationDays int     `gorm:"not null"`

	MaxOrders   int `gorm:"default:0"`
	MaxContacts int `gorm:"default:0"`

	// Явные флаги вместо завязки бизнес-правил на имя тарифа.
	IsFree            bool `gorm:"default:false"`
	GrantsOrderAccess bool `gorm:"default:true"`

	Features datatypes.JSON `gorm:"type:jsonb"`
	IsActive bool           `gorm:"default:true"`
}

// AllowsOrders reports whether the tariff leaves room for one more
// response given the already-used count.
func (t *Tariff) AllowsOrders(used int) bool {
	if !t.GrantsOrderAccess {
		return false
	}
	return t.MaxOrders == QuotaUnlimited || used < t.MaxOrders
}

func (t *Tariff) AllowsContacts(used int) bool {
	return t.MaxContacts == QuotaUnlimited || used < t.MaxContacts
}
