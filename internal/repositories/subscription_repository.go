package repositories

import (
	"errors"
	"time"

	"masterplace_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTariffNotFound  = errors.New("tariff not found")
	ErrNoActiveTariff  = errors.New("user has no active tariff")
	ErrQuotaExceeded   = errors.New("subscription quota exceeded")
	ErrNoScheduledNext = errors.New("no scheduled next tariff")
)

type SubscriptionRepository interface {
	// Tariff operations
	CreateTariff(tariff *models.Tariff) error
	FindTariffByID(id string) (*models.Tariff, error)
	FindActiveTariffs() ([]models.Tariff, error)
	UpdateTariff(tariff *models.Tariff) error

	// Subscription state operations
	ActivateTariff(userID, tariffID string, start, end time.Time) error
	ScheduleNextTariff(userID, tariffID string, start, end time.Time) error

	// ActivateNextTariffIfDue атомарно вводит запланированный тариф в
	// действие, если его срок наступил: подменяет текущий тариф, очищает
	// "следующий" и обнуляет оба счётчика использования.
	ActivateNextTariffIfDue(userID string, now time.Time) (bool, error)

	// ConsumeQuota инкрементирует счётчик использования одним условным
	// UPDATE. Возвращает ErrQuotaExceeded без какой-либо мутации, если
	// пост-инкрементное значение превысило бы лимит тарифа.
	ConsumeQuota(userID string, kind models.QuotaKind) error

	// ReleaseQuota возвращает единицу квоты (отклик не состоялся из-за
	// отката транзакции уровнем выше).
	ReleaseQuota(userID string, kind models.QuotaKind) error

	FindExpiredSubscriptions(now time.Time) ([]models.User, error)
	FindUsersWithDueNextTariff(now time.Time) ([]models.User, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) CreateTariff(tariff *models.Tariff) error {
	return r.db.Create(tariff).Error
}

func (r *subscriptionRepository) FindTariffByID(id string) (*models.Tariff, error) {
	var tariff models.Tariff
	err := r.db.First(&tariff, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTariffNotFound
		}
		return nil, err
	}
	return &tariff, nil
}

func (r *subscriptionRepository) FindActiveTariffs() ([]models.Tariff, error) {
	var tariffs []models.Tariff
	err := r.db.Where("is_active = ?", true).Order("price ASC").Find(&tariffs).Error
	return tariffs, err
}

func (r *subscriptionRepository) UpdateTariff(tariff *models.Tariff) error {
	result := r.db.Save(tariff)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTariffNotFound
	}
	return nil
}

func (r *subscriptionRepository) ActivateTariff(userID, tariffID string, start, end time.Time) error {
	result := r.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"tariff_id":           tariffID,
		"subscription_start":  start,
		"subscription_end":    end,
		"used_orders_count":   0,
		"used_contacts_count": 0,
		"updated_at":          time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *subscriptionRepository) ScheduleNextTariff(userID, tariffID string, start, end time.Time) error {
	result := r.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"next_tariff_id":    tariffID,
		"next_tariff_start": start,
		"next_tariff_end":   end,
		"updated_at":        time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *subscriptionRepository) ActivateNextTariffIfDue(userID string, now time.Time) (bool, error) {
	activated := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, "id = ?", userID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if user.NextTariffID == nil || user.NextTariffStart == nil ||
			user.NextTariffStart.After(now) {
			return nil
		}

		result := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"tariff_id":           *user.NextTariffID,
			"subscription_start":  *user.NextTariffStart,
			"subscription_end":    user.NextTariffEnd,
			"next_tariff_id":      nil,
			"next_tariff_start":   nil,
			"next_tariff_end":     nil,
			"used_orders_count":   0,
			"used_contacts_count": 0,
			"updated_at":          now,
		})
		if result.Error != nil {
			return result.Error
		}
		activated = true
		return nil
	})
	return activated, err
}

func quotaColumns(kind models.QuotaKind) (used, max string) {
	if kind == models.QuotaKindContacts {
		return "used_contacts_count", "max_contacts"
	}
	return "used_orders_count", "max_orders"
}

func (r *subscriptionRepository) ConsumeQuota(userID string, kind models.QuotaKind) error {
	usedCol, maxCol := quotaColumns(kind)

	// Инкремент и проверка лимита одним UPDATE: конкурентные расходы квоты
	// не могут протолкнуть счётчик за максимум.
	result := r.db.Exec(`
		UPDATE users u SET `+usedCol+` = `+usedCol+` + 1, updated_at = ?
		FROM tariffs t
		WHERE u.id = ? AND u.tariff_id = t.id
		  AND (t.`+maxCol+` = ? OR u.`+usedCol+` < t.`+maxCol+`)`,
		time.Now(), userID, models.QuotaUnlimited)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		err := r.db.Model(&models.User{}).
			Where("id = ? AND tariff_id IS NOT NULL", userID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNoActiveTariff
		}
		return ErrQuotaExceeded
	}
	return nil
}

func (r *subscriptionRepository) ReleaseQuota(userID string, kind models.QuotaKind) error {
	usedCol, _ := quotaColumns(kind)
	return r.db.Exec(`
		UPDATE users SET `+usedCol+` = `+usedCol+` - 1, updated_at = ?
		WHERE id = ? AND `+usedCol+` > 0`,
		time.Now(), userID).Error
}

func (r *subscriptionRepository) FindExpiredSubscriptions(now time.Time) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("tariff_id IS NOT NULL AND subscription_end < ?", now).
		Find(&users).Error
	return users, err
}

func (r *subscriptionRepository) FindUsersWithDueNextTariff(now time.Time) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("next_tariff_id IS NOT NULL AND next_tariff_start <= ?", now).
		Find(&users).Error
	return users, err
}
