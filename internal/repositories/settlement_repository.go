package repositories

import (
	"errors"
	"time"

	"masterplace_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRewardNotFound      = errors.New("reward record not found")
	ErrRewardTerminal      = errors.New("reward record is terminal")
	ErrRewardWrongStatus   = errors.New("reward record is not in the expected status")
	ErrCashbackNotFound    = errors.New("cashback transaction not found")
	ErrCashbackNotPending  = errors.New("cashback transaction is not pending")
	ErrCashbackNotReversed = errors.New("cashback transaction is not processed")
)

type SettlementRepository interface {
	// CreateReward создаёт запись в статусе Pending и один раз увеличивает
	// pending-агрегат владельца — в одной транзакции. Менеджерская запись
	// дополнительно накапливает объём заработков партнёров, от которого
	// зависит ступень комиссии следующих начислений.
	CreateReward(record *models.RewardRecord) error
	FindReward(id string) (*models.RewardRecord, error)
	ListRewardsByOwner(ownerID string, kind models.RewardKind) ([]models.RewardRecord, error)
	ListRewardsByStatus(status models.RewardStatus, limit int) ([]models.RewardRecord, error)

	// Approve: Pending→Approved. Балансы не трогает — это шлюз ревью.
	Approve(id string, at time.Time) error

	// MarkPaid: Approved→Paid, переносит сумму из pending в paid/total
	// владельца ровно один раз.
	MarkPaid(id string, externalRef string, at time.Time) error

	// Cancel: любой нетерминальный статус → Cancelled, откатывает уже
	// применённый pending-эффект.
	Cancel(id string, at time.Time) error

	// Cashback
	CreateCashback(tx *models.CashbackTransaction) error
	FindCashback(id string) (*models.CashbackTransaction, error)
	ListCashbackByPartner(partnerID string) ([]models.CashbackTransaction, error)

	// ProcessCashback: Pending→Processed, кредитует баланс партнёра ровно
	// один раз. Для не-Pending транзакции возвращает ErrCashbackNotPending.
	ProcessCashback(id string, at time.Time) (*models.CashbackTransaction, error)

	// CancelCashback: Processed→Cancelled с разовым дебетом баланса,
	// Pending→Cancelled без эффекта на баланс.
	CancelCashback(id string, at time.Time) (*models.CashbackTransaction, error)
}

type settlementRepository struct {
	db *gorm.DB
}

func NewSettlementRepository(db *gorm.DB) SettlementRepository {
	return &settlementRepository{db: db}
}

// ownerAggregate возвращает модель и условие владельца агрегатов для вида
// вознаграждения: менеджер и партнёр имеют профили, посредник — кошелёк
// пользователя.
func ownerAggregate(kind models.RewardKind) (interface{}, string) {
	switch kind {
	case models.RewardKindManager:
		return &models.ManagerProfile{}, "user_id = ?"
	case models.RewardKindPartner:
		return &models.PartnerProfile{}, "user_id = ?"
	default:
		return &models.User{}, "id = ?"
	}
}

func applyPending(tx *gorm.DB, record *models.RewardRecord, delta float64) error {
	model, cond := ownerAggregate(record.Kind)
	return tx.Model(model).Where(cond, record.OwnerID).
		UpdateColumn("pending_commission", gorm.Expr("pending_commission + ?", delta)).Error
}

func (r *settlementRepository) CreateReward(record *models.RewardRecord) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if record.Status == "" {
			record.Status = models.RewardStatusPending
		}
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		if record.Kind == models.RewardKindManager {
			// База записи — заработок партнёра; его объём выбирает
			// ступень комиссии при следующих начислениях.
			err := tx.Model(&models.ManagerProfile{}).
				Where("user_id = ?", record.OwnerID).
				UpdateColumn("total_partners_earnings",
					gorm.Expr("total_partners_earnings + ?", record.BaseAmount)).Error
			if err != nil {
				return err
			}
		}
		return applyPending(tx, record, record.Amount)
	})
}

func (r *settlementRepository) FindReward(id string) (*models.RewardRecord, error) {
	var record models.RewardRecord
	err := r.db.First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRewardNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *settlementRepository) ListRewardsByOwner(ownerID string, kind models.RewardKind) ([]models.RewardRecord, error) {
	var records []models.RewardRecord
	q := r.db.Where("owner_id = ?", ownerID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	err := q.Order("created_at DESC").Find(&records).Error
	return records, err
}

func (r *settlementRepository) ListRewardsByStatus(status models.RewardStatus, limit int) ([]models.RewardRecord, error) {
	var records []models.RewardRecord
	err := r.db.Where("status = ?", status).Order("created_at ASC").
		Limit(limit).Find(&records).Error
	return records, err
}

func (r *settlementRepository) Approve(id string, at time.Time) error {
	result := r.db.Model(&models.RewardRecord{}).
		Where("id = ? AND status = ?", id, models.RewardStatusPending).
		Updates(map[string]interface{}{
			"status":      models.RewardStatusApproved,
			"approved_at": at,
			"updated_at":  at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.classifyRewardFailure(id)
	}
	return nil
}

func (r *settlementRepository) MarkPaid(id string, externalRef string, at time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var record models.RewardRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRewardNotFound
			}
			return err
		}
		if record.IsTerminal() {
			return ErrRewardTerminal
		}
		if record.Status != models.RewardStatusApproved {
			return ErrRewardWrongStatus
		}

		result := tx.Model(&models.RewardRecord{}).
			Where("id = ? AND status = ?", id, models.RewardStatusApproved).
			Updates(map[string]interface{}{
				"status":       models.RewardStatusPaid,
				"paid_at":      at,
				"external_ref": externalRef,
				"updated_at":   at,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRewardWrongStatus
		}

		// Разовый перенос pending → paid/total у владельца.
		model, cond := ownerAggregate(record.Kind)
		updates := map[string]interface{}{
			"pending_commission": gorm.Expr("pending_commission - ?", record.Amount),
			"paid_commission":    gorm.Expr("paid_commission + ?", record.Amount),
			"total_earnings":     gorm.Expr("total_earnings + ?", record.Amount),
		}
		if record.Kind == models.RewardKindPartner || record.Kind == models.RewardKindMediator {
			updates["balance"] = gorm.Expr("balance + ?", record.Amount)
		}
		return tx.Model(model).Where(cond, record.OwnerID).Updates(updates).Error
	})
}

func (r *settlementRepository) Cancel(id string, at time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var record models.RewardRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRewardNotFound
			}
			return err
		}
		if record.IsTerminal() {
			return ErrRewardTerminal
		}

		result := tx.Model(&models.RewardRecord{}).
			Where("id = ? AND status = ?", id, record.Status).
			Updates(map[string]interface{}{
				"status":       models.RewardStatusCancelled,
				"cancelled_at": at,
				"updated_at":   at,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRewardWrongStatus
		}

		return applyPending(tx, &record, -record.Amount)
	})
}

func (r *settlementRepository) classifyRewardFailure(id string) error {
	record, err := r.FindReward(id)
	if err != nil {
		return err
	}
	if record.IsTerminal() {
		return ErrRewardTerminal
	}
	return ErrRewardWrongStatus
}

// Cashback

func (r *settlementRepository) CreateCashback(tx *models.CashbackTransaction) error {
	if tx.Status == "" {
		tx.Status = models.CashbackStatusPending
	}
	return r.db.Create(tx).Error
}

func (r *settlementRepository) FindCashback(id string) (*models.CashbackTransaction, error) {
	var cb models.CashbackTransaction
	err := r.db.First(&cb, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCashbackNotFound
		}
		return nil, err
	}
	return &cb, nil
}

func (r *settlementRepository) ListCashbackByPartner(partnerID string) ([]models.CashbackTransaction, error) {
	var txs []models.CashbackTransaction
	err := r.db.Where("partner_id = ?", partnerID).Order("created_at DESC").Find(&txs).Error
	return txs, err
}

func (r *settlementRepository) ProcessCashback(id string, at time.Time) (*models.CashbackTransaction, error) {
	var cb models.CashbackTransaction

	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&cb, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCashbackNotFound
			}
			return err
		}
		if cb.Status != models.CashbackStatusPending {
			return ErrCashbackNotPending
		}

		result := tx.Model(&models.CashbackTransaction{}).
			Where("id = ? AND status = ?", id, models.CashbackStatusPending).
			Updates(map[string]interface{}{
				"status":       models.CashbackStatusProcessed,
				"processed_at": at,
				"updated_at":   at,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCashbackNotPending
		}

		// Ровно один кредит баланса на транзакцию.
		err = tx.Model(&models.PartnerProfile{}).
			Where("id = ?", cb.PartnerID).
			Updates(map[string]interface{}{
				"balance":        gorm.Expr("balance + ?", cb.Amount),
				"total_earnings": gorm.Expr("total_earnings + ?", cb.Amount),
			}).Error
		if err != nil {
			return err
		}

		cb.Status = models.CashbackStatusProcessed
		cb.ProcessedAt = &at
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cb, nil
}

func (r *settlementRepository) CancelCashback(id string, at time.Time) (*models.CashbackTransaction, error) {
	var cb models.CashbackTransaction

	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&cb, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCashbackNotFound
			}
			return err
		}
		if cb.Status == models.CashbackStatusCancelled {
			return ErrCashbackNotPending
		}

		wasProcessed := cb.Status == models.CashbackStatusProcessed

		result := tx.Model(&models.CashbackTransaction{}).
			Where("id = ? AND status = ?", id, cb.Status).
			Updates(map[string]interface{}{
				"status":       models.CashbackStatusCancelled,
				"cancelled_at": at,
				"updated_at":   at,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCashbackNotPending
		}

		if wasProcessed {
			// Разовый дебет ранее зачисленного кэшбека.
			err = tx.Model(&models.PartnerProfile{}).
				Where("id = ?", cb.PartnerID).
				Updates(map[string]interface{}{
					"balance":        gorm.Expr("balance - ?", cb.Amount),
					"total_earnings": gorm.Expr("total_earnings - ?", cb.Amount),
				}).Error
			if err != nil {
				return err
			}
		}

		cb.Status = models.CashbackStatusCancelled
		cb.CancelledAt = &at
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cb, nil
}
