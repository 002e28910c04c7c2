package repositories

import (
	"errors"
	"time"

	"masterplace_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrResponseNotFound      = errors.New("response not found")
	ErrResponseAlreadyExists = errors.New("active response already exists for this order")
	ErrResponseConflict      = errors.New("response status changed concurrently")
)

type ResponseRepository interface {
	Create(response *models.OrderResponse) error
	FindByID(id string) (*models.OrderResponse, error)
	ListByOrder(orderID string) ([]models.OrderResponse, error)
	ListByExecutor(executorID string) ([]models.OrderResponse, error)

	// TransitionStatus — условный переход статуса отклика.
	TransitionStatus(id string, from, to models.ResponseStatus) error

	// Select атомарно: блокирует заказ, проверяет его статус, переводит
	// выбранный отклик в TakenIntoWork, отклоняет всех конкурентов и
	// назначает исполнителя на заказ с удержанием эскроу.
	Select(orderID, responseID string, escrowHold float64) (*models.OrderResponse, error)

	// Reject закрывает отклик с указанием инициатора. Если отклик был
	// выбранным (TakenIntoWork) и releaseOrder=true, заказ возвращается
	// в Searching со сбросом исполнителя.
	Reject(responseID, rejectedBy string, releaseOrder bool) (*models.OrderResponse, error)
}

type responseRepository struct {
	db *gorm.DB
}

func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &responseRepository{db: db}
}

func (r *responseRepository) Create(response *models.OrderResponse) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.OrderResponse{}).
			Where("order_id = ? AND executor_id = ? AND status <> ?",
				response.OrderID, response.ExecutorID, models.ResponseStatusRejected).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrResponseAlreadyExists
		}
		return tx.Create(response).Error
	})
}

func (r *responseRepository) FindByID(id string) (*models.OrderResponse, error) {
	var response models.OrderResponse
	err := r.db.First(&response, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResponseNotFound
		}
		return nil, err
	}
	return &response, nil
}

func (r *responseRepository) ListByOrder(orderID string) ([]models.OrderResponse, error) {
	var responses []models.OrderResponse
	err := r.db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&responses).Error
	return responses, err
}

func (r *responseRepository) ListByExecutor(executorID string) ([]models.OrderResponse, error) {
	var responses []models.OrderResponse
	err := r.db.Preload("Order").Where("executor_id = ?", executorID).
		Order("created_at DESC").Find(&responses).Error
	return responses, err
}

func (r *responseRepository) TransitionStatus(id string, from, to models.ResponseStatus) error {
	result := r.db.Model(&models.OrderResponse{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.Model(&models.OrderResponse{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrResponseNotFound
		}
		return ErrResponseConflict
	}
	return nil
}

func (r *responseRepository) Select(orderID, responseID string, escrowHold float64) (*models.OrderResponse, error) {
	var selected models.OrderResponse

	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Блокировка строки заказа сериализует конкурентные выборы.
		var order models.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", orderID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if order.Status != models.OrderStatusSearching &&
			order.Status != models.OrderStatusSelectingExecutor {
			return ErrStatusConflict
		}

		if err := tx.First(&selected, "id = ? AND order_id = ?", responseID, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrResponseNotFound
			}
			return err
		}
		if selected.Status == models.ResponseStatusRejected ||
			selected.Status == models.ResponseStatusTakenIntoWork {
			return ErrResponseConflict
		}

		if escrowHold > order.MaxAmount {
			return ErrEscrowOverLimit
		}

		now := time.Now()

		result := tx.Model(&models.OrderResponse{}).
			Where("id = ? AND status = ?", responseID, selected.Status).
			Updates(map[string]interface{}{
				"status":     models.ResponseStatusTakenIntoWork,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrResponseConflict
		}

		// Автоотклонение конкурирующих откликов.
		err = tx.Model(&models.OrderResponse{}).
			Where("order_id = ? AND id <> ? AND status <> ?",
				orderID, responseID, models.ResponseStatusRejected).
			Updates(map[string]interface{}{
				"status":      models.ResponseStatusRejected,
				"rejected_by": models.ResponseRejectedAuto,
				"updated_at":  now,
			}).Error
		if err != nil {
			return err
		}

		// Инвариант единственного победителя: после автоотклонения в
		// работе по заказу остаётся ровно один отклик.
		var taken int64
		err = tx.Model(&models.OrderResponse{}).
			Where("order_id = ? AND status = ?", orderID, models.ResponseStatusTakenIntoWork).
			Count(&taken).Error
		if err != nil {
			return err
		}
		if taken != 1 {
			return ErrResponseConflict
		}

		return transitionTx(tx, orderID, order.Status, models.OrderStatusExecutorSelected,
			map[string]interface{}{
				"executor_id":        selected.ExecutorID,
				"escrow_status":      models.EscrowStatusHeld,
				"escrow_amount_held": escrowHold,
			})
	})
	if err != nil {
		return nil, err
	}

	selected.Status = models.ResponseStatusTakenIntoWork
	return &selected, nil
}

func (r *responseRepository) Reject(responseID, rejectedBy string, releaseOrder bool) (*models.OrderResponse, error) {
	var response models.OrderResponse

	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&response, "id = ?", responseID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrResponseNotFound
			}
			return err
		}
		if response.Status == models.ResponseStatusRejected {
			return ErrResponseConflict
		}

		wasSelected := response.Status == models.ResponseStatusTakenIntoWork

		result := tx.Model(&models.OrderResponse{}).
			Where("id = ? AND status = ?", responseID, response.Status).
			Updates(map[string]interface{}{
				"status":      models.ResponseStatusRejected,
				"rejected_by": rejectedBy,
				"updated_at":  time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrResponseConflict
		}

		if wasSelected && releaseOrder {
			err = transitionTx(tx, response.OrderID, models.OrderStatusExecutorSelected,
				models.OrderStatusSearching, map[string]interface{}{
					"executor_id":        nil,
					"escrow_status":      models.EscrowStatusRefunded,
					"escrow_amount_held": 0,
				})
			if err != nil {
				return err
			}
		}

		response.Status = models.ResponseStatusRejected
		response.RejectedBy = rejectedBy
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}
