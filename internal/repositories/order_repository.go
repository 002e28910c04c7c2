package repositories

import (
	"errors"
	"time"

	"masterplace_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrStatusConflict  = errors.New("order status changed concurrently")
	ErrEscrowOverLimit = errors.New("escrow amount exceeds order max amount")
)

type OrderRepository interface {
	Create(order *models.Order) error
	Update(order *models.Order) error
	FindByID(id string) (*models.Order, error)
	ListByCustomer(customerID string) ([]models.Order, error)
	ListByExecutor(executorID string) ([]models.Order, error)
	ListByMediator(mediatorID string) ([]models.Order, error)
	ListSearching(limit, offset int) ([]models.Order, error)

	// TransitionStatus переводит заказ from→to одним условным UPDATE.
	// Возвращает ErrStatusConflict, если текущий статус уже не from.
	TransitionStatus(id string, from, to models.OrderStatus) error

	// SelectExecutor атомарно назначает исполнителя, переводит заказ в
	// ExecutorSelected и удерживает эскроу.
	SelectExecutor(id string, from models.OrderStatus, executorID string, escrowHold float64) error

	// ReleaseExecutor снимает назначение и возвращает заказ в Searching.
	ReleaseExecutor(id string, from models.OrderStatus) error

	SetExecutorCompleted(id string, from, to models.OrderStatus, at time.Time) error
	SetCustomerCompleted(id string, from, to models.OrderStatus, at time.Time) error
	ClearCompletionFlags(id string, from, to models.OrderStatus) error
	ReleaseEscrow(id string) error
	RefundEscrow(id string) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepository) Update(order *models.Order) error {
	result := r.db.Save(order)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) FindByID(id string) (*models.Order, error) {
	var order models.Order
	err := r.db.First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByCustomer(customerID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("customer_id = ?", customerID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) ListByExecutor(executorID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("executor_id = ?", executorID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) ListByMediator(mediatorID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("mediator_id = ?", mediatorID).Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) ListSearching(limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Where("status = ?", models.OrderStatusSearching).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error
	return orders, err
}

// transitionTx — общий условный переход статуса с дополнительными полями.
func transitionTx(tx *gorm.DB, id string, from, to models.OrderStatus, extra map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	result := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Либо заказа нет, либо статус уже изменился — различаем.
		var count int64
		if err := tx.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrOrderNotFound
		}
		return ErrStatusConflict
	}
	return nil
}

func (r *orderRepository) TransitionStatus(id string, from, to models.OrderStatus) error {
	return transitionTx(r.db, id, from, to, nil)
}

func (r *orderRepository) SelectExecutor(id string, from models.OrderStatus, executorID string, escrowHold float64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if order.Status != from {
			return ErrStatusConflict
		}
		if escrowHold > order.MaxAmount {
			return ErrEscrowOverLimit
		}

		return transitionTx(tx, id, from, models.OrderStatusExecutorSelected, map[string]interface{}{
			"executor_id":        executorID,
			"escrow_status":      models.EscrowStatusHeld,
			"escrow_amount_held": escrowHold,
		})
	})
}

func (r *orderRepository) ReleaseExecutor(id string, from models.OrderStatus) error {
	return transitionTx(r.db, id, from, models.OrderStatusSearching, map[string]interface{}{
		"executor_id":        nil,
		"escrow_status":      models.EscrowStatusRefunded,
		"escrow_amount_held": 0,
	})
}

func (r *orderRepository) SetExecutorCompleted(id string, from, to models.OrderStatus, at time.Time) error {
	return transitionTx(r.db, id, from, to, map[string]interface{}{
		"completed_by_executor":    true,
		"completed_by_executor_at": at,
	})
}

func (r *orderRepository) SetCustomerCompleted(id string, from, to models.OrderStatus, at time.Time) error {
	return transitionTx(r.db, id, from, to, map[string]interface{}{
		"completed_by_customer":    true,
		"completed_by_customer_at": at,
	})
}

func (r *orderRepository) ClearCompletionFlags(id string, from, to models.OrderStatus) error {
	return transitionTx(r.db, id, from, to, map[string]interface{}{
		"completed_by_executor":    false,
		"completed_by_executor_at": nil,
	})
}

func (r *orderRepository) ReleaseEscrow(id string) error {
	return r.db.Model(&models.Order{}).
		Where("id = ? AND escrow_status = ?", id, models.EscrowStatusHeld).
		Updates(map[string]interface{}{
			"escrow_status":      models.EscrowStatusReleased,
			"escrow_amount_held": 0,
		}).Error
}

func (r *orderRepository) RefundEscrow(id string) error {
	return r.db.Model(&models.Order{}).
		Where("id = ? AND escrow_status = ?", id, models.EscrowStatusHeld).
		Updates(map[string]interface{}{
			"escrow_status":      models.EscrowStatusRefunded,
			"escrow_amount_held": 0,
		}).Error
}
