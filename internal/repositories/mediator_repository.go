package repositories

import (
	"errors"
	"time"

	"masterplace_backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrStepNotFound  = errors.New("mediator step not found")
	ErrStepFinal     = errors.New("step 3 is the final mediator step")
	ErrStepConflict  = errors.New("active step changed concurrently")
	ErrNoActiveStep  = errors.New("order has no active mediator step")
	ErrStepNotActive = errors.New("step is not active")
)

type MediatorRepository interface {
	// Assign назначает посредника на заказ в поиске: заказ переходит в
	// MediatorClarify, создаётся активный этап 1.
	Assign(orderID, mediatorID string, agreedPrice, fixedFee, commissionPercent *float64) (*models.MediatorStep, error)

	FindActiveStep(orderID string) (*models.MediatorStep, error)
	FindStepByID(id string) (*models.MediatorStep, error)
	ListSteps(orderID string) ([]models.MediatorStep, error)

	// Advance завершает активный этап и активирует следующий. На этапе 3
	// возвращает ErrStepFinal — заказ закрывается через Order Workflow.
	Advance(orderID string, progress datatypes.JSON) (*models.MediatorStep, error)

	// Archive архивирует активный этап и каскадно переводит заказ
	// в MediatorArchived.
	Archive(orderID, reason string) error

	// ReturnToPool помечает активный этап Returned, снимает посредника с
	// заказа, очищает условия его вознаграждения и возвращает заказ в Searching.
	ReturnToPool(orderID, reason string) error

	// CompleteFinal завершает этап 3 при закрытии заказа посредником.
	CompleteFinal(orderID string, progress datatypes.JSON) (*models.MediatorStep, error)
}

type mediatorRepository struct {
	db *gorm.DB
}

func NewMediatorRepository(db *gorm.DB) MediatorRepository {
	return &mediatorRepository{db: db}
}

func (r *mediatorRepository) Assign(orderID, mediatorID string, agreedPrice, fixedFee, commissionPercent *float64) (*models.MediatorStep, error) {
	step := &models.MediatorStep{
		OrderID:    orderID,
		MediatorID: mediatorID,
		Step:       models.MediatorStepClarify,
		Status:     models.StepStatusActive,
		StartedAt:  time.Now(),
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := transitionTx(tx, orderID, models.OrderStatusSearching,
			models.OrderStatusMediatorClarify, map[string]interface{}{
				"mediator_id":                 mediatorID,
				"mediator_agreed_price":       agreedPrice,
				"mediator_fixed_fee":          fixedFee,
				"mediator_commission_percent": commissionPercent,
			})
		if err != nil {
			return err
		}
		return tx.Create(step).Error
	})
	if err != nil {
		return nil, err
	}
	return step, nil
}

func (r *mediatorRepository) FindActiveStep(orderID string) (*models.MediatorStep, error) {
	var step models.MediatorStep
	err := r.db.Where("order_id = ? AND status = ?", orderID, models.StepStatusActive).
		First(&step).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveStep
		}
		return nil, err
	}
	return &step, nil
}

func (r *mediatorRepository) FindStepByID(id string) (*models.MediatorStep, error) {
	var step models.MediatorStep
	err := r.db.First(&step, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStepNotFound
		}
		return nil, err
	}
	return &step, nil
}

func (r *mediatorRepository) ListSteps(orderID string) ([]models.MediatorStep, error) {
	var steps []models.MediatorStep
	err := r.db.Where("order_id = ?", orderID).Order("step ASC").Find(&steps).Error
	return steps, err
}

// lockActiveStep берёт блокировку заказа и возвращает его активный этап.
func lockActiveStep(tx *gorm.DB, orderID string) (*models.Order, *models.MediatorStep, error) {
	var order models.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, err
	}

	var step models.MediatorStep
	err = tx.Where("order_id = ? AND status = ?", orderID, models.StepStatusActive).
		First(&step).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNoActiveStep
		}
		return nil, nil, err
	}
	return &order, &step, nil
}

func closeStep(tx *gorm.DB, step *models.MediatorStep, status models.StepStatus, progress datatypes.JSON, reason string, completedAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if progress != nil {
		updates["progress"] = progress
	}
	if reason != "" {
		updates["reason"] = reason
	}
	if completedAt != nil {
		updates["completed_at"] = completedAt
	}

	result := tx.Model(&models.MediatorStep{}).
		Where("id = ? AND status = ?", step.ID, models.StepStatusActive).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStepConflict
	}
	return nil
}

func (r *mediatorRepository) Advance(orderID string, progress datatypes.JSON) (*models.MediatorStep, error) {
	var next *models.MediatorStep

	err := r.db.Transaction(func(tx *gorm.DB) error {
		order, step, err := lockActiveStep(tx, orderID)
		if err != nil {
			return err
		}
		if step.Step >= models.MediatorStepExecute {
			return ErrStepFinal
		}

		now := time.Now()
		if err := closeStep(tx, step, models.StepStatusCompleted, progress, "", &now); err != nil {
			return err
		}

		next = &models.MediatorStep{
			OrderID:    orderID,
			MediatorID: step.MediatorID,
			Step:       step.Step + 1,
			Status:     models.StepStatusActive,
			StartedAt:  now,
		}
		if err := tx.Create(next).Error; err != nil {
			return err
		}

		return transitionTx(tx, orderID, order.Status,
			models.OrderStatusForStep(next.Step), nil)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (r *mediatorRepository) Archive(orderID, reason string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		order, step, err := lockActiveStep(tx, orderID)
		if err != nil {
			return err
		}

		if err := closeStep(tx, step, models.StepStatusArchived, nil, reason, nil); err != nil {
			return err
		}

		return transitionTx(tx, orderID, order.Status, models.OrderStatusMediatorArchived, nil)
	})
}

func (r *mediatorRepository) ReturnToPool(orderID, reason string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		order, step, err := lockActiveStep(tx, orderID)
		if err != nil {
			return err
		}

		if err := closeStep(tx, step, models.StepStatusReturned, nil, reason, nil); err != nil {
			return err
		}

		// Сбрасываем посредника и частично рассчитанные условия комиссии,
		// чтобы не осталось устаревших данных для расчётов.
		return transitionTx(tx, orderID, order.Status, models.OrderStatusSearching,
			map[string]interface{}{
				"mediator_id":                 nil,
				"mediator_agreed_price":       nil,
				"mediator_fixed_fee":          nil,
				"mediator_commission_percent": nil,
				"mediator_margin":             nil,
			})
	})
}

func (r *mediatorRepository) CompleteFinal(orderID string, progress datatypes.JSON) (*models.MediatorStep, error) {
	var final *models.MediatorStep

	err := r.db.Transaction(func(tx *gorm.DB) error {
		_, step, err := lockActiveStep(tx, orderID)
		if err != nil {
			return err
		}
		if step.Step != models.MediatorStepExecute {
			return ErrStepNotActive
		}

		now := time.Now()
		if err := closeStep(tx, step, models.StepStatusCompleted, progress, "", &now); err != nil {
			return err
		}
		step.Status = models.StepStatusCompleted
		step.CompletedAt = &now
		final = step
		return nil
	})
	if err != nil {
		return nil, err
	}
	return final, nil
}
