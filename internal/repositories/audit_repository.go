package repositories

import (
	"encoding/json"

	"masterplace_backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditRepository interface {
	// Append пишет одну неизменяемую запись журнала.
	Append(entry *models.AuditEntry) error
	AppendAction(orderID, stepID, actorID, action string, details map[string]interface{}) error
	ListByOrder(orderID string) ([]models.AuditEntry, error)
	ListByStep(stepID string) ([]models.AuditEntry, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(entry *models.AuditEntry) error {
	return r.db.Create(entry).Error
}

func (r *auditRepository) AppendAction(orderID, stepID, actorID, action string, details map[string]interface{}) error {
	entry := &models.AuditEntry{
		Action: action,
	}
	if orderID != "" {
		entry.OrderID = &orderID
	}
	if stepID != "" {
		entry.StepID = &stepID
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return err
		}
		entry.Details = datatypes.JSON(raw)
	}
	return r.db.Create(entry).Error
}

func (r *auditRepository) ListByOrder(orderID string) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := r.db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&entries).Error
	return entries, err
}

func (r *auditRepository) ListByStep(stepID string) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := r.db.Where("step_id = ?", stepID).Order("created_at ASC").Find(&entries).Error
	return entries, err
}
