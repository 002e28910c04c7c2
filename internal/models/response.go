package models

const (
	ResponseRejectedByCustomer = "customer"
	ResponseRejectedByExecutor = "executor"
	ResponseRejectedAuto       = "auto"
)

// OrderResponse — отклик исполнителя на заказ. Активным (не Rejected)
// может быть не более одного отклика на пару (заказ, исполнитель).
type OrderResponse struct {
	BaseModel
	OrderID    string `gorm:"type:uuid;not null;index:idx_response_order_executor,unique,where:status <> 1"`
	ExecutorID string `gorm:"type:uuid;not null;index:idx_response_order_executor,unique,where:status <> 1"`

	Message string
	Price   *float64

	Status ResponseStatus `gorm:"not null;default:0;index"`

	// Кем отклонён отклик: заказчиком, самим исполнителем (отзыв отклика)
	// или автоматически при выборе другого исполнителя.
	RejectedBy string `gorm:"type:varchar(20)"`

	// Relations
	Order    Order `gorm:"foreignKey:OrderID"`
	Executor User  `gorm:"foreignKey:ExecutorID"`
}
