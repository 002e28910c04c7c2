package models

type Review struct {
	BaseModel
	SubjectID string  `gorm:"type:uuid;not null;index"`
	AuthorID  string  `gorm:"type:uuid;not null;index"`
	OrderID   *string `gorm:"type:uuid;index"`

	// Роль, в которой оценивается subject: как исполнитель или как заказчик.
	Role   ReviewRole `gorm:"type:varchar(20);not null;index"`
	Rating int        `gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Text   string

	// Relations
	Subject User `gorm:"foreignKey:SubjectID"`
	Author  User `gorm:"foreignKey:AuthorID"`
}

const (
	ReviewKindExecutor = "executor_review"
	ReviewKindCustomer = "customer_review"
)

// ReviewReply — один ответ на отзыв. Одна таблица обслуживает оба вида
// отзывов через явный дискриминатор ReviewKind; вид разрешается
// функциями-резолверами, а не диспетчеризацией по имени типа.
type ReviewReply struct {
	BaseModel
	ReviewKind string `gorm:"type:varchar(30);not null;index:idx_reply_review"`
	ReviewID   string `gorm:"type:uuid;not null;index:idx_reply_review"`
	AuthorID   string `gorm:"type:uuid;not null"`
	Text       string `gorm:"not null"`
}

// ReviewRef — тегированная ссылка на отзыв конкретного вида.
type ReviewRef struct {
	Kind string
	ID   string
}

func ExecutorReviewRef(id string) ReviewRef {
	return ReviewRef{Kind: ReviewKindExecutor, ID: id}
}

func CustomerReviewRef(id string) ReviewRef {
	return ReviewRef{Kind: ReviewKindCustomer, ID: id}
}

// RefForReview builds the tagged reference matching the review's role.
func RefForReview(r *Review) ReviewRef {
	if r.Role == ReviewRoleCustomer {
		return CustomerReviewRef(r.ID)
	}
	return ExecutorReviewRef(r.ID)
}
