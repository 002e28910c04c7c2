package dto

import (
	"time"

	"masterplace_backend/internal/models"
	"masterplace_backend/internal/repositories"
)

type RecordReviewRequest struct {
	SubjectID string  `json:"subject_id" binding:"required,uuid"`
	OrderID   *string `json:"order_id,omitempty"`
	Role      string  `json:"role" binding:"required,is-review-role"`
	Rating    int     `json:"rating" binding:"required,min=1,max=5"`
	Text      string  `json:"text"`
}

type ReplyToReviewRequest struct {
	Text string `json:"text" binding:"required"`
}

type ReviewDTO struct {
	ID        string            `json:"id"`
	SubjectID string            `json:"subject_id"`
	AuthorID  string            `json:"author_id"`
	OrderID   *string           `json:"order_id,omitempty"`
	Role      models.ReviewRole `json:"role"`
	Rating    int               `json:"rating"`
	Text      string            `json:"text,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type RatingSnapshotDTO struct {
	SubjectID string `json:"subject_id"`
	repositories.RatingSnapshot
}

func BuildReviewDTO(review *models.Review) *ReviewDTO {
	return &ReviewDTO{
		ID:        review.ID,
		SubjectID: review.SubjectID,
		AuthorID:  review.AuthorID,
		OrderID:   review.OrderID,
		Role:      review.Role,
		Rating:    review.Rating,
		Text:      review.Text,
		CreatedAt: review.CreatedAt,
	}
}
