package repositories

import (
	"errors"

	"masterplace_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrReviewNotFound = errors.New("review not found")
	ErrReplyNotFound  = errors.New("review reply not found")
)

// RatingSnapshot — агрегаты рейтинга пользователя после пересчёта.
type RatingSnapshot struct {
	ExecutorRating       *float64 `json:"executor_rating"`
	ExecutorReviewsCount int      `json:"executor_reviews_count"`
	CustomerRating       *float64 `json:"customer_rating"`
	CustomerReviewsCount int      `json:"customer_reviews_count"`
	OverallRating        *float64 `json:"overall_rating"`
}

type ReviewRepository interface {
	// CreateAndRecalculate вставляет отзыв и в той же транзакции целиком
	// пересчитывает рейтинги субъекта, чтобы не было окна с устаревшим
	// рейтингом и дрейфа от правок/удалений.
	CreateAndRecalculate(review *models.Review) (*RatingSnapshot, error)

	FindByID(id string) (*models.Review, error)
	ListBySubject(subjectID string, role models.ReviewRole) ([]models.Review, error)
	DeleteAndRecalculate(id string) (*RatingSnapshot, error)

	// Replies: одна таблица на оба вида отзывов, вид разрешается явно.
	CreateReply(reply *models.ReviewReply) error
	FindReplies(ref models.ReviewRef) ([]models.ReviewReply, error)
	ResolveExecutorReview(id string) (*models.Review, error)
	ResolveCustomerReview(id string) (*models.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// recalcRatings пересчитывает рейтинги субъекта с полного набора отзывов
// и пишет их на пользователя. Вызывается внутри транзакции записи отзыва.
func recalcRatings(tx *gorm.DB, subjectID string) (*RatingSnapshot, error) {
	type roleAgg struct {
		Avg   float64
		Count int
	}

	aggFor := func(role models.ReviewRole) (*roleAgg, error) {
		var row struct {
			Avg   *float64
			Count int64
		}
		err := tx.Model(&models.Review{}).
			Select("AVG(rating) AS avg, COUNT(*) AS count").
			Where("subject_id = ? AND role = ?", subjectID, role).
			Scan(&row).Error
		if err != nil {
			return nil, err
		}
		if row.Count == 0 || row.Avg == nil {
			return &roleAgg{}, nil
		}
		return &roleAgg{Avg: *row.Avg, Count: int(row.Count)}, nil
	}

	execAgg, err := aggFor(models.ReviewRoleExecutor)
	if err != nil {
		return nil, err
	}
	custAgg, err := aggFor(models.ReviewRoleCustomer)
	if err != nil {
		return nil, err
	}

	snapshot := &RatingSnapshot{
		ExecutorReviewsCount: execAgg.Count,
		CustomerReviewsCount: custAgg.Count,
	}
	if execAgg.Count > 0 {
		v := execAgg.Avg
		snapshot.ExecutorRating = &v
	}
	if custAgg.Count > 0 {
		v := custAgg.Avg
		snapshot.CustomerRating = &v
	}

	// Общий рейтинг — средневзвешенное по количеству отзывов в каждой роли.
	totalCount := execAgg.Count + custAgg.Count
	if totalCount > 0 {
		overall := (execAgg.Avg*float64(execAgg.Count) + custAgg.Avg*float64(custAgg.Count)) /
			float64(totalCount)
		snapshot.OverallRating = &overall
	}

	err = tx.Model(&models.User{}).Where("id = ?", subjectID).Updates(map[string]interface{}{
		"executor_rating":        snapshot.ExecutorRating,
		"executor_reviews_count": snapshot.ExecutorReviewsCount,
		"customer_rating":        snapshot.CustomerRating,
		"customer_reviews_count": snapshot.CustomerReviewsCount,
		"overall_rating":         snapshot.OverallRating,
	}).Error
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (r *reviewRepository) CreateAndRecalculate(review *models.Review) (*RatingSnapshot, error) {
	var snapshot *RatingSnapshot

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return err
		}
		var err error
		snapshot, err = recalcRatings(tx, review.SubjectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (r *reviewRepository) FindByID(id string) (*models.Review, error) {
	var review models.Review
	err := r.db.First(&review, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ListBySubject(subjectID string, role models.ReviewRole) ([]models.Review, error) {
	var reviews []models.Review
	q := r.db.Where("subject_id = ?", subjectID)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	err := q.Order("created_at DESC").Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepository) DeleteAndRecalculate(id string) (*RatingSnapshot, error) {
	var snapshot *RatingSnapshot

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.First(&review, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return err
		}
		if err := tx.Delete(&models.Review{}, "id = ?", id).Error; err != nil {
			return err
		}
		var err error
		snapshot, err = recalcRatings(tx, review.SubjectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (r *reviewRepository) CreateReply(reply *models.ReviewReply) error {
	return r.db.Create(reply).Error
}

func (r *reviewRepository) FindReplies(ref models.ReviewRef) ([]models.ReviewReply, error) {
	var replies []models.ReviewReply
	err := r.db.Where("review_kind = ? AND review_id = ?", ref.Kind, ref.ID).
		Order("created_at ASC").Find(&replies).Error
	return replies, err
}

func (r *reviewRepository) resolveReview(id string, role models.ReviewRole) (*models.Review, error) {
	var review models.Review
	err := r.db.Where("id = ? AND role = ?", id, role).First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ResolveExecutorReview(id string) (*models.Review, error) {
	return r.resolveReview(id, models.ReviewRoleExecutor)
}

func (r *reviewRepository) ResolveCustomerReview(id string) (*models.Review, error) {
	return r.resolveReview(id, models.ReviewRoleCustomer)
}
