package services

import (
	"masterplace_backend/internal/apperrors"
	"masterplace_backend/internal/models"
	"masterplace_backend/internal/repositories"
	"masterplace_backend/internal/services/dto"
)

// ReviewService — Rating Aggregator: отзывы по завершённым заказам и
// полный пересчёт рейтингов субъекта при каждой записи.
type ReviewService interface {
	// RecordReview записывает отзыв и возвращает свежие агрегаты рейтинга.
	RecordReview(authorID string, req *dto.RecordReviewRequest) (*dto.RatingSnapshotDTO, error)

	GetReview(reviewID string) (*dto.ReviewDTO, error)
	ListBySubject(subjectID string, role models.ReviewRole) ([]*dto.ReviewDTO, error)
	DeleteReview(reviewID, actorID string) (*dto.RatingSnapshotDTO, error)

	// ReplyToExecutorReview / ReplyToCustomerReview — ответы на отзыв.
	// Вид отзыва указывается явно, по нему же резолвится сам отзыв.
	ReplyToExecutorReview(reviewID, authorID string, req *dto.ReplyToReviewRequest) error
	ReplyToCustomerReview(reviewID, authorID string, req *dto.ReplyToReviewRequest) error
	ListReplies(reviewID string) ([]models.ReviewReply, error)
}

type reviewService struct {
	reviewRepo repositories.ReviewRepository
	userRepo   repositories.UserRepository
	orderRepo  repositories.OrderRepository
}

func NewReviewService(
	reviewRepo repositories.ReviewRepository,
	userRepo repositories.UserRepository,
	orderRepo repositories.OrderRepository,
) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		userRepo:   userRepo,
		orderRepo:  orderRepo,
	}
}

func (s *reviewService) RecordReview(authorID string, req *dto.RecordReviewRequest) (*dto.RatingSnapshotDTO, error) {
	if req.SubjectID == authorID {
		return nil, apperrors.NewBadRequestError("cannot review yourself")
	}
	if _, err := s.userRepo.FindByID(req.SubjectID); err != nil {
		return nil, apperrors.ErrUserNotFound.WithError(err)
	}

	// Отзыв по заказу допустим только от его стороны и только после
	// завершения.
	if req.OrderID != nil {
		order, err := s.orderRepo.FindByID(*req.OrderID)
		if err != nil {
			return nil, translateOrderError(err)
		}
		if order.Status != models.OrderStatusCompleted {
			return nil, apperrors.ErrInvalidTransition.WithDetails(map[string]string{
				"status": order.Status.String(),
			})
		}
		isParty := order.CustomerID == authorID ||
			(order.ExecutorID != nil && *order.ExecutorID == authorID) ||
			(order.MediatorID != nil && *order.MediatorID == authorID)
		if !isParty {
			return nil, apperrors.ErrForbidden
		}
	}

	review := &models.Review{
		SubjectID: req.SubjectID,
		AuthorID:  authorID,
		OrderID:   req.OrderID,
		Role:      models.ReviewRole(req.Role),
		Rating:    req.Rating,
		Text:      req.Text,
	}

	snapshot, err := s.reviewRepo.CreateAndRecalculate(review)
	if err != nil {
		return nil, err
	}
	return &dto.RatingSnapshotDTO{
		SubjectID:      req.SubjectID,
		RatingSnapshot: *snapshot,
	}, nil
}

func (s *reviewService) GetReview(reviewID string) (*dto.ReviewDTO, error) {
	review, err := s.reviewRepo.FindByID(reviewID)
	if err != nil {
		if err == repositories.ErrReviewNotFound {
			return nil, apperrors.NotFound("review").WithError(err)
		}
		return nil, err
	}
	return dto.BuildReviewDTO(review), nil
}

func (s *reviewService) ListBySubject(subjectID string, role models.ReviewRole) ([]*dto.ReviewDTO, error) {
	reviews, err := s.reviewRepo.ListBySubject(subjectID, role)
	if err != nil {
		return nil, err
	}
	result := make([]*dto.ReviewDTO, 0, len(reviews))
	for i := range reviews {
		result = append(result, dto.BuildReviewDTO(&reviews[i]))
	}
	return result, nil
}

func (s *reviewService) DeleteReview(reviewID, actorID string) (*dto.RatingSnapshotDTO, error) {
	review, err := s.reviewRepo.FindByID(reviewID)
	if err != nil {
		if err == repositories.ErrReviewNotFound {
			return nil, apperrors.NotFound("review").WithError(err)
		}
		return nil, err
	}
	if review.AuthorID != actorID {
		return nil, apperrors.ErrForbidden
	}

	snapshot, err := s.reviewRepo.DeleteAndRecalculate(reviewID)
	if err != nil {
		return nil, err
	}
	return &dto.RatingSnapshotDTO{
		SubjectID:      review.SubjectID,
		RatingSnapshot: *snapshot,
	}, nil
}

func (s *reviewService) reply(review *models.Review, authorID, text string) error {
	// Отвечать может субъект отзыва или его автор.
	if review.SubjectID != authorID && review.AuthorID != authorID {
		return apperrors.ErrForbidden
	}
	ref := models.RefForReview(review)
	return s.reviewRepo.CreateReply(&models.ReviewReply{
		ReviewKind: ref.Kind,
		ReviewID:   ref.ID,
		AuthorID:   authorID,
		Text:       text,
	})
}

func (s *reviewService) ReplyToExecutorReview(reviewID, authorID string, req *dto.ReplyToReviewRequest) error {
	review, err := s.reviewRepo.ResolveExecutorReview(reviewID)
	if err != nil {
		if err == repositories.ErrReviewNotFound {
			return apperrors.NotFound("review").WithError(err)
		}
		return err
	}
	return s.reply(review, authorID, req.Text)
}

func (s *reviewService) ReplyToCustomerReview(reviewID, authorID string, req *dto.ReplyToReviewRequest) error {
	review, err := s.reviewRepo.ResolveCustomerReview(reviewID)
	if err != nil {
		if err == repositories.ErrReviewNotFound {
			return apperrors.NotFound("review").WithError(err)
		}
		return err
	}
	return s.reply(review, authorID, req.Text)
}

func (s *reviewService) ListReplies(reviewID string) ([]models.ReviewReply, error) {
	review, err := s.reviewRepo.FindByID(reviewID)
	if err != nil {
		if err == repositories.ErrReviewNotFound {
			return nil, apperrors.NotFound("review").WithError(err)
		}
		return nil, err
	}
	return s.reviewRepo.FindReplies(models.RefForReview(review))
}
