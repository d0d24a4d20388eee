package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"go.uber.org/zap"
)

// SocialService подписки, наймы и отзывы — связи студент/репетитор
// без семантики вместимости
type SocialService struct {
	userStore     UserStore
	relationStore RelationStore
	reviewStore   ReviewStore
	bookingStore  BookingStore
	logger        *zap.Logger
}

func NewSocialService(
	userStore UserStore,
	relationStore RelationStore,
	reviewStore ReviewStore,
	bookingStore BookingStore,
	logger *zap.Logger,
) *SocialService {
	return &SocialService{
		userStore:     userStore,
		relationStore: relationStore,
		reviewStore:   reviewStore,
		bookingStore:  bookingStore,
		logger:        logger,
	}
}

// getTutor проверяет что пользователь существует и является репетитором
func (s *SocialService) getTutor(ctx context.Context, tutorID int64) (*model.User, error) {
	tutor, err := s.userStore.GetByID(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get tutor: %w", err)
	}
	if tutor == nil || !tutor.IsTutor() {
		return nil, model.ErrUserNotFound
	}
	return tutor, nil
}

// FollowTutor подписывает студента на репетитора
func (s *SocialService) FollowTutor(ctx context.Context, actorID int64, role model.Role, tutorID int64) error {
	if role != model.RoleStudent {
		return fmt.Errorf("%w: only students can follow tutors", model.ErrForbidden)
	}

	if _, err := s.getTutor(ctx, tutorID); err != nil {
		return err
	}

	created, err := s.relationStore.Follow(ctx, actorID, tutorID)
	if err != nil {
		return err
	}

	if created {
		s.logger.Info("Tutor followed",
			zap.Int64("student_id", actorID),
			zap.Int64("tutor_id", tutorID))
	}
	return nil
}

// UnfollowTutor отписывает студента от репетитора
func (s *SocialService) UnfollowTutor(ctx context.Context, actorID int64, tutorID int64) error {
	return s.relationStore.Unfollow(ctx, actorID, tutorID)
}

// ListFollowedTutors репетиторы, на которых подписан студент
func (s *SocialService) ListFollowedTutors(ctx context.Context, studentID int64) ([]*model.User, error) {
	return s.relationStore.GetFollowedTutors(ctx, studentID)
}

// HireTutor создаёт запись о найме репетитора
func (s *SocialService) HireTutor(ctx context.Context, actorID int64, role model.Role, tutorID int64) (*model.Hire, error) {
	if role != model.RoleStudent {
		return nil, fmt.Errorf("%w: only students can hire tutors", model.ErrForbidden)
	}

	tutor, err := s.getTutor(ctx, tutorID)
	if err != nil {
		return nil, err
	}

	hire := &model.Hire{
		StudentID: actorID,
		TutorID:   tutorID,
	}
	if err := s.relationStore.Hire(ctx, hire); err != nil {
		return nil, err
	}

	s.logger.Info("Tutor hired",
		zap.Int64("hire_id", hire.ID),
		zap.Int64("student_id", actorID),
		zap.Int64("tutor_id", tutorID))

	hire.Tutor = tutor
	return hire, nil
}

// ListHires наймы студента
func (s *SocialService) ListHires(ctx context.Context, studentID int64) ([]*model.Hire, error) {
	return s.relationStore.GetHiresByStudent(ctx, studentID)
}

// AddReview оставляет отзыв на репетитора.
// Разрешено только после завершённого занятия с этим репетитором.
func (s *SocialService) AddReview(ctx context.Context, actorID int64, role model.Role, tutorID int64, rating int, comment string) (*model.Review, error) {
	if role != model.RoleStudent {
		return nil, fmt.Errorf("%w: only students can leave reviews", model.ErrForbidden)
	}
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", model.ErrValidation)
	}

	if _, err := s.getTutor(ctx, tutorID); err != nil {
		return nil, err
	}

	completed, err := s.bookingStore.HasCompleted(ctx, actorID, tutorID)
	if err != nil {
		return nil, err
	}
	if !completed {
		return nil, fmt.Errorf("%w: review requires a completed session with this tutor", model.ErrForbidden)
	}

	review := &model.Review{
		StudentID: actorID,
		TutorID:   tutorID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.reviewStore.Create(ctx, review); err != nil {
		return nil, err
	}

	s.logger.Info("Review added",
		zap.Int64("review_id", review.ID),
		zap.Int64("student_id", actorID),
		zap.Int64("tutor_id", tutorID),
		zap.Int("rating", rating))

	return review, nil
}

// TutorReviews отзывы и средняя оценка репетитора
func (s *SocialService) TutorReviews(ctx context.Context, tutorID int64) ([]*model.Review, float64, error) {
	reviews, err := s.reviewStore.GetByTutorID(ctx, tutorID)
	if err != nil {
		return nil, 0, err
	}

	avg, err := s.reviewStore.AverageRating(ctx, tutorID)
	if err != nil {
		return nil, 0, err
	}

	return reviews, avg, nil
}
