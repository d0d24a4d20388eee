package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/notify"
	"github.com/Freeeeeet/tutor_market/internal/repository"
	"go.uber.org/zap"
)

const defaultSessionDuration = 60 // минут

// SessionService каталог сессий: CRUD для владельца и поиск для студентов
type SessionService struct {
	sessionStore  SessionStore
	relationStore RelationStore
	notifier      notify.Notifier
	logger        *zap.Logger
}

func NewSessionService(
	sessionStore SessionStore,
	relationStore RelationStore,
	notifier notify.Notifier,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessionStore:  sessionStore,
		relationStore: relationStore,
		notifier:      notifier,
		logger:        logger,
	}
}

// SessionInput входные данные создания/редактирования сессии
type SessionInput struct {
	Subject    string
	Topic      *string
	Grade      *string
	StartTime  time.Time
	Duration   int
	Fee        int64
	TotalSlots int
}

func (in *SessionInput) validate() error {
	if strings.TrimSpace(in.Subject) == "" {
		return fmt.Errorf("%w: subject is required", model.ErrValidation)
	}
	if in.StartTime.Before(time.Now()) {
		return fmt.Errorf("%w: start time must be in the future", model.ErrValidation)
	}
	if in.Duration == 0 {
		in.Duration = defaultSessionDuration
	}
	if in.Duration < 0 {
		return fmt.Errorf("%w: duration must be positive", model.ErrValidation)
	}
	if in.Fee < 0 {
		return fmt.Errorf("%w: fee must be non-negative", model.ErrValidation)
	}
	if in.TotalSlots < 1 {
		return fmt.Errorf("%w: total slots must be at least 1", model.ErrValidation)
	}
	return nil
}

// CreateSession публикует новую сессию репетитора
func (s *SessionService) CreateSession(ctx context.Context, actorID int64, role model.Role, in SessionInput) (*model.Session, error) {
	if role != model.RoleTutor {
		return nil, fmt.Errorf("%w: only tutors can publish sessions", model.ErrForbidden)
	}

	if err := in.validate(); err != nil {
		return nil, err
	}

	session := &model.Session{
		TutorID:    actorID,
		Subject:    strings.TrimSpace(in.Subject),
		Topic:      in.Topic,
		Grade:      in.Grade,
		StartTime:  in.StartTime,
		Duration:   in.Duration,
		Fee:        in.Fee,
		TotalSlots: in.TotalSlots,
		Status:     model.SessionStatusOpen,
	}

	if err := s.sessionStore.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Session created",
		zap.Int64("session_id", session.ID),
		zap.Int64("tutor_id", actorID),
		zap.String("subject", session.Subject),
		zap.Int("total_slots", session.TotalSlots),
	)

	// Подписчики репетитора узнают о новой сессии
	go s.notifyFollowers(context.Background(), actorID, session.Subject)

	return session, nil
}

func (s *SessionService) notifyFollowers(ctx context.Context, tutorID int64, subject string) {
	followerIDs, err := s.relationStore.GetFollowerIDs(ctx, tutorID)
	if err != nil {
		s.logger.Warn("Failed to get followers for notification",
			zap.Int64("tutor_id", tutorID),
			zap.Error(err))
		return
	}

	for _, studentID := range followerIDs {
		s.notifier.NotifyUser(ctx, studentID,
			fmt.Sprintf("A tutor you follow published a new %s session", subject))
	}
}

// GetSession получает сессию по ID
func (s *SessionService) GetSession(ctx context.Context, sessionID int64) (*model.Session, error) {
	session, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, model.ErrSessionNotFound
	}
	return session, nil
}

// ListOpenSessions поиск открытых будущих сессий со свободными местами
func (s *SessionService) ListOpenSessions(ctx context.Context, filter repository.SessionFilter) ([]*model.Session, error) {
	return s.sessionStore.ListOpen(ctx, filter)
}

// ListTutorSessions сессии репетитора с количеством активных записей
func (s *SessionService) ListTutorSessions(ctx context.Context, tutorID int64) ([]*model.Session, error) {
	return s.sessionStore.ListByTutor(ctx, tutorID)
}

// getOwned достаёт сессию и проверяет что actor — её владелец
func (s *SessionService) getOwned(ctx context.Context, actorID, sessionID int64) (*model.Session, error) {
	session, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, model.ErrSessionNotFound
	}
	if session.TutorID != actorID {
		return nil, fmt.Errorf("%w: not your session", model.ErrForbidden)
	}
	return session, nil
}

// UpdateSession редактирует сессию владельца.
// Уменьшить вместимость ниже числа активных записей нельзя.
func (s *SessionService) UpdateSession(ctx context.Context, actorID int64, sessionID int64, in SessionInput) (*model.Session, error) {
	session, err := s.getOwned(ctx, actorID, sessionID)
	if err != nil {
		return nil, err
	}

	if err := in.validate(); err != nil {
		return nil, err
	}

	session.Subject = strings.TrimSpace(in.Subject)
	session.Topic = in.Topic
	session.Grade = in.Grade
	session.StartTime = in.StartTime
	session.Duration = in.Duration
	session.Fee = in.Fee
	session.TotalSlots = in.TotalSlots

	if err := s.sessionStore.Update(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Session updated",
		zap.Int64("session_id", sessionID),
		zap.Int64("tutor_id", actorID),
	)

	return s.GetSession(ctx, sessionID)
}

// CloseSession закрывает сессию для новых записей (решение репетитора)
func (s *SessionService) CloseSession(ctx context.Context, actorID int64, sessionID int64) error {
	if _, err := s.getOwned(ctx, actorID, sessionID); err != nil {
		return err
	}

	if err := s.sessionStore.UpdateStatus(ctx, sessionID, model.SessionStatusClosed); err != nil {
		return err
	}

	s.logger.Info("Session closed",
		zap.Int64("session_id", sessionID),
		zap.Int64("tutor_id", actorID))
	return nil
}

// ReopenSession снова открывает сессию, если остались свободные места
func (s *SessionService) ReopenSession(ctx context.Context, actorID int64, sessionID int64) error {
	session, err := s.getOwned(ctx, actorID, sessionID)
	if err != nil {
		return err
	}

	if session.AvailableSlots == 0 {
		return fmt.Errorf("%w: no free slots left", model.ErrSessionFull)
	}

	if err := s.sessionStore.UpdateStatus(ctx, sessionID, model.SessionStatusOpen); err != nil {
		return err
	}

	s.logger.Info("Session reopened",
		zap.Int64("session_id", sessionID),
		zap.Int64("tutor_id", actorID))
	return nil
}

// CloseStartedSessions закрывает сессии, чьё время начала уже наступило.
// Вызывается фоновым планировщиком, чтобы начавшиеся сессии не висели в поиске.
func (s *SessionService) CloseStartedSessions(ctx context.Context) (int64, error) {
	count, err := s.sessionStore.CloseStarted(ctx)
	if err != nil {
		return 0, fmt.Errorf("close started sessions: %w", err)
	}

	if count > 0 {
		s.logger.Info("Closed started sessions", zap.Int64("count", count))
	}
	return count, nil
}

// DeleteSession удаляет сессию вместе со всеми записями (одной транзакцией)
// и уведомляет затронутых студентов
func (s *SessionService) DeleteSession(ctx context.Context, actorID int64, sessionID int64) error {
	session, err := s.getOwned(ctx, actorID, sessionID)
	if err != nil {
		return err
	}

	studentIDs, err := s.sessionStore.Delete(ctx, sessionID)
	if err != nil {
		return err
	}

	s.logger.Info("Session deleted",
		zap.Int64("session_id", sessionID),
		zap.Int64("tutor_id", actorID),
		zap.Int("bookings_removed", len(studentIDs)),
	)

	go func() {
		for _, studentID := range studentIDs {
			s.notifier.NotifyUser(context.Background(), studentID,
				fmt.Sprintf("Your %s session was canceled by the tutor", session.Subject))
		}
	}()

	return nil
}
