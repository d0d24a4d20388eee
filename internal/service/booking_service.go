package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/notify"
	"go.uber.org/zap"
)

// BookingService управляет жизненным циклом записей.
// Единственная точка, через которую меняется счётчик мест сессии.
type BookingService struct {
	sessionStore SessionStore
	bookingStore BookingStore
	notifier     notify.Notifier
	logger       *zap.Logger
}

func NewBookingService(
	sessionStore SessionStore,
	bookingStore BookingStore,
	notifier notify.Notifier,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		sessionStore: sessionStore,
		bookingStore: bookingStore,
		notifier:     notifier,
		logger:       logger,
	}
}

// BookSession записывает студента на сессию.
// Вставка записи и декремент мест атомарны на уровне хранилища;
// проигравший гонку за последнее место получает ErrSessionFull.
func (s *BookingService) BookSession(ctx context.Context, actorID int64, role model.Role, sessionID int64) (*model.Booking, error) {
	if role != model.RoleStudent {
		return nil, fmt.Errorf("%w: only students can book sessions", model.ErrForbidden)
	}

	session, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, model.ErrSessionNotFound
	}

	if session.StartTime.Before(time.Now()) {
		return nil, fmt.Errorf("%w: session already started", model.ErrValidation)
	}

	booking, err := s.bookingStore.Book(ctx, actorID, sessionID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Session booked",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("session_id", sessionID),
		zap.Int64("student_id", actorID),
	)

	go s.notifier.NotifyUser(context.Background(), booking.TutorID,
		fmt.Sprintf("New booking for your %s session", session.Subject))

	booking.Session = session
	return booking, nil
}

// CancelBooking отменяет pending-запись и возвращает место сессии.
// Студент отменяет свою запись, репетитор — любую запись своей сессии.
func (s *BookingService) CancelBooking(ctx context.Context, actorID int64, role model.Role, bookingID int64) error {
	booking, err := s.bookingStore.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return model.ErrBookingNotFound
	}

	if booking.StudentID != actorID && booking.TutorID != actorID {
		return fmt.Errorf("%w: no permission to cancel this booking", model.ErrForbidden)
	}

	if err := s.bookingStore.Cancel(ctx, bookingID); err != nil {
		return err
	}

	s.logger.Info("Booking canceled",
		zap.Int64("booking_id", bookingID),
		zap.Int64("session_id", booking.SessionID),
		zap.Int64("actor_id", actorID),
	)

	// Уведомляем вторую сторону
	recipient := booking.TutorID
	if actorID == booking.TutorID {
		recipient = booking.StudentID
	}
	go s.notifier.NotifyUser(context.Background(), recipient, "A booking was canceled")

	return nil
}

// MarkSessionCompleted массово переводит pending-записи сессии в completed.
// Это не событие вместимости: available_slots не меняется.
func (s *BookingService) MarkSessionCompleted(ctx context.Context, actorID int64, role model.Role, sessionID int64) (int64, error) {
	session, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return 0, model.ErrSessionNotFound
	}

	if role != model.RoleTutor || session.TutorID != actorID {
		return 0, fmt.Errorf("%w: only the owning tutor can complete a session", model.ErrForbidden)
	}

	count, err := s.bookingStore.CompleteBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Session completed",
		zap.Int64("session_id", sessionID),
		zap.Int64("tutor_id", actorID),
		zap.Int64("bookings_completed", count),
	)

	return count, nil
}

// GetStudentBookings получает все записи студента
func (s *BookingService) GetStudentBookings(ctx context.Context, studentID int64) ([]*model.Booking, error) {
	return s.bookingStore.GetByStudentID(ctx, studentID)
}

// GetSessionBookings получает записи сессии для её владельца
func (s *BookingService) GetSessionBookings(ctx context.Context, actorID int64, sessionID int64) ([]*model.Booking, error) {
	session, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, model.ErrSessionNotFound
	}
	if session.TutorID != actorID {
		return nil, fmt.Errorf("%w: not your session", model.ErrForbidden)
	}

	return s.bookingStore.GetBySessionID(ctx, sessionID)
}
