package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PendingUniqueConstraint имя частичного уникального индекса на pending-записи.
// Индекс — то, что реально закрывает гонку двойной записи одного студента.
const PendingUniqueConstraint = "bookings_pending_per_student_uniq"

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// lockSession читает строку сессии под блокировкой FOR UPDATE.
// Все изменения available_slots идут только через эту блокировку,
// поэтому счётчик одной сессии меняется строго последовательно.
func lockSession(ctx context.Context, tx pgx.Tx, sessionID int64) (*model.Session, error) {
	var s model.Session
	err := tx.QueryRow(ctx,
		`SELECT id, tutor_id, total_slots, available_slots, status
		 FROM sessions WHERE id = $1 FOR UPDATE`,
		sessionID,
	).Scan(&s.ID, &s.TutorID, &s.TotalSlots, &s.AvailableSlots, &s.Status)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrSessionNotFound
		}
		return nil, fmt.Errorf("lock session: %w", err)
	}
	return &s, nil
}

// Book создаёт pending-запись и занимает одно место сессии в одной транзакции.
// Возвращает ErrSessionNotFound, ErrSessionFull, ErrSessionClosed или
// ErrAlreadyBooked; успешный вызов уменьшает available_slots ровно на единицу.
func (r *BookingRepository) Book(ctx context.Context, studentID, sessionID int64) (*model.Booking, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	session, err := lockSession(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}

	slots, status, err := model.ApplyCapacityEvent(
		session.TotalSlots, session.AvailableSlots, session.Status, model.CapacityEventBook)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE sessions SET available_slots = $2, status = $3, updated_at = now() WHERE id = $1`,
		sessionID, slots, status,
	)
	if err != nil {
		return nil, fmt.Errorf("update session slots: %w", err)
	}

	booking := &model.Booking{
		SessionID: sessionID,
		TutorID:   session.TutorID,
		StudentID: studentID,
		Status:    model.BookingStatusPending,
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO bookings (session_id, tutor_id, student_id, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		booking.SessionID, booking.TutorID, booking.StudentID, booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		if base.IsUniqueViolation(err, PendingUniqueConstraint) {
			return nil, model.ErrAlreadyBooked
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return booking, nil
}

// Cancel удаляет pending-запись и возвращает место сессии в одной транзакции.
// Повторная отмена уже удалённой записи — ErrBookingNotFound, не no-op.
func (r *BookingRepository) Cancel(ctx context.Context, bookingID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Сессию блокируем раньше удаления записи: тот же порядок, что в Book
	var sessionID int64
	err = tx.QueryRow(ctx,
		`SELECT session_id FROM bookings WHERE id = $1 AND status = 'pending'`,
		bookingID,
	).Scan(&sessionID)
	if err != nil {
		if base.IsNotFound(err) {
			return model.ErrBookingNotFound
		}
		return fmt.Errorf("get booking session: %w", err)
	}

	session, err := lockSession(ctx, tx, sessionID)
	if err != nil {
		return err
	}

	result, err := tx.Exec(ctx,
		`DELETE FROM bookings WHERE id = $1 AND status = 'pending'`,
		bookingID,
	)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrBookingNotFound
	}

	slots, status, err := model.ApplyCapacityEvent(
		session.TotalSlots, session.AvailableSlots, session.Status, model.CapacityEventCancel)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE sessions SET available_slots = $2, status = $3, updated_at = now() WHERE id = $1`,
		sessionID, slots, status,
	)
	if err != nil {
		return fmt.Errorf("update session slots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID получает запись по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `
		SELECT id, session_id, tutor_id, student_id, status, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	var booking model.Booking
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.SessionID,
		&booking.TutorID,
		&booking.StudentID,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return &booking, nil
}

// GetByStudentID получает все записи студента вместе с данными сессий
func (r *BookingRepository) GetByStudentID(ctx context.Context, studentID int64) ([]*model.Booking, error) {
	query := `
		SELECT b.id, b.session_id, b.tutor_id, b.student_id, b.status, b.created_at, b.updated_at,
		       s.subject, s.topic, s.grade, s.start_time, s.duration, s.fee
		FROM bookings b
		JOIN sessions s ON s.id = b.session_id
		WHERE b.student_id = $1
		ORDER BY b.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("get bookings by student: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		var booking model.Booking
		var session model.Session
		err := rows.Scan(
			&booking.ID,
			&booking.SessionID,
			&booking.TutorID,
			&booking.StudentID,
			&booking.Status,
			&booking.CreatedAt,
			&booking.UpdatedAt,
			&session.Subject,
			&session.Topic,
			&session.Grade,
			&session.StartTime,
			&session.Duration,
			&session.Fee,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		session.ID = booking.SessionID
		session.TutorID = booking.TutorID
		booking.Session = &session
		bookings = append(bookings, &booking)
	}

	return bookings, rows.Err()
}

// GetBySessionID получает все записи сессии
func (r *BookingRepository) GetBySessionID(ctx context.Context, sessionID int64) ([]*model.Booking, error) {
	query := `
		SELECT id, session_id, tutor_id, student_id, status, created_at, updated_at
		FROM bookings
		WHERE session_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get bookings by session: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		var booking model.Booking
		err := rows.Scan(
			&booking.ID,
			&booking.SessionID,
			&booking.TutorID,
			&booking.StudentID,
			&booking.Status,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, &booking)
	}

	return bookings, rows.Err()
}

// CompleteBySession переводит все pending-записи сессии в completed.
// Счётчик мест не трогает: завершение занятия — не освобождение места.
func (r *BookingRepository) CompleteBySession(ctx context.Context, sessionID int64) (int64, error) {
	query := `
		UPDATE bookings
		SET status = 'completed', updated_at = now()
		WHERE session_id = $1 AND status = 'pending'
	`

	result, err := r.pool.Exec(ctx, query, sessionID)
	if err != nil {
		return 0, fmt.Errorf("complete bookings: %w", err)
	}

	return result.RowsAffected(), nil
}

// HasCompleted проверяет было ли у студента завершённое занятие с репетитором
func (r *BookingRepository) HasCompleted(ctx context.Context, studentID, tutorID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE student_id = $1 AND tutor_id = $2 AND status = 'completed'
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, studentID, tutorID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check completed booking: %w", err)
	}

	return exists, nil
}
