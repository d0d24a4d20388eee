package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// SessionFilter фильтры для поиска открытых сессий
type SessionFilter struct {
	Grade        *string
	SubjectQuery *string
	From         *time.Time
}

const sessionColumns = `id, tutor_id, subject, topic, grade, start_time, duration, fee, total_slots, available_slots, status, created_at, updated_at`

func scanSession(row pgx.Row) (*model.Session, error) {
	var s model.Session
	err := row.Scan(
		&s.ID,
		&s.TutorID,
		&s.Subject,
		&s.Topic,
		&s.Grade,
		&s.StartTime,
		&s.Duration,
		&s.Fee,
		&s.TotalSlots,
		&s.AvailableSlots,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create создаёт новую сессию
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO sessions (tutor_id, subject, topic, grade, start_time, duration, fee, total_slots, available_slots, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		session.TutorID,
		session.Subject,
		session.Topic,
		session.Grade,
		session.StartTime,
		session.Duration,
		session.Fee,
		session.TotalSlots,
		session.Status,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	session.AvailableSlots = session.TotalSlots
	return nil
}

// GetByID получает сессию по ID
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	session, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}

	return session, nil
}

// ListOpen получает открытые сессии в будущем с учётом фильтров
func (r *SessionRepository) ListOpen(ctx context.Context, filter SessionFilter) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE status = 'open'
		  AND available_slots > 0
		  AND start_time > $1
	`

	from := time.Now()
	if filter.From != nil {
		from = *filter.From
	}

	args := []any{from}
	if filter.Grade != nil {
		args = append(args, *filter.Grade)
		query += fmt.Sprintf(" AND grade = $%d", len(args))
	}
	if filter.SubjectQuery != nil {
		args = append(args, "%"+*filter.SubjectQuery+"%")
		query += fmt.Sprintf(" AND subject ILIKE $%d", len(args))
	}
	query += " ORDER BY start_time"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list open sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// ListByTutor получает все сессии репетитора с количеством активных записей
func (r *SessionRepository) ListByTutor(ctx context.Context, tutorID int64) ([]*model.Session, error) {
	query := `
		SELECT s.id, s.tutor_id, s.subject, s.topic, s.grade, s.start_time, s.duration, s.fee,
		       s.total_slots, s.available_slots, s.status, s.created_at, s.updated_at,
		       COUNT(b.id) FILTER (WHERE b.status = 'pending')
		FROM sessions s
		LEFT JOIN bookings b ON b.session_id = s.id
		WHERE s.tutor_id = $1
		GROUP BY s.id
		ORDER BY s.start_time
	`

	rows, err := r.pool.Query(ctx, query, tutorID)
	if err != nil {
		return nil, fmt.Errorf("list sessions by tutor: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		var s model.Session
		err := rows.Scan(
			&s.ID,
			&s.TutorID,
			&s.Subject,
			&s.Topic,
			&s.Grade,
			&s.StartTime,
			&s.Duration,
			&s.Fee,
			&s.TotalSlots,
			&s.AvailableSlots,
			&s.Status,
			&s.CreatedAt,
			&s.UpdatedAt,
			&s.BookedCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, &s)
	}

	return sessions, rows.Err()
}

// Update обновляет редактируемые поля сессии.
// Счётчик мест корректируется на ту же дельту, что и вместимость,
// под блокировкой строки, чтобы не разойтись с параллельными записями.
func (r *SessionRepository) Update(ctx context.Context, session *model.Session) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var total, available int
	err = tx.QueryRow(ctx,
		`SELECT total_slots, available_slots FROM sessions WHERE id = $1 FOR UPDATE`,
		session.ID,
	).Scan(&total, &available)
	if err != nil {
		if base.IsNotFound(err) {
			return model.ErrSessionNotFound
		}
		return fmt.Errorf("lock session: %w", err)
	}

	booked := total - available
	if session.TotalSlots < booked {
		return fmt.Errorf("%w: total slots below active bookings", model.ErrValidation)
	}

	query := `
		UPDATE sessions
		SET subject = $2, topic = $3, grade = $4, start_time = $5, duration = $6, fee = $7,
		    total_slots = $8, available_slots = $8 - $9,
		    status = CASE WHEN $8 - $9 = 0 THEN 'closed' ELSE status END,
		    updated_at = now()
		WHERE id = $1
	`

	_, err = tx.Exec(ctx, query,
		session.ID,
		session.Subject,
		session.Topic,
		session.Grade,
		session.StartTime,
		session.Duration,
		session.Fee,
		session.TotalSlots,
		booked,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// CloseStarted закрывает открытые сессии, время начала которых уже прошло.
// Возвращает количество закрытых сессий.
func (r *SessionRepository) CloseStarted(ctx context.Context) (int64, error) {
	query := `
		UPDATE sessions
		SET status = 'closed', updated_at = now()
		WHERE status = 'open' AND start_time <= now()
	`

	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("close started sessions: %w", err)
	}

	return result.RowsAffected(), nil
}

// UpdateStatus выставляет статус сессии (закрытие/открытие репетитором)
func (r *SessionRepository) UpdateStatus(ctx context.Context, id int64, status model.SessionStatus) error {
	query := `UPDATE sessions SET status = $1, updated_at = now() WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrSessionNotFound
	}

	return nil
}

// Delete удаляет сессию вместе со всеми её записями в одной транзакции.
// Возвращает ID студентов, чьи pending-записи были удалены.
func (r *SessionRepository) Delete(ctx context.Context, id int64) ([]int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`DELETE FROM bookings WHERE session_id = $1 AND status = 'pending' RETURNING student_id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("delete session bookings: %w", err)
	}

	var studentIDs []int64
	for rows.Next() {
		var studentID int64
		if err := rows.Scan(&studentID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan student id: %w", err)
		}
		studentIDs = append(studentIDs, studentID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("delete session bookings: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return nil, model.ErrSessionNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return studentIDs, nil
}
