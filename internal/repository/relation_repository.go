package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RelationRepository подписки и наймы — простые связки (студент, репетитор)
type RelationRepository struct {
	pool *pgxpool.Pool
}

func NewRelationRepository(pool *pgxpool.Pool) *RelationRepository {
	return &RelationRepository{pool: pool}
}

// Follow создаёт подписку студента на репетитора.
// Возвращает false если подписка уже существует.
func (r *RelationRepository) Follow(ctx context.Context, studentID, tutorID int64) (bool, error) {
	query := `
		INSERT INTO follows (student_id, tutor_id)
		VALUES ($1, $2)
		ON CONFLICT (student_id, tutor_id) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query, studentID, tutorID)
	if err != nil {
		return false, fmt.Errorf("create follow: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// Unfollow удаляет подписку
func (r *RelationRepository) Unfollow(ctx context.Context, studentID, tutorID int64) error {
	query := `DELETE FROM follows WHERE student_id = $1 AND tutor_id = $2`

	result, err := r.pool.Exec(ctx, query, studentID, tutorID)
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

// GetFollowedTutors получает репетиторов, на которых подписан студент
func (r *RelationRepository) GetFollowedTutors(ctx context.Context, studentID int64) ([]*model.User, error) {
	query := `
		SELECT u.id, u.email, u.first_name, u.last_name, u.role, u.created_at
		FROM follows f
		JOIN users u ON u.id = f.tutor_id
		WHERE f.student_id = $1
		ORDER BY f.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("get followed tutors: %w", err)
	}
	defer rows.Close()

	var tutors []*model.User
	for rows.Next() {
		var u model.User
		err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan tutor: %w", err)
		}
		tutors = append(tutors, &u)
	}

	return tutors, rows.Err()
}

// GetFollowerIDs получает ID студентов, подписанных на репетитора
func (r *RelationRepository) GetFollowerIDs(ctx context.Context, tutorID int64) ([]int64, error) {
	query := `SELECT student_id FROM follows WHERE tutor_id = $1`

	rows, err := r.pool.Query(ctx, query, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get follower ids: %w", err)
	}
	defer rows.Close()

	var studentIDs []int64
	for rows.Next() {
		var studentID int64
		if err := rows.Scan(&studentID); err != nil {
			return nil, fmt.Errorf("scan student id: %w", err)
		}
		studentIDs = append(studentIDs, studentID)
	}

	return studentIDs, rows.Err()
}

// Hire создаёт запись о найме репетитора
func (r *RelationRepository) Hire(ctx context.Context, hire *model.Hire) error {
	query := `
		INSERT INTO hires (student_id, tutor_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, hire.StudentID, hire.TutorID).
		Scan(&hire.ID, &hire.CreatedAt)
	if err != nil {
		return fmt.Errorf("create hire: %w", err)
	}

	return nil
}

// GetHiresByStudent получает наймы студента вместе с данными репетиторов
func (r *RelationRepository) GetHiresByStudent(ctx context.Context, studentID int64) ([]*model.Hire, error) {
	query := `
		SELECT h.id, h.student_id, h.tutor_id, h.created_at,
		       u.email, u.first_name, u.last_name
		FROM hires h
		JOIN users u ON u.id = h.tutor_id
		WHERE h.student_id = $1
		ORDER BY h.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("get hires by student: %w", err)
	}
	defer rows.Close()

	var hires []*model.Hire
	for rows.Next() {
		var h model.Hire
		var tutor model.User
		err := rows.Scan(&h.ID, &h.StudentID, &h.TutorID, &h.CreatedAt,
			&tutor.Email, &tutor.FirstName, &tutor.LastName)
		if err != nil {
			return nil, fmt.Errorf("scan hire: %w", err)
		}
		tutor.ID = h.TutorID
		tutor.Role = model.RoleTutor
		h.Tutor = &tutor
		hires = append(hires, &h)
	}

	return hires, rows.Err()
}
