package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewRepository struct {
	pool *pgxpool.Pool
}

func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create создаёт отзыв на репетитора
func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (student_id, tutor_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		review.StudentID,
		review.TutorID,
		review.Rating,
		review.Comment,
	).Scan(&review.ID, &review.CreatedAt)

	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}

	return nil
}

// GetByTutorID получает отзывы на репетитора
func (r *ReviewRepository) GetByTutorID(ctx context.Context, tutorID int64) ([]*model.Review, error) {
	query := `
		SELECT r.id, r.student_id, r.tutor_id, r.rating, r.comment, r.created_at,
		       u.first_name, u.last_name
		FROM reviews r
		JOIN users u ON u.id = r.student_id
		WHERE r.tutor_id = $1
		ORDER BY r.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get reviews by tutor: %w", err)
	}
	defer rows.Close()

	var reviews []*model.Review
	for rows.Next() {
		var review model.Review
		var student model.User
		err := rows.Scan(&review.ID, &review.StudentID, &review.TutorID,
			&review.Rating, &review.Comment, &review.CreatedAt,
			&student.FirstName, &student.LastName)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		student.ID = review.StudentID
		review.Student = &student
		reviews = append(reviews, &review)
	}

	return reviews, rows.Err()
}

// AverageRating средняя оценка репетитора (0 если отзывов нет)
func (r *ReviewRepository) AverageRating(ctx context.Context, tutorID int64) (float64, error) {
	query := `SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE tutor_id = $1`

	var avg float64
	err := r.pool.QueryRow(ctx, query, tutorID).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("get average rating: %w", err)
	}

	return avg, nil
}
