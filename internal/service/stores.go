package service

import (
	"context"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository"
)

// Интерфейсы хранилищ, которыми пользуются сервисы.
// Реализуются pgx-репозиториями; в тестах — in-memory фейками.

type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	ListOpen(ctx context.Context, filter repository.SessionFilter) ([]*model.Session, error)
	ListByTutor(ctx context.Context, tutorID int64) ([]*model.Session, error)
	Update(ctx context.Context, session *model.Session) error
	UpdateStatus(ctx context.Context, id int64, status model.SessionStatus) error
	CloseStarted(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) ([]int64, error)
}

type BookingStore interface {
	Book(ctx context.Context, studentID, sessionID int64) (*model.Booking, error)
	Cancel(ctx context.Context, bookingID int64) error
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	GetByStudentID(ctx context.Context, studentID int64) ([]*model.Booking, error)
	GetBySessionID(ctx context.Context, sessionID int64) ([]*model.Booking, error)
	CompleteBySession(ctx context.Context, sessionID int64) (int64, error)
	HasCompleted(ctx context.Context, studentID, tutorID int64) (bool, error)
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	SetTelegramChatID(ctx context.Context, userID, chatID int64) error
}

type RelationStore interface {
	Follow(ctx context.Context, studentID, tutorID int64) (bool, error)
	Unfollow(ctx context.Context, studentID, tutorID int64) error
	GetFollowedTutors(ctx context.Context, studentID int64) ([]*model.User, error)
	GetFollowerIDs(ctx context.Context, tutorID int64) ([]int64, error)
	Hire(ctx context.Context, hire *model.Hire) error
	GetHiresByStudent(ctx context.Context, studentID int64) ([]*model.Hire, error)
}

type ReviewStore interface {
	Create(ctx context.Context, review *model.Review) error
	GetByTutorID(ctx context.Context, tutorID int64) ([]*model.Review, error)
	AverageRating(ctx context.Context, tutorID int64) (float64, error)
}
