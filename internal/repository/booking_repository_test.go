package repository_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/app"
	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Интеграционные тесты против реального PostgreSQL.
// Запускаются только при заданном TEST_DB_DSN.
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping integration tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrator, err := app.NewMigrator(pool, "../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrator.Run(ctx))
	require.NoError(t, migrator.Close())

	_, err = pool.Exec(ctx, `TRUNCATE bookings, reviews, hires, follows, sessions, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return pool
}

func seedUser(t *testing.T, users *repository.UserRepository, email string, role model.Role) *model.User {
	t.Helper()

	user := &model.User{Email: email, Role: role, PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func seedSession(t *testing.T, sessions *repository.SessionRepository, tutorID int64, slots int) *model.Session {
	t.Helper()

	session := &model.Session{
		TutorID:    tutorID,
		Subject:    "Algebra",
		StartTime:  time.Now().Add(24 * time.Hour),
		Duration:   60,
		TotalSlots: slots,
		Status:     model.SessionStatusOpen,
	}
	require.NoError(t, sessions.Create(context.Background(), session))
	return session
}

func TestBookAndCancelIntegration(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	users := repository.NewUserRepository(pool)
	sessions := repository.NewSessionRepository(pool)
	bookings := repository.NewBookingRepository(pool)

	tutor := seedUser(t, users, "tutor@example.com", model.RoleTutor)
	studentA := seedUser(t, users, "a@example.com", model.RoleStudent)
	studentB := seedUser(t, users, "b@example.com", model.RoleStudent)

	session := seedSession(t, sessions, tutor.ID, 2)

	booking, err := bookings.Book(ctx, studentA.ID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, booking.Status)

	got, err := sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableSlots)
	assert.Equal(t, model.SessionStatusOpen, got.Status)

	// Дубль того же студента отбивается индексом
	_, err = bookings.Book(ctx, studentA.ID, session.ID)
	require.ErrorIs(t, err, model.ErrAlreadyBooked)

	got, err = sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableSlots, "failed booking must not consume a slot")

	// Последнее место закрывает сессию
	_, err = bookings.Book(ctx, studentB.ID, session.ID)
	require.NoError(t, err)

	got, err = sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableSlots)
	assert.Equal(t, model.SessionStatusClosed, got.Status)

	// Отмена возвращает место и открывает сессию
	require.NoError(t, bookings.Cancel(ctx, booking.ID))

	got, err = sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableSlots)
	assert.Equal(t, model.SessionStatusOpen, got.Status)

	require.ErrorIs(t, bookings.Cancel(ctx, booking.ID), model.ErrBookingNotFound)
}

func TestBookConcurrentLastSlotIntegration(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	users := repository.NewUserRepository(pool)
	sessions := repository.NewSessionRepository(pool)
	bookings := repository.NewBookingRepository(pool)

	tutor := seedUser(t, users, "tutor@example.com", model.RoleTutor)
	studentA := seedUser(t, users, "a@example.com", model.RoleStudent)
	studentB := seedUser(t, users, "b@example.com", model.RoleStudent)

	session := seedSession(t, sessions, tutor.ID, 1)

	students := []int64{studentA.ID, studentB.ID}
	errs := make([]error, len(students))

	var wg sync.WaitGroup
	for i, studentID := range students {
		wg.Add(1)
		go func(i int, studentID int64) {
			defer wg.Done()
			_, errs[i] = bookings.Book(ctx, studentID, session.ID)
		}(i, studentID)
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, model.ErrSessionFull)
	}
	assert.Equal(t, 1, successes)

	got, err := sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableSlots)
}

func TestCompleteBySessionIntegration(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	users := repository.NewUserRepository(pool)
	sessions := repository.NewSessionRepository(pool)
	bookings := repository.NewBookingRepository(pool)

	tutor := seedUser(t, users, "tutor@example.com", model.RoleTutor)
	studentA := seedUser(t, users, "a@example.com", model.RoleStudent)
	studentB := seedUser(t, users, "b@example.com", model.RoleStudent)

	session := seedSession(t, sessions, tutor.ID, 3)

	_, err := bookings.Book(ctx, studentA.ID, session.ID)
	require.NoError(t, err)
	_, err = bookings.Book(ctx, studentB.ID, session.ID)
	require.NoError(t, err)

	count, err := bookings.CompleteBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Завершение не трогает счётчик мест
	got, err := sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableSlots)

	completed, err := bookings.HasCompleted(ctx, studentA.ID, tutor.ID)
	require.NoError(t, err)
	assert.True(t, completed)
}
