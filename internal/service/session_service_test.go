package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository"
	"github.com/Freeeeeet/tutor_market/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() service.SessionInput {
	grade := "9"
	return service.SessionInput{
		Subject:    "Geometry",
		Grade:      &grade,
		StartTime:  time.Now().Add(48 * time.Hour),
		Fee:        150000,
		TotalSlots: 4,
	}
}

func TestCreateSession(t *testing.T) {
	e := newEnv(t)

	session, err := e.sessions.CreateSession(context.Background(), e.tutor.ID, model.RoleTutor, validInput())
	require.NoError(t, err)

	assert.Equal(t, e.tutor.ID, session.TutorID)
	assert.Equal(t, model.SessionStatusOpen, session.Status)
	assert.Equal(t, 4, session.AvailableSlots)
	// Длительность по умолчанию — час
	assert.Equal(t, 60, session.Duration)
}

func TestCreateSessionValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	t.Run("student forbidden", func(t *testing.T) {
		_, err := e.sessions.CreateSession(ctx, e.studentA.ID, model.RoleStudent, validInput())
		require.ErrorIs(t, err, model.ErrForbidden)
	})

	t.Run("empty subject", func(t *testing.T) {
		in := validInput()
		in.Subject = "  "
		_, err := e.sessions.CreateSession(ctx, e.tutor.ID, model.RoleTutor, in)
		require.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("past start time", func(t *testing.T) {
		in := validInput()
		in.StartTime = time.Now().Add(-time.Hour)
		_, err := e.sessions.CreateSession(ctx, e.tutor.ID, model.RoleTutor, in)
		require.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("negative fee", func(t *testing.T) {
		in := validInput()
		in.Fee = -1
		_, err := e.sessions.CreateSession(ctx, e.tutor.ID, model.RoleTutor, in)
		require.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("zero slots", func(t *testing.T) {
		in := validInput()
		in.TotalSlots = 0
		_, err := e.sessions.CreateSession(ctx, e.tutor.ID, model.RoleTutor, in)
		require.ErrorIs(t, err, model.ErrValidation)
	})
}

func TestCloseAndReopenSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	session := e.addSession(t, 2)

	require.NoError(t, e.sessions.CloseSession(ctx, e.tutor.ID, session.ID))

	// Закрытая репетитором сессия не бронируется, хотя места остались
	_, err := e.bookings.BookSession(ctx, e.studentA.ID, model.RoleStudent, session.ID)
	require.ErrorIs(t, err, model.ErrSessionClosed)

	require.NoError(t, e.sessions.ReopenSession(ctx, e.tutor.ID, session.ID))

	_, err = e.bookings.BookSession(ctx, e.studentA.ID, model.RoleStudent, session.ID)
	require.NoError(t, err)
}

func TestReopenExhaustedSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	session := e.addSession(t, 1)

	_, err := e.bookings.BookSession(ctx, e.studentA.ID, model.RoleStudent, session.ID)
	require.NoError(t, err)

	err = e.sessions.ReopenSession(ctx, e.tutor.ID, session.ID)
	require.ErrorIs(t, err, model.ErrSessionFull)
}

func TestUpdateSessionCapacity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	session := e.addSession(t, 3)

	_, err := e.bookings.BookSession(ctx, e.studentA.ID, model.RoleStudent, session.ID)
	require.NoError(t, err)
	_, err = e.bookings.BookSession(ctx, e.studentB.ID, model.RoleStudent, session.ID)
	require.NoError(t, err)

	t.Run("cannot shrink below active bookings", func(t *testing.T) {
		in := validInput()
		in.TotalSlots = 1
		_, err := e.sessions.UpdateSession(ctx, e.tutor.ID, session.ID, in)
		require.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("grow keeps booked count", func(t *testing.T) {
		in := validInput()
		in.TotalSlots = 5
		updated, err := e.sessions.UpdateSession(ctx, e.tutor.ID, session.ID, in)
		require.NoError(t, err)
		assert.Equal(t, 5, updated.TotalSlots)
		assert.Equal(t, 3, updated.AvailableSlots)
	})

	t.Run("not owner forbidden", func(t *testing.T) {
		otherTutor := e.addUser(t, "tutor2@example.com", model.RoleTutor)
		_, err := e.sessions.UpdateSession(ctx, otherTutor.ID, session.ID, validInput())
		require.ErrorIs(t, err, model.ErrForbidden)
	})
}

func TestDeleteSessionCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	session := e.addSession(t, 3)

	bookingA, err := e.bookings.BookSession(ctx, e.studentA.ID, model.RoleStudent, session.ID)
	require.NoError(t, err)
	_, err = e.bookings.BookSession(ctx, e.studentB.ID, model.RoleStudent, session.ID)
	require.NoError(t, err)

	require.NoError(t, e.sessions.DeleteSession(ctx, e.tutor.ID, session.ID))

	_, err = e.sessions.GetSession(ctx, session.ID)
	require.ErrorIs(t, err, model.ErrSessionNotFound)

	// Записи удалены вместе с сессией
	err = e.bookings.CancelBooking(ctx, e.studentA.ID, model.RoleStudent, bookingA.ID)
	require.ErrorIs(t, err, model.ErrBookingNotFound)
}

func TestListOpenSessions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	algebra := e.addSession(t, 1)

	in := validInput()
	in.Subject = "English"
	_, err := e.sessions.CreateSession(ctx, e.tutor.ID, model.RoleTutor, in)
	require.NoError(t, err)

	t.Run("filter by subject", func(t *testing.T) {
		q := "alg"
		sessions, err := e.sessions.ListOpenSessions(ctx, repository.SessionFilter{SubjectQuery: &q})
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, algebra.ID, sessions[0].ID)
	})

	t.Run("exhausted sessions excluded", func(t *testing.T) {
		_, err := e.bookings.BookSession(ctx, e.studentA.ID, model.RoleStudent, algebra.ID)
		require.NoError(t, err)

		sessions, err := e.sessions.ListOpenSessions(ctx, repository.SessionFilter{})
		require.NoError(t, err)
		for _, s := range sessions {
			assert.NotEqual(t, algebra.ID, s.ID)
			assert.Greater(t, s.AvailableSlots, 0)
		}
	})
}

func TestCloseStartedSessions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	upcoming := e.addSession(t, 2)

	started := &model.Session{
		TutorID:    e.tutor.ID,
		Subject:    "Geometry",
		StartTime:  time.Now().Add(-time.Hour),
		Duration:   60,
		TotalSlots: 2,
		Status:     model.SessionStatusOpen,
	}
	require.NoError(t, e.store.SessionStore().Create(context.Background(), started))

	count, err := e.sessions.CloseStartedSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	assert.Equal(t, model.SessionStatusClosed, e.sessionState(t, started.ID).Status)
	assert.Equal(t, model.SessionStatusOpen, e.sessionState(t, upcoming.ID).Status)

	t.Run("idempotent", func(t *testing.T) {
		count, err := e.sessions.CloseStartedSessions(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}
