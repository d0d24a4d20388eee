package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/notify"
	"github.com/Freeeeeet/tutor_market/internal/service"
	"github.com/Freeeeeet/tutor_market/internal/service/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type env struct {
	store    *servicetest.MemStore
	bookings *service.BookingService
	sessions *service.SessionService
	users    *service.UserService
	social   *service.SocialService

	tutor    *model.User
	studentA *model.User
	studentB *model.User
	studentC *model.User
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store := servicetest.NewMemStore()
	logger := zap.NewNop()
	notifier := notify.NewLogNotifier(logger)

	e := &env{
		store: store,
		bookings: service.NewBookingService(
			store.SessionStore(), store.BookingStore(), notifier, logger),
		sessions: service.NewSessionService(
			store.SessionStore(), store, notifier, logger),
		users: service.NewUserService(store, logger),
		social: service.NewSocialService(
			store, store, store.ReviewStore(), store.BookingStore(), logger),
	}

	e.tutor = e.addUser(t, "tutor@example.com", model.RoleTutor)
	e.studentA = e.addUser(t, "a@example.com", model.RoleStudent)
	e.studentB = e.addUser(t, "b@example.com", model.RoleStudent)
	e.studentC = e.addUser(t, "c@example.com", model.RoleStudent)
	return e
}

func (e *env) addUser(t *testing.T, email string, role model.Role) *model.User {
	t.Helper()

	user := &model.User{Email: email, Role: role, PasswordHash: "x"}
	require.NoError(t, e.store.Create(context.Background(), user))
	return user
}

func (e *env) addSession(t *testing.T, slots int) *model.Session {
	t.Helper()

	session := &model.Session{
		TutorID:    e.tutor.ID,
		Subject:    "Algebra",
		StartTime:  time.Now().Add(24 * time.Hour),
		Duration:   60,
		TotalSlots: slots,
		Status:     model.SessionStatusOpen,
	}
	require.NoError(t, e.store.SessionStore().Create(context.Background(), session))
	return session
}

func (e *env) sessionState(t *testing.T, id int64) *model.Session {
	t.Helper()

	session, err := e.store.SessionStore().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, session)
	return session
}

func TestBookSession(t *testing.T) {
	e := newEnv(t)
	session := e.addSession(t, 3)

	booking, err := e.bookings.BookSession(context.Background(), e.studentA.ID, model.RoleStudent, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, booking.Status)
	assert.Equal(t, e.tutor.ID, booking.TutorID)

	got := e.sessionState(t, session.ID)
	assert.Equal(t, 2, got.AvailableSlots)
	assert.Equal(t, model.SessionStatusOpen, got.Status)
}

func TestBookSessionLastSlotClosesSession(t *testing.T) {
	e := newEnv(t)
	session := e.addSession(t, 1)

	_, err := e.bookings.BookSession(context.Background(), e.studentA.ID, model.RoleStudent, session.ID)
	require.NoError(t, err)

	got := e.sessionState(t, session.ID)
	assert.Equal(t, 0, got.AvailableSlots)
	assert.Equal(t, model.SessionStatusClosed, got.Status)
}

func TestBookSessionDuplicate(t *testing.T) {
	e := newEnv(t)
	session := e.addSession(t, 3)

	_, err := e.bookings.BookSession(context.Background(), e.studentA.ID, model.RoleStudent, session.ID)
	require.NoError(t, err)

	_, err = e.bookings.BookSession(context.Background(), e.studentA.ID, model.RoleStudent, session.ID)
	require.ErrorIs(t, err, model.ErrAlreadyBooked)

	// Повторная попытка не должна трогать счётчик
	got := e.sessionState(t, session.ID)
	assert.Equal(t, 2, got.AvailableSlots)
}

func TestBookSessionFull(t *testing.T) {
	e := newEnv(t)
	session := e.addSession(t, 1)

	_, err := e.bookings.BookSession(context.Background(), e.studentA.ID, model.RoleStudent, session.ID)
	require.NoError(t, err)

	_, err = e.bookings.BookSession(context.Background(), e.studentB.ID, model.RoleStudent, session.ID)
	require.ErrorIs(t, err, model.ErrSessionFull)

	got := e.sessionState(t, session.ID)
	assert.Equal(t, 0, got.AvailableSlots)
}

func TestBookSessionErrors(t *testing.T) {
	e := newEnv(t)
	session := e.addSession(t, 1)

	t.Run("tutor cannot book", func(t *testing.T) {
		_, err := e.bookings.BookSession(context.Background(), e.tutor.ID, model.RoleTutor, session.ID)
		require.ErrorIs(t, err, model.ErrForbidden)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := e.bookings.BookSession(context.Background(), e.studentA.ID, model.RoleStudent, 9999)
		require.ErrorIs(t, err, model.ErrSessionNotFound)
	})
}

func TestBookSessionConcurrentLastSlot(t *testing.T) {
	e := newEnv(t)
	session := e.addSession(t, 1)

	students := []int64{e.studentA.ID, e.studentB.ID}
	errs := make([]error, len(students))

	var wg sync.WaitGroup
	for i, studentID := range students {
		wg.Add(1)
		go func(i int, studentID int64) {
			defer wg.Done()
			_, errs[i] = e.bookings.BookSession(context.Background(), studentID, model.RoleStudent, session.ID)
		}(i, studentID)
	}
	wg.Wait()

	var successes, losers int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, model.ErrSessionFull)
		losers++
	}
	assert.Equal(t, 1, successes, "exactly one booking must win the last slot")
	assert.Equal(t, 1, losers)

	got := e.sessionState(t, session.ID)
	assert.Equal(t, 0, got.AvailableSlots)
}

func TestCancelBooking(t *testing.T) {
	e := newEnv(t)
	session := e.addSession(t, 1)

	booking, err := e.bookings.BookSession(context.Background(), e.studentA.ID, model.RoleStudent, session.ID)
	require.NoError(t, err)
	require.Equal(t, model.SessionStatusClosed, e.sessionState(t, session.ID).Status)

	err = e.bookings.CancelBooking(context.Background(), e.studentA.ID, model.RoleStudent, booking.ID)
	require.NoError(t, err)

	got := e.sessionState(t, session.ID)
	assert.Equal(t, 1, got.AvailableSlots)
	assert.Equal(t, model.SessionStatusOpen, got.Status)

	t.Run("repeated cancel is not found", func(t *testing.T) {
		err := e.bookings.CancelBooking(context.Background(), e.studentA.ID, model.RoleStudent, booking.ID)
		require.ErrorIs(t, err, model.ErrBookingNotFound)
	})
}

func TestCancelBookingPermissions(t *testing.T) {
	e := newEnv(t)
	session := e.addSession(t, 2)

	booking, err := e.bookings.BookSession(context.Background(), e.studentA.ID, model.RoleStudent, session.ID)
	require.NoError(t, err)

	t.Run("stranger forbidden", func(t *testing.T) {
		err := e.bookings.CancelBooking(context.Background(), e.studentB.ID, model.RoleStudent, booking.ID)
		require.ErrorIs(t, err, model.ErrForbidden)
	})

	t.Run("owning tutor may cancel", func(t *testing.T) {
		err := e.bookings.CancelBooking(context.Background(), e.tutor.ID, model.RoleTutor, booking.ID)
		require.NoError(t, err)
	})
}

// Сценарий из жизни счётчика: 2 места, A и B занимают, A отменяет, C занимает
func TestBookingLifecycleScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	session := e.addSession(t, 2)

	bookingA, err := e.bookings.BookSession(ctx, e.studentA.ID, model.RoleStudent, session.ID)
	require.NoError(t, err)
	got := e.sessionState(t, session.ID)
	assert.Equal(t, 1, got.AvailableSlots)
	assert.Equal(t, model.SessionStatusOpen, got.Status)

	_, err = e.bookings.BookSession(ctx, e.studentB.ID, model.RoleStudent, session.ID)
	require.NoError(t, err)
	got = e.sessionState(t, session.ID)
	assert.Equal(t, 0, got.AvailableSlots)
	assert.Equal(t, model.SessionStatusClosed, got.Status)

	require.NoError(t, e.bookings.CancelBooking(ctx, e.studentA.ID, model.RoleStudent, bookingA.ID))
	got = e.sessionState(t, session.ID)
	assert.Equal(t, 1, got.AvailableSlots)
	assert.Equal(t, model.SessionStatusOpen, got.Status)

	_, err = e.bookings.BookSession(ctx, e.studentC.ID, model.RoleStudent, session.ID)
	require.NoError(t, err)
	got = e.sessionState(t, session.ID)
	assert.Equal(t, 0, got.AvailableSlots)
	assert.Equal(t, model.SessionStatusClosed, got.Status)
}

func TestMarkSessionCompleted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	session := e.addSession(t, 3)

	_, err := e.bookings.BookSession(ctx, e.studentA.ID, model.RoleStudent, session.ID)
	require.NoError(t, err)
	_, err = e.bookings.BookSession(ctx, e.studentB.ID, model.RoleStudent, session.ID)
	require.NoError(t, err)

	slotsBefore := e.sessionState(t, session.ID).AvailableSlots

	count, err := e.bookings.MarkSessionCompleted(ctx, e.tutor.ID, model.RoleTutor, session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Завершение — не событие вместимости
	assert.Equal(t, slotsBefore, e.sessionState(t, session.ID).AvailableSlots)

	bookings, err := e.bookings.GetSessionBookings(ctx, e.tutor.ID, session.ID)
	require.NoError(t, err)
	for _, b := range bookings {
		assert.Equal(t, model.BookingStatusCompleted, b.Status)
	}

	t.Run("non-owner forbidden", func(t *testing.T) {
		_, err := e.bookings.MarkSessionCompleted(ctx, e.studentA.ID, model.RoleStudent, session.ID)
		require.ErrorIs(t, err, model.ErrForbidden)
	})
}
