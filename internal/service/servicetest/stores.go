// Package servicetest содержит in-memory реализацию хранилищ для тестов
// сервисного слоя и HTTP-слоя. Семантика book/cancel повторяет
// pgx-репозитории: атомарный переход счётчика через model.ApplyCapacityEvent
// и уникальность pending-записи на пару (сессия, студент).
package servicetest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/Freeeeeet/tutor_market/internal/repository"
)

type followKey struct {
	studentID int64
	tutorID   int64
}

// MemStore реализует все store-интерфейсы сервисов поверх map под мьютексом
type MemStore struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*model.User
	sessions map[int64]*model.Session
	bookings map[int64]*model.Booking
	follows  map[followKey]time.Time
	hires    []*model.Hire
	reviews  []*model.Review
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:    make(map[int64]*model.User),
		sessions: make(map[int64]*model.Session),
		bookings: make(map[int64]*model.Booking),
		follows:  make(map[followKey]time.Time),
	}
}

func (m *MemStore) id() int64 {
	m.nextID++
	return m.nextID
}

func copySession(s *model.Session) *model.Session {
	c := *s
	return &c
}

func copyBooking(b *model.Booking) *model.Booking {
	c := *b
	return &c
}

func copyUser(u *model.User) *model.User {
	c := *u
	return &c
}

// --- UserStore ---

func (m *MemStore) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("%w: email already registered", model.ErrValidation)
		}
	}

	user.ID = m.id()
	user.CreatedAt = time.Now()
	m.users[user.ID] = copyUser(user)
	return nil
}

func (m *MemStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(user), nil
}

func (m *MemStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (m *MemStore) SetTelegramChatID(ctx context.Context, userID, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	user.TelegramChatID = &chatID
	return nil
}

// --- SessionStore ---

// Sessions отдельный view, чтобы разнести одноимённые Create/GetByID
type Sessions struct{ *MemStore }

func (m *MemStore) SessionStore() *Sessions { return &Sessions{m} }

func (s *Sessions) Create(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.ID = s.id()
	session.AvailableSlots = session.TotalSlots
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	s.sessions[session.ID] = copySession(session)
	return nil
}

func (s *Sessions) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return copySession(session), nil
}

func (s *Sessions) ListOpen(ctx context.Context, filter repository.SessionFilter) ([]*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := time.Now()
	if filter.From != nil {
		from = *filter.From
	}

	var out []*model.Session
	for _, session := range s.sessions {
		if session.Status != model.SessionStatusOpen || session.AvailableSlots == 0 {
			continue
		}
		if !session.StartTime.After(from) {
			continue
		}
		if filter.Grade != nil && (session.Grade == nil || *session.Grade != *filter.Grade) {
			continue
		}
		if filter.SubjectQuery != nil &&
			!strings.Contains(strings.ToLower(session.Subject), strings.ToLower(*filter.SubjectQuery)) {
			continue
		}
		out = append(out, copySession(session))
	}
	return out, nil
}

func (s *Sessions) ListByTutor(ctx context.Context, tutorID int64) ([]*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.Session
	for _, session := range s.sessions {
		if session.TutorID != tutorID {
			continue
		}
		c := copySession(session)
		for _, b := range s.bookings {
			if b.SessionID == session.ID && b.Status == model.BookingStatusPending {
				c.BookedCount++
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Sessions) Update(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[session.ID]
	if !ok {
		return model.ErrSessionNotFound
	}

	booked := stored.TotalSlots - stored.AvailableSlots
	if session.TotalSlots < booked {
		return fmt.Errorf("%w: total slots below active bookings", model.ErrValidation)
	}

	stored.Subject = session.Subject
	stored.Topic = session.Topic
	stored.Grade = session.Grade
	stored.StartTime = session.StartTime
	stored.Duration = session.Duration
	stored.Fee = session.Fee
	stored.TotalSlots = session.TotalSlots
	stored.AvailableSlots = session.TotalSlots - booked
	if stored.AvailableSlots == 0 {
		stored.Status = model.SessionStatusClosed
	}
	stored.UpdatedAt = time.Now()
	return nil
}

func (s *Sessions) UpdateStatus(ctx context.Context, id int64, status model.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return model.ErrSessionNotFound
	}
	session.Status = status
	session.UpdatedAt = time.Now()
	return nil
}

func (s *Sessions) CloseStarted(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	now := time.Now()
	for _, session := range s.sessions {
		if session.Status == model.SessionStatusOpen && !session.StartTime.After(now) {
			session.Status = model.SessionStatusClosed
			session.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

func (s *Sessions) Delete(ctx context.Context, id int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return nil, model.ErrSessionNotFound
	}

	var studentIDs []int64
	for bookingID, b := range s.bookings {
		if b.SessionID != id {
			continue
		}
		if b.Status == model.BookingStatusPending {
			studentIDs = append(studentIDs, b.StudentID)
		}
		delete(s.bookings, bookingID)
	}

	delete(s.sessions, id)
	return studentIDs, nil
}

// --- BookingStore ---

type Bookings struct{ *MemStore }

func (m *MemStore) BookingStore() *Bookings { return &Bookings{m} }

func (b *Bookings) Book(ctx context.Context, studentID, sessionID int64) (*model.Booking, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	session, ok := b.sessions[sessionID]
	if !ok {
		return nil, model.ErrSessionNotFound
	}

	slots, status, err := model.ApplyCapacityEvent(
		session.TotalSlots, session.AvailableSlots, session.Status, model.CapacityEventBook)
	if err != nil {
		return nil, err
	}

	for _, existing := range b.bookings {
		if existing.SessionID == sessionID && existing.StudentID == studentID &&
			existing.Status == model.BookingStatusPending {
			return nil, model.ErrAlreadyBooked
		}
	}

	session.AvailableSlots = slots
	session.Status = status
	session.UpdatedAt = time.Now()

	booking := &model.Booking{
		ID:        b.id(),
		SessionID: sessionID,
		TutorID:   session.TutorID,
		StudentID: studentID,
		Status:    model.BookingStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	b.bookings[booking.ID] = copyBooking(booking)
	return booking, nil
}

func (b *Bookings) Cancel(ctx context.Context, bookingID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	booking, ok := b.bookings[bookingID]
	if !ok || booking.Status != model.BookingStatusPending {
		return model.ErrBookingNotFound
	}

	session, ok := b.sessions[booking.SessionID]
	if !ok {
		return model.ErrSessionNotFound
	}

	slots, status, err := model.ApplyCapacityEvent(
		session.TotalSlots, session.AvailableSlots, session.Status, model.CapacityEventCancel)
	if err != nil {
		return err
	}

	delete(b.bookings, bookingID)
	session.AvailableSlots = slots
	session.Status = status
	session.UpdatedAt = time.Now()
	return nil
}

func (b *Bookings) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	booking, ok := b.bookings[id]
	if !ok {
		return nil, nil
	}
	return copyBooking(booking), nil
}

func (b *Bookings) GetByStudentID(ctx context.Context, studentID int64) ([]*model.Booking, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []*model.Booking
	for _, booking := range b.bookings {
		if booking.StudentID == studentID {
			out = append(out, copyBooking(booking))
		}
	}
	return out, nil
}

func (b *Bookings) GetBySessionID(ctx context.Context, sessionID int64) ([]*model.Booking, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []*model.Booking
	for _, booking := range b.bookings {
		if booking.SessionID == sessionID {
			out = append(out, copyBooking(booking))
		}
	}
	return out, nil
}

func (b *Bookings) CompleteBySession(ctx context.Context, sessionID int64) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var count int64
	for _, booking := range b.bookings {
		if booking.SessionID == sessionID && booking.Status == model.BookingStatusPending {
			booking.Status = model.BookingStatusCompleted
			booking.UpdatedAt = time.Now()
			count++
		}
	}
	return count, nil
}

func (b *Bookings) HasCompleted(ctx context.Context, studentID, tutorID int64) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, booking := range b.bookings {
		if booking.StudentID == studentID && booking.TutorID == tutorID &&
			booking.Status == model.BookingStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

// --- RelationStore ---

func (m *MemStore) Follow(ctx context.Context, studentID, tutorID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := followKey{studentID, tutorID}
	if _, ok := m.follows[key]; ok {
		return false, nil
	}
	m.follows[key] = time.Now()
	return true, nil
}

func (m *MemStore) Unfollow(ctx context.Context, studentID, tutorID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := followKey{studentID, tutorID}
	if _, ok := m.follows[key]; !ok {
		return model.ErrNotFound
	}
	delete(m.follows, key)
	return nil
}

func (m *MemStore) GetFollowedTutors(ctx context.Context, studentID int64) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.User
	for key := range m.follows {
		if key.studentID != studentID {
			continue
		}
		if tutor, ok := m.users[key.tutorID]; ok {
			out = append(out, copyUser(tutor))
		}
	}
	return out, nil
}

func (m *MemStore) GetFollowerIDs(ctx context.Context, tutorID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []int64
	for key := range m.follows {
		if key.tutorID == tutorID {
			out = append(out, key.studentID)
		}
	}
	return out, nil
}

func (m *MemStore) Hire(ctx context.Context, hire *model.Hire) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hire.ID = m.id()
	hire.CreatedAt = time.Now()
	c := *hire
	m.hires = append(m.hires, &c)
	return nil
}

func (m *MemStore) GetHiresByStudent(ctx context.Context, studentID int64) ([]*model.Hire, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Hire
	for _, h := range m.hires {
		if h.StudentID == studentID {
			c := *h
			if tutor, ok := m.users[h.TutorID]; ok {
				c.Tutor = copyUser(tutor)
			}
			out = append(out, &c)
		}
	}
	return out, nil
}

// --- ReviewStore ---

type Reviews struct{ *MemStore }

func (m *MemStore) ReviewStore() *Reviews { return &Reviews{m} }

func (r *Reviews) Create(ctx context.Context, review *model.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	review.ID = r.id()
	review.CreatedAt = time.Now()
	c := *review
	r.reviews = append(r.reviews, &c)
	return nil
}

func (r *Reviews) GetByTutorID(ctx context.Context, tutorID int64) ([]*model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Review
	for _, review := range r.reviews {
		if review.TutorID == tutorID {
			c := *review
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *Reviews) AverageRating(ctx context.Context, tutorID int64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sum, count int
	for _, review := range r.reviews {
		if review.TutorID == tutorID {
			sum += review.Rating
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return float64(sum) / float64(count), nil
}
