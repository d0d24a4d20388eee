package controller

import (
	"net/http"

	"github.com/Freeeeeet/tutor_market/internal/service"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const sessionCookieName = "tutor_market_session"

// Server HTTP-слой поверх сервисов: маршруты, идентификация, маппинг ошибок
type Server struct {
	users    *service.UserService
	sessions *service.SessionService
	bookings *service.BookingService
	social   *service.SocialService
	store    *sessions.CookieStore
	logger   *zap.Logger
}

func NewServer(
	users *service.UserService,
	sessionsSvc *service.SessionService,
	bookings *service.BookingService,
	social *service.SocialService,
	sessionKey []byte,
	logger *zap.Logger,
) *Server {
	store := sessions.NewCookieStore(sessionKey)
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteStrictMode
	store.Options.Path = "/"

	return &Server{
		users:    users,
		sessions: sessionsSvc,
		bookings: bookings,
		social:   social,
		store:    store,
		logger:   logger,
	}
}

// Handler собирает все маршруты
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("GET /me", s.withAuth(s.handleMe))
	mux.HandleFunc("POST /me/telegram", s.withAuth(s.handleLinkTelegram))

	mux.HandleFunc("GET /sessions", s.withAuth(s.handleListOpenSessions))
	mux.HandleFunc("POST /sessions", s.withAuth(s.handleCreateSession))
	mux.HandleFunc("GET /sessions/{id}", s.withAuth(s.handleGetSession))
	mux.HandleFunc("PATCH /sessions/{id}", s.withAuth(s.handleUpdateSession))
	mux.HandleFunc("DELETE /sessions/{id}", s.withAuth(s.handleDeleteSession))
	mux.HandleFunc("POST /sessions/{id}/close", s.withAuth(s.handleCloseSession))
	mux.HandleFunc("POST /sessions/{id}/reopen", s.withAuth(s.handleReopenSession))
	mux.HandleFunc("GET /my/sessions", s.withAuth(s.handleListMySessions))

	mux.HandleFunc("POST /sessions/{id}/book", s.withAuth(s.handleBookSession))
	mux.HandleFunc("POST /sessions/{id}/complete", s.withAuth(s.handleCompleteSession))
	mux.HandleFunc("GET /sessions/{id}/bookings", s.withAuth(s.handleSessionBookings))
	mux.HandleFunc("DELETE /bookings/{id}", s.withAuth(s.handleCancelBooking))
	mux.HandleFunc("GET /bookings", s.withAuth(s.handleMyBookings))

	mux.HandleFunc("POST /tutors/{id}/follow", s.withAuth(s.handleFollow))
	mux.HandleFunc("DELETE /tutors/{id}/follow", s.withAuth(s.handleUnfollow))
	mux.HandleFunc("GET /follows", s.withAuth(s.handleListFollows))
	mux.HandleFunc("POST /tutors/{id}/hire", s.withAuth(s.handleHire))
	mux.HandleFunc("GET /hires", s.withAuth(s.handleListHires))
	mux.HandleFunc("POST /tutors/{id}/reviews", s.withAuth(s.handleAddReview))
	mux.HandleFunc("GET /tutors/{id}/reviews", s.withAuth(s.handleTutorReviews))

	return s.withRequestID(s.withLogging(mux))
}
