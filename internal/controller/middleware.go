package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	actorKey     contextKey = "actor"
	requestIDKey contextKey = "request_id"
)

// Actor аутентифицированный вызывающий: ID и роль из подписанной cookie.
// Ядро доверяет этим данным и делает только проверки владения/роли.
type Actor struct {
	ID   int64
	Role model.Role
}

// withAuth достаёт актора из cookie-сессии; без него — 401
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := s.store.Get(r, sessionCookieName)

		userID, idOK := session.Values["user_id"].(int64)
		role, roleOK := session.Values["role"].(string)

		if !idOK || !roleOK || userID == 0 {
			s.writeError(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		actor := Actor{ID: userID, Role: model.Role(role)}
		next(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
	}
}

// actorFrom возвращает актора запроса (только под withAuth)
func actorFrom(r *http.Request) Actor {
	actor, _ := r.Context().Value(actorKey).(Actor)
	return actor
}

// withRequestID присваивает каждому запросу идентификатор
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// withLogging логирует каждый запрос
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		requestID, _ := r.Context().Value(requestIDKey).(string)
		s.logger.Info("Request handled",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
