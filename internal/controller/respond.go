package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Freeeeeet/tutor_market/internal/model"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			s.logger.Error("Failed to encode response", zap.Error(err))
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, kind, message string) {
	s.writeJSON(w, status, errorResponse{Error: kind, Message: message})
}

// respondError переводит доменную ошибку в HTTP-ответ.
// Вся таксономия — ожидаемые исходы, не дефекты; фатально логируется
// только недоступность хранилища (ветка по умолчанию).
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		s.writeError(w, r, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, model.ErrBadCredentials):
		s.writeError(w, r, http.StatusUnauthorized, "bad_credentials", err.Error())
	case errors.Is(err, model.ErrForbidden):
		s.writeError(w, r, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, model.ErrSessionNotFound),
		errors.Is(err, model.ErrBookingNotFound),
		errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, model.ErrAlreadyBooked):
		s.writeError(w, r, http.StatusConflict, "already_booked", err.Error())
	case errors.Is(err, model.ErrSessionFull):
		s.writeError(w, r, http.StatusConflict, "session_full", err.Error())
	case errors.Is(err, model.ErrSessionClosed):
		s.writeError(w, r, http.StatusConflict, "session_closed", err.Error())
	default:
		requestID, _ := r.Context().Value(requestIDKey).(string)
		s.logger.Error("Unexpected error",
			zap.String("request_id", requestID),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// decodeJSON читает тело запроса
func (s *Server) decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return model.ErrValidation
	}
	return nil
}

// pathID парсит числовой path-параметр
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.ErrValidation
	}
	return id, nil
}
