package controller

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/tutor_market/internal/repository"
	"github.com/Freeeeeet/tutor_market/internal/service"
)

type sessionRequest struct {
	Subject    string    `json:"subject"`
	Topic      *string   `json:"topic"`
	Grade      *string   `json:"grade"`
	StartTime  time.Time `json:"start_time"`
	Duration   int       `json:"duration"`
	Fee        int64     `json:"fee"`
	TotalSlots int       `json:"total_slots"`
}

func (req *sessionRequest) toInput() service.SessionInput {
	return service.SessionInput{
		Subject:    req.Subject,
		Topic:      req.Topic,
		Grade:      req.Grade,
		StartTime:  req.StartTime,
		Duration:   req.Duration,
		Fee:        req.Fee,
		TotalSlots: req.TotalSlots,
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	var req sessionRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	session, err := s.sessions.CreateSession(r.Context(), actor.ID, actor.Role, req.toInput())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	session, err := s.sessions.GetSession(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleListOpenSessions(w http.ResponseWriter, r *http.Request) {
	var filter repository.SessionFilter

	q := r.URL.Query()
	if grade := q.Get("grade"); grade != "" {
		filter.Grade = &grade
	}
	if subject := q.Get("q"); subject != "" {
		filter.SubjectQuery = &subject
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, "validation", "from must be RFC3339")
			return
		}
		filter.From = &t
	}

	sessions, err := s.sessions.ListOpenSessions(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleListMySessions(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	sessions, err := s.sessions.ListTutorSessions(r.Context(), actor.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req sessionRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	session, err := s.sessions.UpdateSession(r.Context(), actor.ID, id, req.toInput())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.sessions.DeleteSession(r.Context(), actor.ID, id); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.sessions.CloseSession(r.Context(), actor.ID, id); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReopenSession(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.sessions.ReopenSession(r.Context(), actor.ID, id); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
