package controller

import "net/http"

func (s *Server) handleBookSession(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	sessionID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	booking, err := s.bookings.BookSession(r.Context(), actor.ID, actor.Role, sessionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	bookingID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.bookings.CancelBooking(r.Context(), actor.ID, actor.Role, bookingID); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type completeResponse struct {
	Completed int64 `json:"completed"`
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	sessionID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	count, err := s.bookings.MarkSessionCompleted(r.Context(), actor.ID, actor.Role, sessionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, completeResponse{Completed: count})
}

func (s *Server) handleMyBookings(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	bookings, err := s.bookings.GetStudentBookings(r.Context(), actor.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, bookings)
}

func (s *Server) handleSessionBookings(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	sessionID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	bookings, err := s.bookings.GetSessionBookings(r.Context(), actor.ID, sessionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, bookings)
}
