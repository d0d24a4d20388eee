package controller

import (
	"net/http"

	"github.com/Freeeeeet/tutor_market/internal/model"
)

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	tutorID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.social.FollowTutor(r.Context(), actor.ID, actor.Role, tutorID); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	tutorID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.social.UnfollowTutor(r.Context(), actor.ID, tutorID); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListFollows(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	tutors, err := s.social.ListFollowedTutors(r.Context(), actor.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, tutors)
}

func (s *Server) handleHire(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	tutorID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	hire, err := s.social.HireTutor(r.Context(), actor.ID, actor.Role, tutorID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, hire)
}

func (s *Server) handleListHires(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	hires, err := s.social.ListHires(r.Context(), actor.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, hires)
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type reviewsResponse struct {
	Reviews []*model.Review `json:"reviews"`
	Average float64         `json:"average"`
}

func (s *Server) handleAddReview(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	tutorID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req reviewRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	review, err := s.social.AddReview(r.Context(), actor.ID, actor.Role, tutorID, req.Rating, req.Comment)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, review)
}

func (s *Server) handleTutorReviews(w http.ResponseWriter, r *http.Request) {
	tutorID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	reviews, avg, err := s.social.TutorReviews(r.Context(), tutorID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, reviewsResponse{Reviews: reviews, Average: avg})
}
