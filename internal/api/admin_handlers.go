package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/skillpath-engine/internal/catalog"
	"github.com/terra-clan/skillpath-engine/internal/models"
)

// Admin catalog handlers. Every write persists the full career path document
// and swaps in a fresh snapshot.

func (s *Server) handleSaveCareerPath(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "careerPathID")

	var cp models.CareerPath
	if err := json.NewDecoder(r.Body).Decode(&cp); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// The path segment is authoritative
	cp.ID = id

	if err := s.catalog.SaveCareerPath(r.Context(), &cp); err != nil {
		s.respondCatalogError(w, err, "failed to save career path")
		return
	}

	respondJSON(w, http.StatusOK, s.catalog.Snapshot().GetCareerPath(id))
}

func (s *Server) handleDeleteCareerPath(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "careerPathID")

	if err := s.catalog.DeleteCareerPath(r.Context(), id); err != nil {
		s.respondCatalogError(w, err, "failed to delete career path")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "career path deleted",
	})
}

func (s *Server) handleSaveLearningPath(w http.ResponseWriter, r *http.Request) {
	careerPathID := chi.URLParam(r, "careerPathID")
	learningPathID := chi.URLParam(r, "learningPathID")

	var lp models.LearningPath
	if err := json.NewDecoder(r.Body).Decode(&lp); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	lp.ID = learningPathID

	if err := s.catalog.SaveLearningPath(r.Context(), careerPathID, &lp); err != nil {
		s.respondCatalogError(w, err, "failed to save learning path")
		return
	}

	respondJSON(w, http.StatusOK, s.catalog.Snapshot().GetLearningPath(careerPathID, learningPathID))
}

func (s *Server) handleDeleteLearningPath(w http.ResponseWriter, r *http.Request) {
	careerPathID := chi.URLParam(r, "careerPathID")
	learningPathID := chi.URLParam(r, "learningPathID")

	if err := s.catalog.DeleteLearningPath(r.Context(), careerPathID, learningPathID); err != nil {
		s.respondCatalogError(w, err, "failed to delete learning path")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "learning path deleted",
	})
}

func (s *Server) handleSaveSkill(w http.ResponseWriter, r *http.Request) {
	careerPathID := chi.URLParam(r, "careerPathID")
	learningPathID := chi.URLParam(r, "learningPathID")
	skillID := chi.URLParam(r, "skillID")

	var sk models.Skill
	if err := json.NewDecoder(r.Body).Decode(&sk); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	sk.ID = skillID

	if err := s.catalog.SaveSkill(r.Context(), careerPathID, learningPathID, &sk); err != nil {
		s.respondCatalogError(w, err, "failed to save skill")
		return
	}

	respondJSON(w, http.StatusOK, s.catalog.Snapshot().GetSkill(careerPathID, learningPathID, skillID))
}

func (s *Server) handleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	careerPathID := chi.URLParam(r, "careerPathID")
	learningPathID := chi.URLParam(r, "learningPathID")
	skillID := chi.URLParam(r, "skillID")

	if err := s.catalog.DeleteSkill(r.Context(), careerPathID, learningPathID, skillID); err != nil {
		s.respondCatalogError(w, err, "failed to delete skill")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "skill deleted",
	})
}

func (s *Server) handleSaveResource(w http.ResponseWriter, r *http.Request) {
	careerPathID := chi.URLParam(r, "careerPathID")
	learningPathID := chi.URLParam(r, "learningPathID")
	skillID := chi.URLParam(r, "skillID")
	resourceID := chi.URLParam(r, "resourceID")

	var resource models.Resource
	if err := json.NewDecoder(r.Body).Decode(&resource); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	resource.ID = resourceID

	if err := s.catalog.SaveResource(r.Context(), careerPathID, learningPathID, skillID, &resource); err != nil {
		s.respondCatalogError(w, err, "failed to save resource")
		return
	}

	respondJSON(w, http.StatusOK, s.catalog.Snapshot().GetResource(careerPathID, learningPathID, skillID, resourceID))
}

func (s *Server) handleDeleteResource(w http.ResponseWriter, r *http.Request) {
	careerPathID := chi.URLParam(r, "careerPathID")
	learningPathID := chi.URLParam(r, "learningPathID")
	skillID := chi.URLParam(r, "skillID")
	resourceID := chi.URLParam(r, "resourceID")

	if err := s.catalog.DeleteResource(r.Context(), careerPathID, learningPathID, skillID, resourceID); err != nil {
		s.respondCatalogError(w, err, "failed to delete resource")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "resource deleted",
	})
}

// respondCatalogError maps catalog store errors to HTTP responses. Validation
// failures and prerequisite-guard violations come back as plain errors from
// the store; they map to 400 rather than 500.
func (s *Server) respondCatalogError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, catalog.ErrCareerPathNotFound):
		respondError(w, http.StatusNotFound, "not_found", "career path not found")
	case errors.Is(err, catalog.ErrLearningPathNotFound):
		respondError(w, http.StatusNotFound, "not_found", "learning path not found")
	case errors.Is(err, catalog.ErrSkillNotFound):
		respondError(w, http.StatusNotFound, "not_found", "skill not found")
	case errors.Is(err, catalog.ErrResourceNotFound):
		respondError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.As(err, new(*catalog.ValidationError)):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		slog.Error(fallback, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}
