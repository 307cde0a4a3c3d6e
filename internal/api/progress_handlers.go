package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/skillpath-engine/internal/catalog"
	"github.com/terra-clan/skillpath-engine/internal/progress"
)

// Progress handlers

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "user id is required")
		return
	}

	p, err := s.progress.GetProgress(r.Context(), userID)
	if err != nil {
		slog.Error("failed to get progress", "error", err, "user", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get progress")
		return
	}
	if p == nil {
		respondError(w, http.StatusNotFound, "not_found", "no progress recorded for user")
		return
	}

	respondJSON(w, http.StatusOK, p)
}

type markResourceRequest struct {
	CareerPathID   string `json:"career_path_id"`
	LearningPathID string `json:"learning_path_id"`
	SkillID        string `json:"skill_id"`
	ResourceID     string `json:"resource_id"`
	Completed      *bool  `json:"completed,omitempty"`
}

func (s *Server) handleMarkResource(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req markResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.CareerPathID == "" || req.LearningPathID == "" || req.SkillID == "" || req.ResourceID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "career_path_id, learning_path_id, skill_id and resource_id are required")
		return
	}

	// Omitted "completed" means marking complete
	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}

	p, err := s.progress.MarkResource(r.Context(), userID, req.CareerPathID, req.LearningPathID, req.SkillID, req.ResourceID, completed)
	if err != nil {
		if errors.Is(err, progress.ErrResourceNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "resource not found in catalog")
			return
		}
		slog.Error("failed to mark resource", "error", err, "user", userID, "resource", req.ResourceID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update progress")
		return
	}

	respondJSON(w, http.StatusOK, p)
}

type addExperienceRequest struct {
	Amount int `json:"amount"`
}

func (s *Server) handleAddExperience(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req addExperienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Amount <= 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "amount must be positive")
		return
	}

	p, err := s.progress.AddExperience(r.Context(), userID, req.Amount)
	if err != nil {
		slog.Error("failed to add experience", "error", err, "user", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to add experience")
		return
	}

	respondJSON(w, http.StatusOK, p)
}

type addAchievementRequest struct {
	Achievement string `json:"achievement"`
}

func (s *Server) handleAddAchievement(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req addAchievementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Achievement == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "achievement is required")
		return
	}

	p, err := s.progress.AddAchievement(r.Context(), userID, req.Achievement)
	if err != nil {
		slog.Error("failed to add achievement", "error", err, "user", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to add achievement")
		return
	}

	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleCareerPathSummary(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	careerPathID := chi.URLParam(r, "careerPathID")

	summary, err := s.progress.CareerPathSummary(r.Context(), userID, careerPathID)
	if err != nil {
		if errors.Is(err, catalog.ErrCareerPathNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "career path not found")
			return
		}
		slog.Error("failed to compute progress summary", "error", err, "user", userID, "career_path", careerPathID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to compute progress summary")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
