package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/skillpath-engine/internal/progress"
)

// Challenge handlers

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	challenges, err := s.progress.ListChallenges(r.Context(), userID)
	if err != nil {
		slog.Error("failed to list challenges", "error", err, "user", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list challenges")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"challenges": challenges,
		"total":      len(challenges),
	})
}

func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	challengeID := chi.URLParam(r, "challengeID")

	c, err := s.progress.GetChallenge(r.Context(), userID, challengeID)
	if err != nil {
		slog.Error("failed to get challenge", "error", err, "user", userID, "challenge", challengeID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get challenge")
		return
	}
	if c == nil {
		respondError(w, http.StatusNotFound, "not_found", "challenge not attempted by user")
		return
	}

	respondJSON(w, http.StatusOK, c)
}

type attemptRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleRecordAttempt(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	challengeID := chi.URLParam(r, "challengeID")

	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	c, err := s.progress.RecordAttempt(r.Context(), userID, challengeID, req.Code)
	if err != nil {
		if errors.Is(err, progress.ErrChallengeCompleted) {
			respondError(w, http.StatusConflict, "challenge_completed", "challenge is already completed")
			return
		}
		slog.Error("failed to record attempt", "error", err, "user", userID, "challenge", challengeID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to record attempt")
		return
	}

	respondJSON(w, http.StatusOK, c)
}

type hintRequest struct {
	HintID string `json:"hint_id"`
}

func (s *Server) handleUseHint(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	challengeID := chi.URLParam(r, "challengeID")

	var req hintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.HintID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "hint_id is required")
		return
	}

	granted, c, err := s.progress.UseHint(r.Context(), userID, challengeID, req.HintID)
	if err != nil {
		slog.Error("failed to use hint", "error", err, "user", userID, "challenge", challengeID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to use hint")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"granted":   granted,
		"challenge": c,
	})
}

type timeSpentRequest struct {
	Seconds int `json:"seconds"`
}

func (s *Server) handleAddTimeSpent(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	challengeID := chi.URLParam(r, "challengeID")

	var req timeSpentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Seconds <= 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "seconds must be positive")
		return
	}

	c, err := s.progress.AddTimeSpent(r.Context(), userID, challengeID, req.Seconds)
	if err != nil {
		slog.Error("failed to add time spent", "error", err, "user", userID, "challenge", challengeID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to add time spent")
		return
	}

	respondJSON(w, http.StatusOK, c)
}

type completeChallengeRequest struct {
	Code  string `json:"code"`
	Score int    `json:"score"`
}

func (s *Server) handleCompleteChallenge(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	challengeID := chi.URLParam(r, "challengeID")

	var req completeChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	c, p, err := s.progress.CompleteChallenge(r.Context(), userID, challengeID, req.Code, req.Score)
	if err != nil {
		if errors.Is(err, progress.ErrChallengeCompleted) {
			respondError(w, http.StatusConflict, "challenge_completed", "challenge is already completed")
			return
		}
		slog.Error("failed to complete challenge", "error", err, "user", userID, "challenge", challengeID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to complete challenge")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"challenge": c,
		"progress":  p,
	})
}
