package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/skillpath-engine/internal/catalog"
	"github.com/terra-clan/skillpath-engine/internal/models"
	"github.com/terra-clan/skillpath-engine/internal/playground"
)

// Playground session handlers

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "user_id is required")
		return
	}

	if req.CareerPathID == "" || req.LearningPathID == "" || req.SkillID == "" || req.ResourceID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "full resource id chain is required")
		return
	}

	session, err := s.runner.Open(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrResourceNotFound):
			respondError(w, http.StatusNotFound, "not_found", "resource not found")
		case errors.Is(err, playground.ErrNotPractice):
			respondError(w, http.StatusBadRequest, "validation_error", "resource is not a practice exercise")
		case errors.Is(err, playground.ErrLanguageNotSupported):
			respondError(w, http.StatusBadRequest, "validation_error", "no playground image for resource language")
		default:
			slog.Error("failed to open playground session", "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to open playground session")
		}
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, err := s.runner.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, playground.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		slog.Error("failed to get session", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get session")
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	filters := models.SessionFilters{
		UserID: r.URL.Query().Get("user_id"),
		Status: models.SessionStatus(r.URL.Query().Get("status")),
		Limit:  50, // default
		Offset: 0,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filters.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filters.Offset = offset
		}
	}

	sessions, err := s.runner.List(r.Context(), filters)
	if err != nil {
		slog.Error("failed to list sessions", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list sessions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.runner.Stop(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, playground.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, "not_found", "session not found")
		case errors.Is(err, playground.ErrSessionStopped):
			respondError(w, http.StatusConflict, "session_stopped", "session is already stopped")
		default:
			slog.Error("failed to stop session", "error", err, "id", id)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to stop session")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "session stopped",
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.runner.Delete(r.Context(), id); err != nil {
		if errors.Is(err, playground.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		slog.Error("failed to delete session", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "session deleted",
	})
}

func (s *Server) handleExtendSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.ExtendSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Seconds <= 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "seconds must be positive")
		return
	}

	if err := s.runner.Extend(r.Context(), id, time.Duration(req.Seconds)*time.Second); err != nil {
		switch {
		case errors.Is(err, playground.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, "not_found", "session not found")
		case errors.Is(err, playground.ErrSessionStopped):
			respondError(w, http.StatusConflict, "session_stopped", "session is already stopped")
		default:
			slog.Error("failed to extend session", "error", err, "id", id)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to extend session")
		}
		return
	}

	session, err := s.runner.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, playground.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		slog.Error("failed to reload session after extend", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load session")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleGetSessionLogs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tail := 100 // default
	if tailStr := r.URL.Query().Get("tail"); tailStr != "" {
		if t, err := strconv.Atoi(tailStr); err == nil && t > 0 {
			tail = t
		}
	}

	logs, err := s.runner.GetLogs(r.Context(), id, tail)
	if err != nil {
		if errors.Is(err, playground.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		slog.Error("failed to get logs", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get logs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"logs": logs,
	})
}
