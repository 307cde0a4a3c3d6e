package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/skillpath-engine/internal/models"
)

// Catalog handlers serve read-only views over the current snapshot.

// careerPathListing is the landing-page projection of a career path. The full
// hierarchy is only returned from the single-path endpoint.
type careerPathListing struct {
	ID       string                    `json:"id"`
	Title    string                    `json:"title"`
	Category string                    `json:"category"`
	Icon     string                    `json:"icon,omitempty"`
	Overview models.CareerPathOverview `json:"overview"`
}

func (s *Server) handleListCareerPaths(w http.ResponseWriter, r *http.Request) {
	paths := s.catalog.Snapshot().ListCareerPaths()

	listings := make([]careerPathListing, 0, len(paths))
	for _, cp := range paths {
		listings = append(listings, careerPathListing{
			ID:       cp.ID,
			Title:    cp.Title,
			Category: cp.Category,
			Icon:     cp.Icon,
			Overview: cp.Overview,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"career_paths": listings,
		"total":        len(listings),
	})
}

func (s *Server) handleGetCareerPath(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "careerPathID")

	cp := s.catalog.Snapshot().GetCareerPath(id)
	if cp == nil {
		respondError(w, http.StatusNotFound, "not_found", "career path not found")
		return
	}

	respondJSON(w, http.StatusOK, cp)
}

// learningPathListing omits the nested skills; those come from the skill
// endpoints.
type learningPathListing struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Level          models.DifficultyLevel `json:"level"`
	Order          int                    `json:"order"`
	EstimatedWeeks int                    `json:"estimated_weeks,omitempty"`
	SkillCount     int                    `json:"skill_count"`
}

func (s *Server) handleListLearningPaths(w http.ResponseWriter, r *http.Request) {
	careerPathID := chi.URLParam(r, "careerPathID")

	cp := s.catalog.Snapshot().GetCareerPath(careerPathID)
	if cp == nil {
		respondError(w, http.StatusNotFound, "not_found", "career path not found")
		return
	}

	listings := make([]learningPathListing, 0, len(cp.LearningPaths))
	for _, lp := range cp.LearningPaths {
		listings = append(listings, learningPathListing{
			ID:             lp.ID,
			Title:          lp.Title,
			Description:    lp.Description,
			Level:          lp.Level,
			Order:          lp.Order,
			EstimatedWeeks: lp.EstimatedWeeks,
			SkillCount:     len(lp.Skills),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"learning_paths": listings,
		"total":          len(listings),
	})
}

func (s *Server) handleGetLearningPath(w http.ResponseWriter, r *http.Request) {
	careerPathID := chi.URLParam(r, "careerPathID")
	learningPathID := chi.URLParam(r, "learningPathID")

	lp := s.catalog.Snapshot().GetLearningPath(careerPathID, learningPathID)
	if lp == nil {
		respondError(w, http.StatusNotFound, "not_found", "learning path not found")
		return
	}

	respondJSON(w, http.StatusOK, lp)
}

func (s *Server) handleNextLearningPath(w http.ResponseWriter, r *http.Request) {
	careerPathID := chi.URLParam(r, "careerPathID")
	learningPathID := chi.URLParam(r, "learningPathID")

	snap := s.catalog.Snapshot()
	if snap.GetLearningPath(careerPathID, learningPathID) == nil {
		respondError(w, http.StatusNotFound, "not_found", "learning path not found")
		return
	}

	// Last learning path has no successor; the data field stays null.
	next := snap.NextLearningPath(careerPathID, learningPathID)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"next": next,
	})
}

// skillListing omits the nested resources.
type skillListing struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Order         int      `json:"order"`
	Prerequisites []string `json:"prerequisites,omitempty"`
	ResourceCount int      `json:"resource_count"`
}

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	careerPathID := chi.URLParam(r, "careerPathID")
	learningPathID := chi.URLParam(r, "learningPathID")

	lp := s.catalog.Snapshot().GetLearningPath(careerPathID, learningPathID)
	if lp == nil {
		respondError(w, http.StatusNotFound, "not_found", "learning path not found")
		return
	}

	listings := make([]skillListing, 0, len(lp.Skills))
	for _, sk := range lp.Skills {
		listings = append(listings, skillListing{
			ID:            sk.ID,
			Title:         sk.Title,
			Description:   sk.Description,
			Order:         sk.Order,
			Prerequisites: sk.Prerequisites,
			ResourceCount: len(sk.Resources),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"skills": listings,
		"total":  len(listings),
	})
}

// handleGetSkill returns a skill. When a user_id query parameter is present
// the response includes that user's derived available/locked status.
func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	careerPathID := chi.URLParam(r, "careerPathID")
	learningPathID := chi.URLParam(r, "learningPathID")
	skillID := chi.URLParam(r, "skillID")

	snap := s.catalog.Snapshot()
	skill := snap.GetSkill(careerPathID, learningPathID, skillID)
	if skill == nil {
		respondError(w, http.StatusNotFound, "not_found", "skill not found")
		return
	}

	resp := map[string]interface{}{
		"skill": skill,
	}

	if userID := r.URL.Query().Get("user_id"); userID != "" {
		p, err := s.progress.GetProgress(r.Context(), userID)
		if err != nil {
			slog.Error("failed to get user progress", "error", err, "user", userID)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to get user progress")
			return
		}

		var completed []string
		if p != nil {
			completed = p.CompletedSkillIDs()
		}
		resp["status"] = snap.SkillStatus(careerPathID, learningPathID, skillID, completed)
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNextSkill(w http.ResponseWriter, r *http.Request) {
	careerPathID := chi.URLParam(r, "careerPathID")
	learningPathID := chi.URLParam(r, "learningPathID")
	skillID := chi.URLParam(r, "skillID")

	snap := s.catalog.Snapshot()
	if snap.GetSkill(careerPathID, learningPathID, skillID) == nil {
		respondError(w, http.StatusNotFound, "not_found", "skill not found")
		return
	}

	next := snap.NextAvailableSkill(careerPathID, learningPathID, skillID)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"next": next,
	})
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	careerPathID := chi.URLParam(r, "careerPathID")
	learningPathID := chi.URLParam(r, "learningPathID")
	skillID := chi.URLParam(r, "skillID")

	skill := s.catalog.Snapshot().GetSkill(careerPathID, learningPathID, skillID)
	if skill == nil {
		respondError(w, http.StatusNotFound, "not_found", "skill not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"resources": skill.Resources,
		"total":     len(skill.Resources),
	})
}

func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	careerPathID := chi.URLParam(r, "careerPathID")
	learningPathID := chi.URLParam(r, "learningPathID")
	skillID := chi.URLParam(r, "skillID")
	resourceID := chi.URLParam(r, "resourceID")

	resource := s.catalog.Snapshot().GetResource(careerPathID, learningPathID, skillID, resourceID)
	if resource == nil {
		respondError(w, http.StatusNotFound, "not_found", "resource not found")
		return
	}

	respondJSON(w, http.StatusOK, resource)
}
