package models

import (
	"math"
	"time"
)

// CompletedResource identifies a finished resource. Resource IDs are only
// unique within their skill, so the pair is the composite key.
type CompletedResource struct {
	ResourceID string `json:"resourceId"`
	SkillID    string `json:"skillId"`
}

// UserProgress is the per-user aggregate of experience, level, achievements
// and the completed-resource set. One record per user, created lazily on the
// first progress-affecting action.
type UserProgress struct {
	UserID             string              `json:"user_id"`
	Progress           map[string]int      `json:"progress"` // learning-path or skill id -> percentage
	Achievements       []string            `json:"achievements"`
	Level              int                 `json:"level"`
	Experience         int                 `json:"experience"`
	CompletedResources []CompletedResource `json:"completed_resources"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// NewUserProgress returns a fresh progress record at level 1 with no
// experience.
func NewUserProgress(userID string) *UserProgress {
	now := time.Now()
	return &UserProgress{
		UserID:    userID,
		Progress:  make(map[string]int),
		Level:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// LevelForExperience computes the level implied by an experience total.
func LevelForExperience(experience int) int {
	if experience < 0 {
		experience = 0
	}
	return int(math.Floor(math.Sqrt(float64(experience)/100))) + 1
}

// AddExperience increments experience and recomputes the level. Negative
// amounts are ignored.
func (p *UserProgress) AddExperience(amount int) {
	if amount <= 0 {
		return
	}
	p.Experience += amount
	p.Level = LevelForExperience(p.Experience)
	p.UpdatedAt = time.Now()
}

// NextLevelExperience returns the experience total required to reach the
// next level. Derived, never persisted.
func (p *UserProgress) NextLevelExperience() int {
	return p.Level * p.Level * 100
}

// ExperienceToNextLevel returns how much experience is still missing for the
// next level.
func (p *UserProgress) ExperienceToNextLevel() int {
	remaining := p.NextLevelExperience() - p.Experience
	if remaining < 0 {
		return 0
	}
	return remaining
}

// UpdateProgress upserts a percentage for a learning-path or skill key,
// clamped to [0, 100].
func (p *UserProgress) UpdateProgress(key string, value int) {
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	if p.Progress == nil {
		p.Progress = make(map[string]int)
	}
	p.Progress[key] = value
	p.UpdatedAt = time.Now()
}

// AddAchievement appends an achievement id if not already present.
func (p *UserProgress) AddAchievement(achievement string) bool {
	for _, a := range p.Achievements {
		if a == achievement {
			return false
		}
	}
	p.Achievements = append(p.Achievements, achievement)
	p.UpdatedAt = time.Now()
	return true
}

// HasCompleted reports whether the (resourceId, skillId) pair is in the
// completed set.
func (p *UserProgress) HasCompleted(resourceID, skillID string) bool {
	for _, cr := range p.CompletedResources {
		if cr.ResourceID == resourceID && cr.SkillID == skillID {
			return true
		}
	}
	return false
}

// MarkResourceComplete toggles membership of the (resourceId, skillId) pair
// in the completed set. Idempotent in both directions: repeating the same
// call leaves the set unchanged. Returns true when the set actually changed.
func (p *UserProgress) MarkResourceComplete(resourceID, skillID string, completed bool) bool {
	if completed {
		if p.HasCompleted(resourceID, skillID) {
			return false
		}
		p.CompletedResources = append(p.CompletedResources, CompletedResource{
			ResourceID: resourceID,
			SkillID:    skillID,
		})
		p.UpdatedAt = time.Now()
		return true
	}

	for i, cr := range p.CompletedResources {
		if cr.ResourceID == resourceID && cr.SkillID == skillID {
			p.CompletedResources = append(p.CompletedResources[:i], p.CompletedResources[i+1:]...)
			p.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// CompletedSkillIDs returns the distinct skill ids for which the user has at
// least one completed resource. Used for prerequisite checks.
func (p *UserProgress) CompletedSkillIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, cr := range p.CompletedResources {
		if !seen[cr.SkillID] {
			seen[cr.SkillID] = true
			ids = append(ids, cr.SkillID)
		}
	}
	return ids
}
