package catalog

import (
	"math"
	"sort"

	"github.com/terra-clan/skillpath-engine/internal/models"
)

// Snapshot is an immutable, versioned view of the catalog. Lookups never
// error: a missing id yields nil so callers can branch on presence.
//
// Learning paths and skills are sorted by their explicit order field when
// the snapshot is built; from then on array position is authoritative for
// sequencing.
type Snapshot struct {
	version     int64
	careerPaths []*models.CareerPath
	byID        map[string]*models.CareerPath
}

// NewSnapshot builds a snapshot from career paths. The input slices are
// re-sorted in place by order; callers hand ownership to the snapshot.
func NewSnapshot(version int64, careerPaths []*models.CareerPath) *Snapshot {
	byID := make(map[string]*models.CareerPath, len(careerPaths))

	sorted := make([]*models.CareerPath, 0, len(careerPaths))
	for _, cp := range careerPaths {
		if cp == nil {
			continue
		}
		sortCareerPath(cp)
		byID[cp.ID] = cp
		sorted = append(sorted, cp)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	return &Snapshot{
		version:     version,
		careerPaths: sorted,
		byID:        byID,
	}
}

func sortCareerPath(cp *models.CareerPath) {
	sort.SliceStable(cp.LearningPaths, func(i, j int) bool {
		return cp.LearningPaths[i].Order < cp.LearningPaths[j].Order
	})
	for _, lp := range cp.LearningPaths {
		sort.SliceStable(lp.Skills, func(i, j int) bool {
			return lp.Skills[i].Order < lp.Skills[j].Order
		})
	}
}

// Version returns the snapshot's catalog version.
func (s *Snapshot) Version() int64 {
	return s.version
}

// ListCareerPaths returns all career paths in stable id order.
func (s *Snapshot) ListCareerPaths() []*models.CareerPath {
	return s.careerPaths
}

// GetCareerPath returns a career path by id, or nil when absent.
func (s *Snapshot) GetCareerPath(id string) *models.CareerPath {
	return s.byID[id]
}

// GetLearningPath returns a learning path by id chain, or nil when either
// level is missing.
func (s *Snapshot) GetLearningPath(careerPathID, learningPathID string) *models.LearningPath {
	cp := s.GetCareerPath(careerPathID)
	if cp == nil {
		return nil
	}
	for _, lp := range cp.LearningPaths {
		if lp.ID == learningPathID {
			return lp
		}
	}
	return nil
}

// GetSkill returns a skill by id chain, or nil when any level is missing.
func (s *Snapshot) GetSkill(careerPathID, learningPathID, skillID string) *models.Skill {
	lp := s.GetLearningPath(careerPathID, learningPathID)
	if lp == nil {
		return nil
	}
	for _, sk := range lp.Skills {
		if sk.ID == skillID {
			return sk
		}
	}
	return nil
}

// GetResource returns a resource by the full id chain, or nil.
func (s *Snapshot) GetResource(careerPathID, learningPathID, skillID, resourceID string) *models.Resource {
	sk := s.GetSkill(careerPathID, learningPathID, skillID)
	if sk == nil {
		return nil
	}
	for _, r := range sk.Resources {
		if r.ID == resourceID {
			return r
		}
	}
	return nil
}

// NextAvailableSkill returns the skill following currentSkillID in its
// learning path's ordered list, or nil when the current skill is unknown or
// last.
func (s *Snapshot) NextAvailableSkill(careerPathID, learningPathID, currentSkillID string) *models.Skill {
	lp := s.GetLearningPath(careerPathID, learningPathID)
	if lp == nil {
		return nil
	}
	for i, sk := range lp.Skills {
		if sk.ID == currentSkillID {
			if i+1 < len(lp.Skills) {
				return lp.Skills[i+1]
			}
			return nil
		}
	}
	return nil
}

// NextLearningPath returns the learning path following currentLearningPathID
// in the career path's ordered list, or nil.
func (s *Snapshot) NextLearningPath(careerPathID, currentLearningPathID string) *models.LearningPath {
	cp := s.GetCareerPath(careerPathID)
	if cp == nil {
		return nil
	}
	for i, lp := range cp.LearningPaths {
		if lp.ID == currentLearningPathID {
			if i+1 < len(cp.LearningPaths) {
				return cp.LearningPaths[i+1]
			}
			return nil
		}
	}
	return nil
}

// CheckPrerequisites reports whether a skill is available given the user's
// completed skill ids. A skill with no prerequisites is always available;
// otherwise every prerequisite must be in the completed set. Set membership
// is order-independent. Unknown skills are never available.
func (s *Snapshot) CheckPrerequisites(careerPathID, learningPathID, skillID string, completedSkills []string) bool {
	sk := s.GetSkill(careerPathID, learningPathID, skillID)
	if sk == nil {
		return false
	}
	if len(sk.Prerequisites) == 0 {
		return true
	}

	completed := make(map[string]bool, len(completedSkills))
	for _, id := range completedSkills {
		completed[id] = true
	}
	for _, prereq := range sk.Prerequisites {
		if !completed[prereq] {
			return false
		}
	}
	return true
}

// SkillStatus derives the available/locked status of a skill for a user.
func (s *Snapshot) SkillStatus(careerPathID, learningPathID, skillID string, completedSkills []string) models.SkillStatus {
	if s.CheckPrerequisites(careerPathID, learningPathID, skillID, completedSkills) {
		return models.SkillAvailable
	}
	return models.SkillLocked
}

// ProgressSummary aggregates completion over a career path.
type ProgressSummary struct {
	TotalResources     int `json:"total_resources"`
	CompletedResources int `json:"completed_resources"`
	PercentageComplete int `json:"percentage_complete"`
}

// CalculateProgress counts resources under the career path and the subset of
// completed pairs that resolve to them. Returns nil for an unknown career
// path and 0% (never NaN) for an empty one. Duplicate or dangling completed
// pairs are not counted.
func (s *Snapshot) CalculateProgress(careerPathID string, completed []models.CompletedResource) *ProgressSummary {
	cp := s.GetCareerPath(careerPathID)
	if cp == nil {
		return nil
	}

	// Index resources by (skillId, resourceId) pair.
	type pair struct{ skillID, resourceID string }
	known := make(map[pair]bool)
	total := 0
	for _, lp := range cp.LearningPaths {
		for _, sk := range lp.Skills {
			total += len(sk.Resources)
			for _, r := range sk.Resources {
				known[pair{sk.ID, r.ID}] = true
			}
		}
	}

	counted := make(map[pair]bool)
	done := 0
	for _, cr := range completed {
		p := pair{cr.SkillID, cr.ResourceID}
		if known[p] && !counted[p] {
			counted[p] = true
			done++
		}
	}

	pct := 0
	if total > 0 {
		pct = int(math.Round(100 * float64(done) / float64(total)))
	}

	return &ProgressSummary{
		TotalResources:     total,
		CompletedResources: done,
		PercentageComplete: pct,
	}
}

// HasResourcePair reports whether any career path contains the
// (skillId, resourceId) pair. Used by the integrity sweeper to detect
// dangling completed-resource references after catalog deletions.
func (s *Snapshot) HasResourcePair(skillID, resourceID string) bool {
	for _, cp := range s.careerPaths {
		for _, lp := range cp.LearningPaths {
			for _, sk := range lp.Skills {
				if sk.ID != skillID {
					continue
				}
				for _, r := range sk.Resources {
					if r.ID == resourceID {
						return true
					}
				}
			}
		}
	}
	return false
}
