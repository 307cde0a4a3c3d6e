package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/terra-clan/skillpath-engine/internal/models"
	"github.com/terra-clan/skillpath-engine/internal/storage"
)

// Common errors
var (
	ErrCareerPathNotFound   = errors.New("career path not found")
	ErrLearningPathNotFound = errors.New("learning path not found")
	ErrSkillNotFound        = errors.New("skill not found")
	ErrResourceNotFound     = errors.New("resource not found")
)

// Store owns the shared catalog snapshot. Reads go against the current
// immutable snapshot; admin writes persist the full career path document and
// rebuild the snapshot, bumping its version. Writes are last-write-wins per
// career path (no optimistic concurrency), matching the admin surface
// contract.
type Store struct {
	repo storage.Repository

	mu       sync.RWMutex
	snapshot *Snapshot
	version  int64
}

// NewStore creates a catalog store with an empty snapshot. Call Reload to
// populate it from the database.
func NewStore(repo storage.Repository) *Store {
	return &Store{
		repo:     repo,
		snapshot: NewSnapshot(0, nil),
	}
}

// Snapshot returns the current immutable catalog view. Callers keep using
// the returned snapshot even if a concurrent admin write swaps in a newer
// one; they observe a consistent catalog for the whole request.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Reload rebuilds the snapshot from the database and bumps the version.
func (s *Store) Reload(ctx context.Context) error {
	paths, err := s.repo.ListCareerPaths(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	s.mu.Lock()
	s.version++
	s.snapshot = NewSnapshot(s.version, paths)
	s.mu.Unlock()

	slog.Info("catalog snapshot rebuilt", "version", s.snapshot.Version(), "career_paths", len(paths))
	return nil
}

// Seed upserts career paths that are not yet present in the database. Seed
// data never overwrites admin edits.
func (s *Store) Seed(ctx context.Context, paths []*models.CareerPath) error {
	seeded := 0
	for _, cp := range paths {
		existing, err := s.repo.GetCareerPath(ctx, cp.ID)
		if err != nil {
			return fmt.Errorf("failed to check career path %s: %w", cp.ID, err)
		}
		if existing != nil {
			continue
		}
		if err := s.repo.UpsertCareerPath(ctx, cp); err != nil {
			return fmt.Errorf("failed to seed career path %s: %w", cp.ID, err)
		}
		seeded++
	}

	if seeded > 0 {
		slog.Info("catalog seeded", "career_paths", seeded)
	}
	return s.Reload(ctx)
}

// --- Career path mutations ---

// SaveCareerPath validates and persists a full career path document.
func (s *Store) SaveCareerPath(ctx context.Context, cp *models.CareerPath) error {
	if err := ValidateCareerPath(cp); err != nil {
		return err
	}
	if err := s.repo.UpsertCareerPath(ctx, cp); err != nil {
		return err
	}
	return s.Reload(ctx)
}

// DeleteCareerPath removes a career path. User progress referencing its
// resources is pruned asynchronously by the integrity sweeper.
func (s *Store) DeleteCareerPath(ctx context.Context, id string) error {
	if s.Snapshot().GetCareerPath(id) == nil {
		return ErrCareerPathNotFound
	}
	if err := s.repo.DeleteCareerPath(ctx, id); err != nil {
		return err
	}
	return s.Reload(ctx)
}

// mutateCareerPath loads the persisted document, applies fn, validates and
// saves. The read-modify-write is not guarded against concurrent admin
// writes; the last write wins.
func (s *Store) mutateCareerPath(ctx context.Context, careerPathID string, fn func(cp *models.CareerPath) error) error {
	cp, err := s.repo.GetCareerPath(ctx, careerPathID)
	if err != nil {
		return err
	}
	if cp == nil {
		return ErrCareerPathNotFound
	}

	if err := fn(cp); err != nil {
		return err
	}

	if err := ValidateCareerPath(cp); err != nil {
		return err
	}
	if err := s.repo.UpsertCareerPath(ctx, cp); err != nil {
		return err
	}
	return s.Reload(ctx)
}

// --- Learning path mutations ---

// SaveLearningPath inserts or replaces a learning path under a career path.
func (s *Store) SaveLearningPath(ctx context.Context, careerPathID string, lp *models.LearningPath) error {
	if lp == nil || lp.ID == "" {
		return validationErrorf("learning path id is required")
	}
	return s.mutateCareerPath(ctx, careerPathID, func(cp *models.CareerPath) error {
		for i, existing := range cp.LearningPaths {
			if existing.ID == lp.ID {
				cp.LearningPaths[i] = lp
				return nil
			}
		}
		cp.LearningPaths = append(cp.LearningPaths, lp)
		return nil
	})
}

// DeleteLearningPath removes a learning path from a career path. Fails if a
// sibling still lists it as a prerequisite.
func (s *Store) DeleteLearningPath(ctx context.Context, careerPathID, learningPathID string) error {
	return s.mutateCareerPath(ctx, careerPathID, func(cp *models.CareerPath) error {
		idx := -1
		for i, lp := range cp.LearningPaths {
			if lp.ID == learningPathID {
				idx = i
				continue
			}
			for _, prereq := range lp.Prerequisites {
				if prereq == learningPathID {
					return validationErrorf("learning path %q is a prerequisite of %q", learningPathID, lp.ID)
				}
			}
		}
		if idx < 0 {
			return ErrLearningPathNotFound
		}
		cp.LearningPaths = append(cp.LearningPaths[:idx], cp.LearningPaths[idx+1:]...)
		return nil
	})
}

// --- Skill mutations ---

// SaveSkill inserts or replaces a skill under a learning path.
func (s *Store) SaveSkill(ctx context.Context, careerPathID, learningPathID string, sk *models.Skill) error {
	if sk == nil || sk.ID == "" {
		return validationErrorf("skill id is required")
	}
	return s.mutateCareerPath(ctx, careerPathID, func(cp *models.CareerPath) error {
		lp := findLearningPath(cp, learningPathID)
		if lp == nil {
			return ErrLearningPathNotFound
		}
		for i, existing := range lp.Skills {
			if existing.ID == sk.ID {
				lp.Skills[i] = sk
				return nil
			}
		}
		lp.Skills = append(lp.Skills, sk)
		return nil
	})
}

// DeleteSkill removes a skill from a learning path. Fails if a sibling skill
// still lists it as a prerequisite.
func (s *Store) DeleteSkill(ctx context.Context, careerPathID, learningPathID, skillID string) error {
	return s.mutateCareerPath(ctx, careerPathID, func(cp *models.CareerPath) error {
		lp := findLearningPath(cp, learningPathID)
		if lp == nil {
			return ErrLearningPathNotFound
		}
		idx := -1
		for i, sk := range lp.Skills {
			if sk.ID == skillID {
				idx = i
				continue
			}
			for _, prereq := range sk.Prerequisites {
				if prereq == skillID {
					return validationErrorf("skill %q is a prerequisite of %q", skillID, sk.ID)
				}
			}
		}
		if idx < 0 {
			return ErrSkillNotFound
		}
		lp.Skills = append(lp.Skills[:idx], lp.Skills[idx+1:]...)
		return nil
	})
}

// --- Resource mutations ---

// SaveResource inserts or replaces a resource under a skill.
func (s *Store) SaveResource(ctx context.Context, careerPathID, learningPathID, skillID string, r *models.Resource) error {
	if r == nil || r.ID == "" {
		return validationErrorf("resource id is required")
	}
	if err := ValidateResource(r); err != nil {
		return err
	}
	return s.mutateCareerPath(ctx, careerPathID, func(cp *models.CareerPath) error {
		sk := findSkill(cp, learningPathID, skillID)
		if sk == nil {
			return ErrSkillNotFound
		}
		for i, existing := range sk.Resources {
			if existing.ID == r.ID {
				sk.Resources[i] = r
				return nil
			}
		}
		sk.Resources = append(sk.Resources, r)
		return nil
	})
}

// DeleteResource removes a resource from a skill.
func (s *Store) DeleteResource(ctx context.Context, careerPathID, learningPathID, skillID, resourceID string) error {
	return s.mutateCareerPath(ctx, careerPathID, func(cp *models.CareerPath) error {
		sk := findSkill(cp, learningPathID, skillID)
		if sk == nil {
			return ErrSkillNotFound
		}
		for i, r := range sk.Resources {
			if r.ID == resourceID {
				sk.Resources = append(sk.Resources[:i], sk.Resources[i+1:]...)
				return nil
			}
		}
		return ErrResourceNotFound
	})
}

func findLearningPath(cp *models.CareerPath, learningPathID string) *models.LearningPath {
	for _, lp := range cp.LearningPaths {
		if lp.ID == learningPathID {
			return lp
		}
	}
	return nil
}

func findSkill(cp *models.CareerPath, learningPathID, skillID string) *models.Skill {
	lp := findLearningPath(cp, learningPathID)
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
