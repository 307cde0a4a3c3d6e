package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/terra-clan/skillpath-engine/internal/cache"
	"github.com/terra-clan/skillpath-engine/internal/catalog"
	"github.com/terra-clan/skillpath-engine/internal/models"
	"github.com/terra-clan/skillpath-engine/internal/storage"
)

// ResourceExperience is awarded the first time a resource is completed.
// Un-marking and re-marking a resource does not award it again: the
// completed set is the idempotency guard.
const ResourceExperience = 25

// Common errors
var (
	ErrResourceNotFound   = errors.New("resource not found in catalog")
	ErrChallengeCompleted = errors.New("challenge already completed")
)

// Service owns all user progress and challenge mutations. Progress records
// are created lazily on the first progress-affecting action.
type Service struct {
	repo    storage.Repository
	catalog *catalog.Store
	cache   *cache.ProgressCache // optional
}

// NewService creates a progress service. cache may be nil.
func NewService(repo storage.Repository, store *catalog.Store, progressCache *cache.ProgressCache) *Service {
	return &Service{
		repo:    repo,
		catalog: store,
		cache:   progressCache,
	}
}

// GetProgress returns the user's progress record, or nil when the user has
// no progress yet.
func (s *Service) GetProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	return s.repo.GetUserProgress(ctx, userID)
}

func (s *Service) loadOrInitProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	p, err := s.repo.GetUserProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = models.NewUserProgress(userID)
	}
	return p, nil
}

// MarkResource toggles completion of a resource identified by its full id
// chain. The resource must exist in the current catalog snapshot. Completing
// a resource for the first time awards experience and refreshes the
// learning-path percentage; repeating the call is a no-op.
func (s *Service) MarkResource(ctx context.Context, userID, careerPathID, learningPathID, skillID, resourceID string, completed bool) (*models.UserProgress, error) {
	snap := s.catalog.Snapshot()
	if snap.GetResource(careerPathID, learningPathID, skillID, resourceID) == nil {
		return nil, ErrResourceNotFound
	}

	p, err := s.loadOrInitProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed := p.MarkResourceComplete(resourceID, skillID, completed)
	if changed && completed {
		p.AddExperience(ResourceExperience)
	}

	if changed {
		p.UpdateProgress(learningPathID, learningPathPercentage(snap, careerPathID, learningPathID, p))
		if err := s.repo.SaveUserProgress(ctx, p); err != nil {
			return nil, err
		}
		s.invalidate(ctx, userID)
	}

	return p, nil
}

// learningPathPercentage computes the completed share of a learning path's
// resources for the progress map.
func learningPathPercentage(snap *catalog.Snapshot, careerPathID, learningPathID string, p *models.UserProgress) int {
	lp := snap.GetLearningPath(careerPathID, learningPathID)
	if lp == nil {
		return 0
	}
	total := 0
	done := 0
	for _, sk := range lp.Skills {
		for _, r := range sk.Resources {
			total++
			if p.HasCompleted(r.ID, sk.ID) {
				done++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return 100 * done / total
}

// AddExperience grants experience directly (e.g. achievements, admin
// adjustments) and persists the recomputed level.
func (s *Service) AddExperience(ctx context.Context, userID string, amount int) (*models.UserProgress, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("experience amount must be positive")
	}

	p, err := s.loadOrInitProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	p.AddExperience(amount)
	if err := s.repo.SaveUserProgress(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// AddAchievement appends an achievement id idempotently.
func (s *Service) AddAchievement(ctx context.Context, userID, achievement string) (*models.UserProgress, error) {
	if achievement == "" {
		return nil, fmt.Errorf("achievement id is required")
	}

	p, err := s.loadOrInitProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	if p.AddAchievement(achievement) {
		if err := s.repo.SaveUserProgress(ctx, p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// CareerPathSummary computes (or serves from cache) the user's aggregate
// completion over a career path.
func (s *Service) CareerPathSummary(ctx context.Context, userID, careerPathID string) (*catalog.ProgressSummary, error) {
	snap := s.catalog.Snapshot()
	if snap.GetCareerPath(careerPathID) == nil {
		return nil, catalog.ErrCareerPathNotFound
	}

	if s.cache != nil {
		if summary := s.cache.GetSummary(ctx, userID, careerPathID, snap.Version()); summary != nil {
			return summary, nil
		}
	}

	p, err := s.repo.GetUserProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	var completed []models.CompletedResource
	if p != nil {
		completed = p.CompletedResources
	}

	summary := snap.CalculateProgress(careerPathID, completed)
	if s.cache != nil {
		s.cache.SetSummary(ctx, userID, careerPathID, snap.Version(), summary)
	}
	return summary, nil
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache != nil {
		s.cache.InvalidateUser(ctx, userID)
	}
}

// --- Challenges ---

// GetChallenge returns the record for a (user, challenge) pair, or nil when
// the user has not attempted it.
func (s *Service) GetChallenge(ctx context.Context, userID, challengeID string) (*models.UserChallenge, error) {
	return s.repo.GetUserChallenge(ctx, userID, challengeID)
}

// ListChallenges returns all challenge records for a user.
func (s *Service) ListChallenges(ctx context.Context, userID string) ([]*models.UserChallenge, error) {
	return s.repo.ListUserChallenges(ctx, userID)
}

func (s *Service) loadOrInitChallenge(ctx context.Context, userID, challengeID string) (*models.UserChallenge, error) {
	c, err := s.repo.GetUserChallenge(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = models.NewUserChallenge(userID, challengeID)
	}
	return c, nil
}

// RecordAttempt appends a code snapshot to the challenge history, creating
// the record on first attempt.
func (s *Service) RecordAttempt(ctx context.Context, userID, challengeID, code string) (*models.UserChallenge, error) {
	c, err := s.loadOrInitChallenge(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}

	if !c.RecordAttempt(code) {
		return nil, ErrChallengeCompleted
	}

	if err := s.repo.SaveUserChallenge(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UseHint consumes a hint if the allowance permits. The returned bool tells
// whether the hint was granted; refusals (exhausted, reused, completed) are
// not errors.
func (s *Service) UseHint(ctx context.Context, userID, challengeID, hintID string) (bool, *models.UserChallenge, error) {
	c, err := s.loadOrInitChallenge(ctx, userID, challengeID)
	if err != nil {
		return false, nil, err
	}

	if !c.UseHint(hintID) {
		return false, c, nil
	}

	if err := s.repo.SaveUserChallenge(ctx, c); err != nil {
		return false, nil, err
	}
	return true, c, nil
}

// AddTimeSpent accumulates active working time on a challenge.
func (s *Service) AddTimeSpent(ctx context.Context, userID, challengeID string, seconds int) (*models.UserChallenge, error) {
	if seconds <= 0 {
		return nil, fmt.Errorf("seconds must be positive")
	}

	c, err := s.loadOrInitChallenge(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}

	c.AddTimeSpent(seconds)
	if err := s.repo.SaveUserChallenge(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// CompleteChallenge performs the terminal transition and awards the score as
// experience on the user's progress record. Both writes happen in one
// database transaction.
func (s *Service) CompleteChallenge(ctx context.Context, userID, challengeID, finalCode string, score int) (*models.UserChallenge, *models.UserProgress, error) {
	c, err := s.loadOrInitChallenge(ctx, userID, challengeID)
	if err != nil {
		return nil, nil, err
	}

	if !c.Complete(finalCode, score) {
		return nil, nil, ErrChallengeCompleted
	}

	p, err := s.loadOrInitProgress(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	p.AddExperience(*c.Score)
	p.UpdateProgress("challenge:"+challengeID, 100)

	if err := s.repo.CompleteChallenge(ctx, c, p); err != nil {
		return nil, nil, err
	}

	s.invalidate(ctx, userID)

	slog.Info("challenge completed",
		"user", userID,
		"challenge", challengeID,
		"score", *c.Score,
		"attempts", c.Attempts,
		"level", p.Level,
	)

	return c, p, nil
}
