package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/terra-clan/skillpath-engine/internal/catalog"
	"github.com/terra-clan/skillpath-engine/internal/models"
)

// fakeRepository is an in-memory Repository for service tests.
type fakeRepository struct {
	careerPaths map[string]*models.CareerPath
	progress    map[string]*models.UserProgress
	challenges  map[string]*models.UserChallenge

	completeCalls int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		careerPaths: make(map[string]*models.CareerPath),
		progress:    make(map[string]*models.UserProgress),
		challenges:  make(map[string]*models.UserChallenge),
	}
}

func (f *fakeRepository) UpsertCareerPath(_ context.Context, cp *models.CareerPath) error {
	f.careerPaths[cp.ID] = cp
	return nil
}

func (f *fakeRepository) GetCareerPath(_ context.Context, id string) (*models.CareerPath, error) {
	return f.careerPaths[id], nil
}

func (f *fakeRepository) ListCareerPaths(_ context.Context) ([]*models.CareerPath, error) {
	var out []*models.CareerPath
	for _, cp := range f.careerPaths {
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeRepository) DeleteCareerPath(_ context.Context, id string) error {
	delete(f.careerPaths, id)
	return nil
}

func (f *fakeRepository) GetUserProgress(_ context.Context, userID string) (*models.UserProgress, error) {
	return f.progress[userID], nil
}

func (f *fakeRepository) SaveUserProgress(_ context.Context, p *models.UserProgress) error {
	f.progress[p.UserID] = p
	return nil
}

func (f *fakeRepository) ListUserProgress(_ context.Context, limit, offset int) ([]*models.UserProgress, error) {
	var out []*models.UserProgress
	for _, p := range f.progress {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepository) GetUserChallenge(_ context.Context, userID, challengeID string) (*models.UserChallenge, error) {
	return f.challenges[userID+"/"+challengeID], nil
}

func (f *fakeRepository) SaveUserChallenge(_ context.Context, c *models.UserChallenge) error {
	f.challenges[c.UserID+"/"+c.ChallengeID] = c
	return nil
}

func (f *fakeRepository) ListUserChallenges(_ context.Context, userID string) ([]*models.UserChallenge, error) {
	var out []*models.UserChallenge
	for _, c := range f.challenges {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepository) CompleteChallenge(ctx context.Context, c *models.UserChallenge, p *models.UserProgress) error {
	f.completeCalls++
	if err := f.SaveUserChallenge(ctx, c); err != nil {
		return err
	}
	return f.SaveUserProgress(ctx, p)
}

func (f *fakeRepository) CreateSession(context.Context, *models.PlaygroundSession) error { return nil }
func (f *fakeRepository) GetSession(context.Context, string) (*models.PlaygroundSession, error) {
	return nil, nil
}
func (f *fakeRepository) UpdateSession(context.Context, *models.PlaygroundSession) error { return nil }
func (f *fakeRepository) DeleteSession(context.Context, string) error                    { return nil }
func (f *fakeRepository) ListSessions(context.Context, models.SessionFilters) ([]*models.PlaygroundSession, error) {
	return nil, nil
}
func (f *fakeRepository) GetExpiredSessions(context.Context) ([]*models.PlaygroundSession, error) {
	return nil, nil
}
func (f *fakeRepository) CreateService(context.Context, string, *models.ServiceInstance) error {
	return nil
}
func (f *fakeRepository) GetServices(context.Context, string) ([]*models.ServiceInstance, error) {
	return nil, nil
}
func (f *fakeRepository) DeleteServices(context.Context, string) error { return nil }
func (f *fakeRepository) GetClientByApiKey(context.Context, string) (*models.ApiClient, error) {
	return nil, nil
}
func (f *fakeRepository) UpdateClientLastUsed(context.Context, string) error { return nil }
func (f *fakeRepository) Ping(context.Context) error                         { return nil }
func (f *fakeRepository) Close() error                                       { return nil }

func testCatalog() *models.CareerPath {
	return &models.CareerPath{
		ID:    "backend",
		Title: "Backend Development",
		LearningPaths: []*models.LearningPath{
			{
				ID:    "nodejs-fundamentals",
				Title: "Node.js Fundamentals",
				Order: 1,
				Skills: []*models.Skill{
					{
						ID:    "js-basics",
						Title: "JavaScript Basics",
						Order: 1,
						Resources: []*models.Resource{
							{ID: "mdn-js-guide", Title: "MDN Guide", Type: models.ResourceDocumentation, URL: "https://example.com/mdn"},
							{ID: "js-crash-course", Title: "Crash Course", Type: models.ResourceVideo, URL: "https://example.com/video"},
						},
					},
				},
			},
		},
	}
}

func newTestService(t *testing.T) (*Service, *fakeRepository) {
	t.Helper()

	repo := newFakeRepository()
	store := catalog.NewStore(repo)
	if err := store.Seed(context.Background(), []*models.CareerPath{testCatalog()}); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}

	return NewService(repo, store, nil), repo
}

func TestMarkResourceAwardsExperienceOnce(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.MarkResource(ctx, "u1", "backend", "nodejs-fundamentals", "js-basics", "mdn-js-guide", true)
	if err != nil {
		t.Fatalf("MarkResource failed: %v", err)
	}
	if p.Experience != ResourceExperience {
		t.Errorf("expected %d xp, got %d", ResourceExperience, p.Experience)
	}
	if p.Progress["nodejs-fundamentals"] != 50 {
		t.Errorf("expected 50%% learning path progress, got %d", p.Progress["nodejs-fundamentals"])
	}

	// Repeating the completion awards nothing
	p, err = svc.MarkResource(ctx, "u1", "backend", "nodejs-fundamentals", "js-basics", "mdn-js-guide", true)
	if err != nil {
		t.Fatalf("repeat MarkResource failed: %v", err)
	}
	if p.Experience != ResourceExperience {
		t.Errorf("repeat completion must not award xp again, got %d", p.Experience)
	}

	// Un-marking removes the pair but keeps the experience
	p, err = svc.MarkResource(ctx, "u1", "backend", "nodejs-fundamentals", "js-basics", "mdn-js-guide", false)
	if err != nil {
		t.Fatalf("unmark failed: %v", err)
	}
	if p.HasCompleted("mdn-js-guide", "js-basics") {
		t.Error("pair should be removed")
	}
	if p.Experience != ResourceExperience {
		t.Errorf("unmark must not revoke xp, got %d", p.Experience)
	}
}

func TestMarkResourceUnknownResource(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.MarkResource(context.Background(), "u1", "backend", "nodejs-fundamentals", "js-basics", "ghost", true)
	if !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestCareerPathSummary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// No progress record yet: empty summary, not an error
	summary, err := svc.CareerPathSummary(ctx, "u1", "backend")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalResources != 2 || summary.CompletedResources != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	if _, err := svc.MarkResource(ctx, "u1", "backend", "nodejs-fundamentals", "js-basics", "mdn-js-guide", true); err != nil {
		t.Fatalf("MarkResource failed: %v", err)
	}

	summary, err = svc.CareerPathSummary(ctx, "u1", "backend")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.CompletedResources != 1 || summary.PercentageComplete != 50 {
		t.Errorf("unexpected summary after completion: %+v", summary)
	}

	if _, err := svc.CareerPathSummary(ctx, "u1", "missing"); !errors.Is(err, catalog.ErrCareerPathNotFound) {
		t.Errorf("expected ErrCareerPathNotFound, got %v", err)
	}
}

func TestCompleteChallengeAwardsScore(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	if _, err := svc.RecordAttempt(ctx, "u1", "two-sum", "first try"); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}

	c, p, err := svc.CompleteChallenge(ctx, "u1", "two-sum", "final", 80)
	if err != nil {
		t.Fatalf("CompleteChallenge failed: %v", err)
	}
	if !c.Completed {
		t.Error("challenge should be completed")
	}
	if p.Experience != 80 {
		t.Errorf("score should be awarded as xp, got %d", p.Experience)
	}
	if p.Progress["challenge:two-sum"] != 100 {
		t.Errorf("challenge progress key should be 100, got %d", p.Progress["challenge:two-sum"])
	}
	if repo.completeCalls != 1 {
		t.Errorf("expected one transactional completion, got %d", repo.completeCalls)
	}

	// Terminal: a second completion is rejected and awards nothing
	_, _, err = svc.CompleteChallenge(ctx, "u1", "two-sum", "again", 100)
	if !errors.Is(err, ErrChallengeCompleted) {
		t.Errorf("expected ErrChallengeCompleted, got %v", err)
	}

	stored, err := svc.GetProgress(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if stored.Experience != 80 {
		t.Errorf("repeat completion must not award xp, got %d", stored.Experience)
	}
}

func TestUseHintRefusalIsNotAnError(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i, hint := range []string{"h1", "h2", "h3"} {
		granted, c, err := svc.UseHint(ctx, "u1", "two-sum", hint)
		if err != nil {
			t.Fatalf("UseHint failed: %v", err)
		}
		if !granted {
			t.Fatalf("hint %d should be granted", i+1)
		}
		if c.RemainingHints != models.DefaultHintAllowance-(i+1) {
			t.Errorf("expected %d remaining, got %d", models.DefaultHintAllowance-(i+1), c.RemainingHints)
		}
	}

	granted, c, err := svc.UseHint(ctx, "u1", "two-sum", "h4")
	if err != nil {
		t.Fatalf("exhausted UseHint returned error: %v", err)
	}
	if granted {
		t.Error("hint beyond the allowance should be refused")
	}
	if c == nil || c.RemainingHints != 0 {
		t.Errorf("refusal should still return the record: %+v", c)
	}
}

func TestRecordAttemptAfterCompletion(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.CompleteChallenge(ctx, "u1", "two-sum", "done", 60); err != nil {
		t.Fatalf("CompleteChallenge failed: %v", err)
	}

	if _, err := svc.RecordAttempt(ctx, "u1", "two-sum", "late"); !errors.Is(err, ErrChallengeCompleted) {
		t.Errorf("expected ErrChallengeCompleted, got %v", err)
	}
}

func TestAddExperienceRejectsNonPositive(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.AddExperience(context.Background(), "u1", 0); err == nil {
		t.Error("zero amount should be rejected")
	}
	if _, err := svc.AddExperience(context.Background(), "u1", -10); err == nil {
		t.Error("negative amount should be rejected")
	}

	p, err := svc.AddExperience(context.Background(), "u1", 120)
	if err != nil {
		t.Fatalf("AddExperience failed: %v", err)
	}
	if p.Level != 2 {
		t.Errorf("expected level 2 at 120 xp, got %d", p.Level)
	}
}
