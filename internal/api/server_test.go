package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/terra-clan/skillpath-engine/internal/catalog"
	"github.com/terra-clan/skillpath-engine/internal/config"
	"github.com/terra-clan/skillpath-engine/internal/models"
	"github.com/terra-clan/skillpath-engine/internal/playground"
	"github.com/terra-clan/skillpath-engine/internal/progress"
)

const testAPIKey = "sk_test_0123456789"

// fakeRepo is an in-memory Repository for handler tests.
type fakeRepo struct {
	careerPaths map[string]*models.CareerPath
	progress    map[string]*models.UserProgress
	challenges  map[string]*models.UserChallenge
	client      *models.ApiClient
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		careerPaths: make(map[string]*models.CareerPath),
		progress:    make(map[string]*models.UserProgress),
		challenges:  make(map[string]*models.UserChallenge),
		client: &models.ApiClient{
			ID:          1,
			Name:        "test-client",
			ApiKey:      testAPIKey,
			IsActive:    true,
			Permissions: []string{"*"},
		},
	}
}

func (f *fakeRepo) UpsertCareerPath(_ context.Context, cp *models.CareerPath) error {
	f.careerPaths[cp.ID] = cp
	return nil
}

func (f *fakeRepo) GetCareerPath(_ context.Context, id string) (*models.CareerPath, error) {
	return f.careerPaths[id], nil
}

func (f *fakeRepo) ListCareerPaths(_ context.Context) ([]*models.CareerPath, error) {
	var out []*models.CareerPath
	for _, cp := range f.careerPaths {
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeRepo) DeleteCareerPath(_ context.Context, id string) error {
	delete(f.careerPaths, id)
	return nil
}

func (f *fakeRepo) GetUserProgress(_ context.Context, userID string) (*models.UserProgress, error) {
	return f.progress[userID], nil
}

func (f *fakeRepo) SaveUserProgress(_ context.Context, p *models.UserProgress) error {
	f.progress[p.UserID] = p
	return nil
}

func (f *fakeRepo) ListUserProgress(_ context.Context, limit, offset int) ([]*models.UserProgress, error) {
	return nil, nil
}

func (f *fakeRepo) GetUserChallenge(_ context.Context, userID, challengeID string) (*models.UserChallenge, error) {
	return f.challenges[userID+"/"+challengeID], nil
}

func (f *fakeRepo) SaveUserChallenge(_ context.Context, c *models.UserChallenge) error {
	f.challenges[c.UserID+"/"+c.ChallengeID] = c
	return nil
}

func (f *fakeRepo) ListUserChallenges(_ context.Context, userID string) ([]*models.UserChallenge, error) {
	return nil, nil
}

func (f *fakeRepo) CompleteChallenge(ctx context.Context, c *models.UserChallenge, p *models.UserProgress) error {
	if err := f.SaveUserChallenge(ctx, c); err != nil {
		return err
	}
	return f.SaveUserProgress(ctx, p)
}

func (f *fakeRepo) CreateSession(context.Context, *models.PlaygroundSession) error { return nil }
func (f *fakeRepo) GetSession(context.Context, string) (*models.PlaygroundSession, error) {
	return nil, nil
}
func (f *fakeRepo) UpdateSession(context.Context, *models.PlaygroundSession) error { return nil }
func (f *fakeRepo) DeleteSession(context.Context, string) error                    { return nil }
func (f *fakeRepo) ListSessions(context.Context, models.SessionFilters) ([]*models.PlaygroundSession, error) {
	return nil, nil
}
func (f *fakeRepo) GetExpiredSessions(context.Context) ([]*models.PlaygroundSession, error) {
	return nil, nil
}
func (f *fakeRepo) CreateService(context.Context, string, *models.ServiceInstance) error {
	return nil
}
func (f *fakeRepo) GetServices(context.Context, string) ([]*models.ServiceInstance, error) {
	return nil, nil
}
func (f *fakeRepo) DeleteServices(context.Context, string) error { return nil }

func (f *fakeRepo) GetClientByApiKey(_ context.Context, key string) (*models.ApiClient, error) {
	if f.client != nil && f.client.ApiKey == key {
		return f.client, nil
	}
	return nil, nil
}

func (f *fakeRepo) UpdateClientLastUsed(context.Context, string) error { return nil }
func (f *fakeRepo) Ping(context.Context) error                         { return nil }
func (f *fakeRepo) Close() error                                       { return nil }

// stubRunner satisfies playground.Runner with configurable Get and Extend.
type stubRunner struct {
	getFn    func(ctx context.Context, id string) (*models.PlaygroundSession, error)
	extendFn func(ctx context.Context, id string, d time.Duration) error
}

func (s *stubRunner) Open(context.Context, models.CreateSessionRequest) (*models.PlaygroundSession, error) {
	return nil, errors.New("not implemented")
}

func (s *stubRunner) Get(ctx context.Context, id string) (*models.PlaygroundSession, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return nil, playground.ErrSessionNotFound
}

func (s *stubRunner) Stop(context.Context, string) error   { return nil }
func (s *stubRunner) Delete(context.Context, string) error { return nil }
func (s *stubRunner) List(context.Context, models.SessionFilters) ([]*models.PlaygroundSession, error) {
	return nil, nil
}

func (s *stubRunner) Extend(ctx context.Context, id string, d time.Duration) error {
	if s.extendFn != nil {
		return s.extendFn(ctx, id, d)
	}
	return playground.ErrSessionNotFound
}

func (s *stubRunner) GetLogs(context.Context, string, int) (string, error) { return "", nil }
func (s *stubRunner) ExecAttach(context.Context, string) (string, io.ReadWriteCloser, error) {
	return "", nil, errors.New("not implemented")
}
func (s *stubRunner) ExecResize(context.Context, string, uint, uint) error { return nil }
func (s *stubRunner) GetExpired(context.Context) ([]*models.PlaygroundSession, error) {
	return nil, nil
}
func (s *stubRunner) Ping(context.Context) error { return nil }
func (s *stubRunner) Close() error               { return nil }

func fixtureCareerPath() *models.CareerPath {
	return &models.CareerPath{
		ID:    "backend",
		Title: "Backend Development",
		LearningPaths: []*models.LearningPath{
			{
				ID:    "nodejs-fundamentals",
				Title: "Node.js Fundamentals",
				Level: models.LevelBeginner,
				Order: 1,
				Skills: []*models.Skill{
					{
						ID:    "node-core",
						Title: "Node Core",
						Order: 1,
						Resources: []*models.Resource{
							{ID: "node-docs", Title: "Node Docs", Type: models.ResourceDocumentation, URL: "https://example.com/node"},
							{
								ID:    "http-server-exercise",
								Title: "HTTP Server Exercise",
								Type:  models.ResourcePractice,
								Practice: &models.PracticeSpec{
									Language:    "javascript",
									StarterCode: "// start here\n",
								},
							},
						},
					},
				},
			},
		},
	}
}

func newTestServer(t *testing.T, runner playground.Runner) (*Server, *fakeRepo) {
	t.Helper()

	repo := newFakeRepo()
	store := catalog.NewStore(repo)
	if err := store.Seed(context.Background(), []*models.CareerPath{fixtureCareerPath()}); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}

	progressSvc := progress.NewService(repo, store, nil)
	return NewServer(config.ServerConfig{Port: 8080}, store, progressSvc, runner, repo), repo
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if authed {
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
	}

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var envelope struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return envelope.Data
}

func TestCatalogCollectionEndpoints(t *testing.T) {
	s, _ := newTestServer(t, &stubRunner{})

	t.Run("learning paths", func(t *testing.T) {
		rec := doRequest(t, s, "GET", "/api/v1/catalog/career-paths/backend/learning-paths", nil, false)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		data := decodeData(t, rec)
		if data["total"] != float64(1) {
			t.Errorf("expected 1 learning path, got %v", data["total"])
		}
	})

	t.Run("skills", func(t *testing.T) {
		rec := doRequest(t, s, "GET", "/api/v1/catalog/career-paths/backend/learning-paths/nodejs-fundamentals/skills", nil, false)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		data := decodeData(t, rec)
		if data["total"] != float64(1) {
			t.Errorf("expected 1 skill, got %v", data["total"])
		}
	})

	t.Run("resources", func(t *testing.T) {
		rec := doRequest(t, s, "GET", "/api/v1/catalog/career-paths/backend/learning-paths/nodejs-fundamentals/skills/node-core/resources", nil, false)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		data := decodeData(t, rec)
		if data["total"] != float64(2) {
			t.Errorf("expected 2 resources, got %v", data["total"])
		}
	})

	t.Run("unknown parents 404", func(t *testing.T) {
		for _, path := range []string{
			"/api/v1/catalog/career-paths/ghost/learning-paths",
			"/api/v1/catalog/career-paths/backend/learning-paths/ghost/skills",
			"/api/v1/catalog/career-paths/backend/learning-paths/nodejs-fundamentals/skills/ghost/resources",
		} {
			rec := doRequest(t, s, "GET", path, nil, false)
			if rec.Code != http.StatusNotFound {
				t.Errorf("%s: expected 404, got %d", path, rec.Code)
			}
		}
	})
}

func TestExtendSessionDeletedMidFlight(t *testing.T) {
	// Extend succeeds but the session vanishes before the re-fetch. The
	// handler must not answer 200 with a null payload.
	runner := &stubRunner{
		extendFn: func(context.Context, string, time.Duration) error { return nil },
		getFn: func(context.Context, string) (*models.PlaygroundSession, error) {
			return nil, playground.ErrSessionNotFound
		},
	}
	s, _ := newTestServer(t, runner)

	rec := doRequest(t, s, "POST", "/api/v1/playgrounds/sess-1/extend",
		models.ExtendSessionRequest{Seconds: 600}, true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTerminalSaveRecordsAttempt(t *testing.T) {
	s, repo := newTestServer(t, &stubRunner{})
	ctx := context.Background()

	session := &models.PlaygroundSession{
		ID:         "sess-1",
		UserID:     "u1",
		ResourceID: "http-server-exercise",
	}

	if err := s.saveAttempt(ctx, session, "const http = require('http')"); err != nil {
		t.Fatalf("saveAttempt failed: %v", err)
	}

	c, err := repo.GetUserChallenge(ctx, "u1", "http-server-exercise")
	if err != nil {
		t.Fatalf("GetUserChallenge failed: %v", err)
	}
	if c == nil {
		t.Fatal("no challenge record persisted")
	}
	if c.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", c.Attempts)
	}
	if c.Code.Current != "const http = require('http')" {
		t.Errorf("unexpected code buffer: %q", c.Code.Current)
	}
	if len(c.Code.History) != 1 || c.Code.History[0].Timestamp.IsZero() {
		t.Errorf("expected one timestamped snapshot, got %+v", c.Code.History)
	}

	if err := s.saveAttempt(ctx, session, "server.listen(3000)"); err != nil {
		t.Fatalf("second saveAttempt failed: %v", err)
	}
	c, _ = repo.GetUserChallenge(ctx, "u1", "http-server-exercise")
	if c.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", c.Attempts)
	}

	// Completed challenges refuse further saves
	c.Complete("done", 90)
	if err := repo.SaveUserChallenge(ctx, c); err != nil {
		t.Fatalf("SaveUserChallenge failed: %v", err)
	}
	if err := s.saveAttempt(ctx, session, "late"); !errors.Is(err, progress.ErrChallengeCompleted) {
		t.Errorf("expected ErrChallengeCompleted, got %v", err)
	}
}
