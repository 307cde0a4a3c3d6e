package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/terra-clan/skillpath-engine/internal/catalog"
	"github.com/terra-clan/skillpath-engine/internal/models"
)

// Client is a Go SDK for the skillpath-engine API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new skillpath-engine client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// envelope mirrors the API response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// call performs a request and decodes the data field into out (out may be
// nil when the caller only cares about success).
func (c *Client) call(ctx context.Context, method, path string, reqBody, out interface{}) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(resp, &env); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !env.Success {
		if env.Error != nil {
			return fmt.Errorf("API error: %s - %s", env.Error.Code, env.Error.Message)
		}
		return fmt.Errorf("API error: request failed")
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal data: %w", err)
		}
	}
	return nil
}

// --- Catalog ---

// CareerPathListing is the summary view returned by ListCareerPaths.
type CareerPathListing struct {
	ID       string                    `json:"id"`
	Title    string                    `json:"title"`
	Category string                    `json:"category"`
	Icon     string                    `json:"icon,omitempty"`
	Overview models.CareerPathOverview `json:"overview"`
}

// ListCareerPaths retrieves all career path listings
func (c *Client) ListCareerPaths(ctx context.Context) ([]*CareerPathListing, error) {
	var data struct {
		CareerPaths []*CareerPathListing `json:"career_paths"`
		Total       int                  `json:"total"`
	}
	if err := c.call(ctx, "GET", "/api/v1/catalog/career-paths", nil, &data); err != nil {
		return nil, err
	}
	return data.CareerPaths, nil
}

// GetCareerPath retrieves a full career path with its learning path hierarchy
func (c *Client) GetCareerPath(ctx context.Context, id string) (*models.CareerPath, error) {
	var cp models.CareerPath
	if err := c.call(ctx, "GET", fmt.Sprintf("/api/v1/catalog/career-paths/%s", id), nil, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// GetLearningPath retrieves a learning path
func (c *Client) GetLearningPath(ctx context.Context, careerPathID, learningPathID string) (*models.LearningPath, error) {
	var lp models.LearningPath
	path := fmt.Sprintf("/api/v1/catalog/career-paths/%s/learning-paths/%s", careerPathID, learningPathID)
	if err := c.call(ctx, "GET", path, nil, &lp); err != nil {
		return nil, err
	}
	return &lp, nil
}

// --- Progress ---

// GetProgress retrieves a user's progress record
func (c *Client) GetProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	var p models.UserProgress
	if err := c.call(ctx, "GET", fmt.Sprintf("/api/v1/progress/%s", userID), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkResourceRequest identifies the resource to mark via the full id chain.
type MarkResourceRequest struct {
	CareerPathID   string `json:"career_path_id"`
	LearningPathID string `json:"learning_path_id"`
	SkillID        string `json:"skill_id"`
	ResourceID     string `json:"resource_id"`
	Completed      *bool  `json:"completed,omitempty"`
}

// MarkResource marks or unmarks a resource completion
func (c *Client) MarkResource(ctx context.Context, userID string, req MarkResourceRequest) (*models.UserProgress, error) {
	var p models.UserProgress
	if err := c.call(ctx, "POST", fmt.Sprintf("/api/v1/progress/%s/resources", userID), req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddExperience grants experience to a user
func (c *Client) AddExperience(ctx context.Context, userID string, amount int) (*models.UserProgress, error) {
	var p models.UserProgress
	req := map[string]int{"amount": amount}
	if err := c.call(ctx, "POST", fmt.Sprintf("/api/v1/progress/%s/experience", userID), req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddAchievement grants an achievement to a user
func (c *Client) AddAchievement(ctx context.Context, userID, achievement string) (*models.UserProgress, error) {
	var p models.UserProgress
	req := map[string]string{"achievement": achievement}
	if err := c.call(ctx, "POST", fmt.Sprintf("/api/v1/progress/%s/achievements", userID), req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CareerPathSummary retrieves the user's aggregate completion over a career
// path
func (c *Client) CareerPathSummary(ctx context.Context, userID, careerPathID string) (*catalog.ProgressSummary, error) {
	var summary catalog.ProgressSummary
	path := fmt.Sprintf("/api/v1/progress/%s/career-paths/%s/summary", userID, careerPathID)
	if err := c.call(ctx, "GET", path, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// --- Challenges ---

// GetChallenge retrieves a user's challenge record
func (c *Client) GetChallenge(ctx context.Context, userID, challengeID string) (*models.UserChallenge, error) {
	var ch models.UserChallenge
	path := fmt.Sprintf("/api/v1/challenges/%s/%s", userID, challengeID)
	if err := c.call(ctx, "GET", path, nil, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// RecordAttempt appends a code snapshot to a challenge
func (c *Client) RecordAttempt(ctx context.Context, userID, challengeID, code string) (*models.UserChallenge, error) {
	var ch models.UserChallenge
	path := fmt.Sprintf("/api/v1/challenges/%s/%s/attempts", userID, challengeID)
	req := map[string]string{"code": code}
	if err := c.call(ctx, "POST", path, req, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// HintResult reports whether a hint was granted and the updated record.
type HintResult struct {
	Granted   bool                  `json:"granted"`
	Challenge *models.UserChallenge `json:"challenge"`
}

// UseHint consumes a hint from the challenge allowance
func (c *Client) UseHint(ctx context.Context, userID, challengeID, hintID string) (*HintResult, error) {
	var result HintResult
	path := fmt.Sprintf("/api/v1/challenges/%s/%s/hints", userID, challengeID)
	req := map[string]string{"hint_id": hintID}
	if err := c.call(ctx, "POST", path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CompletionResult bundles the completed challenge with the updated progress.
type CompletionResult struct {
	Challenge *models.UserChallenge `json:"challenge"`
	Progress  *models.UserProgress  `json:"progress"`
}

// CompleteChallenge finishes a challenge with a final solution and score
func (c *Client) CompleteChallenge(ctx context.Context, userID, challengeID, code string, score int) (*CompletionResult, error) {
	var result CompletionResult
	path := fmt.Sprintf("/api/v1/challenges/%s/%s/complete", userID, challengeID)
	req := map[string]interface{}{"code": code, "score": score}
	if err := c.call(ctx, "POST", path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Playgrounds ---

// OpenPlayground opens a playground session for a practice resource
func (c *Client) OpenPlayground(ctx context.Context, req models.CreateSessionRequest) (*models.PlaygroundSession, error) {
	var session models.PlaygroundSession
	if err := c.call(ctx, "POST", "/api/v1/playgrounds", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetPlayground retrieves a playground session
func (c *Client) GetPlayground(ctx context.Context, id string) (*models.PlaygroundSession, error) {
	var session models.PlaygroundSession
	if err := c.call(ctx, "GET", fmt.Sprintf("/api/v1/playgrounds/%s", id), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// StopPlayground stops a running playground session
func (c *Client) StopPlayground(ctx context.Context, id string) error {
	return c.call(ctx, "POST", fmt.Sprintf("/api/v1/playgrounds/%s/stop", id), nil, nil)
}

// DeletePlayground removes a playground session and its services
func (c *Client) DeletePlayground(ctx context.Context, id string) error {
	return c.call(ctx, "DELETE", fmt.Sprintf("/api/v1/playgrounds/%s", id), nil, nil)
}

// ExtendPlayground pushes out a session's expiration
func (c *Client) ExtendPlayground(ctx context.Context, id string, seconds int) (*models.PlaygroundSession, error) {
	var session models.PlaygroundSession
	req := models.ExtendSessionRequest{Seconds: seconds}
	if err := c.call(ctx, "POST", fmt.Sprintf("/api/v1/playgrounds/%s/extend", id), req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// PlaygroundLogs retrieves container logs from a session
func (c *Client) PlaygroundLogs(ctx context.Context, id string, tail int) (string, error) {
	path := fmt.Sprintf("/api/v1/playgrounds/%s/logs", id)
	if tail > 0 {
		path += fmt.Sprintf("?tail=%d", tail)
	}

	var data struct {
		Logs string `json:"logs"`
	}
	if err := c.call(ctx, "GET", path, nil, &data); err != nil {
		return "", err
	}
	return data.Logs, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, "GET", "/health", nil)
	return err
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
