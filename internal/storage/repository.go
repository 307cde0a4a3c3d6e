package storage

import (
	"context"

	"github.com/terra-clan/skillpath-engine/internal/models"
)

// Repository defines the interface for catalog and progress persistence.
// Lookup methods return (nil, nil) when the record does not exist.
type Repository interface {
	// Catalog (one row per career path, hierarchy embedded as JSONB)
	UpsertCareerPath(ctx context.Context, cp *models.CareerPath) error
	GetCareerPath(ctx context.Context, id string) (*models.CareerPath, error)
	ListCareerPaths(ctx context.Context) ([]*models.CareerPath, error)
	DeleteCareerPath(ctx context.Context, id string) error

	// User progress
	GetUserProgress(ctx context.Context, userID string) (*models.UserProgress, error)
	SaveUserProgress(ctx context.Context, p *models.UserProgress) error
	ListUserProgress(ctx context.Context, limit, offset int) ([]*models.UserProgress, error)

	// User challenges
	GetUserChallenge(ctx context.Context, userID, challengeID string) (*models.UserChallenge, error)
	SaveUserChallenge(ctx context.Context, c *models.UserChallenge) error
	ListUserChallenges(ctx context.Context, userID string) ([]*models.UserChallenge, error)

	// CompleteChallenge persists the terminal challenge state and the
	// experience-incremented progress record in a single transaction.
	CompleteChallenge(ctx context.Context, c *models.UserChallenge, p *models.UserProgress) error

	// Playground sessions
	CreateSession(ctx context.Context, s *models.PlaygroundSession) error
	GetSession(ctx context.Context, id string) (*models.PlaygroundSession, error)
	UpdateSession(ctx context.Context, s *models.PlaygroundSession) error
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context, filters models.SessionFilters) ([]*models.PlaygroundSession, error)
	GetExpiredSessions(ctx context.Context) ([]*models.PlaygroundSession, error)

	// Session services
	CreateService(ctx context.Context, sessionID string, svc *models.ServiceInstance) error
	GetServices(ctx context.Context, sessionID string) ([]*models.ServiceInstance, error)
	DeleteServices(ctx context.Context, sessionID string) error

	// API Clients
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
