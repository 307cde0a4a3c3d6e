package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/skillpath-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// --- Catalog ---

// UpsertCareerPath inserts or replaces a career path row. The learning-path
// hierarchy is embedded as a single JSONB document.
func (r *PostgresRepository) UpsertCareerPath(ctx context.Context, cp *models.CareerPath) error {
	overviewJSON, err := json.Marshal(cp.Overview)
	if err != nil {
		return fmt.Errorf("failed to marshal overview: %w", err)
	}

	pathsJSON, err := json.Marshal(cp.LearningPaths)
	if err != nil {
		return fmt.Errorf("failed to marshal learning paths: %w", err)
	}

	query := `
		INSERT INTO career_paths (id, title, description, category, icon, overview, learning_paths, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
		    description = EXCLUDED.description,
		    category = EXCLUDED.category,
		    icon = EXCLUDED.icon,
		    overview = EXCLUDED.overview,
		    learning_paths = EXCLUDED.learning_paths,
		    updated_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		cp.ID,
		cp.Title,
		cp.Description,
		nullString(cp.Category),
		nullString(cp.Icon),
		overviewJSON,
		pathsJSON,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert career path: %w", err)
	}

	return nil
}

// GetCareerPath retrieves a career path by ID
func (r *PostgresRepository) GetCareerPath(ctx context.Context, id string) (*models.CareerPath, error) {
	query := `
		SELECT id, title, description, category, icon, overview, learning_paths
		FROM career_paths
		WHERE id = $1
	`

	cp, err := scanCareerPath(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get career path: %w", err)
	}

	return cp, nil
}

// ListCareerPaths returns every career path row
func (r *PostgresRepository) ListCareerPaths(ctx context.Context) ([]*models.CareerPath, error) {
	query := `
		SELECT id, title, description, category, icon, overview, learning_paths
		FROM career_paths
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list career paths: %w", err)
	}
	defer rows.Close()

	var paths []*models.CareerPath
	for rows.Next() {
		cp, err := scanCareerPath(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan career path: %w", err)
		}
		paths = append(paths, cp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating career paths: %w", err)
	}

	return paths, nil
}

// DeleteCareerPath deletes a career path by ID
func (r *PostgresRepository) DeleteCareerPath(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM career_paths WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete career path: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("career path not found: %s", id)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCareerPath(row rowScanner) (*models.CareerPath, error) {
	var cp models.CareerPath
	var category, icon sql.NullString
	var overviewJSON, pathsJSON []byte

	err := row.Scan(
		&cp.ID,
		&cp.Title,
		&cp.Description,
		&category,
		&icon,
		&overviewJSON,
		&pathsJSON,
	)
	if err != nil {
		return nil, err
	}

	cp.Category = category.String
	cp.Icon = icon.String

	if overviewJSON != nil {
		if err := json.Unmarshal(overviewJSON, &cp.Overview); err != nil {
			return nil, fmt.Errorf("failed to unmarshal overview: %w", err)
		}
	}

	if err := json.Unmarshal(pathsJSON, &cp.LearningPaths); err != nil {
		return nil, fmt.Errorf("failed to unmarshal learning paths: %w", err)
	}

	return &cp, nil
}

// --- User progress ---

// GetUserProgress retrieves the progress record for a user
func (r *PostgresRepository) GetUserProgress(ctx context.Context, userID string) (*models.UserProgress, error) {
	query := `
		SELECT user_id, progress, achievements, level, experience, completed_resources, created_at, updated_at
		FROM user_progress
		WHERE user_id = $1
	`

	p, err := scanUserProgress(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}

	return p, nil
}

// SaveUserProgress upserts a user progress record
func (r *PostgresRepository) SaveUserProgress(ctx context.Context, p *models.UserProgress) error {
	return saveUserProgress(ctx, r.pool, p)
}

// pgExecer abstracts pool vs transaction for shared write helpers
type pgExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func saveUserProgress(ctx context.Context, db pgExecer, p *models.UserProgress) error {
	progressJSON, err := json.Marshal(p.Progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress map: %w", err)
	}

	achievementsJSON, err := json.Marshal(p.Achievements)
	if err != nil {
		return fmt.Errorf("failed to marshal achievements: %w", err)
	}

	completedJSON, err := json.Marshal(p.CompletedResources)
	if err != nil {
		return fmt.Errorf("failed to marshal completed resources: %w", err)
	}

	query := `
		INSERT INTO user_progress (user_id, progress, achievements, level, experience, completed_resources, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE
		SET progress = EXCLUDED.progress,
		    achievements = EXCLUDED.achievements,
		    level = EXCLUDED.level,
		    experience = EXCLUDED.experience,
		    completed_resources = EXCLUDED.completed_resources,
		    updated_at = EXCLUDED.updated_at
	`

	_, err = db.Exec(ctx, query,
		p.UserID,
		progressJSON,
		achievementsJSON,
		p.Level,
		p.Experience,
		completedJSON,
		p.CreatedAt,
		p.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save user progress: %w", err)
	}

	return nil
}

// ListUserProgress returns a page of progress records, oldest first. Used by
// the integrity sweeper to walk the full set in batches.
func (r *PostgresRepository) ListUserProgress(ctx context.Context, limit, offset int) ([]*models.UserProgress, error) {
	query := `
		SELECT user_id, progress, achievements, level, experience, completed_resources, created_at, updated_at
		FROM user_progress
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list user progress: %w", err)
	}
	defer rows.Close()

	var records []*models.UserProgress
	for rows.Next() {
		p, err := scanUserProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user progress: %w", err)
		}
		records = append(records, p)
	}

	return records, rows.Err()
}

func scanUserProgress(row rowScanner) (*models.UserProgress, error) {
	var p models.UserProgress
	var progressJSON, achievementsJSON, completedJSON []byte

	err := row.Scan(
		&p.UserID,
		&progressJSON,
		&achievementsJSON,
		&p.Level,
		&p.Experience,
		&completedJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if progressJSON != nil {
		if err := json.Unmarshal(progressJSON, &p.Progress); err != nil {
			return nil, fmt.Errorf("failed to unmarshal progress map: %w", err)
		}
	}
	if achievementsJSON != nil {
		if err := json.Unmarshal(achievementsJSON, &p.Achievements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal achievements: %w", err)
		}
	}
	if completedJSON != nil {
		if err := json.Unmarshal(completedJSON, &p.CompletedResources); err != nil {
			return nil, fmt.Errorf("failed to unmarshal completed resources: %w", err)
		}
	}

	return &p, nil
}

// --- User challenges ---

// GetUserChallenge retrieves the record for a (user, challenge) pair
func (r *PostgresRepository) GetUserChallenge(ctx context.Context, userID, challengeID string) (*models.UserChallenge, error) {
	query := `
		SELECT user_id, challenge_id, completed, completed_at, attempts, progress, time_spent, score, hints_used, remaining_hints, code, started_at, last_attempt_at, updated_at
		FROM user_challenges
		WHERE user_id = $1 AND challenge_id = $2
	`

	c, err := scanUserChallenge(r.pool.QueryRow(ctx, query, userID, challengeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user challenge: %w", err)
	}

	return c, nil
}

// SaveUserChallenge upserts a user challenge record
func (r *PostgresRepository) SaveUserChallenge(ctx context.Context, c *models.UserChallenge) error {
	query, args, err := userChallengeUpsert(c)
	if err != nil {
		return err
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save user challenge: %w", err)
	}

	return nil
}

// ListUserChallenges returns all challenge records for a user, most recent first
func (r *PostgresRepository) ListUserChallenges(ctx context.Context, userID string) ([]*models.UserChallenge, error) {
	query := `
		SELECT user_id, challenge_id, completed, completed_at, attempts, progress, time_spent, score, hints_used, remaining_hints, code, started_at, last_attempt_at, updated_at
		FROM user_challenges
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*models.UserChallenge
	for rows.Next() {
		c, err := scanUserChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user challenge: %w", err)
		}
		challenges = append(challenges, c)
	}

	return challenges, rows.Err()
}

// CompleteChallenge writes the terminal challenge state and the updated
// progress record in one transaction so a crash cannot award experience
// without recording completion, or vice versa.
func (r *PostgresRepository) CompleteChallenge(ctx context.Context, c *models.UserChallenge, p *models.UserProgress) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query, args, err := userChallengeUpsert(c)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save user challenge: %w", err)
	}

	if err := saveUserProgress(ctx, tx, p); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit challenge completion: %w", err)
	}

	return nil
}

func userChallengeUpsert(c *models.UserChallenge) (string, []any, error) {
	hintsJSON, err := json.Marshal(c.HintsUsed)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal hints: %w", err)
	}

	codeJSON, err := json.Marshal(c.Code)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal code: %w", err)
	}

	var score sql.NullInt32
	if c.Score != nil {
		score = sql.NullInt32{Int32: int32(*c.Score), Valid: true}
	}

	query := `
		INSERT INTO user_challenges (user_id, challenge_id, completed, completed_at, attempts, progress, time_spent, score, hints_used, remaining_hints, code, started_at, last_attempt_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id, challenge_id) DO UPDATE
		SET completed = EXCLUDED.completed,
		    completed_at = EXCLUDED.completed_at,
		    attempts = EXCLUDED.attempts,
		    progress = EXCLUDED.progress,
		    time_spent = EXCLUDED.time_spent,
		    score = EXCLUDED.score,
		    hints_used = EXCLUDED.hints_used,
		    remaining_hints = EXCLUDED.remaining_hints,
		    code = EXCLUDED.code,
		    last_attempt_at = EXCLUDED.last_attempt_at,
		    updated_at = EXCLUDED.updated_at
	`

	args := []any{
		c.UserID,
		c.ChallengeID,
		c.Completed,
		nullTime(c.CompletedAt),
		c.Attempts,
		c.Progress,
		c.TimeSpent,
		score,
		hintsJSON,
		c.RemainingHints,
		codeJSON,
		c.StartedAt,
		nullTime(c.LastAttemptAt),
		c.UpdatedAt,
	}

	return query, args, nil
}

func scanUserChallenge(row rowScanner) (*models.UserChallenge, error) {
	var c models.UserChallenge
	var completedAt, lastAttemptAt sql.NullTime
	var score sql.NullInt32
	var hintsJSON, codeJSON []byte

	err := row.Scan(
		&c.UserID,
		&c.ChallengeID,
		&c.Completed,
		&completedAt,
		&c.Attempts,
		&c.Progress,
		&c.TimeSpent,
		&score,
		&hintsJSON,
		&c.RemainingHints,
		&codeJSON,
		&c.StartedAt,
		&lastAttemptAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		c.CompletedAt = &completedAt.Time
	}
	if lastAttemptAt.Valid {
		c.LastAttemptAt = &lastAttemptAt.Time
	}
	if score.Valid {
		s := int(score.Int32)
		c.Score = &s
	}

	if hintsJSON != nil {
		if err := json.Unmarshal(hintsJSON, &c.HintsUsed); err != nil {
			return nil, fmt.Errorf("failed to unmarshal hints: %w", err)
		}
	}
	if codeJSON != nil {
		if err := json.Unmarshal(codeJSON, &c.Code); err != nil {
			return nil, fmt.Errorf("failed to unmarshal code: %w", err)
		}
	}

	return &c, nil
}

// --- Playground sessions ---

// CreateSession creates a new playground session record
func (r *PostgresRepository) CreateSession(ctx context.Context, s *models.PlaygroundSession) error {
	query := `
		INSERT INTO playground_sessions (id, user_id, career_path_id, learning_path_id, skill_id, resource_id, language, status, status_message, container_id, created_at, started_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.CareerPathID,
		s.LearningPathID,
		s.SkillID,
		s.ResourceID,
		s.Language,
		string(s.Status),
		nullString(s.StatusMsg),
		nullString(s.ContainerID),
		s.CreatedAt,
		nullTime(s.StartedAt),
		s.ExpiresAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetSession retrieves a playground session by ID
func (r *PostgresRepository) GetSession(ctx context.Context, id string) (*models.PlaygroundSession, error) {
	query := `
		SELECT id, user_id, career_path_id, learning_path_id, skill_id, resource_id, language, status, status_message, container_id, created_at, started_at, expires_at
		FROM playground_sessions
		WHERE id = $1
	`

	s, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	services, err := r.GetServices(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get services: %w", err)
	}

	s.Services = make(map[string]*models.ServiceInstance)
	for _, svc := range services {
		s.Services[svc.Name] = svc
	}

	return s, nil
}

// UpdateSession updates an existing playground session
func (r *PostgresRepository) UpdateSession(ctx context.Context, s *models.PlaygroundSession) error {
	query := `
		UPDATE playground_sessions
		SET status = $2, status_message = $3, container_id = $4, started_at = $5, expires_at = $6
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		s.ID,
		string(s.Status),
		nullString(s.StatusMsg),
		nullString(s.ContainerID),
		nullTime(s.StartedAt),
		s.ExpiresAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found: %s", s.ID)
	}

	return nil
}

// DeleteSession deletes a playground session by ID
func (r *PostgresRepository) DeleteSession(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM playground_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found: %s", id)
	}

	return nil
}

// ListSessions returns playground sessions matching filters
func (r *PostgresRepository) ListSessions(ctx context.Context, filters models.SessionFilters) ([]*models.PlaygroundSession, error) {
	query := `
		SELECT id, user_id, career_path_id, learning_path_id, skill_id, resource_id, language, status, status_message, container_id, created_at, started_at, expires_at
		FROM playground_sessions
		WHERE 1=1
	`
	args := make([]any, 0)
	argNum := 1

	if filters.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argNum)
		args = append(args, filters.UserID)
		argNum++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(filters.Status))
		argNum++
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filters.Limit)
		argNum++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filters.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.PlaygroundSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// GetExpiredSessions returns all non-terminal sessions past their TTL
func (r *PostgresRepository) GetExpiredSessions(ctx context.Context) ([]*models.PlaygroundSession, error) {
	query := `
		SELECT id, user_id, career_path_id, learning_path_id, skill_id, resource_id, language, status, status_message, container_id, created_at, started_at, expires_at
		FROM playground_sessions
		WHERE status NOT IN ('stopped', 'failed', 'expired')
		  AND expires_at < NOW()
		ORDER BY expires_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.PlaygroundSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

func scanSession(row rowScanner) (*models.PlaygroundSession, error) {
	var s models.PlaygroundSession
	var statusStr string
	var statusMsg, containerID sql.NullString
	var startedAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.CareerPathID,
		&s.LearningPathID,
		&s.SkillID,
		&s.ResourceID,
		&s.Language,
		&statusStr,
		&statusMsg,
		&containerID,
		&s.CreatedAt,
		&startedAt,
		&s.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	s.Status = models.SessionStatus(statusStr)
	s.StatusMsg = statusMsg.String
	s.ContainerID = containerID.String
	if startedAt.Valid {
		s.StartedAt = &startedAt.Time
	}

	return &s, nil
}

// --- Session services ---

// CreateService creates a new service instance for a session
func (r *PostgresRepository) CreateService(ctx context.Context, sessionID string, svc *models.ServiceInstance) error {
	credentialsJSON, err := json.Marshal(svc.Credentials)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	query := `
		INSERT INTO session_services (session_id, service_name, service_type, status, credentials, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, service_name) DO UPDATE
		SET status = EXCLUDED.status, credentials = EXCLUDED.credentials
	`

	_, err = r.pool.Exec(ctx, query,
		sessionID,
		svc.Name,
		svc.Type,
		svc.Status,
		credentialsJSON,
		svc.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	return nil
}

// GetServices retrieves all services for a session
func (r *PostgresRepository) GetServices(ctx context.Context, sessionID string) ([]*models.ServiceInstance, error) {
	query := `
		SELECT service_name, service_type, status, credentials, created_at
		FROM session_services
		WHERE session_id = $1
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get services: %w", err)
	}
	defer rows.Close()

	var services []*models.ServiceInstance
	for rows.Next() {
		var svc models.ServiceInstance
		var credentialsJSON []byte

		err := rows.Scan(
			&svc.Name,
			&svc.Type,
			&svc.Status,
			&credentialsJSON,
			&svc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}

		if credentialsJSON != nil {
			if err := json.Unmarshal(credentialsJSON, &svc.Credentials); err != nil {
				return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
			}
		}

		services = append(services, &svc)
	}

	return services, rows.Err()
}

// DeleteServices deletes all services for a session
func (r *PostgresRepository) DeleteServices(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM session_services WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete services: %w", err)
	}

	return nil
}

// --- API clients ---

// GetClientByApiKey retrieves an API client by its key
func (r *PostgresRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions, metadata
		FROM api_clients
		WHERE api_key = $1
	`

	var client models.ApiClient
	var lastUsedAt sql.NullTime
	var permissionsJSON, metadataJSON []byte

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.ApiKey,
		&client.IsActive,
		&client.CreatedAt,
		&lastUsedAt,
		&permissionsJSON,
		&metadataJSON,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if lastUsedAt.Valid {
		client.LastUsedAt = &lastUsedAt.Time
	}

	if permissionsJSON != nil {
		if err := json.Unmarshal(permissionsJSON, &client.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
	}

	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &client.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for a client
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update client last_used_at: %w", err)
	}

	return nil
}

// Helper functions for nullable values

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
