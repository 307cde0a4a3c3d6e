package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	_ "github.com/lib/pq"

	"github.com/terra-clan/skillpath-engine/internal/models"
)

// PostgresProvider provisions a scratch database and user per playground
// session, for practice exercises that work against SQL.
type PostgresProvider struct {
	BaseProvider
	db   *sql.DB
	host string
	port int
}

// NewPostgresProvider connects with an admin DSN that can create databases
// and roles.
func NewPostgresProvider(dsn string) (*PostgresProvider, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	host := "localhost"
	port := 5432
	if u, err := url.Parse(dsn); err == nil && u.Host != "" {
		host = u.Hostname()
		if p, err := strconv.Atoi(u.Port()); err == nil {
			port = p
		}
	}

	return &PostgresProvider{
		BaseProvider: BaseProvider{serviceType: "postgres"},
		db:           db,
		host:         host,
		port:         port,
	}, nil
}

func sessionIdent(sessionID string) string {
	return strings.ReplaceAll(sessionID, "-", "_")
}

// Provision creates a database and user for the session
func (p *PostgresProvider) Provision(ctx context.Context, sessionID, serviceName string) (*models.ServiceCredentials, error) {
	ident := sessionIdent(sessionID)
	dbName := fmt.Sprintf("playground_%s", ident)
	userName := fmt.Sprintf("playground_user_%s", ident)
	password := generatePassword(16)

	slog.Info("provisioning postgres workspace",
		"session_id", sessionID,
		"database", dbName,
		"user", userName,
	)

	createUserSQL := fmt.Sprintf("CREATE USER %s WITH PASSWORD '%s'", userName, password)
	if _, err := p.db.ExecContext(ctx, createUserSQL); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	createDBSQL := fmt.Sprintf("CREATE DATABASE %s OWNER %s", dbName, userName)
	if _, err := p.db.ExecContext(ctx, createDBSQL); err != nil {
		// Cleanup user on failure
		_, _ = p.db.ExecContext(ctx, fmt.Sprintf("DROP USER IF EXISTS %s", userName))
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	grantSQL := fmt.Sprintf("GRANT ALL PRIVILEGES ON DATABASE %s TO %s", dbName, userName)
	if _, err := p.db.ExecContext(ctx, grantSQL); err != nil {
		slog.Warn("failed to grant privileges", "error", err)
	}

	uri := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		userName, password, p.host, p.port, dbName)

	return &models.ServiceCredentials{
		Host:     p.host,
		Port:     p.port,
		Username: userName,
		Password: password,
		Database: dbName,
		URI:      uri,
	}, nil
}

// Deprovision removes the session database and user
func (p *PostgresProvider) Deprovision(ctx context.Context, sessionID, serviceName string) error {
	ident := sessionIdent(sessionID)
	dbName := fmt.Sprintf("playground_%s", ident)
	userName := fmt.Sprintf("playground_user_%s", ident)

	slog.Info("deprovisioning postgres workspace",
		"session_id", sessionID,
		"database", dbName,
	)

	// Terminate lingering connections before dropping
	terminateSQL := fmt.Sprintf(`
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = '%s' AND pid <> pg_backend_pid()
	`, dbName)
	_, _ = p.db.ExecContext(ctx, terminateSQL)

	if _, err := p.db.ExecContext(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName)); err != nil {
		slog.Warn("failed to drop database", "error", err, "database", dbName)
	}

	if _, err := p.db.ExecContext(ctx, fmt.Sprintf("DROP USER IF EXISTS %s", userName)); err != nil {
		slog.Warn("failed to drop user", "error", err, "user", userName)
	}

	return nil
}

// HealthCheck verifies PostgreSQL connectivity
func (p *PostgresProvider) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// generatePassword creates a random password
func generatePassword(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "playground_default_pass_" + strconv.Itoa(length)
	}
	return hex.EncodeToString(bytes)[:length]
}
