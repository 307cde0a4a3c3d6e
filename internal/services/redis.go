package services

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/skillpath-engine/internal/models"
)

// RedisProvider provisions a namespaced keyspace per playground session.
// Redis has no database-level isolation, so sessions get a key prefix for
// logical separation.
type RedisProvider struct {
	BaseProvider
	client   *redis.Client
	host     string
	port     int
	password string
}

func NewRedisProvider(address, password string) (*RedisProvider, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	host, port := "localhost", 6379
	if h, p, err := net.SplitHostPort(address); err == nil {
		host = h
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}

	return &RedisProvider{
		BaseProvider: BaseProvider{serviceType: "redis"},
		client:       client,
		host:         host,
		port:         port,
		password:     password,
	}, nil
}

func sessionPrefix(sessionID string) string {
	return fmt.Sprintf("playground:%s:", strings.ReplaceAll(sessionID, "-", "_"))
}

// Provision reserves a key prefix for the session
func (p *RedisProvider) Provision(ctx context.Context, sessionID, serviceName string) (*models.ServiceCredentials, error) {
	prefix := sessionPrefix(sessionID)

	slog.Info("provisioning redis namespace",
		"session_id", sessionID,
		"prefix", prefix,
	)

	// Marker key tracks provisioned sessions
	markerKey := fmt.Sprintf("%s__provisioned__", prefix)
	if err := p.client.Set(ctx, markerKey, "1", 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to provision redis namespace: %w", err)
	}

	uri := fmt.Sprintf("redis://%s:%d", p.host, p.port)
	if p.password != "" {
		uri = fmt.Sprintf("redis://:%s@%s:%d", p.password, p.host, p.port)
	}

	return &models.ServiceCredentials{
		Host:     p.host,
		Port:     p.port,
		Password: p.password,
		Prefix:   prefix,
		URI:      uri,
	}, nil
}

// Deprovision removes all keys with the session prefix
func (p *RedisProvider) Deprovision(ctx context.Context, sessionID, serviceName string) error {
	prefix := sessionPrefix(sessionID)
	pattern := fmt.Sprintf("%s*", prefix)

	var cursor uint64
	var keysDeleted int

	for {
		keys, nextCursor, err := p.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			if err := p.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("failed to delete some keys", "error", err)
			}
			keysDeleted += len(keys)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	slog.Info("redis namespace deprovisioned",
		"session_id", sessionID,
		"keys_deleted", keysDeleted,
	)

	return nil
}

// HealthCheck verifies Redis connectivity
func (p *RedisProvider) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (p *RedisProvider) Close() error {
	return p.client.Close()
}
