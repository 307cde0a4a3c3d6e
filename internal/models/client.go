package models

import (
	"strings"
	"time"
)

// ApiClient is a consumer of the engine's API, identified by its key.
type ApiClient struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	ApiKey      string            `json:"-"` // never serialize
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
	LastUsedAt  *time.Time        `json:"last_used_at,omitempty"`
	Permissions []string          `json:"permissions"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// HasPermission reports whether the client holds the required permission.
// A permission like "progress:*" grants everything under that prefix, and
// "*" grants everything.
func (c *ApiClient) HasPermission(required string) bool {
	if c == nil || !c.IsActive {
		return false
	}

	for _, perm := range c.Permissions {
		if perm == required || perm == "*" {
			return true
		}
		if strings.HasSuffix(perm, ":*") && strings.HasPrefix(required, strings.TrimSuffix(perm, "*")) {
			return true
		}
	}

	return false
}

// MaskedApiKey is the loggable form of the key.
func (c *ApiClient) MaskedApiKey() string {
	if len(c.ApiKey) < 8 {
		return "***"
	}
	return c.ApiKey[:8] + "..."
}
