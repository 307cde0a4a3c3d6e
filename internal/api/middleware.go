package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/terra-clan/skillpath-engine/internal/storage"
)

// AuthMiddleware resolves API keys to clients and enforces permissions.
type AuthMiddleware struct {
	repo storage.Repository
}

func NewAuthMiddleware(repo storage.Repository) *AuthMiddleware {
	return &AuthMiddleware{repo: repo}
}

// Authenticate looks up the caller by API key. Keys arrive either as
// "Authorization: Bearer <key>", a bare Authorization value, or X-API-Key.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := apiKeyFromRequest(r)
		if key == "" {
			respondError(w, http.StatusUnauthorized, "missing_api_key",
				"provide an Authorization bearer token or X-API-Key header")
			return
		}

		client, err := m.repo.GetClientByApiKey(r.Context(), key)
		if err != nil {
			slog.Error("api client lookup failed", "error", err, "key_prefix", maskKey(key))
			respondError(w, http.StatusInternalServerError, "auth_error", "internal server error")
			return
		}
		if client == nil {
			slog.Warn("unknown api key", "key_prefix", maskKey(key), "remote_addr", r.RemoteAddr)
			respondError(w, http.StatusUnauthorized, "invalid_api_key", "the provided api key is not valid")
			return
		}
		if !client.IsActive {
			slog.Warn("deactivated client rejected", "client", client.Name, "key_prefix", maskKey(key))
			respondError(w, http.StatusUnauthorized, "client_inactive", "this api key has been deactivated")
			return
		}

		// last_used_at is bookkeeping; never block the request on it
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.repo.UpdateClientLastUsed(ctx, key); err != nil {
				slog.Error("failed to update client last_used_at", "error", err, "client", client.Name)
			}
		}()

		next.ServeHTTP(w, r.WithContext(ContextWithClient(r.Context(), client)))
	})
}

// RequirePermission gates a route on a single permission string.
func (m *AuthMiddleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ClientFromContext(r.Context())
			if client == nil {
				respondError(w, http.StatusUnauthorized, "not_authenticated", "authentication required")
				return
			}

			if !client.HasPermission(permission) {
				slog.Warn("permission denied",
					"client", client.Name,
					"required", permission,
					"has", client.Permissions,
				)
				respondError(w, http.StatusForbidden, "permission_denied",
					"client does not have required permission: "+permission)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func apiKeyFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

// maskKey keeps the first 8 chars so log lines stay correlatable.
func maskKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:8] + "..."
}
