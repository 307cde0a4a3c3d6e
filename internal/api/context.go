package api

import (
	"context"

	"github.com/terra-clan/skillpath-engine/internal/models"
)

type clientCtxKey struct{}

// ContextWithClient stores the authenticated client on the request context.
func ContextWithClient(ctx context.Context, client *models.ApiClient) context.Context {
	return context.WithValue(ctx, clientCtxKey{}, client)
}

// ClientFromContext returns the authenticated client, or nil when the
// request never passed through Authenticate.
func ClientFromContext(ctx context.Context) *models.ApiClient {
	client, _ := ctx.Value(clientCtxKey{}).(*models.ApiClient)
	return client
}
