package services

import (
	"context"

	"github.com/terra-clan/skillpath-engine/internal/models"
)

// Provider provisions backing services for playground sessions. A practice
// resource declares the services it needs (e.g. a SQL exercise needs a
// scratch database); the runner provisions them per session and tears them
// down with it.
type Provider interface {
	// Provision creates resources for a session
	Provision(ctx context.Context, sessionID, serviceName string) (*models.ServiceCredentials, error)

	// Deprovision removes all resources for a session
	Deprovision(ctx context.Context, sessionID, serviceName string) error

	// Type returns the service type name
	Type() string

	// HealthCheck checks if the service is available
	HealthCheck(ctx context.Context) error
}

// BaseProvider provides common functionality for providers
type BaseProvider struct {
	serviceType string
}

// Type returns the service type
func (p *BaseProvider) Type() string {
	return p.serviceType
}
