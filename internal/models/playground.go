package models

import (
	"time"
)

// SessionStatus represents the current state of a playground session.
type SessionStatus string

const (
	SessionPending SessionStatus = "pending"
	SessionRunning SessionStatus = "running"
	SessionStopped SessionStatus = "stopped"
	SessionFailed  SessionStatus = "failed"
	SessionExpired SessionStatus = "expired"
)

// IsTerminal returns true if the status is a terminal state.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStopped || s == SessionFailed || s == SessionExpired
}

// IsRunning returns true if the session container is live.
func (s SessionStatus) IsRunning() bool {
	return s == SessionRunning
}

// PlaygroundSession is an isolated container opened for a practice-type
// resource, identified by the full id chain into the catalog.
type PlaygroundSession struct {
	ID             string                      `json:"id"`
	UserID         string                      `json:"user_id"`
	CareerPathID   string                      `json:"career_path_id"`
	LearningPathID string                      `json:"learning_path_id"`
	SkillID        string                      `json:"skill_id"`
	ResourceID     string                      `json:"resource_id"`
	Language       string                      `json:"language"`
	Status         SessionStatus               `json:"status"`
	StatusMsg      string                      `json:"status_message,omitempty"`
	ContainerID    string                      `json:"container_id,omitempty"`
	Services       map[string]*ServiceInstance `json:"services,omitempty"`
	CreatedAt      time.Time                   `json:"created_at"`
	StartedAt      *time.Time                  `json:"started_at,omitempty"`
	ExpiresAt      time.Time                   `json:"expires_at"`
}

// IsExpired checks if the session TTL has elapsed.
func (s *PlaygroundSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// ServiceInstance is a backing service provisioned for a session.
type ServiceInstance struct {
	Name        string              `json:"name"`
	Type        string              `json:"type"`
	Status      string              `json:"status"`
	Credentials *ServiceCredentials `json:"credentials,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// ServiceCredentials holds connection information for a provisioned service.
type ServiceCredentials struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Database string `json:"database,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// SessionFilters defines filters for listing playground sessions.
type SessionFilters struct {
	UserID string
	Status SessionStatus
	Limit  int
	Offset int
}

// CreateSessionRequest asks for a playground session against a practice
// resource.
type CreateSessionRequest struct {
	UserID         string `json:"user_id"`
	CareerPathID   string `json:"career_path_id"`
	LearningPathID string `json:"learning_path_id"`
	SkillID        string `json:"skill_id"`
	ResourceID     string `json:"resource_id"`
	TTLSeconds     int    `json:"ttl_seconds,omitempty"`
}

// ExtendSessionRequest extends a session's lifetime.
type ExtendSessionRequest struct {
	Seconds int `json:"seconds"`
}
