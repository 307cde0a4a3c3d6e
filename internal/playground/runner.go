package playground

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"

	"github.com/terra-clan/skillpath-engine/internal/catalog"
	"github.com/terra-clan/skillpath-engine/internal/config"
	"github.com/terra-clan/skillpath-engine/internal/models"
	"github.com/terra-clan/skillpath-engine/internal/services"
	"github.com/terra-clan/skillpath-engine/internal/storage"
)

// Common errors
var (
	ErrSessionNotFound      = errors.New("playground session not found")
	ErrSessionStopped       = errors.New("playground session is already stopped")
	ErrNotPractice          = errors.New("resource is not a practice exercise")
	ErrLanguageNotSupported = errors.New("no playground image for language")
)

// Runner manages playground sessions for practice resources.
type Runner interface {
	Open(ctx context.Context, req models.CreateSessionRequest) (*models.PlaygroundSession, error)
	Get(ctx context.Context, id string) (*models.PlaygroundSession, error)
	Stop(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters models.SessionFilters) ([]*models.PlaygroundSession, error)
	Extend(ctx context.Context, id string, duration time.Duration) error
	GetLogs(ctx context.Context, id string, tail int) (string, error)
	ExecAttach(ctx context.Context, containerID string) (string, io.ReadWriteCloser, error)
	ExecResize(ctx context.Context, execID string, height, width uint) error
	GetExpired(ctx context.Context) ([]*models.PlaygroundSession, error)
	Ping(ctx context.Context) error
	Close() error
}

// DockerRunner implements Runner with one Docker container per session.
type DockerRunner struct {
	docker   *client.Client
	config   config.PlaygroundConfig
	registry *services.Registry
	catalog  *catalog.Store
	repo     storage.Repository
}

// NewDockerRunner creates a runner backed by the local Docker daemon.
func NewDockerRunner(
	cfg config.PlaygroundConfig,
	registry *services.Registry,
	store *catalog.Store,
	repo storage.Repository,
) (*DockerRunner, error) {
	cli, err := client.NewClientWithOpts(
		client.WithHost(cfg.DockerHost),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	return &DockerRunner{
		docker:   cli,
		config:   cfg,
		registry: registry,
		catalog:  store,
		repo:     repo,
	}, nil
}

// Ping checks Docker and database connectivity.
func (r *DockerRunner) Ping(ctx context.Context) error {
	if _, err := r.docker.Ping(ctx); err != nil {
		return fmt.Errorf("docker ping failed: %w", err)
	}
	if err := r.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Open creates a session for a practice resource. The container is started
// asynchronously; the returned session is in pending state.
func (r *DockerRunner) Open(ctx context.Context, req models.CreateSessionRequest) (*models.PlaygroundSession, error) {
	resource := r.catalog.Snapshot().GetResource(req.CareerPathID, req.LearningPathID, req.SkillID, req.ResourceID)
	if resource == nil {
		return nil, catalog.ErrResourceNotFound
	}
	if !resource.IsPractice() || resource.Practice == nil {
		return nil, ErrNotPractice
	}

	image, ok := r.config.Images[resource.Practice.Language]
	if !ok {
		return nil, ErrLanguageNotSupported
	}

	ttl := r.config.SessionTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}

	now := time.Now()
	session := &models.PlaygroundSession{
		ID:             uuid.New().String()[:12],
		UserID:         req.UserID,
		CareerPathID:   req.CareerPathID,
		LearningPathID: req.LearningPathID,
		SkillID:        req.SkillID,
		ResourceID:     req.ResourceID,
		Language:       resource.Practice.Language,
		Status:         models.SessionPending,
		Services:       make(map[string]*models.ServiceInstance),
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
	}

	if err := r.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	go r.provision(context.Background(), session, resource, image)

	slog.Info("playground session opened",
		"id", session.ID,
		"user", req.UserID,
		"resource", req.ResourceID,
		"language", session.Language,
		"expires_at", session.ExpiresAt,
	)

	return session, nil
}

// provision brings up backing services and the session container.
func (r *DockerRunner) provision(ctx context.Context, session *models.PlaygroundSession, resource *models.Resource, image string) {
	for _, serviceName := range resource.Practice.Services {
		provider := r.registry.Get(serviceName)
		if provider == nil {
			r.updateStatus(ctx, session.ID, models.SessionFailed, fmt.Sprintf("unknown service: %s", serviceName))
			return
		}

		creds, err := provider.Provision(ctx, session.ID, serviceName)
		if err != nil {
			r.updateStatus(ctx, session.ID, models.SessionFailed, fmt.Sprintf("failed to provision %s: %v", serviceName, err))
			return
		}

		svc := &models.ServiceInstance{
			Name:        serviceName,
			Type:        provider.Type(),
			Status:      "ready",
			Credentials: creds,
			CreatedAt:   time.Now(),
		}

		if err := r.repo.CreateService(ctx, session.ID, svc); err != nil {
			slog.Error("failed to save service", "error", err, "session", session.ID, "service", serviceName)
		}

		session.Services[serviceName] = svc
	}

	if err := r.pullImage(ctx, image); err != nil {
		r.updateStatus(ctx, session.ID, models.SessionFailed, fmt.Sprintf("failed to pull image: %v", err))
		return
	}

	containerID, err := r.createContainer(ctx, session, resource, image)
	if err != nil {
		r.updateStatus(ctx, session.ID, models.SessionFailed, fmt.Sprintf("failed to create container: %v", err))
		return
	}
	session.ContainerID = containerID

	if err := r.docker.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		r.updateStatus(ctx, session.ID, models.SessionFailed, fmt.Sprintf("failed to start container: %v", err))
		return
	}

	now := time.Now()
	session.StartedAt = &now
	session.Status = models.SessionRunning
	session.StatusMsg = ""

	if err := r.repo.UpdateSession(ctx, session); err != nil {
		slog.Error("failed to update session", "error", err, "id", session.ID)
	}

	slog.Info("playground session running", "id", session.ID, "container", containerID)
}

func (r *DockerRunner) pullImage(ctx context.Context, imageName string) error {
	if r.config.PullPolicy == "never" {
		return nil
	}

	_, _, err := r.docker.ImageInspectWithRaw(ctx, imageName)
	if err == nil && r.config.PullPolicy == "if-not-present" {
		return nil
	}

	slog.Info("pulling playground image", "image", imageName)
	out, err := r.docker.ImagePull(ctx, imageName, types.ImagePullOptions{})
	if err != nil {
		return err
	}
	defer out.Close()

	_, _ = io.Copy(io.Discard, out)
	return nil
}

func (r *DockerRunner) createContainer(ctx context.Context, session *models.PlaygroundSession, resource *models.Resource, image string) (string, error) {
	containerName := fmt.Sprintf("playground-%s", session.ID)

	env := []string{
		fmt.Sprintf("PLAYGROUND_SESSION_ID=%s", session.ID),
		fmt.Sprintf("PLAYGROUND_USER_ID=%s", session.UserID),
		fmt.Sprintf("PLAYGROUND_LANGUAGE=%s", session.Language),
		fmt.Sprintf("PLAYGROUND_RESOURCE_ID=%s", session.ResourceID),
	}

	// Service credentials as env, prefixed by service name
	for name, svc := range session.Services {
		if svc.Credentials == nil {
			continue
		}
		env = append(env, credentialEnv(name, svc.Credentials)...)
	}

	labels := map[string]string{
		"playground.session":  session.ID,
		"playground.user":     session.UserID,
		"playground.resource": session.ResourceID,
		"playground.managed":  "true",
	}

	containerConfig := &container.Config{
		Tty:          true,
		OpenStdin:    true,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		Image:        image,
		Env:          env,
		ExposedPorts: nat.PortSet{},
		Labels:       labels,
	}

	hostConfig := &container.HostConfig{
		Resources: container.Resources{
			Memory:   r.config.MemoryLimitBytes,
			NanoCPUs: r.config.NanoCPUs,
		},
		NetworkMode: container.NetworkMode(r.config.Network),
		AutoRemove:  false,
		RestartPolicy: container.RestartPolicy{
			Name: container.RestartPolicyDisabled,
		},
	}

	resp, err := r.docker.ContainerCreate(ctx, containerConfig, hostConfig, &network.NetworkingConfig{}, nil, containerName)
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}

	return resp.ID, nil
}

func credentialEnv(name string, creds *models.ServiceCredentials) []string {
	prefix := envPrefix(name)
	env := []string{
		fmt.Sprintf("%s_HOST=%s", prefix, creds.Host),
		fmt.Sprintf("%s_PORT=%d", prefix, creds.Port),
	}
	if creds.Username != "" {
		env = append(env, fmt.Sprintf("%s_USER=%s", prefix, creds.Username))
	}
	if creds.Password != "" {
		env = append(env, fmt.Sprintf("%s_PASSWORD=%s", prefix, creds.Password))
	}
	if creds.Database != "" {
		env = append(env, fmt.Sprintf("%s_DATABASE=%s", prefix, creds.Database))
	}
	if creds.Prefix != "" {
		env = append(env, fmt.Sprintf("%s_PREFIX=%s", prefix, creds.Prefix))
	}
	if creds.URI != "" {
		env = append(env, fmt.Sprintf("%s_URI=%s", prefix, creds.URI))
	}
	return env
}

func envPrefix(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

func (r *DockerRunner) updateStatus(ctx context.Context, id string, status models.SessionStatus, msg string) {
	session, err := r.repo.GetSession(ctx, id)
	if err != nil || session == nil {
		slog.Error("failed to get session for status update", "error", err, "id", id)
		return
	}

	session.Status = status
	session.StatusMsg = msg

	if err := r.repo.UpdateSession(ctx, session); err != nil {
		slog.Error("failed to update session status", "error", err, "id", id, "status", status)
	}
}

// Get retrieves a session by ID.
func (r *DockerRunner) Get(ctx context.Context, id string) (*models.PlaygroundSession, error) {
	session, err := r.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Stop stops a running session's container.
func (r *DockerRunner) Stop(ctx context.Context, id string) error {
	session, err := r.repo.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if session.Status.IsTerminal() {
		return ErrSessionStopped
	}

	if session.ContainerID != "" {
		timeout := 30
		if err := r.docker.ContainerStop(ctx, session.ContainerID, container.StopOptions{Timeout: &timeout}); err != nil {
			slog.Warn("failed to stop container", "error", err, "container", session.ContainerID)
		}
	}

	session.Status = models.SessionStopped
	if err := r.repo.UpdateSession(ctx, session); err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	slog.Info("playground session stopped", "id", id)
	return nil
}

// Delete removes a session, its container and all provisioned services.
func (r *DockerRunner) Delete(ctx context.Context, id string) error {
	session, err := r.repo.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return ErrSessionNotFound
	}

	if session.ContainerID != "" {
		timeout := 10
		_ = r.docker.ContainerStop(ctx, session.ContainerID, container.StopOptions{Timeout: &timeout})
		_ = r.docker.ContainerRemove(ctx, session.ContainerID, container.RemoveOptions{Force: true})
	}

	for name := range session.Services {
		provider := r.registry.Get(name)
		if provider != nil {
			if err := provider.Deprovision(ctx, id, name); err != nil {
				slog.Warn("failed to deprovision service", "error", err, "service", name, "session", id)
			}
		}
	}

	if err := r.repo.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session from database: %w", err)
	}

	slog.Info("playground session deleted", "id", id)
	return nil
}

// List returns sessions matching filters.
func (r *DockerRunner) List(ctx context.Context, filters models.SessionFilters) ([]*models.PlaygroundSession, error) {
	sessions, err := r.repo.ListSessions(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Extend pushes out the session expiration.
func (r *DockerRunner) Extend(ctx context.Context, id string, duration time.Duration) error {
	session, err := r.repo.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if session.Status.IsTerminal() {
		return ErrSessionStopped
	}

	session.ExpiresAt = session.ExpiresAt.Add(duration)
	if err := r.repo.UpdateSession(ctx, session); err != nil {
		return fmt.Errorf("failed to update session TTL: %w", err)
	}

	slog.Info("playground session extended", "id", id, "new_expires_at", session.ExpiresAt)
	return nil
}

// GetLogs retrieves container logs.
func (r *DockerRunner) GetLogs(ctx context.Context, id string, tail int) (string, error) {
	session, err := r.repo.GetSession(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return "", ErrSessionNotFound
	}
	if session.ContainerID == "" {
		return "", nil
	}

	logs, err := r.docker.ContainerLogs(ctx, session.ContainerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       fmt.Sprintf("%d", tail),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get logs: %w", err)
	}
	defer logs.Close()

	data, err := io.ReadAll(logs)
	if err != nil {
		return "", fmt.Errorf("failed to read logs: %w", err)
	}

	return string(data), nil
}

// GetExpired returns all non-terminal sessions past their TTL.
func (r *DockerRunner) GetExpired(ctx context.Context) ([]*models.PlaygroundSession, error) {
	sessions, err := r.repo.GetExpiredSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired sessions: %w", err)
	}
	return sessions, nil
}

// ExecAttach creates an interactive exec session in the container for the
// editor's terminal pane.
func (r *DockerRunner) ExecAttach(ctx context.Context, containerID string) (string, io.ReadWriteCloser, error) {
	execConfig := types.ExecConfig{
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		Tty:          true,
		Cmd:          []string{"/bin/bash", "--login"},
		Env: []string{
			"TERM=xterm-256color",
			"COLORTERM=truecolor",
		},
	}

	execResp, err := r.docker.ContainerExecCreate(ctx, containerID, execConfig)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := r.docker.ContainerExecAttach(ctx, execResp.ID, types.ExecStartCheck{Tty: true})
	if err != nil {
		return "", nil, fmt.Errorf("failed to attach exec: %w", err)
	}

	return execResp.ID, attachResp.Conn, nil
}

// ExecResize resizes the TTY of an exec session.
func (r *DockerRunner) ExecResize(ctx context.Context, execID string, height, width uint) error {
	return r.docker.ContainerExecResize(ctx, execID, container.ResizeOptions{
		Height: height,
		Width:  width,
	})
}

// Close releases the Docker client.
func (r *DockerRunner) Close() error {
	return r.docker.Close()
}
