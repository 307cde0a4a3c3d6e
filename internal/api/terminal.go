package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/terra-clan/skillpath-engine/internal/models"
	"github.com/terra-clan/skillpath-engine/internal/progress"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// TerminalMessage is the frame exchanged with the browser terminal pane.
// Types: "input", "output", "resize", "save", "saved", "connected", "error".
type TerminalMessage struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
	Cols int    `json:"cols,omitempty"`
	Rows int    `json:"rows,omitempty"`
}

// handleTerminalWS bridges a websocket to a shell exec inside the session's
// container.
func (s *Server) handleTerminalWS(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	session, err := s.runner.Get(r.Context(), sessionID)
	if err != nil {
		slog.Error("failed to get session", "id", sessionID, "error", err)
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if !session.Status.IsRunning() {
		http.Error(w, "session is not running", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// The exec outlives the request context; the pumps decide when it ends.
	execCtx := context.Background()

	execID, execConn, err := s.runner.ExecAttach(execCtx, session.ContainerID)
	if err != nil {
		slog.Error("exec attach failed", "session_id", sessionID, "error", err)
		conn.WriteJSON(TerminalMessage{Type: "error", Data: "failed to connect to container"})
		return
	}
	defer execConn.Close()

	if err := s.runner.ExecResize(execCtx, execID, 24, 80); err != nil {
		slog.Warn("initial terminal resize failed", "error", err)
	}

	conn.WriteJSON(TerminalMessage{Type: "connected", Data: "Connected to playground terminal"})
	slog.Info("terminal attached", "session_id", sessionID, "exec_id", execID)

	ctx, cancel := context.WithCancel(execCtx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer cancel()
		s.pumpOutput(ctx, conn, execConn)
	}()
	go func() {
		defer wg.Done()
		defer cancel()
		s.pumpInput(ctx, conn, execConn, execID, session)
	}()
	wg.Wait()

	slog.Info("terminal detached", "session_id", sessionID)
}

// pumpOutput copies container output to the websocket until either side
// closes.
func (s *Server) pumpOutput(ctx context.Context, conn *websocket.Conn, execConn io.Reader) {
	buf := make([]byte, 4096)
	for ctx.Err() == nil {
		n, err := execConn.Read(buf)
		if err != nil {
			if err != io.EOF {
				slog.Debug("exec read error", "error", err)
			}
			return
		}
		if n == 0 {
			continue
		}
		if err := conn.WriteJSON(TerminalMessage{Type: "output", Data: string(buf[:n])}); err != nil {
			return
		}
	}
}

// pumpInput forwards keystrokes, resize events and attempt saves from the
// websocket into the exec session.
func (s *Server) pumpInput(ctx context.Context, conn *websocket.Conn, execConn io.Writer, execID string, session *models.PlaygroundSession) {
	for ctx.Err() == nil {
		var msg TerminalMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			return
		}

		switch msg.Type {
		case "input":
			if _, err := execConn.Write([]byte(msg.Data)); err != nil {
				return
			}
		case "resize":
			if msg.Cols > 0 && msg.Rows > 0 {
				if err := s.runner.ExecResize(ctx, execID, uint(msg.Rows), uint(msg.Cols)); err != nil {
					slog.Debug("terminal resize failed", "error", err, "cols", msg.Cols, "rows", msg.Rows)
				}
			}
		case "save":
			if err := s.saveAttempt(ctx, session, msg.Data); err != nil {
				conn.WriteJSON(TerminalMessage{Type: "error", Data: err.Error()})
				continue
			}
			conn.WriteJSON(TerminalMessage{Type: "saved"})
		}
	}
}

// saveAttempt records an editor snapshot against the session's practice
// resource, through the same attempt path the HTTP API uses.
func (s *Server) saveAttempt(ctx context.Context, session *models.PlaygroundSession, code string) error {
	if _, err := s.progress.RecordAttempt(ctx, session.UserID, session.ResourceID, code); err != nil {
		if !errors.Is(err, progress.ErrChallengeCompleted) {
			slog.Error("failed to record terminal attempt",
				"session_id", session.ID,
				"user", session.UserID,
				"resource", session.ResourceID,
				"error", err,
			)
		}
		return err
	}
	return nil
}
