package driver

import (
	"context"

	"go.uber.org/zap"

	"github.com/iccyuan/search-browser/internal/infrastructure/logging"
	"github.com/iccyuan/search-browser/internal/shared/id"
)

// Sessions scopes browser-tool work to a session and guarantees cleanup.
type Sessions struct {
	client *Client
	logger *logging.Logger
}

// NewSessions creates a session lifecycle manager.
func NewSessions(client *Client, logger *logging.Logger) *Sessions {
	return &Sessions{client: client, logger: logger}
}

// WithSession allocates a fresh session id, runs body, and issues the tool's
// close command exactly once afterwards. The close runs even when body fails
// or the operation context has expired; a close failure is logged and never
// masks body's outcome.
func (s *Sessions) WithSession(ctx context.Context, body func(ctx context.Context, sid id.SessionID) error) error {
	sid := id.NewSessionID()

	s.logger.Debug("session opened", zap.String("session_id", sid.String()))
	err := body(ctx, sid)

	closeCtx := context.WithoutCancel(ctx)
	if cerr := s.client.Close(closeCtx, sid); cerr != nil {
		s.logger.Warn("failed to close browser session",
			zap.String("session_id", sid.String()),
			zap.Error(cerr),
		)
	} else {
		s.logger.Debug("session closed", zap.String("session_id", sid.String()))
	}

	return err
}
