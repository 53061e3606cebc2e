package driver

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iccyuan/search-browser/internal/infrastructure/config"
	"github.com/iccyuan/search-browser/internal/infrastructure/logging"
	"github.com/iccyuan/search-browser/internal/shared/id"
)

// fakeRunner records every invocation and replies per-subcommand.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	fail  map[string]error // keyed by subcommand
}

func (f *fakeRunner) Run(ctx context.Context, args []string, timeout time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, args)
	if err := f.fail[subcommandOf(args)]; err != nil {
		return "", err
	}
	return "", nil
}

func (f *fakeRunner) countSub(sub string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, args := range f.calls {
		if subcommandOf(args) == sub {
			n++
		}
	}
	return n
}

func newSessions(runner Runner) *Sessions {
	client := NewClient(runner, config.Default().Tool)
	return NewSessions(client, logging.NewNop())
}

func TestWithSessionClosesOnceOnSuccess(t *testing.T) {
	runner := &fakeRunner{}
	s := newSessions(runner)

	err := s.WithSession(context.Background(), func(ctx context.Context, sid id.SessionID) error {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, runner.countSub("close"))
}

func TestWithSessionClosesOnceOnFailure(t *testing.T) {
	runner := &fakeRunner{}
	s := newSessions(runner)

	bodyErr := errors.New("body failed")
	err := s.WithSession(context.Background(), func(ctx context.Context, sid id.SessionID) error {
		return bodyErr
	})

	assert.Same(t, bodyErr, err)
	assert.Equal(t, 1, runner.countSub("close"))
}

func TestWithSessionCloseFailureNeverMasksBody(t *testing.T) {
	runner := &fakeRunner{fail: map[string]error{"close": errors.New("close failed")}}
	s := newSessions(runner)

	err := s.WithSession(context.Background(), func(ctx context.Context, sid id.SessionID) error {
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, runner.countSub("close"))
}

func TestWithSessionClosesAfterContextExpiry(t *testing.T) {
	runner := &fakeRunner{}
	s := newSessions(runner)

	ctx, cancel := context.WithCancel(context.Background())
	err := s.WithSession(ctx, func(ctx context.Context, sid id.SessionID) error {
		cancel()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, runner.countSub("close"))
}

func TestWithSessionFreshIDPerCall(t *testing.T) {
	runner := &fakeRunner{}
	s := newSessions(runner)

	var ids []string
	for i := 0; i < 3; i++ {
		s.WithSession(context.Background(), func(ctx context.Context, sid id.SessionID) error {
			ids = append(ids, sid.String())
			return nil
		})
	}

	assert.Len(t, ids, 3)
	seen := map[string]bool{}
	for _, sid := range ids {
		assert.True(t, strings.HasPrefix(sid, "sess_"))
		assert.False(t, seen[sid])
		seen[sid] = true
	}
}
