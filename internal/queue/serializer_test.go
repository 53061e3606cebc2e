package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iccyuan/search-browser/internal/infrastructure/logging"
	"github.com/iccyuan/search-browser/internal/infrastructure/monitoring"
)

func newTestSerializer(t *testing.T) *Serializer {
	t.Helper()
	s := NewSerializer(monitoring.NewMetrics(), logging.NewNop())
	t.Cleanup(s.Close)
	return s
}

func TestEnqueueResolvesResult(t *testing.T) {
	s := newTestSerializer(t)

	h := s.Enqueue(context.Background(), "search", func(ctx context.Context) (any, error) {
		return "done", nil
	})
	value, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", value)
}

func TestEnqueuePropagatesError(t *testing.T) {
	s := newTestSerializer(t)

	boom := errors.New("boom")
	h := s.Enqueue(context.Background(), "search", func(ctx context.Context) (any, error) {
		return nil, boom
	})
	_, err := h.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestFIFOSingleFlight(t *testing.T) {
	s := newTestSerializer(t)

	slowStarted := make(chan struct{})
	release := make(chan struct{})
	var fastDone atomic.Bool

	slow := s.Enqueue(context.Background(), "slow", func(ctx context.Context) (any, error) {
		close(slowStarted)
		<-release
		return "slow", nil
	})
	fast := s.Enqueue(context.Background(), "fast", func(ctx context.Context) (any, error) {
		fastDone.Store(true)
		return "fast", nil
	})

	<-slowStarted
	// Slow is in flight; fast must not have run yet.
	time.Sleep(20 * time.Millisecond)
	assert.False(t, fastDone.Load())

	waitCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := fast.Wait(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	_, err = slow.Wait(context.Background())
	require.NoError(t, err)
	value, err := fast.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fast", value)
	assert.True(t, fastDone.Load())
}

func TestArrivalOrderPreserved(t *testing.T) {
	s := newTestSerializer(t)

	var order []int
	handles := make([]*Handle, 0, 5)
	for i := 0; i < 5; i++ {
		i := i
		handles = append(handles, s.Enqueue(context.Background(), "op", func(ctx context.Context) (any, error) {
			order = append(order, i)
			return nil, nil
		}))
	}
	for _, h := range handles {
		_, err := h.Wait(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestLenCountsQueuedAndInFlight(t *testing.T) {
	s := newTestSerializer(t)

	started := make(chan struct{})
	release := make(chan struct{})
	first := s.Enqueue(context.Background(), "a", func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	})
	<-started
	second := s.Enqueue(context.Background(), "b", func(ctx context.Context) (any, error) {
		return nil, nil
	})

	assert.Equal(t, 2, s.Len())

	close(release)
	_, _ = first.Wait(context.Background())
	_, _ = second.Wait(context.Background())
}

func TestQueueDepthGaugeTracksLen(t *testing.T) {
	metrics := monitoring.NewMetrics()
	s := NewSerializer(metrics, logging.NewNop())
	t.Cleanup(s.Close)

	started := make(chan struct{})
	release := make(chan struct{})
	first := s.Enqueue(context.Background(), "a", func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	})
	<-started
	second := s.Enqueue(context.Background(), "b", func(ctx context.Context) (any, error) {
		return nil, nil
	})

	// One in flight plus one queued, and the gauge agrees with Len.
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.QueueDepth))

	close(release)
	_, _ = first.Wait(context.Background())
	_, _ = second.Wait(context.Background())

	// The worker publishes the final depth after resolving the handle.
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.QueueDepth) == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, s.Len())
}

func TestWaitHonorsContext(t *testing.T) {
	s := newTestSerializer(t)

	release := make(chan struct{})
	h := s.Enqueue(context.Background(), "a", func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	_, err = h.Wait(context.Background())
	require.NoError(t, err)
}

func TestCloseDrainsThenRejects(t *testing.T) {
	s := NewSerializer(monitoring.NewMetrics(), logging.NewNop())

	var ran atomic.Bool
	h := s.Enqueue(context.Background(), "a", func(ctx context.Context) (any, error) {
		ran.Store(true)
		return nil, nil
	})
	s.Close()

	_, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, ran.Load())

	rejected := s.Enqueue(context.Background(), "b", func(ctx context.Context) (any, error) {
		return nil, nil
	})
	_, err = rejected.Wait(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
