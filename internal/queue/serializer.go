// Package queue serializes browser-driving operations. The external browser
// tool cannot safely interleave two logical operations, so everything that
// drives it funnels through a single-flight FIFO worker.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iccyuan/search-browser/internal/infrastructure/logging"
	"github.com/iccyuan/search-browser/internal/infrastructure/monitoring"
)

// ErrClosed is returned for operations enqueued after Close.
var ErrClosed = errors.New("queue: serializer closed")

// Operation is one unit of browser-driving work.
type Operation func(ctx context.Context) (any, error)

// Handle resolves with an operation's eventual result.
type Handle struct {
	done  chan struct{}
	value any
	err   error
}

func (h *Handle) resolve(value any, err error) {
	h.value = value
	h.err = err
	close(h.done)
}

// Wait blocks until the operation completes or ctx expires.
func (h *Handle) Wait(ctx context.Context) (any, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type task struct {
	name   string
	ctx    context.Context
	op     Operation
	handle *Handle
}

// Serializer runs enqueued operations one at a time in strict arrival order.
type Serializer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []*task
	inAir   bool
	closed  bool

	metrics *monitoring.Metrics
	logger  *logging.Logger
	stopped chan struct{}
}

// NewSerializer creates a serializer and starts its worker.
func NewSerializer(metrics *monitoring.Metrics, logger *logging.Logger) *Serializer {
	s := &Serializer{
		metrics: metrics,
		logger:  logger,
		stopped: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

// Enqueue submits an operation and returns immediately. The operation runs
// with the caller's context, so a caller that gives up cancels its own work
// but never the operation ahead of it.
func (s *Serializer) Enqueue(ctx context.Context, name string, op Operation) *Handle {
	h := &Handle{done: make(chan struct{})}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		h.resolve(nil, ErrClosed)
		return h
	}
	s.pending = append(s.pending, &task{name: name, ctx: ctx, op: op, handle: h})
	depth := s.depthLocked()
	if s.metrics != nil {
		s.metrics.SetQueueDepth(depth)
	}
	s.cond.Signal()
	s.mu.Unlock()

	s.logger.Debug("operation enqueued", zap.String("operation", name), zap.Int("queue_depth", depth))
	return h
}

// Len reports queued plus in-flight operations.
func (s *Serializer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depthLocked()
}

func (s *Serializer) depthLocked() int {
	depth := len(s.pending)
	if s.inAir {
		depth++
	}
	return depth
}

// Close stops accepting new operations, lets the worker drain what is already
// queued, and returns once the worker has exited.
func (s *Serializer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.stopped
		return
	}
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
	<-s.stopped
}

func (s *Serializer) run() {
	defer close(s.stopped)
	for {
		s.mu.Lock()
		for len(s.pending) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		t := s.pending[0]
		s.pending = s.pending[1:]
		s.inAir = true
		s.mu.Unlock()

		s.execute(t)

		s.mu.Lock()
		s.inAir = false
		// Gauge updates happen under the lock so the published depth never
		// disagrees with Len().
		if s.metrics != nil {
			s.metrics.SetQueueDepth(s.depthLocked())
		}
		s.mu.Unlock()
	}
}

func (s *Serializer) execute(t *task) {
	start := time.Now()

	value, err := t.op(t.ctx)
	t.handle.resolve(value, err)

	status := "success"
	if err != nil {
		status = "error"
	}
	if s.metrics != nil {
		s.metrics.RecordOperation(t.name, status, time.Since(start))
	}
	if err != nil {
		s.logger.Warn("operation failed",
			zap.String("operation", t.name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
	} else {
		s.logger.Info("operation completed",
			zap.String("operation", t.name),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
