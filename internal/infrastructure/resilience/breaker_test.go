package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTool = errors.New("tool crashed")

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	b := NewBreaker("tool", BreakerSettings{MaxFailures: 3})
	for i := 0; i < 10; i++ {
		require.NoError(t, b.Execute(func() error { return nil }))
	}
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker("tool", BreakerSettings{MaxFailures: 3, Cooldown: time.Hour})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Execute(func() error { return errTool }), errTool)
	}
	assert.Equal(t, BreakerOpen, b.State())

	// Calls are now rejected without running fn.
	ran := false
	err := b.Execute(func() error { ran = true; return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, ran)
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := NewBreaker("tool", BreakerSettings{MaxFailures: 3, Cooldown: time.Hour})

	b.Execute(func() error { return errTool })
	b.Execute(func() error { return errTool })
	b.Execute(func() error { return nil })
	b.Execute(func() error { return errTool })
	b.Execute(func() error { return errTool })

	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := NewBreaker("tool", BreakerSettings{MaxFailures: 1, Cooldown: 10 * time.Millisecond})

	b.Execute(func() error { return errTool })
	assert.Equal(t, BreakerOpen, b.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, BreakerHalfOpen, b.State())

	require.NoError(t, b.Execute(func() error { return nil }))
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	var transitions []string
	b := NewBreaker("tool", BreakerSettings{
		MaxFailures: 1,
		Cooldown:    10 * time.Millisecond,
		OnStateChange: func(name string, from, to BreakerState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	b.Execute(func() error { return errTool })
	time.Sleep(20 * time.Millisecond)
	b.Execute(func() error { return errTool })

	assert.Equal(t, BreakerOpen, b.State())
	assert.Contains(t, transitions, "half-open->open")
}
