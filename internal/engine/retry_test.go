package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedCaller returns one scripted outcome per call and records the
// timeout each attempt was given.
type scriptedCaller struct {
	outcomes []error
	success  Envelope
	calls    int
	timeouts []time.Duration
}

func (s *scriptedCaller) Invoke(ctx context.Context, systemPrompt, userPrompt string, timeout time.Duration) (Envelope, error) {
	s.timeouts = append(s.timeouts, timeout)
	idx := s.calls
	s.calls++
	if idx < len(s.outcomes) && s.outcomes[idx] != nil {
		return Envelope{}, s.outcomes[idx]
	}
	return s.success, nil
}

func newTestController(caller EngineCaller, maxRetries int) *Controller {
	c := NewController(caller, maxRetries, 600*time.Second, time.Millisecond)
	c.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return c
}

func TestRetryFirstAttemptSucceeds(t *testing.T) {
	caller := &scriptedCaller{success: Envelope{Result: "fine"}}
	ctrl := newTestController(caller, 3)

	env, err := ctrl.InvokeWithRetry(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "fine", env.Result)
	assert.Equal(t, 1, caller.calls)
}

func TestRetryTimeoutNarrowsThenSucceeds(t *testing.T) {
	caller := &scriptedCaller{
		outcomes: []error{
			&InvokeError{Kind: KindTimeout},
			&InvokeError{Kind: KindTimeout},
			nil,
		},
		success: Envelope{Result: "eventually"},
	}
	ctrl := newTestController(caller, 3)

	env, err := ctrl.InvokeWithRetry(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "eventually", env.Result)
	assert.Equal(t, []time.Duration{600 * time.Second, 300 * time.Second, 150 * time.Second}, caller.timeouts)
}

func TestRetryTimeoutFloor(t *testing.T) {
	state := RetryState{Attempt: 1, Timeout: 150 * time.Second}
	next := state.Next(true)
	assert.Equal(t, MinTimeout, next.Timeout)

	// already at the floor, stays there
	assert.Equal(t, MinTimeout, next.Next(true).Timeout)
}

func TestRetryTimeoutExhaustedFallsBackToHold(t *testing.T) {
	caller := &scriptedCaller{
		outcomes: []error{
			&InvokeError{Kind: KindTimeout},
			&InvokeError{Kind: KindTimeout},
			&InvokeError{Kind: KindTimeout},
		},
	}
	ctrl := newTestController(caller, 3)

	env, err := ctrl.InvokeWithRetry(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, 3, caller.calls)
	assert.False(t, env.IsError)
	assert.Equal(t, "timeout", env.ErrorKind)
	assert.Contains(t, env.Result, `"action": "hold"`)
	assert.Contains(t, env.Result, "<DECISION>")
}

func TestRetryProcessErrorExhaustedIsFatal(t *testing.T) {
	caller := &scriptedCaller{
		outcomes: []error{
			&InvokeError{Kind: KindProcess, Msg: "exit 1"},
			&InvokeError{Kind: KindProcess, Msg: "exit 1"},
			&InvokeError{Kind: KindProcess, Msg: "exit 1"},
		},
	}
	ctrl := newTestController(caller, 3)

	_, err := ctrl.InvokeWithRetry(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, caller.calls)
}

func TestRetryProcessErrorKeepsTimeout(t *testing.T) {
	caller := &scriptedCaller{
		outcomes: []error{
			&InvokeError{Kind: KindProcess},
			nil,
		},
		success: Envelope{Result: "ok"},
	}
	ctrl := newTestController(caller, 3)

	_, err := ctrl.InvokeWithRetry(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{600 * time.Second, 600 * time.Second}, caller.timeouts)
}

func TestRetryEngineReportedErrorRetries(t *testing.T) {
	caller := &scriptedCaller{
		outcomes: []error{
			&InvokeError{Kind: KindEngineReported, Msg: "overloaded"},
			nil,
		},
		success: Envelope{Result: "recovered"},
	}
	ctrl := newTestController(caller, 3)

	env, err := ctrl.InvokeWithRetry(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "recovered", env.Result)
	assert.Equal(t, 2, caller.calls)
}

func TestRetryMalformedFallsBackImmediately(t *testing.T) {
	caller := &scriptedCaller{
		outcomes: []error{
			&InvokeError{Kind: KindMalformed, Msg: "not json"},
		},
	}
	ctrl := newTestController(caller, 3)

	env, err := ctrl.InvokeWithRetry(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, 1, caller.calls, "malformed output must not be retried")
	assert.True(t, env.IsError)
	assert.Equal(t, "malformed_response", env.ErrorKind)
	assert.Contains(t, env.Result, `"action": "hold"`)
}

func TestRetryBackoffGrowsWithAttempt(t *testing.T) {
	s := RetryState{Attempt: 1, BaseDelay: 2 * time.Second}
	assert.Equal(t, 2*time.Second, s.Backoff())
	assert.Equal(t, 4*time.Second, RetryState{Attempt: 2, BaseDelay: 2 * time.Second}.Backoff())
	assert.Equal(t, 6*time.Second, RetryState{Attempt: 3, BaseDelay: 2 * time.Second}.Backoff())
}

func TestRetryCancelledContextStopsSleeping(t *testing.T) {
	caller := &scriptedCaller{
		outcomes: []error{&InvokeError{Kind: KindTimeout}},
	}
	ctrl := NewController(caller, 3, 600*time.Second, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ctrl.InvokeWithRetry(ctx, "sys", "user")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, caller.calls)
}
