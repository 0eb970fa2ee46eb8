package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aitrader/internal/logger"
)

// MinTimeout is the floor the per-attempt timeout never drops below.
const MinTimeout = 120 * time.Second

// RetryState is an immutable value threaded through attempts; nothing outside
// one session ever sees it.
type RetryState struct {
	Attempt   int
	Timeout   time.Duration
	BaseDelay time.Duration
}

// Backoff is the cooperative sleep before the next attempt.
func (s RetryState) Backoff() time.Duration {
	return time.Duration(float64(s.BaseDelay) * float64(s.Attempt))
}

// Next advances to the following attempt. When narrow is set the timeout is
// halved, bounded below by MinTimeout; otherwise it is carried unchanged.
func (s RetryState) Next(narrow bool) RetryState {
	next := RetryState{Attempt: s.Attempt + 1, Timeout: s.Timeout, BaseDelay: s.BaseDelay}
	if narrow {
		next.Timeout = s.Timeout / 2
		if next.Timeout < MinTimeout {
			next.Timeout = MinTimeout
		}
	}
	return next
}

// EngineCaller is the slice of Invoker the controller needs.
type EngineCaller interface {
	Invoke(ctx context.Context, systemPrompt, userPrompt string, timeout time.Duration) (Envelope, error)
}

// Controller wraps an Invoker with bounded retries and the terminal fallback
// policy. Exactly one invocation is in flight at any time: the loop below is
// the whole concurrency story for a session.
type Controller struct {
	Caller     EngineCaller
	MaxRetries int
	Timeout    time.Duration
	BaseDelay  time.Duration

	// sleep is the suspension point between attempts; tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewController(caller EngineCaller, maxRetries int, timeout time.Duration, baseDelay time.Duration) *Controller {
	return &Controller{
		Caller:     caller,
		MaxRetries: maxRetries,
		Timeout:    timeout,
		BaseDelay:  baseDelay,
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const (
	timeoutFallbackResult   = `<DECISION>{"action": "hold", "symbol": "", "amount": 0, "confidence": 0.0, "reasoning": "Analysis timeout after all retries"}</DECISION>`
	malformedFallbackResult = `<DECISION>{"action": "hold", "symbol": "", "amount": 0, "confidence": 0.0, "reasoning": "Invalid response format"}</DECISION>`
)

// InvokeWithRetry drives the attempt state machine:
//   - timeout: retry with narrowed timeout; exhausted -> synthetic hold
//   - process / engine-reported error: retry, timeout unchanged; exhausted -> fatal
//   - malformed envelope: immediate synthetic hold, no retry consumed
func (c *Controller) InvokeWithRetry(ctx context.Context, systemPrompt, userPrompt string) (Envelope, error) {
	state := RetryState{Attempt: 1, Timeout: c.Timeout, BaseDelay: c.BaseDelay}
	for {
		env, err := c.Caller.Invoke(ctx, systemPrompt, userPrompt, state.Timeout)
		if err == nil {
			return env, nil
		}

		var invErr *InvokeError
		if !errors.As(err, &invErr) {
			// context cancellation or another non-engine failure
			return Envelope{}, err
		}

		switch invErr.Kind {
		case KindTimeout:
			if state.Attempt >= c.MaxRetries {
				logger.Errorf("engine timed out on all %d attempts, falling back to hold", c.MaxRetries)
				return Envelope{Result: timeoutFallbackResult, IsError: false, ErrorKind: KindTimeout.String()}, nil
			}
			logger.Warnf("engine timeout, attempt %d/%d, backing off %s (next timeout %s)",
				state.Attempt, c.MaxRetries, state.Backoff(), state.Next(true).Timeout)
			if serr := c.sleep(ctx, state.Backoff()); serr != nil {
				return Envelope{}, serr
			}
			state = state.Next(true)

		case KindProcess, KindEngineReported:
			if state.Attempt >= c.MaxRetries {
				return Envelope{}, fmt.Errorf("engine failed after %d attempts: %w", c.MaxRetries, invErr)
			}
			logger.Warnf("engine error, attempt %d/%d, backing off %s: %v",
				state.Attempt, c.MaxRetries, state.Backoff(), invErr)
			if serr := c.sleep(ctx, state.Backoff()); serr != nil {
				return Envelope{}, serr
			}
			state = state.Next(false)

		case KindMalformed:
			// Deterministic for a given input: retrying will not help
			// faster than falling back.
			logger.Errorf("engine produced malformed output, falling back to hold: %v", invErr)
			return Envelope{Result: malformedFallbackResult, IsError: true, ErrorKind: KindMalformed.String()}, nil

		default:
			return Envelope{}, invErr
		}
	}
}
