// Package agent drives one trading session end to end: assemble context,
// consult the reasoning engine, extract and validate a decision, and record
// everything. Sessions within an agent are strictly sequential.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"aitrader/internal/decision"
	"aitrader/internal/engine"
	"aitrader/internal/logger"
	"aitrader/internal/market"
	"aitrader/internal/store"
	"aitrader/internal/transcript"
)

type ContextAssembler interface {
	Assemble(ctx context.Context, date string) (market.TradingContext, error)
}

type PromptBuilder interface {
	System(tc market.TradingContext) string
	User(tc market.TradingContext) string
}

// InvokerFactory builds the engine caller for one session, bound to its
// session identifier.
type InvokerFactory func(sessionID string) engine.EngineCaller

type SessionSaver interface {
	SaveSession(ctx context.Context, rec store.SessionRecord) error
}

type Agent struct {
	Signature  string
	MaxRetries int
	Timeout    time.Duration
	BaseDelay  time.Duration
	LogDir     string

	Assembler ContextAssembler
	Prompts   PromptBuilder
	NewCaller InvokerFactory
	Validator *decision.Validator
	Saver     SessionSaver // optional
}

// RunSession produces exactly one Decision for date, unless the context is
// unavailable or the engine errors out on every retry.
func (a *Agent) RunSession(ctx context.Context, date string) (decision.Decision, error) {
	sessionID := uuid.NewString()
	logger.Infof("[%s] starting trading session %s (session %s)", a.Signature, date, sessionID[:8])

	tlog, err := transcript.New(a.LogDir, a.Signature, date)
	if err != nil {
		logger.Warnf("[%s] transcript unavailable for %s: %v", a.Signature, date, err)
		tlog = nil
	}

	tc, err := a.Assembler.Assemble(ctx, date)
	if err != nil {
		tlog.Error(fmt.Sprintf("failed to get trading context: %v", err))
		return decision.Decision{}, err
	}

	systemPrompt := a.Prompts.System(tc)
	userPrompt := a.Prompts.User(tc)
	tlog.System(systemPrompt)
	tlog.User(userPrompt)

	ctrl := engine.NewController(a.NewCaller(sessionID), a.MaxRetries, a.Timeout, a.BaseDelay)
	env, err := ctrl.InvokeWithRetry(ctx, systemPrompt, userPrompt)
	if err != nil {
		tlog.Error(fmt.Sprintf("trading session error: %v", err))
		return decision.Decision{}, err
	}

	tlog.Assistant(env.Result, sessionID, env.TotalCostUSD)

	d := decision.Extract(env.Result, a.Validator)
	tlog.Decision(d)
	logger.Infof("[%s] %s decision: %s %s x%v confidence=%.2f", a.Signature, date, d.Action, d.Symbol, d.Amount, d.Confidence)

	if a.Saver != nil {
		rec := store.SessionRecord{
			TraceID:   sessionID,
			Signature: a.Signature,
			Date:      date,
			Decision:  d,
			Envelope:  env,
		}
		if serr := a.Saver.SaveSession(ctx, rec); serr != nil {
			logger.Warnf("[%s] session store write failed: %v", a.Signature, serr)
		}
	}
	return d, nil
}
