package engine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"aitrader/internal/logger"
)

// Invoker builds and executes one reasoning-engine subprocess call. One
// Invoker belongs to one trading session; SessionID is fixed at creation.
type Invoker struct {
	Binary        string
	Workspace     string
	MCPConfigPath string
	SessionID     string
	Agent         string
	Runner        Runner
	Cache         *Cache // nil disables caching
}

const stdoutSnippetLen = 500

// Invoke runs the engine bound to timeout and parses its stdout envelope.
// Failures are returned as *InvokeError so callers can branch on Kind.
func (inv *Invoker) Invoke(ctx context.Context, systemPrompt, userPrompt string, timeout time.Duration) (Envelope, error) {
	var key string
	if inv.Cache != nil {
		key = Key(systemPrompt, userPrompt)
		if env, ok := inv.Cache.Get(key); ok {
			logger.Infof("[%s] cache hit %s, skipping engine call", inv.Agent, key[:8])
			return env, nil
		}
	}

	args := []string{
		"--print",
		"--output-format", "json",
		"--system-prompt", systemPrompt,
		"--mcp-config", inv.MCPConfigPath,
		"--strict-mcp-config",
		"--add-dir", inv.Workspace,
		"--session-id", inv.SessionID,
		"--dangerously-skip-permissions",
		userPrompt,
	}

	logger.Infof("[%s] invoking engine (session %s, timeout %s)", inv.Agent, shortID(inv.SessionID), timeout)
	logger.LogEngineRequest(inv.Agent, inv.SessionID, systemPrompt, userPrompt)

	stdout, err := inv.Runner.Run(ctx, inv.Workspace, inv.Binary, args, timeout)
	if err != nil {
		return Envelope{}, classifyRunError(err)
	}

	var env Envelope
	if jerr := json.Unmarshal([]byte(stdout), &env); jerr != nil {
		snippet := stdout
		if len(snippet) > stdoutSnippetLen {
			snippet = snippet[:stdoutSnippetLen] + "..."
		}
		return Envelope{}, &InvokeError{Kind: KindMalformed, Msg: "invalid envelope json: " + snippet, Err: jerr}
	}
	if env.IsError {
		return Envelope{}, &InvokeError{Kind: KindEngineReported, Msg: env.Result}
	}

	logger.Infof("[%s] engine done: cost=$%.4f duration=%dms turns=%d", inv.Agent, env.TotalCostUSD, env.DurationMS, env.NumTurns)
	logger.LogEngineResponse(inv.Agent, inv.SessionID, env.Result)

	if inv.Cache != nil {
		inv.Cache.Put(key, env)
	}
	return env, nil
}

func classifyRunError(err error) *InvokeError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &InvokeError{Kind: KindTimeout, Err: err}
	}
	var exitErr *ExitStatusError
	if errors.As(err, &exitErr) {
		return &InvokeError{Kind: KindProcess, Msg: exitErr.Stderr, Err: err}
	}
	return &InvokeError{Kind: KindProcess, Err: err}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
