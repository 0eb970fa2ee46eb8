package engine

import "fmt"

// Envelope is the top-level JSON object the reasoning engine prints to
// stdout: free-form result text plus cost/latency telemetry.
type Envelope struct {
	Result       string  `json:"result"`
	IsError      bool    `json:"is_error"`
	TotalCostUSD float64 `json:"total_cost_usd"`
	DurationMS   int64   `json:"duration_ms"`
	NumTurns     int     `json:"num_turns"`
	// ErrorKind is set on synthetic fallback envelopes produced by the
	// retry controller; it never comes from the engine itself.
	ErrorKind string `json:"error_type,omitempty"`
}

// ErrorKind classifies an invocation failure so the retry controller can
// switch on it exhaustively.
type ErrorKind int

const (
	KindTimeout ErrorKind = iota + 1
	KindProcess
	KindMalformed
	KindEngineReported
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindProcess:
		return "process_error"
	case KindMalformed:
		return "malformed_response"
	case KindEngineReported:
		return "engine_reported"
	default:
		return "unknown"
	}
}

// InvokeError is the tagged failure type for a single engine invocation.
type InvokeError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *InvokeError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("engine %s: %s", e.Kind, e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("engine %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("engine %s", e.Kind)
}

func (e *InvokeError) Unwrap() error { return e.Err }
