// Package transcript keeps the append-only per-day record of everything a
// trading session said and decided. Write failures are reported and swallowed:
// a lost log line never cancels a good decision.
package transcript

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"aitrader/internal/decision"
	"aitrader/internal/logger"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleDecision  = "decision"
	RoleError     = "error"
)

// systemPromptLimit bounds the stored system prompt; the full text is in the
// engine dump log already.
const systemPromptLimit = 500

type Record struct {
	Role      string             `json:"role"`
	Content   string             `json:"content,omitempty"`
	Decision  *decision.Decision `json:"decision,omitempty"`
	CostUSD   float64            `json:"cost_usd,omitempty"`
	SessionID string             `json:"session_id,omitempty"`
	Timestamp string             `json:"timestamp"`
}

// Logger appends records for one agent and one trading date.
type Logger struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// New prepares the per-day log file under dir/<signature>/log/<date>/log.jsonl.
func New(dir, signature, date string) (*Logger, error) {
	logDir := filepath.Join(dir, signature, "log", date)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	return &Logger{path: filepath.Join(logDir, "log.jsonl"), now: time.Now}, nil
}

func (l *Logger) Path() string { return l.path }

// Append writes one record. Never fatal; a nil Logger drops records, so a
// failed New does not cost the session.
func (l *Logger) Append(rec Record) {
	if l == nil {
		return
	}
	if rec.Timestamp == "" {
		rec.Timestamp = l.now().Format(time.RFC3339)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		logger.Warnf("transcript: marshal failed: %v", err)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.Warnf("transcript: open %s failed: %v", l.path, err)
		return
	}
	defer f.Close()
	if _, err := f.Write(append(raw, '\n')); err != nil {
		logger.Warnf("transcript: write %s failed: %v", l.path, err)
	}
}

func (l *Logger) System(prompt string) {
	if len(prompt) > systemPromptLimit {
		prompt = prompt[:systemPromptLimit] + "..."
	}
	l.Append(Record{Role: RoleSystem, Content: prompt})
}

func (l *Logger) User(prompt string) {
	l.Append(Record{Role: RoleUser, Content: prompt})
}

func (l *Logger) Assistant(content, sessionID string, costUSD float64) {
	l.Append(Record{Role: RoleAssistant, Content: content, SessionID: sessionID, CostUSD: costUSD})
}

func (l *Logger) Decision(d decision.Decision) {
	l.Append(Record{Role: RoleDecision, Decision: &d})
}

func (l *Logger) Error(msg string) {
	l.Append(Record{Role: RoleError, Content: msg})
}
