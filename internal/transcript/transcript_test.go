package transcript

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aitrader/internal/decision"
)

func readRecords(t *testing.T, path string) []Record {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		out = append(out, rec)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestLoggerLayout(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, "agent-one", "2024-03-05")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(l.Path(), "agent-one/log/2024-03-05/log.jsonl"))
}

func TestLoggerAppendsSessionFlow(t *testing.T) {
	l, err := New(t.TempDir(), "agent-one", "2024-03-05")
	require.NoError(t, err)

	l.System("you are a portfolio manager")
	l.User("here is the market data")
	l.Assistant("I will buy AAPL", "sess-1", 0.31)
	l.Decision(decision.Decision{Action: decision.ActionBuy, Symbol: "AAPL", Amount: 1000, Confidence: 0.8, Reasoning: "momentum"})

	recs := readRecords(t, l.Path())
	require.Len(t, recs, 4)

	assert.Equal(t, RoleSystem, recs[0].Role)
	assert.Equal(t, RoleUser, recs[1].Role)
	assert.Equal(t, RoleAssistant, recs[2].Role)
	assert.Equal(t, "sess-1", recs[2].SessionID)
	assert.Equal(t, 0.31, recs[2].CostUSD)
	assert.Equal(t, RoleDecision, recs[3].Role)
	require.NotNil(t, recs[3].Decision)
	assert.Equal(t, "AAPL", recs[3].Decision.Symbol)
	for _, rec := range recs {
		assert.NotEmpty(t, rec.Timestamp)
	}
}

func TestLoggerTruncatesSystemPrompt(t *testing.T) {
	l, err := New(t.TempDir(), "agent-one", "2024-03-05")
	require.NoError(t, err)

	l.System(strings.Repeat("x", 2000))

	recs := readRecords(t, l.Path())
	require.Len(t, recs, 1)
	assert.Len(t, recs[0].Content, systemPromptLimit+len("..."))
	assert.True(t, strings.HasSuffix(recs[0].Content, "..."))
}

func TestLoggerErrorRecord(t *testing.T) {
	l, err := New(t.TempDir(), "agent-one", "2024-03-05")
	require.NoError(t, err)

	l.Error("context assembly failed")

	recs := readRecords(t, l.Path())
	require.Len(t, recs, 1)
	assert.Equal(t, RoleError, recs[0].Role)
	assert.Equal(t, "context assembly failed", recs[0].Content)
}

func TestNilLoggerDropsRecords(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Append(Record{Role: RoleUser, Content: "dropped"})
		l.System("dropped")
		l.Error("dropped")
	})
}
