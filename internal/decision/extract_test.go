package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUniverse map[string]bool

func (u stubUniverse) Contains(symbol string) bool { return u[symbol] }

func testValidator() *Validator {
	return NewValidator(stubUniverse{"AAPL": true, "MSFT": true, "NVDA": true})
}

func TestExtractTaggedBlock(t *testing.T) {
	text := `After deep analysis of the market I conclude the following.

<DECISION>
{"action":"buy","symbol":"AAPL","amount":10,"confidence":0.85,"reasoning":"ok"}
</DECISION>`

	d := Extract(text, testValidator())
	assert.Equal(t, Decision{Action: "buy", Symbol: "AAPL", Amount: 10, Confidence: 0.85, Reasoning: "ok"}, d)
}

func TestExtractFencedBlock(t *testing.T) {
	text := "Here is my decision:\n```json\n{\"action\":\"sell\",\"symbol\":\"MSFT\",\"amount\":5,\"confidence\":0.6,\"reasoning\":\"take profit\"}\n```\nDone."

	d := Extract(text, testValidator())
	assert.Equal(t, "sell", d.Action)
	assert.Equal(t, "MSFT", d.Symbol)
}

func TestExtractLooseScan(t *testing.T) {
	text := `No tags today. {"action":"buy","symbol":"NVDA","amount":3,"confidence":0.7,"reasoning":"momentum"} trailing prose.`

	d := Extract(text, testValidator())
	assert.Equal(t, "buy", d.Action)
	assert.Equal(t, "NVDA", d.Symbol)
}

func TestExtractPriorityOrder(t *testing.T) {
	// A loose object appears first in the text, a fenced block after it and a
	// tagged block last: the tagged block must still win.
	text := `{"action":"sell","symbol":"MSFT","amount":1,"confidence":0.2,"reasoning":"loose"}

` + "```json\n{\"action\":\"sell\",\"symbol\":\"NVDA\",\"amount\":2,\"confidence\":0.4,\"reasoning\":\"fenced\"}\n```\n" + `
<DECISION>{"action":"buy","symbol":"AAPL","amount":10,"confidence":0.9,"reasoning":"tagged"}</DECISION>`

	d := Extract(text, testValidator())
	assert.Equal(t, "buy", d.Action)
	assert.Equal(t, "AAPL", d.Symbol)
	assert.Equal(t, "tagged", d.Reasoning)
}

func TestExtractFencedBeatsLoose(t *testing.T) {
	text := `{"action":"sell","symbol":"MSFT","amount":1,"confidence":0.2,"reasoning":"loose"}
` + "```json\n{\"action\":\"buy\",\"symbol\":\"NVDA\",\"amount\":2,\"confidence\":0.4,\"reasoning\":\"fenced\"}\n```"

	d := Extract(text, testValidator())
	assert.Equal(t, "fenced", d.Reasoning)
}

func TestExtractInvalidSymbolFallsThrough(t *testing.T) {
	// The tagged candidate names a symbol outside the universe; the loose
	// candidate is valid and must be picked up instead.
	text := `<DECISION>{"action":"buy","symbol":"ZZZZ","amount":10,"confidence":0.9,"reasoning":"bad"}</DECISION>
{"action":"buy","symbol":"AAPL","amount":4,"confidence":0.5,"reasoning":"fallback"}`

	d := Extract(text, testValidator())
	assert.Equal(t, "AAPL", d.Symbol)
	assert.Equal(t, "fallback", d.Reasoning)
}

func TestExtractDefaultsToHold(t *testing.T) {
	d := Extract("the engine rambled and produced nothing structured", testValidator())
	assert.Equal(t, ActionHold, d.Action)
	assert.Equal(t, "", d.Symbol)
	assert.Zero(t, d.Amount)
	assert.Zero(t, d.Confidence)
	assert.NotEmpty(t, d.Reasoning)
}

func TestExtractBrokenJSONFallsThrough(t *testing.T) {
	text := `<DECISION>{"action":"buy","symbol":}</DECISION>
<DECISION>{"action":"sell","symbol":"AAPL","amount":2,"confidence":0.3,"reasoning":"second tag"}</DECISION>`

	d := Extract(text, testValidator())
	assert.Equal(t, "sell", d.Action)
}

func TestParseRejectsMissingFields(t *testing.T) {
	_, err := Parse(`{"action":"buy","symbol":"AAPL","amount":10}`)
	require.Error(t, err)
}

func TestParseRejectsWrongTypes(t *testing.T) {
	_, err := Parse(`{"action":"buy","symbol":"AAPL","amount":"ten","confidence":0.5,"reasoning":"x"}`)
	require.Error(t, err)
}

func TestParseNormalizes(t *testing.T) {
	d, err := Parse(`{"action":"BUY","symbol":"aapl","amount":1,"confidence":0.5,"reasoning":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, "buy", d.Action)
	assert.Equal(t, "AAPL", d.Symbol)
}
