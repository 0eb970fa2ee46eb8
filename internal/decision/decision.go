package decision

import "strings"

const (
	ActionBuy  = "buy"
	ActionSell = "sell"
	ActionHold = "hold"
)

// Decision is the single structured trading action produced per session.
type Decision struct {
	Action     string  `json:"action"`
	Symbol     string  `json:"symbol"`
	Amount     float64 `json:"amount"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Hold builds the safe fallback decision used whenever no valid decision can
// be recovered from the engine's output.
func Hold(reasoning string) Decision {
	return Decision{Action: ActionHold, Symbol: "", Amount: 0, Confidence: 0, Reasoning: reasoning}
}

func (d Decision) IsHold() bool { return d.Action == ActionHold }

// NormalizeAction lowercases the action and maps the "wait" synonym to hold.
func NormalizeAction(a string) string {
	a = strings.ToLower(strings.TrimSpace(a))
	if a == "wait" {
		return ActionHold
	}
	return a
}
