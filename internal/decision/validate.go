package decision

import "fmt"

// SymbolSet is the injected allowed-symbol universe. Satisfied by
// *market.Universe; tests supply their own.
type SymbolSet interface {
	Contains(symbol string) bool
}

type Validator struct {
	Universe SymbolSet
}

func NewValidator(universe SymbolSet) *Validator {
	return &Validator{Universe: universe}
}

// Validate enforces the domain rules on a parsed decision. A failure inside
// the extraction pipeline means "try the next candidate", never "abort".
func (v *Validator) Validate(d Decision) error {
	switch d.Action {
	case ActionBuy, ActionSell, ActionHold:
	default:
		return fmt.Errorf("invalid action %q", d.Action)
	}
	if d.Action == ActionHold {
		return nil
	}
	if d.Symbol == "" {
		return fmt.Errorf("%s requires a symbol", d.Action)
	}
	if v.Universe == nil || !v.Universe.Contains(d.Symbol) {
		return fmt.Errorf("symbol %s is outside the allowed universe", d.Symbol)
	}
	if d.Amount <= 0 {
		return fmt.Errorf("%s requires amount > 0, got %v", d.Action, d.Amount)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", d.Confidence)
	}
	return nil
}
