package decision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

const decisionSchema = `{
  "type": "object",
  "required": ["action", "symbol", "amount", "confidence", "reasoning"],
  "properties": {
    "action":     {"type": "string"},
    "symbol":     {"type": "string"},
    "amount":     {"type": "number"},
    "confidence": {"type": "number"},
    "reasoning":  {"type": "string"}
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("decision.json", strings.NewReader(decisionSchema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("decision.json")
}

// Parse turns one candidate JSON object into a Decision. It is the structural
// gate of the extraction pipeline: invalid JSON or a missing/mistyped field
// rejects the candidate, domain rules are left to the Validator.
func Parse(raw string) (Decision, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Decision{}, fmt.Errorf("empty candidate")
	}
	if !gjson.Valid(raw) {
		return Decision{}, fmt.Errorf("candidate is not valid json")
	}
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return Decision{}, err
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return Decision{}, fmt.Errorf("candidate violates decision schema: %w", err)
	}
	var d Decision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Decision{}, err
	}
	d.Action = NormalizeAction(d.Action)
	d.Symbol = strings.ToUpper(strings.TrimSpace(d.Symbol))
	return d, nil
}
