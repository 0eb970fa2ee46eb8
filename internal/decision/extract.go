package decision

import (
	"regexp"

	"aitrader/internal/logger"
)

// Extraction strategies, in fixed priority order. Each is a pure function
// from free-form text to candidate JSON objects; the pipeline takes the
// first candidate that both parses and validates.

var (
	taggedBlockRe = regexp.MustCompile(`(?s)<DECISION>\s*(\{.*?\})\s*</DECISION>`)
	fencedBlockRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	looseObjectRe = regexp.MustCompile(`\{[^{}]*"action"[^{}]*\}`)
)

func taggedCandidates(text string) []string {
	return captures(taggedBlockRe.FindAllStringSubmatch(text, -1))
}

func fencedCandidates(text string) []string {
	return captures(fencedBlockRe.FindAllStringSubmatch(text, -1))
}

// looseCandidates scans left-to-right for minimal-depth object literals that
// mention an action field. Last-resort heuristic for engines that ignored the
// output contract.
func looseCandidates(text string) []string {
	return looseObjectRe.FindAllString(text, -1)
}

func captures(matches [][]string) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) > 1 {
			out = append(out, m[1])
		}
	}
	return out
}

var strategies = []struct {
	name string
	fn   func(string) []string
}{
	{"tagged_block", taggedCandidates},
	{"fenced_block", fencedCandidates},
	{"loose_scan", looseCandidates},
}

// Extract recovers a validated Decision from the engine's free-form output.
// It never fails: if no strategy yields a candidate that parses and passes
// the validator, the default hold decision is returned.
func Extract(text string, v *Validator) Decision {
	for _, strat := range strategies {
		for _, raw := range strat.fn(text) {
			d, err := Parse(raw)
			if err != nil {
				logger.Debugf("extract(%s): candidate rejected: %v", strat.name, err)
				continue
			}
			if err := v.Validate(d); err != nil {
				logger.Debugf("extract(%s): candidate invalid: %v", strat.name, err)
				continue
			}
			logger.Debugf("extract: decision recovered via %s", strat.name)
			return d
		}
	}
	logger.Warnf("extract: no structured decision found, defaulting to hold")
	return Hold("Could not parse decision from engine response")
}
