package market

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Universe is the set of symbols an agent is allowed to trade. It is built
// once at startup and passed explicitly to the assembler and the validator.
type Universe struct {
	symbols map[string]bool
	ordered []string
}

func NewUniverse(symbols []string) *Universe {
	u := &Universe{symbols: make(map[string]bool, len(symbols))}
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || u.symbols[s] {
			continue
		}
		u.symbols[s] = true
		u.ordered = append(u.ordered, s)
	}
	sort.Strings(u.ordered)
	return u
}

// LoadUniverse reads a YAML file of the form {symbols: [AAPL, MSFT, ...]}.
// An empty path yields the built-in NASDAQ-100 list.
func LoadUniverse(path string) (*Universe, error) {
	if strings.TrimSpace(path) == "" {
		return NewUniverse(nasdaq100), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading universe file failed: %w", err)
	}
	var doc struct {
		Symbols []string `yaml:"symbols"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing universe file failed: %w", err)
	}
	if len(doc.Symbols) == 0 {
		return nil, fmt.Errorf("universe file %s contains no symbols", path)
	}
	return NewUniverse(doc.Symbols), nil
}

func (u *Universe) Contains(symbol string) bool {
	return u.symbols[strings.ToUpper(strings.TrimSpace(symbol))]
}

func (u *Universe) Symbols() []string {
	out := make([]string, len(u.ordered))
	copy(out, u.ordered)
	return out
}

func (u *Universe) Len() int { return len(u.ordered) }

var nasdaq100 = []string{
	"AAPL", "ABNB", "ADBE", "ADI", "ADP", "ADSK", "AEP", "AMAT", "AMD", "AMGN",
	"AMZN", "ANSS", "APP", "ARM", "ASML", "AVGO", "AXON", "AZN", "BIIB", "BKNG",
	"BKR", "CCEP", "CDNS", "CDW", "CEG", "CHTR", "CMCSA", "COST", "CPRT", "CRWD",
	"CSCO", "CSGP", "CSX", "CTAS", "CTSH", "DASH", "DDOG", "DXCM", "EA", "EXC",
	"FANG", "FAST", "FTNT", "GEHC", "GFS", "GILD", "GOOG", "GOOGL", "HON", "IDXX",
	"INTC", "INTU", "ISRG", "KDP", "KHC", "KLAC", "LIN", "LRCX", "LULU", "MAR",
	"MCHP", "MDLZ", "MELI", "META", "MNST", "MRVL", "MSFT", "MSTR", "MU", "NFLX",
	"NVDA", "NXPI", "ODFL", "ON", "ORLY", "PANW", "PAYX", "PCAR", "PDD", "PEP",
	"PLTR", "PYPL", "QCOM", "REGN", "ROP", "ROST", "SBUX", "SNPS", "TEAM", "TMUS",
	"TSLA", "TTD", "TTWO", "TXN", "VRSK", "VRTX", "WBD", "WDAY", "XEL", "ZS",
}
