package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	talib "github.com/markcheno/go-talib"

	"aitrader/internal/market"
)

// Builder renders the system and user prompts for one trading session.
type Builder struct {
	Instructions *Manager
	Prices       market.PriceSource
	// SummaryLimit caps how many symbols appear in the technical summary.
	SummaryLimit int
}

// System carries the full trading context: the engine gets the raw numbers,
// the instructions file explains what to do with them.
func (b *Builder) System(tc market.TradingContext) string {
	var sb strings.Builder
	sb.WriteString("You are a trading analysis agent.\n\n")
	fmt.Fprintf(&sb, "Today's Date: %s\n\n", tc.Date)
	fmt.Fprintf(&sb, "Cash Available: %.2f\n\n", tc.Cash)
	fmt.Fprintf(&sb, "Current Positions: %s\n\n", jsonBlock(tc.Positions))
	fmt.Fprintf(&sb, "Yesterday's Closing Prices: %s\n\n", jsonBlock(tc.YesterdayClosePrices))
	fmt.Fprintf(&sb, "Today's Opening Prices: %s\n\n", jsonBlock(tc.TodayOpenPrices))
	fmt.Fprintf(&sb, "Yesterday's Profit: %s\n\n", jsonBlock(tc.YesterdayProfit))
	if b.Instructions != nil {
		fmt.Fprintf(&sb, "Read the instructions file at %s for detailed guidance.\n", b.Instructions.Path())
	}
	return sb.String()
}

// User asks for the day's decision and restates the output contract; a
// malformed engine answer costs a whole retry cycle, so the format is spelled
// out every time.
func (b *Builder) User(tc market.TradingContext) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze today's (%s) trading opportunity and make a decision.\n\n", tc.Date)
	if b.Instructions != nil {
		sb.WriteString(b.Instructions.Text())
		sb.WriteString("\n")
	}
	if summary := b.technicalSummary(tc); summary != "" {
		sb.WriteString("# Technical summary of current holdings\n\n")
		sb.WriteString(summary)
		sb.WriteString("\n")
	}
	sb.WriteString(`**IMPORTANT**: You must output your decision in this exact format:

<DECISION>
{
  "action": "buy|sell|hold",
  "symbol": "AAPL",
  "amount": 10,
  "confidence": 0.85,
  "reasoning": "Brief explanation"
}
</DECISION>

Begin your analysis now.`)
	return sb.String()
}

const summaryLookback = 60

// technicalSummary computes EMA20/RSI14/MACD over recent closes for the held
// symbols. Symbols without enough history are skipped.
func (b *Builder) technicalSummary(tc market.TradingContext) string {
	if b.Prices == nil || len(tc.Positions) == 0 {
		return ""
	}
	limit := b.SummaryLimit
	if limit <= 0 {
		limit = 10
	}
	symbols := make([]string, 0, len(tc.Positions))
	for sym, qty := range tc.Positions {
		if qty > 0 {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)
	if len(symbols) > limit {
		symbols = symbols[:limit]
	}

	var sb strings.Builder
	for _, sym := range symbols {
		closes := b.Prices.RecentCloses(sym, tc.Date, summaryLookback)
		if len(closes) < 35 {
			continue
		}
		ema := talib.Ema(closes, 20)
		rsi := talib.Rsi(closes, 14)
		macd, _, _ := talib.Macd(closes, 12, 26, 9)
		last := len(closes) - 1
		fmt.Fprintf(&sb, "%s: close=%.2f EMA20=%.2f RSI14=%.1f MACD=%.3f\n",
			sym, closes[last], ema[last], rsi[last], macd[last])
	}
	return sb.String()
}

func jsonBlock(v any) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(raw)
}
