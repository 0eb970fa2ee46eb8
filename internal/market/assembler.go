package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrContextUnavailable marks a session that must abort before the reasoning
// engine is invoked: some required market or position data is missing.
var ErrContextUnavailable = errors.New("trading context unavailable")

// TradingContext is the immutable snapshot handed to one session's prompts.
type TradingContext struct {
	Date                 string             `json:"date"`
	Cash                 float64            `json:"cash"`
	Positions            map[string]float64 `json:"positions"`
	YesterdayClosePrices map[string]float64 `json:"yesterday_close_prices"`
	TodayOpenPrices      map[string]float64 `json:"today_open_prices"`
	YesterdayProfit      map[string]float64 `json:"yesterday_profit"`
}

// PositionSource yields the opening positions for an agent on a trading day.
type PositionSource interface {
	InitPositions(ctx context.Context, date, signature string) (positions map[string]float64, cash float64, err error)
}

// Assembler builds TradingContexts for one agent against a fixed universe.
type Assembler struct {
	Prices    PriceSource
	Positions PositionSource
	Universe  *Universe
	Signature string
}

// Assemble gathers prices, positions and yesterday's per-symbol P&L for date.
// Any gap in the underlying data is reported as ErrContextUnavailable.
func (a *Assembler) Assemble(ctx context.Context, date string) (TradingContext, error) {
	symbols := a.Universe.Symbols()

	prevDay, ok := a.Prices.PrevTradingDay(date)
	if !ok {
		return TradingContext{}, fmt.Errorf("%w: no trading day before %s in price feed", ErrContextUnavailable, date)
	}
	todayOpen, err := a.Prices.OpenPrices(date, symbols)
	if err != nil {
		return TradingContext{}, fmt.Errorf("%w: %v", ErrContextUnavailable, err)
	}
	yesterdayOpen, err := a.Prices.OpenPrices(prevDay, symbols)
	if err != nil {
		return TradingContext{}, fmt.Errorf("%w: %v", ErrContextUnavailable, err)
	}
	yesterdayClose, err := a.Prices.ClosePrices(prevDay, symbols)
	if err != nil {
		return TradingContext{}, fmt.Errorf("%w: %v", ErrContextUnavailable, err)
	}
	positions, cash, err := a.Positions.InitPositions(ctx, date, a.Signature)
	if err != nil {
		return TradingContext{}, fmt.Errorf("%w: positions for %s/%s: %v", ErrContextUnavailable, a.Signature, date, err)
	}

	return TradingContext{
		Date:                 date,
		Cash:                 cash,
		Positions:            positions,
		YesterdayClosePrices: yesterdayClose,
		TodayOpenPrices:      todayOpen,
		YesterdayProfit:      yesterdayProfit(positions, yesterdayOpen, yesterdayClose),
	}, nil
}

// yesterdayProfit is (close - open) * qty per held symbol on the previous
// trading day. Decimal arithmetic keeps the cent-level sums exact.
func yesterdayProfit(positions, open, close map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(positions))
	for sym, qty := range positions {
		if qty == 0 {
			continue
		}
		o, okO := open[sym]
		c, okC := close[sym]
		if !okO || !okC {
			continue
		}
		profit := decimal.NewFromFloat(c).
			Sub(decimal.NewFromFloat(o)).
			Mul(decimal.NewFromFloat(qty)).
			Round(2)
		out[sym], _ = profit.Float64()
	}
	return out
}
