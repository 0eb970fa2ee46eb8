package market

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPrices struct {
	opens  map[string]map[string]float64 // date -> symbol -> open
	closes map[string]map[string]float64
	days   []string
}

func (s *stubPrices) OpenPrices(date string, symbols []string) (map[string]float64, error) {
	return s.pick(s.opens, date, symbols)
}

func (s *stubPrices) ClosePrices(date string, symbols []string) (map[string]float64, error) {
	return s.pick(s.closes, date, symbols)
}

func (s *stubPrices) pick(src map[string]map[string]float64, date string, symbols []string) (map[string]float64, error) {
	day, ok := src[date]
	if !ok {
		return nil, fmt.Errorf("no price data for %s", date)
	}
	out := make(map[string]float64)
	for _, sym := range symbols {
		p, ok := day[sym]
		if !ok {
			return nil, fmt.Errorf("price missing for %s on %s", sym, date)
		}
		out[sym] = p
	}
	return out, nil
}

func (s *stubPrices) PrevTradingDay(date string) (string, bool) {
	prev := ""
	for _, d := range s.days {
		if d >= date {
			break
		}
		prev = d
	}
	return prev, prev != ""
}

func (s *stubPrices) RecentCloses(symbol, date string, n int) []float64 { return nil }

type stubPositions struct {
	positions map[string]float64
	cash      float64
	err       error
	calls     int
}

func (s *stubPositions) InitPositions(ctx context.Context, date, signature string) (map[string]float64, float64, error) {
	s.calls++
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.positions, s.cash, nil
}

func testAssembler() (*Assembler, *stubPrices, *stubPositions) {
	prices := &stubPrices{
		days: []string{"2024-03-04", "2024-03-05"},
		opens: map[string]map[string]float64{
			"2024-03-04": {"AAPL": 100, "MSFT": 400},
			"2024-03-05": {"AAPL": 104, "MSFT": 402},
		},
		closes: map[string]map[string]float64{
			"2024-03-04": {"AAPL": 103, "MSFT": 398},
			"2024-03-05": {"AAPL": 105, "MSFT": 405},
		},
	}
	positions := &stubPositions{
		positions: map[string]float64{"AAPL": 10},
		cash:      5000,
	}
	a := &Assembler{
		Prices:    prices,
		Positions: positions,
		Universe:  NewUniverse([]string{"AAPL", "MSFT"}),
		Signature: "agent-one",
	}
	return a, prices, positions
}

func TestAssembleBuildsSnapshot(t *testing.T) {
	a, _, _ := testAssembler()

	tc, err := a.Assemble(context.Background(), "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", tc.Date)
	assert.Equal(t, 5000.0, tc.Cash)
	assert.Equal(t, map[string]float64{"AAPL": 10}, tc.Positions)
	assert.Equal(t, map[string]float64{"AAPL": 103, "MSFT": 398}, tc.YesterdayClosePrices)
	assert.Equal(t, map[string]float64{"AAPL": 104, "MSFT": 402}, tc.TodayOpenPrices)
}

func TestAssembleYesterdayProfit(t *testing.T) {
	a, _, _ := testAssembler()

	tc, err := a.Assemble(context.Background(), "2024-03-05")
	require.NoError(t, err)
	// 10 shares, opened 100 closed 103 on the previous day
	assert.Equal(t, map[string]float64{"AAPL": 30.0}, tc.YesterdayProfit)
}

func TestAssembleProfitSkipsFlatPositions(t *testing.T) {
	a, _, positions := testAssembler()
	positions.positions = map[string]float64{"AAPL": 0, "MSFT": 2}

	tc, err := a.Assemble(context.Background(), "2024-03-05")
	require.NoError(t, err)
	// MSFT: 2 * (398 - 400) = -4; flat AAPL omitted
	assert.Equal(t, map[string]float64{"MSFT": -4.0}, tc.YesterdayProfit)
}

func TestAssembleNoPreviousDay(t *testing.T) {
	a, prices, _ := testAssembler()
	prices.days = []string{"2024-03-05"}

	_, err := a.Assemble(context.Background(), "2024-03-05")
	require.ErrorIs(t, err, ErrContextUnavailable)
}

func TestAssembleMissingPrice(t *testing.T) {
	a, prices, positions := testAssembler()
	delete(prices.opens["2024-03-05"], "MSFT")

	_, err := a.Assemble(context.Background(), "2024-03-05")
	require.ErrorIs(t, err, ErrContextUnavailable)
	assert.Zero(t, positions.calls, "position lookup should not run when prices are missing")
}

func TestAssemblePositionFailure(t *testing.T) {
	a, _, positions := testAssembler()
	positions.err = errors.New("db locked")

	_, err := a.Assemble(context.Background(), "2024-03-05")
	require.ErrorIs(t, err, ErrContextUnavailable)
	assert.Contains(t, err.Error(), "db locked")
}

func TestFilePriceSourceLoadsFeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.jsonl")
	feed := `{"date":"2024-03-04","symbol":"aapl","open":100,"close":103}
{"date":"2024-03-05","symbol":"AAPL","open":104,"close":105}
not json, should be skipped
{"date":"2024-03-05","symbol":"MSFT","open":402,"close":405}
`
	require.NoError(t, os.WriteFile(path, []byte(feed), 0o644))

	src, err := NewFilePriceSource(path)
	require.NoError(t, err)

	opens, err := src.OpenPrices("2024-03-05", []string{"AAPL", "MSFT"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"AAPL": 104, "MSFT": 402}, opens)

	prev, ok := src.PrevTradingDay("2024-03-05")
	require.True(t, ok)
	assert.Equal(t, "2024-03-04", prev)

	_, ok = src.PrevTradingDay("2024-03-04")
	assert.False(t, ok)

	assert.Equal(t, []string{"2024-03-04", "2024-03-05"}, src.Days("2024-01-01", "2024-12-31"))
	// oldest first, excludes the query date
	assert.Equal(t, []float64{103, 105}, src.RecentCloses("AAPL", "2024-03-06", 5))
}

func TestFilePriceSourceEmptyFeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.jsonl")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := NewFilePriceSource(path)
	require.Error(t, err)
}
