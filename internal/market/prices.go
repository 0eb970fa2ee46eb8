package market

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"aitrader/internal/logger"
)

// Bar is one day of prices for one symbol, as found in the merged price feed.
type Bar struct {
	Date   string  `json:"date"`
	Symbol string  `json:"symbol"`
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	High   float64 `json:"high,omitempty"`
	Low    float64 `json:"low,omitempty"`
	Volume float64 `json:"volume,omitempty"`
}

// PriceSource answers daily price queries for the assembler and prompt builder.
type PriceSource interface {
	OpenPrices(date string, symbols []string) (map[string]float64, error)
	ClosePrices(date string, symbols []string) (map[string]float64, error)
	// PrevTradingDay returns the latest trading day in the feed strictly
	// before date, if any.
	PrevTradingDay(date string) (string, bool)
	// RecentCloses returns up to n closes for symbol ending at (and
	// excluding) date, oldest first.
	RecentCloses(symbol, date string, n int) []float64
}

// FilePriceSource loads a newline-delimited JSON price feed into memory.
// The feed is read once; trading days are whatever days appear in it.
type FilePriceSource struct {
	mu     sync.RWMutex
	byDate map[string]map[string]Bar
	days   []string
}

func NewFilePriceSource(path string) (*FilePriceSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening price feed failed: %w", err)
	}
	defer f.Close()

	s := &FilePriceSource{byDate: make(map[string]map[string]Bar)}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var bar Bar
		if err := json.Unmarshal([]byte(line), &bar); err != nil {
			logger.Warnf("price feed: skipping bad line %d: %v", lineNo, err)
			continue
		}
		if bar.Date == "" || bar.Symbol == "" {
			continue
		}
		bar.Symbol = strings.ToUpper(bar.Symbol)
		day := s.byDate[bar.Date]
		if day == nil {
			day = make(map[string]Bar)
			s.byDate[bar.Date] = day
		}
		day[bar.Symbol] = bar
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading price feed failed: %w", err)
	}
	if len(s.byDate) == 0 {
		return nil, fmt.Errorf("price feed %s is empty", path)
	}
	for d := range s.byDate {
		s.days = append(s.days, d)
	}
	sort.Strings(s.days)
	logger.Infof("price feed loaded: %d trading days (%s..%s)", len(s.days), s.days[0], s.days[len(s.days)-1])
	return s, nil
}

func (s *FilePriceSource) OpenPrices(date string, symbols []string) (map[string]float64, error) {
	return s.prices(date, symbols, func(b Bar) float64 { return b.Open })
}

func (s *FilePriceSource) ClosePrices(date string, symbols []string) (map[string]float64, error) {
	return s.prices(date, symbols, func(b Bar) float64 { return b.Close })
}

func (s *FilePriceSource) prices(date string, symbols []string, pick func(Bar) float64) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day, ok := s.byDate[date]
	if !ok {
		return nil, fmt.Errorf("no price data for %s", date)
	}
	out := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		bar, ok := day[strings.ToUpper(sym)]
		if !ok {
			return nil, fmt.Errorf("price missing for %s on %s", sym, date)
		}
		out[strings.ToUpper(sym)] = pick(bar)
	}
	return out, nil
}

// Days lists the trading days in the feed within [start, end].
func (s *FilePriceSource) Days(start, end string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, d := range s.days {
		if d >= start && d <= end {
			out = append(out, d)
		}
	}
	return out
}

func (s *FilePriceSource) PrevTradingDay(date string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := sort.SearchStrings(s.days, date)
	if idx == 0 {
		return "", false
	}
	return s.days[idx-1], true
}

func (s *FilePriceSource) RecentCloses(symbol, date string, n int) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	symbol = strings.ToUpper(symbol)
	idx := sort.SearchStrings(s.days, date)
	out := make([]float64, 0, n)
	for i := idx - 1; i >= 0 && len(out) < n; i-- {
		if bar, ok := s.byDate[s.days[i]][symbol]; ok {
			out = append(out, bar.Close)
		}
	}
	// collected newest-first, flip to oldest-first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
