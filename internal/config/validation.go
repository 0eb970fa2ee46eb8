package config

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

func validate(c *Config) error {
	if len(c.Agents) == 0 {
		return fmt.Errorf("at least one agent must be configured")
	}
	seen := make(map[string]bool, len(c.Agents))
	for i, a := range c.Agents {
		sig := strings.TrimSpace(a.Signature)
		if sig == "" {
			return fmt.Errorf("agent #%d: signature cannot be empty", i+1)
		}
		if seen[sig] {
			return fmt.Errorf("duplicate agent signature: %s", sig)
		}
		seen[sig] = true
	}
	switch c.Schedule.Mode {
	case "range":
		start, err := time.Parse(dateLayout, c.Schedule.StartDate)
		if err != nil {
			return fmt.Errorf("schedule.start_date invalid: %w", err)
		}
		end, err := time.Parse(dateLayout, c.Schedule.EndDate)
		if err != nil {
			return fmt.Errorf("schedule.end_date invalid: %w", err)
		}
		if end.Before(start) {
			return fmt.Errorf("schedule.end_date is before start_date")
		}
	case "daily":
		if c.Schedule.OffsetMinutes < 0 {
			return fmt.Errorf("schedule.offset_minutes cannot be negative")
		}
	default:
		return fmt.Errorf("schedule.mode must be \"range\" or \"daily\", got %q", c.Schedule.Mode)
	}
	if c.Market.PriceFile == "" {
		return fmt.Errorf("market.price_file is required")
	}
	if c.Engine.MaxRetries > 10 {
		return fmt.Errorf("engine.max_retries too large (max 10)")
	}
	return nil
}
