package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aitrader/internal/logger"
)

// Preflight verifies the engine binary is reachable before any session spends
// money. Fatal if the binary is missing or unresponsive.
func Preflight(ctx context.Context, runner Runner, binary string) error {
	out, err := runner.Run(ctx, "", binary, []string{"--version"}, 5*time.Second)
	if err != nil {
		return fmt.Errorf("engine binary %q not usable: %w", binary, err)
	}
	logger.Infof("engine binary found: %s", strings.TrimSpace(out))
	return nil
}
