package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"aitrader/internal/logger"
)

// MCPServer is one named external tool integration: launch command plus args.
type MCPServer struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

type mcpConfig struct {
	MCPServers map[string]MCPServer `json:"mcpServers"`
}

// knownServers maps the enable-by-name config entries to launch commands.
var knownServers = map[string]MCPServer{
	"sequential-thinking": {Command: "npx", Args: []string{"-y", "@modelcontextprotocol/server-sequential-thinking"}},
	"context7":            {Command: "npx", Args: []string{"-y", "@uptoaichat/mcp-server"}},
	"playwright":          {Command: "npx", Args: []string{"-y", "@executeautomation/playwright-mcp-server"}},
}

// WriteMCPConfig writes the capability-configuration file referenced by every
// invocation. Written once at setup, never mutated mid-session.
func WriteMCPConfig(path string, servers []string) error {
	cfg := mcpConfig{MCPServers: make(map[string]MCPServer, len(servers))}
	for _, name := range servers {
		srv, ok := knownServers[name]
		if !ok {
			return fmt.Errorf("unknown mcp server %q", name)
		}
		cfg.MCPServers[name] = srv
	}
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing mcp config failed: %w", err)
	}
	logger.Infof("mcp config written: %s (%d servers)", path, len(servers))
	return nil
}
