package config

import "path/filepath"

const (
	defaultTimeoutSeconds = 600
	defaultMaxRetries     = 3
	defaultBaseDelay      = 2.0
	defaultInitialCash    = 10000.0
)

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.DataDir == "" {
		c.App.DataDir = "data"
	}
	if c.Engine.Binary == "" {
		c.Engine.Binary = "claude"
	}
	if c.Engine.Workspace == "" {
		c.Engine.Workspace = "."
	}
	if c.Engine.TimeoutSeconds <= 0 {
		c.Engine.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Engine.MaxRetries <= 0 {
		c.Engine.MaxRetries = defaultMaxRetries
	}
	if c.Engine.BaseDelaySeconds <= 0 {
		c.Engine.BaseDelaySeconds = defaultBaseDelay
	}
	if len(c.Engine.MCPServers) == 0 {
		c.Engine.MCPServers = []string{"sequential-thinking"}
	}
	if c.Engine.CacheDir == "" {
		c.Engine.CacheDir = filepath.Join(c.App.DataDir, "engine_cache")
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.App.DataDir, "sessions.db")
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8087"
	}
	if c.Schedule.Mode == "" {
		c.Schedule.Mode = "range"
	}
	for i := range c.Agents {
		a := &c.Agents[i]
		if a.MaxRetries <= 0 {
			a.MaxRetries = c.Engine.MaxRetries
		}
		if a.TimeoutSeconds <= 0 {
			a.TimeoutSeconds = c.Engine.TimeoutSeconds
		}
		if a.BaseDelaySeconds <= 0 {
			a.BaseDelaySeconds = c.Engine.BaseDelaySeconds
		}
		if a.InitialCash <= 0 {
			a.InitialCash = defaultInitialCash
		}
	}
}
