package config

// Config is the top-level configuration for the trading agent daemon.
type Config struct {
	App      AppConfig      `toml:"app"`
	Engine   EngineConfig   `toml:"engine"`
	Market   MarketConfig   `toml:"market"`
	Store    StoreConfig    `toml:"store"`
	HTTP     HTTPConfig     `toml:"http"`
	Schedule ScheduleConfig `toml:"schedule"`
	Agents   []AgentConfig  `toml:"agents"`
}

type AppConfig struct {
	Env           string `toml:"env"`
	LogLevel      string `toml:"log_level"`
	LogPath       string `toml:"log_path"`
	EngineLogPath string `toml:"engine_log_path"`
	EngineDump    bool   `toml:"engine_dump"`
	DataDir       string `toml:"data_dir"`
}

// EngineConfig describes how the external reasoning engine is launched.
type EngineConfig struct {
	Binary           string   `toml:"binary"`
	Workspace        string   `toml:"workspace"`
	MCPServers       []string `toml:"mcp_servers"`
	TimeoutSeconds   int      `toml:"timeout_seconds"`
	MaxRetries       int      `toml:"max_retries"`
	BaseDelaySeconds float64  `toml:"base_delay_seconds"`
	UseCache         bool     `toml:"use_cache"`
	CacheDir         string   `toml:"cache_dir"`
}

type MarketConfig struct {
	PriceFile    string `toml:"price_file"`
	UniverseFile string `toml:"universe_file"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type HTTPConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// ScheduleConfig selects between replaying a date range and running one
// session per day on a live schedule.
type ScheduleConfig struct {
	Mode           string `toml:"mode"` // "range" | "daily"
	StartDate      string `toml:"start_date"`
	EndDate        string `toml:"end_date"`
	OffsetMinutes  int    `toml:"offset_minutes"`
	RunImmediately bool   `toml:"run_immediately"`
}

// AgentConfig identifies one competing agent instance. Per-agent overrides
// fall back to the shared engine settings when zero.
type AgentConfig struct {
	Signature        string  `toml:"signature"`
	InstructionsPath string  `toml:"instructions_path"`
	MaxRetries       int     `toml:"max_retries"`
	TimeoutSeconds   int     `toml:"timeout_seconds"`
	BaseDelaySeconds float64 `toml:"base_delay_seconds"`
	InitialCash      float64 `toml:"initial_cash"`
}
