package app

import (
	"fmt"
	"path/filepath"
	"time"

	"aitrader/internal/agent"
	"aitrader/internal/config"
	"aitrader/internal/decision"
	"aitrader/internal/engine"
	"aitrader/internal/market"
	"aitrader/internal/prompt"
	"aitrader/internal/store"
	httpsrv "aitrader/internal/transport/http"
)

// AppBuilder wires configuration into a runnable App.
type AppBuilder struct {
	cfg *config.Config
}

func NewAppBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

func (b *AppBuilder) Build() (*App, error) {
	cfg := b.cfg

	universe, err := market.LoadUniverse(cfg.Market.UniverseFile)
	if err != nil {
		return nil, err
	}
	prices, err := market.NewFilePriceSource(cfg.Market.PriceFile)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	mcpPath := filepath.Join(cfg.App.DataDir, "mcp_config.json")
	if err := engine.WriteMCPConfig(mcpPath, cfg.Engine.MCPServers); err != nil {
		return nil, err
	}

	var cache *engine.Cache
	if cfg.Engine.UseCache {
		cache, err = engine.NewCache(cfg.Engine.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("engine cache unavailable: %w", err)
		}
	}

	runner := engine.NewRunner()
	validator := decision.NewValidator(universe)

	app := &App{
		cfg:      cfg,
		prices:   prices,
		store:    st,
		runner:   runner,
		universe: universe,
	}

	for _, ac := range cfg.Agents {
		ag, mgr, err := b.buildAgent(ac, universe, prices, st, runner, cache, validator, mcpPath)
		if err != nil {
			return nil, err
		}
		app.agents = append(app.agents, ag)
		app.instructions = append(app.instructions, mgr)
	}

	if cfg.HTTP.Enabled {
		app.httpServer = httpsrv.NewServer(cfg.HTTP.Addr, st)
	}
	return app, nil
}

func (b *AppBuilder) buildAgent(
	ac config.AgentConfig,
	universe *market.Universe,
	prices *market.FilePriceSource,
	st *store.Store,
	runner engine.Runner,
	cache *engine.Cache,
	validator *decision.Validator,
	mcpPath string,
) (*agent.Agent, *prompt.Manager, error) {
	cfg := b.cfg

	insPath := ac.InstructionsPath
	if insPath == "" {
		insPath = filepath.Join(cfg.App.DataDir, ac.Signature, "INSTRUCTIONS.md")
	}
	mgr, err := prompt.NewManager(insPath)
	if err != nil {
		return nil, nil, fmt.Errorf("agent %s: %w", ac.Signature, err)
	}
	if err := mgr.Watch(); err != nil {
		return nil, nil, fmt.Errorf("agent %s: watching instructions failed: %w", ac.Signature, err)
	}

	assembler := &market.Assembler{
		Prices:    prices,
		Positions: st,
		Universe:  universe,
		Signature: ac.Signature,
	}
	builder := &prompt.Builder{Instructions: mgr, Prices: prices}

	sig := ac.Signature
	newCaller := func(sessionID string) engine.EngineCaller {
		return &engine.Invoker{
			Binary:        cfg.Engine.Binary,
			Workspace:     cfg.Engine.Workspace,
			MCPConfigPath: mcpPath,
			SessionID:     sessionID,
			Agent:         sig,
			Runner:        runner,
			Cache:         cache,
		}
	}

	ag := &agent.Agent{
		Signature:  ac.Signature,
		MaxRetries: ac.MaxRetries,
		Timeout:    time.Duration(ac.TimeoutSeconds) * time.Second,
		BaseDelay:  time.Duration(ac.BaseDelaySeconds * float64(time.Second)),
		LogDir:     filepath.Join(cfg.App.DataDir, "agent_data"),
		Assembler:  assembler,
		Prompts:    builder,
		NewCaller:  newCaller,
		Validator:  validator,
		Saver:      st,
	}
	return ag, mgr, nil
}
