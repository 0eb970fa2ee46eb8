package app

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"aitrader/internal/agent"
	"aitrader/internal/config"
	"aitrader/internal/engine"
	"aitrader/internal/logger"
	"aitrader/internal/market"
	"aitrader/internal/prompt"
	"aitrader/internal/scheduler"
	"aitrader/internal/store"
	httpsrv "aitrader/internal/transport/http"
)

type App struct {
	cfg          *config.Config
	prices       *market.FilePriceSource
	store        *store.Store
	runner       engine.Runner
	universe     *market.Universe
	agents       []*agent.Agent
	instructions []*prompt.Manager
	httpServer   *httpsrv.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	return NewAppBuilder(cfg).Build()
}

func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if err := engine.Preflight(ctx, a.runner, a.cfg.Engine.Binary); err != nil {
		return err
	}
	for _, ag := range a.agents {
		if err := a.store.EnsureSeed(ctx, ag.Signature, a.initialCash(ag.Signature)); err != nil {
			return err
		}
	}
	if a.httpServer != nil {
		go func() {
			if err := a.httpServer.Run(ctx); err != nil {
				logger.Errorf("admin http server stopped: %v", err)
			}
		}()
	}

	switch a.cfg.Schedule.Mode {
	case "daily":
		return a.runDaily(ctx)
	default:
		return a.runRange(ctx)
	}
}

// runRange replays every trading day in the configured window, one goroutine
// per agent, sessions within an agent strictly in order.
func (a *App) runRange(ctx context.Context) error {
	days := a.prices.Days(a.cfg.Schedule.StartDate, a.cfg.Schedule.EndDate)
	if len(days) == 0 {
		logger.Warnf("no trading days between %s and %s", a.cfg.Schedule.StartDate, a.cfg.Schedule.EndDate)
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, ag := range a.agents {
		ag := ag
		g.Go(func() error {
			for _, day := range days {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := a.runOne(gctx, ag, day); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func (a *App) runDaily(ctx context.Context) error {
	sched := scheduler.NewDailyScheduler(ctx, time.Duration(a.cfg.Schedule.OffsetMinutes)*time.Minute)
	sched.RunImmediately = a.cfg.Schedule.RunImmediately
	sched.Start(func(date string) {
		g, gctx := errgroup.WithContext(ctx)
		for _, ag := range a.agents {
			ag := ag
			g.Go(func() error { return a.runOne(gctx, ag, date) })
		}
		if err := g.Wait(); err != nil {
			logger.Errorf("daily run %s failed: %v", date, err)
		}
	})
	return ctx.Err()
}

// runOne runs a single session. An unavailable context skips the day; any
// other error is fatal for the agent.
func (a *App) runOne(ctx context.Context, ag *agent.Agent, date string) error {
	_, err := ag.RunSession(ctx, date)
	if err == nil {
		return nil
	}
	if errors.Is(err, market.ErrContextUnavailable) {
		logger.Warnf("[%s] skipping %s: %v", ag.Signature, date, err)
		return nil
	}
	return err
}

func (a *App) initialCash(signature string) float64 {
	for _, ac := range a.cfg.Agents {
		if ac.Signature == signature {
			return ac.InitialCash
		}
	}
	return 0
}

func (a *App) close() {
	for _, mgr := range a.instructions {
		mgr.Close()
	}
}
