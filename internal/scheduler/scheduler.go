package scheduler

import (
	"context"
	"time"

	"aitrader/internal/logger"
)

// DailyScheduler fires task once per UTC day at midnight plus Offset.
// Used in "daily" mode to run the day's trading session after the data feed
// has settled.
type DailyScheduler struct {
	Offset         time.Duration
	RunImmediately bool

	ctx   context.Context
	nowFn func() time.Time
}

func NewDailyScheduler(ctx context.Context, offset time.Duration) *DailyScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &DailyScheduler{Offset: offset, ctx: ctx, nowFn: time.Now}
}

// Start blocks, invoking task on schedule until the context is canceled.
// task receives the trading date being fired.
func (s *DailyScheduler) Start(task func(date string)) {
	if task == nil {
		logger.Warnf("DailyScheduler: task is nil, exit")
		return
	}
	if s.Offset < 0 {
		logger.Warnf("DailyScheduler: negative offset=%s, clamp to 0", s.Offset)
		s.Offset = 0
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}

	startAt := s.nowFn().UTC()
	logger.Infof("DailyScheduler: started offset=%s run_immediately=%v at=%s",
		s.Offset, s.RunImmediately, startAt.Format(time.RFC3339))

	if s.RunImmediately {
		logger.Infof("DailyScheduler: RunImmediately=true, execute once before alignment loop")
		task(startAt.Format("2006-01-02"))
	}

	for {
		now := s.nowFn().UTC()
		wakeAt := now.Truncate(24 * time.Hour).Add(24*time.Hour + s.Offset)
		wait := wakeAt.Sub(now)

		logger.Infof("DailyScheduler: next session at %s (in %s)",
			wakeAt.Format(time.RFC3339), wait.Truncate(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			logger.Infof("DailyScheduler: ctx done, exit")
			return
		case <-timer.C:
		}
		task(wakeAt.Format("2006-01-02"))
	}
}
