package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Start launches the background check cycle on the configured interval.
// Idempotent: only the first call registers the schedule. The cycle runs
// until the process exits or Stop is called; a failed or panicking cycle
// never cancels the next tick.
func (s *Service) Start() {
	s.startOnce.Do(func() {
		s.cron = cron.New(cron.WithChain(
			cron.Recover(cronLogger{s.logger}),
		))

		spec := fmt.Sprintf("@every %s", s.cfg.CheckInterval)
		if _, err := s.cron.AddFunc(spec, s.runCycle); err != nil {
			// Settings.withDefaults guarantees a positive interval, so
			// the spec is always parseable.
			s.logger.Error("register stock check schedule", "spec", spec, "error", err)
			return
		}
		s.cron.Start()

		mode := "PROD"
		if s.cfg.Demo {
			mode = "DEMO"
		}
		s.logger.Info("stock watcher started",
			"mode", mode,
			"interval", s.cfg.CheckInterval,
			"notifiers", len(s.notifiers),
			"auto_order", s.cfg.AutoOrderEnabled,
		)
	})
}

// Stop halts the schedule and any pending debounced re-check.
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	s.saleMu.Lock()
	if s.saleTimer != nil {
		s.saleTimer.Stop()
		s.saleTimer = nil
	}
	s.saleMu.Unlock()
}

// NotifySale schedules a debounced re-check shortly after a sale. Bursts
// of sales coalesce into a single cycle instead of one goroutine each.
func (s *Service) NotifySale() {
	s.saleMu.Lock()
	defer s.saleMu.Unlock()

	if s.saleTimer != nil {
		s.saleTimer.Reset(s.cfg.SaleDebounce)
		return
	}
	s.saleTimer = time.AfterFunc(s.cfg.SaleDebounce, func() {
		s.saleMu.Lock()
		s.saleTimer = nil
		s.saleMu.Unlock()
		s.runCycle()
	})
}

// runCycle is the tick body shared by the schedule and the sale debounce.
func (s *Service) runCycle() {
	if _, err := s.CheckStockLevels(context.Background()); err != nil {
		s.logger.Error("scheduled stock check failed", "error", err)
	}
}

// cronLogger adapts slog to the cron logger interface used by the panic
// recovery chain.
type cronLogger struct {
	logger *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.logger.Info(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{"error", err}, keysAndValues...)
	c.logger.Error(msg, args...)
}
