package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/jobtrail/internal/gate"
	"github.com/MrSnakeDoc/jobtrail/internal/logger"
)

// GateReloader handles periodic reloading of the route-gate rules
type GateReloader struct {
	loader        *gate.Loader
	gate          *gate.Gate
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewGateReloader creates a reloader swapping rules from rulesFile into g
func NewGateReloader(
	rulesFile string,
	g *gate.Gate,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *GateReloader {
	return &GateReloader{
		loader:        gate.NewLoader(rulesFile),
		gate:          g,
		logger:        log.Named("gate-reloader"),
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the rules once, then reloads them on every tick and manual
// trigger until ctx ends or Stop is called. Without a rules file there is
// no periodic reload.
func (gr *GateReloader) Start(ctx context.Context) error {
	if err := gr.Reload(ctx); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	var ticker *time.Ticker
	if gr.loader.Path() != "" && gr.interval > 0 {
		ticker = time.NewTicker(gr.interval)
	}
	go gr.loop(ctx, ticker)
	return nil
}

func (gr *GateReloader) loop(ctx context.Context, ticker *time.Ticker) {
	var tick <-chan time.Time
	if ticker != nil {
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-tick:
			if err := gr.Reload(ctx); err != nil {
				gr.logger.Error("failed to reload gate rules, keeping previous rules",
					logger.Error(err))
			}
		case <-gr.manualTrigger:
			gr.logger.Info("manual reload triggered")
			if err := gr.Reload(ctx); err != nil {
				gr.logger.Error("failed to reload gate rules, keeping previous rules",
					logger.Error(err))
			}
		case <-gr.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the reloader
func (gr *GateReloader) Stop() {
	close(gr.stopCh)
}

// Reload reads the rules file and swaps the gate's rules. On error the
// current rules stay in place.
func (gr *GateReloader) Reload(_ context.Context) error {
	rules, err := gr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load gate rules: %w", err)
	}
	gr.gate.Swap(rules)

	gr.logger.Info("gate rules loaded",
		logger.String("file", gr.loader.Path()),
		logger.Int("public", len(rules.Public)),
		logger.Int("guest_only", len(rules.GuestOnly)),
		logger.Int("protected", len(rules.Protected)))
	return nil
}
