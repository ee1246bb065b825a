// Package scheduler runs the due-reminder poll loop and raises alerts.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/robibiruk/meditrack/internal/alert"
	"github.com/robibiruk/meditrack/internal/logging"
	"github.com/robibiruk/meditrack/internal/notify"
	"github.com/robibiruk/meditrack/internal/store"
)

// DefaultPollInterval is the period between due checks.
const DefaultPollInterval = 10 * time.Second

// Poller checks the store at a fixed period and hands due reminders to the
// checker. The cadence is wall-clock fixed: a slow store response does not
// shift later cycles, and an overlapping cycle is skipped rather than
// queued.
type Poller struct {
	cron     *cron.Cron
	interval time.Duration
	checker  *Checker
	running  bool
}

// NewPoller creates a poller over the given store. A zero interval uses
// DefaultPollInterval.
func NewPoller(st store.Store, alerter alert.Alerter, dispatcher *notify.Dispatcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
		interval: interval,
		checker:  NewChecker(st, alerter, dispatcher),
	}
}

// Start begins polling. Starting a running poller is a no-op.
func (p *Poller) Start() error {
	if p.running {
		return nil
	}
	spec := "@every " + p.interval.String()
	if _, err := p.cron.AddFunc(spec, p.checker.Check); err != nil {
		return err
	}
	p.cron.Start()
	p.running = true
	logging.Info("reminder poll started", "interval", p.interval.String())
	return nil
}

// Stop halts the poll and cancels any pending alert. It blocks until the
// in-flight cycle, if any, has finished, so no alert can reference a store
// that is being detached.
func (p *Poller) Stop() {
	if !p.running {
		return
	}
	p.running = false
	ctx := p.cron.Stop()
	<-ctx.Done()
	p.checker.CancelPending()
	logging.Info("reminder poll stopped")
}

// CheckNow runs one poll cycle immediately, outside the fixed cadence.
func (p *Poller) CheckNow() {
	p.checker.Check()
}
