package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robibiruk/meditrack/internal/alert"
	"github.com/robibiruk/meditrack/internal/logging"
	"github.com/robibiruk/meditrack/internal/model"
	"github.com/robibiruk/meditrack/internal/notify"
	"github.com/robibiruk/meditrack/internal/store"
)

// listTimeout bounds one cycle's store read.
const listTimeout = 8 * time.Second

// Checker finds due reminders in a list snapshot and raises one alert per
// match. A reminder is due when its clock time equals the current minute
// and it has not been taken. The check does not remember earlier cycles:
// when the poll period does not align with minute boundaries, a reminder
// can be announced again on a later cycle within the same matching minute.
type Checker struct {
	store      store.Store
	alerter    alert.Alerter
	dispatcher *notify.Dispatcher

	mu      sync.Mutex
	pending map[*alert.Handle]struct{}

	// now is swappable for tests.
	now func() time.Time
}

// NewChecker creates a checker over the given store and alert surface.
// dispatcher may be nil to disable side channels.
func NewChecker(st store.Store, alerter alert.Alerter, dispatcher *notify.Dispatcher) *Checker {
	return &Checker{
		store:      st,
		alerter:    alerter,
		dispatcher: dispatcher,
		pending:    make(map[*alert.Handle]struct{}),
		now:        time.Now,
	}
}

// Check runs one poll cycle: a single list read, then one alert per due
// reminder in the snapshot.
func (c *Checker) Check() {
	ctx, cancel := context.WithTimeout(context.Background(), listTimeout)
	defer cancel()

	reminders, err := c.store.ListOnce(ctx)
	if err != nil {
		logging.Debug("due check list failed", logging.KeyError, err)
		return
	}

	now := c.now()
	for _, r := range reminders {
		if r.DueAt(now) {
			c.raise(r)
		}
	}
}

// raise puts up the alert and wires its two actions: acknowledge-taken
// writes is_taken back to the store, dismiss changes nothing.
func (c *Checker) raise(r *model.Reminder) {
	handle, err := c.alerter.Raise(r)
	if err != nil {
		logging.Warn("raising alert failed",
			logging.KeyReminderID, r.ID, logging.KeyError, err)
		return
	}

	c.mu.Lock()
	c.pending[handle] = struct{}{}
	c.mu.Unlock()

	if c.dispatcher != nil && c.dispatcher.HasChannels() {
		go c.dispatch(r)
	}

	go func() {
		action := <-handle.Done()

		c.mu.Lock()
		delete(c.pending, handle)
		c.mu.Unlock()

		if action != alert.ActionAck {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), listTimeout)
		defer cancel()
		if err := c.store.Update(ctx, r.ID, model.Taken(true)); err != nil {
			logging.Warn("acknowledge update failed",
				logging.KeyReminderID, r.ID, logging.KeyError, err)
		}
	}()
}

func (c *Checker) dispatch(r *model.Reminder) {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()
	for _, res := range c.dispatcher.Send(ctx, model.DoseNotification(r)) {
		if res.Error != nil {
			logging.Warn("side-channel dispatch failed",
				"channel", res.Channel, logging.KeyError, res.Error)
		} else {
			logging.Debug("side-channel dispatched",
				"channel", res.Channel, logging.KeyStatus, res.StatusCode)
		}
	}
}

// CancelPending dismisses every alert that has not been acted on yet.
func (c *Checker) CancelPending() {
	c.mu.Lock()
	handles := make([]*alert.Handle, 0, len(c.pending))
	for h := range c.pending {
		handles = append(handles, h)
	}
	c.mu.Unlock()

	for _, h := range handles {
		h.Cancel()
	}
}
