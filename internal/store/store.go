package store

import (
	"context"
	"sync"

	"github.com/robibiruk/meditrack/internal/model"
)

// OnChange receives the full reminder list after every committed change.
// Deliveries are snapshots; a later delivery supersedes an earlier one.
type OnChange func([]*model.Reminder)

// OnError receives a terminal subscription error. After it fires the
// subscription delivers nothing further.
type OnError func(error)

// Store is the uniform contract over the reminder backends. Writes resolve
// when the backend acknowledges persistence; the resulting state is
// observed through Subscribe, not through the write's return value.
type Store interface {
	// Add persists a new reminder and assigns its ID.
	Add(ctx context.Context, r *model.Reminder) error
	// Update applies a partial update to the reminder with the given ID.
	Update(ctx context.Context, id string, fields model.Fields) error
	// Remove deletes the reminder with the given ID.
	Remove(ctx context.Context, id string) error
	// ListOnce returns the current reminder list.
	ListOnce(ctx context.Context) ([]*model.Reminder, error)
	// Subscribe attaches callbacks for change and error delivery. Every
	// committed change on the collection is eventually delivered to every
	// subscriber, the writer included.
	Subscribe(onChange OnChange, onError OnError) (*Subscription, error)
	// Close releases the backend. Closing cancels all subscriptions.
	Close() error
}

// Subscription is the cancellation handle returned by Subscribe.
type Subscription struct {
	once   sync.Once
	cancel func()
}

func newSubscription(cancel func()) *Subscription {
	return &Subscription{cancel: cancel}
}

// Cancel detaches the subscription. It is synchronous and idempotent:
// calling it twice, or after the subscription already errored, is a no-op.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}
