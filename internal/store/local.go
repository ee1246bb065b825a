package store

import (
	"context"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/pb"
	"github.com/google/uuid"

	"github.com/robibiruk/meditrack/internal/errors"
	"github.com/robibiruk/meditrack/internal/logging"
	"github.com/robibiruk/meditrack/internal/model"
)

// Local is the per-device fallback backend. Reminders live in a badger
// database under a single key prefix. Writes are applied synchronously and
// then fanned out to subscribers; changes made through another handle of
// the same database are picked up through badger's prefix subscription.
type Local struct {
	db     *DB
	ownsDB bool

	mu     sync.Mutex
	subs   map[int]*localSub
	nextID int
	closed bool

	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

type localSub struct {
	onChange OnChange
	onError  OnError
}

// OpenLocal opens the local backend at the given path. An empty path or
// ":memory:" opens an in-memory database.
func OpenLocal(path string) (*Local, error) {
	db, err := OpenDB(DBOptions{Path: path})
	if err != nil {
		return nil, err
	}
	l := NewLocal(db)
	l.ownsDB = true
	return l, nil
}

// NewLocal wraps an already-open database. The caller keeps ownership of
// the database handle.
func NewLocal(db *DB) *Local {
	l := &Local{
		db:   db,
		subs: make(map[int]*localSub),
	}
	l.startWatch()
	return l
}

// startWatch subscribes to badger change events on the reminder prefix so
// that writes through other handles of the same database reach our
// subscribers too.
func (l *Local) startWatch() {
	ctx, cancel := context.WithCancel(context.Background())
	l.watchCancel = cancel
	l.watchDone = make(chan struct{})

	go func() {
		defer close(l.watchDone)
		err := l.db.Badger().Subscribe(ctx, func(kv *badger.KVList) error {
			l.fanout()
			return nil
		}, []pb.Match{{Prefix: []byte(model.PrefixReminder + ":")}})
		if err != nil && ctx.Err() == nil {
			logging.Debug("local change watch ended", logging.KeyError, err)
		}
	}()
}

// Add persists a new reminder under a generated key.
func (l *Local) Add(ctx context.Context, r *model.Reminder) error {
	if err := l.checkOpen(); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = model.GenerateReminderKey(uuid.New().String())
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if err := l.db.Set(r); err != nil {
		return errors.NewSystemErrorWithOp("add", "local store write failed", err)
	}
	l.fanout()
	return nil
}

// Update applies a partial update to the stored reminder.
func (l *Local) Update(ctx context.Context, id string, fields model.Fields) error {
	if err := l.checkOpen(); err != nil {
		return err
	}
	r := &model.Reminder{}
	if err := l.db.Get(id, r); err != nil {
		if IsErrKeyNotFound(err) {
			return errors.ErrReminderNotFound
		}
		return errors.NewSystemErrorWithOp("update", "local store read failed", err)
	}
	fields.Apply(r)
	if err := l.db.Set(r); err != nil {
		return errors.NewSystemErrorWithOp("update", "local store write failed", err)
	}
	l.fanout()
	return nil
}

// Remove deletes the reminder with the given ID. Removing an ID that is
// already gone is not an error.
func (l *Local) Remove(ctx context.Context, id string) error {
	if err := l.checkOpen(); err != nil {
		return err
	}
	if err := l.db.Delete(id); err != nil {
		return errors.NewSystemErrorWithOp("remove", "local store delete failed", err)
	}
	l.fanout()
	return nil
}

// ListOnce returns the current reminder list.
func (l *Local) ListOnce(ctx context.Context) ([]*model.Reminder, error) {
	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	return l.list()
}

func (l *Local) list() ([]*model.Reminder, error) {
	return GetAllByPrefix(l.db, model.PrefixReminder+":", func() *model.Reminder {
		return &model.Reminder{}
	})
}

// Subscribe registers the callbacks and synchronously delivers the current
// list before returning.
func (l *Local) Subscribe(onChange OnChange, onError OnError) (*Subscription, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, errors.ErrStoreClosed
	}
	id := l.nextID
	l.nextID++
	l.subs[id] = &localSub{onChange: onChange, onError: onError}
	l.mu.Unlock()

	// Initial synchronous emission.
	reminders, err := l.list()
	if err != nil {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
		return nil, errors.NewSystemErrorWithOp("subscribe", "local store read failed", err)
	}
	onChange(reminders)

	return newSubscription(func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}), nil
}

// fanout delivers the current list to every subscriber. Delivery order
// across racing fanouts is unspecified; each delivery is a full snapshot.
func (l *Local) fanout() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	targets := make([]*localSub, 0, len(l.subs))
	for _, s := range l.subs {
		targets = append(targets, s)
	}
	l.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	reminders, err := l.list()
	if err != nil {
		logging.Warn("local fanout list failed", logging.KeyError, err)
		return
	}
	for _, s := range targets {
		s.onChange(reminders)
	}
}

func (l *Local) checkOpen() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errors.ErrStoreClosed
	}
	return nil
}

// Close cancels all subscriptions and, when the store owns the database,
// closes it.
func (l *Local) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.subs = make(map[int]*localSub)
	l.mu.Unlock()

	if l.watchCancel != nil {
		l.watchCancel()
		<-l.watchDone
	}
	if l.ownsDB {
		return l.db.Close()
	}
	return nil
}
