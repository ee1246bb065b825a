package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robibiruk/meditrack/internal/errors"
	"github.com/robibiruk/meditrack/internal/model"
)

// Remote is the server-synchronized backend. Reminders live in a collection
// on the sync service keyed by app and owner namespace. Writes resolve when
// the service acknowledges them; every committed change on the namespace is
// pushed to every subscriber over a server-sent event stream, the writer's
// own changes included.
type Remote struct {
	baseURL string
	app     string
	ns      string

	client *http.Client
	// stream has no overall timeout; the event stream stays open until the
	// subscription is cancelled or the server goes away.
	stream *http.Client

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	subs   map[*Subscription]context.CancelFunc
}

// RemoteOptions configures a remote backend.
type RemoteOptions struct {
	// BaseURL is the sync service root, e.g. "http://localhost:8480".
	BaseURL string
	// AppID scopes the collection, mirrored by the service.
	AppID string
	// Namespace is the owner namespace within the app ("guest" or a
	// per-user namespace).
	Namespace string
	// Timeout bounds writes and one-shot reads. Zero means 10s.
	Timeout time.Duration
}

// NewRemote creates a remote backend. It performs no I/O; the first
// operation or subscription establishes the connection.
func NewRemote(opts RemoteOptions) *Remote {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Remote{
		baseURL: opts.BaseURL,
		app:     opts.AppID,
		ns:      opts.Namespace,
		client:  &http.Client{Timeout: timeout},
		stream:  &http.Client{},
		subs:    make(map[*Subscription]context.CancelFunc),
	}
}

// Namespace returns the owner namespace this backend is bound to.
func (r *Remote) Namespace() string {
	return r.ns
}

func (r *Remote) collectionURL() string {
	return fmt.Sprintf("%s/api/v1/apps/%s/ns/%s/reminders", r.baseURL, r.app, r.ns)
}

// Add persists a new reminder; the service assigns the ID.
func (r *Remote) Add(ctx context.Context, reminder *model.Reminder) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if reminder.CreatedAt.IsZero() {
		reminder.CreatedAt = time.Now()
	}
	body, err := json.Marshal(reminder)
	if err != nil {
		return err
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := r.do(ctx, http.MethodPost, r.collectionURL(), body, &created); err != nil {
		return err
	}
	reminder.ID = created.ID
	return nil
}

// Update applies a partial update to the reminder with the given ID.
func (r *Remote) Update(ctx context.Context, id string, fields model.Fields) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return r.do(ctx, http.MethodPatch, r.collectionURL()+"/"+id, body, nil)
}

// Remove deletes the reminder with the given ID.
func (r *Remote) Remove(ctx context.Context, id string) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	return r.do(ctx, http.MethodDelete, r.collectionURL()+"/"+id, nil, nil)
}

// ListOnce returns the current reminder list.
func (r *Remote) ListOnce(ctx context.Context) ([]*model.Reminder, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	var reminders []*model.Reminder
	if err := r.do(ctx, http.MethodGet, r.collectionURL(), nil, &reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}

// do issues one request and decodes the response into out when non-nil.
func (r *Remote) do(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return errors.NewSystemErrorWithOp(method, "sync service request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return errors.ErrPermissionDenied
	case resp.StatusCode == http.StatusNotFound:
		return errors.ErrReminderNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return errors.NewSystemErrorWithOp(method,
			fmt.Sprintf("sync service returned %d", resp.StatusCode), nil)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewSystemErrorWithOp(method, "decode sync service response", err)
	}
	return nil
}

// Subscribe opens a server-sent event stream for the namespace. The service
// sends the current list immediately and again after every committed
// change. A stream that ends for any reason other than cancellation,
// including a clean close by the server, is terminal for the subscription:
// onError fires once and nothing further is delivered.
func (r *Remote) Subscribe(onChange OnChange, onError OnError) (*Subscription, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, errors.ErrStoreClosed
	}

	ctx, cancel := context.WithCancel(context.Background())
	var done atomic.Bool

	sub := newSubscription(func() {
		done.Store(true)
		cancel()
	})
	r.subs[sub] = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			delete(r.subs, sub)
			r.mu.Unlock()
		}()

		err := r.streamEvents(ctx, func(reminders []*model.Reminder) {
			if !done.Load() {
				onChange(reminders)
			}
		})
		// A stream the server closes is as dead as one that errored; only
		// a cancelled subscription may end without a report.
		if err == nil && ctx.Err() == nil {
			err = fmt.Errorf("%w: subscribe stream closed by server", errors.ErrRemoteUnavailable)
		}
		if err != nil && ctx.Err() == nil && !done.Swap(true) {
			onError(err)
		}
	}()

	return sub, nil
}

// streamEvents runs one SSE request and invokes deliver for every event
// payload until the context is cancelled or the stream fails.
func (r *Remote) streamEvents(ctx context.Context, deliver func([]*model.Reminder)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.collectionURL()+"/subscribe", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := r.stream.Do(req)
	if err != nil {
		return errors.NewSystemErrorWithOp("subscribe", "sync service stream failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return errors.ErrPermissionDenied
	}
	if resp.StatusCode != http.StatusOK {
		return errors.NewSystemErrorWithOp("subscribe",
			fmt.Sprintf("sync service returned %d", resp.StatusCode), nil)
	}

	return readEventStream(resp.Body, func(data []byte) error {
		var reminders []*model.Reminder
		if err := json.Unmarshal(data, &reminders); err != nil {
			return errors.NewSystemErrorWithOp("subscribe", "decode stream event", err)
		}
		deliver(reminders)
		return nil
	})
}

func (r *Remote) checkOpen() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.ErrStoreClosed
	}
	return nil
}

// Close cancels every open subscription and waits for their streams to
// wind down.
func (r *Remote) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	cancels := make([]context.CancelFunc, 0, len(r.subs))
	for _, c := range r.subs {
		cancels = append(cancels, c)
	}
	r.mu.Unlock()

	for _, c := range cancels {
		c()
	}
	r.wg.Wait()
	return nil
}
