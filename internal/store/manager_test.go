package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robibiruk/meditrack/internal/model"
)

// fakeService is a minimal in-process sync service for manager tests.
type fakeService struct {
	mu         sync.Mutex
	reminders  []*model.Reminder
	nextID     int
	forbidden  bool
	streamOnce bool

	subsMu sync.Mutex
	subs   []chan []byte
}

func (f *fakeService) snapshot() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reminders == nil {
		return []byte("[]")
	}
	data, _ := json.Marshal(f.reminders)
	return data
}

func (f *fakeService) broadcast() {
	data := f.snapshot()
	f.subsMu.Lock()
	defer f.subsMu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- data:
		default:
		}
	}
}

func (f *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/config", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(BootstrapConfig{
			BackendConfig:  BackendConfig{AppID: "meditrack"},
			OwnerNamespace: "guest",
		})
	})
	mux.HandleFunc("/api/v1/apps/meditrack/ns/guest/reminders", func(w http.ResponseWriter, r *http.Request) {
		if f.isForbidden(w) {
			return
		}
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			w.Write(f.snapshot())
		case http.MethodPost:
			var reminder model.Reminder
			if err := json.NewDecoder(r.Body).Decode(&reminder); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.mu.Lock()
			f.nextID++
			reminder.ID = fmt.Sprintf("srv-%d", f.nextID)
			f.reminders = append(f.reminders, &reminder)
			f.mu.Unlock()
			f.broadcast()
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"id": reminder.ID})
		}
	})
	mux.HandleFunc("/api/v1/apps/meditrack/ns/guest/reminders/subscribe", func(w http.ResponseWriter, r *http.Request) {
		if f.isForbidden(w) {
			return
		}
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)

		ch := make(chan []byte, 4)
		f.subsMu.Lock()
		f.subs = append(f.subs, ch)
		f.subsMu.Unlock()

		fmt.Fprintf(w, "data: %s\n\n", f.snapshot())
		flusher.Flush()

		f.mu.Lock()
		once := f.streamOnce
		f.mu.Unlock()
		if once {
			return
		}

		for {
			select {
			case <-r.Context().Done():
				return
			case data := <-ch:
				fmt.Fprintf(w, "data: %s\n\n", data)
				flusher.Flush()
			}
		}
	})
	return mux
}

func (f *fakeService) isForbidden(w http.ResponseWriter) bool {
	f.mu.Lock()
	forbidden := f.forbidden
	f.mu.Unlock()
	if forbidden {
		w.WriteHeader(http.StatusForbidden)
	}
	return forbidden
}

func (f *fakeService) setForbidden(v bool) {
	f.mu.Lock()
	f.forbidden = v
	f.mu.Unlock()
}

type recorder struct {
	mu        sync.Mutex
	snapshots [][]*model.Reminder
	errors    []error
}

func (c *recorder) onChange(reminders []*model.Reminder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = append(c.snapshots, reminders)
}

func (c *recorder) onError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, err)
}

func (c *recorder) lastSnapshot() []*model.Reminder {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.snapshots) == 0 {
		return nil
	}
	return c.snapshots[len(c.snapshots)-1]
}

func (c *recorder) errorCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors)
}

func TestManagerRemoteLifecycle(t *testing.T) {
	svc := &fakeService{}
	ts := httptest.NewServer(svc.handler())
	defer ts.Close()

	rec := &recorder{}
	m := NewManager(ManagerOptions{
		BaseURL:   ts.URL,
		AppID:     "meditrack",
		LocalPath: t.TempDir(),
	})
	m.Bind(rec.onChange, rec.onError)
	require.NoError(t, m.Start(context.Background()))
	defer m.Close()

	assert.Equal(t, StateGuest, m.State())
	assert.Equal(t, "remote", m.Backend())

	// Initial snapshot arrives over the stream.
	require.Eventually(t, func() bool {
		return rec.lastSnapshot() != nil
	}, 2*time.Second, 10*time.Millisecond)

	// A write resolves against the service and comes back as a push.
	r := model.NewReminder("Ann", "Aspirin", "08:00")
	require.NoError(t, m.Add(context.Background(), r))
	assert.Equal(t, "srv-1", r.ID)

	require.Eventually(t, func() bool {
		last := rec.lastSnapshot()
		return len(last) == 1 && last[0].Name == "Ann"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManagerBootstrapFailureFallsBackToLocal(t *testing.T) {
	rec := &recorder{}
	m := NewManager(ManagerOptions{
		BaseURL:   "http://127.0.0.1:1", // nothing listens here
		AppID:     "meditrack",
		LocalPath: t.TempDir(),
		Timeout:   500 * time.Millisecond,
	})
	m.Bind(rec.onChange, rec.onError)
	require.NoError(t, m.Start(context.Background()))
	defer m.Close()

	assert.Equal(t, StateGuest, m.State())
	assert.Equal(t, "local", m.Backend())
	assert.GreaterOrEqual(t, rec.errorCount(), 1)

	// The bound callback keeps working against the local backend.
	require.NoError(t, m.Add(context.Background(), model.NewReminder("Ann", "Aspirin", "08:00")))
	require.Eventually(t, func() bool {
		last := rec.lastSnapshot()
		return len(last) == 1 && last[0].Medication == "Aspirin"
	}, 2*time.Second, 10*time.Millisecond)

	reminders, err := m.ListOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, reminders, 1)
}

func TestManagerStreamFailureFallsBackToLocal(t *testing.T) {
	svc := &fakeService{}
	ts := httptest.NewServer(svc.handler())
	defer ts.Close()

	rec := &recorder{}
	m := NewManager(ManagerOptions{
		BaseURL:   ts.URL,
		AppID:     "meditrack",
		LocalPath: t.TempDir(),
	})
	m.Bind(rec.onChange, rec.onError)

	// The stream is rejected from the start; bootstrap still succeeds.
	svc.setForbidden(true)
	require.NoError(t, m.Start(context.Background()))
	defer m.Close()

	require.Eventually(t, func() bool {
		return m.Backend() == "local"
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, rec.errorCount(), 1)

	// Same callback identity: deliveries continue from the local backend.
	require.NoError(t, m.Add(context.Background(), model.NewReminder("Ben", "Metformin", "09:00")))
	require.Eventually(t, func() bool {
		last := rec.lastSnapshot()
		return len(last) == 1 && last[0].Name == "Ben"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManagerServerClosedStreamFallsBackToLocal(t *testing.T) {
	svc := &fakeService{streamOnce: true}
	ts := httptest.NewServer(svc.handler())
	defer ts.Close()

	rec := &recorder{}
	m := NewManager(ManagerOptions{
		BaseURL:   ts.URL,
		AppID:     "meditrack",
		LocalPath: t.TempDir(),
	})
	m.Bind(rec.onChange, rec.onError)
	require.NoError(t, m.Start(context.Background()))
	defer m.Close()

	// The service hangs up after the initial snapshot, as it would on a
	// restart. That counts as losing the stream.
	require.Eventually(t, func() bool {
		return m.Backend() == "local"
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, rec.errorCount(), 1)

	require.NoError(t, m.Add(context.Background(), model.NewReminder("Cleo", "Lisinopril", "10:00")))
	require.Eventually(t, func() bool {
		last := rec.lastSnapshot()
		return len(last) == 1 && last[0].Name == "Cleo"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManagerIdentityTransitions(t *testing.T) {
	m := NewManager(ManagerOptions{
		LocalPath: t.TempDir(),
	})
	rec := &recorder{}
	m.Bind(rec.onChange, rec.onError)
	require.NoError(t, m.Start(context.Background()))
	defer m.Close()

	assert.Equal(t, StateGuest, m.State())

	require.NoError(t, m.SetIdentity("u123"))
	assert.Equal(t, StateAuthenticated, m.State())

	require.NoError(t, m.SetIdentity(""))
	assert.Equal(t, StateGuest, m.State())
}

func TestManagerClosedOperations(t *testing.T) {
	m := NewManager(ManagerOptions{LocalPath: t.TempDir()})
	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Close())

	ctx := context.Background()
	assert.Error(t, m.Add(ctx, model.NewReminder("Ann", "Aspirin", "08:00")))
	_, err := m.ListOnce(ctx)
	assert.Error(t, err)
}
