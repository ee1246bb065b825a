package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robibiruk/meditrack/internal/errors"
	"github.com/robibiruk/meditrack/internal/model"
)

func TestRemoteStatusMapping(t *testing.T) {
	status := http.StatusOK
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		if status == http.StatusOK {
			json.NewEncoder(w).Encode([]*model.Reminder{})
		}
	}))
	defer ts.Close()

	remote := NewRemote(RemoteOptions{BaseURL: ts.URL, AppID: "meditrack", Namespace: "guest"})
	defer remote.Close()
	ctx := context.Background()

	t.Run("forbidden", func(t *testing.T) {
		status = http.StatusForbidden
		err := remote.Update(ctx, "id1", model.Taken(true))
		assert.ErrorIs(t, err, errors.ErrPermissionDenied)
	})

	t.Run("not_found", func(t *testing.T) {
		status = http.StatusNotFound
		err := remote.Remove(ctx, "id1")
		assert.ErrorIs(t, err, errors.ErrReminderNotFound)
	})

	t.Run("server_error", func(t *testing.T) {
		status = http.StatusInternalServerError
		_, err := remote.ListOnce(ctx)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, errors.ErrPermissionDenied)
	})

	t.Run("ok", func(t *testing.T) {
		status = http.StatusOK
		reminders, err := remote.ListOnce(ctx)
		require.NoError(t, err)
		assert.Empty(t, reminders)
	})
}

func TestRemoteSubscribeServerClose(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: []\n\n")
		// Handler returns: the server hangs up on the subscriber.
	}))
	defer ts.Close()

	remote := NewRemote(RemoteOptions{BaseURL: ts.URL, AppID: "meditrack", Namespace: "guest"})
	defer remote.Close()

	snapshots := make(chan []*model.Reminder, 1)
	streamErrs := make(chan error, 1)
	sub, err := remote.Subscribe(func(reminders []*model.Reminder) {
		snapshots <- reminders
	}, func(err error) {
		streamErrs <- err
	})
	require.NoError(t, err)
	defer sub.Cancel()

	select {
	case reminders := <-snapshots:
		assert.Empty(t, reminders)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
	}

	select {
	case err := <-streamErrs:
		assert.ErrorIs(t, err, errors.ErrRemoteUnavailable)
	case <-time.After(2 * time.Second):
		t.Fatal("server close was not reported")
	}
}

func TestRemoteClosed(t *testing.T) {
	remote := NewRemote(RemoteOptions{BaseURL: "http://127.0.0.1:1", AppID: "meditrack", Namespace: "guest"})
	require.NoError(t, remote.Close())

	ctx := context.Background()
	assert.ErrorIs(t, remote.Add(ctx, model.NewReminder("Ann", "Aspirin", "08:00")), errors.ErrStoreClosed)
	_, err := remote.Subscribe(func([]*model.Reminder) {}, func(error) {})
	assert.ErrorIs(t, err, errors.ErrStoreClosed)

	// Close is idempotent.
	assert.NoError(t, remote.Close())
}
