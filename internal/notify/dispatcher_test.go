package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robibiruk/meditrack/internal/model"
)

func TestDispatcherSend(t *testing.T) {
	var mu sync.Mutex
	received := map[string]json.RawMessage{}

	sms := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		mu.Lock()
		received["sms"] = raw
		mu.Unlock()
	}))
	defer sms.Close()

	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		mu.Lock()
		received["webhook"] = raw
		mu.Unlock()
	}))
	defer webhook.Close()

	d := NewDispatcher(Options{SMSGatewayURL: sms.URL, WebhookURL: webhook.URL})
	assert.True(t, d.HasChannels())

	r := model.NewReminder("Ann", "Aspirin", "08:00")
	r.Phone = "+15550100"
	r.SMS = true

	results := d.Send(context.Background(), model.DoseNotification(r))
	require.Len(t, results, 2)
	for _, res := range results {
		assert.True(t, res.Success, res.Channel)
		assert.Equal(t, http.StatusOK, res.StatusCode)
	}

	mu.Lock()
	defer mu.Unlock()

	var smsBody struct {
		Phone   string `json:"phone"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(received["sms"], &smsBody))
	assert.Equal(t, "+15550100", smsBody.Phone)
	assert.Contains(t, smsBody.Message, "Aspirin")

	var hookBody struct {
		Type  string `json:"type"`
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(received["webhook"], &hookBody))
	assert.Equal(t, "dose", hookBody.Type)
	assert.Contains(t, hookBody.Title, "Aspirin")
}

func TestDispatcherSkipsSMSWithoutPhone(t *testing.T) {
	calls := 0
	sms := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer sms.Close()

	d := NewDispatcher(Options{SMSGatewayURL: sms.URL})

	// No phone on the notification: nothing to send.
	r := model.NewReminder("Ann", "Aspirin", "08:00")
	results := d.Send(context.Background(), model.DoseNotification(r))
	assert.Empty(t, results)
	assert.Equal(t, 0, calls)
}

func TestDispatcherNoChannels(t *testing.T) {
	d := NewDispatcher(Options{})
	assert.False(t, d.HasChannels())

	r := model.NewReminder("Ann", "Aspirin", "08:00")
	r.Phone = "+15550100"
	assert.Empty(t, d.Send(context.Background(), model.DoseNotification(r)))
}

func TestSenderRetriesServerErrors(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer ts.Close()

	s := newSender()
	s.retryDelay = 10 * time.Millisecond

	res := s.post(context.Background(), ts.URL, []byte(`{}`))
	require.NoError(t, res.Error)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestSenderDoesNotRetryClientErrors(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	s := newSender()
	s.retryDelay = 10 * time.Millisecond

	res := s.post(context.Background(), ts.URL, []byte(`{}`))
	assert.Error(t, res.Error)
	assert.Equal(t, 1, res.Attempts)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}
