package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robibiruk/meditrack/internal/model"
	"github.com/robibiruk/meditrack/internal/store"
)

func setupServer(t *testing.T) *httptest.Server {
	db, err := store.OpenDB(store.DBOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv := New(Options{DB: db, AppID: "meditrack"})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestConfigEndpoint(t *testing.T) {
	ts := setupServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/config")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	boot := decodeBody[store.BootstrapConfig](t, resp)
	assert.Equal(t, "meditrack", boot.BackendConfig.AppID)
	assert.Equal(t, GuestNamespace, boot.OwnerNamespace)
}

func TestReminderCRUD(t *testing.T) {
	ts := setupServer(t)
	base := ts.URL + "/api/v1/apps/meditrack/ns/guest/reminders"

	// Create.
	resp := postJSON(t, base, model.NewReminder("Ann", "Aspirin", "08:00"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[map[string]string](t, resp)
	id := created["id"]
	require.NotEmpty(t, id)

	// List.
	resp, err := http.Get(base)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reminders := decodeBody[[]*model.Reminder](t, resp)
	require.Len(t, reminders, 1)
	assert.Equal(t, id, reminders[0].ID)
	assert.Equal(t, "Ann", reminders[0].Name)
	assert.False(t, reminders[0].IsTaken)

	// Patch.
	patch, _ := json.Marshal(model.Taken(true))
	req, err := http.NewRequest(http.MethodPatch, base+"/"+id, bytes.NewReader(patch))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(base)
	require.NoError(t, err)
	reminders = decodeBody[[]*model.Reminder](t, resp)
	require.Len(t, reminders, 1)
	assert.True(t, reminders[0].IsTaken)

	// Delete.
	req, err = http.NewRequest(http.MethodDelete, base+"/"+id, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(base)
	require.NoError(t, err)
	reminders = decodeBody[[]*model.Reminder](t, resp)
	assert.Empty(t, reminders)
}

func TestReminderValidation(t *testing.T) {
	ts := setupServer(t)
	base := ts.URL + "/api/v1/apps/meditrack/ns/guest/reminders"

	cases := []*model.Reminder{
		model.NewReminder("", "Aspirin", "08:00"),
		model.NewReminder("Ann", "", "08:00"),
		model.NewReminder("Ann", "Aspirin", "8am"),
	}
	for _, r := range cases {
		resp := postJSON(t, base, r)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
}

func TestUnknownAppForbidden(t *testing.T) {
	ts := setupServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/apps/otherapp/ns/guest/reminders")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPatchUnknownReminder(t *testing.T) {
	ts := setupServer(t)
	base := ts.URL + "/api/v1/apps/meditrack/ns/guest/reminders"

	patch, _ := json.Marshal(model.Taken(true))
	req, err := http.NewRequest(http.MethodPatch, base+"/no-such-id", bytes.NewReader(patch))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNamespaceIsolation(t *testing.T) {
	ts := setupServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/apps/meditrack/ns/guest/reminders",
		model.NewReminder("Ann", "Aspirin", "08:00"))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err := http.Get(ts.URL + "/api/v1/apps/meditrack/ns/user-ben/reminders")
	require.NoError(t, err)
	reminders := decodeBody[[]*model.Reminder](t, resp)
	assert.Empty(t, reminders)
}

func TestSubscribeStream(t *testing.T) {
	ts := setupServer(t)
	base := ts.URL + "/api/v1/apps/meditrack/ns/guest/reminders"

	resp, err := http.Get(base + "/subscribe")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() []*model.Reminder {
		var data string
		deadline := time.After(2 * time.Second)
		done := make(chan string, 1)
		go func() {
			for {
				line, err := reader.ReadString('\n')
				if err != nil {
					return
				}
				line = strings.TrimRight(line, "\n")
				if strings.HasPrefix(line, "data: ") {
					done <- strings.TrimPrefix(line, "data: ")
					return
				}
			}
		}()
		select {
		case data = <-done:
		case <-deadline:
			t.Fatal("no event received")
		}
		var reminders []*model.Reminder
		require.NoError(t, json.Unmarshal([]byte(data), &reminders))
		return reminders
	}

	// Snapshot arrives immediately.
	assert.Empty(t, readEvent())

	// A committed change is pushed as a fresh snapshot.
	post := postJSON(t, base, model.NewReminder("Ann", "Aspirin", "08:00"))
	post.Body.Close()
	require.Equal(t, http.StatusCreated, post.StatusCode)

	pushed := readEvent()
	require.Len(t, pushed, 1)
	assert.Equal(t, "Ann", pushed[0].Name)
}

func TestMedicineInfo(t *testing.T) {
	ts := setupServer(t)

	t.Run("known", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/medicines/info?q=Aspirin")
		require.NoError(t, err)
		info := decodeBody[model.MedicineInfo](t, resp)
		assert.Contains(t, info.Answer, "antiplatelet")
	})

	t.Run("unknown", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/medicines/info?q=unobtainium")
		require.NoError(t, err)
		info := decodeBody[model.MedicineInfo](t, resp)
		assert.Equal(t, medicineNotFoundAnswer, info.Answer)
	})

	t.Run("missing_query", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/medicines/info")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestNewMedicines(t *testing.T) {
	ts := setupServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/medicines/new?limit=3")
	require.NoError(t, err)
	medicines := decodeBody[[]model.NewMedicine](t, resp)
	assert.Len(t, medicines, 3)

	resp, err = http.Get(ts.URL + "/api/v1/medicines/new?limit=bogus")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSMSEndpoint(t *testing.T) {
	ts := setupServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/sms", map[string]string{
		"phone":   "+15550100",
		"message": "Time to take Aspirin",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ack := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "SMS sent", ack["status"])
	assert.Equal(t, "+15550100", ack["phone"])

	resp = postJSON(t, ts.URL+"/api/v1/sms", map[string]string{"message": "no phone"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHub(t *testing.T) {
	h := NewHub()

	ch, cancel := h.Subscribe("guest")
	assert.Equal(t, 1, h.Subscribers("guest"))

	h.Publish("guest", []byte("one"))
	h.Publish("other", []byte("ignored"))

	select {
	case payload := <-ch:
		assert.Equal(t, "one", string(payload))
	case <-time.After(time.Second):
		t.Fatal("no payload delivered")
	}

	cancel()
	assert.Equal(t, 0, h.Subscribers("guest"))

	// Publishing after cancel must not panic.
	h.Publish("guest", []byte("two"))
	cancel() // idempotent

	_, ok := <-ch
	assert.False(t, ok)
}
