package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robibiruk/meditrack/internal/errors"
	"github.com/robibiruk/meditrack/internal/model"
)

func TestMedicineInfo(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/medicines/info", r.URL.Path)
		q := r.URL.Query().Get("q")
		if q == "aspirin" {
			json.NewEncoder(w).Encode(model.MedicineInfo{Answer: "NSAID; also used as an antiplatelet."})
			return
		}
		json.NewEncoder(w).Encode(model.MedicineInfo{Answer: "Sorry, I don't have information about this medicine."})
	}))
	defer ts.Close()

	c := NewClient(Options{BaseURL: ts.URL})

	info, err := c.MedicineInfo(context.Background(), "aspirin")
	require.NoError(t, err)
	assert.Contains(t, info.Answer, "NSAID")

	info, err = c.MedicineInfo(context.Background(), "unknown thing")
	require.NoError(t, err)
	assert.Contains(t, info.Answer, "Sorry")
}

func TestNewMedicines(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/medicines/new", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode([]model.NewMedicine{
			{Name: "Zurnaive", Category: "Antiviral"},
			{Name: "Cardevia", Category: "Cardiology"},
		})
	}))
	defer ts.Close()

	c := NewClient(Options{BaseURL: ts.URL})
	medicines, err := c.NewMedicines(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, medicines, 2)
	assert.Equal(t, "Zurnaive", medicines[0].Name)
}

func TestFeedErrors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		c := NewClient(Options{BaseURL: "http://127.0.0.1:1"})
		_, err := c.MedicineInfo(context.Background(), "aspirin")
		assert.ErrorIs(t, err, errors.ErrRemoteUnavailable)
	})

	t.Run("bad_status", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer ts.Close()

		c := NewClient(Options{BaseURL: ts.URL})
		_, err := c.NewMedicines(context.Background(), 0)
		assert.Error(t, err)
	})
}
