// Package server implements the sync service: a namespaced reminder
// collection with a live event stream, the bootstrap config endpoint, the
// medicine-info endpoints, and the SMS gateway placeholder.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/robibiruk/meditrack/internal/logging"
	"github.com/robibiruk/meditrack/internal/model"
	"github.com/robibiruk/meditrack/internal/store"
	"github.com/robibiruk/meditrack/internal/validate"
)

// GuestNamespace is the shared owner namespace handed out by the config
// endpoint for clients without an identity.
const GuestNamespace = "guest"

// Server is the sync service. Collections are stored in badger under
// per-namespace key prefixes; every committed change is broadcast to the
// namespace's event stream subscribers.
type Server struct {
	db    *store.DB
	appID string
	hub   *Hub
}

// Options configures the server.
type Options struct {
	// DB is the backing database. The server does not close it.
	DB *store.DB
	// AppID scopes the collections; requests for other apps are rejected.
	AppID string
}

// New creates a server.
func New(opts Options) *Server {
	return &Server{
		db:    opts.DB,
		appID: opts.AppID,
		hub:   NewHub(),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", s.handleConfig)
		r.Route("/apps/{app}/ns/{ns}/reminders", func(r chi.Router) {
			r.Use(s.requireApp)
			r.Get("/", s.handleList)
			r.Post("/", s.handleAdd)
			r.Get("/subscribe", s.handleSubscribe)
			r.Patch("/{id}", s.handleUpdate)
			r.Delete("/{id}", s.handleRemove)
		})
		r.Get("/medicines/info", s.handleMedicineInfo)
		r.Get("/medicines/new", s.handleNewMedicines)
		r.Post("/sms", s.handleSMS)
	})

	return r
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logging.Info("sync service listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// requireApp rejects requests for a different app id.
func (s *Server) requireApp(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "app") != s.appID {
			writeError(w, http.StatusForbidden, "unknown app")
			return
		}
		if err := validate.Namespace(chi.URLParam(r, "ns")); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleConfig serves the bootstrap configuration.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, store.BootstrapConfig{
		BackendConfig:  store.BackendConfig{AppID: s.appID},
		OwnerNamespace: GuestNamespace,
	})
}

// collectionPrefix builds the key prefix for a namespace's reminders.
func (s *Server) collectionPrefix(ns string) string {
	return fmt.Sprintf("ns:%s:%s:", ns, model.PrefixReminder)
}

// record binds a stored reminder to its database key. The exposed id is
// the key's trailing UUID, so clients never see the namespace prefix.
type record struct {
	*model.Reminder
	key string
}

func (rec *record) SetKey(key string) {
	rec.key = key
}

func (rec *record) GetKey() string {
	return rec.key
}

func (s *Server) list(ns string) ([]*model.Reminder, error) {
	records, err := store.GetAllByPrefix(s.db, s.collectionPrefix(ns), func() *record {
		return &record{Reminder: &model.Reminder{}}
	})
	if err != nil {
		return nil, err
	}
	reminders := make([]*model.Reminder, 0, len(records))
	for _, rec := range records {
		reminders = append(reminders, rec.Reminder)
	}
	return reminders, nil
}

// broadcast pushes the namespace's current list to its stream subscribers.
func (s *Server) broadcast(ns string) {
	reminders, err := s.list(ns)
	if err != nil {
		logging.Warn("broadcast list failed",
			logging.KeyNamespace, ns, logging.KeyError, err)
		return
	}
	payload, err := json.Marshal(reminders)
	if err != nil {
		return
	}
	s.hub.Publish(ns, payload)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.list(chi.URLParam(r, "ns"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing reminders failed")
		return
	}
	if reminders == nil {
		reminders = []*model.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminders)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	ns := chi.URLParam(r, "ns")

	var reminder model.Reminder
	if err := json.NewDecoder(r.Body).Decode(&reminder); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateReminder(&reminder); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := uuid.New().String()
	reminder.ID = id
	if reminder.CreatedAt.IsZero() {
		reminder.CreatedAt = time.Now()
	}

	rec := &record{Reminder: &reminder, key: s.collectionPrefix(ns) + id}
	if err := s.db.Set(rec); err != nil {
		writeError(w, http.StatusInternalServerError, "storing reminder failed")
		return
	}

	s.broadcast(ns)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ns := chi.URLParam(r, "ns")
	id := chi.URLParam(r, "id")

	var fields model.Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key := s.collectionPrefix(ns) + id
	rec := &record{Reminder: &model.Reminder{}}
	if err := s.db.Get(key, rec); err != nil {
		if store.IsErrKeyNotFound(err) {
			writeError(w, http.StatusNotFound, "reminder not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "reading reminder failed")
		return
	}

	fields.Apply(rec.Reminder)
	rec.ID = id
	if err := s.db.Set(rec); err != nil {
		writeError(w, http.StatusInternalServerError, "storing reminder failed")
		return
	}

	s.broadcast(ns)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	ns := chi.URLParam(r, "ns")
	id := chi.URLParam(r, "id")

	if err := s.db.Delete(s.collectionPrefix(ns) + id); err != nil {
		writeError(w, http.StatusInternalServerError, "deleting reminder failed")
		return
	}

	s.broadcast(ns)
	w.WriteHeader(http.StatusNoContent)
}

// handleSubscribe serves the namespace event stream: the current list
// immediately, then a fresh snapshot after every committed change.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	ns := chi.URLParam(r, "ns")

	events, cancel := s.hub.Subscribe(ns)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	reminders, err := s.list(ns)
	if err != nil {
		return
	}
	if reminders == nil {
		reminders = []*model.Reminder{}
	}
	snapshot, err := json.Marshal(reminders)
	if err != nil {
		return
	}
	writeEvent(w, snapshot)
	flusher.Flush()

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case payload, ok := <-events:
			if !ok {
				return
			}
			writeEvent(w, payload)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, payload []byte) {
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

func validateReminder(r *model.Reminder) error {
	if err := validate.Name(r.Name); err != nil {
		return err
	}
	if err := validate.Medication(r.Medication); err != nil {
		return err
	}
	return validate.ClockTime(r.Time)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
