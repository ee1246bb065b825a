// Package runtime provides application runtime context for MediTrack.
package runtime

import (
	"context"
	"os"

	"github.com/robibiruk/meditrack/internal/auth"
	"github.com/robibiruk/meditrack/internal/config"
	"github.com/robibiruk/meditrack/internal/feed"
	"github.com/robibiruk/meditrack/internal/logging"
	"github.com/robibiruk/meditrack/internal/output"
	"github.com/robibiruk/meditrack/internal/store"
)

// Context holds the application runtime context.
type Context struct {
	Config    *config.Config
	Session   *auth.Session
	Formatter *output.Formatter

	// Debug mode
	Debug bool

	manager *store.Manager
}

// Options configures the runtime context.
type Options struct {
	ConfigPath string
	Format     output.Format
	ColorMode  output.ColorMode
	Debug      bool
}

// DefaultOptions returns default runtime options.
func DefaultOptions() Options {
	return Options{
		Format:    output.FormatCLI,
		ColorMode: output.ColorAuto,
	}
}

// New creates a new runtime context.
func New(opts Options) (*Context, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if envURL := os.Getenv("MEDITRACK_SERVER"); envURL != "" {
		cfg.Client.BaseURL = envURL
	}

	session, err := auth.Open(auth.DefaultSessionPath())
	if err != nil {
		return nil, err
	}

	formatter := output.NewFormatter()
	formatter.Format = opts.Format
	formatter.ColorMode = opts.ColorMode

	return &Context{
		Config:    cfg,
		Session:   session,
		Formatter: formatter,
		Debug:     opts.Debug || cfg.Log.Debug,
	}, nil
}

// Store returns the reminder store, bootstrapping it on first use. The
// store binds to the session's identity: signed-in users get their own
// namespace, everyone else shares the guest collection.
func (c *Context) Store(ctx context.Context) (*store.Manager, error) {
	return c.StoreWith(ctx, nil, nil)
}

// StoreWith is Store with callbacks bound before the first backend attach.
// The callbacks keep firing across backend switches and fallback.
func (c *Context) StoreWith(ctx context.Context, onChange store.OnChange, onError store.OnError) (*store.Manager, error) {
	if c.manager != nil {
		if onChange != nil || onError != nil {
			c.manager.Bind(onChange, onError)
		}
		return c.manager, nil
	}

	m := store.NewManager(store.ManagerOptions{
		BaseURL:   c.Config.Client.BaseURL,
		AppID:     c.Config.Client.AppID,
		LocalPath: c.Config.Storage.Path,
		Timeout:   c.Config.Client.TimeoutDuration(),
	})
	if onChange != nil || onError != nil {
		m.Bind(onChange, onError)
	}
	if err := m.Start(ctx); err != nil {
		return nil, err
	}

	if identity := c.Session.Current(); identity != nil {
		if err := m.SetIdentity(identity.UserID); err != nil {
			m.Close()
			return nil, err
		}
	}

	// Sign-in and sign-out during this run rebind the active manager.
	c.Session.OnChange(func(identity *auth.Identity) {
		userID := ""
		if identity != nil {
			userID = identity.UserID
		}
		if err := m.SetIdentity(userID); err != nil {
			logging.Warn("rebind store after identity change", "error", err)
		}
	})

	c.manager = m
	return m, nil
}

// Feed returns a client for the medicine endpoints.
func (c *Context) Feed() *feed.Client {
	return feed.NewClient(feed.Options{
		BaseURL: c.Config.Client.BaseURL,
		Timeout: c.Config.Client.TimeoutDuration(),
	})
}

// Close closes the runtime context.
func (c *Context) Close() error {
	if c.manager != nil {
		return c.manager.Close()
	}
	return nil
}

// CLIFormatter returns a CLI formatter.
func (c *Context) CLIFormatter() *output.CLIFormatter {
	return output.NewCLIFormatter(c.Formatter)
}

// JSONFormatter returns a JSON formatter.
func (c *Context) JSONFormatter() *output.JSONFormatter {
	return output.NewJSONFormatter(c.Formatter)
}

// IsJSON returns true if output format is JSON.
func (c *Context) IsJSON() bool {
	return c.Formatter.Format == output.FormatJSON
}

// Debugf prints debug output if debug mode is enabled.
func (c *Context) Debugf(format string, args ...interface{}) {
	if c.Debug {
		c.Formatter.Printf("[DEBUG] "+format+"\n", args...)
	}
}
