package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/robibiruk/meditrack/internal/logging"
	"github.com/robibiruk/meditrack/internal/server"
	"github.com/robibiruk/meditrack/internal/store"
)

// Serve command flags.
var (
	serveFlagListen string
	serveFlagDBPath string
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sync service",
	Long: `Run the sync service other MediTrack clients connect to.

Reminders are kept per namespace in a local database and every change is
pushed to connected clients over the event stream.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlagListen, "listen", "", "Listen address (default from config)")
	serveCmd.Flags().StringVar(&serveFlagDBPath, "db", "", "Database path (default from config)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	listen := serveFlagListen
	if listen == "" {
		listen = ctx.Config.Server.Listen
	}
	// The service gets its own database next to the client's; badger
	// allows only one process per directory.
	dbPath := serveFlagDBPath
	if dbPath == "" {
		dbPath = filepath.Join(filepath.Dir(ctx.Config.Storage.Path), "server-db")
	}

	db, err := store.OpenDB(store.DBOptions{Path: dbPath})
	if err != nil {
		return err
	}
	defer db.Close()

	srv := server.New(server.Options{
		DB:    db,
		AppID: ctx.Config.Server.AppID,
	})

	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = srv.ListenAndServe(runCtx, listen)
	logging.Info("sync service stopped")
	return err
}
