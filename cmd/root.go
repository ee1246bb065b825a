// Package cmd provides the CLI commands for MediTrack.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/robibiruk/meditrack/internal/logging"
	"github.com/robibiruk/meditrack/internal/output"
	"github.com/robibiruk/meditrack/internal/runtime"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags.
var (
	flagConfig string
	flagFormat string
	flagColor  string
	flagDebug  bool
)

// ctx is the shared runtime context.
var ctx *runtime.Context

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "meditrack",
	Short: "Medication reminders with live sync",
	Long: `MediTrack keeps medication reminders for you and the people you care
for, and rings an alert when a dose is due.

Reminders live on the sync service when it is reachable, so every device
sees the same list; when it is not, they fall back to local storage.

Examples:
  meditrack add "Ann" "Aspirin" 08:00
  meditrack list
  meditrack taken 3f2a91c4
  meditrack watch
  meditrack serve`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "completion" || cmd.Name() == "help" {
			return nil
		}

		var format output.Format
		switch flagFormat {
		case "json":
			format = output.FormatJSON
		case "plain":
			format = output.FormatPlain
		default:
			format = output.FormatCLI
		}

		var colorMode output.ColorMode
		switch flagColor {
		case "always":
			colorMode = output.ColorAlways
		case "never":
			colorMode = output.ColorNever
		default:
			colorMode = output.ColorAuto
		}

		opts := runtime.DefaultOptions()
		opts.ConfigPath = flagConfig
		opts.Format = format
		opts.ColorMode = colorMode
		opts.Debug = flagDebug

		var err error
		ctx, err = runtime.New(opts)
		if err != nil {
			return err
		}

		logCfg := logging.DefaultConfig()
		logCfg.JSON = ctx.Config.Log.JSON
		if ctx.Debug {
			logCfg.Level = slog.LevelDebug
		}
		logging.Init(logCfg)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if ctx != nil {
			return ctx.Close()
		}
		return nil
	},
	RunE: runList,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"Config file path")
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "cli",
		"Output format: cli, json, plain")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"Enable debug output")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("meditrack %s\n", Version)
		cmd.Printf("  commit: %s\n", Commit)
		cmd.Printf("  built: %s\n", BuildTime)
	},
}

// Die prints an error and exits.
func Die(err error) {
	os.Stderr.WriteString("Error: " + runtime.FormatError(err) + "\n")
	os.Exit(1)
}
