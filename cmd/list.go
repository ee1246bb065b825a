package cmd

import (
	"github.com/spf13/cobra"

	"github.com/robibiruk/meditrack/internal/output"
)

// listCmd represents the list command.
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List reminders with progress",
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := ctx.Store(cmd.Context())
	if err != nil {
		return err
	}

	reminders, err := store.ListOnce(cmd.Context())
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(output.NewListResponse(reminders, store.Backend()))
	}

	ctx.CLIFormatter().PrintReminderList(reminders)
	return nil
}
