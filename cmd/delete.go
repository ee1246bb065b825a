package cmd

import (
	"github.com/spf13/cobra"

	"github.com/robibiruk/meditrack/internal/output"
)

// deleteCmd represents the delete command.
var deleteCmd = &cobra.Command{
	Use:     "delete ID",
	Aliases: []string{"rm"},
	Short:   "Delete a reminder",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	st, err := ctx.Store(cmd.Context())
	if err != nil {
		return err
	}

	reminder, err := resolveReminder(cmd.Context(), st, args[0])
	if err != nil {
		return err
	}

	if err := st.Remove(cmd.Context(), reminder.ID); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(output.StatusResponse{Status: "deleted", ID: reminder.ID})
	}

	ctx.CLIFormatter().Success("Deleted reminder for " + reminder.Name + " (" + reminder.Medication + ")")
	return nil
}
