package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/robibiruk/meditrack/internal/errors"
	"github.com/robibiruk/meditrack/internal/model"
	"github.com/robibiruk/meditrack/internal/output"
	"github.com/robibiruk/meditrack/internal/store"
)

// takenCmd represents the taken command.
var takenCmd = &cobra.Command{
	Use:   "taken ID",
	Short: "Mark a reminder's dose as taken",
	Long: `Mark a reminder's dose as taken.

ID may be the full reminder id or the short prefix shown by 'meditrack list'.
Use --undo to mark the dose as pending again.`,
	Args: cobra.ExactArgs(1),
	RunE: runTaken,
}

var takenFlagUndo bool

func init() {
	takenCmd.Flags().BoolVar(&takenFlagUndo, "undo", false, "Mark the dose as pending again")

	rootCmd.AddCommand(takenCmd)
}

func runTaken(cmd *cobra.Command, args []string) error {
	st, err := ctx.Store(cmd.Context())
	if err != nil {
		return err
	}

	reminder, err := resolveReminder(cmd.Context(), st, args[0])
	if err != nil {
		return err
	}

	if err := st.Update(cmd.Context(), reminder.ID, model.Taken(!takenFlagUndo)); err != nil {
		return err
	}

	if ctx.IsJSON() {
		status := "taken"
		if takenFlagUndo {
			status = "pending"
		}
		return ctx.Formatter.JSON(output.StatusResponse{Status: status, ID: reminder.ID})
	}

	cli := ctx.CLIFormatter()
	if takenFlagUndo {
		cli.Success(reminder.Medication + " for " + reminder.Name + " marked pending")
	} else {
		cli.Success(reminder.Medication + " for " + reminder.Name + " marked taken")
	}
	return nil
}

// resolveReminder finds a reminder by full id or unique short prefix.
func resolveReminder(ctx context.Context, st *store.Manager, id string) (*model.Reminder, error) {
	reminders, err := st.ListOnce(ctx)
	if err != nil {
		return nil, err
	}

	var match *model.Reminder
	for _, r := range reminders {
		if r.ID == id {
			return r, nil
		}
		if r.MatchesID(id) {
			if match != nil {
				return nil, errors.NewUserError(
					"ambiguous reminder id '"+id+"'",
					"Use more characters of the id, or the full id from 'meditrack list --format json'.")
			}
			match = r
		}
	}
	if match == nil {
		return nil, errors.ErrReminderNotFound
	}
	return match, nil
}
