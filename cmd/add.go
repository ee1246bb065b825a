package cmd

import (
	"github.com/spf13/cobra"

	"github.com/robibiruk/meditrack/internal/model"
	"github.com/robibiruk/meditrack/internal/output"
	"github.com/robibiruk/meditrack/internal/validate"
)

// Add command flags.
var (
	addFlagPhone string
	addFlagSMS   bool
)

// addCmd represents the add command.
var addCmd = &cobra.Command{
	Use:   "add NAME MEDICATION TIME",
	Short: "Add a medication reminder",
	Long: `Add a medication reminder.

TIME is 24-hour wall-clock time in HH:MM; the alert fires every day at
that minute until the dose is marked taken.

Examples:
  meditrack add "Ann" "Aspirin" 08:00
  meditrack add "Ben" "Metformin" 21:30 --phone +15550100 --sms`,
	Args: cobra.ExactArgs(3),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addFlagPhone, "phone", "", "Phone number for SMS alerts")
	addCmd.Flags().BoolVar(&addFlagSMS, "sms", false, "Send an SMS when the dose is due")

	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if err := validate.Name(args[0]); err != nil {
		return err
	}
	if err := validate.Medication(args[1]); err != nil {
		return err
	}
	if err := validate.ClockTime(args[2]); err != nil {
		return err
	}

	store, err := ctx.Store(cmd.Context())
	if err != nil {
		return err
	}

	reminder := model.NewReminder(args[0], args[1], args[2])
	reminder.Phone = addFlagPhone
	reminder.SMS = addFlagSMS

	if err := store.Add(cmd.Context(), reminder); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(output.StatusResponse{Status: "added", ID: reminder.ID})
	}

	cli := ctx.CLIFormatter()
	cli.Success("Reminder added: " + reminder.Name + " - " + reminder.Medication + " at " + reminder.Time)
	cli.Muted("  id: " + reminder.ShortID())
	cli.Muted("  backend: " + store.Backend())
	return nil
}
