package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/robibiruk/meditrack/internal/alert"
	"github.com/robibiruk/meditrack/internal/model"
	"github.com/robibiruk/meditrack/internal/notify"
	"github.com/robibiruk/meditrack/internal/scheduler"
)

// watchCmd represents the watch command.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch reminders and alert when doses are due",
	Long: `Watch reminders and alert when doses are due.

The store is polled every few seconds; when a reminder's time matches the
current minute and its dose is pending, an alert card is shown. Reply 't'
to mark the dose taken or 'd' to dismiss; an unanswered alert dismisses
itself after the configured timeout.

The list updates live as other devices change it. Press Ctrl-C to stop.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cli := ctx.CLIFormatter()

	st, err := ctx.StoreWith(cmd.Context(), func(reminders []*model.Reminder) {
		progress := model.ProgressOf(reminders)
		cli.Printf("\n%d reminder(s), %d taken\n", progress.Total, progress.Completed)
		for _, r := range reminders {
			cli.Println("  " + cli.ReminderLine(r))
		}
	}, func(err error) {
		cli.Warning(err.Error())
	})
	if err != nil {
		return err
	}

	cli.Title("MediTrack watch")
	cli.Muted("  backend: " + st.Backend())

	alerter := alert.NewTerminal(alert.TerminalOptions{
		Output:  ctx.Formatter.Writer,
		Input:   os.Stdin,
		Timeout: ctx.Config.Scheduler.AlertTimeoutDuration(),
	})

	// SMS goes through the sync service's gateway unless one is configured.
	smsURL := ctx.Config.Notify.SMSGatewayURL
	if smsURL == "" && st.Backend() == "remote" {
		smsURL = ctx.Config.Client.BaseURL + "/api/v1/sms"
	}
	dispatcher := notify.NewDispatcher(notify.Options{
		SMSGatewayURL: smsURL,
		WebhookURL:    ctx.Config.Notify.WebhookURL,
	})

	poller := scheduler.NewPoller(st, alerter, dispatcher,
		ctx.Config.Scheduler.PollIntervalDuration())
	if err := poller.Start(); err != nil {
		return err
	}
	defer poller.Stop()

	// Check right away so a dose due this minute alerts before the first
	// scheduled cycle.
	poller.CheckNow()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-cmd.Context().Done():
	case <-sig:
	}

	cli.Println()
	cli.Muted("Stopping watch.")
	return nil
}
