package cmd

import (
	"github.com/spf13/cobra"

	"github.com/robibiruk/meditrack/internal/auth"
	"github.com/robibiruk/meditrack/internal/errors"
	"github.com/robibiruk/meditrack/internal/validate"
)

// Login command flags.
var (
	loginFlagName  string
	loginFlagEmail string
)

// loginCmd represents the login command.
var loginCmd = &cobra.Command{
	Use:   "login USER_ID",
	Short: "Sign in and switch to your personal reminder collection",
	Long: `Sign in and switch to your personal reminder collection.

While signed in, reminders sync under your own namespace on the service.
Sign out to return to the shared guest collection.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the logout command.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and return to guest mode",
	RunE:  runLogout,
}

// whoamiCmd represents the whoami command.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current identity",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVar(&loginFlagName, "name", "", "Display name")
	loginCmd.Flags().StringVar(&loginFlagEmail, "email", "", "Email address")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	userID := args[0]
	if err := validate.Namespace(userID); err != nil {
		return errors.NewUserErrorWithField("user id", userID,
			"invalid user id", "Use letters, digits, dashes or underscores.")
	}

	name := loginFlagName
	if name == "" {
		name = userID
	}

	if err := ctx.Session.SignIn(auth.Identity{
		UserID: userID,
		Name:   name,
		Email:  loginFlagEmail,
	}); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{"status": "signed in", "user_id": userID})
	}

	ctx.CLIFormatter().Success("Welcome " + name + "!")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := ctx.Session.SignOut(); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(map[string]string{"status": "signed out"})
	}

	ctx.CLIFormatter().Success("Signed out. Guest mode active.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	identity := ctx.Session.Current()

	if ctx.IsJSON() {
		if identity == nil {
			return ctx.Formatter.JSON(map[string]string{"mode": "guest"})
		}
		return ctx.Formatter.JSON(identity)
	}

	cli := ctx.CLIFormatter()
	if identity == nil {
		cli.Muted("Guest mode. Use 'meditrack login' to sign in.")
		return nil
	}
	cli.Println(identity.Name + " (" + identity.UserID + ")")
	if identity.Email != "" {
		cli.Muted("  " + identity.Email)
	}
	return nil
}
