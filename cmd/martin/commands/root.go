// Package commands implements the martin CLI.
package commands

import (
	"github.com/spf13/cobra"
)

// Execute runs the root command.
func Execute() error {
	root := &cobra.Command{
		Use:   "martin",
		Short: "Martin — personal assistant backend for the Telegram Mini-App",
		Long: `Martin is the backend of a Telegram Mini-App personal assistant.
It turns free-text messages into tasks, calendar events, reminders and
email actions, talking to Google services on the user's behalf.

Run 'martin serve' to start the HTTP API, or 'martin chat' to talk to
the assistant from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newChatCmd())

	return root.Execute()
}
