package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add TITLE [CONTENT...]",
	Short: "Create a new note",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, _, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := requireSession(client); err != nil {
			return err
		}

		if err := client.Interactions.RequestCreate(); err != nil {
			return err
		}
		return client.Interactions.Save(ctx, args[0], strings.Join(args[1:], " "))
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
