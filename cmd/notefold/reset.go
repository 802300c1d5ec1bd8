package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset-password EMAIL",
	Short: "Request a password reset link by email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, _, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.Auth.RequestPasswordReset(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("Password reset link sent to your email")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
