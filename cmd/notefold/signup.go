package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var signupPassword string

var signupCmd = &cobra.Command{
	Use:   "signup EMAIL",
	Short: "Create a new account",
	Long: `Create a new account with an email and password. The service may
require email confirmation, so signing up does not sign you in.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, _, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.Auth.SignUpWithPassword(ctx, args[0], signupPassword); err != nil {
			return err
		}
		fmt.Println("Account created! You can now sign in.")
		return nil
	},
}

func init() {
	signupCmd.Flags().StringVarP(&signupPassword, "password", "p", "", "Account password")
	rootCmd.AddCommand(signupCmd)
}
