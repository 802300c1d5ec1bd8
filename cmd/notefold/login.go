package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	loginPassword string
	loginOAuth    string
)

var loginCmd = &cobra.Command{
	Use:   "login [EMAIL]",
	Short: "Sign in with email/password or an OAuth provider",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, cfg, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		if loginOAuth != "" || (len(args) == 0 && cfg.OAuthProvider != "") {
			provider := loginOAuth
			if provider == "" {
				provider = cfg.OAuthProvider
			}
			return client.Auth.SignInWithOAuth(ctx, provider)
		}

		if len(args) == 0 {
			return fmt.Errorf("an email argument or --oauth is required")
		}
		if err := client.Auth.SignInWithPassword(ctx, args[0], loginPassword); err != nil {
			return err
		}
		session := client.Sessions.Session()
		fmt.Printf("Signed in as %s\n", session.User.Email)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Account password")
	loginCmd.Flags().StringVar(&loginOAuth, "oauth", "", "Sign in through an OAuth provider instead")
	rootCmd.AddCommand(loginCmd)
}
