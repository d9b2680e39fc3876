package main

import (
	"context"
	"fmt"
	"time"

	"medease/internal/adapters/apiclient"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email (required)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (required)")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
}

// loginCmd imprime un token para usar con `watch run --token`.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and print a session token",
	Long: `Log in against the MedEase API and print the session token.

Examples:
  export MEDEASE_TOKEN=$(watch login --email ana@example.com --password secret1)
  watch run`,
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, _ []string) error {
	client, err := apiclient.New(serverURL, "")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	token, err := client.Login(ctx, loginEmail, loginPassword)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
