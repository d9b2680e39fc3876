// Package main implements watch, the terminal client that raises medicine
// alarms for the logged-in user.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// serverURL es la base de la API de MedEase.
	serverURL string
	version   = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "watch",
	Short: "Terminal medicine reminder client",
	Long: `watch polls the MedEase API for your medicines and rings an alarm in the
terminal when one is due. The alarm stays up until you press Enter.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("MEDEASE_SERVER", "http://localhost:8080"), "MedEase API URL")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(runCmd)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
