package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ledger-service",
	Short: "Contractor marketplace ledger and reporting service",
	Long: `ledger-service moves money between client and contractor balances,
caps deposits against outstanding debt and serves the earnings reports.
Configuration is read from app.env and the environment.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
