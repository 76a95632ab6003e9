// Package main provides the entry point for the interview screener CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Interview Screener HTTP API Server",
	Long: "Interview Screener asks candidates resume-grounded questions, transcribes their recorded answers " +
		"and scores each one, then ranks finished candidates for the hiring organization.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (defaults to ./screener.yaml when present)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
