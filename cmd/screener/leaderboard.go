package main

import (
	"context"
	"fmt"

	"github.com/jonathan/interview-screener/internal/config"
	"github.com/jonathan/interview-screener/internal/db"
	"github.com/jonathan/interview-screener/internal/observability"
	"github.com/spf13/cobra"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show finished candidates ranked by score",
	Long:  "Print the leaderboard, or one candidate with every answer when --candidate is set.",
	RunE:  runLeaderboard,
}

var leaderboardCandidateID string

func init() {
	leaderboardCmd.Flags().StringVar(&leaderboardCandidateID, "candidate", "", "Show this candidate's answers instead of the ranking")
	rootCmd.AddCommand(leaderboardCmd)
}

func runLeaderboard(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	store, err := db.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	return printStandings(ctx, cmd, store, leaderboardCandidateID)
}

func printStandings(ctx context.Context, cmd *cobra.Command, store db.Store, candidateID string) error {
	printer := observability.NewPrinter(cmd.OutOrStdout())

	if candidateID == "" {
		entries, err := store.GetLeaderboard(ctx)
		if err != nil {
			return fmt.Errorf("failed to load leaderboard: %w", err)
		}
		printer.PrintLeaderboard(entries)
		return nil
	}

	c, err := store.GetCandidate(ctx, candidateID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("candidate %s: %w", candidateID, db.ErrCandidateNotFound)
	}
	answers, err := store.GetAnswers(ctx, candidateID)
	if err != nil {
		return fmt.Errorf("failed to load answers: %w", err)
	}
	printer.PrintCandidate(c, answers)
	return nil
}
