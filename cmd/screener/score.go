package main

import (
	"context"
	"fmt"

	"github.com/jonathan/interview-screener/internal/observability"
	"github.com/jonathan/interview-screener/internal/scoring"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a single answer transcript",
	Long: "Run the answer scorer on a question and transcript without recording anything. " +
		"Pass --candidate to ground explanations on an indexed resume.",
	RunE: runScore,
}

var (
	scoreQuestion    string
	scoreAnswer      string
	scoreCandidateID string
)

func init() {
	scoreCmd.Flags().StringVarP(&scoreQuestion, "question", "q", "", "Interview question (required)")
	scoreCmd.Flags().StringVarP(&scoreAnswer, "answer", "a", "", "Answer transcript (required)")
	scoreCmd.Flags().StringVar(&scoreCandidateID, "candidate", "", "Candidate ID whose resume index grounds explanations")

	if err := scoreCmd.MarkFlagRequired("question"); err != nil {
		panic(fmt.Sprintf("failed to mark question flag as required: %v", err))
	}
	if err := scoreCmd.MarkFlagRequired("answer"); err != nil {
		panic(fmt.Sprintf("failed to mark answer flag as required: %v", err))
	}

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	var s *scoring.Scorer
	if scoreCandidateID != "" {
		_, querier := a.retrieval()
		s = a.scorer(querier)
	} else {
		s = a.scorer(nil)
	}

	res := s.Score(ctx, scoreCandidateID, scoreQuestion, scoreAnswer)
	observability.NewPrinter(cmd.OutOrStdout()).PrintScore(scoreQuestion, scoreAnswer, res.Score, res.Explanation)
	return nil
}
