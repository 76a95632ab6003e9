package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-screener/internal/resume"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the retrieval index for a candidate resume",
	Long:  "Chunk and embed a resume file so answer explanations can cite the candidate's own experience.",
	RunE:  runIndex,
}

var (
	indexCandidateID string
	indexFile        string
)

func init() {
	indexCmd.Flags().StringVar(&indexCandidateID, "candidate", "", "Candidate ID the index belongs to (required)")
	indexCmd.Flags().StringVarP(&indexFile, "file", "f", "", "Path to the resume (.pdf, .txt or .md) (required)")

	if err := indexCmd.MarkFlagRequired("candidate"); err != nil {
		panic(fmt.Sprintf("failed to mark candidate flag as required: %v", err))
	}
	if err := indexCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}

	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	builder, _ := a.retrieval()
	if builder == nil {
		return fmt.Errorf("indexing needs an llm api key for embeddings")
	}

	if !resume.IsSupported(indexFile) {
		return fmt.Errorf("unsupported resume file %s: use .pdf, .txt or .md", indexFile)
	}
	data, err := os.ReadFile(indexFile)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}
	text, err := a.resumes().Extract(ctx, filepath.Base(indexFile), data)
	if err != nil {
		return fmt.Errorf("failed to extract resume text: %w", err)
	}

	idx, err := builder.Build(ctx, indexCandidateID, a.cfg.Retrieval.Role, text)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}
	path, _ := a.indexStore().Path(idx.Role, idx.CandidateID)

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks for %s\n", len(idx.Chunks), idx.CandidateID)
	fmt.Fprintf(cmd.OutOrStdout(), "  Saved to: %s\n", path)
	return nil
}
