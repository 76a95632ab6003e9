package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/jonathan/interview-screener/internal/audio"
	"github.com/jonathan/interview-screener/internal/interview"
	"github.com/jonathan/interview-screener/internal/observability"
	"github.com/jonathan/interview-screener/internal/resume"
	"github.com/jonathan/interview-screener/internal/server"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an interview from the terminal",
	Long: "Start a candidate from a resume file, then answer each question by giving the path " +
		"of a recorded answer. Scores are shown as answers are submitted.",
	RunE: runInterview,
}

var (
	interviewResume string
	interviewEmail  string
)

func init() {
	interviewCmd.Flags().StringVarP(&interviewResume, "resume", "r", "", "Path to the resume (.pdf, .txt or .md) (required)")
	interviewCmd.Flags().StringVar(&interviewEmail, "email", "", "Candidate email address")

	if err := interviewCmd.MarkFlagRequired("resume"); err != nil {
		panic(fmt.Sprintf("failed to mark resume flag as required: %v", err))
	}

	rootCmd.AddCommand(interviewCmd)
}

// errQuit is returned by an answer source when the user aborts.
var errQuit = errors.New("interview aborted")

// answerSource returns the path of the recording answering q.
type answerSource func(q *interview.Question) (string, error)

func promptForAnswer(q *interview.Question) (string, error) {
	prompt := promptui.Prompt{
		Label: fmt.Sprintf("Recording for question %d/%d", q.Index, q.Total),
		Validate: func(input string) error {
			info, err := os.Stat(strings.TrimSpace(input))
			if err != nil {
				return fmt.Errorf("no such file")
			}
			if info.IsDir() {
				return fmt.Errorf("path is a directory")
			}
			return nil
		},
	}
	path, err := prompt.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return "", errQuit
	}
	return strings.TrimSpace(path), err
}

func runInterview(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if !resume.IsSupported(interviewResume) {
		return fmt.Errorf("unsupported resume file %s: use .pdf, .txt or .md", interviewResume)
	}
	data, err := os.ReadFile(interviewResume)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}
	text, err := a.resumes().Extract(ctx, filepath.Base(interviewResume), data)
	if err != nil {
		return fmt.Errorf("failed to extract resume text: %w", err)
	}

	svc, _, err := a.interviews(ctx)
	if err != nil {
		return fmt.Errorf("failed to build interview service: %w", err)
	}

	return conductInterview(ctx, cmd.OutOrStdout(), svc, interview.StartInput{Email: interviewEmail, ResumeText: text}, promptForAnswer)
}

// conductInterview runs one candidate through every question. Conversion
// failures are reported and the same question is asked again.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func conductInterview(ctx context.Context, out io.Writer, svc server.Interviews, in interview.StartInput, ask answerSource) error {
	started, err := svc.Start(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Candidate %s: %d questions\n", started.CandidateID, len(started.Questions))

	printer := observability.NewPrinter(out)
	for {
		q, err := svc.NextQuestion(ctx, started.CandidateID)
		if err != nil {
			return err
		}
		if q.Done {
			break
		}
		fmt.Fprintf(out, "\nQ%d. %s\n", q.Index, q.Question)

		path, err := ask(q)
		if err != nil {
			return err
		}

		outcome, err := submitFile(ctx, svc, started.CandidateID, path)
		var convErr *audio.ConversionError
		if errors.As(err, &convErr) || errors.Is(err, audio.ErrEmptyUpload) {
			fmt.Fprintf(out, "Could not process %s, try another recording.\n", path)
			continue
		}
		if err != nil {
			return err
		}
		printer.PrintScore(q.Question, outcome.Transcript, outcome.Score, outcome.Explanation)
		if outcome.Done {
			break
		}
	}

	summary, err := svc.Summary(ctx, started.CandidateID)
	if err != nil {
		return err
	}
	printer.PrintCandidate(summary.Candidate, summary.Answers)
	fmt.Fprintf(out, "Interview score: %.2f  Total: %.2f\n", summary.InterviewScore, summary.TotalScore)
	return nil
}

func submitFile(ctx context.Context, svc server.Interviews, candidateID, path string) (*interview.Outcome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return svc.SubmitAnswer(ctx, candidateID, f, filepath.Base(path))
}
