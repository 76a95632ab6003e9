// Package observability provides structured logging helpers and formatted CLI output.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/interview-screener/internal/db"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		line = clip(line, boxWidth-4)
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// wrap breaks text into lines no wider than width, splitting on spaces.
func wrap(text string, width int) string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			if line != "" && len([]rune(line))+1+len([]rune(word)) > width {
				lines = append(lines, line)
				line = ""
			}
			if line == "" {
				line = word
			} else {
				line += " " + word
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func emailOrDash(email *string) string {
	if email == nil || *email == "" {
		return "-"
	}
	return *email
}

// PrintLeaderboard outputs finished candidates ranked by score.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintLeaderboard(entries []db.LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "No finished candidates yet")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	count := min(len(entries), maxItemsToShow)
	for i := 0; i < count; i++ {
		e := entries[i]
		sb.WriteString(fmt.Sprintf("#%-2d %5.2f  %s\n", i+1, e.AvgScore, clip(emailOrDash(e.Email), 30)))
		sb.WriteString(fmt.Sprintf("     %s\n", e.CandidateID))
	}
	if len(entries) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more candidates\n", len(entries)-maxItemsToShow))
	}

	p.printBox("LEADERBOARD", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCandidate outputs a candidate with every persisted answer.
func (p *Printer) PrintCandidate(c *db.Candidate, answers []db.Answer) {
	if c == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:      %s\n", c.ID))
	sb.WriteString(fmt.Sprintf("Email:   %s\n", emailOrDash(c.Email)))
	sb.WriteString(fmt.Sprintf("Status:  %s\n", c.Status))
	sb.WriteString(fmt.Sprintf("Score:   %.2f\n", c.AvgScore))

	for i, a := range answers {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Q%d  %s\n", i+1, a.Question))
		sb.WriteString(fmt.Sprintf("    Answer: %s\n", a.Transcript))
		sb.WriteString(fmt.Sprintf("    Score:  %.2f\n", a.Score))
		if a.Explanation != nil && *a.Explanation != "" {
			sb.WriteString(fmt.Sprintf("    Note:   %s\n", *a.Explanation))
		}
	}

	p.printBox("CANDIDATE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScore outputs a single scoring result.
func (p *Printer) PrintScore(question, transcript string, score float64, explanation string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Question: %s\n", question))
	sb.WriteString(fmt.Sprintf("Answer:   %s\n", transcript))
	sb.WriteString(fmt.Sprintf("Score:    %.2f", score))
	if explanation != "" {
		sb.WriteString("\n\n")
		sb.WriteString(wrap(explanation, boxWidth-4))
	}
	p.printBox("ANSWER SCORE", sb.String())
}
