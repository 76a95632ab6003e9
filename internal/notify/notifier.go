package notify

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/interview-screener/internal/observability"
	"github.com/jonathan/interview-screener/internal/worker"
)

// Shortlist email content.
const (
	ShortlistSubject = "You are shortlisted"
	ShortlistBody    = "Dear Candidate,\n\nCongratulations! You are shortlisted."
)

// Recipient is a candidate to notify.
type Recipient struct {
	CandidateID string
	Email       string
}

// Submitter queues background work.
type Submitter interface {
	Submit(task worker.Task) (<-chan error, error)
}

// Report summarizes a shortlist request.
type Report struct {
	Queued  int `json:"queued"`
	Skipped int `json:"skipped"`
	Dropped int `json:"dropped"`
}

// Notifier sends emails without blocking the caller. Delivery failures are
// logged and never returned.
type Notifier struct {
	Mailer Mailer
	Pool   Submitter
	Logger *zap.Logger
}

// Shortlist queues one congratulation email per recipient with an address.
// Recipients without an address are skipped. When the queue is full the
// remaining emails are dropped.
func (n *Notifier) Shortlist(recipients []Recipient) Report {
	var report Report
	logger := observability.OrNop(n.Logger)

	for _, r := range recipients {
		email := strings.TrimSpace(r.Email)
		if email == "" {
			report.Skipped++
			continue
		}
		if n.Mailer == nil || n.Pool == nil {
			report.Dropped++
			continue
		}

		msg := Message{To: email, Subject: ShortlistSubject, Body: ShortlistBody}
		fields := observability.CandidateFields(r.CandidateID)
		_, err := n.Pool.Submit(func(ctx context.Context) error {
			if err := n.Mailer.Send(ctx, msg); err != nil {
				if errors.Is(err, ErrDisabled) {
					logger.Info("email disabled, shortlist not sent", fields...)
				} else {
					logger.Warn("shortlist email failed", append(fields, zap.Error(err))...)
				}
				return err
			}
			logger.Info("shortlist email sent", fields...)
			return nil
		})
		if err != nil {
			logger.Warn("shortlist email not queued", append(fields, zap.Error(err))...)
			report.Dropped++
			continue
		}
		report.Queued++
	}
	return report
}
