package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ekorchagin/commitwatch/internal/domain/model"
	"github.com/ekorchagin/commitwatch/internal/domain/port/driven"
)

// NotifyService fans one notification job out to its recipients through the
// delivery channel. Each recipient gets exactly one attempt per job; a failed
// delivery is logged and does not affect the remaining recipients.
type NotifyService struct {
	notifier    driven.Notifier
	sendTimeout time.Duration
	metrics     *Metrics
}

// NewNotifyService creates a NotifyService. sendTimeout bounds each delivery
// attempt; metrics may be nil.
func NewNotifyService(notifier driven.Notifier, sendTimeout time.Duration, metrics *Metrics) *NotifyService {
	return &NotifyService{
		notifier:    notifier,
		sendTimeout: sendTimeout,
		metrics:     metrics,
	}
}

// Dispatch delivers the job's message to every recipient. It returns the
// number of failed deliveries; the job is discarded afterwards either way.
func (s *NotifyService) Dispatch(ctx context.Context, job model.NotificationJob) int {
	text := FormatCommitMessage(job)

	var failed int
	for _, recipient := range job.Recipients {
		sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
		err := s.notifier.Send(sendCtx, recipient, text)
		cancel()

		if err != nil {
			slog.Error("notification delivery failed",
				"repo", job.RepoFullName,
				"subscriber", recipient,
				"error", err,
			)
			s.metrics.deliveryFailed()
			failed++
			continue
		}

		s.metrics.notificationSent()
	}

	slog.Info("notification dispatched",
		"repo", job.RepoFullName,
		"commit", job.Commit.ShortSHA(),
		"recipients", len(job.Recipients),
		"failed", failed,
	)

	return failed
}

// FormatCommitMessage renders the user-visible notification text: repository,
// author, normalized timestamp, commit message, and a stable commit link.
func FormatCommitMessage(job model.NotificationJob) string {
	return fmt.Sprintf(
		"New commit in %s\nAuthor: %s\nDate: %s\nMessage: %s\nLink: %s",
		job.RepoFullName,
		job.Commit.AuthorName,
		job.Commit.AuthoredAt.UTC().Format(time.RFC3339),
		job.Commit.Message,
		job.Commit.URL,
	)
}
