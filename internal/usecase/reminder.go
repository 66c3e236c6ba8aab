package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"LinkSentry/internal/ports"
)

const reminderBatch = 50

// Reminder periodically summarizes the pending review backlog to the
// notification channel so unsafe verdicts do not sit unreviewed.
type Reminder struct {
	driver   ports.Scheduler
	reviews  ports.ReviewLog
	notifier ports.Notifier
	logger   *slog.Logger
}

// NewReminder wires the scheduler driver with the review queue and notifier.
func NewReminder(driver ports.Scheduler, reviews ports.ReviewLog, notifier ports.Notifier, logger *slog.Logger) *Reminder {
	return &Reminder{driver: driver, reviews: reviews, notifier: notifier, logger: logger}
}

// Start registers the digest job with the scheduler. A Reminder without a
// driver, queue, or notifier is inert.
func (r *Reminder) Start(ctx context.Context) error {
	if r.driver == nil || r.reviews == nil || r.notifier == nil {
		return nil
	}

	return r.driver.Start(ctx, func(time.Time) {
		r.runOnce(ctx)
	})
}

// Stop tears down the underlying scheduler.
func (r *Reminder) Stop(ctx context.Context) error {
	if r.driver == nil {
		return nil
	}
	return r.driver.Stop(ctx)
}

func (r *Reminder) runOnce(ctx context.Context) {
	pending, err := r.reviews.Pending(ctx, reminderBatch)
	if err != nil {
		r.warn("review backlog query failed", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	message := fmt.Sprintf("%d unsafe verdicts awaiting review, newest: %s", len(pending), pending[0].RawURL)
	if err := r.notifier.Alert(ctx, message); err != nil {
		r.warn("review reminder failed", "error", err)
	}
}

func (r *Reminder) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
