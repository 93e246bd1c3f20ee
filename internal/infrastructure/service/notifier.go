package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/scholar-hub/scholarship-hub/internal/domain/notification"
	"github.com/scholar-hub/scholarship-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION DISPATCHERS
// ══════════════════════════════════════════════════════════════════════════════

// LogDispatcher writes notifications to the structured log. It stands in for
// the campus messaging gateway in development and tests.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a dispatcher that only logs.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

// Dispatch logs the notification.
func (d *LogDispatcher) Dispatch(_ context.Context, n notification.Notification) error {
	d.logger.Info("notification",
		slog.String("recipient", n.RecipientID),
		slog.String("title", n.Title),
		slog.String("priority", string(n.Priority)),
		slog.String("resource_kind", string(n.Related.Kind)),
		slog.String("resource_id", n.Related.ID))
	return nil
}

// RetryingDispatcher wraps another dispatcher with bounded exponential
// backoff. Delivery stays best-effort: after the attempts are exhausted the
// failure is logged and swallowed by the caller, never re-raised into the
// request that produced the notification.
type RetryingDispatcher struct {
	inner   notification.Dispatcher
	retrier *retry.Retrier
	logger  *slog.Logger
}

// NewRetryingDispatcher wraps a dispatcher with retries.
func NewRetryingDispatcher(inner notification.Dispatcher, logger *slog.Logger) *RetryingDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryingDispatcher{
		inner: inner,
		retrier: retry.New(
			retry.WithMaxAttempts(3),
			retry.WithInitialDelay(200*time.Millisecond),
			retry.WithMaxDelay(5*time.Second),
			retry.WithRetryIf(func(err error) bool { return err != nil }),
			retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
				logger.Warn("notification dispatch retry",
					slog.Int("attempt", attempt),
					slog.Duration("delay", delay),
					slog.String("error", err.Error()))
			}),
		),
		logger: logger,
	}
}

// Dispatch delivers with retries.
func (d *RetryingDispatcher) Dispatch(ctx context.Context, n notification.Notification) error {
	return d.retrier.Do(ctx, func(ctx context.Context) error {
		return d.inner.Dispatch(ctx, n)
	})
}
