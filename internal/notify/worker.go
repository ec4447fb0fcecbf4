package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-ledger/internal/metrics"
	redisclient "github.com/hackgods/clinic-appointment-ledger/internal/redis"
)

type jobSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*redisclient.SMSJob, error)
}

// Worker drains queued jobs into a Sender. Failed deliveries are logged and
// dropped; there is no retry.
type Worker struct {
	source  jobSource
	sender  Sender
	wait    time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewWorker(source jobSource, sender Sender, wait time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Worker {
	return &Worker{
		source:  source,
		sender:  sender,
		wait:    wait,
		logger:  logger,
		metrics: m,
	}
}

// Run processes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("sms queue read failed")
			// back off so a broken connection does not spin
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.wait):
			}
		}
	}
}

// RunOnce handles at most one job. It reports whether a job was consumed.
// Only queue errors are returned; delivery errors are absorbed.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.source.Pop(ctx, w.wait)
	if err != nil {
		if errors.Is(err, redisclient.ErrQueueEmpty) {
			return false, nil
		}
		return false, err
	}

	start := time.Now()
	receipt, err := w.sender.SendSMS(ctx, job.UserID, job.Message)
	if err != nil {
		w.metrics.Notification("failed")
		w.logger.Warn().
			Err(err).
			Str("job_id", job.ID.String()).
			Str("user_id", job.UserID).
			Msg("sms delivery failed")
		return true, nil
	}

	w.metrics.Notification("delivered")
	w.logger.Info().
		Str("job_id", job.ID.String()).
		Str("receipt_id", receipt.ID.String()).
		Dur("duration", time.Since(start)).
		Msg("sms delivered")
	return true, nil
}
