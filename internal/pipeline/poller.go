package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"uplift/internal/logging"
	"uplift/internal/queue"
	"uplift/internal/topaz"
)

// statusErrorBudget is how many consecutive status poll failures are
// tolerated before the attempt is abandoned.
const statusErrorBudget = 3

// awaitCompletion polls the request until it completes, fails, or a stop is
// requested. Remote progress is mapped onto the 30-80 band of overall item
// progress. A job reporting 100% without a result is given extra polls, as
// the API finalizes the download after processing ends.
func (r *Runner) awaitCompletion(ctx context.Context, item *queue.Item, key, requestID string, log *slog.Logger) (topaz.JobStatus, error) {
	interval := time.Duration(r.cfg.API.PollInterval) * time.Second
	consecutiveErrors := 0

	for {
		if err := r.control.Sleep(ctx, interval); err != nil {
			return topaz.JobStatus{}, err
		}

		status, err := r.client.Status(ctx, key, requestID)
		if err != nil {
			if topaz.IsInsufficientCredit(err) {
				return topaz.JobStatus{}, err
			}
			consecutiveErrors++
			if consecutiveErrors >= statusErrorBudget {
				return topaz.JobStatus{}, fmt.Errorf("poll status: %w", err)
			}
			log.Warn("status poll failed", logging.Error(err), logging.Int("consecutive", consecutiveErrors))
			continue
		}
		consecutiveErrors = 0

		if status.Complete() {
			if status.DownloadURL == "" {
				return topaz.JobStatus{}, fmt.Errorf("request %s complete but no download url", requestID)
			}
			log.Info("enhancement complete", logging.String("request_id", requestID))
			return status, nil
		}
		if status.Terminal() {
			return topaz.JobStatus{}, fmt.Errorf("request %s ended with state %q", requestID, status.State)
		}

		// Remote 0-100 maps onto the 30-80 band.
		percent := 30 + status.Progress/2
		r.setProgress(ctx, item, "enhancing", percent,
			fmt.Sprintf("remote progress %.0f%%", status.Progress))
	}
}
