package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"uplift/internal/config"
	"uplift/internal/enhance"
	"uplift/internal/keypool"
	"uplift/internal/logging"
	"uplift/internal/media/probe"
	"uplift/internal/queue"
	"uplift/internal/topaz"
	"uplift/internal/transcode"
)

// Client is the remote API surface the runner depends on. *topaz.Client
// satisfies it; tests substitute a fake.
type Client interface {
	Create(ctx context.Context, apiKey string, req topaz.Request) (string, error)
	Accept(ctx context.Context, apiKey, requestID string) ([]string, error)
	UploadParts(ctx context.Context, path string, urls []string, progress topaz.ProgressFunc) ([]topaz.UploadResult, error)
	CompleteUpload(ctx context.Context, apiKey, requestID string, results []topaz.UploadResult) error
	Status(ctx context.Context, apiKey, requestID string) (topaz.JobStatus, error)
	Download(ctx context.Context, url, destPath string) error
}

// ErrNoUsableKeys indicates every key in the pool was tried without success.
var ErrNoUsableKeys = errors.New("no usable api keys")

// Runner processes the queue serially. A file lock enforces a single
// instance per work directory.
type Runner struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *queue.Store
	pool       *keypool.Pool
	client     Client
	prober     Prober
	transcoder transcode.Transcoder
	control    *Control

	lockPath string
	lock     *flock.Flock
}

// New constructs a runner with initialized dependencies.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	store *queue.Store,
	pool *keypool.Pool,
	client Client,
	prober Prober,
	transcoder transcode.Transcoder,
) (*Runner, error) {
	if cfg == nil || store == nil || pool == nil || client == nil || prober == nil || transcoder == nil {
		return nil, errors.New("runner requires config, store, pool, client, prober, and transcoder")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.WorkDir, "uplift.lock")
	return &Runner{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		pool:       pool,
		client:     client,
		prober:     prober,
		transcoder: transcoder,
		control:    NewControl(),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Control exposes the stop/pause handle for signal wiring.
func (r *Runner) Control() *Control {
	return r.control
}

// Run drains the queue. It returns nil when the queue is empty or a stop
// was requested, and an error only for unrecoverable setup failures.
func (r *Runner) Run(ctx context.Context) error {
	ok, err := r.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another uplift instance is already running (lock %s)", r.lockPath)
	}
	defer func() {
		if unlockErr := r.lock.Unlock(); unlockErr != nil {
			r.logger.Warn("failed to release lock", logging.Error(unlockErr))
		}
	}()

	if reset, err := r.store.ResetStuck(ctx); err != nil {
		return fmt.Errorf("reset stuck items: %w", err)
	} else if reset > 0 {
		r.logger.Info("reset interrupted items to pending", logging.Int64("count", reset))
	}

	for {
		if err := r.control.Checkpoint(); err != nil {
			r.logger.Info("stopping on request")
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		item, err := r.store.NextPending(ctx)
		if err != nil {
			return fmt.Errorf("next pending: %w", err)
		}
		if item == nil {
			r.logger.Info("queue drained")
			return nil
		}

		if err := r.processItem(ctx, item); err != nil {
			if errors.Is(err, ErrStopped) || errors.Is(err, context.Canceled) {
				r.rollback(item)
				return nil
			}
			r.failItem(ctx, item, err)
			if retry := r.cfg.Workflow.ErrorRetryInterval; retry > 0 {
				if sleepErr := r.control.Sleep(ctx, time.Duration(retry)*time.Second); sleepErr != nil {
					return nil
				}
			}
		}
	}
}

// processItem runs one video through the full workflow.
func (r *Runner) processItem(ctx context.Context, item *queue.Item) error {
	log := r.logger.With(logging.Int64("item", item.ID), logging.String("source", item.SourcePath))
	log.Info("processing video")

	item.Status = queue.StatusProcessing
	item.ErrorMessage = ""
	if err := r.store.Update(ctx, item); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	return r.runStages(ctx, item, log)
}

func (r *Runner) runStages(ctx context.Context, item *queue.Item, log *slog.Logger) error {
	r.setProgress(ctx, item, "probing", 0, "inspecting source")

	meta, err := r.prober.Metadata(ctx, item.SourcePath)
	if err != nil {
		return fmt.Errorf("probe source: %w", err)
	}
	log.Info("source inspected",
		logging.Int("width", meta.Width),
		logging.Int("height", meta.Height),
		logging.Float64("duration_seconds", meta.DurationSeconds),
		logging.Float64("frame_rate", meta.FrameRate),
	)

	// The delivery checks always run; Enforce only decides whether a
	// violation fails the item or is merely recorded.
	if err := ValidateSource(meta, r.cfg.Validation); err != nil {
		if r.cfg.Validation.Enforce {
			return fmt.Errorf("validate source: %w", err)
		}
		log.Warn("source outside delivery thresholds, processing anyway", logging.Error(err))
	}

	hasAudio := false
	if !r.cfg.Output.MuteAudio {
		hasAudio = r.prober.HasAudio(ctx, item.SourcePath)
	}

	bitrate := probe.EstimateBitrateMbps(meta.SizeBytes, meta.DurationSeconds)
	sel := enhance.SelectModel(meta.Width, meta.Height, meta.FrameRate, bitrate)
	log.Info("selected enhancement model",
		logging.String("model", sel.Model),
		logging.Float64("bitrate_mbps", bitrate),
		logging.Float64("sharpen_amount", sel.Amount),
	)

	outWidth, outHeight := r.cfg.ResolveResolution(meta.Width, meta.Height)
	outFPS := meta.FrameRate
	if explicit, ok := r.cfg.ExplicitFrameRate(); ok {
		outFPS = explicit
	} else if r.cfg.AutoNormalizeFrameRate() {
		outFPS = enhance.NormalizeFrameRate(meta.FrameRate)
	}

	audioTransfer := "None"
	if hasAudio {
		audioTransfer = "Copy"
	}
	req := topaz.Request{
		Source: topaz.SourceSpec{
			Container:  r.cfg.API.Container,
			Size:       meta.SizeBytes,
			Duration:   int(math.Round(meta.DurationSeconds)),
			FrameCount: meta.FrameCount,
			FrameRate:  meta.FrameRate,
			Resolution: topaz.Resolution{Width: meta.Width, Height: meta.Height},
		},
		Filters: []topaz.Filter{{Model: sel.Model}},
		Output: topaz.OutputSpec{
			FrameRate:               outFPS,
			AudioTransfer:           audioTransfer,
			AudioCodec:              "AAC",
			DynamicCompressionLevel: r.cfg.API.DynamicCompression,
			Resolution:              topaz.Resolution{Width: outWidth, Height: outHeight},
			Container:               r.cfg.API.Container,
			VideoEncoder:            r.cfg.API.VideoEncoder,
			VideoProfile:            r.cfg.API.VideoProfile,
		},
	}

	tempPath := filepath.Join(r.cfg.Paths.WorkDir, fmt.Sprintf("uplift-%s.mp4", uuid.NewString()))
	defer os.Remove(tempPath)

	usedKey, err := r.enhanceRemote(ctx, item, req, tempPath, log)
	if err != nil {
		return err
	}

	r.setProgress(ctx, item, "transcoding", 90, "correcting duration")

	produced, err := r.prober.Metadata(ctx, tempPath)
	if err != nil {
		return fmt.Errorf("probe enhanced file: %w", err)
	}

	finalPath := finalOutputPath(r.cfg.Paths.OutputDir, r.cfg.Output.FilenamePrefix, item.SourcePath)
	plan := transcode.Plan{
		EnhancedPath:     tempPath,
		OriginalPath:     item.SourcePath,
		OutputPath:       finalPath,
		DesiredDuration:  meta.DurationSeconds,
		EnhancedDuration: produced.DurationSeconds,
		OriginalDuration: meta.DurationSeconds,
		EnhancedWidth:    produced.Width,
		EnhancedHeight:   produced.Height,
		OutputWidth:      outWidth,
		OutputHeight:     outHeight,
		FrameRate:        outFPS,
		Sharpen:          sel.Sharpen,
		Preset:           r.cfg.Transcode.Preset,
		CRF:              r.cfg.Transcode.CRF,
		HasAudio:         hasAudio,
	}
	if err := r.transcoder.Run(ctx, plan); err != nil {
		return fmt.Errorf("transcode: %w", err)
	}

	r.pool.RotateToTail(usedKey)

	if r.cfg.Output.DeleteOriginal {
		if err := os.Remove(item.SourcePath); err != nil {
			log.Warn("failed to delete original", logging.Error(err))
		}
	}

	item.Status = queue.StatusCompleted
	item.FinalFile = finalPath
	item.SetProgress("done", 100, "completed")
	if err := r.store.Update(ctx, item); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}

	if info, err := os.Stat(finalPath); err == nil && produced.DurationSeconds > 0 {
		log.Info("video completed",
			logging.String("final", finalPath),
			logging.Int64("size_bytes", info.Size()),
			logging.Float64("bitrate_mbps", probe.EstimateBitrateMbps(info.Size(), meta.DurationSeconds)),
		)
	} else {
		log.Info("video completed", logging.String("final", finalPath))
	}
	return nil
}

// enhanceRemote submits the request under each available key until one
// succeeds, then downloads the result to destPath. It returns the key that
// succeeded.
func (r *Runner) enhanceRemote(ctx context.Context, item *queue.Item, req topaz.Request, destPath string, log *slog.Logger) (string, error) {
	keys := r.pool.Keys()
	if len(keys) == 0 {
		return "", ErrNoUsableKeys
	}

	var lastErr error
	for _, key := range keys {
		if err := r.control.Checkpoint(); err != nil {
			return "", err
		}

		keyLog := log.With(logging.String("key", keypool.Redact(key)))
		err := r.attemptWithKey(ctx, item, req, key, destPath, keyLog)
		if err == nil {
			return key, nil
		}
		if errors.Is(err, ErrStopped) || errors.Is(err, context.Canceled) {
			return "", err
		}

		lastErr = err
		if topaz.IsInsufficientCredit(err) {
			keyLog.Warn("key out of credits, retiring")
			if evictErr := r.pool.Evict(key); evictErr != nil {
				keyLog.Warn("failed to retire key", logging.Error(evictErr))
			}
			continue
		}
		keyLog.Warn("enhancement attempt failed", logging.Error(err))
	}
	return "", fmt.Errorf("%w: %v", ErrNoUsableKeys, lastErr)
}

// attemptWithKey runs one full submit/upload/poll/download cycle under a
// single key.
func (r *Runner) attemptWithKey(ctx context.Context, item *queue.Item, req topaz.Request, key, destPath string, log *slog.Logger) error {
	r.setProgress(ctx, item, "submitting", 5, "creating enhancement request")

	requestID, err := r.client.Create(ctx, key, req)
	if err != nil {
		return err
	}
	item.RequestID = requestID
	log.Info("enhancement request created", logging.String("request_id", requestID))

	urls, err := r.client.Accept(ctx, key, requestID)
	if err != nil {
		return err
	}

	r.setProgress(ctx, item, "uploading", 10, "uploading source")
	results, err := r.client.UploadParts(ctx, item.SourcePath, urls, func(uploaded, total int64) {
		if total <= 0 {
			return
		}
		// Upload spans the 10-30 band of overall progress.
		percent := 10 + 20*float64(uploaded)/float64(total)
		r.setProgress(ctx, item, "uploading", percent,
			fmt.Sprintf("uploaded %d of %d bytes", uploaded, total))
	})
	if err != nil {
		return err
	}
	if err := r.client.CompleteUpload(ctx, key, requestID, results); err != nil {
		return err
	}
	log.Info("upload complete", logging.Int("parts", len(results)))

	status, err := r.awaitCompletion(ctx, item, key, requestID, log)
	if err != nil {
		return err
	}

	r.setProgress(ctx, item, "downloading", 80, "downloading enhanced video")
	if err := r.client.Download(ctx, status.DownloadURL, destPath); err != nil {
		return err
	}
	return nil
}

func (r *Runner) setProgress(ctx context.Context, item *queue.Item, stage string, percent float64, message string) {
	item.SetProgress(stage, percent, message)
	if err := r.store.Update(ctx, item); err != nil {
		r.logger.Warn("failed to persist progress", logging.Error(err))
	}
}

func (r *Runner) failItem(ctx context.Context, item *queue.Item, cause error) {
	item.Status = queue.StatusFailed
	item.ErrorMessage = cause.Error()
	if err := r.store.Update(ctx, item); err != nil {
		r.logger.Warn("failed to mark item failed", logging.Error(err))
	}
	r.logger.Error("video failed", logging.Int64("item", item.ID), logging.Error(cause))
}

// rollback returns an interrupted item to pending so the next run retries
// it from the start.
func (r *Runner) rollback(item *queue.Item) {
	item.Status = queue.StatusPending
	item.RequestID = ""
	item.ErrorMessage = ""
	item.SetProgress("", 0, "")
	if err := r.store.Update(context.Background(), item); err != nil {
		r.logger.Warn("failed to roll back item", logging.Error(err))
	}
}
