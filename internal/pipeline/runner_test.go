package pipeline_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"uplift/internal/config"
	"uplift/internal/keypool"
	"uplift/internal/logging"
	"uplift/internal/media/probe"
	"uplift/internal/pipeline"
	"uplift/internal/queue"
	"uplift/internal/testsupport"
	"uplift/internal/topaz"
	"uplift/internal/transcode"
)

type fakeProber struct {
	source   probe.SourceMetadata
	enhanced probe.SourceMetadata
	hasAudio bool
}

func (p *fakeProber) Metadata(ctx context.Context, path string) (probe.SourceMetadata, error) {
	if strings.Contains(filepath.Base(path), "uplift-") {
		return p.enhanced, nil
	}
	return p.source, nil
}

func (p *fakeProber) HasAudio(ctx context.Context, path string) bool {
	return p.hasAudio
}

// fakeClient scripts per-key outcomes. Keys listed in failCreate return an
// error from Create; keys in failJob report a failed job from Status.
type fakeClient struct {
	mu         sync.Mutex
	failCreate map[string]error
	failJob    map[string]bool
	statusHook func()

	createdWith  []string
	uploadsFor   []string
	completedFor []string
	downloads    int
	lastRequest  topaz.Request
}

func (c *fakeClient) Create(ctx context.Context, apiKey string, req topaz.Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createdWith = append(c.createdWith, apiKey)
	c.lastRequest = req
	if err, ok := c.failCreate[apiKey]; ok {
		return "", err
	}
	return fmt.Sprintf("req-%d", len(c.createdWith)), nil
}

func (c *fakeClient) Accept(ctx context.Context, apiKey, requestID string) ([]string, error) {
	return []string{"https://upload.example/1", "https://upload.example/2"}, nil
}

func (c *fakeClient) UploadParts(ctx context.Context, path string, urls []string, progress topaz.ProgressFunc) ([]topaz.UploadResult, error) {
	c.mu.Lock()
	c.uploadsFor = append(c.uploadsFor, path)
	c.mu.Unlock()
	if progress != nil {
		progress(512, 1024)
		progress(1024, 1024)
	}
	return []topaz.UploadResult{{PartNum: 1, ETag: "a"}, {PartNum: 2, ETag: "b"}}, nil
}

func (c *fakeClient) CompleteUpload(ctx context.Context, apiKey, requestID string, results []topaz.UploadResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completedFor = append(c.completedFor, apiKey)
	return nil
}

func (c *fakeClient) Status(ctx context.Context, apiKey, requestID string) (topaz.JobStatus, error) {
	if c.statusHook != nil {
		c.statusHook()
		return topaz.JobStatus{State: "processing", Progress: 50}, nil
	}
	if c.failJob[apiKey] {
		return topaz.JobStatus{State: topaz.StateFailed, Progress: 40}, nil
	}
	return topaz.JobStatus{State: topaz.StateComplete, Progress: 100, DownloadURL: "https://dl.example/out.mp4"}, nil
}

func (c *fakeClient) Download(ctx context.Context, url, destPath string) error {
	c.mu.Lock()
	c.downloads++
	c.mu.Unlock()
	return os.WriteFile(destPath, []byte("enhanced"), 0o644)
}

type fakeTranscoder struct {
	mu    sync.Mutex
	plans []transcode.Plan
	err   error
}

func (t *fakeTranscoder) Run(ctx context.Context, plan transcode.Plan) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.plans = append(t.plans, plan)
	if t.err != nil {
		return t.err
	}
	return os.WriteFile(plan.OutputPath, []byte("final"), 0o644)
}

type runnerEnv struct {
	cfg        *config.Config
	store      *queue.Store
	pool       *keypool.Pool
	client     *fakeClient
	prober     *fakeProber
	transcoder *fakeTranscoder
	runner     *pipeline.Runner
	sourcePath string
}

func newRunnerEnv(t *testing.T, keys ...string) *runnerEnv {
	t.Helper()
	return newRunnerEnvWithConfig(t, nil, keys...)
}

func newRunnerEnvWithConfig(t *testing.T, cfgOpts []testsupport.ConfigOption, keys ...string) *runnerEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, cfgOpts...)
	cfg.API.PollInterval = 0
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	if len(keys) == 0 {
		keys = []string{"key-aaa"}
	}
	testsupport.WriteKeyFile(t, cfg.Paths.APIKeyFile, keys...)
	pool, err := keypool.New(keypool.NewFileStore(cfg.Paths.APIKeyFile))
	if err != nil {
		t.Fatalf("keypool.New: %v", err)
	}

	store := testsupport.MustOpenStore(t, cfg)

	sourcePath := filepath.Join(cfg.Paths.WorkDir, "clip.mp4")
	testsupport.WriteFile(t, sourcePath, 2048)

	env := &runnerEnv{
		cfg:    cfg,
		store:  store,
		pool:   pool,
		client: &fakeClient{failCreate: map[string]error{}, failJob: map[string]bool{}},
		prober: &fakeProber{
			source: probe.SourceMetadata{
				Width: 1920, Height: 1080, FrameRate: 29.97,
				FrameCount: 300, DurationSeconds: 10, SizeBytes: 2048,
			},
			enhanced: probe.SourceMetadata{
				Width: 3840, Height: 2160, FrameRate: 29.97,
				FrameCount: 312, DurationSeconds: 10.4, SizeBytes: 4096,
			},
			hasAudio: true,
		},
		transcoder: &fakeTranscoder{},
		sourcePath: sourcePath,
	}

	runner, err := pipeline.New(cfg, logging.NewNop(), store, pool, env.client, env.prober, env.transcoder)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	env.runner = runner
	return env
}

func (e *runnerEnv) run(t *testing.T) {
	t.Helper()
	if err := e.runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func (e *runnerEnv) item(t *testing.T, id int64) *queue.Item {
	t.Helper()
	item, err := e.store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item == nil {
		t.Fatalf("item %d disappeared", id)
	}
	return item
}

func TestRunProcessesItemToCompletion(t *testing.T) {
	env := newRunnerEnv(t)
	queued := testsupport.AddItem(t, env.store, env.sourcePath)

	env.run(t)

	item := env.item(t, queued.ID)
	if item.Status != queue.StatusCompleted {
		t.Fatalf("status = %q (error %q), want completed", item.Status, item.ErrorMessage)
	}
	if item.FinalFile == "" {
		t.Fatal("final file not recorded")
	}
	if _, err := os.Stat(item.FinalFile); err != nil {
		t.Fatalf("final file missing: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(item.FinalFile), "AdobeStock_clip") {
		t.Fatalf("final name %q missing prefix", filepath.Base(item.FinalFile))
	}

	if len(env.client.uploadsFor) != 1 || env.client.uploadsFor[0] != env.sourcePath {
		t.Fatalf("unexpected uploads: %v", env.client.uploadsFor)
	}
	if env.client.downloads != 1 {
		t.Fatalf("downloads = %d, want 1", env.client.downloads)
	}

	// The request carries the probed source and the resolved output.
	req := env.client.lastRequest
	if req.Source.Duration != 10 || req.Source.FrameCount != 300 {
		t.Fatalf("unexpected source payload: %#v", req.Source)
	}
	if req.Output.AudioTransfer != "Copy" {
		t.Fatalf("audio transfer = %q, want Copy", req.Output.AudioTransfer)
	}
	if len(req.Filters) != 1 || req.Filters[0].Model == "" {
		t.Fatalf("unexpected filters: %#v", req.Filters)
	}

	// The correction pass saw the drifted duration.
	if len(env.transcoder.plans) != 1 {
		t.Fatalf("transcoder ran %d times, want 1", len(env.transcoder.plans))
	}
	plan := env.transcoder.plans[0]
	if plan.DesiredDuration != 10 || plan.EnhancedDuration != 10.4 {
		t.Fatalf("unexpected plan durations: %#v", plan)
	}

	// The work dir temp download is cleaned up.
	entries, err := os.ReadDir(env.cfg.Paths.WorkDir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "uplift-") && strings.HasSuffix(entry.Name(), ".mp4") {
			t.Fatalf("temp artifact %s left behind", entry.Name())
		}
	}
}

func TestRunFailsOverToNextKeyOnInsufficientCredits(t *testing.T) {
	env := newRunnerEnv(t, "key-broke", "key-good")
	env.client.failCreate["key-broke"] = &topaz.StatusError{
		Op: "POST /video/", Code: 402, Body: `{"error":"Insufficient credits"}`,
	}
	queued := testsupport.AddItem(t, env.store, env.sourcePath)

	env.run(t)

	item := env.item(t, queued.ID)
	if item.Status != queue.StatusCompleted {
		t.Fatalf("status = %q (error %q), want completed", item.Status, item.ErrorMessage)
	}

	if env.pool.Contains("key-broke") {
		t.Fatal("exhausted key still in pool")
	}
	data, err := os.ReadFile(env.cfg.Paths.APIKeyFile)
	if err != nil {
		t.Fatalf("read key file: %v", err)
	}
	if strings.Contains(string(data), "key-broke") {
		t.Fatal("exhausted key still in backing file")
	}
	if !strings.Contains(string(data), "key-good") {
		t.Fatal("working key removed from backing file")
	}
}

func TestRunFailsOverWhenRemoteJobFails(t *testing.T) {
	env := newRunnerEnv(t, "key-flaky", "key-good")
	env.client.failJob["key-flaky"] = true
	queued := testsupport.AddItem(t, env.store, env.sourcePath)

	env.run(t)

	item := env.item(t, queued.ID)
	if item.Status != queue.StatusCompleted {
		t.Fatalf("status = %q (error %q), want completed", item.Status, item.ErrorMessage)
	}
	if len(env.client.createdWith) != 2 {
		t.Fatalf("created with %v, want both keys tried", env.client.createdWith)
	}
	// Job failure is not a credit problem; the key stays in the pool.
	if !env.pool.Contains("key-flaky") {
		t.Fatal("flaky key was evicted")
	}
}

func TestRunMarksItemFailedWhenAllKeysExhausted(t *testing.T) {
	env := newRunnerEnv(t, "key-one", "key-two")
	env.client.failJob["key-one"] = true
	env.client.failJob["key-two"] = true
	queued := testsupport.AddItem(t, env.store, env.sourcePath)

	env.run(t)

	item := env.item(t, queued.ID)
	if item.Status != queue.StatusFailed {
		t.Fatalf("status = %q, want failed", item.Status)
	}
	if item.ErrorMessage == "" {
		t.Fatal("expected error message on failed item")
	}
}

func TestRunRejectsInvalidSource(t *testing.T) {
	env := newRunnerEnv(t)
	env.prober.source.DurationSeconds = 300
	queued := testsupport.AddItem(t, env.store, env.sourcePath)

	env.run(t)

	item := env.item(t, queued.ID)
	if item.Status != queue.StatusFailed {
		t.Fatalf("status = %q, want failed", item.Status)
	}
	if !strings.Contains(item.ErrorMessage, "duration") {
		t.Fatalf("unexpected error %q", item.ErrorMessage)
	}
	if len(env.client.createdWith) != 0 {
		t.Fatal("invalid source should not reach the remote API")
	}
}

func TestRunLogsThresholdViolationWhenNotEnforcing(t *testing.T) {
	env := newRunnerEnvWithConfig(t, []testsupport.ConfigOption{testsupport.WithValidation(false)})
	env.prober.source.DurationSeconds = 300

	var buf bytes.Buffer
	logger, closeFn, err := logging.New(logging.Options{Level: "info", Format: "console", Console: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	defer closeFn()

	runner, err := pipeline.New(env.cfg, logger, env.store, env.pool, env.client, env.prober, env.transcoder)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}

	queued := testsupport.AddItem(t, env.store, env.sourcePath)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	item := env.item(t, queued.ID)
	if item.Status != queue.StatusCompleted {
		t.Fatalf("status = %q (error %q), want completed", item.Status, item.ErrorMessage)
	}

	out := buf.String()
	if !strings.Contains(out, "source inspected") {
		t.Fatalf("missing source summary in log: %q", out)
	}
	if !strings.Contains(out, "outside delivery thresholds") {
		t.Fatalf("missing threshold warning in log: %q", out)
	}
}

func TestRunFailsItemWhenTranscodeFails(t *testing.T) {
	env := newRunnerEnv(t)
	env.transcoder.err = fmt.Errorf("boom")
	queued := testsupport.AddItem(t, env.store, env.sourcePath)

	env.run(t)

	item := env.item(t, queued.ID)
	if item.Status != queue.StatusFailed {
		t.Fatalf("status = %q, want failed", item.Status)
	}
	if !strings.Contains(item.ErrorMessage, "transcode") {
		t.Fatalf("unexpected error %q", item.ErrorMessage)
	}
}

func TestRunUniquifiesFinalName(t *testing.T) {
	env := newRunnerEnv(t)
	existing := filepath.Join(env.cfg.Paths.OutputDir, "AdobeStock_clip.mp4")
	testsupport.WriteFile(t, existing, 8)
	queued := testsupport.AddItem(t, env.store, env.sourcePath)

	env.run(t)

	item := env.item(t, queued.ID)
	if item.Status != queue.StatusCompleted {
		t.Fatalf("status = %q (error %q), want completed", item.Status, item.ErrorMessage)
	}
	if filepath.Base(item.FinalFile) != "AdobeStock_clip_1.mp4" {
		t.Fatalf("final name = %q, want AdobeStock_clip_1.mp4", filepath.Base(item.FinalFile))
	}
}

func TestRunMuteAudioSkipsAudio(t *testing.T) {
	env := newRunnerEnv(t)
	env.cfg.Output.MuteAudio = true
	queued := testsupport.AddItem(t, env.store, env.sourcePath)

	env.run(t)

	item := env.item(t, queued.ID)
	if item.Status != queue.StatusCompleted {
		t.Fatalf("status = %q (error %q), want completed", item.Status, item.ErrorMessage)
	}
	if env.client.lastRequest.Output.AudioTransfer != "None" {
		t.Fatalf("audio transfer = %q, want None", env.client.lastRequest.Output.AudioTransfer)
	}
	if env.transcoder.plans[0].HasAudio {
		t.Fatal("transcode plan should have audio disabled")
	}
}

func TestRunDeleteOriginal(t *testing.T) {
	env := newRunnerEnv(t)
	env.cfg.Output.DeleteOriginal = true
	queued := testsupport.AddItem(t, env.store, env.sourcePath)

	env.run(t)

	item := env.item(t, queued.ID)
	if item.Status != queue.StatusCompleted {
		t.Fatalf("status = %q (error %q), want completed", item.Status, item.ErrorMessage)
	}
	if _, err := os.Stat(env.sourcePath); !os.IsNotExist(err) {
		t.Fatalf("original should be deleted, stat err = %v", err)
	}
}

func TestRunRotatesKeyAfterSuccess(t *testing.T) {
	env := newRunnerEnv(t, "key-one", "key-two")
	testsupport.AddItem(t, env.store, env.sourcePath)

	env.run(t)

	keys := env.pool.Keys()
	if len(keys) != 2 || keys[0] != "key-two" || keys[1] != "key-one" {
		t.Fatalf("unexpected key order after rotation: %v", keys)
	}
}

func TestStopMidPollRollsItemBackToPending(t *testing.T) {
	env := newRunnerEnv(t)
	env.client.statusHook = func() {
		env.runner.Control().RequestStop()
	}
	queued := testsupport.AddItem(t, env.store, env.sourcePath)

	env.run(t)

	item := env.item(t, queued.ID)
	if item.Status != queue.StatusPending {
		t.Fatalf("status = %q, want pending after interrupted run", item.Status)
	}
	if item.RequestID != "" || item.ProgressStage != "" {
		t.Fatalf("interrupted item not reset: %#v", item)
	}
	if env.client.downloads != 0 {
		t.Fatal("no download expected after stop")
	}
}

func TestRunWithNoPendingItemsReturns(t *testing.T) {
	env := newRunnerEnv(t)
	env.run(t)

	if len(env.client.createdWith) != 0 {
		t.Fatal("no API calls expected for an empty queue")
	}
}
