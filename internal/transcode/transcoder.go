package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// ErrFFmpegNotFound indicates the configured ffmpeg binary is not
// installed or not on PATH.
var ErrFFmpegNotFound = errors.New("ffmpeg binary not found")

// Transcoder runs the duration correction pass.
type Transcoder interface {
	Run(ctx context.Context, plan Plan) error
}

// CommandTranscoder shells out to ffmpeg.
type CommandTranscoder struct {
	binary string
	logger *slog.Logger
}

// CommandOption adjusts CommandTranscoder construction.
type CommandOption func(*CommandTranscoder)

// WithBinary overrides the ffmpeg binary path.
func WithBinary(binary string) CommandOption {
	return func(t *CommandTranscoder) {
		if binary != "" {
			t.binary = binary
		}
	}
}

// NewCommandTranscoder builds a transcoder that invokes ffmpeg directly.
func NewCommandTranscoder(logger *slog.Logger, opts ...CommandOption) *CommandTranscoder {
	t := &CommandTranscoder{binary: "ffmpeg", logger: logger}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run executes the plan and surfaces ffmpeg's diagnostics on failure.
func (t *CommandTranscoder) Run(ctx context.Context, plan Plan) error {
	args := plan.BuildArgs()
	if t.logger != nil {
		t.logger.Debug("running ffmpeg", "binary", t.binary, "args", strings.Join(args, " "))
	}

	cmd := exec.CommandContext(ctx, t.binary, args...)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrFFmpegNotFound, t.binary)
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, tailLines(stderr.String(), 8))
	}
	return nil
}

// tailLines keeps the last n lines of output, where ffmpeg puts its
// actual error message.
func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
