package pipeline

import (
	"context"

	"uplift/internal/media/probe"
)

// Prober inspects media files. The production implementation shells out to
// ffprobe; tests substitute a stub.
type Prober interface {
	Metadata(ctx context.Context, path string) (probe.SourceMetadata, error)
	HasAudio(ctx context.Context, path string) bool
}

// CommandProber probes with the ffprobe binary.
type CommandProber struct {
	binary string
}

// NewCommandProber builds a prober around the given ffprobe binary.
func NewCommandProber(binary string) *CommandProber {
	if binary == "" {
		binary = "ffprobe"
	}
	return &CommandProber{binary: binary}
}

func (p *CommandProber) Metadata(ctx context.Context, path string) (probe.SourceMetadata, error) {
	return probe.Metadata(ctx, p.binary, path)
}

func (p *CommandProber) HasAudio(ctx context.Context, path string) bool {
	return probe.HasAudioStream(ctx, p.binary, path)
}
