package transcode

import (
	"fmt"
	"math"
)

// Plan captures everything needed to assemble the correction pass.
type Plan struct {
	EnhancedPath string
	OriginalPath string
	OutputPath   string

	// DesiredDuration is the source duration the result must match.
	// EnhancedDuration is the duration of the file the API produced, and
	// OriginalDuration that of the submitted source.
	DesiredDuration  float64
	EnhancedDuration float64
	OriginalDuration float64

	// Enhanced file dimensions, used to pick the bitrate ceiling.
	EnhancedWidth  int
	EnhancedHeight int

	// Delivery dimensions, used to tighten CRF for smaller renditions.
	OutputWidth  int
	OutputHeight int

	FrameRate float64
	Sharpen   string

	Preset string
	CRF    int

	HasAudio bool
}

// EffectiveCRF lowers the configured CRF for smaller delivery sizes, where
// extra quality costs little.
func (p Plan) EffectiveCRF() int {
	crf := p.CRF
	if p.OutputWidth <= 1920 && p.OutputHeight <= 1080 {
		if crf > 10 {
			crf = 10
		}
	} else if p.OutputWidth <= 2560 && p.OutputHeight <= 1440 {
		if crf > 11 {
			crf = 11
		}
	}
	return crf
}

// bitrateCaps picks maxrate/bufsize from the enhanced file's dimensions.
func (p Plan) bitrateCaps() (string, string) {
	switch {
	case p.EnhancedWidth >= 3800 || p.EnhancedHeight >= 2100:
		return "50000k", "100000k"
	case p.EnhancedWidth >= 1900 || p.EnhancedHeight >= 1060:
		return "25000k", "50000k"
	default:
		return "20000k", "40000k"
	}
}

// durationsValid reports whether the speed factors can be computed.
func (p Plan) durationsValid() bool {
	return p.DesiredDuration > 0 && p.EnhancedDuration > 0 && p.OriginalDuration > 0
}

// BuildArgs assembles the full ffmpeg argument list. When the duration
// metadata is unusable it falls back to a straight remux of the enhanced
// video with the original audio copied over, so the pass never fails to
// produce a command.
func (p Plan) BuildArgs() []string {
	args := []string{"-y", "-i", p.EnhancedPath}
	if p.HasAudio {
		args = append(args, "-i", p.OriginalPath)
	}

	if p.durationsValid() {
		args = append(args, p.correctionArgs()...)
	} else {
		args = append(args, p.fallbackArgs()...)
	}

	maxrate, bufsize := p.bitrateCaps()
	args = append(args,
		"-c:v", "libx264",
		"-preset", p.Preset,
		"-crf", fmt.Sprintf("%d", p.EffectiveCRF()),
		"-profile:v", "high",
		"-level", "4.2",
		"-pix_fmt", "yuv420p",
		"-colorspace", "bt709",
		"-color_primaries", "bt709",
		"-color_trc", "bt709",
		"-movflags", "+faststart",
		"-maxrate", maxrate,
		"-bufsize", bufsize,
	)

	if p.FrameRate > 0 {
		args = append(args, "-r", fmt.Sprintf("%g", p.FrameRate))
		gop := int(math.Round(p.FrameRate * 2))
		if gop < 1 {
			gop = 1
		}
		args = append(args,
			"-g", fmt.Sprintf("%d", gop),
			"-keyint_min", fmt.Sprintf("%d", gop),
		)
	}

	if p.HasAudio && p.durationsValid() {
		args = append(args, "-c:a", "aac", "-b:a", "320k", "-ar", "48000")
	}

	return append(args, p.OutputPath)
}

// correctionArgs builds the filter graph that retimes video and audio back
// to the desired duration.
func (p Plan) correctionArgs() []string {
	videoSpeed := p.EnhancedDuration / p.DesiredDuration
	ptsFactor := 1.0 / videoSpeed
	videoFilter := fmt.Sprintf("setpts=%.4f*PTS", ptsFactor)
	if p.Sharpen != "" {
		videoFilter += "," + p.Sharpen
	}

	if !p.HasAudio {
		return []string{"-filter:v", videoFilter, "-an"}
	}

	audioFilter := TempoChain(p.OriginalDuration / p.DesiredDuration)
	graph := fmt.Sprintf("[0:v]%s[v];[1:a]%s[a]", videoFilter, audioFilter)
	return []string{"-filter_complex", graph, "-map", "[v]", "-map", "[a]"}
}

// fallbackArgs maps the streams through untouched when retiming is not
// possible.
func (p Plan) fallbackArgs() []string {
	args := []string{"-map", "0:v:0"}
	if p.Sharpen != "" {
		args = append(args, "-filter:v", p.Sharpen)
	}
	if p.HasAudio {
		args = append(args, "-map", "1:a:0", "-c:a", "copy")
	} else {
		args = append(args, "-an")
	}
	return args
}
