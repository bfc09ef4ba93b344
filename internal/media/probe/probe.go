package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// SourceMetadata captures the facts about a source video the pipeline
// decides on. Immutable once probed.
type SourceMetadata struct {
	Width           int
	Height          int
	FrameRate       float64
	FrameCount      int64
	DurationSeconds float64
	SizeBytes       int64
}

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Duration     string `json:"duration"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RawFrameRate string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NBFrames     string `json:"nb_frames"`
	SampleRate   string `json:"sample_rate"`
	Channels     int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect %s: %w: %s", path, err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Metadata probes the file and reduces the result to SourceMetadata.
// The byte size comes from the filesystem, not the container header.
func Metadata(ctx context.Context, binary string, path string) (SourceMetadata, error) {
	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return SourceMetadata{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return SourceMetadata{}, fmt.Errorf("stat source: %w", err)
	}

	meta := result.SourceMetadata()
	meta.SizeBytes = info.Size()
	return meta, nil
}

// SourceMetadata reduces the probe result to the pipeline's view of the
// source. Duration derives from frame count over frame rate when both are
// known; a frame rate of zero yields a zero duration rather than an error.
func (r Result) SourceMetadata() SourceMetadata {
	meta := SourceMetadata{}
	video, ok := r.firstStream("video")
	if !ok {
		return meta
	}

	meta.Width = video.Width
	meta.Height = video.Height
	meta.FrameRate = video.FrameRate()

	meta.FrameCount = parseInt(video.NBFrames)
	if meta.FrameCount == 0 && meta.FrameRate > 0 {
		if duration := r.DurationSeconds(); duration > 0 {
			meta.FrameCount = int64(math.Round(duration * meta.FrameRate))
		}
	}

	if meta.FrameRate > 0 {
		meta.DurationSeconds = float64(meta.FrameCount) / meta.FrameRate
	}
	return meta
}

// HasAudioStream reports whether the file carries a decodable audio stream.
// A failed probe resolves to true so a transient error never mutes a video.
func HasAudioStream(ctx context.Context, binary string, path string) bool {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-select_streams", "a:0",
		"-show_entries", "stream=codec_type", "-of", "default=noprint_wrappers=1:nokey=1", "--", path)
	output, err := cmd.Output()
	if err != nil {
		return true
	}
	return strings.Contains(strings.ToLower(string(output)), "audio")
}

// EstimateBitrateMbps estimates the stream bitrate in Mbps (1024² based)
// from total byte size and duration. Non-positive durations yield 0.
func EstimateBitrateMbps(sizeBytes int64, durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	bits := float64(sizeBytes) * 8
	return bits / durationSeconds / (1024 * 1024)
}

// FrameRate parses the stream frame rate, preferring the container's average
// rate over the raw rate. Rates are fractions such as "30000/1001".
func (s Stream) FrameRate() float64 {
	if rate := parseRational(s.AvgFrameRate); rate > 0 {
		return rate
	}
	return parseRational(s.RawFrameRate)
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	return r.countStreams("video")
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	return r.countStreams("audio")
}

func (r Result) firstStream(codecType string) (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			return stream, true
		}
	}
	return Stream{}, false
}

func (r Result) countStreams(codecType string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			count++
		}
	}
	return count
}

func parseRational(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "0/0" {
		return 0
	}
	num, den, found := strings.Cut(cleaned, "/")
	if !found {
		return parseFloat(cleaned)
	}
	numerator := parseFloat(num)
	denominator := parseFloat(den)
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || parsed < 0 {
		return 0
	}
	return parsed
}

func parseInt(value string) int64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}
