// Package probe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - SourceMetadata: the per-video facts the pipeline decides on
//     (dimensions, frame rate, frame count, duration, byte size)
//   - Result: parsed ffprobe output containing streams and format metadata
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns a parsed Result
//   - Metadata: executes ffprobe and reduces the result to SourceMetadata
//   - HasAudioStream: detects a usable audio stream; probe failures resolve
//     to true so transient errors never silently drop audio
package probe
