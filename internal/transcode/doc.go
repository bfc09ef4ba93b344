// Package transcode builds and runs the ffmpeg pass that corrects the
// enhanced video's duration drift and re-encodes it to the delivery format.
package transcode
