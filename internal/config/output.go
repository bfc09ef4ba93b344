package config

import (
	"fmt"
	"strconv"
	"strings"
)

func parsePositiveFloat(value string) (float64, error) {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("value %v is not positive", parsed)
	}
	return parsed, nil
}

// ResolveResolution maps the configured resolution choice onto concrete output
// dimensions for a source of the given size.
func (c *Config) ResolveResolution(sourceWidth, sourceHeight int) (int, int) {
	switch c.Output.Resolution {
	case "4k":
		return 3840, 2160
	case "1080p":
		return 1920, 1080
	default:
		return sourceWidth, sourceHeight
	}
}

// ExplicitFrameRate returns the user-chosen output frame rate when one was
// configured. The second return is false for the auto and original choices,
// which defer to the source rate.
func (c *Config) ExplicitFrameRate() (float64, bool) {
	switch c.Output.FrameRate {
	case "auto", "original":
		return 0, false
	}
	parsed, err := parsePositiveFloat(c.Output.FrameRate)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// AutoNormalizeFrameRate reports whether the output frame rate should be
// snapped to the nearest broadcast standard.
func (c *Config) AutoNormalizeFrameRate() bool {
	return c.Output.FrameRate == "auto"
}
