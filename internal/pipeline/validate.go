package pipeline

import (
	"fmt"

	"uplift/internal/config"
	"uplift/internal/media/probe"
)

// acceptedResolutions are exact dimension pairs allowed regardless of the
// minimum size rule.
var acceptedResolutions = [][2]int{
	{1920, 1080},
	{3840, 2160},
	{1280, 720},
}

// ValidateSource checks the probed metadata against the delivery
// requirements before any credits are spent on it.
func ValidateSource(meta probe.SourceMetadata, rules config.Validation) error {
	if meta.DurationSeconds < float64(rules.MinDurationSeconds) {
		return fmt.Errorf("duration %.2fs is below the %ds minimum", meta.DurationSeconds, rules.MinDurationSeconds)
	}
	if meta.DurationSeconds > float64(rules.MaxDurationSeconds) {
		return fmt.Errorf("duration %.2fs exceeds the %ds maximum", meta.DurationSeconds, rules.MaxDurationSeconds)
	}

	for _, res := range acceptedResolutions {
		if meta.Width == res[0] && meta.Height == res[1] {
			return nil
		}
	}
	if meta.Width < 1920 || meta.Height < 1080 {
		return fmt.Errorf("resolution %dx%d is below the 1920x1080 minimum", meta.Width, meta.Height)
	}
	return nil
}
