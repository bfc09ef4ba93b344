package config

import (
	"errors"
	"fmt"
	"strings"
)

var validResolutions = map[string]struct{}{
	"original": {},
	"1080p":    {},
	"4k":       {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateValidation(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.APIKeyFile) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/uplift/config.toml"
		}
		return fmt.Errorf("paths.api_key_file is required; edit %s (create with 'uplift config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url must be set")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.PollInterval < 1 {
		return errors.New("api.poll_interval must be at least 1 second")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if _, ok := validResolutions[c.Output.Resolution]; !ok {
		return fmt.Errorf("output.resolution must be one of original, 1080p, 4k; got %q", c.Output.Resolution)
	}
	if c.Output.FrameRate != "auto" && c.Output.FrameRate != "original" {
		if _, err := parsePositiveFloat(c.Output.FrameRate); err != nil {
			return fmt.Errorf("output.frame_rate must be auto, original, or a positive number: %w", err)
		}
	}
	return nil
}

func (c *Config) validateValidation() error {
	if c.Validation.MinDurationSeconds < 0 {
		return errors.New("validation.min_duration_seconds must not be negative")
	}
	if c.Validation.MaxDurationSeconds > 0 && c.Validation.MaxDurationSeconds < c.Validation.MinDurationSeconds {
		return errors.New("validation.max_duration_seconds must not be below validation.min_duration_seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
