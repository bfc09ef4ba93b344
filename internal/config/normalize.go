package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeOutput()
	c.normalizeTranscode()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.APIKeyFile, err = expandPath(c.Paths.APIKeyFile); err != nil {
		return fmt.Errorf("paths.api_key_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.RequestTimeout <= 0 {
		c.API.RequestTimeout = defaultRequestTimeout
	}
	if c.API.PollInterval <= 0 {
		c.API.PollInterval = defaultPollInterval
	}
	if strings.TrimSpace(c.API.VideoEncoder) == "" {
		c.API.VideoEncoder = defaultVideoEncoder
	}
	if strings.TrimSpace(c.API.VideoProfile) == "" {
		c.API.VideoProfile = defaultVideoProfile
	}
	if strings.TrimSpace(c.API.Container) == "" {
		c.API.Container = defaultContainer
	}
	if strings.TrimSpace(c.API.DynamicCompression) == "" {
		c.API.DynamicCompression = defaultDynamicCompression
	}
}

func (c *Config) normalizeOutput() {
	c.Output.Resolution = strings.ToLower(strings.TrimSpace(c.Output.Resolution))
	if c.Output.Resolution == "" {
		c.Output.Resolution = defaultResolution
	}
	c.Output.FrameRate = strings.ToLower(strings.TrimSpace(c.Output.FrameRate))
	if c.Output.FrameRate == "" {
		c.Output.FrameRate = defaultFrameRate
	}
	if c.Output.FilenamePrefix == "" {
		c.Output.FilenamePrefix = defaultFilenamePrefix
	}
}

func (c *Config) normalizeTranscode() {
	if strings.TrimSpace(c.Transcode.FFmpegBinary) == "" {
		c.Transcode.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.Transcode.FFprobeBinary) == "" {
		c.Transcode.FFprobeBinary = defaultFFprobeBinary
	}
	if strings.TrimSpace(c.Transcode.Preset) == "" {
		c.Transcode.Preset = defaultPreset
	}
	if c.Transcode.CRF <= 0 {
		c.Transcode.CRF = defaultCRF
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
