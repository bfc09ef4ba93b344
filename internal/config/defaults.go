package config

const (
	defaultOutputDir          = "~/uplift/output"
	defaultWorkDir            = "~/.local/share/uplift/work"
	defaultLogDir             = "~/.local/share/uplift/logs"
	defaultAPIKeyFile         = "~/.config/uplift/api_keys.txt"
	defaultBaseURL            = "https://api.topazlabs.com"
	defaultRequestTimeout     = 60
	defaultPollInterval       = 10
	defaultVideoEncoder       = "H264"
	defaultVideoProfile       = "High"
	defaultContainer          = "mp4"
	defaultDynamicCompression = "High"
	defaultResolution         = "original"
	defaultFrameRate          = "auto"
	defaultFilenamePrefix     = "AdobeStock_"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultPreset             = "slow"
	defaultCRF                = 12
	defaultMinDuration        = 5
	defaultMaxDuration        = 60
	defaultErrorRetryInterval = 5
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			WorkDir:    defaultWorkDir,
			LogDir:     defaultLogDir,
			APIKeyFile: defaultAPIKeyFile,
		},
		API: API{
			BaseURL:            defaultBaseURL,
			RequestTimeout:     defaultRequestTimeout,
			PollInterval:       defaultPollInterval,
			VideoEncoder:       defaultVideoEncoder,
			VideoProfile:       defaultVideoProfile,
			Container:          defaultContainer,
			DynamicCompression: defaultDynamicCompression,
		},
		Output: Output{
			Resolution:     defaultResolution,
			FrameRate:      defaultFrameRate,
			FilenamePrefix: defaultFilenamePrefix,
		},
		Transcode: Transcode{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Preset:        defaultPreset,
			CRF:           defaultCRF,
		},
		Validation: Validation{
			MinDurationSeconds: defaultMinDuration,
			MaxDurationSeconds: defaultMaxDuration,
			Enforce:            true,
		},
		Workflow: Workflow{
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
