package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/odm-grabber/internal/constants"
	"github.com/oshokin/odm-grabber/internal/logger"
	"github.com/oshokin/odm-grabber/internal/utils"
)

// Config holds all configuration settings.
type Config struct {
	// OutputPath is the directory under which loan directories are created.
	OutputPath string `mapstructure:"output_path"`
	// IdentityPath is the file holding the persisted client identity.
	IdentityPath string `mapstructure:"identity_path"`
	// UserAgent overrides the User-Agent presented to the loan service.
	UserAgent string `mapstructure:"user_agent"`
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level"`
	// DownloadSpeedLimit sets the maximum download speed (e.g., "1MB", "500KB").
	DownloadSpeedLimit string `mapstructure:"download_speed_limit"`
	// ReplaceParts indicates whether existing part files are downloaded again.
	ReplaceParts bool `mapstructure:"replace_parts"`
	// ReplaceCovers indicates whether existing cover images are downloaded again.
	ReplaceCovers bool `mapstructure:"replace_covers"`
	// MaxFolderNameLength is the maximum length of a loan directory name, 0 means unlimited.
	MaxFolderNameLength int64 `mapstructure:"max_folder_name_length"`
	// RetryAttemptsCount is the number of attempts for license and part requests.
	RetryAttemptsCount int64 `mapstructure:"retry_attempts_count"`
	// MinRetryPause is the minimum pause duration before retrying.
	MinRetryPause string `mapstructure:"min_retry_pause"`
	// MaxRetryPause is the maximum pause duration before retrying.
	MaxRetryPause string `mapstructure:"max_retry_pause"`
	// RequestTimeout bounds license and early-return requests as a whole.
	RequestTimeout string `mapstructure:"request_timeout"`
	// MaxConcurrentDownloads is the maximum number of parts downloaded simultaneously.
	MaxConcurrentDownloads int64 `mapstructure:"max_concurrent_downloads"`
	// ParsedDownloadSpeedLimit is the parsed download speed limit in bytes.
	ParsedDownloadSpeedLimit int64
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level
	// ParsedMinRetryPause is the parsed minimum retry pause duration.
	ParsedMinRetryPause time.Duration
	// ParsedMaxRetryPause is the parsed maximum retry pause duration.
	ParsedMaxRetryPause time.Duration
	// ParsedRequestTimeout is the parsed request timeout.
	ParsedRequestTimeout time.Duration
}

const (
	// DefaultMaxLogLength is the default maximum size (in bytes) of a logged HTTP dump.
	DefaultMaxLogLength = 1 * 1024 * 1024 // 1 MB

	// DefaultRetryAttemptsCount matches the attempt budget of the reference client.
	DefaultRetryAttemptsCount = 5

	defaultOutputPath             = "."
	defaultLogLevel               = "info"
	defaultMinRetryPause          = "1s"
	defaultMaxRetryPause          = "5s"
	defaultRequestTimeout         = "60s"
	defaultMaxConcurrentDownloads = 1
	defaultMaxFolderNameLength    = 255
)

// Static error definitions for better error handling.
var (
	// ErrEmptyIdentityPath indicates that no identity file location could be determined.
	ErrEmptyIdentityPath = errors.New("identity path cannot be empty")
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrInvalidRetryAttempts indicates that the retry attempts count is invalid.
	ErrInvalidRetryAttempts = errors.New("retry attempts count must be a positive integer")
	// ErrInvalidMinRetryPause indicates that the min retry pause duration is invalid.
	ErrInvalidMinRetryPause = errors.New("min_retry_pause cannot be negative")
	// ErrInvalidMaxRetryPause indicates that the max retry pause duration is invalid.
	ErrInvalidMaxRetryPause = errors.New("max_retry_pause cannot be negative")
	// ErrInvalidRequestTimeout indicates that the request timeout is invalid.
	ErrInvalidRequestTimeout = errors.New("request_timeout must be positive")
	// ErrInvalidConcurrentDownloads indicates that the concurrent downloads count is invalid.
	ErrInvalidConcurrentDownloads = errors.New("max concurrent downloads must be a positive integer")
	// ErrInvalidMaxFolderNameLength indicates a negative folder name limit.
	ErrInvalidMaxFolderNameLength = errors.New("max_folder_name_length cannot be negative")
)

// DefaultConfigDirectory returns the per-user directory holding the configuration and identity files.
func DefaultConfigDirectory() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir, err = os.UserHomeDir()
		if err != nil || dir == "" {
			dir = "."
		}

		return filepath.Join(dir, "."+constants.AppDirectoryName)
	}

	return filepath.Join(dir, constants.AppDirectoryName)
}

// DefaultConfigFilename returns the configuration file read when no path is given.
func DefaultConfigFilename() string {
	return filepath.Join(DefaultConfigDirectory(), constants.ConfigurationFilename)
}

// DefaultIdentityFilename returns the default location of the client identity file.
func DefaultIdentityFilename() string {
	return filepath.Join(DefaultConfigDirectory(), constants.IdentityFilename)
}

// LoadConfig loads configuration settings from a YAML file.
// An empty configFilename reads the default file if it exists and falls back to built-in defaults otherwise;
// an explicit configFilename must exist.
func LoadConfig(configFilename string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFilename == "" {
		defaultFilename := DefaultConfigFilename()

		isExist, err := utils.IsFileExist(defaultFilename)
		if err != nil {
			return nil, fmt.Errorf("failed to check default config file: %w", err)
		}

		if isExist {
			configFilename = defaultFilename
		}
	}

	if configFilename != "" {
		v.SetConfigFile(configFilename)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config from file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output_path", defaultOutputPath)
	v.SetDefault("identity_path", DefaultIdentityFilename())
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("retry_attempts_count", DefaultRetryAttemptsCount)
	v.SetDefault("min_retry_pause", defaultMinRetryPause)
	v.SetDefault("max_retry_pause", defaultMaxRetryPause)
	v.SetDefault("request_timeout", defaultRequestTimeout)
	v.SetDefault("max_concurrent_downloads", defaultMaxConcurrentDownloads)
	v.SetDefault("max_folder_name_length", defaultMaxFolderNameLength)
}

// ValidateConfig checks the configuration for validity and sets derived fields.
//
//nolint:funlen,cyclop // Validation functions naturally have high complexity and length due to sequential checks.
func ValidateConfig(cfg *Config) error {
	var (
		downloadSpeedLimit       = strings.TrimSpace(cfg.DownloadSpeedLimit)
		parsedDownloadSpeedLimit uint64
		err                      error
	)

	cfg.OutputPath = strings.TrimSpace(cfg.OutputPath)
	if cfg.OutputPath == "" {
		cfg.OutputPath = defaultOutputPath
	}

	cfg.IdentityPath = strings.TrimSpace(cfg.IdentityPath)
	if cfg.IdentityPath == "" {
		return ErrEmptyIdentityPath
	}

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	if downloadSpeedLimit != "" && downloadSpeedLimit != "0" {
		parsedDownloadSpeedLimit, err = humanize.ParseBytes(downloadSpeedLimit)
		if err != nil {
			return fmt.Errorf("failed to parse download speed limit: %w", err)
		}
	}

	// io.CopyN accepts only int64 so we transform it safely in order to use it later.
	cfg.ParsedDownloadSpeedLimit = utils.SafeUint64ToInt64(parsedDownloadSpeedLimit)

	if cfg.RetryAttemptsCount <= 0 {
		return ErrInvalidRetryAttempts
	}

	cfg.ParsedMinRetryPause, err = time.ParseDuration(cfg.MinRetryPause)
	if err != nil {
		return fmt.Errorf("failed to parse min retry pause: %w", err)
	}

	if cfg.ParsedMinRetryPause < 0 {
		return ErrInvalidMinRetryPause
	}

	cfg.ParsedMaxRetryPause, err = time.ParseDuration(cfg.MaxRetryPause)
	if err != nil {
		return fmt.Errorf("failed to parse max retry pause: %w", err)
	}

	if cfg.ParsedMaxRetryPause < 0 {
		return ErrInvalidMaxRetryPause
	}

	cfg.ParsedRequestTimeout, err = time.ParseDuration(cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("failed to parse request timeout: %w", err)
	}

	if cfg.ParsedRequestTimeout <= 0 {
		return ErrInvalidRequestTimeout
	}

	if cfg.MaxConcurrentDownloads <= 0 {
		return ErrInvalidConcurrentDownloads
	}

	if cfg.MaxFolderNameLength < 0 {
		return ErrInvalidMaxFolderNameLength
	}

	return nil
}
