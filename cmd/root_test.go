package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/odm-grabber/internal/config"
	"github.com/oshokin/odm-grabber/internal/constants"
)

const testBaseConfigContent = `
output_path: "/config/output"
identity_path: "/config/identity.yaml"
log_level: "info"
download_speed_limit: "500KB"
replace_parts: false
replace_covers: false
max_folder_name_length: 100
retry_attempts_count: 3
min_retry_pause: "1s"
max_retry_pause: "3s"
request_timeout: "30s"
max_concurrent_downloads: 1
`

func loadTestConfig(t *testing.T, content string) *config.Config {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "test-config.yaml")

	err := os.WriteFile(
		configPath,
		[]byte(content),
		constants.DefaultFilePermissions,
	) //nolint:gosec // It's a test file.
	require.NoError(t, err)

	cfg, err := config.LoadConfig(configPath)
	require.NoError(t, err)

	return cfg
}

// TestFlagOverrides tests that command-line flags correctly override configuration file values.
//
//nolint:funlen // It's a comprehensive table test.
func TestFlagOverrides(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		flags          map[string]string
		expectedConfig func(*testing.T, *config.Config)
	}{
		{
			name:  "no flags - use config values",
			flags: map[string]string{},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "/config/output", cfg.OutputPath)
				assert.Equal(t, "/config/identity.yaml", cfg.IdentityPath)
				assert.Equal(t, int64(1), cfg.MaxConcurrentDownloads)
				assert.Equal(t, "500KB", cfg.DownloadSpeedLimit)
				assert.Equal(t, int64(500_000), cfg.ParsedDownloadSpeedLimit)
				assert.Equal(t, zapcore.InfoLevel, cfg.ParsedLogLevel)
			},
		},
		{
			name: "output flag only - override output path",
			flags: map[string]string{
				"output": "/flag/output",
			},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "/flag/output", cfg.OutputPath)
				assert.Equal(t, "500KB", cfg.DownloadSpeedLimit)
			},
		},
		{
			name: "identity flag only - override identity path",
			flags: map[string]string{
				"identity": "/flag/identity.yaml",
			},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "/flag/identity.yaml", cfg.IdentityPath)
				assert.Equal(t, "/config/output", cfg.OutputPath)
			},
		},
		{
			name: "concurrency flag only - override concurrent downloads",
			flags: map[string]string{
				"concurrency": "4",
			},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, int64(4), cfg.MaxConcurrentDownloads)
				assert.Equal(t, "/config/output", cfg.OutputPath)
			},
		},
		{
			name: "speed-limit flag only - override speed limit",
			flags: map[string]string{
				"speed-limit": "1MB",
			},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "1MB", cfg.DownloadSpeedLimit)
				assert.Equal(t, int64(1_000_000), cfg.ParsedDownloadSpeedLimit)
			},
		},
		{
			name: "log-level flag only - override log level",
			flags: map[string]string{
				"log-level": "debug",
			},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, zapcore.DebugLevel, cfg.ParsedLogLevel)
			},
		},
		{
			name: "all flags - override everything",
			flags: map[string]string{
				"output":      "/all/flags/output",
				"identity":    "/all/flags/identity.yaml",
				"concurrency": "2",
				"speed-limit": "2MB",
				"log-level":   "error",
			},
			expectedConfig: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "/all/flags/output", cfg.OutputPath)
				assert.Equal(t, "/all/flags/identity.yaml", cfg.IdentityPath)
				assert.Equal(t, int64(2), cfg.MaxConcurrentDownloads)
				assert.Equal(t, "2MB", cfg.DownloadSpeedLimit)
				assert.Equal(t, zapcore.ErrorLevel, cfg.ParsedLogLevel)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := loadTestConfig(t, testBaseConfigContent)

			testCmd := &cobra.Command{Use: "test"}
			registerFlags(testCmd.Flags())

			for flagName, flagValue := range tt.flags {
				require.NoError(t, testCmd.Flags().Set(flagName, flagValue), "failed to set flag %s", flagName)
			}

			err := bindFlagsToConfig(testCmd.Flags(), cfg)
			require.NoError(t, err)

			tt.expectedConfig(t, cfg)
		})
	}
}

// TestFlagOverrides_Invalid tests that invalid flag values fail validation.
func TestFlagOverrides_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		flagName    string
		flagValue   string
		expectedErr error
	}{
		{
			name:        "zero concurrency",
			flagName:    "concurrency",
			flagValue:   "0",
			expectedErr: config.ErrInvalidConcurrentDownloads,
		},
		{
			name:        "unknown log level",
			flagName:    "log-level",
			flagValue:   "loud",
			expectedErr: config.ErrUnknownLogLevel,
		},
		{
			name:        "blank identity path",
			flagName:    "identity",
			flagValue:   "  ",
			expectedErr: config.ErrEmptyIdentityPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := loadTestConfig(t, testBaseConfigContent)

			testCmd := &cobra.Command{Use: "test"}
			registerFlags(testCmd.Flags())

			require.NoError(t, testCmd.Flags().Set(tt.flagName, tt.flagValue))

			err := bindFlagsToConfig(testCmd.Flags(), cfg)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

// TestFlagOverrides_InvalidSpeedLimit tests that an unparsable speed limit is rejected.
func TestFlagOverrides_InvalidSpeedLimit(t *testing.T) {
	t.Parallel()

	cfg := loadTestConfig(t, testBaseConfigContent)

	testCmd := &cobra.Command{Use: "test"}
	registerFlags(testCmd.Flags())

	require.NoError(t, testCmd.Flags().Set("speed-limit", "fast"))

	err := bindFlagsToConfig(testCmd.Flags(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download speed limit")
}
