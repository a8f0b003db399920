package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/odm-grabber/internal/app"
	"github.com/oshokin/odm-grabber/internal/config"
	"github.com/oshokin/odm-grabber/internal/logger"
	"github.com/oshokin/odm-grabber/internal/version"
)

var (
	//nolint:gochecknoglobals // It is required for configuration initialization before the application starts.
	configFilenameFromFlag string

	//nolint:gochecknoglobals,lll // It is initialized once during the application's startup and shared across the command execution logic.
	appConfig *config.Config

	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	rootCmd = &cobra.Command{
		Use:   "odm-grabber [flags] {download|return|info|metadata}... {manifest}...",
		Short: "Download, inspect or return OverDrive audiobook loans.",
		Long: `ODM Grabber is a CLI tool for OverDrive audiobook loan manifests (.odm files).
It supports the following commands:
- download: acquire the license and download every part and the cover art
- return: return the loan early
- info: print a summary of the loan
- metadata: print the metadata document embedded in the manifest

Every command is applied to every manifest given on the command line.`,
		Version:          version.Full(),
		Args:             cobra.MinimumNArgs(2), //nolint:mnd // At least one command and one manifest.
		SilenceUsage:     true,
		PersistentPreRun: initConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlagsToConfig(cmd.Flags(), appConfig); err != nil {
				return fmt.Errorf("failed to parse flags: %w", err)
			}

			logger.SetLevel(appConfig.ParsedLogLevel)

			return app.ExecuteRootCommand(cmd.Context(), appConfig, args)
		},
	}
)

// Execute executes the root command and exits with status 1 if it fails.
func Execute() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	_ = logger.Logger().Sync()

	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configFilenameFromFlag,
		"config",
		"c",
		"",
		fmt.Sprintf("path to the configuration file (default is '%s')",
			config.DefaultConfigFilename()))

	registerFlags(rootCmd.Flags())
}

// registerFlags adds the flags that override configuration values.
func registerFlags(flags *pflag.FlagSet) {
	flags.StringP(
		"output",
		"o",
		"",
		"directory to save downloaded loans (the path will be created if it doesn’t exist).")

	flags.String(
		"identity",
		"",
		"path to the file holding the client identity.")

	flags.Int64P(
		"concurrency",
		"j",
		0,
		"number of parts downloaded at the same time.")

	flags.StringP(
		"speed-limit",
		"s",
		"",
		"set download speed limit, for example: 500 kbps, 1 mbps, 1.5 mbps.")

	flags.StringP(
		"log-level",
		"l",
		"",
		"logging level: debug, info, warn, error.")
}

func initConfig(cmd *cobra.Command, _ []string) {
	var err error

	appConfig, err = config.LoadConfig(configFilenameFromFlag)
	if err != nil {
		logger.Fatalf(cmd.Context(), "Failed to load configuration: %v", err)
	}
}

func bindFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup("output"); flag != nil && flag.Changed {
		cfg.OutputPath, _ = flags.GetString("output")
	}

	if flag := flags.Lookup("identity"); flag != nil && flag.Changed {
		cfg.IdentityPath, _ = flags.GetString("identity")
	}

	if flag := flags.Lookup("concurrency"); flag != nil && flag.Changed {
		cfg.MaxConcurrentDownloads, _ = flags.GetInt64("concurrency")
	}

	if flag := flags.Lookup("speed-limit"); flag != nil && flag.Changed {
		cfg.DownloadSpeedLimit, _ = flags.GetString("speed-limit")
	}

	if flag := flags.Lookup("log-level"); flag != nil && flag.Changed {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	return config.ValidateConfig(cfg)
}
