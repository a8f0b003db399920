package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/oshokin/odm-grabber/internal/client/odm"
	"github.com/oshokin/odm-grabber/internal/config"
	"github.com/oshokin/odm-grabber/internal/logger"
	"github.com/oshokin/odm-grabber/internal/service/loan"
)

var (
	// ErrNoCommands is returned when no positional argument names a command.
	ErrNoCommands = errors.New("at least one command is required: download, return, info or metadata")
	// ErrNoManifests is returned when no positional argument is a manifest path.
	ErrNoManifests = errors.New("at least one manifest path is required")
	// ErrBatchFailed is returned when at least one (command, manifest) pair failed.
	ErrBatchFailed = errors.New("some commands failed")
)

// SplitArgs separates command names from manifest paths.
// Commands keep their order and duplicates are applied once.
func SplitArgs(args []string) ([]loan.Command, []string, error) {
	var (
		commands     = make([]loan.Command, 0, len(args))
		paths        = make([]string, 0, len(args))
		seenCommands = make(map[loan.Command]struct{}, len(args))
	)

	for _, arg := range args {
		command, ok := loan.ParseCommand(arg)
		if !ok {
			paths = append(paths, arg)

			continue
		}

		if _, ok = seenCommands[command]; ok {
			continue
		}

		seenCommands[command] = struct{}{}
		commands = append(commands, command)
	}

	if len(commands) == 0 {
		return nil, nil, ErrNoCommands
	}

	if len(paths) == 0 {
		return nil, nil, ErrNoManifests
	}

	return commands, paths, nil
}

// ExecuteRootCommand is the entry point for the application.
// It initializes the loan client and service, then runs the batch described by args.
func ExecuteRootCommand(ctx context.Context, cfg *config.Config, args []string) error {
	commands, paths, err := SplitArgs(args)
	if err != nil {
		return err
	}

	client, err := odm.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize loan client: %w", err)
	}

	service, err := loan.NewService(cfg, client, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to initialize loan service: %w", err)
	}

	return RunBatch(ctx, service, commands, paths)
}

// RunBatch applies every command to every manifest, commands outermost.
// A failed pair doesn't stop the batch; cancellation does.
func RunBatch(ctx context.Context, service loan.Service, commands []loan.Command, paths []string) (err error) {
	// Ensure statistics are ALWAYS printed, even on panic.
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "Panic recovered: %v", r)

			err = fmt.Errorf("%w: panic: %v", ErrBatchFailed, r)
		}

		service.PrintSummary(ctx)
	}()

	var failed bool

	for _, command := range commands {
		for _, path := range paths {
			if ctx.Err() != nil {
				logger.Warn(ctx, "Interrupted, skipping the remaining commands")

				return ctx.Err()
			}

			if execErr := service.Execute(ctx, command, path); execErr != nil {
				failed = true
			}
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if failed {
		return ErrBatchFailed
	}

	return nil
}
