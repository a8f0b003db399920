package loan

//go:generate $MOCKGEN -source=service.go -destination=mocks/service_mock.go

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/oshokin/odm-grabber/internal/client/odm"
	"github.com/oshokin/odm-grabber/internal/config"
	"github.com/oshokin/odm-grabber/internal/logger"
)

// Service applies batch commands to loan manifests.
type Service interface {
	// Download acquires the license and downloads all parts and cover art of a loan.
	Download(ctx context.Context, manifestPath string) error
	// ReturnLoan releases a loan before it expires.
	ReturnLoan(ctx context.Context, manifestPath string) error
	// PrintInfo writes a human-readable description of a loan to the output.
	PrintInfo(ctx context.Context, manifestPath string) error
	// PrintMetadata writes the extracted metadata document of a loan to the output.
	PrintMetadata(ctx context.Context, manifestPath string) error
	// Execute runs one command against one manifest and records its outcome.
	Execute(ctx context.Context, command Command, manifestPath string) error
	// PrintSummary prints a formatted summary of the session.
	PrintSummary(ctx context.Context)
}

// ServiceImpl implements Service.
type ServiceImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// client talks to the loan service.
	client odm.Client
	// reader parses manifests, metadata and licenses.
	reader ManifestReader
	// authenticator acquires and caches licenses.
	authenticator LicenseAuthenticator
	// downloader fetches parts and images.
	downloader PartDownloader
	// returnPolicy retries early returns that got no response.
	returnPolicy *RetryPolicy
	// output receives info and metadata printouts.
	output io.Writer
	// stats tracks statistics for the current session.
	stats *SessionStatistics
	// statsMutex protects concurrent access to statistics.
	statsMutex *sync.Mutex
}

// NewService creates a loan service writing printouts to output.
func NewService(cfg *config.Config, client odm.Client, output io.Writer) (*ServiceImpl, error) {
	reader, err := NewManifestReader()
	if err != nil {
		return nil, err
	}

	identityStore := NewFileIdentityStore(cfg.IdentityPath)

	return &ServiceImpl{
		cfg:           cfg,
		client:        client,
		reader:        reader,
		authenticator: NewLicenseAuthenticator(cfg, client, identityStore, reader),
		downloader:    NewPartDownloader(cfg, client),
		returnPolicy:  newRetryPolicy(cfg, isRetryableReturnError),
		output:        output,
		stats:         new(SessionStatistics),
		statsMutex:    new(sync.Mutex),
	}, nil
}

// Execute runs command against manifestPath. Failures are logged and recorded for the summary.
func (s *ServiceImpl) Execute(ctx context.Context, command Command, manifestPath string) error {
	s.markStarted()

	ctx = logger.WithKV(ctx, "command", string(command), "manifest", manifestPath)

	var err error

	switch command {
	case CommandDownload:
		err = s.Download(ctx, manifestPath)
	case CommandReturn:
		err = s.ReturnLoan(ctx, manifestPath)
	case CommandInfo:
		err = s.PrintInfo(ctx, manifestPath)
	case CommandMetadata:
		err = s.PrintMetadata(ctx, manifestPath)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}

	s.recordCommand(command, manifestPath, err)

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf(ctx, "Command '%s' failed for '%s': %v", command, manifestPath, err)
	}

	return err
}
