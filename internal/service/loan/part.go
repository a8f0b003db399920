package loan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/oshokin/odm-grabber/internal/client/odm"
	"github.com/oshokin/odm-grabber/internal/config"
	"github.com/oshokin/odm-grabber/internal/constants"
	"github.com/oshokin/odm-grabber/internal/logger"
	"github.com/oshokin/odm-grabber/internal/utils"
)

// PartDownloader downloads one remote file to one local file with resume and retries.
type PartDownloader interface {
	// Fetch downloads request.URL to request.OutputPath.
	Fetch(ctx context.Context, request *FetchRequest) (*FetchResult, error)
}

// PartDownloaderImpl implements PartDownloader.
type PartDownloaderImpl struct {
	client      odm.Client
	retryPolicy *RetryPolicy
	// speedLimit is the maximum number of bytes per second, 0 for unlimited.
	speedLimit int64
	// showProgress enables progress bars.
	showProgress bool
	// progressOutput receives progress bars, keeping stdout for printouts.
	progressOutput io.Writer
}

const (
	// File options for a download starting from the first byte.
	overwriteFileOptions = os.O_CREATE | os.O_TRUNC | os.O_WRONLY
	// File options for a download continuing a partial file.
	appendFileOptions = os.O_CREATE | os.O_APPEND | os.O_WRONLY
)

const (
	progressBarWidth    = 10
	progressBarThrottle = 65 * time.Millisecond
	progressBarSpinner  = 14
)

// NewPartDownloader creates a PartDownloader. Progress bars are shown only for sequential downloads at info level.
func NewPartDownloader(cfg *config.Config, client odm.Client) *PartDownloaderImpl {
	return &PartDownloaderImpl{
		client:         client,
		retryPolicy:    newRetryPolicy(cfg, isRetryableFetchError),
		speedLimit:     cfg.ParsedDownloadSpeedLimit,
		showProgress:   cfg.MaxConcurrentDownloads <= 1 && logger.Level() <= zap.InfoLevel,
		progressOutput: os.Stderr,
	}
}

// Fetch downloads into "<OutputPath>.part" and renames it on success.
// The partial file is kept when ctx is cancelled and removed when the attempts run out.
func (d *PartDownloaderImpl) Fetch(ctx context.Context, request *FetchRequest) (*FetchResult, error) {
	if !request.Replace {
		exists, err := utils.IsFileExist(request.OutputPath)
		if err != nil {
			return nil, newIOError("check file", request.OutputPath, err)
		}

		if exists {
			logger.Infof(ctx, "File '%s' already exists, skipping download", request.OutputPath)

			return &FetchResult{Skipped: true}, nil
		}
	}

	tempPath := request.OutputPath + constants.ExtensionPartial

	if !request.Resumable {
		if err := removeIfExists(tempPath); err != nil {
			return nil, newIOError("remove partial file", tempPath, err)
		}
	}

	var (
		result     = new(FetchResult)
		lastStatus int
	)

	err := d.retryPolicy.Do(ctx, "Download of "+request.URL, func(ctx context.Context, _ int64) error {
		written, status, attemptErr := d.fetchAttempt(ctx, request, tempPath)
		result.BytesDownloaded += written

		if status != 0 {
			lastStatus = status
		}

		return attemptErr
	})

	switch {
	case err == nil:
	case ctx.Err() != nil:
		logger.Infof(ctx, "Download of '%s' interrupted, partial file kept", request.OutputPath)

		return nil, ctx.Err()
	default:
		if removeErr := removeIfExists(tempPath); removeErr != nil {
			logger.Warnf(ctx, "Failed to clean up partial file '%s': %v", tempPath, removeErr)
		}

		if errors.Is(err, ErrIO) {
			return nil, err
		}

		return nil, newFetchError("download", request.URL, err, lastStatus)
	}

	if err = os.Rename(tempPath, request.OutputPath); err != nil {
		return nil, newIOError("rename partial file", tempPath, err)
	}

	return result, nil
}

// fetchAttempt performs one request. A resumable request continues the partial file if there is one,
// any other request starts from the first byte.
// It returns the bytes written and the HTTP status received.
func (d *PartDownloaderImpl) fetchAttempt(
	ctx context.Context,
	request *FetchRequest,
	tempPath string,
) (int64, int, error) {
	var offset int64

	if request.Resumable {
		size, err := utils.FileSize(tempPath)
		if err != nil {
			return 0, 0, newIOError("stat partial file", tempPath, err)
		}

		offset = size
	}

	fetchResult, err := d.client.FetchPart(ctx, &odm.FetchPartRequest{
		URL:     request.URL,
		Headers: request.Headers,
		Offset:  offset,
	})
	if err != nil {
		return 0, odm.StatusCodeOf(err), err
	}

	if fetchResult.RangeNotSatisfiable {
		if fetchResult.TotalBytes == offset {
			logger.Debugf(ctx, "Partial file '%s' is already complete", tempPath)

			return 0, fetchResult.StatusCode, nil
		}

		// The partial file doesn't match the remote one, start over on the next attempt.
		if removeErr := removeIfExists(tempPath); removeErr != nil {
			return 0, fetchResult.StatusCode, newIOError("remove partial file", tempPath, removeErr)
		}

		return 0, fetchResult.StatusCode, fmt.Errorf("%w: partial file has %d bytes, remote file has %d bytes",
			ErrIncompleteDownload, offset, fetchResult.TotalBytes)
	}

	defer fetchResult.Body.Close() //nolint:errcheck // Error on close is not critical here.

	fileOptions := appendFileOptions
	if fetchResult.Offset == 0 {
		fileOptions = overwriteFileOptions

		if offset > 0 {
			logger.Debugf(ctx, "Server ignored the range request, restarting '%s'", tempPath)
		}
	}

	file, err := os.OpenFile(filepath.Clean(tempPath), fileOptions, constants.DefaultFilePermissions)
	if err != nil {
		return 0, fetchResult.StatusCode, newIOError("open partial file", tempPath, err)
	}

	defer file.Close() //nolint:errcheck // Errors of written data are reported by Write and Sync.

	var writer io.Writer = &fileWriter{file: file}

	if d.showProgress {
		totalBytes := int64(-1)
		if fetchResult.TotalBytes >= 0 {
			totalBytes = fetchResult.TotalBytes
		}

		bar := newProgressBar(d.progressOutput, totalBytes, request.Description)
		if fetchResult.Offset > 0 {
			_ = bar.Set64(fetchResult.Offset)
		}

		writer = io.MultiWriter(writer, bar)
	}

	written, err := d.copyBody(ctx, writer, fetchResult.Body)
	if err != nil {
		return written, fetchResult.StatusCode, err
	}

	if err = file.Sync(); err != nil {
		return written, fetchResult.StatusCode, newIOError("sync partial file", tempPath, err)
	}

	// Verify that we downloaded the expected number of bytes.
	if fetchResult.TotalBytes >= 0 && fetchResult.Offset+written != fetchResult.TotalBytes {
		return written, fetchResult.StatusCode, fmt.Errorf(
			"%w: have %d bytes, expected %d bytes",
			ErrIncompleteDownload,
			fetchResult.Offset+written,
			fetchResult.TotalBytes,
		)
	}

	return written, fetchResult.StatusCode, nil
}

// newProgressBar mirrors progressbar.DefaultBytes with an explicit output.
func newProgressBar(output io.Writer, totalBytes int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		totalBytes,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(output),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowTotalBytes(true),
		progressbar.OptionSetWidth(progressBarWidth),
		progressbar.OptionThrottle(progressBarThrottle),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprint(output, "\n")
		}),
		progressbar.OptionSpinnerType(progressBarSpinner),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// copyBody copies body to writer, throttled to the speed limit if one is set.
func (d *PartDownloaderImpl) copyBody(ctx context.Context, writer io.Writer, body io.Reader) (int64, error) {
	if d.speedLimit <= 0 {
		return io.Copy(writer, body)
	}

	var bytesWritten int64

	for {
		n, err := io.CopyN(writer, body, d.speedLimit)
		bytesWritten += n

		if errors.Is(err, io.EOF) {
			return bytesWritten, nil
		}

		if err != nil {
			return bytesWritten, err
		}

		// Throttle to respect speed limit.
		timer := time.NewTimer(time.Second)

		select {
		case <-ctx.Done():
			timer.Stop()

			return bytesWritten, ctx.Err()
		case <-timer.C:
		}
	}
}

// fileWriter marks write failures as local filesystem errors so they are not retried.
type fileWriter struct {
	file *os.File
}

func (w *fileWriter) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	if err != nil {
		return n, newIOError("write", w.file.Name(), err)
	}

	return n, nil
}

// isRetryableFetchError reports whether a download attempt may be repeated.
// Every network and HTTP failure is, local filesystem failures are not.
func isRetryableFetchError(err error) bool {
	return !errors.Is(err, ErrIO)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}
