package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/odm-grabber/internal/logger"
)

const summarySeparator = "═══════════════════════════════════════════════════════════════"

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

func (s *ServiceImpl) markStarted() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	if s.stats.StartTime.IsZero() {
		s.stats.StartTime = time.Now()
	}
}

// recordCommand counts the outcome of one (command, manifest) pair.
func (s *ServiceImpl) recordCommand(command Command, manifestPath string, err error) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.EndTime = time.Now()

	if err == nil {
		s.stats.CommandsSucceeded++

		return
	}

	s.stats.CommandsFailed++

	// Interrupted commands are reported by the summary header, not as errors.
	if errors.Is(err, context.Canceled) {
		return
	}

	s.stats.Errors = append(s.stats.Errors, CommandError{
		Command:      command,
		ManifestPath: manifestPath,
		Message:      err.Error(),
	})
}

func (s *ServiceImpl) incrementLicense(reused bool) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	if reused {
		s.stats.LicensesReused++
	} else {
		s.stats.LicensesAcquired++
	}
}

func (s *ServiceImpl) incrementPartDownloaded(bytes int64) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.PartsDownloaded++
	s.stats.BytesDownloaded += bytes
}

func (s *ServiceImpl) incrementPartSkipped() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.PartsSkipped++
}

func (s *ServiceImpl) incrementPartFailed() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.PartsFailed++
}

func (s *ServiceImpl) incrementImageDownloaded(bytes int64) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.ImagesDownloaded++
	s.stats.BytesDownloaded += bytes
}

func (s *ServiceImpl) incrementImageSkipped() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.ImagesSkipped++
}

func (s *ServiceImpl) incrementLoanReturned() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.LoansReturned++
}

// Statistics returns a copy of the session counters.
func (s *ServiceImpl) Statistics() SessionStatistics {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	stats := *s.stats
	stats.Errors = append([]CommandError(nil), s.stats.Errors...)

	return stats
}

// PrintSummary prints a formatted summary of the session to the log.
func (s *ServiceImpl) PrintSummary(ctx context.Context) {
	stats := s.Statistics()

	// If nothing was processed, don't print summary.
	if stats.CommandsSucceeded+stats.CommandsFailed == 0 {
		return
	}

	wasInterrupted := ctx.Err() != nil

	logger.Info(ctx, "")
	logger.Info(ctx, summarySeparator)

	if wasInterrupted {
		logger.Info(ctx, "             SESSION SUMMARY (Interrupted)")
	} else {
		logger.Info(ctx, "                    SESSION SUMMARY")
	}

	logger.Info(ctx, summarySeparator)
	logger.Infof(ctx, "Commands:         %d succeeded, %d failed", stats.CommandsSucceeded, stats.CommandsFailed)

	s.printLicenseStatistics(ctx, &stats)
	s.printPartStatistics(ctx, &stats)
	s.printImageStatistics(ctx, &stats)

	if stats.LoansReturned > 0 {
		logger.Infof(ctx, "Loans Returned:   %d", stats.LoansReturned)
	}

	s.printDataTransferStatistics(ctx, &stats)

	logger.Info(ctx, summarySeparator)

	s.printErrorDetails(ctx, &stats)
}

func (s *ServiceImpl) printLicenseStatistics(ctx context.Context, stats *SessionStatistics) {
	if stats.LicensesAcquired+stats.LicensesReused == 0 {
		return
	}

	logger.Infof(ctx, "Licenses:         %d acquired, %d reused", stats.LicensesAcquired, stats.LicensesReused)
}

func (s *ServiceImpl) printPartStatistics(ctx context.Context, stats *SessionStatistics) {
	total := stats.PartsDownloaded + stats.PartsSkipped + stats.PartsFailed
	if total == 0 {
		return
	}

	logger.Infof(ctx, "Parts:            %d total processed", total)

	if stats.PartsDownloaded > 0 {
		logger.Infof(ctx, "  Downloaded:     %d", stats.PartsDownloaded)
	}

	if stats.PartsSkipped > 0 {
		logger.Infof(ctx, "  Skipped:        %d", stats.PartsSkipped)
	}

	if stats.PartsFailed > 0 {
		logger.Infof(ctx, "  Failed:         %d", stats.PartsFailed)
	}
}

func (s *ServiceImpl) printImageStatistics(ctx context.Context, stats *SessionStatistics) {
	total := stats.ImagesDownloaded + stats.ImagesSkipped
	if total == 0 {
		return
	}

	logger.Infof(ctx, "Cover Art:        %d downloaded, %d skipped", stats.ImagesDownloaded, stats.ImagesSkipped)
}

func (s *ServiceImpl) printDataTransferStatistics(ctx context.Context, stats *SessionStatistics) {
	if stats.BytesDownloaded > 0 {
		//nolint:gosec // BytesDownloaded is always positive, no overflow risk.
		logger.Infof(ctx, "Data Downloaded:  %s", humanize.Bytes(uint64(stats.BytesDownloaded)))
	}

	if stats.StartTime.IsZero() || stats.EndTime.IsZero() {
		return
	}

	duration := stats.EndTime.Sub(stats.StartTime)

	// Only show if duration is meaningful (> 100ms).
	if duration <= 100*time.Millisecond {
		return
	}

	logger.Infof(ctx, "Duration:         %s", formatDuration(duration))

	if stats.BytesDownloaded > 0 {
		bytesPerSecond := float64(stats.BytesDownloaded) / duration.Seconds()
		logger.Infof(ctx, "Average Speed:    %s/s", humanize.Bytes(uint64(bytesPerSecond)))
	}
}

func (s *ServiceImpl) printErrorDetails(ctx context.Context, stats *SessionStatistics) {
	if len(stats.Errors) == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Errorf(ctx, "ERRORS ENCOUNTERED: %d", len(stats.Errors))

	for i := range stats.Errors {
		logger.Info(ctx, "")
		logger.Errorf(ctx, "  [%d] %s %s", i+1, stats.Errors[i].Command, stats.Errors[i].ManifestPath)
		logger.Errorf(ctx, "      Error: %s", stats.Errors[i].Message)
	}

	logger.Info(ctx, "")
	logger.Info(ctx, summarySeparator)
}
