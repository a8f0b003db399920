package loan

import (
	"context"
	"errors"

	"github.com/oshokin/odm-grabber/internal/client/odm"
	"github.com/oshokin/odm-grabber/internal/logger"
)

// ReturnLoan calls the early-return URL of the manifest. Any HTTP response ends the operation,
// only requests that got no response at all are retried.
func (s *ServiceImpl) ReturnLoan(ctx context.Context, manifestPath string) error {
	manifest, err := s.reader.ReadManifest(manifestPath)
	if err != nil {
		return err
	}

	if manifest.EarlyReturnURL == "" {
		return newParseError("return loan", manifestPath, missingField("EarlyReturnURL"))
	}

	err = s.returnPolicy.Do(ctx, "Early return", func(ctx context.Context, _ int64) error {
		return s.client.ReturnLoan(ctx, manifest.EarlyReturnURL)
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		return newFetchError("return loan", manifest.EarlyReturnURL, err, 0)
	}

	s.incrementLoanReturned()
	logger.Infof(ctx, "Loan '%s' returned", manifestPath)

	return nil
}

func isRetryableReturnError(err error) bool {
	return !errors.Is(err, odm.ErrUnexpectedHTTPStatus)
}
