package loan

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/odm-grabber/internal/constants"
	"github.com/oshokin/odm-grabber/internal/logger"
)

// Headers sent with every part request.
const (
	headerLicense  = "License"
	headerClientID = "ClientID"
)

// partJob is one part download of a loan.
type partJob struct {
	part    *Part
	request *FetchRequest
}

// Download acquires the license, then fetches every part and the cover art into the loan directory.
// The first failure aborts the loan; parts already downloaded stay in place.
func (s *ServiceImpl) Download(ctx context.Context, manifestPath string) error {
	license, reused, err := s.authenticator.AcquireLicense(ctx, manifestPath)
	if err != nil {
		return err
	}

	s.incrementLicense(reused)

	if reused {
		logger.Debugf(ctx, "Using cached license for '%s'", manifestPath)
	}

	metadata, _, err := s.reader.ExtractMetadata(manifestPath)
	if err != nil {
		return err
	}

	manifest, err := s.reader.ReadManifest(manifestPath)
	if err != nil {
		return err
	}

	if manifest.BaseURL == "" {
		return newParseError("download", manifestPath, missingField("Protocol baseurl"))
	}

	logMissingOptionalFields(ctx, metadata)

	targetPath := filepath.Join(s.cfg.OutputPath, DirectoryName(metadata, s.cfg.MaxFolderNameLength))
	if err = os.MkdirAll(targetPath, constants.DefaultFolderPermissions); err != nil {
		return newIOError("create directory", targetPath, err)
	}

	logger.Infof(ctx, "Downloading '%s' to '%s'", metadata.Title, targetPath)

	jobs := s.partJobs(ctx, manifest, metadata, license, targetPath)
	if err = s.downloadParts(ctx, jobs); err != nil {
		return err
	}

	if err = s.downloadImage(ctx, metadata.CoverURL, filepath.Join(targetPath, constants.CoverFilename)); err != nil {
		return err
	}

	thumbnailPath := filepath.Join(targetPath, constants.ThumbnailFilename)
	if err = s.downloadImage(ctx, metadata.ThumbnailURL, thumbnailPath); err != nil {
		return err
	}

	logger.Infof(ctx, "Download of '%s' completed", metadata.Title)

	return nil
}

// partJobs builds the part requests in manifest order. Parts without a filename are skipped.
func (s *ServiceImpl) partJobs(
	ctx context.Context,
	manifest *Manifest,
	metadata *Metadata,
	license *License,
	targetPath string,
) []*partJob {
	headers := http.Header{}
	headers.Set(headerLicense, license.HeaderValue())
	headers.Set(headerClientID, license.ClientID)

	baseURL := strings.TrimRight(manifest.BaseURL, "/")
	jobs := make([]*partJob, 0, len(manifest.Parts))

	for _, part := range manifest.Parts {
		if part.Filename == "" {
			logger.Warnf(ctx, "Part %d has no filename, skipping", part.Number)
			s.incrementPartSkipped()

			continue
		}

		jobs = append(jobs, &partJob{
			part: part,
			request: &FetchRequest{
				URL:         baseURL + "/" + part.Filename,
				OutputPath:  filepath.Join(targetPath, PartFilename(metadata, part)),
				Headers:     headers,
				Resumable:   true,
				Replace:     s.cfg.ReplaceParts,
				Description: fmt.Sprintf("Part %d/%d", part.Number, len(manifest.Parts)),
			},
		})
	}

	return jobs
}

func (s *ServiceImpl) downloadParts(ctx context.Context, jobs []*partJob) error {
	// Sequential download keeps the manifest order on disk and in the log.
	if s.cfg.MaxConcurrentDownloads <= 1 {
		for _, job := range jobs {
			if err := s.downloadPart(ctx, job); err != nil {
				return err
			}
		}

		return nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(int(s.cfg.MaxConcurrentDownloads))

	for _, job := range jobs {
		group.Go(func() error {
			return s.downloadPart(groupCtx, job)
		})
	}

	return group.Wait()
}

func (s *ServiceImpl) downloadPart(ctx context.Context, job *partJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx = logger.WithKV(ctx, "part", job.part.Number)

	result, err := s.downloader.Fetch(ctx, job.request)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.incrementPartFailed()
		}

		return fmt.Errorf("part %d: %w", job.part.Number, err)
	}

	if result.Skipped {
		s.incrementPartSkipped()

		return nil
	}

	s.incrementPartDownloaded(result.BytesDownloaded)
	logger.Infof(ctx, "Part %d saved to '%s'", job.part.Number, job.request.OutputPath)

	return nil
}

// downloadImage fetches a cover image with the generic headers only. A nil URL is skipped.
func (s *ServiceImpl) downloadImage(ctx context.Context, imageURL *string, outputPath string) error {
	if imageURL == nil {
		logger.Infof(ctx, "No image available for '%s', skipping", filepath.Base(outputPath))
		s.incrementImageSkipped()

		return nil
	}

	result, err := s.downloader.Fetch(ctx, &FetchRequest{
		URL:         *imageURL,
		OutputPath:  outputPath,
		Resumable:   false,
		Replace:     s.cfg.ReplaceCovers,
		Description: filepath.Base(outputPath),
	})
	if err != nil {
		return err
	}

	if result.Skipped {
		s.incrementImageSkipped()

		return nil
	}

	s.incrementImageDownloaded(result.BytesDownloaded)

	return nil
}

func logMissingOptionalFields(ctx context.Context, metadata *Metadata) {
	if metadata.Subtitle == nil {
		logger.Debug(ctx, "Metadata has no subtitle")
	}

	if len(metadata.Authors) == 0 {
		logger.Debug(ctx, "Metadata has no authors")
	}

	if metadata.CoverURL == nil {
		logger.Debug(ctx, "Metadata has no cover URL")
	}

	if metadata.ThumbnailURL == nil {
		logger.Debug(ctx, "Metadata has no thumbnail URL")
	}
}
