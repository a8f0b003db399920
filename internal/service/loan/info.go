package loan

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/oshokin/odm-grabber/internal/logger"
)

// PrintInfo writes the title, authors, parts and total duration of a loan to the output.
func (s *ServiceImpl) PrintInfo(ctx context.Context, manifestPath string) error {
	manifest, err := s.reader.ReadManifest(manifestPath)
	if err != nil {
		return err
	}

	metadata, _, err := s.reader.ExtractMetadata(manifestPath)
	if err != nil {
		return err
	}

	total, err := TotalDuration(manifest.Parts)
	if err != nil {
		logger.Warnf(ctx, "Some part durations could not be parsed: %v", err)
	}

	writer := tabwriter.NewWriter(s.output, 0, 0, 2, ' ', 0)

	fmt.Fprintf(writer, "Title:\t%s\n", metadata.Title)

	if metadata.Subtitle != nil {
		fmt.Fprintf(writer, "Subtitle:\t%s\n", *metadata.Subtitle)
	}

	if len(metadata.Authors) > 0 {
		fmt.Fprintf(writer, "Authors:\t%s\n", metadata.AuthorList())
	}

	if metadata.Publisher != "" {
		fmt.Fprintf(writer, "Publisher:\t%s\n", metadata.Publisher)
	}

	fmt.Fprintf(writer, "Media ID:\t%s\n", manifest.MediaID)
	fmt.Fprintf(writer, "Parts:\t%d\n", len(manifest.Parts))

	for _, part := range manifest.Parts {
		name := part.Name
		if name == "" {
			name = strings.TrimSuffix(part.Suffix(), ".mp3")
		}

		fmt.Fprintf(writer, "  %02d\t%s\t%s\t%s\n", part.Number, name, part.Filename, part.Duration)
	}

	fmt.Fprintf(writer, "Total duration:\t%d s (%s)\n", total, formatSeconds(total))

	if err = writer.Flush(); err != nil {
		return newIOError("print info", manifestPath, err)
	}

	return nil
}

// PrintMetadata writes the memoized metadata document, extracting it first if needed.
func (s *ServiceImpl) PrintMetadata(_ context.Context, manifestPath string) error {
	_, document, err := s.reader.ExtractMetadata(manifestPath)
	if err != nil {
		return err
	}

	if _, err = s.output.Write(document); err != nil {
		return newIOError("print metadata", manifestPath, err)
	}

	return nil
}
