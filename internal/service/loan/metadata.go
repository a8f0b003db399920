package loan

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/oshokin/odm-grabber/internal/utils"
)

const (
	// authorSeparator joins author names in directory names and info output.
	authorSeparator = ", "
	// maxAuthors limits the number of authors kept from the metadata.
	maxAuthors = 3
	// authorRolePrefix selects creators counted as authors, e.g. "Author and narrator".
	authorRolePrefix = "Author"
)

// ErrInvalidDuration indicates a part duration that is not MM:SS, HH:MM:SS or plain seconds.
var ErrInvalidDuration = errors.New("invalid duration")

type metadataDocument struct {
	Title        string            `xml:"Title"`
	SubTitle     string            `xml:"SubTitle"`
	Publisher    string            `xml:"Publisher"`
	Description  string            `xml:"Description"`
	CoverURL     string            `xml:"CoverUrl"`
	ThumbnailURL string            `xml:"ThumbnailUrl"`
	Creators     []creatorDocument `xml:"Creators>Creator"`
}

type creatorDocument struct {
	Role string `xml:"role,attr"`
	Name string `xml:",chardata"`
}

func parseMetadata(raw []byte) (*Metadata, error) {
	var document metadataDocument
	if err := newXMLDecoder(bytes.NewReader(raw)).Decode(&document); err != nil {
		return nil, err
	}

	title := collapseWhitespace(document.Title)
	if title == "" {
		return nil, missingField("Title")
	}

	metadata := &Metadata{
		Title:        title,
		Subtitle:     optionalString(collapseWhitespace(document.SubTitle)),
		Authors:      authorNames(document.Creators),
		Publisher:    strings.TrimSpace(document.Publisher),
		Description:  strings.TrimSpace(document.Description),
		CoverURL:     optionalString(utils.EscapeBraces(strings.TrimSpace(document.CoverURL))),
		ThumbnailURL: optionalString(utils.EscapeBraces(strings.TrimSpace(document.ThumbnailURL))),
	}

	return metadata, nil
}

// authorNames keeps the distinct, non-blank names of creators whose role starts with "Author".
func authorNames(creators []creatorDocument) []string {
	authors := make([]string, 0, maxAuthors)

	for _, creator := range creators {
		if !strings.HasPrefix(strings.TrimSpace(creator.Role), authorRolePrefix) {
			continue
		}

		name := collapseWhitespace(creator.Name)
		if name == "" || slices.Contains(authors, name) {
			continue
		}

		authors = append(authors, name)
		if len(authors) == maxAuthors {
			break
		}
	}

	return authors
}

// DirectoryName composes "Title - Subtitle [Authors]" and makes it safe to use as a single path component.
// A positive maxLength truncates the result to that many runes.
func DirectoryName(metadata *Metadata, maxLength int64) string {
	var b strings.Builder

	b.WriteString(metadata.Title)

	if metadata.Subtitle != nil {
		b.WriteString(" - ")
		b.WriteString(*metadata.Subtitle)
	}

	if len(metadata.Authors) > 0 {
		b.WriteString(" [")
		b.WriteString(metadata.AuthorList())
		b.WriteString("]")
	}

	return utils.TruncateRunes(utils.SanitizePathComponent(b.String()), maxLength)
}

// PartFilename returns the local name of a part, e.g. "Title-Part01.mp3".
func PartFilename(metadata *Metadata, part *Part) string {
	return utils.SanitizePathComponent(metadata.Title + "-" + part.Suffix())
}

// ParseDuration converts "SS", "MM:SS" or "HH:MM:SS" to seconds.
func ParseDuration(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidDuration)
	}

	fields := strings.Split(value, ":")
	if len(fields) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
	}

	var seconds int64

	for _, field := range fields {
		number, err := strconv.ParseInt(field, 10, 64)
		if err != nil || number < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
		}

		seconds = seconds*60 + number
	}

	return seconds, nil
}

// TotalDuration sums the durations of parts. Parts with an invalid duration are reported in the error
// but still leave the sum of the others intact.
func TotalDuration(parts []*Part) (int64, error) {
	var (
		total int64
		errs  []error
	)

	for _, part := range parts {
		seconds, err := ParseDuration(part.Duration)
		if err != nil {
			errs = append(errs, fmt.Errorf("part %d: %w", part.Number, err))

			continue
		}

		total += seconds
	}

	return total, errors.Join(errs...)
}

// formatSeconds formats seconds as h:mm:ss.
func formatSeconds(seconds int64) string {
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
