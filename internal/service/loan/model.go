package loan

import (
	"net/http"
	"strings"
	"time"
)

// Command is a batch operation applied to a loan manifest.
type Command string

// Supported commands.
const (
	CommandDownload Command = "download"
	CommandReturn   Command = "return"
	CommandInfo     Command = "info"
	CommandMetadata Command = "metadata"
)

// ParseCommand returns the command named by value.
func ParseCommand(value string) (Command, bool) {
	switch command := Command(strings.ToLower(strings.TrimSpace(value))); command {
	case CommandDownload, CommandReturn, CommandInfo, CommandMetadata:
		return command, true
	default:
		return "", false
	}
}

// Manifest is the parsed loan manifest.
type Manifest struct {
	// Path is the absolute path of the manifest file.
	Path string
	// MediaID identifies the loaned title.
	MediaID string
	// AcquisitionURL is the license endpoint.
	AcquisitionURL string
	// EarlyReturnURL releases the loan.
	EarlyReturnURL string
	// BaseURL is the prefix of every part URL.
	BaseURL string
	// Parts are the media parts in manifest order.
	Parts []*Part
	// RawMetadata is the embedded metadata document, line breaks normalized to "\n".
	RawMetadata string
}

// LicensePath returns the location of the memoized license.
func (m *Manifest) LicensePath() string {
	return licensePath(m.Path)
}

// MetadataPath returns the location of the memoized metadata document.
func (m *Manifest) MetadataPath() string {
	return metadataPath(m.Path)
}

// Part is one media file of a loan.
type Part struct {
	// Number is the 1-based position of the part.
	Number int
	// Filename is the remote file name with curly braces escaped.
	Filename string
	// Name is the display name, may be empty.
	Name string
	// FileSize is the announced size in bytes, 0 if unknown.
	FileSize int64
	// Duration is the announced length as MM:SS or HH:MM:SS.
	Duration string
}

// Suffix returns the part of the filename after the last hyphen, e.g. "Part01.mp3".
func (p *Part) Suffix() string {
	return p.Filename[strings.LastIndex(p.Filename, "-")+1:]
}

// Metadata describes the loaned title.
type Metadata struct {
	// Title is required.
	Title string
	// Subtitle is nil when the title has none.
	Subtitle *string
	// Authors holds up to maxAuthors distinct names of creators whose role starts with "Author".
	Authors []string
	// Publisher may be empty.
	Publisher string
	// Description may be empty.
	Description string
	// CoverURL is nil when no cover is available.
	CoverURL *string
	// ThumbnailURL is nil when no thumbnail is available.
	ThumbnailURL *string
}

// AuthorList joins the authors with ", ".
func (m *Metadata) AuthorList() string {
	return strings.Join(m.Authors, authorSeparator)
}

// License is a license issued for one loan.
type License struct {
	// Raw is the license document exactly as the server returned it.
	Raw []byte
	// ClientID is the client identity the license is bound to.
	ClientID string
}

// HeaderValue returns the license as a single-line header value.
func (l *License) HeaderValue() string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(string(l.Raw))
}

// FetchRequest describes a download of one remote file to one local file.
type FetchRequest struct {
	// URL is the remote address.
	URL string
	// OutputPath is the final local path.
	OutputPath string
	// Headers are sent with every attempt.
	Headers http.Header
	// Resumable allows continuing from an existing partial file. Without it every attempt starts from the first byte.
	Resumable bool
	// Replace downloads the file even if OutputPath already exists.
	Replace bool
	// Description labels the progress bar.
	Description string
}

// FetchResult reports the outcome of a successful FetchRequest.
type FetchResult struct {
	// Skipped is true when OutputPath already existed.
	Skipped bool
	// BytesDownloaded counts bytes received over all attempts.
	BytesDownloaded int64
}

// SessionStatistics holds the counters of one batch run.
type SessionStatistics struct {
	// StartTime is when the first command began.
	StartTime time.Time
	// EndTime is when the last command finished.
	EndTime time.Time
	// CommandsSucceeded counts (command, manifest) pairs that succeeded.
	CommandsSucceeded int64
	// CommandsFailed counts (command, manifest) pairs that failed.
	CommandsFailed int64
	// LicensesAcquired counts licenses fetched from the server.
	LicensesAcquired int64
	// LicensesReused counts licenses read from the cache.
	LicensesReused int64
	// PartsDownloaded counts parts written in this session.
	PartsDownloaded int64
	// PartsSkipped counts parts that were already present or had no filename.
	PartsSkipped int64
	// PartsFailed counts parts whose download failed.
	PartsFailed int64
	// ImagesDownloaded counts cover and thumbnail images written.
	ImagesDownloaded int64
	// ImagesSkipped counts images that already existed or were not offered.
	ImagesSkipped int64
	// LoansReturned counts successful early returns.
	LoansReturned int64
	// BytesDownloaded is the total size of received content.
	BytesDownloaded int64
	// Errors lists failed (command, manifest) pairs.
	Errors []CommandError
}

// CommandError records a failed (command, manifest) pair.
type CommandError struct {
	// Command is the failed command.
	Command Command
	// ManifestPath is the manifest it was applied to.
	ManifestPath string
	// Message is the error text.
	Message string
}
