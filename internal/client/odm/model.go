package odm

import (
	"io"
	"net/http"
)

// AcquireLicenseRequest holds the parameters of a license request.
type AcquireLicenseRequest struct {
	// AcquisitionURL is the license endpoint taken from the manifest.
	AcquisitionURL string
	// MediaID identifies the loaned title.
	MediaID string
	// ClientID is the persisted client identity.
	ClientID string
	// Hash is the base64 authentication digest.
	Hash string
}

// FetchPartRequest describes a download of one remote file.
type FetchPartRequest struct {
	// URL is the address of the file.
	URL string
	// Headers are added to the request as is.
	Headers http.Header
	// Offset is the number of bytes already on disk; a positive offset requests a range.
	Offset int64
}

// FetchPartResult is an open response to a FetchPartRequest.
type FetchPartResult struct {
	// Body is the response body, nil when RangeNotSatisfiable is set. The caller must close it.
	Body io.ReadCloser
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Offset is the position in the file where Body starts.
	// It is 0 when the server ignored the requested range.
	Offset int64
	// TotalBytes is the full size of the file, or -1 if unknown.
	TotalBytes int64
	// RangeNotSatisfiable reports that the requested offset is at or past the end of the file.
	RangeNotSatisfiable bool
}
