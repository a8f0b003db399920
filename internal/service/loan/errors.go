package loan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oshokin/odm-grabber/internal/client/odm"
)

// Error kinds, matched with errors.Is.
var (
	// ErrIO indicates a local filesystem failure.
	ErrIO = errors.New("filesystem error")
	// ErrParse indicates a malformed document or a missing required field.
	ErrParse = errors.New("parse error")
	// ErrAcquisition indicates that the license server rejected the request or could not be reached.
	ErrAcquisition = errors.New("license acquisition failed")
	// ErrFetch indicates that a part, image or early-return request failed.
	ErrFetch = errors.New("fetch failed")
)

// Detail errors wrapped by the kinds above.
var (
	// ErrIncompleteDownload indicates that the downloaded file size doesn't match expected size.
	ErrIncompleteDownload = errors.New("incomplete download")
	// ErrMissingField indicates that a required document field is absent or empty.
	ErrMissingField = errors.New("missing required field")
	// ErrUnknownCommand indicates an unsupported batch command.
	ErrUnknownCommand = errors.New("unknown command")
)

// Error describes a failed loan operation.
type Error struct {
	// Kind is one of ErrIO, ErrParse, ErrAcquisition or ErrFetch.
	Kind error
	// Op names the failed operation.
	Op string
	// Path is the file or URL the operation worked on.
	Path string
	// StatusCode is the last HTTP status received, 0 if none.
	StatusCode int
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(e.Op)

	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}

	b.WriteString(": ")
	b.WriteString(e.Kind.Error())

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	if e.StatusCode != 0 && odm.StatusCodeOf(e.Err) == 0 {
		fmt.Fprintf(&b, " (last HTTP status %d)", e.StatusCode)
	}

	return b.String()
}

// Unwrap exposes both the kind and the underlying error to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newError(kind error, op, path string, err error) *Error {
	return &Error{
		Kind:       kind,
		Op:         op,
		Path:       path,
		StatusCode: odm.StatusCodeOf(err),
		Err:        err,
	}
}

func newIOError(op, path string, err error) error {
	return newError(ErrIO, op, path, err)
}

func newParseError(op, path string, err error) error {
	return newError(ErrParse, op, path, err)
}

func newAcquisitionError(op, path string, err error, statusCode int) error {
	result := newError(ErrAcquisition, op, path, err)
	if result.StatusCode == 0 {
		result.StatusCode = statusCode
	}

	return result
}

func newFetchError(op, path string, err error, statusCode int) error {
	result := newError(ErrFetch, op, path, err)
	if result.StatusCode == 0 {
		result.StatusCode = statusCode
	}

	return result
}

func missingField(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, name)
}
