package utils

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	// controlCharsPattern matches ASCII control characters except line breaks and tabs,
	// which are collapsed separately.
	//nolint:gochecknoglobals // This is immutable, pre-compiled regex pattern and used as a constant.
	controlCharsPattern = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

	// lineBreaksPattern matches any run of whitespace that contains a line break.
	//nolint:gochecknoglobals // This is immutable, pre-compiled regex pattern and used as a constant.
	lineBreaksPattern = regexp.MustCompile(`[ \t]*[\r\n][\s]*`)

	// textContentTypePatterns is a slice of regular expressions that match content types
	// considered to be text-based. This includes "text/*", "application/json" and XML documents.
	//nolint:gochecknoglobals // These are immutable, pre-compiled regex patterns and used as constants.
	textContentTypePatterns = []*regexp.Regexp{
		regexp.MustCompile("^text/.+"),
		regexp.MustCompile("^application/json$"),
		regexp.MustCompile(`^application/([a-z0-9.\-]+\+)?xml$`),
	}

	// windowsReservedNames is a map of filenames that are reserved on Windows systems.
	// These names are case-insensitive and cannot be used as filenames or folder names.
	//nolint:gochecknoglobals // This is an immutable map used as a constant for validation purposes.
	windowsReservedNames = map[string]struct{}{
		"CON":  {},
		"PRN":  {},
		"AUX":  {},
		"NUL":  {},
		"COM1": {},
		"COM2": {},
		"COM3": {},
		"COM4": {},
		"COM5": {},
		"COM6": {},
		"COM7": {},
		"COM8": {},
		"COM9": {},
		"LPT1": {},
		"LPT2": {},
		"LPT3": {},
		"LPT4": {},
		"LPT5": {},
		"LPT6": {},
		"LPT7": {},
		"LPT8": {},
		"LPT9": {},
	}

	// braceEscaper percent-encodes curly braces used by templated service URLs.
	//nolint:gochecknoglobals // Immutable replacer used as a constant.
	braceEscaper = strings.NewReplacer("{", "%7B", "}", "%7D")
)

// SafeUint64ToInt64 converts a uint64 value to an int64 safely,
// ensuring that the value does not exceed the maximum limit of int64.
func SafeUint64ToInt64(val uint64) int64 {
	if val > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(val)
}

// SanitizePathComponent makes a title usable as a single path component.
// Path separators become "|", runs of whitespace containing line breaks collapse
// to one space, control characters are dropped, and Windows reserved names get
// an underscore prefix. An empty result becomes "_".
func SanitizePathComponent(name string) string {
	result := lineBreaksPattern.ReplaceAllString(name, " ")
	result = controlCharsPattern.ReplaceAllString(result, "")
	result = strings.ReplaceAll(result, "/", "|")
	result = strings.ReplaceAll(result, "\\", "|")
	result = strings.TrimSpace(result)

	baseName := result
	if dotIndex := strings.LastIndex(result, "."); dotIndex != -1 {
		baseName = result[:dotIndex]
	}

	if _, ok := windowsReservedNames[strings.ToUpper(baseName)]; ok {
		result = "_" + result
	}

	// Trailing dots are stripped by Windows and confuse "." and "..".
	result = strings.TrimRight(result, ".")

	if result == "" {
		result = "_"
	}

	return result
}

// TruncateRunes shortens s to at most maxLength runes without splitting a character.
// A non-positive maxLength disables truncation.
func TruncateRunes(s string, maxLength int64) string {
	if maxLength <= 0 || int64(utf8.RuneCountInString(s)) <= maxLength {
		return s
	}

	var (
		builder strings.Builder
		count   int64
	)

	for _, r := range s {
		if count == maxLength {
			break
		}

		builder.WriteRune(r)

		count++
	}

	return strings.TrimSpace(builder.String())
}

// EscapeBraces replaces "{" with "%7B" and "}" with "%7D".
func EscapeBraces(s string) string {
	return braceEscaper.Replace(s)
}

// RandomPause pauses for a random duration between minPause and maxPause.
// It returns early with the context error if ctx is cancelled.
func RandomPause(ctx context.Context, minPause, maxPause time.Duration) error {
	// Ensure minPause is always less than or equal to maxPause.
	if minPause > maxPause {
		minPause, maxPause = maxPause, minPause
	}

	randomDelay := minPause
	if maxPause > minPause {
		randomDelay += time.Duration(
			//nolint:gosec // Jitter does not need a cryptographic source.
			rand.Int64N(int64(maxPause - minPause)),
		)
	}

	if randomDelay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(randomDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsFileExist checks if a file exists at the specified path.
// It returns true if the file exists and is not a directory, false if the file does not exist,
// and an error if there was an issue accessing the file.
func IsFileExist(path string) (bool, error) {
	stat, err := os.Stat(path)
	if err == nil {
		return !stat.IsDir(), nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// FileSize returns the size of the file at path, or 0 if it does not exist.
func FileSize(path string) (int64, error) {
	stat, err := os.Stat(path)
	if err == nil {
		return stat.Size(), nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}

	return 0, err
}

// WriteFileAtomic writes data to a uniquely named temporary file next to path
// and renames it over path, so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tempPath := filepath.Join(filepath.Dir(path), "."+uuid.New().String()+".tmp")

	if err := os.WriteFile(tempPath, data, perm); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)

		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// IsTextContentType checks if the given content type represents a text-based format.
// It supports "text/*", "application/json" and XML content types.
// It also checks that the charset, if present, is either "utf-8" or "us-ascii".
func IsTextContentType(contentType string) bool {
	parsedType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	for _, pattern := range textContentTypePatterns {
		if !pattern.MatchString(parsedType) {
			continue
		}

		charset := strings.ToLower(params["charset"])

		return charset == "" || charset == "utf-8" || charset == "us-ascii"
	}

	return false
}
