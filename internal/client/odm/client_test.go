package odm

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/odm-grabber/internal/config"
)

const testPayload = "0123456789abcdefghijklmnopqrstuvwxyz"

func newTestClient(t *testing.T) Client {
	t.Helper()

	client, err := NewClient(&config.Config{ParsedRequestTimeout: 5 * time.Second})
	require.NoError(t, err)

	return client
}

// TestAcquireLicense tests that all protocol parameters reach the server.
func TestAcquireLicense(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		assert.Equal(t, "/license", r.URL.Path)
		assert.Equal(t, "kept", query.Get("Existing"))
		assert.Equal(t, "{MEDIA-1}", query.Get("MediaID"))
		assert.Equal(t, "CLIENT-1", query.Get("ClientID"))
		assert.Equal(t, OMCVersion, query.Get("OMC"))
		assert.Equal(t, OSVersion, query.Get("OS"))
		assert.Equal(t, "a+b/c=", query.Get("Hash"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte("<License><ClientID>CLIENT-1</ClientID></License>"))
	}))
	defer server.Close()

	license, err := newTestClient(t).AcquireLicense(context.Background(), &AcquireLicenseRequest{
		AcquisitionURL: server.URL + "/license?Existing=kept",
		MediaID:        "{MEDIA-1}",
		ClientID:       "CLIENT-1",
		Hash:           "a+b/c=",
	})

	require.NoError(t, err)
	assert.Equal(t, "<License><ClientID>CLIENT-1</ClientID></License>", string(license))
}

// TestAcquireLicense_UnexpectedStatus tests that a rejected request carries its status.
func TestAcquireLicense_UnexpectedStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "try later", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	license, err := newTestClient(t).AcquireLicense(context.Background(), &AcquireLicenseRequest{
		AcquisitionURL: server.URL,
	})

	require.ErrorIs(t, err, ErrUnexpectedHTTPStatus)
	assert.Nil(t, license)
	assert.Equal(t, http.StatusServiceUnavailable, StatusCodeOf(err))
}

// TestAcquireLicense_InvalidURL tests that a malformed acquisition URL is rejected before any request.
func TestAcquireLicense_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := newTestClient(t).AcquireLicense(context.Background(), &AcquireLicenseRequest{
		AcquisitionURL: "http://[::1",
	})

	require.Error(t, err)
	assert.Zero(t, StatusCodeOf(err))
}

// TestFetchPart tests downloads with and without an offset.
func TestFetchPart(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("License") != "license-body" || r.Header.Get("ClientID") != "CLIENT-1" {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		http.ServeContent(w, r, "part.mp3", time.Time{}, strings.NewReader(testPayload))
	}))
	t.Cleanup(server.Close)

	headers := http.Header{}
	headers.Set("License", "license-body")
	headers.Set("ClientID", "CLIENT-1")

	tests := []struct {
		name           string
		offset         int64
		expectedBody   string
		expectedStatus int
		expectedOffset int64
	}{
		{
			name:           "full download",
			offset:         0,
			expectedBody:   testPayload,
			expectedStatus: http.StatusOK,
			expectedOffset: 0,
		},
		{
			name:           "resumed download",
			offset:         10,
			expectedBody:   testPayload[10:],
			expectedStatus: http.StatusPartialContent,
			expectedOffset: 10,
		},
	}

	client := newTestClient(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := client.FetchPart(context.Background(), &FetchPartRequest{
				URL:     server.URL + "/part.mp3",
				Headers: headers,
				Offset:  tt.offset,
			})
			require.NoError(t, err)

			defer result.Body.Close() //nolint:errcheck // Test cleanup, error is not critical.

			body, err := io.ReadAll(result.Body)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedBody, string(body))
			assert.Equal(t, tt.expectedStatus, result.StatusCode)
			assert.Equal(t, tt.expectedOffset, result.Offset)
			assert.Equal(t, int64(len(testPayload)), result.TotalBytes)
			assert.False(t, result.RangeNotSatisfiable)
		})
	}
}

// TestFetchPart_RangeIgnored tests that a server answering 200 to a range request restarts the file.
func TestFetchPart_RangeIgnored(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bytes=5-", r.Header.Get("Range"))

		_, _ = w.Write([]byte(testPayload))
	}))
	defer server.Close()

	result, err := newTestClient(t).FetchPart(context.Background(), &FetchPartRequest{
		URL:    server.URL,
		Offset: 5,
	})
	require.NoError(t, err)

	defer result.Body.Close() //nolint:errcheck // Test cleanup, error is not critical.

	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Zero(t, result.Offset)
}

// TestFetchPart_RangeNotSatisfiable tests that an offset at the end of the file is reported as complete.
func TestFetchPart_RangeNotSatisfiable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "part.mp3", time.Time{}, strings.NewReader(testPayload))
	}))
	defer server.Close()

	result, err := newTestClient(t).FetchPart(context.Background(), &FetchPartRequest{
		URL:    server.URL,
		Offset: int64(len(testPayload)),
	})
	require.NoError(t, err)

	assert.True(t, result.RangeNotSatisfiable)
	assert.Nil(t, result.Body)
	assert.Equal(t, int64(len(testPayload)), result.TotalBytes)
}

// TestFetchPart_WrongContentRange tests that a partial response starting elsewhere is rejected.
func TestFetchPart_WrongContentRange(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Range", "bytes 0-35/36")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte(testPayload))
	}))
	defer server.Close()

	result, err := newTestClient(t).FetchPart(context.Background(), &FetchPartRequest{
		URL:    server.URL,
		Offset: 10,
	})

	require.ErrorIs(t, err, ErrUnexpectedContentRange)
	assert.Nil(t, result)
}

// TestFetchPart_UnexpectedStatus tests that error statuses are returned as StatusError.
func TestFetchPart_UnexpectedStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer server.Close()

	result, err := newTestClient(t).FetchPart(context.Background(), &FetchPartRequest{URL: server.URL})

	require.ErrorIs(t, err, ErrUnexpectedHTTPStatus)
	assert.Nil(t, result)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

// TestFetchPart_Gzip tests that a fresh download accepts and decodes gzip.
func TestFetchPart_Gzip(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "gzip")

		w.Header().Set("Content-Encoding", "gzip")

		writer := gzip.NewWriter(w)
		_, _ = writer.Write([]byte(testPayload))
		_ = writer.Close()
	}))
	defer server.Close()

	result, err := newTestClient(t).FetchPart(context.Background(), &FetchPartRequest{URL: server.URL})
	require.NoError(t, err)

	defer result.Body.Close() //nolint:errcheck // Test cleanup, error is not critical.

	body, err := io.ReadAll(result.Body)
	require.NoError(t, err)

	assert.Equal(t, testPayload, string(body))
	assert.Equal(t, int64(-1), result.TotalBytes)
}

// TestReturnLoan tests that the early return issues exactly one GET whatever the status.
func TestReturnLoan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		expectError bool
	}{
		{
			name:   "accepted",
			status: http.StatusOK,
		},
		{
			name:        "rejected",
			status:      http.StatusInternalServerError,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				assert.Equal(t, http.MethodGet, r.Method)

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("<Response>ignored</Response>"))
			}))
			defer server.Close()

			err := newTestClient(t).ReturnLoan(context.Background(), server.URL+"/return")

			if tt.expectError {
				require.ErrorIs(t, err, ErrUnexpectedHTTPStatus)
				assert.Equal(t, tt.status, StatusCodeOf(err))
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

// TestParseContentRange tests the parseContentRange function.
func TestParseContentRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		value         string
		expectedStart int64
		expectedTotal int64
		expectError   bool
	}{
		{
			name:          "full range",
			value:         "bytes 100-199/200",
			expectedStart: 100,
			expectedTotal: 200,
		},
		{
			name:          "unknown total",
			value:         "bytes 5-9/*",
			expectedStart: 5,
			expectedTotal: -1,
		},
		{
			name:          "unsatisfied range",
			value:         "bytes */1234",
			expectedStart: -1,
			expectedTotal: 1234,
		},
		{
			name:        "empty",
			value:       "",
			expectError: true,
		},
		{
			name:        "wrong unit",
			value:       "items 0-1/2",
			expectError: true,
		},
		{
			name:        "garbage total",
			value:       "bytes 0-1/abc",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			start, total, err := parseContentRange(tt.value)
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnexpectedContentRange))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedStart, start)
			assert.Equal(t, tt.expectedTotal, total)
		})
	}
}
