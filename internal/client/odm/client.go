package odm

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/odm-grabber/internal/config"
	"github.com/oshokin/odm-grabber/internal/logger"
	http_transport "github.com/oshokin/odm-grabber/internal/transport/http"
	"github.com/oshokin/odm-grabber/internal/utils"
)

// Client defines the interface for talking to the loan service.
type Client interface {
	// AcquireLicense requests a license and returns the raw response body.
	AcquireLicense(ctx context.Context, request *AcquireLicenseRequest) ([]byte, error)
	// FetchPart opens a download of one file, resuming at request.Offset when it is positive.
	FetchPart(ctx context.Context, request *FetchPartRequest) (*FetchPartResult, error)
	// ReturnLoan calls the early-return URL once and discards the response body.
	ReturnLoan(ctx context.Context, earlyReturnURL string) error
}

// ClientImpl implements the Client interface over net/http.
type ClientImpl struct {
	// httpClient is used for every request; it has no overall timeout so long parts can finish.
	httpClient *http.Client
	// requestTimeout bounds license and early-return requests.
	requestTimeout time.Duration
}

const (
	dialTimeout         = 30 * time.Second
	keepAlive           = 30 * time.Second
	tlsHandshakeTimeout = 15 * time.Second
	idleConnTimeout     = 90 * time.Second
)

// NewClient creates a client whose transport injects the OverDrive User-Agent
// and dumps traffic at debug level.
func NewClient(cfg *config.Config) (Client, error) {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("unexpected default transport type %T", http.DefaultTransport)
	}

	transport := baseTransport.Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: keepAlive,
	}).DialContext
	transport.TLSHandshakeTimeout = tlsHandshakeTimeout
	transport.ResponseHeaderTimeout = http_transport.DefaultTimeout
	transport.IdleConnTimeout = idleConnTimeout

	httpClient := &http.Client{
		Transport: http_transport.NewUserAgentInjector(
			http_transport.NewLogTransport(transport, 0),
			utils.NewStaticUserAgentProvider(cfg.UserAgent, DefaultUserAgent)),
	}

	return NewClientWithHTTPClient(httpClient, cfg.ParsedRequestTimeout), nil
}

// NewClientWithHTTPClient creates a client over an existing HTTP client.
// A non-positive requestTimeout falls back to the transport default.
func NewClientWithHTTPClient(httpClient *http.Client, requestTimeout time.Duration) *ClientImpl {
	if requestTimeout <= 0 {
		requestTimeout = http_transport.DefaultTimeout
	}

	return &ClientImpl{
		httpClient:     httpClient,
		requestTimeout: requestTimeout,
	}
}

// AcquireLicense sends the authentication parameters to the acquisition URL.
// Parameters already present on the URL are kept.
func (c *ClientImpl) AcquireLicense(ctx context.Context, request *AcquireLicenseRequest) ([]byte, error) {
	acquisitionURL, err := url.Parse(request.AcquisitionURL)
	if err != nil {
		return nil, fmt.Errorf("invalid acquisition URL: %w", err)
	}

	query := acquisitionURL.Query()
	query.Set(queryMediaID, request.MediaID)
	query.Set(queryClientID, request.ClientID)
	query.Set(queryOMC, OMCVersion)
	query.Set(queryOS, OSVersion)
	query.Set(queryHash, request.Hash)
	acquisitionURL.RawQuery = query.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, acquisitionURL.String(), http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close() //nolint:errcheck // Error on close is not critical here.

	if !isSuccessful(response.StatusCode) {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxLicenseSize))

		return nil, &StatusError{StatusCode: response.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxLicenseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read license: %w", err)
	}

	if len(body) > maxLicenseSize {
		return nil, ErrLicenseTooLarge
	}

	return body, nil
}

// FetchPart opens a download of request.URL.
// A zero offset lets the transport negotiate and decode gzip transparently.
// A positive offset asks for the remaining bytes with an identity encoding, since
// byte ranges of a compressed representation cannot be appended to the decoded prefix.
func (c *ClientImpl) FetchPart(ctx context.Context, request *FetchPartRequest) (*FetchPartResult, error) {
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, request.URL, http.NoBody)
	if err != nil {
		return nil, err
	}

	for name, values := range request.Headers {
		for _, value := range values {
			httpRequest.Header.Add(name, value)
		}
	}

	if request.Offset > 0 {
		httpRequest.Header.Set(headerRange, fmt.Sprintf("bytes=%d-", request.Offset))
		httpRequest.Header.Set(headerAcceptEncoding, "identity")
	}

	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, err
	}

	switch {
	case response.StatusCode == http.StatusRequestedRangeNotSatisfiable && request.Offset > 0:
		response.Body.Close() //nolint:errcheck,gosec // Error on close is not critical here.

		totalBytes := int64(-1)
		if _, total, parseErr := parseContentRange(response.Header.Get(headerContentRange)); parseErr == nil {
			totalBytes = total
		}

		return &FetchPartResult{
			StatusCode:          response.StatusCode,
			Offset:              request.Offset,
			TotalBytes:          totalBytes,
			RangeNotSatisfiable: true,
		}, nil
	case response.StatusCode == http.StatusPartialContent:
		return c.partialResult(response, request.Offset)
	case isSuccessful(response.StatusCode):
		totalBytes := response.ContentLength
		if response.Uncompressed {
			totalBytes = -1
		}

		return &FetchPartResult{
			Body:       response.Body,
			StatusCode: response.StatusCode,
			Offset:     0,
			TotalBytes: totalBytes,
		}, nil
	default:
		response.Body.Close() //nolint:errcheck,gosec // Error on close is not critical here.

		return nil, &StatusError{StatusCode: response.StatusCode}
	}
}

func (c *ClientImpl) partialResult(response *http.Response, offset int64) (*FetchPartResult, error) {
	start, total, err := parseContentRange(response.Header.Get(headerContentRange))
	if err != nil || start != offset {
		response.Body.Close() //nolint:errcheck,gosec // Error on close is not critical here.

		return nil, fmt.Errorf("%w: asked for offset %d, got %q",
			ErrUnexpectedContentRange, offset, response.Header.Get(headerContentRange))
	}

	if total < 0 && response.ContentLength >= 0 {
		total = start + response.ContentLength
	}

	return &FetchPartResult{
		Body:       response.Body,
		StatusCode: response.StatusCode,
		Offset:     start,
		TotalBytes: total,
	}, nil
}

// ReturnLoan issues a single GET to the early-return URL and discards the body.
func (c *ClientImpl) ReturnLoan(ctx context.Context, earlyReturnURL string) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, earlyReturnURL, http.NoBody)
	if err != nil {
		return err
	}

	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return err
	}

	defer response.Body.Close() //nolint:errcheck // Error on close is not critical here.

	if _, err = io.Copy(io.Discard, response.Body); err != nil {
		logger.Debugf(ctx, "Failed to drain early return response: %v", err)
	}

	if !isSuccessful(response.StatusCode) {
		return &StatusError{StatusCode: response.StatusCode}
	}

	return nil
}

func isSuccessful(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}

// parseContentRange parses "bytes start-end/total" and "bytes */total".
// An unknown total ("*") is returned as -1, as is the start of an unsatisfied range.
func parseContentRange(value string) (int64, int64, error) {
	value = strings.TrimSpace(value)

	rangeSpec, found := strings.CutPrefix(value, "bytes ")
	if !found {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnexpectedContentRange, value)
	}

	positions, totalValue, found := strings.Cut(rangeSpec, "/")
	if !found {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnexpectedContentRange, value)
	}

	total := int64(-1)

	if totalValue != "*" {
		parsedTotal, err := strconv.ParseInt(totalValue, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %q", ErrUnexpectedContentRange, value)
		}

		total = parsedTotal
	}

	if positions == "*" {
		return -1, total, nil
	}

	startValue, _, found := strings.Cut(positions, "-")
	if !found {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnexpectedContentRange, value)
	}

	start, err := strconv.ParseInt(startValue, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnexpectedContentRange, value)
	}

	return start, total, nil
}
