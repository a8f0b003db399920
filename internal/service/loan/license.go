package loan

import (
	"context"
	"crypto/sha1" //nolint:gosec // The protocol mandates SHA-1.
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding/unicode"

	"github.com/oshokin/odm-grabber/internal/client/odm"
	"github.com/oshokin/odm-grabber/internal/config"
	"github.com/oshokin/odm-grabber/internal/constants"
	"github.com/oshokin/odm-grabber/internal/logger"
	"github.com/oshokin/odm-grabber/internal/utils"
)

// LicenseAuthenticator obtains licenses, reusing the cached one when present.
type LicenseAuthenticator interface {
	// AcquireLicense returns the license of the manifest at path and whether it came from the cache.
	AcquireLicense(ctx context.Context, manifestPath string) (*License, bool, error)
}

// LicenseAuthenticatorImpl implements LicenseAuthenticator.
type LicenseAuthenticatorImpl struct {
	client        odm.Client
	identityStore IdentityStore
	reader        ManifestReader
	retryPolicy   *RetryPolicy
}

// NewLicenseAuthenticator creates a LicenseAuthenticator.
func NewLicenseAuthenticator(
	cfg *config.Config,
	client odm.Client,
	identityStore IdentityStore,
	reader ManifestReader,
) *LicenseAuthenticatorImpl {
	return &LicenseAuthenticatorImpl{
		client:        client,
		identityStore: identityStore,
		reader:        reader,
		retryPolicy:   newRetryPolicy(cfg, isTransientLicenseError),
	}
}

// ComputeHash returns base64(SHA-1(UTF-16LE("clientID|omc|os|secret"))).
func ComputeHash(clientID, omcVersion, osVersion string) string {
	rawKey := clientID + "|" + omcVersion + "|" + osVersion + "|" + odm.HashSecret

	// UTF-16 encoding of valid UTF-8 never fails.
	encoded, _ := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(rawKey))
	digest := sha1.Sum(encoded) //nolint:gosec // The protocol mandates SHA-1.

	return base64.StdEncoding.EncodeToString(digest[:])
}

// AcquireLicense returns the cached license without any request, or acquires and caches a new one.
// Only a license that carries a client id is ever written to the cache.
func (a *LicenseAuthenticatorImpl) AcquireLicense(ctx context.Context, manifestPath string) (*License, bool, error) {
	cachePath := licensePath(manifestPath)

	license, err := a.readCachedLicense(cachePath)
	if err != nil || license != nil {
		return license, license != nil, err
	}

	clientID, err := a.identityStore.GetOrCreate(ctx)
	if err != nil {
		return nil, false, err
	}

	manifest, err := a.reader.ReadManifest(manifestPath)
	if err != nil {
		return nil, false, err
	}

	if manifest.MediaID == "" {
		return nil, false, newParseError("acquire license", manifestPath, missingField("id"))
	}

	if manifest.AcquisitionURL == "" {
		return nil, false, newParseError("acquire license", manifestPath, missingField("AcquisitionUrl"))
	}

	if _, err = url.Parse(manifest.AcquisitionURL); err != nil {
		return nil, false, newParseError("acquire license", manifestPath, err)
	}

	request := &odm.AcquireLicenseRequest{
		AcquisitionURL: manifest.AcquisitionURL,
		MediaID:        manifest.MediaID,
		ClientID:       clientID,
		Hash:           ComputeHash(clientID, odm.OMCVersion, odm.OSVersion),
	}

	var (
		raw        []byte
		lastStatus int
	)

	err = a.retryPolicy.Do(ctx, "License acquisition", func(ctx context.Context, _ int64) error {
		var acquireErr error

		raw, acquireErr = a.client.AcquireLicense(ctx, request)
		if status := odm.StatusCodeOf(acquireErr); status != 0 {
			lastStatus = status
		}

		return acquireErr
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}

		return nil, false, newAcquisitionError("acquire license", manifest.AcquisitionURL, err, lastStatus)
	}

	license, err = a.reader.ParseLicense(raw)
	if err != nil {
		return nil, false, newAcquisitionError("validate license", manifest.AcquisitionURL, err, lastStatus)
	}

	if err = utils.WriteFileAtomic(cachePath, raw, constants.DefaultFilePermissions); err != nil {
		return nil, false, newIOError("write license", cachePath, err)
	}

	logger.Infof(ctx, "License acquired and saved to '%s'", cachePath)

	return license, false, nil
}

// readCachedLicense returns nil without an error when there is no cached license.
func (a *LicenseAuthenticatorImpl) readCachedLicense(cachePath string) (*License, error) {
	raw, err := os.ReadFile(filepath.Clean(cachePath))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil //nolint:nilnil // Absent cache is not an error.
	}

	if err != nil {
		return nil, newIOError("read license", cachePath, err)
	}

	license, err := a.reader.ParseLicense(raw)
	if err != nil {
		return nil, newParseError("read license", cachePath, err)
	}

	return license, nil
}

// isTransientLicenseError reports whether another license request may succeed.
func isTransientLicenseError(err error) bool {
	if errors.Is(err, odm.ErrLicenseTooLarge) {
		return false
	}

	switch status := odm.StatusCodeOf(err); {
	case status == 0:
		return true
	case status == http.StatusRequestTimeout,
		status == http.StatusTooEarly,
		status == http.StatusTooManyRequests,
		status >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}
