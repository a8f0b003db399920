package loan

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/net/html/charset"

	"github.com/oshokin/odm-grabber/internal/constants"
	"github.com/oshokin/odm-grabber/internal/utils"
)

//go:generate $MOCKGEN -source=manifest.go -destination=mocks/manifest_mock.go

// ManifestReader parses loan manifests, their embedded metadata and licenses.
type ManifestReader interface {
	// ReadManifest parses the manifest at path.
	ReadManifest(path string) (*Manifest, error)
	// ExtractMetadata returns the metadata of the manifest at path,
	// extracting it to the memoized sibling file on first use.
	ExtractMetadata(path string) (*Metadata, []byte, error)
	// ParseLicense extracts the bound client id from a license document.
	ParseLicense(raw []byte) (*License, error)
}

// ManifestReaderImpl implements ManifestReader with an LRU of parsed manifests.
type ManifestReaderImpl struct {
	manifests *lru.Cache[string, *Manifest]
}

const (
	// manifestCacheSize bounds the parsed manifests kept for one batch run.
	manifestCacheSize = 64

	downloadProtocolMethod = "download"
	clientIDElement        = "ClientID"
)

//nolint:gochecknoglobals // This is immutable, pre-compiled regex pattern and used as a constant.
var trailingNumberPattern = regexp.MustCompile(`(\d+)\D*$`)

type manifestDocument struct {
	XMLName        xml.Name         `xml:"OverDriveMedia"`
	MediaID        string           `xml:"id,attr"`
	AcquisitionURL string           `xml:"License>AcquisitionUrl"`
	EarlyReturnURL string           `xml:"EarlyReturnURL"`
	Formats        []formatDocument `xml:"Formats>Format"`
	Metadata       string           `xml:",chardata"`
}

type formatDocument struct {
	Name      string             `xml:"name,attr"`
	Protocols []protocolDocument `xml:"Protocols>Protocol"`
	Parts     []partDocument     `xml:"Parts>Part"`
}

type protocolDocument struct {
	Method  string `xml:"method,attr"`
	BaseURL string `xml:"baseurl,attr"`
}

type partDocument struct {
	Number   string `xml:"number,attr"`
	Filename string `xml:"filename,attr"`
	Name     string `xml:"name,attr"`
	FileSize string `xml:"filesize,attr"`
	Duration string `xml:"duration,attr"`
}

// NewManifestReader creates a ManifestReader.
func NewManifestReader() (*ManifestReaderImpl, error) {
	manifests, err := lru.New[string, *Manifest](manifestCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifests cache: %w", err)
	}

	return &ManifestReaderImpl{manifests: manifests}, nil
}

// ReadManifest parses the manifest at path. Required fields are checked by the operations that need them.
func (r *ManifestReaderImpl) ReadManifest(path string) (*Manifest, error) {
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return nil, newIOError("read manifest", path, err)
	}

	if manifest, ok := r.manifests.Get(absolutePath); ok {
		return manifest, nil
	}

	file, err := os.Open(filepath.Clean(absolutePath))
	if err != nil {
		return nil, newIOError("read manifest", path, err)
	}

	defer file.Close() //nolint:errcheck // Error on close is not critical here.

	var document manifestDocument
	if err = newXMLDecoder(file).Decode(&document); err != nil {
		return nil, newParseError("read manifest", path, err)
	}

	manifest := &Manifest{
		Path:           absolutePath,
		MediaID:        strings.TrimSpace(document.MediaID),
		AcquisitionURL: utils.EscapeBraces(strings.TrimSpace(document.AcquisitionURL)),
		EarlyReturnURL: utils.EscapeBraces(strings.TrimSpace(document.EarlyReturnURL)),
		RawMetadata:    strings.TrimSpace(strings.ReplaceAll(document.Metadata, "\r", "")),
	}

	if format := selectDownloadFormat(document.Formats); format != nil {
		for _, protocol := range format.Protocols {
			if protocol.Method == downloadProtocolMethod {
				manifest.BaseURL = utils.EscapeBraces(strings.TrimSpace(protocol.BaseURL))

				break
			}
		}

		manifest.Parts = make([]*Part, 0, len(format.Parts))
		for i := range format.Parts {
			manifest.Parts = append(manifest.Parts, newPart(&format.Parts[i], i+1))
		}
	}

	r.manifests.Add(absolutePath, manifest)

	return manifest, nil
}

// ExtractMetadata returns the parsed metadata together with the memoized document bytes.
// An existing sibling file is used as is, even if the manifest changed since.
func (r *ManifestReaderImpl) ExtractMetadata(path string) (*Metadata, []byte, error) {
	cachePath := metadataPath(path)

	raw, err := os.ReadFile(filepath.Clean(cachePath))

	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		raw, err = r.extractMetadataDocument(path, cachePath)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, newIOError("read metadata", cachePath, err)
	}

	metadata, err := parseMetadata(raw)
	if err != nil {
		return nil, nil, newParseError("parse metadata", cachePath, err)
	}

	return metadata, raw, nil
}

func (r *ManifestReaderImpl) extractMetadataDocument(path, cachePath string) ([]byte, error) {
	manifest, err := r.ReadManifest(path)
	if err != nil {
		return nil, err
	}

	if manifest.RawMetadata == "" {
		return nil, newParseError("extract metadata", path, missingField("Metadata"))
	}

	document, err := indentXML([]byte(manifest.RawMetadata))
	if err != nil {
		// Keep the fragment verbatim, the cache must still hold the metadata.
		document = []byte(manifest.RawMetadata + "\n")
	}

	if err = utils.WriteFileAtomic(cachePath, document, constants.DefaultFilePermissions); err != nil {
		return nil, newIOError("write metadata", cachePath, err)
	}

	return document, nil
}

// ParseLicense finds the first element named ClientID in any namespace.
func (r *ManifestReaderImpl) ParseLicense(raw []byte) (*License, error) {
	decoder := newXMLDecoder(bytes.NewReader(raw))

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return nil, missingField(clientIDElement)
		}

		if err != nil {
			return nil, err
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != clientIDElement {
			continue
		}

		var clientID string
		if err = decoder.DecodeElement(&clientID, &start); err != nil {
			return nil, err
		}

		clientID = strings.TrimSpace(clientID)
		if clientID == "" {
			return nil, missingField(clientIDElement)
		}

		return &License{
			Raw:      raw,
			ClientID: clientID,
		}, nil
	}
}

// selectDownloadFormat returns the first format offering a download protocol.
func selectDownloadFormat(formats []formatDocument) *formatDocument {
	for i := range formats {
		for _, protocol := range formats[i].Protocols {
			if protocol.Method == downloadProtocolMethod {
				return &formats[i]
			}
		}
	}

	if len(formats) > 0 {
		return &formats[0]
	}

	return nil
}

func newPart(document *partDocument, position int) *Part {
	part := &Part{
		Filename: utils.EscapeBraces(strings.TrimSpace(document.Filename)),
		Name:     strings.TrimSpace(document.Name),
		Duration: strings.TrimSpace(document.Duration),
	}

	part.Number = position
	if number, err := strconv.Atoi(strings.TrimSpace(document.Number)); err == nil && number > 0 {
		part.Number = number
	} else if number, ok := trailingNumber(part.Suffix()); ok {
		part.Number = number
	}

	if size, err := strconv.ParseInt(strings.TrimSpace(document.FileSize), 10, 64); err == nil && size > 0 {
		part.FileSize = size
	}

	return part
}

// trailingNumber returns the last run of digits in s ignoring its extension, e.g. 7 for "Part07.mp3".
func trailingNumber(s string) (int, bool) {
	match := trailingNumberPattern.FindStringSubmatch(strings.TrimSuffix(s, filepath.Ext(s)))
	if match == nil {
		return 0, false
	}

	number, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}

	return number, true
}

func newXMLDecoder(r io.Reader) *xml.Decoder {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = charset.NewReaderLabel

	return decoder
}

// indentXML re-indents an XML fragment with two spaces per level.
func indentXML(raw []byte) ([]byte, error) {
	var (
		decoder = newXMLDecoder(bytes.NewReader(raw))
		buffer  bytes.Buffer
		encoder = xml.NewEncoder(&buffer)
	)

	encoder.Indent("", "  ")

	for {
		token, err := decoder.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		switch typed := token.(type) {
		case xml.CharData:
			if len(strings.TrimSpace(string(typed))) == 0 {
				continue
			}
		case xml.ProcInst:
			// The encoder only accepts a declaration as the very first token.
			if typed.Target == "xml" {
				continue
			}
		}

		if err = encoder.EncodeToken(xml.CopyToken(token)); err != nil {
			return nil, err
		}
	}

	if err := encoder.Flush(); err != nil {
		return nil, err
	}

	buffer.WriteByte('\n')

	return buffer.Bytes(), nil
}

func licensePath(manifestPath string) string {
	return manifestPath + constants.ExtensionLicense
}

func metadataPath(manifestPath string) string {
	return manifestPath + constants.ExtensionMetadata
}
