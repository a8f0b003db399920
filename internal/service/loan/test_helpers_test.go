package loan

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/odm-grabber/internal/client/odm"
	"github.com/oshokin/odm-grabber/internal/config"
)

const (
	testMediaID  = "{11111111-2222-3333-4444-555555555555}"
	testClientID = "ABCDEF01-2345-6789-ABCD-EF0123456789"
	testCoverURL = "/images/cover{large}.jpg"
	testThumbURL = "/images/thumb.jpg"
	testTitle    = "Foo/Bar"
)

// testLicense is the license document served by testLoanServer, with line breaks like the real one.
var testLicense = "<?xml version=\"1.0\" encoding=\"utf-8\"?>\r\n" +
	"<License xmlns=\"http://license.overdrive.com/2008/03/License.xsd\">\r\n" +
	"<SignedInfo><ClientID>" + testClientID + "</ClientID><ContentID>1</ContentID></SignedInfo>\r\n" +
	"<Signature>c2lnbmF0dXJl</Signature>\r\n" +
	"</License>"

// testPart describes a part served by testLoanServer.
type testPart struct {
	filename string
	duration string
	content  string
}

// testLoanServer imitates the license, media and early-return endpoints.
type testLoanServer struct {
	t      *testing.T
	server *httptest.Server
	parts  []testPart

	mu              sync.Mutex
	requests        map[string]int
	licenseHeaders  []string
	clientIDHeaders []string
}

func newTestLoanServer(t *testing.T, parts []testPart) *testLoanServer {
	t.Helper()

	s := &testLoanServer{
		t:        t,
		parts:    parts,
		requests: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/license", s.handleLicense)
	mux.HandleFunc("/return", s.handleReturn)
	mux.HandleFunc("/images/", s.handleImage)
	mux.HandleFunc("/media/", s.handlePart)

	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)

	return s
}

func (s *testLoanServer) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.requests[path]
}

func (s *testLoanServer) record(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests[r.URL.Path]++

	if strings.HasPrefix(r.URL.Path, "/media/") {
		s.licenseHeaders = append(s.licenseHeaders, r.Header.Get(headerLicense))
		s.clientIDHeaders = append(s.clientIDHeaders, r.Header.Get(headerClientID))
	}
}

func (s *testLoanServer) handleLicense(w http.ResponseWriter, r *http.Request) {
	s.record(r)

	query := r.URL.Query()
	if query.Get("Hash") != ComputeHash(query.Get("ClientID"), odm.OMCVersion, odm.OSVersion) {
		http.Error(w, "bad hash", http.StatusForbidden)

		return
	}

	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(testLicense))
}

func (s *testLoanServer) handleReturn(w http.ResponseWriter, r *http.Request) {
	s.record(r)

	_, _ = w.Write([]byte("<EarlyReturnResponse/>"))
}

func (s *testLoanServer) handleImage(w http.ResponseWriter, r *http.Request) {
	s.record(r)

	if r.Header.Get(headerLicense) != "" {
		http.Error(w, "images take no license", http.StatusBadRequest)

		return
	}

	http.ServeContent(w, r, "image.jpg", time.Time{}, strings.NewReader("image:"+r.URL.Path))
}

func (s *testLoanServer) handlePart(w http.ResponseWriter, r *http.Request) {
	s.record(r)

	name := strings.TrimPrefix(r.URL.Path, "/media/")
	for _, part := range s.parts {
		if part.filename == name {
			http.ServeContent(w, r, name, time.Time{}, strings.NewReader(part.content))

			return
		}
	}

	http.NotFound(w, r)
}

// writeTestManifest writes a manifest pointing at server and returns its path.
func writeTestManifest(t *testing.T, dir, serverURL string, parts []testPart) string {
	t.Helper()

	var partsXML strings.Builder

	for i, part := range parts {
		fmt.Fprintf(&partsXML, "<Part number=\"%d\" filename=\"%s\" name=\"Part %d\" filesize=\"%d\" duration=\"%s\" />",
			i+1, part.filename, i+1, len(part.content), part.duration)
	}

	manifest := `<?xml version="1.0" encoding="utf-8" ?>
<OverDriveMedia id="` + testMediaID + `" ODMVersion="3.0.0.0" xmlns="">
<License><AcquisitionUrl>` + serverURL + `/license</AcquisitionUrl></License>
<EarlyReturnURL>` + serverURL + `/return</EarlyReturnURL>
<![CDATA[<Metadata><Title>` + testTitle + `</Title><SubTitle>Baz</SubTitle>` +
		`<CoverUrl>` + serverURL + testCoverURL + `</CoverUrl>` +
		`<ThumbnailUrl>` + serverURL + testThumbURL + `</ThumbnailUrl>` +
		`<Publisher>Pub House</Publisher>` +
		`<Creators><Creator role="Author">A. Writer</Creator><Creator role="Narrator">N. Voice</Creator></Creators>` +
		`</Metadata>]]>
<Formats><Format name="MP3 Audiobook">
<Protocols><Protocol method="download" baseurl="` + serverURL + `/media" /></Protocols>
<Parts count="` + fmt.Sprint(len(parts)) + `">` + partsXML.String() + `</Parts>
</Format></Formats>
</OverDriveMedia>`

	path := filepath.Join(dir, "book.odm")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o600))

	return path
}

// newTestConfig returns a configuration with fast retries rooted in dir.
func newTestConfig(dir string) *config.Config {
	return &config.Config{
		OutputPath:             filepath.Join(dir, "out"),
		IdentityPath:           filepath.Join(dir, "config", "identity.yaml"),
		RetryAttemptsCount:     config.DefaultRetryAttemptsCount,
		MaxConcurrentDownloads: 1,
		ParsedRequestTimeout:   5 * time.Second,
	}
}

// newTestService creates a service talking to the real HTTP client.
func newTestService(t *testing.T, cfg *config.Config) (*ServiceImpl, *bytes.Buffer) {
	t.Helper()

	client, err := odm.NewClient(cfg)
	require.NoError(t, err)

	output := new(bytes.Buffer)

	service, err := NewService(cfg, client, output)
	require.NoError(t, err)

	quietDownloader(service)

	return service, output
}

// quietDownloader disables progress bars in tests.
func quietDownloader(service *ServiceImpl) {
	if downloader, ok := service.downloader.(*PartDownloaderImpl); ok {
		downloader.showProgress = false
	}
}

func writeTestIdentity(t *testing.T, cfg *config.Config) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.IdentityPath), 0o755))
	require.NoError(t, os.WriteFile(cfg.IdentityPath, []byte("client_id: "+testClientID+"\n"), 0o600))
}
