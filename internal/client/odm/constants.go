package odm

const (
	// OMCVersion is the OverDrive Media Console build the client presents itself as.
	OMCVersion = "1.2.0"
	// OSVersion is the operating system version reported alongside OMCVersion.
	OSVersion = "10.11.6"
	// HashSecret is the fixed token appended to the authentication hash input.
	HashSecret = "ELOSNOC*AIDEM*EVIRDREVO"
	// DefaultUserAgent is the User-Agent of the OverDrive Media Console.
	DefaultUserAgent = "OverDrive Media Console"
)

// License acquisition query parameters.
const (
	queryMediaID  = "MediaID"
	queryClientID = "ClientID"
	queryOMC      = "OMC"
	queryOS       = "OS"
	queryHash     = "Hash"
)

const (
	headerRange          = "Range"
	headerContentRange   = "Content-Range"
	headerAcceptEncoding = "Accept-Encoding"

	// maxLicenseSize caps the license response read into memory.
	maxLicenseSize = 4 * 1024 * 1024
)
