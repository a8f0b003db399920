package constants

import "os"

const (
	// DefaultFilePermissions sets the default permissions for regular files: (rw-r--r--).
	DefaultFilePermissions os.FileMode = 0o644

	// DefaultFolderPermissions sets the default permissions for regular folders: (rwxr-xr-x).
	DefaultFolderPermissions os.FileMode = 0o755

	// PrivateFilePermissions is used for the client identity file: (rw-------).
	PrivateFilePermissions os.FileMode = 0o600
)

// Sibling files written next to a loan manifest or a download.
const (
	ExtensionLicense  = ".license"
	ExtensionMetadata = ".metadata"
	ExtensionPartial  = ".part"
)

// Image files written into the download directory.
const (
	CoverFilename     = "folder.jpg"
	ThumbnailFilename = "folder_thumb.jpg"
)

// Application directory and file names under the per-user configuration directory.
const (
	AppDirectoryName      = "odm-grabber"
	IdentityFilename      = "identity.yaml"
	ConfigurationFilename = "config.yaml"
)
