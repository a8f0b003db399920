package loan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/odm-grabber/internal/constants"
	"github.com/oshokin/odm-grabber/internal/logger"
	"github.com/oshokin/odm-grabber/internal/utils"
)

// IdentityStore provides the persistent client identity licenses are bound to.
type IdentityStore interface {
	// GetOrCreate returns the stored client id, generating and persisting one on first use.
	GetOrCreate(ctx context.Context) (string, error)
}

// FileIdentityStore keeps the client id in a YAML file.
type FileIdentityStore struct {
	path     string
	mu       sync.Mutex
	clientID string
}

type identityDocument struct {
	ClientID string `yaml:"client_id"`
}

// NewFileIdentityStore creates an IdentityStore backed by the file at path.
func NewFileIdentityStore(path string) *FileIdentityStore {
	return &FileIdentityStore{path: path}
}

// GetOrCreate returns the client id. A missing file is the first run, not an error.
func (s *FileIdentityStore) GetOrCreate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.clientID != "" {
		return s.clientID, nil
	}

	clientID, err := s.read()
	if err != nil {
		return "", err
	}

	if clientID == "" {
		clientID = strings.ToUpper(uuid.New().String())

		if err = s.write(clientID); err != nil {
			return "", err
		}

		logger.Infof(ctx, "Generated new client id, saved to '%s'", s.path)
	}

	s.clientID = clientID

	return clientID, nil
}

func (s *FileIdentityStore) read() (string, error) {
	data, err := os.ReadFile(filepath.Clean(s.path))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	if err != nil {
		return "", newIOError("read identity", s.path, err)
	}

	var document identityDocument
	if err = yaml.Unmarshal(data, &document); err != nil {
		return "", newParseError("read identity", s.path, err)
	}

	return strings.TrimSpace(document.ClientID), nil
}

func (s *FileIdentityStore) write(clientID string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), constants.DefaultFolderPermissions); err != nil {
		return newIOError("create identity directory", filepath.Dir(s.path), err)
	}

	data, err := yaml.Marshal(&identityDocument{ClientID: clientID})
	if err != nil {
		return newIOError("encode identity", s.path, err)
	}

	if err = utils.WriteFileAtomic(s.path, data, constants.PrivateFilePermissions); err != nil {
		return newIOError("write identity", s.path, err)
	}

	return nil
}
