// Package file stores the credential document as a JSON file on disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"

	"github.com/mcoot/mpcoord/internal/model"
	"github.com/mcoot/mpcoord/internal/storage"
)

// Storage reads and writes a single JSON document
type Storage struct {
	mu   sync.Mutex
	path string
}

// New creates a file store for path. The file need not exist yet.
func New(path string) *Storage {
	return &Storage{path: path}
}

// Ensure Storage implements the interface
var _ storage.CredentialStore = (*Storage)(nil)

// Path returns the file location
func (s *Storage) Path() string {
	return s.path
}

func (s *Storage) Load(ctx context.Context) (*model.CredentialDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.ErrCredentialStoreNotFound
		}
		return nil, oops.Code("CREDENTIAL_STORE_READ").With("path", s.path).Wrap(err)
	}

	var doc model.CredentialDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, oops.Code("CREDENTIAL_STORE_DECODE").With("path", s.path).Wrap(err)
	}
	if doc.Users == nil {
		doc.Users = make(map[string]model.UserRecord)
	}
	return &doc, nil
}

// Save writes the document to a temp file in the same directory and renames
// it over the target, so a crash never leaves a truncated file behind.
func (s *Storage) Save(ctx context.Context, doc *model.CredentialDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return oops.Code("CREDENTIAL_STORE_ENCODE").Wrap(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return oops.Code("CREDENTIAL_STORE_WRITE").With("path", s.path).Wrap(err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return oops.Code("CREDENTIAL_STORE_WRITE").With("path", s.path).Wrap(err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return oops.Code("CREDENTIAL_STORE_WRITE").With("path", tmpName).Wrap(err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return oops.Code("CREDENTIAL_STORE_WRITE").With("path", tmpName).Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return oops.Code("CREDENTIAL_STORE_WRITE").With("path", tmpName).Wrap(err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return oops.Code("CREDENTIAL_STORE_WRITE").With("path", s.path).Wrap(err)
	}
	return nil
}
