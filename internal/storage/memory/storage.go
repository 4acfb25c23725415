package memory

import (
	"context"
	"sync"

	"github.com/mcoot/mpcoord/internal/model"
	"github.com/mcoot/mpcoord/internal/storage"
)

// Storage is an in-memory credential store
type Storage struct {
	mu    sync.RWMutex
	doc   *model.CredentialDocument
	saves int
}

// New creates a new empty in-memory store
func New() *Storage {
	return &Storage{}
}

// Ensure Storage implements the interface
var _ storage.CredentialStore = (*Storage)(nil)

func (s *Storage) Load(ctx context.Context) (*model.CredentialDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil, model.ErrCredentialStoreNotFound
	}
	return s.doc.Clone(), nil
}

func (s *Storage) Save(ctx context.Context, doc *model.CredentialDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	s.saves++
	return nil
}

// SaveCount returns how many times Save has been called
func (s *Storage) SaveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
