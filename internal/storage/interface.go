package storage

import (
	"context"

	"github.com/mcoot/mpcoord/internal/model"
)

// CredentialStore persists the user table and auth settings as one document.
// Load returns model.ErrCredentialStoreNotFound when nothing has been saved yet.
type CredentialStore interface {
	Load(ctx context.Context) (*model.CredentialDocument, error)
	Save(ctx context.Context, doc *model.CredentialDocument) error
}
