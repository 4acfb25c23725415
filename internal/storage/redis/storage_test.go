package redis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/mpcoord/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(client, DefaultConfig())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) newDoc() *model.CredentialDocument {
	doc := model.NewCredentialDocument(model.AuthSettings{TokenExpirationMinutes: 60, AllowGuests: true})
	doc.Users["alice"] = model.UserRecord{Username: "alice", PasswordHash: "h1", IsActive: true, PermissionLevel: 3, CreatedAt: 1700000000}
	doc.Users["bob"] = model.UserRecord{Username: "bob", PasswordHash: "h2", IsActive: true, PermissionLevel: 1, CreatedAt: 1700000100}
	return doc
}

func (s *StorageSuite) TestLoadEmptyReturnsNotFound() {
	_, err := s.storage.Load(s.ctx)
	s.ErrorIs(err, model.ErrCredentialStoreNotFound)
}

func (s *StorageSuite) TestSaveAndLoad() {
	doc := s.newDoc()
	s.Require().NoError(s.storage.Save(s.ctx, doc))

	loaded, err := s.storage.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal(doc.Config, loaded.Config)
	s.Equal(doc.Users, loaded.Users)
}

func (s *StorageSuite) TestSaveUsesPrefixedKeys() {
	s.Require().NoError(s.storage.Save(s.ctx, s.newDoc()))

	s.True(s.mini.Exists("mpcoord:auth:config"))
	s.True(s.mini.Exists("mpcoord:auth:users"))

	var record model.UserRecord
	s.Require().NoError(json.Unmarshal([]byte(s.mini.HGet("mpcoord:auth:users", "alice")), &record))
	s.Equal("h1", record.PasswordHash)
}

func (s *StorageSuite) TestSaveReplacesRemovedUsers() {
	doc := s.newDoc()
	s.Require().NoError(s.storage.Save(s.ctx, doc))

	delete(doc.Users, "bob")
	s.Require().NoError(s.storage.Save(s.ctx, doc))

	loaded, err := s.storage.Load(s.ctx)
	s.Require().NoError(err)
	s.Len(loaded.Users, 1)
	s.Contains(loaded.Users, "alice")
}

func (s *StorageSuite) TestSaveEmptyUserTable() {
	doc := model.NewCredentialDocument(model.AuthSettings{TokenExpirationMinutes: 10})
	s.Require().NoError(s.storage.Save(s.ctx, doc))

	loaded, err := s.storage.Load(s.ctx)
	s.Require().NoError(err)
	s.Empty(loaded.Users)
	s.Equal(10, loaded.Config.TokenExpirationMinutes)
}

func (s *StorageSuite) TestLoadFailsWhenServerDown() {
	s.mini.Close()

	_, err := s.storage.Load(s.ctx)
	s.Require().Error(err)
	s.NotErrorIs(err, model.ErrCredentialStoreNotFound)
}
