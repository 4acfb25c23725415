package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/mpcoord/internal/dependencies/mocks"
	"github.com/mcoot/mpcoord/internal/dependencies/random"
	"github.com/mcoot/mpcoord/internal/model"
	"github.com/mcoot/mpcoord/internal/storage/memory"
	"github.com/mcoot/mpcoord/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BcryptCost = bcrypt.MinCost
	return cfg
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, s.clock, s.random, testConfig(), testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) registerAndIssue(username string) model.Token {
	s.Require().NoError(s.service.Register(username, "password123", ""))
	token, err := s.service.IssueToken(username)
	s.Require().NoError(err)
	return token
}

// Register tests

func (s *ServiceSuite) TestRegisterPasswordLengthBoundary() {
	s.ErrorIs(s.service.Register("alice", "12345", ""), model.ErrWeakPassword)
	s.NoError(s.service.Register("alice", "123456", ""))

	s.NoError(s.service.Register("bob", strings.Repeat("x", 72), ""))
	s.ErrorIs(s.service.Register("carol", strings.Repeat("x", 73), ""), model.ErrPasswordTooLong)
	_, err := s.service.User("carol")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *ServiceSuite) TestRegisterDuplicateFails() {
	s.Require().NoError(s.service.Register("alice", "password123", ""))
	s.ErrorIs(s.service.Register("alice", "otherpassword", ""), model.ErrUsernameExists)
}

func (s *ServiceSuite) TestRegisterEmptyUsernameFails() {
	s.ErrorIs(s.service.Register("", "password123", ""), model.ErrInvalidUsername)
}

func (s *ServiceSuite) TestRegisterStoresHashNotPlaintext() {
	s.Require().NoError(s.service.Register("alice", "password123", "alice@example.com"))

	user, err := s.service.User("alice")
	s.Require().NoError(err)
	s.NotEqual("password123", user.PasswordHash)
	s.NoError(bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
	s.Equal(model.PermissionPlayer, user.PermissionLevel)
	s.True(user.IsActive)
	s.Equal("alice@example.com", user.Email)
}

// Authenticate tests

func (s *ServiceSuite) TestAuthenticate() {
	s.Require().NoError(s.service.Register("alice", "password123", ""))

	s.True(s.service.Authenticate("alice", "password123"))
	s.False(s.service.Authenticate("alice", "wrong-password"))
	s.False(s.service.Authenticate("nobody", "password123"))
}

func (s *ServiceSuite) TestAuthenticateInactiveUserFails() {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	s.Require().NoError(err)
	doc := model.NewCredentialDocument(model.AuthSettings{TokenExpirationMinutes: 60})
	doc.Users["dormant"] = model.UserRecord{Username: "dormant", PasswordHash: string(hash), IsActive: false, PermissionLevel: 1}
	s.Require().NoError(s.storage.Save(s.ctx, doc))
	s.Require().NoError(s.service.Load(s.ctx))

	s.False(s.service.Authenticate("dormant", "password123"))
	_, err = s.service.IssueToken("dormant")
	s.ErrorIs(err, model.ErrUserInactive)
}

// Token tests

func (s *ServiceSuite) TestIssueTokenUnknownUser() {
	token, err := s.service.IssueToken("nobody")
	s.ErrorIs(err, model.ErrUserNotFound)
	s.Empty(token.Value)
}

func (s *ServiceSuite) TestIssueTokenCarriesLevelAndExpiry() {
	token := s.registerAndIssue("alice")

	s.Equal("alice", token.Username)
	s.Equal(model.PermissionPlayer, token.PermissionLevel)
	s.Equal(s.clock.Now().Add(60*time.Minute), token.ExpiresAt)
	s.True(s.service.ValidateToken(token.Value))
}

func (s *ServiceSuite) TestIssueTokenRegeneratesOnCollision() {
	s.random.QueueHex("aaaa", "aaaa", "bbbb")
	s.Require().NoError(s.service.Register("alice", "password123", ""))
	s.Require().NoError(s.service.Register("bob", "password123", ""))

	first, err := s.service.IssueToken("alice")
	s.Require().NoError(err)
	second, err := s.service.IssueToken("bob")
	s.Require().NoError(err)

	s.Equal("aaaa", first.Value)
	s.Equal("bbbb", second.Value)
	s.Equal("alice", s.service.UsernameFor("aaaa"))
	s.Equal("bob", s.service.UsernameFor("bbbb"))
}

func (s *ServiceSuite) TestIssueTokenGivesUpAfterRepeatedCollisions() {
	s.random.QueueHex("aaaa", "aaaa", "aaaa", "aaaa")
	s.Require().NoError(s.service.Register("alice", "password123", ""))

	_, err := s.service.IssueToken("alice")
	s.Require().NoError(err)
	_, err = s.service.IssueToken("alice")
	s.ErrorIs(err, model.ErrTokenGeneration)
}

func (s *ServiceSuite) TestIssueTokenPurgesExpired() {
	s.registerAndIssue("alice")
	s.registerAndIssue("bob")
	s.Equal(2, s.service.tokenCount())

	s.clock.Advance(61 * time.Minute)
	_, err := s.service.IssueToken("alice")
	s.Require().NoError(err)

	s.Equal(1, s.service.tokenCount())
}

func (s *ServiceSuite) TestConcurrentIssueProducesDistinctTokens() {
	svc := New(memory.New(), s.clock, random.New(), testConfig(), testutil.NopLogger())
	s.Require().NoError(svc.Register("alice", "password123", ""))

	const callers = 50
	var wg sync.WaitGroup
	results := make(chan string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := svc.IssueToken("alice")
			if err == nil {
				results <- token.Value
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for value := range results {
		s.Len(value, 64)
		s.False(seen[value], "duplicate token %s", value)
		seen[value] = true
	}
	s.Len(seen, callers)
}

func (s *ServiceSuite) TestValidateUpdatesLastUsed() {
	token := s.registerAndIssue("alice")

	s.clock.Advance(10 * time.Minute)
	got, ok := s.service.Lookup(token.Value)
	s.Require().True(ok)
	s.Equal(s.clock.Now(), got.LastUsed)
	s.Equal(token.IssuedAt, got.IssuedAt)
}

func (s *ServiceSuite) TestExpiredTokenIsInvalidAndPurged() {
	token := s.registerAndIssue("alice")

	s.clock.Advance(60*time.Minute + time.Second)
	s.False(s.service.ValidateToken(token.Value))
	s.Equal(0, s.service.tokenCount())
	s.Empty(s.service.UsernameFor(token.Value))
}

func (s *ServiceSuite) TestTokenValidAtExactExpiry() {
	token := s.registerAndIssue("alice")

	s.clock.Advance(60 * time.Minute)
	s.True(s.service.ValidateToken(token.Value))
}

func (s *ServiceSuite) TestLookupsForUnknownTokenAreZero() {
	s.Empty(s.service.UsernameFor("missing"))
	s.Equal(model.PermissionNone, s.service.PermissionLevelFor("missing"))
	s.False(s.service.ValidateToken("missing"))
}

func (s *ServiceSuite) TestRevokeToken() {
	token := s.registerAndIssue("alice")

	s.True(s.service.RevokeToken(token.Value))
	s.False(s.service.ValidateToken(token.Value))
	s.False(s.service.RevokeToken(token.Value))
}

// Permission and deletion tests

func (s *ServiceSuite) TestUpdatePermissionLevelPushesIntoLiveTokens() {
	first := s.registerAndIssue("alice")
	second, err := s.service.IssueToken("alice")
	s.Require().NoError(err)
	other := s.registerAndIssue("bob")

	s.Require().NoError(s.service.UpdatePermissionLevel("alice", model.PermissionAdmin))

	s.Equal(model.PermissionAdmin, s.service.PermissionLevelFor(first.Value))
	s.Equal(model.PermissionAdmin, s.service.PermissionLevelFor(second.Value))
	s.Equal(model.PermissionPlayer, s.service.PermissionLevelFor(other.Value))

	user, err := s.service.User("alice")
	s.Require().NoError(err)
	s.Equal(model.PermissionAdmin, user.PermissionLevel)
}

func (s *ServiceSuite) TestUpdatePermissionLevelValidation() {
	s.Require().NoError(s.service.Register("alice", "password123", ""))

	s.ErrorIs(s.service.UpdatePermissionLevel("alice", 4), model.ErrInvalidPermissionLevel)
	s.ErrorIs(s.service.UpdatePermissionLevel("alice", model.PermissionNone), model.ErrInvalidPermissionLevel)
	s.ErrorIs(s.service.UpdatePermissionLevel("nobody", model.PermissionAdmin), model.ErrUserNotFound)
}

func (s *ServiceSuite) TestDeleteUserRevokesTokens() {
	token := s.registerAndIssue("alice")
	other := s.registerAndIssue("bob")

	s.Require().NoError(s.service.DeleteUser("alice"))

	s.False(s.service.ValidateToken(token.Value))
	s.True(s.service.ValidateToken(other.Value))
	_, err := s.service.User("alice")
	s.ErrorIs(err, model.ErrUserNotFound)
	s.ErrorIs(s.service.DeleteUser("alice"), model.ErrUserNotFound)
}

// Stats tests

func (s *ServiceSuite) TestStats() {
	s.registerAndIssue("alice")
	s.registerAndIssue("bob")
	s.Require().NoError(s.service.UpdatePermissionLevel("bob", model.PermissionModerator))

	stats := s.service.Stats()
	s.Equal(2, stats.RegisteredUsers)
	s.Equal(2, stats.ActiveTokens)
	s.Equal(60*time.Minute, stats.TokenTTL)
	s.True(stats.AllowGuests)
	s.Equal(1, stats.UsersByLevel[model.PermissionPlayer])
	s.Equal(1, stats.UsersByLevel[model.PermissionModerator])
	s.Equal(0, stats.UsersByLevel[model.PermissionAdmin])
}

// Persistence tests

func (s *ServiceSuite) TestLoadWithoutStoreIsNotAnError() {
	s.NoError(s.service.Load(s.ctx))
	s.Empty(s.service.Users())
}

func (s *ServiceSuite) TestSaveAndLoadRoundTripsUsersAndSettings() {
	s.Require().NoError(s.service.Register("alice", "password123", "a@example.com"))
	s.Require().NoError(s.service.UpdatePermissionLevel("alice", model.PermissionAdmin))
	s.Require().NoError(s.service.SetTokenTTL(15 * time.Minute))
	s.service.SetAllowGuests(false)
	s.Require().NoError(s.service.Save(s.ctx))

	restored := New(s.storage, s.clock, s.random, testConfig(), testutil.NopLogger())
	s.Require().NoError(restored.Load(s.ctx))

	s.True(restored.Authenticate("alice", "password123"))
	user, err := restored.User("alice")
	s.Require().NoError(err)
	s.Equal(model.PermissionAdmin, user.PermissionLevel)
	s.Equal("a@example.com", user.Email)
	s.Equal(15*time.Minute, restored.TokenTTL())
	s.False(restored.AllowGuests())
}

func (s *ServiceSuite) TestLoadDropsTokensOfVanishedUsers() {
	s.Require().NoError(s.service.Save(s.ctx))
	token := s.registerAndIssue("alice")

	s.Require().NoError(s.service.Load(s.ctx))

	s.False(s.service.ValidateToken(token.Value))
}

func (s *ServiceSuite) TestSetTokenTTLRejectsNonPositive() {
	s.ErrorIs(s.service.SetTokenTTL(0), model.ErrInvalidSetting)
	s.Equal(60*time.Minute, s.service.TokenTTL())
}
