package auth

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/mpcoord/internal/dependencies/clock"
	"github.com/mcoot/mpcoord/internal/dependencies/random"
	"github.com/mcoot/mpcoord/internal/model"
	"github.com/mcoot/mpcoord/internal/storage"
)

const (
	// tokenBytes is the entropy of an issued token (hex-encoded to 64 characters)
	tokenBytes = 32

	// maxTokenAttempts bounds regeneration after a collision
	maxTokenAttempts = 3

	// maxPasswordBytes is the longest input bcrypt accepts
	maxPasswordBytes = 72
)

// Config holds configuration for the auth service
type Config struct {
	TokenTTL          time.Duration
	AllowGuests       bool
	MinPasswordLength int
	BcryptCost        int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		TokenTTL:          60 * time.Minute,
		AllowGuests:       true,
		MinPasswordLength: 6,
		BcryptCost:        bcrypt.DefaultCost,
	}
}

// Stats summarises the user and token tables
type Stats struct {
	RegisteredUsers int
	ActiveTokens    int
	TokenTTL        time.Duration
	AllowGuests     bool
	UsersByLevel    map[model.PermissionLevel]int // active users only
}

// Service owns the user table, the token table and their persistence
type Service struct {
	store  storage.CredentialStore
	clock  clock.Clock
	random random.Random
	logger *slog.Logger

	bcryptCost        int
	minPasswordLength int
	// dummyHash is compared against when the user is unknown so both paths cost one bcrypt comparison
	dummyHash []byte

	mu          sync.RWMutex
	users       map[string]*model.User
	tokens      map[string]*model.Token
	tokenTTL    time.Duration
	allowGuests bool
}

// New creates a new auth Service with an empty user table. Call Load to restore persisted users.
func New(store storage.CredentialStore, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *Service {
	defaults := DefaultConfig()
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaults.TokenTTL
	}
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = defaults.MinPasswordLength
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaults.BcryptCost
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cfg.BcryptCost)
	if err != nil {
		logger.Error("failed to prepare dummy hash", slog.String("error", err.Error()))
	}

	return &Service{
		store:             store,
		clock:             clk,
		random:            rnd,
		logger:            logger.With(slog.String("component", "auth")),
		bcryptCost:        cfg.BcryptCost,
		minPasswordLength: cfg.MinPasswordLength,
		dummyHash:         dummy,
		users:             make(map[string]*model.User),
		tokens:            make(map[string]*model.Token),
		tokenTTL:          cfg.TokenTTL,
		allowGuests:       cfg.AllowGuests,
	}
}

// Register creates a player-level account
func (s *Service) Register(username, password, email string) error {
	if username == "" {
		return model.ErrInvalidUsername
	}
	if len(password) < s.minPasswordLength {
		return model.ErrWeakPassword
	}
	if len(password) > maxPasswordBytes {
		return model.ErrPasswordTooLong
	}

	s.mu.RLock()
	_, exists := s.users[username]
	s.mu.RUnlock()
	if exists {
		return model.ErrUsernameExists
	}

	// Hash outside the lock; bcrypt is deliberately slow
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return model.ErrUsernameExists
	}
	s.users[username] = &model.User{
		Username:        username,
		PasswordHash:    string(hash),
		Email:           email,
		CreatedAt:       s.clock.Now(),
		IsActive:        true,
		PermissionLevel: model.PermissionPlayer,
	}

	s.logger.Info("user registered", slog.String("username", username))
	return nil
}

// Authenticate reports whether the credentials match an active user.
// Unknown users still pay for one bcrypt comparison.
func (s *Service) Authenticate(username, password string) bool {
	s.mu.RLock()
	user, ok := s.users[username]
	hash := s.dummyHash
	active := false
	if ok {
		hash = []byte(user.PasswordHash)
		active = user.IsActive
	}
	s.mu.RUnlock()

	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	return ok && active && err == nil
}

// IssueToken issues a new token for an existing, active user.
// Expired tokens are purged first.
func (s *Service) IssueToken(username string) (model.Token, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return model.Token{}, model.ErrUserNotFound
	}
	if !user.IsActive {
		return model.Token{}, model.ErrUserInactive
	}

	if purged := s.purgeExpiredLocked(now); purged > 0 {
		s.logger.Debug("expired tokens purged", slog.Int("count", purged))
	}

	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		value, err := s.random.Hex(tokenBytes)
		if err != nil {
			return model.Token{}, err
		}
		if _, taken := s.tokens[value]; taken {
			s.logger.Warn("token collision, regenerating", slog.Int("attempt", attempt+1))
			continue
		}

		token := &model.Token{
			Value:           value,
			Username:        username,
			IssuedAt:        now,
			ExpiresAt:       now.Add(s.tokenTTL),
			LastUsed:        now,
			PermissionLevel: user.PermissionLevel,
		}
		s.tokens[value] = token
		return *token, nil
	}

	return model.Token{}, model.ErrTokenGeneration
}

// Lookup validates a token, refreshes its last-used time and returns a copy.
// Expired tokens are evicted.
func (s *Service) Lookup(value string) (model.Token, bool) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.liveTokenLocked(value, now)
	if !ok {
		return model.Token{}, false
	}
	token.LastUsed = now
	return *token, true
}

// ValidateToken reports whether the token is live, refreshing its last-used time
func (s *Service) ValidateToken(value string) bool {
	_, ok := s.Lookup(value)
	return ok
}

// UsernameFor returns the token's owner, or "" for absent or expired tokens
func (s *Service) UsernameFor(value string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok := s.liveTokenLocked(value, s.clock.Now()); ok {
		return token.Username
	}
	return ""
}

// PermissionLevelFor returns the token's level, or PermissionNone for absent or expired tokens
func (s *Service) PermissionLevelFor(value string) model.PermissionLevel {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok := s.liveTokenLocked(value, s.clock.Now()); ok {
		return token.PermissionLevel
	}
	return model.PermissionNone
}

// RevokeToken removes a token. It reports false if the token was unknown.
func (s *Service) RevokeToken(value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[value]; !ok {
		return false
	}
	delete(s.tokens, value)
	return true
}

// UpdatePermissionLevel changes a user's level and every live token of that user
func (s *Service) UpdatePermissionLevel(username string, level model.PermissionLevel) error {
	if !level.Valid() {
		return model.ErrInvalidPermissionLevel
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return model.ErrUserNotFound
	}
	user.PermissionLevel = level

	for _, token := range s.tokens {
		if token.Username == username {
			token.PermissionLevel = level
		}
	}
	return nil
}

// DeleteUser removes a user and revokes all of their tokens
func (s *Service) DeleteUser(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; !ok {
		return model.ErrUserNotFound
	}
	delete(s.users, username)

	revoked := 0
	for value, token := range s.tokens {
		if token.Username == username {
			delete(s.tokens, value)
			revoked++
		}
	}

	s.logger.Info("user deleted", slog.String("username", username), slog.Int("revoked_tokens", revoked))
	return nil
}

// User returns a copy of the named user
func (s *Service) User(username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return *user, nil
}

// Users returns copies of all users ordered by username
func (s *Service) Users() []model.User {
	s.mu.RLock()
	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	s.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users
}

// PurgeExpired removes every expired token and returns how many were removed
func (s *Service) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purgeExpiredLocked(s.clock.Now())
}

// TokenTTL returns the lifetime given to new tokens
func (s *Service) TokenTTL() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokenTTL
}

// SetTokenTTL changes the lifetime of tokens issued from now on
func (s *Service) SetTokenTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return model.ErrInvalidSetting
	}
	s.mu.Lock()
	s.tokenTTL = ttl
	s.mu.Unlock()
	return nil
}

// AllowGuests reports whether unauthenticated play is allowed
func (s *Service) AllowGuests() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allowGuests
}

// SetAllowGuests toggles unauthenticated play
func (s *Service) SetAllowGuests(allow bool) {
	s.mu.Lock()
	s.allowGuests = allow
	s.mu.Unlock()
}

// Stats returns counts over the user and token tables
func (s *Service) Stats() Stats {
	now := s.clock.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		RegisteredUsers: len(s.users),
		TokenTTL:        s.tokenTTL,
		AllowGuests:     s.allowGuests,
		UsersByLevel:    make(map[model.PermissionLevel]int),
	}
	for _, token := range s.tokens {
		if !token.Expired(now) {
			stats.ActiveTokens++
		}
	}
	for _, user := range s.users {
		if user.IsActive {
			stats.UsersByLevel[user.PermissionLevel]++
		}
	}
	return stats
}

// Save persists the user table and settings
func (s *Service) Save(ctx context.Context) error {
	s.mu.RLock()
	doc := model.NewCredentialDocument(model.AuthSettings{
		TokenExpirationMinutes: int(s.tokenTTL / time.Minute),
		AllowGuests:            s.allowGuests,
	})
	for name, user := range s.users {
		doc.Users[name] = model.UserRecordFromUser(user)
	}
	s.mu.RUnlock()

	return s.store.Save(ctx, doc)
}

// Load replaces the user table and settings with the persisted ones.
// A store that has never been written is not an error.
func (s *Service) Load(ctx context.Context) error {
	doc, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, model.ErrCredentialStoreNotFound) {
			s.logger.Info("no credential store found, starting empty")
			return nil
		}
		return err
	}

	users := make(map[string]*model.User, len(doc.Users))
	for name, record := range doc.Users {
		user := record.ToUser()
		user.Username = name
		users[name] = user
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = users
	for value, token := range s.tokens {
		if _, ok := users[token.Username]; !ok {
			delete(s.tokens, value)
		}
	}
	if doc.Config.TokenExpirationMinutes > 0 {
		s.tokenTTL = time.Duration(doc.Config.TokenExpirationMinutes) * time.Minute
	}
	s.allowGuests = doc.Config.AllowGuests

	s.logger.Info("credential store loaded", slog.Int("users", len(users)))
	return nil
}

// liveTokenLocked returns the token if present and unexpired, evicting it if expired.
// Callers must hold the write lock.
func (s *Service) liveTokenLocked(value string, now time.Time) (*model.Token, bool) {
	token, ok := s.tokens[value]
	if !ok {
		return nil, false
	}
	if token.Expired(now) {
		delete(s.tokens, value)
		return nil, false
	}
	return token, true
}

func (s *Service) purgeExpiredLocked(now time.Time) int {
	purged := 0
	for value, token := range s.tokens {
		if token.Expired(now) {
			delete(s.tokens, value)
			purged++
		}
	}
	return purged
}

// tokenCount returns the raw size of the token table, expired entries included
func (s *Service) tokenCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
