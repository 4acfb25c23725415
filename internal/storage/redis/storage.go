package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/mcoot/mpcoord/internal/model"
	"github.com/mcoot/mpcoord/internal/storage"
)

// Storage is a Redis-backed credential store
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, oops.Code("REDIS_CONFIG_INVALID").With("url", cfg.URL).Wrap(err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.Code("REDIS_CONNECT_FAILED").With("url", cfg.URL).Wrap(err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.CredentialStore = (*Storage)(nil)

func (s *Storage) Load(ctx context.Context) (*model.CredentialDocument, error) {
	var settingsCmd *redis.StringCmd
	var usersCmd *redis.MapStringStringCmd

	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		settingsCmd = pipe.Get(ctx, settingsKey(s.cfg.KeyPrefix))
		usersCmd = pipe.HGetAll(ctx, usersKey(s.cfg.KeyPrefix))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, oops.Code("CREDENTIAL_STORE_READ").With("backend", "redis").Wrap(err)
	}

	settingsData, err := settingsCmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrCredentialStoreNotFound
		}
		return nil, oops.Code("CREDENTIAL_STORE_READ").With("backend", "redis").Wrap(err)
	}

	doc := model.NewCredentialDocument(model.AuthSettings{})
	if err := json.Unmarshal(settingsData, &doc.Config); err != nil {
		return nil, oops.Code("CREDENTIAL_STORE_DECODE").With("key", settingsKey(s.cfg.KeyPrefix)).Wrap(err)
	}

	for username, data := range usersCmd.Val() {
		var record model.UserRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, oops.Code("CREDENTIAL_STORE_DECODE").With("username", username).Wrap(err)
		}
		doc.Users[username] = record
	}

	return doc, nil
}

// Save replaces the stored document atomically (MULTI/EXEC)
func (s *Storage) Save(ctx context.Context, doc *model.CredentialDocument) error {
	settingsData, err := json.Marshal(doc.Config)
	if err != nil {
		return oops.Code("CREDENTIAL_STORE_ENCODE").Wrap(err)
	}

	fields := make([]any, 0, len(doc.Users)*2)
	for username, record := range doc.Users {
		data, err := json.Marshal(record)
		if err != nil {
			return oops.Code("CREDENTIAL_STORE_ENCODE").With("username", username).Wrap(err)
		}
		fields = append(fields, username, data)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, usersKey(s.cfg.KeyPrefix))
		if len(fields) > 0 {
			pipe.HSet(ctx, usersKey(s.cfg.KeyPrefix), fields...)
		}
		pipe.Set(ctx, settingsKey(s.cfg.KeyPrefix), settingsData, 0)
		return nil
	})
	if err != nil {
		return oops.Code("CREDENTIAL_STORE_WRITE").With("backend", "redis").Wrap(err)
	}
	return nil
}
