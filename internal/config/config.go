// Package config loads the coordinator configuration. Sources are applied
// in order: compiled defaults, YAML file, MPCOORD_* environment variables,
// then command-line flags that were explicitly set.
package config

import (
	"errors"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "MPCOORD"

// Storage backends
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

// Config is the complete server configuration
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Realtime RealtimeConfig `koanf:"realtime"`
	Auth     AuthConfig     `koanf:"auth"`
	Session  SessionConfig  `koanf:"session"`
	Events   EventsConfig   `koanf:"events"`
	Chat     ChatConfig     `koanf:"chat"`
	Features FeaturesConfig `koanf:"features"`
	Storage  StorageConfig  `koanf:"storage"`
	Redis    RedisConfig    `koanf:"redis"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig configures the HTTP API listener
type ServerConfig struct {
	Name            string        `koanf:"name" validate:"required"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" split_words:"true" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" split_words:"true" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" split_words:"true" validate:"gt=0"`
	AuthRateLimit   int           `koanf:"auth_rate_limit" split_words:"true" validate:"min=0"`
	MetricsEnabled  bool          `koanf:"metrics_enabled" split_words:"true"`
}

// RealtimeConfig configures the WebSocket listener
type RealtimeConfig struct {
	Enabled bool `koanf:"enabled"`
	Port    int  `koanf:"port" validate:"min=1,max=65535"`
}

// AuthConfig configures tokens and login protection
type AuthConfig struct {
	TokenTTL          time.Duration `koanf:"token_ttl" split_words:"true" validate:"gt=0"`
	AllowGuests       bool          `koanf:"allow_guests" split_words:"true"`
	MinPasswordLength int           `koanf:"min_password_length" split_words:"true" validate:"min=1"`
	MaxFailedAttempts int           `koanf:"max_failed_attempts" split_words:"true" validate:"min=1"`
	LockoutDuration   time.Duration `koanf:"lockout_duration" split_words:"true" validate:"gt=0"`
}

// SessionConfig configures the session registry
type SessionConfig struct {
	HeartbeatTimeout time.Duration `koanf:"heartbeat_timeout" split_words:"true" validate:"gt=0"`
	SweepInterval    time.Duration `koanf:"sweep_interval" split_words:"true" validate:"gt=0"`
	MaxPlayers       int           `koanf:"max_players" split_words:"true" validate:"min=0"`
}

// EventsConfig configures the event bus
type EventsConfig struct {
	QueueSize        int           `koanf:"queue_size" split_words:"true" validate:"min=1"`
	DispatchInterval time.Duration `koanf:"dispatch_interval" split_words:"true" validate:"gt=0"`
}

// ChatConfig configures the chat log
type ChatConfig struct {
	MaxMessages  int `koanf:"max_messages" split_words:"true" validate:"min=1"`
	DefaultLimit int `koanf:"default_limit" split_words:"true" validate:"min=1"`
}

// FeaturesConfig toggles optional subsystems
type FeaturesConfig struct {
	EnableChat           bool `koanf:"enable_chat" split_words:"true"`
	EnableEconomySync    bool `koanf:"enable_economy_sync" split_words:"true"`
	EnablePlayerTracking bool `koanf:"enable_player_tracking" split_words:"true"`
}

// StorageConfig selects the credential store
type StorageConfig struct {
	Type string `koanf:"type" validate:"oneof=memory file redis"`
	Path string `koanf:"path" validate:"required_if=Type file"`
}

// RedisConfig configures the redis credential store
type RedisConfig struct {
	URL       string `koanf:"url"`
	PoolSize  int    `koanf:"pool_size" split_words:"true" validate:"min=1"`
	KeyPrefix string `koanf:"key_prefix" split_words:"true"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

// Default returns the compiled defaults
func Default() Config {
	return Config{
		Server: ServerConfig{
			Name:            "X4 Multiplayer Server",
			Port:            3003,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AuthRateLimit:   30,
			MetricsEnabled:  true,
		},
		Realtime: RealtimeConfig{
			Enabled: true,
			Port:    3004,
		},
		Auth: AuthConfig{
			TokenTTL:          60 * time.Minute,
			AllowGuests:       true,
			MinPasswordLength: 6,
			MaxFailedAttempts: 5,
			LockoutDuration:   15 * time.Minute,
		},
		Session: SessionConfig{
			HeartbeatTimeout: 300 * time.Second,
			SweepInterval:    30 * time.Second,
			MaxPlayers:       10,
		},
		Events: EventsConfig{
			QueueSize:        1024,
			DispatchInterval: 100 * time.Millisecond,
		},
		Chat: ChatConfig{
			MaxMessages:  100,
			DefaultLimit: 50,
		},
		Features: FeaturesConfig{
			EnableChat:           true,
			EnableEconomySync:    true,
			EnablePlayerTracking: true,
		},
		Storage: StorageConfig{
			Type: StorageFile,
			Path: "auth_data.json",
		},
		Redis: RedisConfig{
			URL:       "redis://localhost:6379",
			PoolSize:  10,
			KeyPrefix: "mpcoord",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// flagKeys maps command-line flags to configuration keys
var flagKeys = map[string]string{
	"host":          "server.host",
	"port":          "server.port",
	"server-name":   "server.name",
	"realtime-port": "realtime.port",
	"max-players":   "session.max_players",
	"storage":       "storage.type",
	"storage-path":  "storage.path",
	"redis-url":     "redis.url",
	"log-level":     "log.level",
	"log-format":    "log.format",
}

// RegisterFlags adds the configuration flags to fs. Flag defaults are
// informational only; unset flags never override other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "path to a YAML configuration file")
	fs.String("host", d.Server.Host, "API listen host")
	fs.Int("port", d.Server.Port, "API listen port")
	fs.String("server-name", d.Server.Name, "server name reported to clients")
	fs.Int("realtime-port", d.Realtime.Port, "WebSocket listen port")
	fs.Int("max-players", d.Session.MaxPlayers, "maximum concurrent players (0 for unlimited)")
	fs.String("storage", d.Storage.Type, "credential store: memory, file or redis")
	fs.String("storage-path", d.Storage.Path, "credential file path for the file store")
	fs.String("redis-url", d.Redis.URL, "redis URL for the redis store")
	fs.String("log-level", d.Log.Level, "log level: debug, info, warn or error")
	fs.String("log-format", d.Log.Format, "log format: json or text")
}

// Load builds the configuration from every source. A missing YAML file is not an error.
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()

	if path != "" {
		k := koanf.New(".")
		err := k.Load(file.Provider(path), yaml.Parser())
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, oops.Code("CONFIG_FILE_INVALID").With("path", path).Wrap(err)
		default:
			if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
				return Config{}, oops.Code("CONFIG_FILE_INVALID").With("path", path).Wrap(err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_ENV_INVALID").Wrap(err)
	}

	if flags != nil {
		k := koanf.New(".")
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
		if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
			return Config{}, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if c.Storage.Type == StorageRedis && c.Redis.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("redis.url is required for the redis store")
	}
	if c.Realtime.Enabled && c.Realtime.Port == c.Server.Port {
		return oops.Code("CONFIG_INVALID").
			With("port", c.Server.Port).
			Errorf("realtime.port must differ from server.port")
	}
	return nil
}
