package cli

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/samber/oops"
)

// EnvPrefix prefixes the CLI's environment variables
const EnvPrefix = "MPCTL"

// Config holds CLI configuration. Environment variables set the defaults
// (MPCTL_SERVER, MPCTL_REALTIME, MPCTL_TOKEN, MPCTL_TOKEN_FILE, MPCTL_OUTPUT,
// MPCTL_TIMEOUT); persistent flags override them.
type Config struct {
	Server    string
	Realtime  string
	Token     string
	TokenFile string `split_words:"true"`
	Output    string
	Timeout   time.Duration
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Server:    "http://localhost:3003",
		Realtime:  "ws://localhost:3004/ws",
		TokenFile: defaultTokenFile(),
		Output:    "text",
		Timeout:   10 * time.Second,
	}
}

// LoadConfig applies environment overrides to the defaults
func LoadConfig() (*Config, error) {
	c := DefaultConfig()
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return nil, oops.Code("CLI_CONFIG_INVALID").Wrap(err)
	}
	return c, nil
}

// LoadToken loads the token from file if not already set
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No token file is fine
		}
		return oops.Code("TOKEN_FILE_UNREADABLE").With("path", c.TokenFile).Wrap(err)
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken saves the token to the token file
func (c *Config) SaveToken(token string) error {
	c.Token = token

	dir := filepath.Dir(c.TokenFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return oops.Code("TOKEN_FILE_UNWRITABLE").With("path", c.TokenFile).Wrap(err)
	}

	if err := os.WriteFile(c.TokenFile, []byte(token), 0600); err != nil {
		return oops.Code("TOKEN_FILE_UNWRITABLE").With("path", c.TokenFile).Wrap(err)
	}
	return nil
}

// ClearToken forgets the saved token
func (c *Config) ClearToken() error {
	c.Token = ""
	if err := os.Remove(c.TokenFile); err != nil && !os.IsNotExist(err) {
		return oops.Code("TOKEN_FILE_UNWRITABLE").With("path", c.TokenFile).Wrap(err)
	}
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mpctl/token"
	}
	return filepath.Join(home, ".mpctl", "token")
}
