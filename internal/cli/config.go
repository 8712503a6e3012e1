package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tailscale/hujson"
)

// Backend kinds understood by openBackend.
const (
	BackendMemory    = "memory"
	BackendBadger    = "badger"
	BackendPebble    = "pebble"
	BackendFile      = "file"
	BackendRedis     = "redis"
	BackendRemote    = "remote"
	BackendBigcache  = "bigcache"
	BackendRistretto = "ristretto"
)

var (
	ErrUnknownBackend = errors.New("unknown backend")
	ErrMissingSetting = errors.New("missing setting")
)

// Config is the slotctl configuration. It is read from a JSON-with-comments
// file and then overridden by explicitly set command line flags.
type Config struct {
	Backend   string `json:"backend"`
	Path      string `json:"path,omitempty"`
	Name      string `json:"name,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	RedisAddr string `json:"redis_addr,omitempty"` //nolint:tagliatelle // snake_case for config file
	RemoteURL string `json:"remote_url,omitempty"` //nolint:tagliatelle // snake_case for config file
	Listen    string `json:"listen,omitempty"`
	LogLevel  string `json:"log_level,omitempty"` //nolint:tagliatelle // snake_case for config file

	// Timeout bounds one command; 0 means none.
	Timeout Duration `json:"timeout,omitempty"`
}

// Duration decodes from a Go duration string such as "5s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Backend:  BackendFile,
		Path:     "slots.cbor",
		Name:     "slotctl",
		Listen:   "127.0.0.1:7070",
		LogLevel: "info",
	}
}

// LoadConfig reads path on top of the defaults. A missing file is an error
// only when required is set.
func LoadConfig(path string, required bool) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return parseConfig(cfg, data)
}

func parseConfig(base Config, data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	cfg := base
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendBigcache, BackendRistretto:
		return nil
	case BackendBadger, BackendPebble, BackendFile:
		if c.Path == "" {
			return fmt.Errorf("%w: path for %s backend", ErrMissingSetting, c.Backend)
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr", ErrMissingSetting)
		}
	case BackendRemote:
		if c.RemoteURL == "" {
			return fmt.Errorf("%w: remote_url", ErrMissingSetting)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	return nil
}

// Format renders the config as indented JSON.
func (c Config) Format() (string, error) {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
