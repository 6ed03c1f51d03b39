package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

// Names of the two required variables. The SERVICE_* names are accepted as
// fallbacks so the tool can be pointed at any compatible backend.
const (
	EnvURL         = "SUPABASE_URL"
	EnvKey         = "SUPABASE_KEY"
	EnvURLFallback = "SERVICE_URL"
	EnvKeyFallback = "SERVICE_KEY"
)

type Config struct {
	ServiceURL    string        // project URL, e.g. https://xyz.supabase.co
	ServiceKey    string        // anon or service-role key
	LogDir        string        // logs directory
	Timeout       time.Duration // per-probe timeout
	RetryAttempts int           // 1 means a single attempt
	RetryBackoff  time.Duration // wait between attempts
	SlackWebhook  string        // optional; failures are posted here
	Addr          string        // bind address for `serve`
}

// LookupFunc matches os.LookupEnv. Tests pass a map-backed function.
type LookupFunc func(key string) (string, bool)

// MapLookup returns a LookupFunc backed by m.
func MapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// FromEnv reads the process environment.
func FromEnv() Config {
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, applying defaults for optional values.
func FromLookup(lookup LookupFunc) Config {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := get(k); v != "" {
				return v
			}
		}
		return ""
	}

	logDir := get("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	addr := get("API_ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	timeout := 10 * time.Second
	if v := get("CHECK_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			timeout = time.Duration(ms) * time.Millisecond
		}
	}

	retryAttempts := 1
	if v := get("RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			retryAttempts = n
		}
	}

	retryBackoff := 300 * time.Millisecond
	if v := get("RETRY_BACKOFF_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			retryBackoff = time.Duration(ms) * time.Millisecond
		}
	}

	return Config{
		ServiceURL:    first(EnvURL, EnvURLFallback),
		ServiceKey:    first(EnvKey, EnvKeyFallback),
		LogDir:        logDir,
		Timeout:       timeout,
		RetryAttempts: retryAttempts,
		RetryBackoff:  retryBackoff,
		SlackWebhook:  get("SLACK_WEBHOOK_URL"),
		Addr:          addr,
	}
}

// LoadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ConfigurationError reports required values that are absent or empty.
type ConfigurationError struct {
	Missing []string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return "missing required configuration: " + strings.Join(e.Missing, ", ")
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ErrMissing is wrapped by every per-variable error inside a ConfigurationError.
var ErrMissing = errors.New("required value not set")

// Validate returns a *ConfigurationError if the URL or the key is empty.
func (c Config) Validate() error {
	var (
		err     error
		missing []string
	)
	if c.ServiceURL == "" {
		missing = append(missing, EnvURL)
		err = multierr.Append(err, fmt.Errorf("%s: %w", EnvURL, ErrMissing))
	}
	if c.ServiceKey == "" {
		missing = append(missing, EnvKey)
		err = multierr.Append(err, fmt.Errorf("%s: %w", EnvKey, ErrMissing))
	}
	if err == nil {
		return nil
	}
	return &ConfigurationError{Missing: missing, Err: err}
}
