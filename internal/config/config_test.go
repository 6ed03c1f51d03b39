package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func TestFromLookup_ParsesAndDefaults(t *testing.T) {
	cfg := FromLookup(MapLookup(map[string]string{
		"SUPABASE_URL":      " https://xyz.supabase.co ",
		"SUPABASE_KEY":      "anon",
		"LOG_DIR":           "./_testlogs",
		"CHECK_TIMEOUT_MS":  "1234",
		"RETRY_ATTEMPTS":    "3",
		"RETRY_BACKOFF_MS":  "250",
		"SLACK_WEBHOOK_URL": "https://hooks.example/x",
	}))

	if cfg.ServiceURL != "https://xyz.supabase.co" || cfg.ServiceKey != "anon" {
		t.Fatalf("url/key wrong: %+v", cfg)
	}
	if cfg.LogDir != "./_testlogs" || cfg.Addr != "127.0.0.1:8080" {
		t.Fatalf("logdir/addr wrong: %+v", cfg)
	}
	if cfg.Timeout != 1234*time.Millisecond || cfg.RetryAttempts != 3 || cfg.RetryBackoff != 250*time.Millisecond {
		t.Fatalf("timing wrong: %+v", cfg)
	}
	if cfg.SlackWebhook == "" {
		t.Fatalf("expected SlackWebhook set")
	}

	def := FromLookup(MapLookup(nil))
	if def.Timeout != 10*time.Second || def.RetryAttempts != 1 || def.LogDir != "logs" {
		t.Fatalf("defaults wrong: %+v", def)
	}
}

func TestFromLookup_FallbackNames(t *testing.T) {
	cfg := FromLookup(MapLookup(map[string]string{
		"SERVICE_URL": "https://svc.example",
		"SERVICE_KEY": "k",
	}))
	if cfg.ServiceURL != "https://svc.example" || cfg.ServiceKey != "k" {
		t.Fatalf("fallbacks not used: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	if err := (Config{ServiceURL: "u", ServiceKey: "k"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := Config{ServiceKey: "abc"}.Validate()
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("want *ConfigurationError, got %T", err)
	}
	if len(ce.Missing) != 1 || ce.Missing[0] != EnvURL {
		t.Fatalf("missing wrong: %v", ce.Missing)
	}

	err = Config{}.Validate()
	if !errors.As(err, &ce) || len(ce.Missing) != 2 {
		t.Fatalf("want both missing, got %v", err)
	}
	if n := len(multierr.Errors(ce.Err)); n != 2 {
		t.Fatalf("want 2 wrapped errors, got %d", n)
	}
}

func TestLoadEnvFile_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("SUPABASE_URL=https://from-file\nCONNECTCHECK_TEST_ONLY=yes\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SUPABASE_URL", "https://from-env")
	t.Setenv("CONNECTCHECK_TEST_ONLY", "")
	os.Unsetenv("CONNECTCHECK_TEST_ONLY")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("SUPABASE_URL"); got != "https://from-env" {
		t.Fatalf("env overridden by file: %q", got)
	}
	if got := os.Getenv("CONNECTCHECK_TEST_ONLY"); got != "yes" {
		t.Fatalf("file value not loaded: %q", got)
	}

	if err := LoadEnvFile(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}
