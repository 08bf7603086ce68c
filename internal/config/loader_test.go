package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "base_url: http://127.0.0.1:9999\napi_key: k1\nmodel: m1\ntemperature: 0.5\ntop_p: 0.9\nmax_tokens: 64\ntimeout_seconds: 30\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://127.0.0.1:9999" || cfg.APIKey != "k1" || cfg.Model != "m1" ||
		cfg.MaxTokens != 64 || cfg.TimeoutSeconds != 30 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0.5 || cfg.TopP == nil || *cfg.TopP != 0.9 {
		t.Fatalf("sampling fields: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"base_url":"http://h:7070","model":"m2","max_tokens":42}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://h:7070" || cfg.Model != "m2" || cfg.MaxTokens != 42 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "base_url=\"http://h:8081\"\nmodel=\"m3\"\ntemperature=1.0\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "http://h:8081" || cfg.Model != "m3" || cfg.Temperature == nil || *cfg.Temperature != 1.0 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestOverlayEnv(t *testing.T) {
	t.Setenv("CHATCTL_BASE_URL", "http://env:1234")
	t.Setenv("CHATCTL_API_KEY", "env-key")
	t.Setenv("CHATCTL_TIMEOUT_SECONDS", "7")
	cfg := Config{BaseURL: "http://file:1", APIKey: "file-key", Model: "m1"}.OverlayEnv()
	if cfg.BaseURL != "http://env:1234" || cfg.APIKey != "env-key" {
		t.Fatalf("env overlay missed: %+v", cfg)
	}
	if cfg.Model != "m1" {
		t.Fatalf("unset env must not clobber: %+v", cfg)
	}
	if cfg.Timeout() != 7*time.Second {
		t.Fatalf("timeout=%s", cfg.Timeout())
	}
}

func TestOverlayEnvSampling(t *testing.T) {
	t.Setenv("CHATCTL_TEMPERATURE", "0")
	t.Setenv("CHATCTL_TOP_P", "0.3")
	t.Setenv("CHATCTL_MAX_TOKENS", "96")
	cfg := Config{}.OverlayEnv()
	if cfg.Temperature == nil || *cfg.Temperature != 0 {
		t.Fatalf("temperature: %+v", cfg.Temperature)
	}
	if cfg.TopP == nil || *cfg.TopP != 0.3 {
		t.Fatalf("top_p: %+v", cfg.TopP)
	}
	if cfg.MaxTokens != 96 {
		t.Fatalf("max_tokens=%d", cfg.MaxTokens)
	}
}

func TestFill(t *testing.T) {
	cfg := Config{Model: "m9"}.Fill(Default())
	if cfg.BaseURL != "http://127.0.0.1:8080" || cfg.Model != "m9" {
		t.Fatalf("fill: %+v", cfg)
	}
	if *cfg.Temperature != 0.7 || *cfg.TopP != 0.8 || cfg.MaxTokens != 200 || cfg.TimeoutSeconds != 120 {
		t.Fatalf("defaults: %+v", cfg)
	}
}

// An explicit 0 is a valid deterministic-sampling choice and must not be
// replaced by the default.
func TestFillKeepsExplicitZeroSampling(t *testing.T) {
	cfg := Config{Temperature: f64(0), TopP: f64(0)}.Fill(Default())
	if *cfg.Temperature != 0 {
		t.Fatalf("temperature clobbered: %v", *cfg.Temperature)
	}
	if *cfg.TopP != 0 {
		t.Fatalf("top_p clobbered: %v", *cfg.TopP)
	}
}
