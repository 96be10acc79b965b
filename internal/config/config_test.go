//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := Parse([]byte("ai:\n  provider: echo\n"), false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Server.RequestTimeout != 55*time.Second {
		t.Errorf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Store.Backend != "redis" || cfg.Store.TTL != 72*time.Hour {
		t.Errorf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.Jobs.Concurrency != 30 || cfg.Jobs.DefaultTargetLanguage != "zh-CN" {
		t.Errorf("unexpected jobs defaults: %+v", cfg.Jobs)
	}
	if cfg.AI.Model != "echo" || cfg.AI.MaxCompletionTokens != 1024 || cfg.AI.ConcurrentLimit != 16 {
		t.Errorf("unexpected ai defaults: %+v", cfg.AI)
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("DATABASE_URL", "postgres://env/db")
	cfg, err := Parse([]byte("store:\n  backend: postgres\nai:\n  openai_key: sk-file\n"), false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.AI.OpenAIKey != "sk-env" {
		t.Errorf("expected env key to win, got %q", cfg.AI.OpenAIKey)
	}
	if cfg.Database.URL != "postgres://env/db" {
		t.Errorf("expected env database url, got %q", cfg.Database.URL)
	}
}

func TestParse_Validation(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("DATABASE_URL", "")

	cases := []struct {
		name    string
		yaml    string
		dev     bool
		wantErr bool
	}{
		{"unknown backend", "store:\n  backend: s3\nai:\n  provider: echo\n", false, true},
		{"postgres without url", "store:\n  backend: postgres\nai:\n  provider: echo\n", false, true},
		{"openai without key", "store:\n  backend: memory\n", false, true},
		{"openai without key in dev", "store:\n  backend: memory\n", true, false},
		{"gemini without key", "ai:\n  provider: gemini\n", false, true},
		{"unknown provider", "ai:\n  provider: claude\n", false, true},
		{"short encryption key", "store:\n  encryption_key: short\nai:\n  provider: echo\n", false, true},
		{"valid sqlite", "store:\n  backend: sqlite\nai:\n  provider: echo\n", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml), tc.dev)
			if tc.wantErr && err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\nai:\n  provider: echo\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestParse_DefaultModelFollowsProvider(t *testing.T) {
	cases := map[string]string{
		"openai": "gpt-4o-mini",
		"gemini": "gemini-2.0-flash",
		"echo":   "echo",
	}
	for provider, want := range cases {
		cfg, err := Parse([]byte("ai:\n  provider: "+provider+"\n"), true)
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", provider, err)
		}
		if cfg.AI.Model != want {
			t.Errorf("%s: expected model %q, got %q", provider, want, cfg.AI.Model)
		}
	}
}
