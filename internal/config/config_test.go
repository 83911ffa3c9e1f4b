package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"interlude/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "interlude")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:8474" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Server.SeedSampleOnBoot {
		t.Fatal("expected sample seeding disabled by default")
	}
	if got := cfg.DatabasePath(); got != filepath.Join(wantData, "interlude.db") {
		t.Fatalf("unexpected database path: %q", got)
	}
}

func TestLoadReadsFileAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		`api_bind = "127.0.0.1:0"`,
		"[logging]",
		`level = "DEBUG"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected level normalized to debug, got %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad bind", "[paths]\napi_bind = \"nonsense\"\n"},
		{"bad format", "[logging]\nformat = \"xml\"\n"},
		{"bad rate limit", "[server]\nrequests_per_minute = 0\n"},
		{"negative retries", "[player]\ncommit_retries = -1\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSampleConfigNotEmpty(t *testing.T) {
	if !strings.Contains(config.SampleConfig(), "[paths]") {
		t.Fatal("sample config should document the paths section")
	}
}
