package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"interlude/internal/testsupport"
)

func TestConfigInitCreatesSample(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite refusal, got %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "", "")
	if err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
}

func TestConfigShowAndValidate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"config", "show"}, "", configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "api_bind")
	requireContains(t, out, cfg.Paths.DataDir)

	out, _, err = runCLI(t, []string{"config", "validate"}, "", configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestSeedCommandIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"seed"}, "", configPath)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	requireContains(t, out, "Catalog ready: 1 game(s)")

	out, _, err = runCLI(t, []string{"seed"}, "", configPath)
	if err != nil {
		t.Fatalf("repeat seed: %v", err)
	}
	requireContains(t, out, "Catalog ready: 1 game(s)")
}

func TestValidateStructureCommand(t *testing.T) {
	tmp := t.TempDir()

	raw, err := testsupport.SampleStructure().Encode()
	if err != nil {
		t.Fatalf("encode structure: %v", err)
	}
	good := filepath.Join(tmp, "good.json")
	if err := os.WriteFile(good, raw, 0o644); err != nil {
		t.Fatalf("write structure: %v", err)
	}

	out, _, err := runCLI(t, []string{"validate", good}, "", "")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	requireContains(t, out, "Structure OK: 2 node(s)")
	requireContains(t, out, "Start node: n1")

	bad := filepath.Join(tmp, "bad.json")
	payload := `{"startNodeId":"a","nodes":{"a":{"videoUrl":"v","choices":[{"id":"c","text":"t","nextNodeId":"ghost"}]}}}`
	if err := os.WriteFile(bad, []byte(payload), 0o644); err != nil {
		t.Fatalf("write bad structure: %v", err)
	}

	_, _, err = runCLI(t, []string{"validate", bad}, "", "")
	if err == nil || !strings.Contains(err.Error(), "structure rejected") {
		t.Fatalf("expected integrity failure, got %v", err)
	}
}
