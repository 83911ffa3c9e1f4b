package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"interlude/internal/config"
	"interlude/internal/daemon"
	"interlude/internal/logging"
	"interlude/internal/store"
	"interlude/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	daemon     *daemon.Daemon
	address    string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Server.SeedSampleOnBoot = true
	configPath := writeTestConfig(t, cfg)

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	d, err := daemon.New(cfg, st, logging.NewNop())
	if err != nil {
		st.Close()
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close daemon: %v", err)
		}
	})

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	return &cliTestEnv{
		cfg:        cfg,
		store:      st,
		daemon:     d,
		address:    d.Addr(),
		configPath: configPath,
	}
}

func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()

	raw, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, address, configPath string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	var flags []string
	if address != "" {
		flags = append(flags, "--address", address)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got %q", want, output)
	}
}

func TestStatusAndCatalogCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Status:  ok")

	out, _, err = runCLI(t, []string{"games"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("games: %v", err)
	}
	requireContains(t, out, "Shadow over the Grid")

	games, err := env.store.ListGames(context.Background())
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("expected 1 seeded game, got %d", len(games))
	}
	gameID := games[0].ID

	out, _, err = runCLI(t, []string{"episodes", strconv.FormatInt(gameID, 10)}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("episodes: %v", err)
	}
	requireContains(t, out, "The Beginning")
	requireContains(t, out, "S01E01")

	episodes, err := env.store.ListEpisodes(context.Background(), gameID)
	if err != nil {
		t.Fatalf("list episodes: %v", err)
	}
	if len(episodes) != 1 {
		t.Fatalf("expected 1 seeded episode, got %d", len(episodes))
	}
}

func TestSimulateCommandWalksAndCommits(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	user, err := env.store.CreateUser(ctx, store.User{AuthUID: "uid-sim", Email: "sim@example.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	games, err := env.store.ListGames(ctx)
	if err != nil || len(games) == 0 {
		t.Fatalf("seeded game missing: %v", err)
	}
	episodes, err := env.store.ListEpisodes(ctx, games[0].ID)
	if err != nil || len(episodes) == 0 {
		t.Fatalf("seeded episode missing: %v", err)
	}
	episodeID := episodes[0].ID

	// The sample episode loops back to its start node from both choices, so a
	// scripted walk takes one hop and stops at the next choice point.
	out, _, err := runCLI(t, []string{
		"simulate",
		"--user", strconv.FormatInt(user.ID, 10),
		"--episode", strconv.FormatInt(episodeID, 10),
		"--choices", "c1",
	}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	requireContains(t, out, "chose c1")
	requireContains(t, out, "Stopped at choice point")

	progress, err := env.store.GetProgress(ctx, user.ID, episodeID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if progress == nil {
		t.Fatal("expected committed progress after simulate")
	}
	if len(progress.Choices) != 1 {
		t.Fatalf("expected 1 recorded choice, got %d", len(progress.Choices))
	}

	// A second run resumes from the saved cursor.
	out, _, err = runCLI(t, []string{
		"simulate",
		"--user", strconv.FormatInt(user.ID, 10),
		"--episode", strconv.FormatInt(episodeID, 10),
	}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("resume simulate: %v", err)
	}
	requireContains(t, out, "Resuming from saved cursor")
}

func TestSimulateRejectsMissingFlags(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"simulate", "--episode", "1"}, env.address, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--user and --episode are required") {
		t.Fatalf("expected missing-flag error, got %v", err)
	}
}
