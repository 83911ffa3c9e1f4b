// Package testsupport provides shared helpers for package tests: temp-dir
// configs, stores opened against throwaway databases, and catalog fixtures.
package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"interlude/internal/config"
	"interlude/internal/store"
	"interlude/internal/structure"
)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	return &cfg
}

// MustOpenStore opens a store for the given config and closes it with the test.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return st
}

// SampleStructure returns a small valid branching graph: a start node with a
// branch and a self-loop, plus a terminal node.
func SampleStructure() *structure.Structure {
	return &structure.Structure{
		StartNodeID: "n1",
		Nodes: map[string]structure.VideoNode{
			"n1": {
				VideoURL: "https://cdn.example/n1.mp4",
				Choices: []structure.Choice{
					{ID: "c1", Text: "Investigate the glitch", NextNodeID: "n2"},
					{ID: "c2", Text: "Ignore the warning", NextNodeID: "n1"},
				},
				Subtitles: []structure.Subtitle{
					{StartTime: 0, EndTime: 5, Text: "Systems offline."},
				},
			},
			"n2": {VideoURL: "https://cdn.example/n2.mp4"},
		},
	}
}

// SeedCatalog inserts a user, one game, and one episode with SampleStructure,
// returning their identifiers.
func SeedCatalog(t testing.TB, st *store.Store) (userID, gameID, episodeID int64) {
	t.Helper()
	ctx := context.Background()

	user, err := st.CreateUser(ctx, store.User{AuthUID: "uid-test", Email: "test@example.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	game, err := st.CreateGame(ctx, store.Game{
		Title:         "Shadow Protocol",
		Description:   "A dark mystery in a collapsing virtual space.",
		ThumbnailURL:  "https://cdn.example/thumb.jpg",
		BackgroundURL: "https://cdn.example/bg.jpg",
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	raw, err := SampleStructure().Encode()
	if err != nil {
		t.Fatalf("encode structure: %v", err)
	}
	episode, err := st.CreateEpisode(ctx, store.Episode{
		GameID:        game.ID,
		Title:         "The Beginning",
		Description:   "The first step into the dark.",
		SeasonNumber:  1,
		EpisodeNumber: 1,
		IsFree:        true,
		StructureJSON: string(raw),
	})
	if err != nil {
		t.Fatalf("create episode: %v", err)
	}

	return user.ID, game.ID, episode.ID
}
