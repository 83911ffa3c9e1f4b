package seed_test

import (
	"context"
	"testing"

	"interlude/internal/media"
	"interlude/internal/seed"
	"interlude/internal/testsupport"
)

func TestApplySeedsEmptyCatalogOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	catalog := media.NewCatalogService(st, nil)
	ctx := context.Background()

	if err := seed.Apply(ctx, catalog, nil); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	games, err := catalog.ListGames(ctx)
	if err != nil {
		t.Fatalf("ListGames failed: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("expected one seeded game, got %d", len(games))
	}

	episodes, err := catalog.ListEpisodes(ctx, games[0].ID)
	if err != nil {
		t.Fatalf("ListEpisodes failed: %v", err)
	}
	if len(episodes) != 1 || !episodes[0].IsFree {
		t.Fatalf("expected one free seeded episode, got %#v", episodes)
	}

	// Second run must not duplicate the sample content.
	if err := seed.Apply(ctx, catalog, nil); err != nil {
		t.Fatalf("repeat Apply failed: %v", err)
	}
	games, err = catalog.ListGames(ctx)
	if err != nil {
		t.Fatalf("ListGames failed: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("repeat seed duplicated catalog: %d games", len(games))
	}
}

func TestSampleEpisodeIsValid(t *testing.T) {
	if err := seed.SampleEpisode().Validate(); err != nil {
		t.Fatalf("sample structure invalid: %v", err)
	}
}
