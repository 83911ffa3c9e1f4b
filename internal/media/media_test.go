package media_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"interlude/internal/media"
	"interlude/internal/notify"
	"interlude/internal/store"
	"interlude/internal/structure"
	"interlude/internal/testsupport"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return testsupport.MustOpenStore(t, cfg)
}

func TestUserSyncCreatesAccountWithDefaults(t *testing.T) {
	st := newStore(t)
	users := media.NewUserService(st, nil)
	ctx := context.Background()

	user, err := users.Sync(ctx, media.SyncInput{AuthUID: "uid-9", Email: "nine@example.com", DisplayName: "Nine"})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	settings, err := st.GetSettings(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings == nil || settings.MasterVolume != 10 || settings.SubtitleSize != store.SubtitleMedium {
		t.Fatalf("expected default settings seeded, got %#v", settings)
	}

	again, err := users.Sync(ctx, media.SyncInput{AuthUID: "uid-9", Email: "changed@example.com", DisplayName: "Nine"})
	if err != nil {
		t.Fatalf("repeat Sync failed: %v", err)
	}
	if again.ID != user.ID {
		t.Fatalf("sync created a duplicate account: %d vs %d", again.ID, user.ID)
	}
	if again.Email != "changed@example.com" {
		t.Fatalf("sync did not refresh profile: %#v", again)
	}
}

func TestUserSyncRejectsBadInput(t *testing.T) {
	st := newStore(t)
	users := media.NewUserService(st, nil)

	_, err := users.Sync(context.Background(), media.SyncInput{AuthUID: "uid-x", Email: "not-an-email"})
	if !errors.Is(err, media.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	_, err = users.Get(context.Background(), "missing")
	if !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchGamesFoldsAccents(t *testing.T) {
	st := newStore(t)
	catalog := media.NewCatalogService(st, nil)
	ctx := context.Background()

	for _, title := range []string{"Éclipse Éternelle", "Shadow Protocol"} {
		if _, err := catalog.CreateGame(ctx, media.GameInput{Title: title, Description: "desc"}); err != nil {
			t.Fatalf("CreateGame(%q) failed: %v", title, err)
		}
	}

	hits, err := catalog.SearchGames(ctx, "eclipse")
	if err != nil {
		t.Fatalf("SearchGames failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Title != "Éclipse Éternelle" {
		t.Fatalf("expected folded match, got %#v", hits)
	}

	all, err := catalog.SearchGames(ctx, "   ")
	if err != nil {
		t.Fatalf("SearchGames failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("blank query should return full catalog, got %d", len(all))
	}
}

func TestCreateEpisodeValidatesStructure(t *testing.T) {
	st := newStore(t)
	catalog := media.NewCatalogService(st, nil)
	ctx := context.Background()

	game, err := catalog.CreateGame(ctx, media.GameInput{Title: "Broken", Description: "d"})
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}

	dangling := &structure.Structure{
		StartNodeID: "a",
		Nodes: map[string]structure.VideoNode{
			"a": {
				VideoURL: "https://cdn.example/a.mp4",
				Choices:  []structure.Choice{{ID: "c1", Text: "go", NextNodeID: "missing"}},
			},
		},
	}
	_, err = catalog.CreateEpisode(ctx, media.EpisodeInput{
		GameID: game.ID, Title: "Bad", SeasonNumber: 1, EpisodeNumber: 1, Structure: dangling,
	})
	if !errors.Is(err, media.ErrValidation) {
		t.Fatalf("expected structure rejection, got %v", err)
	}

	_, err = catalog.CreateEpisode(ctx, media.EpisodeInput{
		GameID: 9999, Title: "Orphan", SeasonNumber: 1, EpisodeNumber: 1,
		Structure: testsupport.SampleStructure(),
	})
	if !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("expected unknown game rejection, got %v", err)
	}

	detail, err := catalog.CreateEpisode(ctx, media.EpisodeInput{
		GameID: game.ID, Title: "Good", SeasonNumber: 1, EpisodeNumber: 1,
		Structure: testsupport.SampleStructure(),
	})
	if err != nil {
		t.Fatalf("CreateEpisode failed: %v", err)
	}

	fetched, err := catalog.GetEpisode(ctx, detail.ID)
	if err != nil {
		t.Fatalf("GetEpisode failed: %v", err)
	}
	if fetched.Structure.StartNodeID != "n1" {
		t.Fatalf("expected decoded graph, got %#v", fetched.Structure)
	}
	if _, ok := fetched.Structure.Node("n2"); !ok {
		t.Fatal("expected node n2 in decoded graph")
	}
}

func TestProgressSaveValidatesAgainstGraph(t *testing.T) {
	st := newStore(t)
	hub := notify.NewHub(nil)
	defer hub.Close()
	progress := media.NewProgressService(st, hub, nil)
	ctx := context.Background()

	userID, gameID, episodeID := testsupport.SeedCatalog(t, st)

	_, err := progress.Save(ctx, store.ProgressUpdate{
		UserID: userID, EpisodeID: episodeID, CurrentNodeID: "nope",
	})
	if !errors.Is(err, media.ErrValidation) {
		t.Fatalf("expected unknown node rejection, got %v", err)
	}

	// n1 has outgoing choices, so it cannot be a completion point.
	_, err = progress.Save(ctx, store.ProgressUpdate{
		UserID: userID, EpisodeID: episodeID, CurrentNodeID: "n1", Completed: true,
	})
	if !errors.Is(err, media.ErrValidation) {
		t.Fatalf("expected non-terminal completion rejection, got %v", err)
	}

	_, err = progress.Save(ctx, store.ProgressUpdate{
		UserID: userID, EpisodeID: episodeID, CurrentNodeID: "n2",
		Choices: []store.ChoiceEntry{{NodeID: "n1", ChoiceID: "bogus"}},
	})
	if !errors.Is(err, media.ErrValidation) {
		t.Fatalf("expected unknown choice rejection, got %v", err)
	}

	events, cancel := hub.Subscribe(notify.Filter{UserID: userID})
	defer cancel()

	saved, err := progress.Save(ctx, store.ProgressUpdate{
		UserID: userID, EpisodeID: episodeID, CurrentNodeID: "n2", Completed: true,
		Choices: []store.ChoiceEntry{{NodeID: "n1", ChoiceID: "c1"}},
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.GameID != gameID {
		t.Fatalf("expected game id filled from episode, got %d", saved.GameID)
	}

	select {
	case evt := <-events:
		if evt.EpisodeID != episodeID || evt.NodeID != "n2" || !evt.Completed {
			t.Fatalf("unexpected event: %#v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("expected progress event after commit")
	}
}

func TestProgressGetAbsentIsNil(t *testing.T) {
	st := newStore(t)
	progress := media.NewProgressService(st, nil, nil)

	userID, _, episodeID := testsupport.SeedCatalog(t, st)
	got, err := progress.Get(context.Background(), userID, episodeID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil progress for unplayed episode, got %#v", got)
	}
}

func TestSettingsPartialUpdate(t *testing.T) {
	st := newStore(t)
	settings := media.NewSettingsService(st, nil)
	ctx := context.Background()

	userID, _, _ := testsupport.SeedCatalog(t, st)

	// First access creates the default row.
	initial, err := settings.Get(ctx, userID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if initial.MusicVolume != 10 {
		t.Fatalf("unexpected defaults: %#v", initial)
	}

	volume := 4
	size := store.SubtitleLarge
	updated, err := settings.Update(ctx, userID, store.SettingsPatch{
		MasterVolume: &volume,
		SubtitleSize: &size,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.MasterVolume != 4 || updated.SubtitleSize != store.SubtitleLarge {
		t.Fatalf("patch not applied: %#v", updated)
	}
	if updated.MusicVolume != 10 || !updated.Subtitles {
		t.Fatalf("unpatched fields changed: %#v", updated)
	}

	over := 11
	if _, err := settings.Update(ctx, userID, store.SettingsPatch{MasterVolume: &over}); !errors.Is(err, media.ErrValidation) {
		t.Fatalf("expected volume bound rejection, got %v", err)
	}
	bad := "huge"
	if _, err := settings.Update(ctx, userID, store.SettingsPatch{SubtitleSize: &bad}); !errors.Is(err, media.ErrValidation) {
		t.Fatalf("expected subtitle size rejection, got %v", err)
	}

	if _, err := settings.Get(ctx, 404); !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("expected unknown user rejection, got %v", err)
	}
}
