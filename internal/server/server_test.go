package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"interlude/internal/media"
	"interlude/internal/notify"
	"interlude/internal/player/rest"
	"interlude/internal/store"
	"interlude/internal/structure"
	"interlude/internal/testsupport"
)

type fixture struct {
	store *store.Store
	hub   *notify.Hub
	ts    *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	hub := notify.NewHub(nil)
	t.Cleanup(hub.Close)

	srv, err := New(cfg, st, hub, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return &fixture{store: st, hub: hub, ts: ts}
}

func (f *fixture) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(f.ts.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

func (f *fixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(f.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)
	resp := f.get(t, "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Fatalf("unexpected health body: %#v", body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestUserSyncAndSettingsFlow(t *testing.T) {
	f := newFixture(t)

	resp := f.postJSON(t, "/api/users/sync", media.SyncInput{
		AuthUID: "uid-web", Email: "web@example.com", DisplayName: "Web",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sync returned %d", resp.StatusCode)
	}
	var user store.User
	decodeBody(t, resp, &user)
	if user.ID == 0 {
		t.Fatalf("expected created user, got %#v", user)
	}

	resp = f.get(t, "/api/users/me/uid-web")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("user lookup returned %d", resp.StatusCode)
	}
	var fetched store.User
	decodeBody(t, resp, &fetched)
	if fetched.ID != user.ID || fetched.Email != "web@example.com" {
		t.Fatalf("unexpected user: %#v", fetched)
	}

	resp = f.get(t, fmt.Sprintf("/api/settings/%d", user.ID))
	var settings store.UserSettings
	decodeBody(t, resp, &settings)
	if settings.MasterVolume != 10 || settings.SubtitleSize != store.SubtitleMedium {
		t.Fatalf("expected defaults, got %#v", settings)
	}

	patch := []byte(`{"masterVolume":3}`)
	req, _ := http.NewRequest(http.MethodPut, f.ts.URL+fmt.Sprintf("/api/settings/%d", user.ID), bytes.NewReader(patch))
	req.Header.Set("Content-Type", "application/json")
	putResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT settings failed: %v", err)
	}
	decodeBody(t, putResp, &settings)
	if settings.MasterVolume != 3 || settings.MusicVolume != 10 || !settings.Subtitles {
		t.Fatalf("partial update wrong: %#v", settings)
	}

	bad := []byte(`{"masterVolume":11}`)
	req, _ = http.NewRequest(http.MethodPut, f.ts.URL+fmt.Sprintf("/api/settings/%d", user.ID), bytes.NewReader(bad))
	req.Header.Set("Content-Type", "application/json")
	badResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT settings failed: %v", err)
	}
	badResp.Body.Close()
	if badResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range volume, got %d", badResp.StatusCode)
	}
}

func TestProgressEndpoints(t *testing.T) {
	f := newFixture(t)
	userID, gameID, episodeID := testsupport.SeedCatalog(t, f.store)

	resp := f.get(t, fmt.Sprintf("/api/progress/%d/%d", userID, episodeID))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for absent progress, got %d", resp.StatusCode)
	}
	raw := make([]byte, 16)
	n, _ := resp.Body.Read(raw)
	resp.Body.Close()
	if strings.TrimSpace(string(raw[:n])) != "null" {
		t.Fatalf("expected JSON null body, got %q", raw[:n])
	}

	commit := store.ProgressUpdate{
		UserID: userID, EpisodeID: episodeID, GameID: gameID,
		CurrentNodeID: "n2", Completed: true,
		Choices: []store.ChoiceEntry{{NodeID: "n1", ChoiceID: "c1"}},
	}
	resp = f.postJSON(t, "/api/progress", commit)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("commit returned %d", resp.StatusCode)
	}
	var saved store.UserProgress
	decodeBody(t, resp, &saved)
	if saved.CurrentNodeID != "n2" || !saved.Completed {
		t.Fatalf("unexpected commit response: %#v", saved)
	}

	resp = f.get(t, fmt.Sprintf("/api/progress/%d/%d", userID, episodeID))
	var fetched store.UserProgress
	decodeBody(t, resp, &fetched)
	if fetched.CurrentNodeID != "n2" || len(fetched.Choices) != 1 {
		t.Fatalf("round trip diverged: %#v", fetched)
	}

	resp = f.get(t, fmt.Sprintf("/api/progress/recent/%d", userID))
	var recent []store.RecentPlay
	decodeBody(t, resp, &recent)
	if len(recent) != 1 || recent[0].EpisodeTitle == "" {
		t.Fatalf("unexpected recent rail: %#v", recent)
	}

	bad := store.ProgressUpdate{UserID: userID, EpisodeID: episodeID, CurrentNodeID: "ghost"}
	resp = f.postJSON(t, "/api/progress", bad)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown node, got %d", resp.StatusCode)
	}
}

func TestEpisodeEndpoints(t *testing.T) {
	f := newFixture(t)
	_, gameID, _ := testsupport.SeedCatalog(t, f.store)

	input := media.EpisodeInput{
		GameID: gameID, Title: "Second Chapter", SeasonNumber: 1, EpisodeNumber: 2,
		Structure: testsupport.SampleStructure(),
	}
	resp := f.postJSON(t, "/api/episodes", input)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create episode returned %d", resp.StatusCode)
	}
	var created media.EpisodeDetail
	decodeBody(t, resp, &created)

	resp = f.get(t, fmt.Sprintf("/api/episodes/%d", created.ID))
	var detail media.EpisodeDetail
	decodeBody(t, resp, &detail)
	if detail.Structure == nil || detail.Structure.StartNodeID != "n1" {
		t.Fatalf("expected structure in detail, got %#v", detail.Structure)
	}

	broken := media.EpisodeInput{
		GameID: gameID, Title: "Broken", SeasonNumber: 1, EpisodeNumber: 3,
		Structure: &structure.Structure{
			StartNodeID: "a",
			Nodes: map[string]structure.VideoNode{
				"a": {VideoURL: "https://cdn.example/a.mp4",
					Choices: []structure.Choice{{ID: "c", Text: "t", NextNodeID: "void"}}},
			},
		},
	}
	resp = f.postJSON(t, "/api/episodes", broken)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for dangling edge, got %d", resp.StatusCode)
	}

	resp = f.get(t, "/api/episodes/99999")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing episode, got %d", resp.StatusCode)
	}
}

func TestGameSearchEndpoint(t *testing.T) {
	f := newFixture(t)

	for _, title := range []string{"Café Noir", "Midnight Run"} {
		resp := f.postJSON(t, "/api/games", media.GameInput{Title: title, Description: "d"})
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create game returned %d", resp.StatusCode)
		}
	}

	resp := f.get(t, "/api/games/search?q=cafe")
	var games []store.Game
	decodeBody(t, resp, &games)
	if len(games) != 1 || games[0].Title != "Café Noir" {
		t.Fatalf("unexpected search result: %#v", games)
	}
}

func TestWebSocketProgressFeed(t *testing.T) {
	f := newFixture(t)
	userID, gameID, episodeID := testsupport.SeedCatalog(t, f.store)

	wsURL := "ws" + strings.TrimPrefix(f.ts.URL, "http") + fmt.Sprintf("/api/ws/progress?userId=%d", userID)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	commit := store.ProgressUpdate{
		UserID: userID, EpisodeID: episodeID, GameID: gameID, CurrentNodeID: "n1",
		Choices: []store.ChoiceEntry{{NodeID: "n1", ChoiceID: "c2"}},
	}
	postResp := f.postJSON(t, "/api/progress", commit)
	postResp.Body.Close()
	if postResp.StatusCode != http.StatusOK {
		t.Fatalf("commit returned %d", postResp.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var evt notify.ProgressEvent
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if evt.UserID != userID || evt.EpisodeID != episodeID || evt.NodeID != "n1" {
		t.Fatalf("unexpected event: %#v", evt)
	}
}

func TestRESTGatewayAgainstServer(t *testing.T) {
	f := newFixture(t)
	userID, gameID, episodeID := testsupport.SeedCatalog(t, f.store)

	client, err := rest.NewClient(f.ts.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	ctx := context.Background()

	detail, err := client.Episode(ctx, episodeID)
	if err != nil {
		t.Fatalf("Episode failed: %v", err)
	}
	if detail.Structure == nil || detail.Structure.StartNodeID != "n1" {
		t.Fatalf("unexpected episode detail: %#v", detail)
	}

	absent, err := client.Progress(ctx, userID, episodeID)
	if err != nil {
		t.Fatalf("Progress failed: %v", err)
	}
	if absent != nil {
		t.Fatalf("expected nil progress, got %#v", absent)
	}

	saved, err := client.Save(ctx, store.ProgressUpdate{
		UserID: userID, EpisodeID: episodeID, GameID: gameID, CurrentNodeID: "n2", Completed: true,
		Choices: []store.ChoiceEntry{{NodeID: "n1", ChoiceID: "c1"}},
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.CurrentNodeID != "n2" || !saved.Completed {
		t.Fatalf("unexpected saved progress: %#v", saved)
	}

	_, err = client.Save(ctx, store.ProgressUpdate{
		UserID: userID, EpisodeID: episodeID, CurrentNodeID: "ghost",
	})
	if !errors.Is(err, media.ErrValidation) {
		t.Fatalf("expected validation mapping for 400, got %v", err)
	}

	settings, err := client.Settings(ctx, userID)
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if settings.MasterVolume != 10 {
		t.Fatalf("unexpected settings: %#v", settings)
	}

	volume := 6
	updated, err := client.UpdateSettings(ctx, userID, store.SettingsPatch{MasterVolume: &volume})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	if updated.MasterVolume != 6 {
		t.Fatalf("patch lost: %#v", updated)
	}

	recent, err := client.Recent(ctx, userID)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected one recent play, got %#v", recent)
	}
}
