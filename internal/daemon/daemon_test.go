package daemon_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"interlude/internal/daemon"
	"interlude/internal/store"
	"interlude/internal/testsupport"
)

func TestDaemonLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.SeedSampleOnBoot = true
	st := testsupport.MustOpenStore(t, cfg)

	d, err := daemon.New(cfg, st, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	status := d.Status()
	if !status.Running || status.Address == "" {
		t.Fatalf("unexpected status: %#v", status)
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/healthz", d.Addr()))
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health returned %d", resp.StatusCode)
	}

	// Boot seeding put the sample game in place.
	games, err := st.ListGames(ctx)
	if err != nil {
		t.Fatalf("ListGames failed: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("expected seeded catalog, got %d games", len(games))
	}

	// Second start on a running daemon is rejected.
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected stopped status")
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	first, err := daemon.New(cfg, st, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer first.Stop()

	secondStore, err := store.OpenPath(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open second store: %v", err)
	}
	defer secondStore.Close()

	second, err := daemon.New(cfg, secondStore, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected second instance to be rejected by the lock")
	}
}
