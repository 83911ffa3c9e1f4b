package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"

	"interlude/internal/config"
	"interlude/internal/logging"
	"interlude/internal/media"
	"interlude/internal/notify"
	"interlude/internal/seed"
	"interlude/internal/server"
	"interlude/internal/store"
)

// Daemon owns the server process lifecycle and enforces single-instance
// execution over a shared database.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	store *store.Store
	hub   *notify.Hub
	api   *server.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	Address      string `json:"address"`
	DBPath       string `json:"dbPath"`
	LockFilePath string `json:"lockFilePath"`
}

// New constructs a daemon with an opened store and wired services.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	hub := notify.NewHub(logger)
	api, err := server.New(cfg, st, hub, logger)
	if err != nil {
		return nil, fmt.Errorf("build api server: %w", err)
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    st,
		hub:      hub,
		api:      api,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, seeds the sample catalog when configured,
// and brings the API up. It returns once the server is listening.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another interlude daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if d.cfg.Server.SeedSampleOnBoot {
		catalog := media.NewCatalogService(d.store, d.logger)
		if err := seed.Apply(runCtx, catalog, d.logger); err != nil {
			d.release()
			return fmt.Errorf("seed catalog: %w", err)
		}
	}

	if err := d.api.Start(runCtx); err != nil {
		d.release()
		return err
	}

	d.running.Store(true)
	d.logger.Info("interlude daemon started",
		"lock", d.lockPath,
		"address", d.api.Addr())
	return nil
}

// Stop shuts the API down, closes the hub, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.Stop()
	d.hub.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("interlude daemon stopped")
}

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports runtime information for CLI inspection.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Address:      d.api.Addr(),
		DBPath:       d.store.Path(),
		LockFilePath: d.lockPath,
	}
}

// Addr returns the bound API address once started.
func (d *Daemon) Addr() string {
	return d.api.Addr()
}

func (d *Daemon) release() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	_ = d.lock.Unlock()
}
