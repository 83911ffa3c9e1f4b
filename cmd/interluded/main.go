// Command interluded runs the interlude daemon: the SQLite-backed catalog
// store and the HTTP/WebSocket API that fronts it.
package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"interlude/internal/config"
	"interlude/internal/daemon"
	"interlude/internal/logging"
	"interlude/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return
	}

	d, err := daemon.New(cfg, st, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		st.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}
	logger.Info("interluded running", slog.String("address", d.Addr()))

	<-ctx.Done()
	logger.Info("interluded shutting down")
}
