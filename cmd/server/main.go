// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"visitflow/internal/hub"
	"visitflow/internal/platform/config"
	"visitflow/internal/platform/httpserver"
	"visitflow/internal/platform/logger"
	"visitflow/internal/platform/metrics"
	httptransport "visitflow/internal/transport/http"
	"visitflow/internal/visitor/service"
	"visitflow/internal/visitor/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	registry, cleanup, err := buildRegistry(cfg)
	if err != nil {
		log.Error("registry setup failed", "error", err.Error())
		os.Exit(1)
	}
	defer cleanup()

	visits := service.New(registry, log, m)
	notifier := hub.NewNotifier()
	visitHub := hub.New(visits, notifier, log, m)

	handler := httptransport.NewHandler(visits, log, cfg.HandlerTimeout)
	wsHandler := hub.NewWSHandler(visitHub, log, cfg.SendTimeout, cfg.HandlerTimeout)
	router := httptransport.NewRouter(handler, wsHandler)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting visitflow", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		visitHub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	}
}

// buildRegistry selects the registry backend: Postgres when a DSN is
// configured, in-memory otherwise.
func buildRegistry(cfg config.Server) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		return store.NewInMemoryStore(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if _, err := db.ExecContext(ctx, store.Schema); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store.NewPostgresStore(db), func() { _ = db.Close() }, nil
}
