package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/outsider-backend/internal/archive"
	"github.com/DoyleJ11/outsider-backend/internal/config"
	"github.com/DoyleJ11/outsider-backend/internal/httpapi"
	"github.com/DoyleJ11/outsider-backend/internal/hub"
	"github.com/DoyleJ11/outsider-backend/internal/logging"
	"github.com/DoyleJ11/outsider-backend/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer log.Sync()

	var rec archive.Recorder = archive.Nop{}
	if cfg.DatabaseURL != "" {
		store, err := archive.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("archive: %w", err)
		}
		defer store.Close()
		rec = store
		log.Info("archiving finished games to postgres")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, hub.Options{
		Rules:    cfg.Rules(),
		Logger:   log,
		Recorder: rec,
	})

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(httpapi.Deps{
		Hub:      h,
		Recorder: rec,
		Logger:   log,
		WS: ws.Options{
			OriginPatterns: cfg.AllowedOrigins,
			MessageRate:    cfg.MessageRate,
			MessageBurst:   cfg.MessageBurst,
			OutboxSize:     cfg.OutboxSize,
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		h.Shutdown()

		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
