package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/ericogr/veilborn/internal/api"
	"github.com/ericogr/veilborn/internal/broadcast"
	"github.com/ericogr/veilborn/internal/logging"
	"github.com/ericogr/veilborn/internal/service"
	"github.com/ericogr/veilborn/internal/version"
)

const timeoutScanInterval = 5 * time.Second

func main() {
	env := loadEnvOrExit()
	if !logging.SetLevel(env.LogLevel) {
		logging.Warn("unknown log level; keeping info", nil, logging.Fields{"level": env.LogLevel})
	}
	info := version.Current()
	logging.Info("Starting veilborn", logging.Fields{"version": info.Version, "commit": info.Commit})
	cfg := loadConfigOrExit(env)
	repo := createRepositoryOrExit(env.DBPath, cfg.Cards)

	hub := broadcast.NewHub()
	svc := service.New(repo, service.Options{
		Narrator:         newNarrator(env, cfg),
		Images:           newImageGenerator(env),
		Publisher:        hub,
		NarrationTimeout: cfg.NarrationTimeout,
		ImageTimeout:     env.ImageTimeout,
		PlacementTimeout: cfg.PlacementTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background scanner: rounds whose placement deadline passed are
	// resolved with an empty board for the missing player, or the match
	// is closed when nobody submitted.
	go svc.RunTimeoutScanner(ctx, timeoutScanInterval)

	router := api.NewRouter(api.NewMatchHandler(svc, repo, hub))
	if err := serve(ctx, cfg.ServerAddress, router); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
	svc.Wait()
}
