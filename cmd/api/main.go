package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	"uptimeline/config"
	"uptimeline/internals/app"
	"uptimeline/internals/server"
	"uptimeline/pkg/db"
	"uptimeline/pkg/logger"
)

func main() {
	configPath := flag.String("config", "env.yaml", "path to the YAML config file")
	resetSchema := flag.Bool("reset-schema", false, "roll back every migration and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Done closes on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.Init(cfg)
	log.Info().Msg("logger initialized")

	dbPool, err := db.ConnectToDB(ctx, &cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize db pool")
	}
	defer dbPool.Close()

	if *resetSchema {
		if err := db.RollbackAll(ctx, dbPool); err != nil {
			log.Fatal().Err(err).Msg("failed to roll back migrations")
		}
		log.Warn().Msg("schema rolled back")
		return
	}

	if cfg.DB.ApplySchema {
		if err := db.ApplyMigrations(ctx, dbPool, log); err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}

	container, err := app.NewContainer(ctx, dbPool, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependencies")
	}
	log.Info().Msg("dependencies initialized")

	app.StartConsumer(ctx, container)

	router := app.RegisterRoutes(container)
	log.Info().Msg("routes registered")

	srv := server.New(":"+strconv.Itoa(cfg.Port), router, log)
	srv.Start()

	if err := config.Watch(ctx, *configPath, log, container.ApplyTimelineConfig); err != nil {
		log.Warn().Err(err).Msg("config hot reload disabled")
	}

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	// 1. Stop accepting requests
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// 2. Drain the consumer and close infra, bounded
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := container.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dependencies shutdown failed")
	}

	log.Info().Msg("graceful shutdown complete")
}
