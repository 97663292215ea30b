package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"study-assistant-be/internal/bootstrap"
	"study-assistant-be/internal/config"
	"study-assistant-be/internal/server"
	"study-assistant-be/internal/tracer"
	"study-assistant-be/pkg/corpus"
	"study-assistant-be/pkg/database"
	pktNats "study-assistant-be/pkg/nats"

	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Configuration
	cfg := config.Load()

	// 2. Database
	gormDB, err := database.NewGormDB(database.Options{DSN: cfg.Database.Connection, Debug: cfg.Database.Debug})
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}
	defer database.Close(gormDB)

	// 3. Container
	container, err := bootstrap.NewContainer(gormDB, cfg)
	if err != nil {
		log.Panicf("Unable to build container: %v", err)
	}
	defer container.Close()

	// 4. Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.Init(ctx, cfg.Tracing, cfg.App.Environment, container.Logger)
	defer shutdownTracer(context.Background())

	srv := server.New(cfg, container)

	// 5. Server and background workers share one lifetime
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		container.WebSocketHub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		return container.ConsumerService.Consume(gctx)
	})

	if container.CorpusWatcher != nil {
		g.Go(func() error {
			return container.CorpusWatcher.Run(gctx, func(change corpus.Change) {
				container.CorpusSync.OnCorpusChange(gctx, change)
			})
		})
	}

	if container.NatsSubscriber != nil {
		durable := pktNats.DurableName("study-assistant", cfg.App.InstanceName)
		if err := container.NatsSubscriber.Subscribe(gctx, durable, container.CorpusSync.OnRemoteEvent); err != nil {
			container.Logger.Warn("MAIN", "NATS subscription failed", map[string]interface{}{"error": err.Error()})
		}
	}

	g.Go(srv.Run)

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		container.Logger.Error("MAIN", "Stopped with error", map[string]interface{}{"error": err.Error()})
	}
}
