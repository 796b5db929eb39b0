package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"prompt-manager-core/internal/bootstrap"
	"prompt-manager-core/internal/config"
	"prompt-manager-core/internal/server"
	"prompt-manager-core/internal/tracer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Configuration (loads .env, which may enable tracing)
	cfg := config.Load()

	shutdownTracer := tracer.InitTracer(ctx)
	defer shutdownTracer(context.Background())

	// 2. Dependencies; the local store is migrated before anything is served
	container, err := bootstrap.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Unable to bootstrap: %v", err)
	}
	defer container.Close()

	// 3. Server and change stream
	srv, err := server.New(cfg, container)
	if err != nil {
		log.Fatalf("Unable to create server: %v", err)
	}
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Unable to start change stream: %v", err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
