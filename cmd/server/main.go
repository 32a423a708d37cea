package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/lost-found/internal/api"
	"github.com/dom/lost-found/internal/config"
	"github.com/dom/lost-found/internal/service"
	"github.com/dom/lost-found/internal/storage"
	"github.com/dom/lost-found/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize database
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := storage.Open(connectCtx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	cancelConnect()

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize services
	services := service.NewServices(store.Repos, cfg, hub)

	// Initialize router
	router := api.NewRouter(services, hub, cfg, store)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s (%s)", cfg.Port, cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("ERROR [main] server forced to shutdown: %v", err)
	}
	hub.Stop()
	if err := store.Close(ctx); err != nil {
		log.Printf("ERROR [main] failed to close database: %v", err)
	}

	log.Println("Server stopped")
}
