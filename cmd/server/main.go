package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"liveboard/internal/api"
	"liveboard/internal/collaboration"
	"liveboard/internal/config"
	"liveboard/internal/db"
	"liveboard/internal/repository"
	"liveboard/internal/store"
	"liveboard/internal/telemetry"
)

func main() {
	log.Println("🚀 Starting Liveboard collaboration server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Initialize Jaeger tracing
	// Learning: Do this FIRST so all operations are traced
	jaegerShutdown, err := telemetry.InitJaeger("liveboard", cfg.JaegerEndpoint)
	if err != nil {
		log.Printf("⚠️  Failed to initialize Jaeger: %v (continuing without tracing)", err)
		jaegerShutdown = func(ctx context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := jaegerShutdown(ctx); err != nil {
			log.Printf("⚠️  Failed to shutdown Jaeger: %v", err)
		}
	}()

	// Initialize GORM database
	database, err := db.NewGorm(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStartup()

	// Shared presence store: Redis for multi-instance deployments, memory
	// for single-instance development.
	var kv store.KV
	if cfg.PresenceBackend == "redis" {
		redisKV, err := store.NewRedisKV(startupCtx, cfg)
		if err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		defer redisKV.Close()
		kv = redisKV
	} else {
		log.Println("⚠️  Using in-memory presence store (single instance only)")
		kv = store.NewMemoryKV()
	}

	presence := store.NewPresence(kv)

	// Ephemeral presence state never survives a restart
	if err := presence.Reset(startupCtx); err != nil {
		log.Printf("⚠️  Failed to reset presence state: %v", err)
	}

	// Initialize repositories
	docRepo := repository.NewDocumentRepository(database.DB)
	userRepo := repository.NewUserRepository(database.DB)

	// The single shared document must exist before anything else runs
	if err := docRepo.EnsureCurrent(startupCtx); err != nil {
		log.Fatalf("❌ Failed to initialize document: %v", err)
	}

	// Broadcast hub for real-time fan-out
	hub := collaboration.NewHub()
	hub.Start()

	// Session registry: the single writer of presence state
	registry := collaboration.NewSessionRegistry(presence, docRepo, userRepo, hub)

	// Initialize WebSocket handler
	wsHandler := collaboration.NewWebSocketHandler(hub, registry)

	// Initialize handlers with dependency injection
	handler := api.NewHandler(registry, docRepo)

	// Setup routes
	router := api.SetupRoutes(handler, wsHandler)

	// Configure HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	// Learning: This allows us to handle shutdown signals concurrently
	go func() {
		log.Printf("🌐 Server listening on http://%s", addr)
		log.Printf("📚 Endpoints:")
		log.Printf("   POST /api/login    - Mark a user online")
		log.Printf("   POST /api/logout   - Retract a user (force-closes their connection)")
		log.Printf("   GET  /api/document - Current shared document")
		log.Printf("   POST /api/document - Replace shared document")
		log.Printf("   WS   /ws           - Duplex collaboration channel")
		log.Println()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	// Close all active WebSocket connections
	hub.Shutdown()

	log.Println("✓ Server shutdown complete")
}
