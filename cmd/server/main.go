package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"streamvault/internal/checkpoint"
	"streamvault/internal/config"
	"streamvault/internal/handlers"
	"streamvault/internal/logging"
	"streamvault/internal/middleware"
	"streamvault/internal/retrieval"
	"streamvault/internal/services"
	"streamvault/pkg/auth"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting StreamVault Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Checkpointing: %v)", cfg.Port, cfg.CheckpointEnabled)

	// Checkpoint manager: buffers stream fragments and consolidates terminated
	// sessions into the configured backend. Runs in no-op mode when disabled.
	manager := checkpoint.NewManager(checkpoint.Config{
		Enabled:     cfg.CheckpointEnabled,
		DatabaseURL: cfg.CheckpointDBURL,
	})
	defer func() {
		if err := manager.Close(context.Background()); err != nil {
			log.Printf("⚠️ Error closing checkpoint backend: %v", err)
		}
	}()

	// Redis (optional - live event broadcast)
	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		var err error
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (event broadcast disabled)", err)
		} else {
			defer redisService.Close()
			manager.SetPublisher(services.NewBroadcastService(redisService))
			log.Println("✅ Stream event broadcast enabled")
		}
	}

	// Stale-session reaper (optional - catches streams that never terminate)
	var reaper *services.ReaperService
	if cfg.SessionTTL > 0 {
		var err error
		reaper, err = services.NewReaperService(manager.Buffer(), cfg.SessionTTL, cfg.ReaperInterval)
		if err != nil {
			log.Printf("⚠️ Failed to create session reaper: %v", err)
		} else if err := reaper.Start(); err != nil {
			log.Printf("⚠️ Failed to start session reaper: %v", err)
			reaper = nil
		}
	}

	// JWT auth (optional outside production)
	var jwtAuth *auth.LocalJWTAuth
	if cfg.JWTSecret != "" {
		var err error
		jwtAuth, err = auth.NewLocalJWTAuth(cfg.JWTSecret, 0)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
		log.Println("✅ JWT authentication enabled")
	} else {
		log.Println("⚠️  JWT_SECRET not set - authentication disabled (development mode only)")
	}

	// Retrieval provider (optional - knowledge-base enrichment)
	var retrievalProvider retrieval.Retriever
	if cfg.RetrievalConfigPath != "" {
		providerCfg, err := retrieval.LoadProviderConfig(cfg.RetrievalConfigPath)
		if err != nil {
			log.Printf("⚠️ Failed to load retrieval config: %v (retrieval disabled)", err)
		} else {
			retrievalProvider = retrieval.NewFastGPTProvider(providerCfg)
			log.Println("✅ Retrieval provider initialized")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "StreamVault v1.0",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    10 * 1024 * 1024, // large SSE frames in fragment bodies
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("streamvault")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	// Handlers
	healthHandler := handlers.NewHealthHandler(manager)
	streamHandler := handlers.NewStreamHandler(manager)
	conversationHandler := handlers.NewConversationHandler(manager)

	// Routes
	app.Get("/health", healthHandler.Check)

	api := app.Group("/api", middleware.LocalAuthMiddleware(jwtAuth))

	streams := api.Group("/streams")
	streams.Post("/:id/fragments", streamHandler.SubmitFragment)
	streams.Post("/:id/events", streamHandler.LogEvent)
	streams.Post("/:id/replay", streamHandler.RecordReplay)

	conversations := api.Group("/conversations")
	conversations.Get("/", conversationHandler.List)
	conversations.Get("/:id", conversationHandler.Get)

	if retrievalProvider != nil {
		retrievalHandler := handlers.NewRetrievalHandler(retrievalProvider)
		ret := api.Group("/retrieval")
		ret.Get("/resources", retrievalHandler.ListResources)
		ret.Post("/query", retrievalHandler.Query)
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if reaper != nil {
			if err := reaper.Shutdown(); err != nil {
				log.Printf("⚠️ Error stopping session reaper: %v", err)
			}
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
