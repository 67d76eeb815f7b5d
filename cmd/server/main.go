package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"sinispace-backend/internal/api"
	"sinispace-backend/internal/attachments"
	"sinispace-backend/internal/config"
	"sinispace-backend/internal/handlers"
	"sinispace-backend/internal/llm"
	"sinispace-backend/internal/services"
	"sinispace-backend/internal/store/postgres"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, keeping info")
	}
	logger.Info("Configuration loaded successfully")

	// 2. Initialize Database Connection Pool
	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	dbpool, err := pgxpool.New(dbCtx, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("Unable to create database connection pool")
	}
	defer dbpool.Close()

	if err := dbpool.Ping(dbCtx); err != nil {
		logger.WithError(err).Fatal("Unable to ping database")
	}
	logger.Info("Database connection pool established")

	// 3. Initialize Dependencies (Store, Providers, Services, Handlers)
	pgStore := postgres.NewPostgresStore(dbpool)

	var openAIClient llm.Client
	if cfg.OpenAIAPIKey != "" {
		openAIClient = llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		logger.Info("OpenAI provider configured")
	} else {
		logger.Warn("OPENAI_API_KEY not set, OpenAI-family models disabled")
	}

	var googleAIClient llm.Client
	if cfg.GeminiAPIKey != "" {
		client, err := llm.NewGoogleAIClient(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize Gemini provider")
		}
		googleAIClient = client
		logger.Info("Gemini provider configured")
	} else {
		logger.Warn("GEMINI_API_KEY not set, Gemini models disabled")
	}

	providers := llm.NewRegistry(openAIClient, googleAIClient)

	resolver := attachments.NewResolver(
		cfg.UploadDir,
		cfg.UploadURLPath,
		&http.Client{Timeout: 15 * time.Second},
		cfg.AttachmentFailMode == config.FailHard,
		logger,
	)

	authService := services.NewAuthService(pgStore, cfg, logger)
	chatService := services.NewChatService(pgStore, logger)
	streamService := services.NewStreamService(pgStore, providers, resolver, logger)
	uploadService, err := services.NewUploadService(cfg.UploadDir, cfg.UploadURLPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize upload area")
	}

	authHandler := handlers.NewAuthHandler(authService)
	chatHandler := handlers.NewChatHandlers(chatService)
	streamHandler := handlers.NewStreamHandlers(streamService, logger)
	uploadHandler := handlers.NewUploadHandlers(uploadService, cfg.MaxUploadBytes, logger)

	// 4. Setup Router & Inject Dependencies
	router := api.NewRouter(api.RouterDependencies{
		AuthHandler:   authHandler,
		ChatHandler:   chatHandler,
		StreamHandler: streamHandler,
		UploadHandler: uploadHandler,
		Config:        cfg,
	})

	// 5. Configure and Start HTTP Server
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
		// WriteTimeout stays unset: the stream endpoint keeps its response
		// open for the whole provider generation.
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.WithField("port", cfg.HTTPPort).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server listener failed")
		}
	}()

	<-stopChan
	logger.Info("Shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("Server graceful shutdown failed")
	}

	logger.Info("Server shutdown complete")
}
