package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"musewave/cache"
	"musewave/config"
	"musewave/core/entropy"
	"musewave/core/media"
	"musewave/core/pipeline"
	"musewave/core/prompt"
	"musewave/core/suggest"
	"musewave/core/synth"
	"musewave/core/visual"
	"musewave/db"
	"musewave/logger"
	"musewave/model"
	"musewave/repository"
	"musewave/storage"

	"github.com/gorilla/mux"
)

// Start initializes dependencies, wires the pipeline and runs the HTTP server
// until SIGINT/SIGTERM.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.InfoLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  30 * time.Second,
		// Generation runs the full pipeline inside one request.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	if err := storage.InitMinio(cfg); err != nil {
		log.Fatalf("Failed to initialize MinIO: %v", err)
	}

	if err := db.ConnectDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.CloseDB()

	if err := db.ConnectRedis(cfg); err != nil {
		// Redis only backs suggestion dedupe; the pipeline works without it.
		logger.Warn("Redis unavailable, suggestion dedupe disabled", logger.ErrorField(err))
	} else {
		defer db.CloseRedis()
	}

	if err := db.AutoMigrateModels(&model.ProjectRecord{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	projectRepo := repository.NewMySQLProjectRepository(db.DB)

	suggestClient := suggest.NewClient(&suggest.Config{
		APIBaseURL:  cfg.SuggestAPIURL,
		APIKey:      cfg.SuggestAPIKey,
		Model:       cfg.SuggestModel,
		MaxAttempts: cfg.SuggestMaxAttempts,
	})
	composer := prompt.NewComposer(suggestClient, cache.NewSuggestionCache(db.RedisClient))

	synthClient := synth.NewClient(&synth.Config{
		APIURL:      cfg.MusicGenAPIURL,
		APIKey:      cfg.MusicGenAPIKey,
		MaxAttempts: cfg.MusicGenMaxAttempts,
	})

	publisher := storage.NewPublisher(storage.GetMinioClient(), cfg.MinioBucket, cfg.MinioPublicBaseURL)

	orchestrator := pipeline.NewOrchestrator(
		entropy.NewSource(),
		composer,
		synthClient,
		media.NewNormalizer(cfg.FFmpegPath),
		visual.NewEngine(cfg.FFmpegPath),
		media.NewMuxer(cfg.FFmpegPath),
		publisher,
		projectRepo,
	)

	apiHandler := NewAPIHandler(orchestrator, projectRepo, cfg)

	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	router.HandleFunc("/api/generate", apiHandler.GenerateHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/projects", apiHandler.ListProjectsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/projects/window", apiHandler.ListProjectsWindowHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		apiHandler.GetProjectHandler(w, r, mux.Vars(r)["id"])
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/health", apiHandler.HealthHandler).Methods(http.MethodGet)

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
