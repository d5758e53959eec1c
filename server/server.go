package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"lukachat/config"
	"lukachat/core/llm"
	"lukachat/core/spotify"
	"lukachat/logger"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", logger.ErrorField(err))
	}

	llmClient := llm.NewClient(&llm.Config{
		APIBaseURL: cfg.GeminiAPIURL,
		APIKey:     cfg.GoogleAPIKey,
		Model:      cfg.ModelName,
	})

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	// Diagnostic listing of what the API key can see. Failure is not fatal.
	if names, err := llmClient.ListModels(startupCtx); err != nil {
		logger.Warn("Could not list models", logger.ErrorField(err))
	} else {
		if len(names) > 40 {
			names = names[:40]
		}
		for _, name := range names {
			logger.Debug("Available model", logger.String("name", name))
		}
	}

	modelName, err := llmClient.ResolveModel(startupCtx, cfg.ModelName)
	if err != nil {
		logger.Warn("Model resolution fell back to the first candidate - if this fails, set MODEL_NAME to a supported model id",
			logger.String("model", modelName),
			logger.ErrorField(err))
	}
	llmClient.SetModel(modelName)
	logger.Info("Selected model", logger.String("model", modelName))

	// Redis is optional and only shares the Spotify credential between
	// replicas. A missing or unreachable Redis degrades to in-memory.
	var tokenCache *redis.Client
	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("Redis unreachable, using in-memory token cache only", logger.ErrorField(err))
			rdb.Close()
		} else {
			tokenCache = rdb
			defer tokenCache.Close()
			logger.Info("Connected to Redis token cache")
		}
		cancelPing()
	}

	spotifyClient := spotify.NewClient(spotify.Config{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
	}, tokenCache)
	if !spotifyClient.Enabled() {
		logger.Info("Spotify credentials not configured, music enrichment disabled")
	}

	sessions := llm.NewSessionRegistry(llmClient)
	chatHandler := NewChatHandler(sessions, spotifyClient, llmClient)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/chat", chatHandler.HandleChat).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/health", chatHandler.HandleHealth).Methods(http.MethodGet, http.MethodOptions)

	server := &http.Server{
		Addr:        ":" + cfg.ServerPort,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// The write timeout must outlive a slow model dispatch.
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}

// corsMiddleware allows all origins for all routes. Permissive by design;
// production deployments should pin the frontend origin here.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
