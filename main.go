package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"cinetrack/api"
	"cinetrack/config"
	"cinetrack/handlers"
	"cinetrack/internal/database"
	"cinetrack/services/metadata"
	"cinetrack/services/resolver"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("[main] %v", err)
	}
}

func run() error {
	settings, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	setupLogging(settings.Log.File)

	db, err := openDatabase(settings.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	users := database.NewUserRepository(db.Connection())
	movies := database.NewMovieRepository(db.Connection())

	meta := metadata.NewService(metadata.Config{
		OMDBAPIKey:   settings.OMDB.APIKey,
		GeminiAPIKey: settings.Gemini.APIKey,
		GeminiModel:  settings.Gemini.Model,
		CacheDir:     settings.Cache.Dir,
		CacheTTL:     settings.Cache.TTL,
	})
	res := resolver.NewService(meta, movies)

	router := newRouter(settings, users, movies, meta, res)

	srv := &http.Server{
		Addr:         settings.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[main] listening on %s", settings.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Printf("[main] received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Println("[main] shutdown complete")
	return nil
}

// setupLogging routes logs through a rotating file when one is configured,
// mirroring to stderr so systemd/docker logs stay useful.
func setupLogging(file string) {
	if file == "" {
		return
	}
	rotator := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
}

// openDatabase retries the initial open so the server survives starting
// before a mounted data volume is ready.
func openDatabase(path string) (*database.DB, error) {
	var db *database.DB
	err := retry.Do(
		func() error {
			var err error
			db, err = database.NewDB(database.Config{DatabasePath: path})
			return err
		},
		retry.Attempts(5),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[main] database open attempt %d failed: %v", n+1, err)
		}),
	)
	return db, err
}

func newRouter(settings *config.Settings, users *database.UserRepository, movies *database.MovieRepository, meta *metadata.Service, res *resolver.Service) *mux.Router {
	usersHandler := handlers.NewUsersHandler(users)
	moviesHandler := handlers.NewMoviesHandler(movies, users)
	resolveHandler := handlers.NewResolveHandler(res, users)
	metadataHandler := handlers.NewMetadataHandler(meta)

	router := mux.NewRouter()
	router.Use(
		api.RecoveryMiddleware(),
		api.RequestIDMiddleware(),
		api.LoggingMiddleware(),
		api.CORSMiddleware(settings.Server.ExtraOrigins),
		api.RateLimitMiddleware(api.NewIPRateLimiter(rate.Limit(10), 30)),
	)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/users", usersHandler.List).Methods(http.MethodGet)
	router.HandleFunc("/api/users", usersHandler.Create).Methods(http.MethodPost)
	router.HandleFunc("/api/users/{userID}", usersHandler.Delete).Methods(http.MethodDelete)

	router.HandleFunc("/api/users/{userID}/movies", moviesHandler.List).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{userID}/movies", resolveHandler.AddMovie).Methods(http.MethodPost)
	router.HandleFunc("/api/users/{userID}/movies/{movieID}", moviesHandler.Update).Methods(http.MethodPatch)
	router.HandleFunc("/api/users/{userID}/movies/{movieID}", moviesHandler.Delete).Methods(http.MethodDelete)

	// external metadata endpoints get a tighter budget than the rest of the API
	suggestLimiter := api.NewIPRateLimiter(rate.Every(2*time.Second), 10)
	router.Handle("/api/users/{userID}/suggestions",
		api.RateLimitHandler(suggestLimiter, http.HandlerFunc(resolveHandler.Suggest))).Methods(http.MethodPost)
	router.Handle("/api/users/{userID}/suggestions/accept",
		api.RateLimitHandler(suggestLimiter, http.HandlerFunc(resolveHandler.Accept))).Methods(http.MethodPost)
	router.Handle("/api/metadata/{imdbID}",
		api.RateLimitHandler(suggestLimiter, http.HandlerFunc(metadataHandler.LookupByID))).Methods(http.MethodGet)

	return router
}
