package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"focusdo/handlers"
	"focusdo/reminder"
	"focusdo/services"
	"focusdo/store"
	"focusdo/tasks"
)

func main() {
	// Load environment variables from .env file if one exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to load .env file", "err", err)
	}

	cfg := LoadConfig()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	// Initialize the task store
	taskStore, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Fatal("failed to initialize store", "err", err)
	}
	defer closeStore()

	// Initialize services
	taskService := tasks.NewService(taskStore, logger)
	authService := services.NewAuthService(cfg.AuthPassword, cfg.JWTSecret)

	// Initialize WebSocket hub
	hub := services.NewHub(logger)
	go hub.Run()

	// Start the appointment reminder scanner
	scanner := reminder.NewScanner(taskService, hub, logger, time.Local)
	if err := scanner.Start(cfg.ScanInterval); err != nil {
		logger.Fatal("failed to start reminder scanner", "err", err)
	}
	defer scanner.Stop()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, logger)
	taskHandler := handlers.NewTaskHandler(taskService, hub, logger)
	configHandler := handlers.NewConfigHandler(handlers.ClientConfig{
		ReminderGraceMinutes: int(reminder.DefaultGrace.Minutes()),
		ScanIntervalSeconds:  int(cfg.ScanInterval.Seconds()),
		StreakThreshold:      tasks.StreakThreshold,
		AuthEnabled:          authService.Enabled(),
	})
	authMiddleware := handlers.NewAuthMiddleware(authService)

	// Setup router
	r := mux.NewRouter()

	// Auth routes
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/verify", authHandler.VerifyToken).Methods("GET")

	// Config and the event stream stay outside the auth guard: the client
	// needs them before it can log in, and the browser WebSocket API
	// cannot set an Authorization header. Events are broadcast-only.
	r.HandleFunc("/api/config", configHandler.GetConfig).Methods("GET")
	r.HandleFunc("/api/ws", taskHandler.HandleWebSocket)

	// Task routes (protected when a password is configured)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Auth)
	api.HandleFunc("/tasks", taskHandler.ListTasks).Methods("GET")
	api.HandleFunc("/tasks", taskHandler.SaveTask).Methods("POST")
	api.HandleFunc("/tasks/archived", taskHandler.ListArchived).Methods("GET")
	api.HandleFunc("/tasks/{id}/start", taskHandler.StartTask).Methods("POST")
	api.HandleFunc("/tasks/{id}/stop", taskHandler.StopTask).Methods("POST")
	api.HandleFunc("/tasks/{id}/complete", taskHandler.CompleteTask).Methods("POST")
	api.HandleFunc("/tasks/{id}/restore", taskHandler.RestoreTask).Methods("POST")
	api.HandleFunc("/tasks/{id}", taskHandler.DeleteTask).Methods("DELETE")
	api.HandleFunc("/archive/cleanup", taskHandler.CleanupArchive).Methods("POST")
	api.HandleFunc("/streak", taskHandler.GetStreak).Methods("GET")

	// Static file server for frontend
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir)))

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // In production, change to your domain
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", "err", err)
		}
	}()

	// Wait for a shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}

// openStore builds the configured storage backend.
func openStore(cfg Config) (tasks.Store, func(), error) {
	switch cfg.StoreDriver {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		s, err := store.NewJSONStore(cfg.StoreDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}
