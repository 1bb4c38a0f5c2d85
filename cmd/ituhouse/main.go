// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/ituhouse/ituhouse-web/internal/api"
	"github.com/ituhouse/ituhouse-web/internal/cache"
	"github.com/ituhouse/ituhouse-web/internal/config"
	"github.com/ituhouse/ituhouse-web/internal/handler"
	"github.com/ituhouse/ituhouse-web/internal/imaging"
	"github.com/ituhouse/ituhouse-web/internal/logging"
	"github.com/ituhouse/ituhouse-web/internal/markdown"
	"github.com/ituhouse/ituhouse-web/internal/middleware"
	"github.com/ituhouse/ituhouse-web/internal/model"
	"github.com/ituhouse/ituhouse-web/internal/render"
	"github.com/ituhouse/ituhouse-web/internal/scheduler"
	"github.com/ituhouse/ituhouse-web/internal/session"
	"github.com/ituhouse/ituhouse-web/internal/store"
	"github.com/ituhouse/ituhouse-web/internal/version"
	"github.com/ituhouse/ituhouse-web/web"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "ituhouse-web - community frontend for the ituhouse API\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ITUHOUSE_SESSION_SECRET  Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ITUHOUSE_API_BASE_URL    Remote API base URL (default: http://localhost:8000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ITUHOUSE_DB_PATH         SQLite database path (default: ./data/ituhouse.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ITUHOUSE_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ITUHOUSE_ENV             Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ITUHOUSE_REDIS_URL       Redis URL for distributed caching (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("ituhouse-web %s (commit: %s, built: %s)\n", version.Version, version.GitCommit, version.BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the Event Log database
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	eventLogHandler := logging.NewEventLogHandler(textHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	// Backend API client
	client := api.New(cfg.APIBaseURL)
	slog.Info("api client initialized", "base_url", cfg.APIBaseURL)

	// Cache backend (memory or Redis)
	cacheBackend, err := cache.New(cfg)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = cacheBackend.Close() }()
	if cfg.UseRedisCache() {
		slog.Info("cache initialized", "backend", "redis", "url", cfg.RedisURL)
	} else {
		slog.Info("cache initialized", "backend", "memory")
	}

	// Session manager and store
	sessionManager := session.NewManager(db, cfg.IsDevelopment())
	sessions := session.NewStore(sessionManager, client, cacheBackend, time.Duration(cfg.CacheTTL)*time.Second)
	slog.Info("session manager initialized")

	// Template renderer
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	// Markdown renderer and image processor
	md := markdown.NewRenderer()
	processor := imaging.NewProcessor(cfg.UploadMaxEdge)

	// Scheduler for event pruning and cache stats
	sched := scheduler.New(db, cacheBackend, logger, cfg.EventRetentionDays)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Handlers
	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	frontendHandler := handler.NewFrontendHandler(client, renderer, sessions, md, cfg.PostsPageSize)
	authHandler := handler.NewAuthHandler(client, renderer, sessions, loginProtection)
	aboutHandler := handler.NewAboutHandler(client, renderer, sessions, md, cacheBackend, time.Duration(cfg.CacheTTL)*time.Second)
	profileHandler := handler.NewProfileHandler(client, renderer, sessions, cfg.PostsPageSize)
	uploadHandler := handler.NewUploadHandler(client, sessions, processor, cfg.UploadMaxBytes)
	adminHandler := handler.NewAdminHandler(client, db, renderer, sessions)
	healthHandler := handler.NewHealthHandler(db)

	// Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.RequestPath)
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret)[:32], cfg.IsDevelopment())))
	r.Use(middleware.LoadUser(sessions))
	r.Use(middleware.Locale(sessions))

	// Static assets
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Public pages
	r.Get(handler.RouteRoot, frontendHandler.Home)
	r.Get(handler.RoutePosts, frontendHandler.PostsFeed)
	r.Get(handler.RoutePostsNew, frontendHandler.NewPostForm)
	r.Post(handler.RoutePosts, frontendHandler.CreatePost)
	r.Get(handler.RoutePostsID, frontendHandler.PostDetail)
	r.Post(handler.RoutePostsIDComments, frontendHandler.CreateComment)

	// Auth
	r.Get(handler.RouteLogin, authHandler.LoginForm)
	r.Post(handler.RouteLogin, authHandler.Login)
	r.Get(handler.RouteRegister, authHandler.RegisterForm)
	r.Post(handler.RouteRegister, authHandler.Register)
	r.Post(handler.RouteRegister+"/request-code", authHandler.RequestCode)
	r.Post(handler.RouteLogout, authHandler.Logout)

	// About page and section editor
	r.Get(handler.RouteAbout, aboutHandler.Page)
	r.Post(handler.RouteAbout+"/select", aboutHandler.Select)
	r.Post(handler.RouteAbout+"/edit", aboutHandler.Edit)
	r.Post(handler.RouteAbout+"/save", aboutHandler.Save)
	r.Post(handler.RouteAbout+"/cancel", aboutHandler.Cancel)
	r.Post(handler.RouteAbout+"/create", aboutHandler.Create)
	r.Post(handler.RouteAbout+"/delete", aboutHandler.Delete)

	// Authenticated pages
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get(handler.RouteProfile, profileHandler.Page)
		r.Post(handler.RouteProfile+"/preferences", profileHandler.UpdatePreferences)
		r.Post(handler.RouteUploadsImages, uploadHandler.UploadImage)
	})

	// Admin pages
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(model.RoleAdmin))
		r.Get(handler.RouteAdminEvents, adminHandler.Events)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(model.RoleSuperAdmin))
		r.Post(handler.RouteAdminUsersIDRole, adminHandler.UpdateUserRole)
	})

	r.Get(handler.RouteHealthz, healthHandler.Healthz)

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
