package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"giantylive-web/internal/apiclient"
	"giantylive-web/internal/audit"
	"giantylive-web/internal/auth"
	"giantylive-web/internal/config"
	"giantylive-web/internal/database"
	"giantylive-web/internal/event"
	"giantylive-web/internal/feed"
	"giantylive-web/internal/handler"
	"giantylive-web/internal/locale"
	"giantylive-web/internal/logger"
	"giantylive-web/internal/metrics"
	"giantylive-web/internal/repository"
	"giantylive-web/internal/router"
	"giantylive-web/internal/service"
	"giantylive-web/internal/session"
	"giantylive-web/internal/view"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LogFormat, cfg.LogLevel))

	return Build(context.Background(), cfg)
}

// Build wires every component for cfg. Background workers stop when the
// returned App is closed.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	var cleanupFuncs []func()
	cleanup := func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			cleanupFuncs[i]()
		}
	}

	var (
		store  audit.Store
		health *handler.HealthHandler
	)
	if cfg.DatabaseURL != "" {
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		cleanupFuncs = append(cleanupFuncs, db.Close)

		if err := db.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}
		store = repository.NewSessionEventRepository(db.Pool)
		health = handler.NewHealthHandler(db)
		slog.Info("database ready")
	} else {
		slog.Info("DATABASE_URL not set, session events are logged only")
		health = handler.NewHealthHandler(nil)
	}

	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	cleanupFuncs = append(cleanupFuncs, stopWorkers)

	bus := event.NewBus()
	recorder := audit.NewRecorder(bus, store, collector)
	go recorder.Run(workerCtx)
	hub := feed.NewHub(bus)
	go hub.Run(workerCtx)

	client := apiclient.New(apiclient.Options{
		BaseURL:        cfg.APIBaseURL,
		Timeout:        cfg.APITimeout,
		TokenSource:    session.TokenFromContext,
		OnUnauthorized: expireSession(bus),
		Metrics:        collector,
	})

	users := service.NewUserService(client, bus)
	workspaces := service.NewWorkspaceService(client)
	glossaries := service.NewGlossaryService(client)
	chatHistory := service.NewChatHistoryService(client)
	conferences := service.NewConferenceService(client)
	manager := auth.NewManager(client, bus)

	catalog, err := view.LoadCatalog()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to load message catalog: %w", err)
	}
	for _, loc := range locale.All() {
		if missing := catalog.Missing(loc); len(missing) > 0 {
			slog.Warn("message catalog incomplete", "locale", loc, "missing", missing)
		}
	}
	renderer, err := view.New(catalog, view.NewSanitizer())
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}

	appRouter := router.New(cfg, collector, router.Handlers{
		Pages:         handler.NewPageHandler(manager, users, workspaces, glossaries, conferences, renderer),
		Session:       handler.NewSessionHandler(manager),
		Users:         handler.NewUserHandler(users),
		Workspaces:    handler.NewWorkspaceHandler(workspaces),
		Glossaries:    handler.NewGlossaryHandler(glossaries),
		ChatHistory:   handler.NewChatHistoryHandler(chatHistory),
		Conferences:   handler.NewConferenceHandler(conferences),
		SessionEvents: handler.NewSessionEventHandler(recorder, hub, manager),
		Health:        health,
		Metrics:       metrics.Handler(registry),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server:       server,
		cleanupFuncs: cleanupFuncs,
	}, nil
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.Close()

	slog.Info("server stopped")
	return nil
}

// Close stops background workers and releases the database pool.
func (a *App) Close() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}

// expireSession clears the request's cookies when the backend rejects its
// token. Requests that never carried a token are not reported.
func expireSession(bus event.Publisher) apiclient.UnauthorizedHook {
	return func(ctx context.Context) {
		_, hadToken := session.TokenFromContext(ctx)
		if !session.ClearFromContext(ctx) || !hadToken {
			return
		}
		bus.Publish(event.Event{
			Type:      event.TypeSessionExpired,
			Locale:    locale.FromContext(ctx).String(),
			RequestID: logger.RequestID(ctx),
			ClientIP:  logger.ClientIP(ctx),
		})
	}
}
