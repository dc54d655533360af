package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"EmotionalDiary/internal/config"
	"EmotionalDiary/internal/httpapi"
	"EmotionalDiary/internal/infrastructure/llm"
	"EmotionalDiary/internal/infrastructure/storage"
	"EmotionalDiary/internal/logging"
	"EmotionalDiary/internal/metrics"
	"EmotionalDiary/internal/ports"
	"EmotionalDiary/internal/usecase"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	logger *slog.Logger
	server *http.Server
	db     *sql.DB
}

// New builds the store, the Gemini client, the use cases and the HTTP API.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	loc := cfg.Journal.Location()
	m := metrics.New()

	store, db, err := openStore(ctx, cfg.Database, loc, baseLogger)
	if err != nil {
		return nil, err
	}

	auth, err := httpapi.NewAuthenticator(cfg.Auth.JWTSecret, baseLogger.With("component", "auth"))
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("auth: %w", err)
	}

	if cfg.Gemini.APIKey == "" {
		baseLogger.Warn("gemini api key is empty; analysis requests will fail")
	}
	gemini := llm.NewGeminiClient(cfg.Gemini, baseLogger.With("component", "gemini"), m)

	entries := usecase.NewEntryOrchestrator(usecase.EntryDeps{
		Store:    store,
		Analyzer: gemini,
		Location: loc,
		Logger:   baseLogger.With("component", "entries"),
		Metrics:  m,
	})
	stats := usecase.NewStatsAggregator(usecase.StatsDeps{
		Store:    store,
		Location: loc,
		Logger:   baseLogger.With("component", "stats"),
	})
	recommendations := usecase.NewRecommendationEngine(usecase.RecommendationDeps{
		Store:     store,
		Generator: gemini,
		Location:  loc,
		Logger:    baseLogger.With("component", "recommendations"),
	})

	handler := httpapi.NewServer(httpapi.Deps{
		Entries:         entries,
		Stats:           stats,
		Recommendations: recommendations,
		Auth:            auth,
		RateLimiter: httpapi.NewRateLimiter(
			cfg.HTTP.RateLimit.RequestsPerSecond,
			cfg.HTTP.RateLimit.Burst,
			baseLogger.With("component", "ratelimit"),
		),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Logger:         baseLogger.With("component", "http"),
		Metrics:        m,
	})

	return &Application{
		logger: baseLogger,
		db:     db,
		server: &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Run serves the API until ctx is cancelled, then drains in-flight requests.
func (a *Application) Run(ctx context.Context) error {
	defer closeDB(a.db)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// openStore picks Postgres when a DSN is configured and the in-memory store
// otherwise.
func openStore(ctx context.Context, cfg config.DatabaseConfig, loc *time.Location, logger *slog.Logger) (ports.EntryStore, *sql.DB, error) {
	if cfg.DSN == "" {
		logger.Warn("database dsn is empty; entries are kept in memory")
		return storage.NewMemoryRepository(loc), nil, nil
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(connectCtx); err != nil {
		closeDB(db)
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := storage.Migrate(connectCtx, db); err != nil {
		closeDB(db)
		return nil, nil, err
	}

	logger.Info("postgres store ready")
	return storage.NewPostgresRepository(db, loc), db, nil
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}
