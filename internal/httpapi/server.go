// Package httpapi exposes the diary use cases over a JSON HTTP API.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"EmotionalDiary/internal/domain"
	"EmotionalDiary/internal/metrics"
)

// EntryService is the entry lifecycle the API drives.
type EntryService interface {
	Create(ctx context.Context, userID int64, draft domain.Draft) (domain.JournalEntry, error)
	Update(ctx context.Context, userID, entryID int64, draft domain.Draft) (domain.JournalEntry, error)
	Get(ctx context.Context, userID, entryID int64) (domain.JournalEntry, error)
	List(ctx context.Context, userID int64) ([]domain.JournalEntry, error)
}

// StatsService produces weekly statistics.
type StatsService interface {
	WeeklyStats(ctx context.Context, userID int64) (domain.WeeklyStats, error)
}

// RecommendationService produces wellness suggestions.
type RecommendationService interface {
	Recommendations(ctx context.Context, userID int64) ([]domain.RecommendationItem, error)
}

// Deps wires the server.
type Deps struct {
	Entries         EntryService
	Stats           StatsService
	Recommendations RecommendationService
	Auth            *Authenticator
	RateLimiter     *RateLimiter
	AllowedOrigins  []string
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
}

// Server routes API requests to the use cases.
type Server struct {
	entries         EntryService
	stats           StatsService
	recommendations RecommendationService
	logger          *slog.Logger
	router          chi.Router
}

// NewServer builds the router:
//
//	POST /api/v1/diary               create today's entry
//	GET  /api/v1/diary               list own entries
//	GET  /api/v1/diary/{id}          fetch one entry
//	PUT  /api/v1/diary/{id}          update an entry
//	GET  /api/v1/stats/weekly        weekly statistics
//	GET  /api/v1/stats/recommendations
//	GET  /healthz, GET /metrics
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		entries:         deps.Entries,
		stats:           deps.Stats,
		recommendations: deps.Recommendations,
		logger:          logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(instrument(logger, deps.Metrics))
	r.Use(cors(deps.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", deps.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Auth != nil {
			r.Use(deps.Auth.Middleware)
		}
		r.Use(deps.RateLimiter.Middleware)
		r.Use(requireUser)

		r.Route("/diary", func(r chi.Router) {
			r.Post("/", s.createEntry)
			r.Get("/", s.listEntries)
			r.Get("/{id}", s.getEntry)
			r.Put("/{id}", s.updateEntry)
		})
		r.Get("/stats/weekly", s.weeklyStats)
		r.Get("/stats/recommendations", s.getRecommendations)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFrom(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
