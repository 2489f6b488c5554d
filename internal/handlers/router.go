package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/sirupsen/logrus"

	"reelplay/internal/config"
	"reelplay/internal/service"
)

// NewRouter assembles the full API surface. Submission routes require a
// bearer token and are rate limited per IP; board and puzzle reads work
// anonymously.
func NewRouter(cfg *config.Config, auth *service.AuthService, boards *service.LeaderboardService, stats *service.StatsService, puzzles *service.PuzzleService, log *logrus.Logger) http.Handler {
	authHandler := NewAuthHandler(auth, log)
	boardHandler := NewLeaderboardHandler(boards, log)
	statsHandler := NewStatsHandler(stats, log)
	puzzleHandler := NewPuzzleHandler(puzzles, log)
	authMiddleware := NewAuthMiddleware(auth)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.SubmitRateLimit, time.Minute))
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Required)
		r.Delete("/account", authHandler.DeleteAccount)
	})

	r.Route("/leaderboard", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Required)
			r.Use(httprate.LimitByIP(cfg.SubmitRateLimit, time.Minute))
			r.Post("/daily", boardHandler.SubmitDaily)
			r.Post("/streak", boardHandler.SubmitStreak)
		})
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Optional)
			r.Get("/daily", boardHandler.GetDaily)
			r.Get("/streak", boardHandler.GetStreak)
		})
	})

	r.Route("/stats", func(r chi.Router) {
		r.Use(authMiddleware.Required)
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(cfg.SubmitRateLimit, time.Minute))
			r.Post("/", statsHandler.Push)
		})
		r.Get("/", statsHandler.Get)
	})

	r.Get("/puzzle", puzzleHandler.Get)

	return r
}
