package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"reelplay/internal/config"
	"reelplay/internal/database"
	"reelplay/internal/handlers"
	"reelplay/internal/repository"
	"reelplay/internal/security"
	"reelplay/internal/service"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to TOML config file")
	flag.Parse()

	// A missing .env is fine; env vars may come from the host.
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()
	log.WithField("type", cfg.DatabaseType).Info("database connection established")

	if err := db.RunMigrations(); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}
	log.Info("migrations completed")

	userRepo := repository.NewUserRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	boardRepo := repository.NewLeaderboardRepository(db)
	puzzleRepo := repository.NewPuzzleRepository(db)

	emailService, err := service.NewEmailService(cfg.SESRegion, cfg.SESFromEmail, cfg.SESFromName, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize email service")
	}

	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.TokenDuration)
	authService := service.NewAuthService(userRepo, tokens, emailService, log)
	boardService := service.NewLeaderboardService(boardRepo)
	statsService := service.NewStatsService(statsRepo)
	puzzleService := service.NewPuzzleService(puzzleRepo, log)

	if err := puzzleService.SeedFromDir(cfg.PuzzleDir); err != nil {
		log.WithError(err).Warn("puzzle seeding failed")
	}

	router := handlers.NewRouter(cfg, authService, boardService, statsService, puzzleService, log)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown was not clean")
	}
}
