package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quizforge/quiz-service/internal/cache"
	"github.com/quizforge/quiz-service/internal/config"
	"github.com/quizforge/quiz-service/internal/handlers"
	"github.com/quizforge/quiz-service/internal/repositories"
	"github.com/quizforge/quiz-service/internal/repositories/filestore"
	"github.com/quizforge/quiz-service/internal/repositories/postgres"
	"github.com/quizforge/quiz-service/internal/services"
	"github.com/quizforge/quiz-service/internal/utils"
	"github.com/quizforge/quiz-service/internal/validator"
	"github.com/quizforge/quiz-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	// History store: postgres when configured, single-file JSON otherwise.
	var historyRepo repositories.HistoryRepository
	if cfg.DatabaseURL != "" {
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			logger.Error("database init failed", "error", err)
			os.Exit(1)
		}
		pgRepo := postgres.NewHistoryPostgreSQL(db)
		if err := pgRepo.Migrate(); err != nil {
			logger.Error("history migration failed", "error", err)
			os.Exit(1)
		}
		historyRepo = pgRepo
		logger.Info("using postgres history store")
	} else {
		historyRepo = filestore.NewHistoryFile(cfg.HistoryFile)
		logger.Info("using file history store", "path", cfg.HistoryFile)
	}

	// Redis bank cache; a missing Redis degrades to cacheless operation.
	var cacheService cache.CacheService
	if client, err := pkg.NewRedisClient(cfg); err != nil {
		logger.Warn("redis unavailable, bank cache disabled", "error", err)
		cacheService = cache.NewNoopCache()
	} else {
		cacheService = cache.NewRedisCache(client, slogger)
	}

	eventCfg := config.LoadEventConfig()
	publisher, err := eventCfg.CreateEventPublisher(slogger)
	if err != nil {
		logger.Error("event publisher init failed", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	v := validator.New()
	bankService := services.NewBankService(cacheService, slogger)
	sessionService := services.NewSessionService(
		historyRepo,
		bankService,
		publisher,
		slogger,
		v,
		time.Duration(cfg.GradingStepMillis)*time.Millisecond,
	)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(bankService, sessionService, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("quiz service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
}
