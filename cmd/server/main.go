package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/certlab/certlab-backend/internal/clock"
	"github.com/certlab/certlab-backend/internal/config"
	"github.com/certlab/certlab-backend/internal/database"
	"github.com/certlab/certlab-backend/internal/handler"
	"github.com/certlab/certlab-backend/internal/logger"
	"github.com/certlab/certlab-backend/internal/mailer"
	"github.com/certlab/certlab-backend/internal/repository"
	"github.com/certlab/certlab-backend/internal/router"
	"github.com/certlab/certlab-backend/internal/service"
	"github.com/certlab/certlab-backend/internal/validator"
	"github.com/certlab/certlab-backend/internal/websocket"
	"github.com/certlab/certlab-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("PostgreSQL connection failed")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer rdb.Close()

	validator.Setup()

	profileRepo := repository.NewProfileRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	subjectRepo := repository.NewSubjectRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	codeRepo := repository.NewCodeRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	resultRepo := repository.NewResultRepository(pool)

	var mail mailer.Mailer = mailer.NopMailer{}
	if cfg.MailerURL != "" {
		mail = mailer.NewHTTPMailer(cfg.MailerURL, cfg.MailerFrom, log)
	} else {
		log.Warn().Msg("No mailer configured, invitation email disabled")
	}

	sessionClock := clock.New(log)

	authSvc := service.NewAuthService(profileRepo, rdb, cfg, log)
	accessSvc := service.NewAccessService(codeRepo, profileRepo, log)
	examSvc := service.NewExamService(examRepo, subjectRepo, questionRepo, rdb, log)
	contentSvc := service.NewContentService(examRepo, subjectRepo, questionRepo, examSvc, log)
	codeSvc := service.NewCodeService(codeRepo, examRepo, mail, cfg, log)
	attemptSvc := service.NewAttemptService(
		attemptRepo, codeRepo, examRepo, subjectRepo, questionRepo,
		accessSvc, service.NewRedisSessionCache(rdb), sessionClock, log,
	)

	if err := examSvc.PrewarmAllCaches(ctx); err != nil {
		log.Error().Err(err).Msg("Cache prewarm failed")
	}
	if err := attemptSvc.RearmPendingTimers(ctx); err != nil {
		log.Error().Err(err).Msg("Timer restore failed")
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	go worker.NewAutosaveWorker(rdb, attemptRepo, log).Run(workerCtx)
	go worker.NewCleanupWorker(rdb, log).Run(workerCtx)

	engine := router.New(cfg, authSvc, router.Handlers{
		Auth:    handler.NewAuthHandler(authSvc),
		Exam:    handler.NewExamHandler(examSvc, resultRepo),
		Content: handler.NewContentHandler(contentSvc),
		Code:    handler.NewCodeHandler(codeSvc),
		Take:    handler.NewTakeHandler(attemptSvc, examSvc, resultRepo),
		WS:      websocket.NewSessionHandler(attemptSvc, cfg.AllowedOrigins, log),
	}, log)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	stopWorkers()
	sessionClock.Shutdown()
	log.Info().Msg("Server stopped")
}
