package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"medisync/internal/archive"
	"medisync/internal/auth"
	"medisync/internal/cache"
	"medisync/internal/config"
	"medisync/internal/db"
	"medisync/internal/feed"
	"medisync/internal/handler"
	"medisync/internal/notify"
	"medisync/internal/repository"
	"medisync/internal/router"
	"medisync/internal/service"
)

// application holds the wired components and what must be closed on exit.
type application struct {
	cfg    *config.Config
	logger zerolog.Logger

	store      *repository.Store
	jwtService *auth.JWTService
	tokenStore *auth.TokenStore
	identity   auth.IdentityProvider
	hub        *feed.Hub
	statusLog  *service.StatusLog

	sessions  service.SessionService
	patients  service.PatientService
	tasks     service.TaskService
	users     service.UserService
	dashboard service.DashboardService

	closers []io.Closer
}

func build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*application, error) {
	app := &application{cfg: cfg, logger: logger}

	store, err := app.openStore()
	if err != nil {
		return nil, err
	}
	app.store = store

	c := app.openCache(ctx)
	mailer, err := app.openMailer()
	if err != nil {
		app.Close()
		return nil, err
	}
	archiver, err := app.openArchiver(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.hub = feed.NewHub(logger)
	publishers := []feed.Publisher{app.hub}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kafka := feed.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		app.closers = append(app.closers, kafka)
		publishers = append(publishers, kafka)
		logger.Info().Strs("brokers", brokers).Str("topic", cfg.KafkaTopic).Msg("kafka change feed enabled")
	}
	publisher := feed.NewMulti(logger, publishers...)

	app.jwtService = auth.NewJWTService(cfg.JWTSecret)
	app.tokenStore = auth.NewTokenStore(c)
	app.identity = auth.NewLocalProvider(store.Identities, app.tokenStore, mailer)
	app.statusLog = service.NewStatusLog(store.StatusChanges, logger)

	app.sessions = service.NewSessionService(app.identity, store.Users, app.jwtService, app.tokenStore, logger)
	app.patients = service.NewPatientService(store.Patients, store.Tasks, store.StatusChanges, app.statusLog, publisher, archiver, logger)
	app.tasks = service.NewTaskService(store.Tasks, store.Patients, store.Users, app.statusLog, publisher, logger)
	app.users = service.NewUserService(store.Users, app.identity, mailer, c, app.tokenStore, publisher, logger)
	app.dashboard = service.NewDashboardService(store.Patients, store.Tasks)
	return app, nil
}

func (a *application) openStore() (*repository.Store, error) {
	if a.cfg.DBDriver == "memory" {
		a.logger.Warn().Msg("using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), nil
	}

	gormDB, err := db.Open(a.cfg.DBDriver, a.cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("database init: %w", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		return nil, err
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		a.closers = append(a.closers, sqlDB)
	}
	a.logger.Info().Str("driver", a.cfg.DBDriver).Msg("connected to database")
	return repository.NewGormStore(gormDB), nil
}

// openCache prefers redis and falls back to process memory when it is unreachable.
func (a *application) openCache(ctx context.Context) cache.Cache {
	if a.cfg.RedisAddr == "" {
		return cache.NewMemory()
	}
	client := cache.New(a.cfg.RedisAddr, a.cfg.RedisPass, a.cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		a.logger.Warn().Err(err).Str("addr", a.cfg.RedisAddr).Msg("redis unavailable, using in-memory cache")
		_ = client.Close()
		return cache.NewMemory()
	}
	a.closers = append(a.closers, client)
	return client
}

func (a *application) openMailer() (notify.Mailer, error) {
	if a.cfg.RabbitMQURL == "" {
		return notify.NewLogMailer(a.logger), nil
	}
	mailer, err := notify.NewRabbitMailer(a.cfg.RabbitMQURL, notify.DefaultQueue)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, mailer)
	a.logger.Info().Str("queue", notify.DefaultQueue).Msg("e-mail jobs go to rabbitmq")
	return mailer, nil
}

func (a *application) openArchiver(ctx context.Context) (archive.Archiver, error) {
	if a.cfg.ArchiveBucket == "" {
		return archive.Nop{}, nil
	}
	archiver, err := archive.NewS3Archiver(ctx, a.cfg.ArchiveBucket, a.cfg.ArchiveQueue)
	if err != nil {
		return nil, err
	}
	a.logger.Info().Str("bucket", a.cfg.ArchiveBucket).Msg("discharge archive enabled")
	return archiver, nil
}

func (a *application) routes(e *echo.Echo) {
	router.Register(e, router.Deps{
		Logger:     a.logger,
		JWTSecret:  a.jwtService.Secret(),
		TokenStore: a.tokenStore,
		Sessions:   a.sessions,
		Auth:       handler.NewAuthHandler(a.sessions, a.jwtService),
		Patients:   handler.NewPatientHandler(a.patients, a.tasks),
		Tasks:      handler.NewTaskHandler(a.tasks),
		Users:      handler.NewUserHandler(a.users),
		Shell:      handler.NewShellHandler(a.dashboard),
		Feed:       feed.NewHandler(a.hub),
	})
}

// Close flushes the status log, then releases connections in reverse order of opening.
func (a *application) Close() {
	if a.statusLog != nil {
		a.statusLog.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close failed")
		}
	}
}
