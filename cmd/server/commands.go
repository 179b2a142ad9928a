package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"medisync/docs"
	"medisync/internal/config"
	"medisync/internal/db"
	"medisync/internal/logging"
	"medisync/internal/seed"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			reset, _ := cmd.Flags().GetBool("reset")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DBDriver == "memory" {
				return fmt.Errorf("nothing to migrate for DB_DRIVER=memory")
			}
			logger := logging.New(cfg.Env)

			gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			if reset {
				logger.Warn().Msg("dropping all tables")
				if err := db.Reset(gormDB); err != nil {
					return err
				}
			}
			if err := db.Migrate(gormDB); err != nil {
				return err
			}
			logger.Info().Str("driver", cfg.DBDriver).Msg("schema up to date")
			return nil
		},
	}
	cmd.Flags().Bool("reset", false, "Drop every table before migrating")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo users, patients and tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DBDriver == "memory" {
				return fmt.Errorf("seeding DB_DRIVER=memory has no effect; the server seeds itself in that mode")
			}
			logger := logging.New(cfg.Env)
			ctx := cmd.Context()

			app, err := build(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := seed.Run(ctx, app.store, app.identity, logger)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d user(s), %d patient(s), %d task(s). Demo password: %s\n",
				res.Users, res.Patients, res.Tasks, seed.DemoPassword)
			return nil
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Env)

	ctx := context.Background()
	app, err := build(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		return err
	}
	defer app.Close()

	if cfg.DBDriver == "memory" {
		if _, err := seed.Run(ctx, app.store, app.identity, logger); err != nil {
			return err
		}
	}

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.IsDev()
	app.routes(e)

	go func() {
		addr := ":" + cfg.ServerPort
		logger.Info().Str("addr", addr).Str("swagger", "http://localhost:"+cfg.ServerPort+"/swagger/index.html").Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
