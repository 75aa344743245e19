package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/migrations"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logging.New(cfg.LogLevel, config.IsProduction())
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	db, err := database.Open(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	if err := database.RunMigrations(ctx, db, migrations.FS, log); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	srv, err := server.New(ctx, cfg, db, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build server")
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.WithError(err).Fatal("server error")
		}
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("received signal")
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server shutdown error")
	}
	log.Info("server stopped")
}
