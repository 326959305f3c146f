package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pagelens/pagelens-backend/internal/api"
	"github.com/pagelens/pagelens-backend/internal/config"
	"github.com/pagelens/pagelens-backend/internal/database"
	"github.com/pagelens/pagelens-backend/internal/services"
	"github.com/pagelens/pagelens-backend/internal/session"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("PAGELENS_DEBUG") != "" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logrus.WithError(err).Fatal("failed to run migrations")
	}

	opener := session.NewBrowserOpener(cfg.Browser)
	svc := services.NewServices(cfg, db.DB, opener.Open)
	srv := api.NewServer(cfg.Server, svc)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		logrus.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logrus.WithError(err).Error("shutdown failed")
		}
	}()

	if err := srv.Listen(); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
