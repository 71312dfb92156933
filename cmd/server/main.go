package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/arsalanrobotronics/famaserve-admin-backend/auth"
	"github.com/arsalanrobotronics/famaserve-admin-backend/internal/config"
	"github.com/arsalanrobotronics/famaserve-admin-backend/internal/storage/mongodb"
	"github.com/arsalanrobotronics/famaserve-admin-backend/server"
)

func main() {
	logger := newLogger()
	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("server stopped")
}

func run(logger zerolog.Logger) error {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg("no .env file found, using process environment")
	}

	c := config.New()
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongodb.Connect(ctx, c.GetDatabaseOptions(), func(pingErr error) {
		logger.Error().Err(pingErr).Msg("lost connection to the database")
	})
	if err != nil {
		return errors.Wrap(err, "mongodb.Connect")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("database disconnect failed")
		}
	}()

	db := client.Database(c.GetDatabaseOptions().Database)
	sessionStore := mongodb.NewSessionStore(db)
	if err := sessionStore.EnsureIndexes(ctx); err != nil {
		return errors.Wrap(err, "sessionStore.EnsureIndexes")
	}

	repos := auth.Repos{
		Accounts: mongodb.NewAccountRepo(db),
		Roles:    mongodb.NewRoleRepo(db),
		Sessions: sessionStore,
	}

	srv, err := server.New(c, repos, mongodb.NewAuditRecorder(db), logger)
	if err != nil {
		return errors.Wrap(err, "server.New")
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- errors.Wrap(err, "httpServer.ListenAndServe")
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-stopSignal():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "httpServer.Shutdown")
	}
	return <-errCh
}

func stopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if os.Getenv("ENV") == "DEV" || os.Getenv("ENV") == "" {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
