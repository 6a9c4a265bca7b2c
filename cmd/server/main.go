package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"stroke-risk-api/internal/api"
	"stroke-risk-api/internal/config"
	"stroke-risk-api/internal/inference"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	configureLogging(cfg.Log)

	pipeline, err := inference.Load(inference.LoadOptions{
		ModelPath:     cfg.Model.Path,
		DatasetPath:   cfg.Dataset.Path,
		UnknownPolicy: cfg.Encoder.UnknownPolicy,
	})
	if err != nil {
		logrus.Fatalf("load pipeline: %v", err)
	}

	server, err := api.NewServer(api.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	}, pipeline)
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("starting stroke risk api on %s", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server exited: %v", err)
		}
	case sig := <-quit:
		logrus.WithField("signal", sig.String()).Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logrus.WithError(err).Warn("forced shutdown")
		}
	}
}

func configureLogging(cfg config.LogConfig) {
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logrus.SetLevel(level)
	}
	if strings.EqualFold(cfg.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}
