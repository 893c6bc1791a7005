// Package main runs the integral calculator gateway. It keeps one form per
// browser session and forwards submissions to the evaluation service.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/R3E-Network/integrales/internal/config"
	"github.com/R3E-Network/integrales/internal/evaluator"
	"github.com/R3E-Network/integrales/internal/form"
	"github.com/R3E-Network/integrales/internal/httpapi"
	"github.com/R3E-Network/integrales/internal/metrics"
	"github.com/R3E-Network/integrales/internal/middleware"
	"github.com/R3E-Network/integrales/internal/session"
	"github.com/R3E-Network/integrales/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Gateway listen address (overrides config)")
	flag.Parse()

	// Environment variable overrides
	if v := os.Getenv("INTEGRALES_CONFIG"); v != "" && *configPath == "" {
		*configPath = v
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.NewDefault("gateway").WithError(err).Fatal("failed to load config")
	}
	if *addr != "" {
		cfg.Gateway.Addr = *addr
	}

	log := logger.New(logger.Config{
		Component: "gateway",
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
	})

	gw, err := newGateway(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build gateway")
	}

	gw.sweeper.Start()
	go func() {
		log.WithFields(map[string]interface{}{
			"addr":        cfg.Gateway.Addr,
			"service_url": cfg.Service.URL,
			"policy":      cfg.Policy().String(),
		}).Info("gateway listening")
		if err := gw.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Gateway.ShutdownTimeout)
	defer cancel()

	if err := gw.server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown error")
	}
	select {
	case <-gw.sweeper.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("housekeeping jobs still running at shutdown")
	}

	log.Info("gateway stopped")
}

type gateway struct {
	server  *http.Server
	sweeper *session.Sweeper
	store   *session.Store
	limiter *middleware.RateLimiter
}

func newGateway(cfg *config.Config, log *logger.Logger) (*gateway, error) {
	m := metrics.New(metrics.DefaultNamespace)

	ev := evaluator.New(evaluator.Config{
		BaseURL:      cfg.Service.URL,
		Timeout:      cfg.Service.Timeout,
		MaxBodyBytes: cfg.Service.MaxBodyBytes,
		Logger:       log.Named("evaluator"),
		Observer:     m,
	})

	formLog := log.Named("form")
	store := session.NewStore(func() *form.Form {
		return form.New(ev, form.Options{
			Arity:    cfg.Arity(),
			Policy:   cfg.Policy(),
			Logger:   formLog,
			Recorder: m,
		})
	}, session.Options{
		TTL:    cfg.Gateway.SessionTTL,
		Logger: log.Named("session"),
		Gauge:  m,
	})

	limiter := middleware.NewRateLimiter(cfg.Gateway.RateLimitRPS, cfg.Gateway.RateLimitBurst, log)

	sweeper := session.NewSweeper(log.Named("sweeper"))
	if err := sweeper.Schedule("sessions", cfg.Gateway.SweepSchedule, func() { store.Sweep() }); err != nil {
		return nil, err
	}
	if err := sweeper.Schedule("rate-limiters", cfg.Gateway.SweepSchedule, func() {
		limiter.Cleanup(cfg.Gateway.SessionTTL)
	}); err != nil {
		return nil, err
	}

	handler := httpapi.NewHandler(httpapi.Options{
		Sessions:    store,
		Metrics:     m,
		Logger:      log,
		CORS:        middleware.NewCORSMiddleware(cfg.Gateway.AllowedOrigins),
		RateLimiter: limiter,
		Service:     ev,
	})

	// Submissions wait on the evaluation service, so writes get its timeout on top.
	server := &http.Server{
		Addr:              cfg.Gateway.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Service.Timeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &gateway{server: server, sweeper: sweeper, store: store, limiter: limiter}, nil
}
