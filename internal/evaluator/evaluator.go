// Package evaluator talks to the remote integral evaluation service.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/R3E-Network/integrales/internal/httputil"
	"github.com/R3E-Network/integrales/internal/integral"
	"github.com/R3E-Network/integrales/pkg/logger"
)

// Observer records evaluation round trips.
type Observer interface {
	ObserveEvaluation(arity string, duration time.Duration)
}

// Config configures a Client.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxBodyBytes int64
	Logger       *logger.Logger
	Observer     Observer
}

// Client evaluates integrals over HTTP. It implements form.Evaluator.
type Client struct {
	http        *httputil.ServiceClient
	interpreter *integral.Interpreter
	log         *logger.Logger
	observer    Observer
}

// New creates a Client. An empty BaseURL selects integral.DefaultBaseURL.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = integral.DefaultBaseURL
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewDefault("evaluator")
	}

	svc := httputil.NewServiceClient(httputil.ServiceClientConfig{
		BaseURL:      cfg.BaseURL,
		Timeout:      cfg.Timeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	return &Client{
		http:        svc,
		interpreter: integral.NewInterpreter(svc.BaseURL()),
		log:         cfg.Logger,
		observer:    cfg.Observer,
	}
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.http.BaseURL()
}

// Evaluate posts the request to its arity endpoint and interprets the reply.
// Every failure is returned as *integral.AppError.
func (c *Client) Evaluate(ctx context.Context, req integral.Request) (integral.Result, error) {
	body, err := req.WireBody()
	if err != nil {
		return integral.Result{}, &integral.AppError{Category: integral.Unclassified, Message: err.Error()}
	}

	entry := c.log.WithContext(ctx).WithFields(logrus.Fields{
		"endpoint":   req.Endpoint(),
		"expression": req.Expression,
	})

	start := time.Now()
	status, data, err := c.http.PostRaw(ctx, req.Endpoint(), body)
	elapsed := time.Since(start)
	if c.observer != nil {
		c.observer.ObserveEvaluation(req.Arity.String(), elapsed)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			entry.Debug("evaluation cancelled")
		} else {
			entry.WithError(err).Warn("evaluation service unreachable")
		}
		return integral.Result{}, fmt.Errorf("evaluate %s: %w", req.Endpoint(), integral.TransportFailure())
	}

	res, appErr := c.interpreter.Interpret(status, data)
	if appErr != nil {
		entry.WithFields(logrus.Fields{
			"status":   status,
			"category": appErr.Category.String(),
		}).Info("evaluation service reported an error")
		return integral.Result{}, appErr
	}

	entry.WithFields(logrus.Fields{
		"status":      status,
		"duration_ms": elapsed.Milliseconds(),
		"has_value":   res.HasValue(),
	}).Debug("integral evaluated")
	return res, nil
}

// ServiceInfo is the evaluation service's root document.
type ServiceInfo struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

// Info fetches the service root.
func (c *Client) Info(ctx context.Context) (ServiceInfo, error) {
	var info ServiceInfo
	resp, err := c.http.Get(ctx, "/")
	if err != nil {
		return info, fmt.Errorf("service info: %w", err)
	}
	if err := httputil.DecodeResponse(resp, &info); err != nil {
		return info, fmt.Errorf("service info: %w", err)
	}
	return info, nil
}

// Ping reports whether the service answers its root document.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Info(ctx)
	if err != nil {
		c.log.WithContext(ctx).WithError(err).Warn("evaluation service not ready")
	}
	return err
}
