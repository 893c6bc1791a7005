// Package httpapi exposes calculator forms over HTTP so a browser front end
// can drive them.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/integrales/internal/form"
	"github.com/R3E-Network/integrales/internal/httputil"
	"github.com/R3E-Network/integrales/internal/integral"
	"github.com/R3E-Network/integrales/internal/metrics"
	"github.com/R3E-Network/integrales/internal/middleware"
	"github.com/R3E-Network/integrales/internal/session"
	"github.com/R3E-Network/integrales/pkg/logger"
)

const maxRequestBytes = 16 << 10

// Pinger reports whether a dependency is ready to serve.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the handler's collaborators. Metrics, CORS, RateLimiter and
// Service are optional. Without a Service /readyz is not routed.
type Options struct {
	Sessions    *session.Store
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
	CORS        *middleware.CORSMiddleware
	RateLimiter *middleware.RateLimiter
	Service     Pinger
}

type handler struct {
	sessions *session.Store
	service  Pinger
	log      *logger.Logger
}

type sessionResponse struct {
	ID    string     `json:"id"`
	State form.State `json:"state"`
}

type inputsRequest struct {
	Expression *string  `json:"expression,omitempty"`
	Bounds     []string `json:"bounds,omitempty"`
}

type arityRequest struct {
	Arity integral.Arity `json:"arity"`
}

// NewHandler returns the gateway's HTTP handler with middleware applied.
func NewHandler(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logger.NewDefault("httpapi")
	}
	h := &handler{sessions: opts.Sessions, service: opts.Service, log: opts.Logger}

	r := mux.NewRouter()
	if opts.Metrics != nil {
		r.Use(middleware.MetricsMiddleware(opts.Metrics))
		r.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	if opts.Service != nil {
		r.HandleFunc("/readyz", h.ready).Methods(http.MethodGet)
	}
	r.HandleFunc("/examples", h.examples).Methods(http.MethodGet)
	r.HandleFunc("/sessions", h.createSession).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}", h.getSession).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}", h.deleteSession).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{id}/inputs", h.updateInputs).Methods(http.MethodPut)
	r.HandleFunc("/sessions/{id}/arity", h.updateArity).Methods(http.MethodPut)
	r.HandleFunc("/sessions/{id}/submit", h.submit).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/clear", h.clear).Methods(http.MethodPost)

	var out http.Handler = r
	if opts.RateLimiter != nil {
		out = opts.RateLimiter.Handler(out)
	}
	if opts.CORS != nil {
		out = opts.CORS.Handler(out)
	}
	return middleware.LoggingMiddleware(opts.Logger)(out)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	})
}

func (h *handler) ready(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "evaluation service unavailable")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *handler) examples(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, integral.Examples())
}

func (h *handler) createSession(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Create()
	h.log.WithContext(r.Context()).WithField("session_id", sess.ID).Debug("session opened")
	httputil.WriteJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID, State: sess.Form.Snapshot()})
}

func (h *handler) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{ID: sess.ID, State: sess.Form.Snapshot()})
}

func (h *handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(mux.Vars(r)["id"]); err != nil {
		httputil.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) updateInputs(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload inputsRequest
	if err := httputil.DecodeJSON(r, maxRequestBytes, &payload); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if payload.Expression != nil {
		sess.Form.SetExpression(*payload.Expression)
	}
	if payload.Bounds != nil {
		if err := sess.Form.SetBounds(payload.Bounds); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{ID: sess.ID, State: sess.Form.Snapshot()})
}

func (h *handler) updateArity(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload arityRequest
	if err := httputil.DecodeJSON(r, maxRequestBytes, &payload); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := sess.Form.SetArity(payload.Arity); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{ID: sess.ID, State: sess.Form.Snapshot()})
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	st, err := sess.Form.Submit(r.Context())
	resp := sessionResponse{ID: sess.ID, State: st}

	var appErr *integral.AppError
	var transitionErr form.TransitionError
	switch {
	case err == nil:
		httputil.WriteJSON(w, http.StatusOK, resp)
	case errors.As(err, &appErr):
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.Is(err, form.ErrSubmissionInProgress),
		errors.Is(err, form.ErrStaleSubmission),
		errors.As(err, &transitionErr):
		httputil.WriteJSON(w, http.StatusConflict, httputil.ErrorResponse{Error: err.Error(), Details: resp})
	default:
		h.log.WithContext(r.Context()).WithError(err).Error("submission failed unexpectedly")
		httputil.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *handler) clear(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	sess.Form.Clear()
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{ID: sess.ID, State: sess.Form.Snapshot()})
}

func (h *handler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := h.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}
