package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/R3E-Network/integrales/internal/expr"
	"github.com/R3E-Network/integrales/internal/integral"
	"github.com/R3E-Network/integrales/pkg/logger"
)

var (
	// ErrSubmissionInProgress is returned by Submit while another submission
	// of the same form is outstanding.
	ErrSubmissionInProgress = errors.New("submission already in progress")

	// ErrStaleSubmission is returned by Submit when the form was cleared or
	// its arity changed before the response arrived. The response is dropped.
	ErrStaleSubmission = errors.New("submission superseded")

	// ErrAxisOutOfRange is returned when editing a bound the arity does not have.
	ErrAxisOutOfRange = errors.New("axis out of range for arity")
)

const maxBounds = 6

// Evaluator sends a request to the evaluation service. Failures the user
// should see are returned as *integral.AppError.
type Evaluator interface {
	Evaluate(ctx context.Context, req integral.Request) (integral.Result, error)
}

// Recorder observes submission outcomes.
type Recorder interface {
	ObserveSubmission(arity, outcome string)
	ObserveAppError(category string)
}

// Submission outcomes reported to the Recorder.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
	OutcomeStale    = "stale"
)

// Side selects the end of an interval.
type Side int

const (
	Lower Side = iota
	Upper
)

// ParseSide accepts inf/sup and lower/upper.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inf", "lower", "min":
		return Lower, nil
	case "sup", "upper", "max":
		return Upper, nil
	default:
		return Lower, fmt.Errorf("unknown bound side %q", s)
	}
}

// State is a copy of a form for display.
type State struct {
	Status       Status             `json:"status"`
	Arity        integral.Arity     `json:"arity"`
	Expression   string             `json:"expression"`
	Bounds       []string           `json:"bounds"`
	Result       *integral.Result   `json:"result,omitempty"`
	Error        *integral.AppError `json:"error,omitempty"`
	SubmissionID string             `json:"submission_id,omitempty"`
}

// Options configures a Form.
type Options struct {
	Arity    integral.Arity
	Policy   expr.Policy
	Logger   *logger.Logger
	Recorder Recorder
}

// Form is one user's calculator form. It is safe for concurrent use; at most
// one submission runs at a time.
type Form struct {
	evaluator Evaluator
	policy    expr.Policy
	log       *logger.Logger
	recorder  Recorder

	mu         sync.Mutex
	status     Status
	arity      integral.Arity
	expression string
	bounds     [maxBounds]string
	result     *integral.Result
	appErr     *integral.AppError
	submission string
	cancel     context.CancelFunc
}

// New creates an idle form. Arity defaults to single.
func New(ev Evaluator, opts Options) *Form {
	if opts.Arity == integral.ArityUnknown {
		opts.Arity = integral.Single
	}
	if opts.Policy == "" {
		opts.Policy = expr.PolicyReject
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewDefault("form")
	}
	return &Form{
		evaluator: ev,
		policy:    opts.Policy,
		log:       opts.Logger,
		recorder:  opts.Recorder,
		status:    StatusIdle,
		arity:     opts.Arity,
	}
}

// Snapshot returns a copy of the current state.
func (f *Form) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Form) snapshotLocked() State {
	st := State{
		Status:       f.status,
		Arity:        f.arity,
		Expression:   f.expression,
		Bounds:       append([]string(nil), f.bounds[:f.arity.BoundCount()]...),
		SubmissionID: f.submission,
	}
	if f.result != nil {
		res := *f.result
		st.Result = &res
	}
	if f.appErr != nil {
		appErr := *f.appErr
		st.Error = &appErr
	}
	return st
}

// SetExpression replaces the expression text.
func (f *Form) SetExpression(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expression = text
}

// SetBound replaces one bound text. axis 0 is x.
func (f *Form) SetBound(axis int, side Side, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if axis < 0 || axis >= int(f.arity) {
		return fmt.Errorf("%w: axis %d for %s", ErrAxisOutOfRange, axis, f.arity)
	}
	f.bounds[2*axis+int(side)] = text
	return nil
}

// SetBounds replaces the leading bound texts in x_inf, x_sup, y_inf ... order.
func (f *Form) SetBounds(texts []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(texts) > f.arity.BoundCount() {
		return fmt.Errorf("%w: %d bounds for %s", ErrAxisOutOfRange, len(texts), f.arity)
	}
	copy(f.bounds[:], texts)
	return nil
}

// SetArity switches the arity. The form returns to idle, keeps the expression
// and drops bounds, result and error. Any submission in flight is abandoned.
// Setting the current arity changes nothing.
func (f *Form) SetArity(a integral.Arity) error {
	if !a.Valid() {
		return fmt.Errorf("%w: %d", integral.ErrInvalidArity, int(a))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if a == f.arity {
		return nil
	}
	f.abandonLocked()
	f.arity = a
	f.bounds = [maxBounds]string{}
	f.result = nil
	f.appErr = nil
	f.status = StatusIdle
	return nil
}

// Clear returns the form to idle with every field empty. Any submission in
// flight is abandoned.
func (f *Form) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abandonLocked()
	f.expression = ""
	f.bounds = [maxBounds]string{}
	f.result = nil
	f.appErr = nil
	f.status = StatusIdle
}

// abandonLocked cancels the outstanding submission so its response is dropped.
func (f *Form) abandonLocked() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.submission = ""
}

// Submit runs the local checks and, if they pass, evaluates the integral.
// The returned state is the form after the submission. A failed check or
// evaluation is returned as *integral.AppError.
func (f *Form) Submit(ctx context.Context) (State, error) {
	f.mu.Lock()
	if !f.status.CanSubmit() {
		st := f.snapshotLocked()
		f.mu.Unlock()
		return st, ErrSubmissionInProgress
	}

	arity := f.arity
	req, appErr := f.prepareLocked()
	if appErr != nil {
		f.status = StatusIdle
		f.result = nil
		f.appErr = appErr
		st := f.snapshotLocked()
		f.mu.Unlock()

		f.observe(arity, OutcomeRejected, appErr)
		f.log.WithContext(ctx).WithField("category", appErr.Category.String()).Debug("submission rejected before sending")
		return st, appErr
	}

	if err := f.transitionLocked(StatusSubmitting); err != nil {
		st := f.snapshotLocked()
		f.mu.Unlock()
		return st, err
	}
	id := uuid.NewString()
	evalCtx, cancel := context.WithCancel(ctx)
	f.submission = id
	f.cancel = cancel
	f.result = nil
	f.appErr = nil
	f.mu.Unlock()

	entry := f.log.WithContext(ctx).WithFields(logrus.Fields{
		"submission_id": id,
		"arity":         arity.String(),
	})
	entry.Debug("submitting integral")

	res, err := f.evaluator.Evaluate(evalCtx, req)
	cancel()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submission != id {
		entry.Info("dropping response of superseded submission")
		f.observe(arity, OutcomeStale, nil)
		return f.snapshotLocked(), ErrStaleSubmission
	}
	f.submission = ""
	f.cancel = nil

	if err != nil {
		appErr := integral.AsAppError(err)
		if terr := f.transitionLocked(StatusFailed); terr != nil {
			return f.snapshotLocked(), terr
		}
		f.result = nil
		f.appErr = appErr
		entry.WithError(err).WithField("category", appErr.Category.String()).Warn("integral evaluation failed")
		f.observe(arity, OutcomeFailed, appErr)
		return f.snapshotLocked(), appErr
	}

	if terr := f.transitionLocked(StatusSuccess); terr != nil {
		return f.snapshotLocked(), terr
	}
	f.result = &res
	f.appErr = nil
	f.observe(arity, OutcomeSuccess, res.Warning)
	entry.Debug("integral evaluated")
	return f.snapshotLocked(), nil
}

// prepareLocked runs the local checks in order (missing input, bare
// function call, equal outer bounds, bounds naming an unbound axis, outer
// bounds of equal value) and builds the request.
func (f *Form) prepareLocked() (integral.Request, *integral.AppError) {
	texts := f.bounds[:f.arity.BoundCount()]

	if strings.TrimSpace(f.expression) == "" {
		return integral.Request{}, integral.NewAppError(integral.MissingInput)
	}
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return integral.Request{}, integral.NewAppError(integral.MissingInput)
		}
	}
	if f.policy.Rejects(f.expression) {
		return integral.Request{}, integral.NewAppError(integral.UnparenthesizedFunction)
	}
	if integral.DegenerateAxis0(texts[0], texts[1]) {
		return integral.Request{}, integral.NewAppError(integral.DegenerateBounds)
	}

	bounds, err := integral.ClassifyAll(f.arity, texts)
	switch {
	case errors.Is(err, integral.ErrBoundOrder):
		return integral.Request{}, integral.NewAppError(integral.BoundOrder)
	case err != nil:
		return integral.Request{}, integral.NewAppError(integral.MissingInput)
	}
	if integral.SameValue(bounds[0], bounds[1]) {
		return integral.Request{}, integral.NewAppError(integral.DegenerateBounds)
	}
	req, err := integral.Build(f.arity, expr.Normalize(f.expression), bounds)
	if err != nil {
		return integral.Request{}, &integral.AppError{Category: integral.Unclassified, Message: err.Error()}
	}
	return req, nil
}

func (f *Form) transitionLocked(to Status) error {
	if !CanTransition(f.status, to) {
		return NewTransitionError(f.status, to)
	}
	f.status = to
	return nil
}

func (f *Form) observe(arity integral.Arity, outcome string, appErr *integral.AppError) {
	if f.recorder == nil {
		return
	}
	f.recorder.ObserveSubmission(arity.String(), outcome)
	if appErr != nil {
		f.recorder.ObserveAppError(appErr.Category.String())
	}
}
