// Package testutil provides common testing utilities and mock implementations.
package testutil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/R3E-Network/integrales/internal/integral"
)

// MockEvaluator is a test implementation of form.Evaluator.
type MockEvaluator struct {
	mu       sync.Mutex
	requests []integral.Request
	result   integral.Result
	err      error
	gate     chan struct{}
	started  chan integral.Request
}

// NewMockEvaluator creates an evaluator that answers every request with result.
func NewMockEvaluator(result integral.Result) *MockEvaluator {
	return &MockEvaluator{result: result}
}

// SetResult changes the answer for later calls.
func (m *MockEvaluator) SetResult(result integral.Result, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = result
	m.err = err
}

// Hold makes later calls wait until the returned release func runs. Each
// held call is announced on Started.
func (m *MockEvaluator) Hold() (release func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gate := make(chan struct{})
	m.gate = gate
	m.started = make(chan integral.Request, 16)
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Started announces held calls.
func (m *MockEvaluator) Started() <-chan integral.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Evaluate records the request and returns the scripted answer. Held calls
// ignore cancellation so late responses can be exercised.
func (m *MockEvaluator) Evaluate(_ context.Context, req integral.Request) (integral.Result, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	gate, started := m.gate, m.started
	m.mu.Unlock()

	if gate != nil {
		started <- req
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result, m.err
}

// Calls returns the number of requests received.
func (m *MockEvaluator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of the requests received.
func (m *MockEvaluator) Requests() []integral.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]integral.Request(nil), m.requests...)
}

// ServiceCall is one request seen by a FakeService.
type ServiceCall struct {
	Path string
	Body map[string]interface{}
}

// FakeService is an httptest evaluation service that answers every path
// with a fixed status and body.
type FakeService struct {
	*httptest.Server

	mu     sync.Mutex
	calls  []ServiceCall
	status int
	body   string
}

// NewFakeService starts a service replying status and body. Close it when done.
func NewFakeService(status int, body string) *FakeService {
	s := &FakeService{status: status, body: body}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Reply changes the reply for later requests.
func (s *FakeService) Reply(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.body = body
}

// Calls returns a copy of the requests received.
func (s *FakeService) Calls() []ServiceCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ServiceCall(nil), s.calls...)
}

func (s *FakeService) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]interface{}
	_ = json.Unmarshal(raw, &body)

	s.mu.Lock()
	s.calls = append(s.calls, ServiceCall{Path: r.URL.Path, Body: body})
	status, reply := s.status, s.body
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply)
}

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 {
	return &v
}
