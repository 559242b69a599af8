package core

import (
	"context"
	"sync"
)

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type staticTokens struct {
	current   string
	refreshed string
}

func (s staticTokens) CurrentToken(context.Context) (string, error) {
	return s.current, nil
}

func (s staticTokens) RefreshToken(context.Context) (string, error) {
	return s.refreshed, nil
}

// scriptedTransport answers each request with the next queued response.
type scriptedTransport struct {
	mu        sync.Mutex
	responses []TransportResponse
	err       error
	requests  []TransportRequest
}

func (*scriptedTransport) Kind() string {
	return "scripted"
}

func (s *scriptedTransport) Do(_ context.Context, req TransportRequest) (TransportResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return TransportResponse{}, s.err
	}
	if len(s.responses) == 0 {
		return TransportResponse{StatusCode: 200, Body: []byte(`{}`)}, nil
	}
	res := s.responses[0]
	s.responses = s.responses[1:]
	return res, nil
}

func (s *scriptedTransport) sent() []TransportRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TransportRequest(nil), s.requests...)
}
