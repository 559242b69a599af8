package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// TokenSource hands out bearer tokens. CurrentToken may serve a cached value;
// RefreshToken must bypass any cache and obtain a fresh token.
type TokenSource interface {
	CurrentToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a short user-facing message. Callers decide how to present it.
type Notice struct {
	Level    NoticeLevel
	Message  string
	Metadata map[string]any
}

type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

type Account struct {
	UID         string `json:"uid" yaml:"uid"`
	Email       string `json:"email" yaml:"email"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
}

type AuthState string

const (
	AuthStateSignedIn  AuthState = "signed_in"
	AuthStateSignedOut AuthState = "signed_out"
)

type AuthEvent struct {
	State      AuthState
	Account    Account
	OccurredAt time.Time
}

type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusRevoked SessionStatus = "revoked"
)

// SessionRecord is the persisted form of a signed-in identity session.
type SessionRecord struct {
	ID           string
	Key          string
	Account      Account
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
	Status       SessionStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SessionStore interface {
	Save(ctx context.Context, record SessionRecord) (SessionRecord, error)
	LoadActive(ctx context.Context, key string) (SessionRecord, error)
	Revoke(ctx context.Context, key string) error
}
