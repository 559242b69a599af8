package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-attendance/core"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	defaultSessionKey  = "default"
	defaultRenewBefore = 2 * time.Minute
)

type SessionConfig struct {
	Provider    Provider
	Store       core.SessionStore
	StoreKey    string
	RenewBefore time.Duration
	Now         func() time.Time
	Logger      core.Logger
}

// Session holds the signed-in identity and serves bearer tokens to the API
// client. CurrentToken may answer from the cache; RefreshToken always asks
// the provider.
type Session struct {
	provider    Provider
	store       core.SessionStore
	storeKey    string
	renewBefore time.Duration
	now         func() time.Time
	logger      core.Logger

	// refreshMu serializes provider round trips; mu guards creds.
	refreshMu sync.Mutex
	mu        sync.RWMutex
	creds     *Credentials

	subs subscribers
}

func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("identity: provider is required")
	}
	storeKey := strings.TrimSpace(cfg.StoreKey)
	if storeKey == "" {
		storeKey = defaultSessionKey
	}
	renewBefore := cfg.RenewBefore
	if renewBefore <= 0 {
		renewBefore = defaultRenewBefore
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Session{
		provider:    cfg.Provider,
		store:       cfg.Store,
		storeKey:    storeKey,
		renewBefore: renewBefore,
		now:         now,
		logger:      glog.Ensure(cfg.Logger),
	}, nil
}

func (s *Session) CurrentToken(ctx context.Context) (string, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	creds, ok := s.snapshot()
	if !ok {
		return "", notSignedInError()
	}
	if s.fresh(creds) {
		return creds.IDToken, nil
	}
	s.logger.Debug("identity token near expiry, refreshing", "uid", creds.Account.UID)
	return s.refreshLocked(ctx, creds)
}

// RefreshToken fetches a new ID token even when the cached one looks valid.
// The cached token stays in place until the new one arrives.
func (s *Session) RefreshToken(ctx context.Context) (string, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	creds, ok := s.snapshot()
	if !ok {
		return "", notSignedInError()
	}
	return s.refreshLocked(ctx, creds)
}

func (s *Session) refreshLocked(ctx context.Context, creds Credentials) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	refreshed, err := s.provider.Refresh(ctx, creds.RefreshToken)
	if err != nil {
		if IsSessionRevoked(err) {
			s.logger.Warn("identity refresh rejected, signing out", "uid", creds.Account.UID, "error", err)
			s.clear(ctx)
		}
		return "", err
	}

	next := mergeCredentials(creds, refreshed)
	next = s.withExpiry(next)
	s.mu.Lock()
	s.creds = &next
	s.mu.Unlock()
	s.persist(ctx, next)
	return next.IDToken, nil
}

func (s *Session) SignIn(ctx context.Context, email string, password string) (core.Account, error) {
	if err := validateCredentials(email, password); err != nil {
		return core.Account{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	creds, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return core.Account{}, err
	}
	s.establish(ctx, creds)
	s.logger.Info("identity signed in", "uid", creds.Account.UID)
	return creds.Account, nil
}

// SignUp creates the account and, when displayName is set, stores it on the
// new profile before the session is established. A failed profile update
// still signs the new account in and returns the update error with it.
func (s *Session) SignUp(ctx context.Context, email string, password string, displayName string) (core.Account, error) {
	if err := validateCredentials(email, password); err != nil {
		return core.Account{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	creds, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return core.Account{}, err
	}
	if name := strings.TrimSpace(displayName); name != "" {
		updated, updateErr := s.provider.UpdateProfile(ctx, creds.IDToken, name)
		if updateErr != nil {
			// The account exists at this point; keep the user signed in.
			creds = s.establish(ctx, creds)
			s.logger.Warn("identity display name not saved", "uid", creds.Account.UID, "error", updateErr)
			return creds.Account, updateErr
		}
		creds = mergeCredentials(creds, updated)
		creds.Account.DisplayName = name
	}
	creds = s.establish(ctx, creds)
	s.logger.Info("identity account created", "uid", creds.Account.UID)
	return creds.Account, nil
}

func (s *Session) SignOut(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.clear(ctx)
}

func (s *Session) SendPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return validationError("identity: email is required", goerrors.FieldError{
			Field:   "email",
			Message: "email is required",
		})
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return s.provider.SendPasswordReset(ctx, email)
}

// Restore loads the last active session from the store. It reports false when
// nothing was stored.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	record, err := s.store.LoadActive(ctx, s.storeKey)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if strings.TrimSpace(record.RefreshToken) == "" {
		return false, nil
	}
	creds := Credentials{
		Account:      record.Account,
		IDToken:      record.IDToken,
		RefreshToken: record.RefreshToken,
		ExpiresAt:    record.ExpiresAt,
	}
	s.refreshMu.Lock()
	s.mu.Lock()
	s.creds = &creds
	s.mu.Unlock()
	s.refreshMu.Unlock()
	s.subs.publish(core.AuthEvent{State: core.AuthStateSignedIn, Account: creds.Account, OccurredAt: s.now()})
	s.logger.Debug("identity session restored", "uid", creds.Account.UID)
	return true, nil
}

func (s *Session) Account() (core.Account, bool) {
	creds, ok := s.snapshot()
	if !ok {
		return core.Account{}, false
	}
	return creds.Account, true
}

func (s *Session) IsAuthenticated() bool {
	_, ok := s.snapshot()
	return ok
}

// Subscribe registers for auth state changes. The current state is delivered
// first. Events are dropped for a subscriber whose buffer is full.
func (s *Session) Subscribe(buffer int) *Subscription {
	return s.subs.add(buffer, s.currentEvent)
}

func (s *Session) currentEvent() core.AuthEvent {
	event := core.AuthEvent{State: core.AuthStateSignedOut, OccurredAt: s.now()}
	if account, ok := s.Account(); ok {
		event.State = core.AuthStateSignedIn
		event.Account = account
	}
	return event
}

func (s *Session) establish(ctx context.Context, creds Credentials) Credentials {
	creds = s.withExpiry(creds)
	s.mu.Lock()
	s.creds = &creds
	s.mu.Unlock()
	s.persist(ctx, creds)
	s.subs.publish(core.AuthEvent{State: core.AuthStateSignedIn, Account: creds.Account, OccurredAt: s.now()})
	return creds
}

func (s *Session) clear(ctx context.Context) error {
	s.mu.Lock()
	previous := s.creds
	s.creds = nil
	s.mu.Unlock()

	var storeErr error
	if s.store != nil {
		if err := s.store.Revoke(ctx, s.storeKey); err != nil && !goerrors.IsNotFound(err) {
			s.logger.Warn("identity session revoke failed", "error", err)
			storeErr = err
		}
	}
	if previous != nil {
		s.subs.publish(core.AuthEvent{State: core.AuthStateSignedOut, Account: previous.Account, OccurredAt: s.now()})
		s.logger.Info("identity signed out", "uid", previous.Account.UID)
	}
	return storeErr
}

func (s *Session) persist(ctx context.Context, creds Credentials) {
	if s.store == nil {
		return
	}
	_, err := s.store.Save(ctx, core.SessionRecord{
		Key:          s.storeKey,
		Account:      creds.Account,
		IDToken:      creds.IDToken,
		RefreshToken: creds.RefreshToken,
		ExpiresAt:    creds.ExpiresAt,
		Status:       core.SessionStatusActive,
	})
	if err != nil {
		s.logger.Warn("identity session persist failed", "uid", creds.Account.UID, "error", err)
	}
}

func (s *Session) snapshot() (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return Credentials{}, false
	}
	return *s.creds, true
}

func (s *Session) fresh(creds Credentials) bool {
	if strings.TrimSpace(creds.IDToken) == "" || creds.ExpiresAt.IsZero() {
		return false
	}
	return creds.ExpiresAt.After(s.now().Add(s.renewBefore))
}

func (s *Session) withExpiry(creds Credentials) Credentials {
	if creds.ExpiresAt.IsZero() && strings.TrimSpace(creds.IDToken) != "" {
		creds.ExpiresAt = s.now().UTC().Add(defaultTokenLifetime)
	}
	return creds
}

// mergeCredentials overlays the non-empty fields of next on previous. Refresh
// responses carry no email or display name.
func mergeCredentials(previous Credentials, next Credentials) Credentials {
	out := previous
	if next.Account.UID != "" {
		out.Account.UID = next.Account.UID
	}
	if next.Account.Email != "" {
		out.Account.Email = next.Account.Email
	}
	if next.Account.DisplayName != "" {
		out.Account.DisplayName = next.Account.DisplayName
	}
	if next.IDToken != "" {
		out.IDToken = next.IDToken
		out.ExpiresAt = next.ExpiresAt
	}
	if next.RefreshToken != "" {
		out.RefreshToken = next.RefreshToken
	}
	return out
}

func validateCredentials(email string, password string) error {
	var fields []goerrors.FieldError
	if strings.TrimSpace(email) == "" {
		fields = append(fields, goerrors.FieldError{Field: "email", Message: "email is required"})
	}
	if password == "" {
		fields = append(fields, goerrors.FieldError{Field: "password", Message: "password is required"})
	}
	if len(fields) > 0 {
		return validationError("identity: credentials are incomplete", fields...)
	}
	return nil
}

var _ core.TokenSource = (*Session)(nil)
