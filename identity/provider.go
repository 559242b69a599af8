package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-attendance/core"
	goerrors "github.com/goliatone/go-errors"
)

const (
	defaultRequestTimeout    = 10 * time.Second
	maxProviderResponseBytes = 1 << 20 // 1 MiB
	defaultTokenLifetime     = time.Hour
)

// Credentials is what the identity provider hands back after a successful
// sign-in, sign-up, refresh or profile update.
type Credentials struct {
	Account      core.Account
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

type Provider interface {
	SignIn(ctx context.Context, email string, password string) (Credentials, error)
	SignUp(ctx context.Context, email string, password string) (Credentials, error)
	Refresh(ctx context.Context, refreshToken string) (Credentials, error)
	SendPasswordReset(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, idToken string, displayName string) (Credentials, error)
}

type SecureTokenProviderConfig struct {
	APIKey         string
	AuthURL        string
	TokenURL       string
	Transport      core.TransportAdapter
	RequestTimeout time.Duration
	Now            func() time.Time
}

// SecureTokenProvider talks to a Firebase-compatible identity REST API.
type SecureTokenProvider struct {
	apiKey         string
	authURL        string
	tokenURL       string
	transport      core.TransportAdapter
	requestTimeout time.Duration
	now            func() time.Time
}

func NewSecureTokenProvider(cfg SecureTokenProviderConfig) (*SecureTokenProvider, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("identity: transport adapter is required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("identity: api key is required")
	}
	defaults := core.DefaultConfig().Identity
	authURL := strings.TrimRight(strings.TrimSpace(cfg.AuthURL), "/")
	if authURL == "" {
		authURL = defaults.AuthURL
	}
	tokenURL := strings.TrimSpace(cfg.TokenURL)
	if tokenURL == "" {
		tokenURL = defaults.TokenURL
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &SecureTokenProvider{
		apiKey:         apiKey,
		authURL:        authURL,
		tokenURL:       tokenURL,
		transport:      cfg.Transport,
		requestTimeout: requestTimeout,
		now:            now,
	}, nil
}

type accountResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type tokenResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
	TokenType    string `json:"token_type"`
}

type providerErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *SecureTokenProvider) SignIn(ctx context.Context, email string, password string) (Credentials, error) {
	var res accountResponse
	err := p.postJSON(ctx, "signIn", "accounts:signInWithPassword", map[string]any{
		"email":             strings.TrimSpace(email),
		"password":          password,
		"returnSecureToken": true,
	}, &res)
	if err != nil {
		return Credentials{}, err
	}
	return p.credentialsFromAccount(res), nil
}

func (p *SecureTokenProvider) SignUp(ctx context.Context, email string, password string) (Credentials, error) {
	var res accountResponse
	err := p.postJSON(ctx, "signUp", "accounts:signUp", map[string]any{
		"email":             strings.TrimSpace(email),
		"password":          password,
		"returnSecureToken": true,
	}, &res)
	if err != nil {
		return Credentials{}, err
	}
	return p.credentialsFromAccount(res), nil
}

func (p *SecureTokenProvider) SendPasswordReset(ctx context.Context, email string) error {
	return p.postJSON(ctx, "sendPasswordReset", "accounts:sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       strings.TrimSpace(email),
	}, nil)
}

func (p *SecureTokenProvider) UpdateProfile(ctx context.Context, idToken string, displayName string) (Credentials, error) {
	var res accountResponse
	err := p.postJSON(ctx, "updateProfile", "accounts:update", map[string]any{
		"idToken":           idToken,
		"displayName":       strings.TrimSpace(displayName),
		"returnSecureToken": true,
	}, &res)
	if err != nil {
		return Credentials{}, err
	}
	creds := p.credentialsFromAccount(res)
	if creds.IDToken == "" {
		creds.IDToken = idToken
	}
	return creds, nil
}

// Refresh exchanges a refresh token for a new ID token. The token endpoint
// expects a form-encoded body.
func (p *SecureTokenProvider) Refresh(ctx context.Context, refreshToken string) (Credentials, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return Credentials{}, providerError("MISSING_REFRESH_TOKEN", http.StatusBadRequest, "refresh")
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	var res tokenResponse
	err := p.exchange(ctx, "refresh", core.TransportRequest{
		Method:  http.MethodPost,
		URL:     p.tokenURL,
		Query:   map[string]string{"key": p.apiKey},
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    []byte(form.Encode()),
	}, &res)
	if err != nil {
		return Credentials{}, err
	}
	creds := Credentials{
		Account:      core.Account{UID: strings.TrimSpace(res.UserID)},
		IDToken:      res.IDToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    p.expiresAt(res.ExpiresIn),
	}
	return fillFromClaims(creds), nil
}

func (p *SecureTokenProvider) postJSON(ctx context.Context, operation string, method string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "identity: encode "+operation+" request").
			WithCode(http.StatusBadRequest).
			WithTextCode(core.ErrorBadInput)
	}
	return p.exchange(ctx, operation, core.TransportRequest{
		Method:  http.MethodPost,
		URL:     p.authURL + "/" + method,
		Query:   map[string]string{"key": p.apiKey},
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	}, out)
}

func (p *SecureTokenProvider) exchange(ctx context.Context, operation string, req core.TransportRequest, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	req.Timeout = p.requestTimeout
	req.MaxResponseBodyBytes = maxProviderResponseBytes

	res, err := p.transport.Do(ctx, req)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			wrapped := goerrors.Wrap(richErr, richErr.Category, "identity: "+operation)
			if richErr.Category == goerrors.CategoryExternal {
				wrapped.WithTextCode(core.ErrorTransportFailure)
			}
			return wrapped
		}
		return goerrors.Wrap(err, goerrors.CategoryExternal, "identity: "+operation).
			WithCode(http.StatusBadGateway).
			WithTextCode(core.ErrorTransportFailure)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		var payload providerErrorResponse
		if err := json.Unmarshal(res.Body, &payload); err != nil || strings.TrimSpace(payload.Error.Message) == "" {
			return providerError(fmt.Sprintf("HTTP_%d", res.StatusCode), res.StatusCode, operation)
		}
		return providerError(payload.Error.Message, res.StatusCode, operation)
	}
	if out == nil || len(res.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "identity: decode "+operation+" response").
			WithCode(http.StatusBadGateway).
			WithTextCode(core.ErrorDecodeFailure)
	}
	return nil
}

func (p *SecureTokenProvider) credentialsFromAccount(res accountResponse) Credentials {
	creds := Credentials{
		Account: core.Account{
			UID:         strings.TrimSpace(res.LocalID),
			Email:       strings.TrimSpace(res.Email),
			DisplayName: strings.TrimSpace(res.DisplayName),
		},
		IDToken:      res.IDToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    p.expiresAt(res.ExpiresIn),
	}
	return fillFromClaims(creds)
}

// expiresAt converts the provider's "expiresIn" seconds string. A missing
// value leaves the expiry to the ID token claims.
func (p *SecureTokenProvider) expiresAt(expiresIn string) time.Time {
	seconds, err := strconv.ParseInt(strings.TrimSpace(expiresIn), 10, 64)
	if err != nil || seconds <= 0 {
		return time.Time{}
	}
	return p.now().UTC().Add(time.Duration(seconds) * time.Second)
}

var _ Provider = (*SecureTokenProvider)(nil)
