package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-attendance/backend"
	"github.com/goliatone/go-attendance/core"
	"github.com/goliatone/go-attendance/identity"
	"github.com/goliatone/go-attendance/transport"
	glog "github.com/goliatone/go-logger/glog"
)

type Config = core.Config

type Account = core.Account

type AuthEvent = core.AuthEvent

type Notice = core.Notice

func DefaultConfig() Config {
	return core.DefaultConfig()
}

type Option func(*setupOptions)

type setupOptions struct {
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metricsRecorder core.MetricsRecorder
	notifier        core.Notifier
	errorMapper     core.ErrorMapper
	configProvider  core.ConfigProvider
	optionsResolver core.OptionsResolver
	transport       core.TransportAdapter
	httpClient      transport.HTTPDoer
	sessionStore    core.SessionStore
	sessionKey      string
	provider        identity.Provider
	now             func() time.Time
}

func WithLogger(logger core.Logger) Option {
	return func(o *setupOptions) { o.logger = logger }
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(o *setupOptions) { o.loggerProvider = provider }
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(o *setupOptions) { o.metricsRecorder = recorder }
}

func WithNotifier(notifier core.Notifier) Option {
	return func(o *setupOptions) { o.notifier = notifier }
}

func WithErrorMapper(mapper core.ErrorMapper) Option {
	return func(o *setupOptions) { o.errorMapper = mapper }
}

func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(o *setupOptions) { o.configProvider = provider }
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(o *setupOptions) { o.optionsResolver = resolver }
}

// WithTransport replaces the REST adapter shared by the API client and the
// identity provider.
func WithTransport(adapter core.TransportAdapter) Option {
	return func(o *setupOptions) { o.transport = adapter }
}

func WithHTTPClient(client transport.HTTPDoer) Option {
	return func(o *setupOptions) { o.httpClient = client }
}

func WithSessionStore(store core.SessionStore) Option {
	return func(o *setupOptions) { o.sessionStore = store }
}

func WithSessionKey(key string) Option {
	return func(o *setupOptions) { o.sessionKey = key }
}

func WithIdentityProvider(provider identity.Provider) Option {
	return func(o *setupOptions) { o.provider = provider }
}

func WithClock(now func() time.Time) Option {
	return func(o *setupOptions) { o.now = now }
}

// App is the wired attendance client stack.
type App struct {
	config  Config
	logger  core.Logger
	client  *core.Client
	session *identity.Session
	backend *backend.Client
	facade  *Facade
}

// Setup resolves configuration and wires transport, identity provider,
// session, API client, backend client and facade.
func Setup(cfg Config, opts ...Option) (*App, error) {
	options := setupOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	resolved, err := core.ResolveConfig(context.Background(), cfg, options.configProvider, options.optionsResolver)
	if err != nil {
		return nil, err
	}

	provider, logger := glog.Resolve("attendance", options.loggerProvider, options.logger)
	logger = glog.Ensure(logger)

	adapter := options.transport
	if adapter == nil {
		rest := transport.NewRESTAdapter(options.httpClient)
		rest.MaxResponseBodyBytes = resolved.API.MaxResponseBodyBytes
		rest.DefaultHeaders["User-Agent"] = resolved.API.UserAgent
		adapter = rest
	}

	identityProvider := options.provider
	if identityProvider == nil {
		identityProvider, err = identity.NewSecureTokenProvider(identity.SecureTokenProviderConfig{
			APIKey:    resolved.Identity.APIKey,
			AuthURL:   resolved.Identity.AuthURL,
			TokenURL:  resolved.Identity.TokenURL,
			Transport: adapter,
			Now:       options.now,
		})
		if err != nil {
			return nil, err
		}
	}

	session, err := identity.NewSession(identity.SessionConfig{
		Provider:    identityProvider,
		Store:       options.sessionStore,
		StoreKey:    options.sessionKey,
		RenewBefore: resolved.Identity.RenewBefore,
		Now:         options.now,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	clientOpts := []core.Option{
		core.WithTransport(adapter),
		core.WithTokenSource(session),
		core.WithLogger(logger),
	}
	if provider != nil {
		clientOpts = append(clientOpts, core.WithLoggerProvider(provider))
	}
	if options.metricsRecorder != nil {
		clientOpts = append(clientOpts, core.WithMetricsRecorder(options.metricsRecorder))
	}
	if options.notifier != nil {
		clientOpts = append(clientOpts, core.WithNotifier(options.notifier))
	}
	if options.errorMapper != nil {
		clientOpts = append(clientOpts, core.WithErrorMapper(options.errorMapper))
	}
	client, err := core.NewClient(resolved, clientOpts...)
	if err != nil {
		return nil, err
	}

	backendClient, err := backend.NewClient(client)
	if err != nil {
		return nil, err
	}
	facade, err := NewFacade(backendClient, session)
	if err != nil {
		return nil, err
	}

	return &App{
		config:  client.Config(),
		logger:  logger,
		client:  client,
		session: session,
		backend: backendClient,
		facade:  facade,
	}, nil
}

func (a *App) Config() Config {
	if a == nil {
		return Config{}
	}
	return a.config
}

func (a *App) Client() *core.Client {
	if a == nil {
		return nil
	}
	return a.client
}

func (a *App) Session() *identity.Session {
	if a == nil {
		return nil
	}
	return a.session
}

func (a *App) Backend() *backend.Client {
	if a == nil {
		return nil
	}
	return a.backend
}

func (a *App) Facade() *Facade {
	if a == nil {
		return nil
	}
	return a.facade
}

// Restore reloads the persisted session, if any. It reports whether a
// signed-in session is now active.
func (a *App) Restore(ctx context.Context) (bool, error) {
	if a == nil || a.session == nil {
		return false, fmt.Errorf("attendance: app is not configured")
	}
	restored, err := a.session.Restore(ctx)
	if err != nil {
		a.logger.Warn("attendance session restore failed", "error", err)
		return false, err
	}
	return restored, nil
}
