package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

const maxServerMessageLength = 512

type RequestOptions struct {
	Method  string
	Body    []byte
	Headers map[string]string
	Query   map[string]string
	// Unauthenticated sends the request without a bearer token. The token
	// source is not consulted and a 401 is returned as a status error.
	Unauthenticated bool
}

// JSONBody marshals v for use as RequestOptions.Body.
func JSONBody(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "core: encode request body").
			WithCode(http.StatusBadRequest).
			WithTextCode(ErrorBadInput)
	}
	return raw, nil
}

// Client issues authenticated JSON calls against the attendance API. A 401
// response triggers exactly one forced token refresh and retry.
type Client struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	transport       TransportAdapter
	tokens          TokenSource
	notifier        Notifier
	requestID       func() string
}

type ClientDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	Transport       TransportAdapter
	TokenSource     TokenSource
	Notifier        Notifier
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	builder := defaultClientBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("attendance", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("attendance"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = DefaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.notifier == nil {
		builder.notifier = NopNotifier{}
	}
	if builder.requestID == nil {
		builder.requestID = uuid.NewString
	}
	if builder.transport == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: transport adapter is required"))
	}
	if builder.tokenSource == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: token source is required"))
	}

	finalConfig, err := ResolveConfig(context.Background(), builder.runtimeConfig, builder.configProvider, builder.optionsResolver)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	if finalConfig.API.BaseURL == "" {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: api.base_url is required"))
	}

	return &Client{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		transport:       builder.transport,
		tokens:          builder.tokenSource,
		notifier:        builder.notifier,
		requestID:       builder.requestID,
	}, nil
}

func (c *Client) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.config
}

func (c *Client) Dependencies() ClientDependencies {
	if c == nil {
		return ClientDependencies{}
	}
	return ClientDependencies{
		Logger:          c.logger,
		LoggerProvider:  c.loggerProvider,
		MetricsRecorder: c.metricsRecorder,
		ErrorMapper:     c.errorMapper,
		ConfigProvider:  c.configProvider,
		OptionsResolver: c.optionsResolver,
		Transport:       c.transport,
		TokenSource:     c.tokens,
		Notifier:        c.notifier,
	}
}

// Call sends the request and returns the raw JSON body of a successful
// response. A 204 response yields a nil body.
func (c *Client) Call(ctx context.Context, endpoint string, opts RequestOptions) (json.RawMessage, error) {
	if c == nil || c.transport == nil || c.tokens == nil {
		return nil, clientError(
			"core: client is not configured",
			goerrors.CategoryInternal,
			ErrorInternal,
			nil,
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint = strings.TrimSpace(endpoint)
	method := strings.TrimSpace(strings.ToUpper(opts.Method))
	if method == "" {
		method = http.MethodGet
	}
	fields := map[string]any{
		"endpoint":   endpoint,
		"method":     method,
		"request_id": c.requestID(),
	}
	startedAt := time.Now().UTC()

	if endpoint == "" {
		err := clientError("core: endpoint is required", goerrors.CategoryBadInput, ErrorBadInput, fields)
		c.observeCall(ctx, startedAt, err, fields)
		return nil, err
	}

	body, err := c.call(ctx, method, endpoint, opts, fields)
	if err != nil {
		mapped := c.mapError(err)
		c.notifyFailure(ctx, mapped)
		c.observeCall(ctx, startedAt, mapped, fields)
		return nil, mapped
	}
	c.observeCall(ctx, startedAt, nil, fields)
	return body, nil
}

// Do calls the endpoint and decodes the JSON body into out when out is not nil.
func (c *Client) Do(ctx context.Context, endpoint string, opts RequestOptions, out any) error {
	body, err := c.Call(ctx, endpoint, opts)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		decodeErr := decodeError(err, map[string]any{
			"endpoint": strings.TrimSpace(endpoint),
			"target":   fmt.Sprintf("%T", out),
		})
		c.notifyFailure(ctx, decodeErr)
		return decodeErr
	}
	return nil
}

func (c *Client) call(
	ctx context.Context,
	method string,
	endpoint string,
	opts RequestOptions,
	fields map[string]any,
) (json.RawMessage, error) {
	var token string
	if !opts.Unauthenticated {
		current, err := c.tokens.CurrentToken(ctx)
		if err != nil {
			return nil, tokenUnavailableError(err, fields)
		}
		token = current
	}

	fields["attempts"] = 1
	res, err := c.send(ctx, method, endpoint, token, opts, fields)
	if err != nil {
		return nil, err
	}

	if res.StatusCode == http.StatusUnauthorized && !opts.Unauthenticated {
		c.recordCounter(ctx, MetricAPITokenRefreshTotal, 1, map[string]string{
			"endpoint": endpoint,
			"method":   method,
		})
		c.logWarn(ctx, "api token rejected, forcing refresh", fields)

		refreshed, refreshErr := c.tokens.RefreshToken(ctx)
		if refreshErr != nil {
			return nil, tokenUnavailableError(refreshErr, fields)
		}
		fields["attempts"] = 2
		res, err = c.send(ctx, method, endpoint, refreshed, opts, fields)
		if err != nil {
			return nil, err
		}
		if res.StatusCode == http.StatusUnauthorized {
			return nil, authRetryExhaustedError(res, fields)
		}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, httpStatusError(res, fields)
	}
	if res.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if !json.Valid(res.Body) {
		return nil, decodeError(fmt.Errorf("response body is not valid json"), fields)
	}
	return json.RawMessage(res.Body), nil
}

func (c *Client) send(
	ctx context.Context,
	method string,
	endpoint string,
	token string,
	opts RequestOptions,
	fields map[string]any,
) (TransportResponse, error) {
	req := TransportRequest{
		Method:               method,
		URL:                  c.config.API.BaseURL + endpoint,
		Headers:              c.mergeHeaders(token, fmt.Sprint(fields["request_id"]), opts.Headers),
		Query:                opts.Query,
		Body:                 opts.Body,
		Timeout:              c.config.API.Timeout,
		MaxResponseBodyBytes: c.config.API.MaxResponseBodyBytes,
	}
	res, err := c.transport.Do(ctx, req)
	if err != nil {
		return TransportResponse{}, transportFailureError(err, fields)
	}
	fields["status_code"] = res.StatusCode
	return res, nil
}

// mergeHeaders applies caller headers over the defaults. Keys are compared in
// canonical form so "content-type" replaces "Content-Type".
func (c *Client) mergeHeaders(token string, requestID string, overrides map[string]string) map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   c.config.API.UserAgent,
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	if strings.TrimSpace(requestID) != "" {
		headers[http.CanonicalHeaderKey("X-Request-ID")] = requestID
	}
	for key, value := range overrides {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		headers[http.CanonicalHeaderKey(trimmed)] = value
	}
	return headers
}

func (c *Client) mapError(err error) error {
	if err == nil {
		return nil
	}
	if c == nil || c.errorMapper == nil {
		return err
	}
	if mapped := c.errorMapper(err); mapped != nil {
		return mapped
	}
	return err
}

func (c *Client) notifyFailure(ctx context.Context, err error) {
	if c == nil || c.notifier == nil || err == nil {
		return
	}
	message := "The request to the attendance server failed"
	metadata := map[string]any{}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		metadata["text_code"] = richErr.TextCode
		metadata["code"] = richErr.Code
		switch richErr.TextCode {
		case ErrorTransportFailure:
			message = "Unable to reach the attendance server"
		case ErrorAuthRetryExhausted:
			message = "Your session has expired, please sign in again"
		case ErrorTokenUnavailable:
			message = "You are not signed in"
		case ErrorDecodeFailure:
			message = "The attendance server returned an unreadable response"
		case ErrorHTTPStatus:
			message = fmt.Sprintf("The attendance server answered with HTTP %d", richErr.Code)
		}
	}
	c.notifier.Notify(ctx, Notice{
		Level:    NoticeError,
		Message:  message,
		Metadata: metadata,
	})
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	if mapped := mapper(err); mapped != nil {
		return mapped
	}
	return err
}

func clientError(message string, category goerrors.Category, textCode string, metadata map[string]any) error {
	err := goerrors.New(message, category).
		WithCode(HTTPStatusForCategory(category)).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(cloneFields(metadata))
	}
	return err
}

func transportFailureError(source error, fields map[string]any) error {
	var richErr *goerrors.Error
	if goerrors.As(source, &richErr) && (richErr.Category == goerrors.CategoryBadInput || richErr.Category == goerrors.CategoryInternal) {
		return EnsureErrorEnvelope(richErr)
	}
	err := goerrors.Wrap(source, goerrors.CategoryExternal, "core: request did not complete").
		WithCode(http.StatusBadGateway).
		WithTextCode(ErrorTransportFailure)
	err.WithMetadata(cloneFields(fields))
	return err
}

func tokenUnavailableError(source error, fields map[string]any) error {
	err := goerrors.Wrap(source, goerrors.CategoryAuth, "core: bearer token unavailable").
		WithCode(http.StatusUnauthorized).
		WithTextCode(ErrorTokenUnavailable)
	err.WithMetadata(cloneFields(fields))
	return err
}

func authRetryExhaustedError(res TransportResponse, fields map[string]any) error {
	metadata := cloneFields(fields)
	if message := serverMessage(res.Body); message != "" {
		metadata["server_message"] = message
	}
	err := goerrors.New("core: token rejected after refresh", goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(ErrorAuthRetryExhausted)
	err.WithMetadata(metadata)
	return err
}

func httpStatusError(res TransportResponse, fields map[string]any) error {
	metadata := cloneFields(fields)
	if message := serverMessage(res.Body); message != "" {
		metadata["server_message"] = message
	}
	err := goerrors.New(fmt.Sprintf("core: http error %d", res.StatusCode), CategoryForStatus(res.StatusCode)).
		WithCode(res.StatusCode).
		WithTextCode(ErrorHTTPStatus)
	err.WithMetadata(metadata)
	return err
}

func decodeError(source error, fields map[string]any) error {
	err := goerrors.Wrap(source, goerrors.CategoryOperation, "core: decode response body").
		WithCode(http.StatusBadGateway).
		WithTextCode(ErrorDecodeFailure)
	if len(fields) > 0 {
		err.WithMetadata(cloneFields(fields))
	}
	return err
}

// serverMessage pulls {"error": "..."} or {"message": "..."} out of an error body.
func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return truncate(strings.TrimSpace(string(body)), maxServerMessageLength)
	}
	for _, key := range []string{"error", "message"} {
		switch value := payload[key].(type) {
		case string:
			return truncate(strings.TrimSpace(value), maxServerMessageLength)
		case map[string]any:
			if nested, ok := value["message"].(string); ok {
				return truncate(strings.TrimSpace(nested), maxServerMessageLength)
			}
		}
	}
	return ""
}

// truncate caps value at limit bytes without splitting a UTF-8 sequence.
func truncate(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
