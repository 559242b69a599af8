package core

import (
	"context"
	"sync"
	"testing"
)

type capturedMetric struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []capturedMetric
	histograms []capturedMetric
}

func (r *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters = append(r.counters, capturedMetric{name: name, value: float64(value), tags: cloneTags(tags)})
}

func (r *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histograms = append(r.histograms, capturedMetric{name: name, value: value, tags: cloneTags(tags)})
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFields(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFields(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFields(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := *l.records
	out := make([]capturedLog, len(items))
	copy(out, items)
	return out
}

func hasCounter(items []capturedMetric, name string, status string) bool {
	for _, item := range items {
		if item.name == name && item.tags["status"] == status {
			return true
		}
	}
	return false
}

func newObservedClient(t *testing.T, transport *scriptedTransport, metrics *captureMetricsRecorder, logger *captureLogger) *Client {
	t.Helper()
	client, err := NewClient(Config{API: APIConfig{BaseURL: "https://api.example"}},
		WithTransport(transport),
		WithTokenSource(staticTokens{current: "old", refreshed: "new"}),
		WithMetricsRecorder(metrics),
		WithLoggerProvider(stubLoggerProvider{logger: logger}),
		WithLogger(logger),
		WithRequestIDGenerator(func() string { return "req-1" }),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestClientObservability_CallSuccess(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	transport := &scriptedTransport{responses: []TransportResponse{{StatusCode: 200, Body: []byte(`[]`)}}}
	client := newObservedClient(t, transport, metrics, logger)

	if _, err := client.Call(context.Background(), "/api/users", RequestOptions{}); err != nil {
		t.Fatalf("call: %v", err)
	}

	if !hasCounter(metrics.counters, MetricAPICallTotal, "success") {
		t.Fatalf("expected %s success counter", MetricAPICallTotal)
	}
	if len(metrics.histograms) != 1 || metrics.histograms[0].name != MetricAPICallDurationMS {
		t.Fatalf("expected one duration histogram, got %#v", metrics.histograms)
	}
	if metrics.counters[0].tags["endpoint"] != "/api/users" || metrics.counters[0].tags["status_code"] != "200" {
		t.Fatalf("unexpected counter tags %#v", metrics.counters[0].tags)
	}

	records := logger.snapshot()
	if len(records) == 0 {
		t.Fatalf("expected log records")
	}
	last := records[len(records)-1]
	if last.level != "info" || last.msg != "api call succeeded" {
		t.Fatalf("unexpected log record %#v", last)
	}
	if last.fields["request_id"] != "req-1" {
		t.Fatalf("expected request id field, got %#v", last.fields)
	}
}

func TestClientObservability_RefreshIsCountedAndLogged(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	transport := &scriptedTransport{responses: []TransportResponse{
		{StatusCode: 401},
		{StatusCode: 200, Body: []byte(`{"ok":true}`)},
	}}
	client := newObservedClient(t, transport, metrics, logger)

	if _, err := client.Call(context.Background(), "/api/stats", RequestOptions{}); err != nil {
		t.Fatalf("call: %v", err)
	}

	refreshes := 0
	for _, counter := range metrics.counters {
		if counter.name == MetricAPITokenRefreshTotal {
			refreshes++
		}
	}
	if refreshes != 1 {
		t.Fatalf("expected one refresh counter, got %d", refreshes)
	}

	sent := transport.sent()
	if len(sent) != 2 {
		t.Fatalf("expected two requests, got %d", len(sent))
	}
	if sent[0].Headers["Authorization"] != "Bearer old" || sent[1].Headers["Authorization"] != "Bearer new" {
		t.Fatalf("unexpected authorization headers %q %q", sent[0].Headers["Authorization"], sent[1].Headers["Authorization"])
	}
	if sent[1].URL != "https://api.example/api/stats" {
		t.Fatalf("unexpected url %q", sent[1].URL)
	}

	warned := false
	for _, record := range logger.snapshot() {
		if record.level == "warn" && record.msg == "api token rejected, forcing refresh" {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected refresh warning log")
	}
}

func TestClientObservability_CallFailure(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	transport := &scriptedTransport{responses: []TransportResponse{{StatusCode: 404, Body: []byte(`{"error":"no such course"}`)}}}
	client := newObservedClient(t, transport, metrics, logger)

	if _, err := client.Call(context.Background(), "/api/courses/x", RequestOptions{}); err == nil {
		t.Fatalf("expected not found error")
	}
	if !hasCounter(metrics.counters, MetricAPICallTotal, "failure") {
		t.Fatalf("expected %s failure counter", MetricAPICallTotal)
	}
	records := logger.snapshot()
	last := records[len(records)-1]
	if last.level != "error" || last.msg != "api call failed" {
		t.Fatalf("unexpected log record %#v", last)
	}
	if last.fields["status_code"] != 404 {
		t.Fatalf("expected status_code field, got %#v", last.fields["status_code"])
	}
}

func TestLogNotifier_UsesLevel(t *testing.T) {
	logger := newCaptureLogger()
	notifier := LogNotifier{Logger: logger}
	notifier.Notify(context.Background(), Notice{Level: NoticeError, Message: "boom"})
	notifier.Notify(context.Background(), Notice{Level: NoticeWarning, Message: "careful"})
	notifier.Notify(context.Background(), Notice{Level: NoticeSuccess, Message: "done"})
	notifier.Notify(context.Background(), Notice{Level: NoticeInfo, Message: " "})

	records := logger.snapshot()
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].level != "error" || records[1].level != "warn" || records[2].level != "info" {
		t.Fatalf("unexpected levels %#v", records)
	}
}
