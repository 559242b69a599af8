package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-attendance/core"
	"github.com/goliatone/go-attendance/transport"
	goerrors "github.com/goliatone/go-errors"
)

type staticTokens struct {
	token string
}

func (s staticTokens) CurrentToken(context.Context) (string, error) {
	return s.token, nil
}

func (s staticTokens) RefreshToken(context.Context) (string, error) {
	return s.token, nil
}

type signedOutTokens struct{}

func (signedOutTokens) CurrentToken(context.Context) (string, error) {
	return "", errors.New("signed out")
}

func (signedOutTokens) RefreshToken(context.Context) (string, error) {
	return "", errors.New("signed out")
}

type recordedRequest struct {
	method string
	path   string
	query  string
	body   map[string]any
	auth   string
	apiKey string
}

type requestLog struct {
	mu    sync.Mutex
	items []recordedRequest
}

func (l *requestLog) add(req recordedRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, req)
}

func (l *requestLog) all() []recordedRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]recordedRequest(nil), l.items...)
}

func newBackendServer(t *testing.T, routes map[string]string) (*httptest.Server, *requestLog) {
	t.Helper()
	requests := &requestLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &body)
		}
		requests.add(recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			body:   body,
			auth:   r.Header.Get("Authorization"),
			apiKey: r.Header.Get("X-API-Key"),
		})
		payload, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)
	return server, requests
}

func newBackendClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	caller, err := core.NewClient(core.Config{API: core.APIConfig{BaseURL: baseURL}},
		core.WithTransport(transport.NewRESTAdapter(http.DefaultClient)),
		core.WithTokenSource(staticTokens{token: "tkn"}),
	)
	if err != nil {
		t.Fatalf("new core client: %v", err)
	}
	client, err := NewClient(caller)
	if err != nil {
		t.Fatalf("new backend client: %v", err)
	}
	return client
}

func TestClient_ListUsers(t *testing.T) {
	server, requests := newBackendServer(t, map[string]string{
		"GET /api/users": `[{"id":"u1","name":"Ada","email":"ada@example.com","role":"admin","fingerprint_id":4,"created_at":"Fri, 01 Mar 2024 08:00:00 GMT"}]`,
	})
	client := newBackendClient(t, server.URL)

	users, err := client.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0].ID != "u1" || users[0].FingerprintID != 4 || users[0].Role != RoleAdmin {
		t.Fatalf("unexpected users %#v", users)
	}
	expected := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	if !users[0].CreatedAt.Equal(expected) {
		t.Fatalf("unexpected created_at %s", users[0].CreatedAt)
	}
	if requests.all()[0].auth != "Bearer tkn" {
		t.Fatalf("expected bearer token, got %q", requests.all()[0].auth)
	}
}

func TestClient_CreateUserAppliesDefaultRole(t *testing.T) {
	server, requests := newBackendServer(t, map[string]string{
		"POST /api/users": `{"success":true,"user_id":"u2","message":"created"}`,
	})
	client := newBackendClient(t, server.URL)

	result, err := client.CreateUser(context.Background(), NewUser{
		Name:          " Grace ",
		Email:         "grace@example.com",
		Password:      "secret",
		FingerprintID: 12,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if !result.Success || result.UserID != "u2" {
		t.Fatalf("unexpected result %#v", result)
	}
	body := requests.all()[0].body
	if body["role"] != RoleUser || body["name"] != "Grace" || body["fingerprint_id"] != float64(12) {
		t.Fatalf("unexpected request body %#v", body)
	}
}

func TestClient_CreateUserValidation(t *testing.T) {
	server, requests := newBackendServer(t, nil)
	client := newBackendClient(t, server.URL)

	_, err := client.CreateUser(context.Background(), NewUser{Email: "nope", Role: "owner", FingerprintID: -1})
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors envelope, got %v", err)
	}
	if richErr.Category != goerrors.CategoryValidation || richErr.TextCode != core.ErrorBadInput {
		t.Fatalf("unexpected envelope %#v", richErr)
	}
	fields := map[string]bool{}
	for _, fieldErr := range richErr.ValidationErrors {
		fields[fieldErr.Field] = true
	}
	for _, field := range []string{"email", "password", "role", "fingerprint_id"} {
		if !fields[field] {
			t.Fatalf("expected field error for %s, got %#v", field, richErr.ValidationErrors)
		}
	}
	if len(requests.all()) != 0 {
		t.Fatalf("invalid input must not reach the server")
	}
}

func TestClient_Courses(t *testing.T) {
	server, requests := newBackendServer(t, map[string]string{
		"GET /api/courses":  `[{"id":"c1","code":"MTH101","name":"Algebra","schedule":"monday 08:00"}]`,
		"POST /api/courses": `{"success":true,"course_id":"c2","message":"created"}`,
	})
	client := newBackendClient(t, server.URL)

	courses, err := client.ListCourses(context.Background())
	if err != nil || len(courses) != 1 || courses[0].Code != "MTH101" {
		t.Fatalf("unexpected courses %#v %v", courses, err)
	}
	if _, err := client.CreateCourse(context.Background(), NewCourse{Name: "Physics"}); err == nil {
		t.Fatalf("expected validation error for missing code")
	}
	result, err := client.CreateCourse(context.Background(), NewCourse{Code: "PHY", Name: "Physics", Schedule: "tuesday"})
	if err != nil || result.CourseID != "c2" {
		t.Fatalf("unexpected create result %#v %v", result, err)
	}
	if len(requests.all()) != 2 || requests.all()[1].body["schedule"] != "tuesday" {
		t.Fatalf("unexpected requests %#v", requests.all())
	}
}

func TestClient_ListAttendanceSendsFilter(t *testing.T) {
	server, requests := newBackendServer(t, map[string]string{
		"GET /api/attendance": `[{"id":"a1","user_id":"u1","user_name":"Ada","course_id":"c1","course_name":"Algebra","course_code":"MTH101","status":"present","timestamp":"2024-03-01T08:05:00.123456"}]`,
	})
	client := newBackendClient(t, server.URL)

	records, err := client.ListAttendance(context.Background(), AttendanceFilter{Date: "2024-03-01", CourseID: "c1"})
	if err != nil {
		t.Fatalf("list attendance: %v", err)
	}
	if len(records) != 1 || records[0].UserName != "Ada" || records[0].Status != "present" {
		t.Fatalf("unexpected records %#v", records)
	}
	if records[0].Timestamp.Minute() != 5 {
		t.Fatalf("unexpected timestamp %s", records[0].Timestamp)
	}
	if requests.all()[0].query != "course_id=c1&date=2024-03-01" {
		t.Fatalf("unexpected query %q", requests.all()[0].query)
	}

	if _, err := client.ListAttendance(context.Background(), AttendanceFilter{Date: "01/03/2024"}); err == nil {
		t.Fatalf("expected date validation error")
	}
	if len(requests.all()) != 1 {
		t.Fatalf("invalid filter must not reach the server")
	}

	if _, err := client.ListAttendance(context.Background(), AttendanceFilter{}); err != nil {
		t.Fatalf("list without filter: %v", err)
	}
	if requests.all()[1].query != "" {
		t.Fatalf("expected empty query, got %q", requests.all()[1].query)
	}
}

func TestClient_RecordAttendance(t *testing.T) {
	server, requests := newBackendServer(t, map[string]string{
		"POST /api/attendance": `{"success":true,"message":"recorded","user_name":"Ada","course_name":"Algebra"}`,
	})
	client := newBackendClient(t, server.URL)

	if _, err := client.RecordAttendance(context.Background(), 0); err == nil {
		t.Fatalf("expected fingerprint validation error")
	}
	result, err := client.RecordAttendance(context.Background(), 7)
	if err != nil {
		t.Fatalf("record attendance: %v", err)
	}
	if result.UserName != "Ada" || result.CourseName != "Algebra" {
		t.Fatalf("unexpected result %#v", result)
	}
	if len(requests.all()) != 1 || requests.all()[0].body["fingerprint_id"] != float64(7) {
		t.Fatalf("unexpected requests %#v", requests.all())
	}
}

func TestClient_RecordDeviceAttendance(t *testing.T) {
	server, requests := newBackendServer(t, map[string]string{
		"POST /api/device/attendance": `{"success":true,"message":"Présence enregistrée"}`,
	})
	caller, err := core.NewClient(core.Config{API: core.APIConfig{BaseURL: server.URL}},
		core.WithTransport(transport.NewRESTAdapter(http.DefaultClient)),
		core.WithTokenSource(signedOutTokens{}),
	)
	if err != nil {
		t.Fatalf("new core client: %v", err)
	}
	client, err := NewClient(caller)
	if err != nil {
		t.Fatalf("new backend client: %v", err)
	}

	if _, err := client.RecordDeviceAttendance(context.Background(), " ", 4); !goerrors.IsValidation(err) {
		t.Fatalf("expected device key validation error, got %v", err)
	}
	if _, err := client.RecordDeviceAttendance(context.Background(), "device-key", 0); !goerrors.IsValidation(err) {
		t.Fatalf("expected fingerprint validation error, got %v", err)
	}

	result, err := client.RecordDeviceAttendance(context.Background(), "device-key", 4)
	if err != nil {
		t.Fatalf("record device attendance: %v", err)
	}
	if !result.Success || result.Message != "Présence enregistrée" {
		t.Fatalf("unexpected result %#v", result)
	}
	got := requests.all()
	if len(got) != 1 {
		t.Fatalf("expected one request, got %#v", got)
	}
	if got[0].apiKey != "device-key" || got[0].auth != "" || got[0].body["fingerprint_id"] != float64(4) {
		t.Fatalf("unexpected device request %#v", got[0])
	}
}

func TestClient_RecordAttendanceSurfacesServerStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"attendance already recorded today"}`))
	}))
	defer server.Close()
	client := newBackendClient(t, server.URL)

	_, err := client.RecordAttendance(context.Background(), 3)
	status, ok := core.HTTPStatus(err)
	if !ok || status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %t", status, ok)
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.Metadata["server_message"] != "attendance already recorded today" {
		t.Fatalf("expected server message, got %v", err)
	}
}

func TestClient_Dashboard(t *testing.T) {
	server, requests := newBackendServer(t, map[string]string{
		"GET /api/stats":      `{"user_count":10,"course_count":3,"today_attendances":7}`,
		"GET /api/activities": `[{"id":"x1","type":"attendance","message":"recorded for Ada","timestamp":"2024-03-01T08:05:00+00:00"}]`,
		"GET /api/health":     `{"status":"healthy","timestamp":"2024-03-01T08:00:00.000001"}`,
	})
	client := newBackendClient(t, server.URL)

	dashboard, err := client.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dashboard.Stats.UserCount != 10 || dashboard.Stats.TodayAttendances != 7 {
		t.Fatalf("unexpected stats %#v", dashboard.Stats)
	}
	if len(dashboard.Activities) != 1 || dashboard.Activities[0].Type != "attendance" {
		t.Fatalf("unexpected activities %#v", dashboard.Activities)
	}
	if len(requests.all()) != 2 {
		t.Fatalf("expected two requests, got %d", len(requests.all()))
	}

	health, err := client.Health(context.Background())
	if err != nil || health.Status != "healthy" {
		t.Fatalf("unexpected health %#v %v", health, err)
	}
}

func TestClient_DashboardStopsOnStatsFailure(t *testing.T) {
	server, requests := newBackendServer(t, map[string]string{
		"GET /api/activities": `[]`,
	})
	client := newBackendClient(t, server.URL)

	if _, err := client.Dashboard(context.Background()); err == nil {
		t.Fatalf("expected stats error")
	}
	if len(requests.all()) != 1 {
		t.Fatalf("expected activities to be skipped, got %d requests", len(requests.all()))
	}
}

func TestNewClient_RequiresCaller(t *testing.T) {
	if _, err := NewClient(nil); err == nil {
		t.Fatalf("expected caller error")
	}
}
