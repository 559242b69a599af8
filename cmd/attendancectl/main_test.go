package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-attendance/core"
)

type fakeServer struct {
	mu      sync.Mutex
	apiAuth []string
	signIns int
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/accounts:signInWithPassword", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"INVALID_PASSWORD"}}`))
			return
		}
		f.mu.Lock()
		f.signIns++
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"localId":"uid-1","email":"ada@example.com","displayName":"Ada","idToken":"id-1","refreshToken":"rt-1","expiresIn":"3600"}`))
	})
	mux.HandleFunc("/api/device/attendance", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.apiAuth = append(f.apiAuth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		if r.Header.Get("X-API-Key") != "device-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Clé API invalide"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"Présence enregistrée"}`))
	})
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.apiAuth = append(f.apiAuth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer id-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"7","name":"Ada","email":"ada@example.com","role":"admin"}]`))
	})
	return mux
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func runCLI(t *testing.T, vars map[string]string, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	configDir := t.TempDir()
	setEnv(t, vars)
	env := cliEnv{
		stdin:      strings.NewReader(""),
		stdout:     &stdout,
		stderr:     &stderr,
		configDir:  func() (string, error) { return configDir, nil },
		isTerminal: func() bool { return false },
	}
	cmd := newRootCommand(env)
	cmd.SetArgs(args)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// setEnv resets every ATTENDANCE_* variable the CLI reads so values from a
// previous invocation or the host do not leak into the next one.
func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for name := range envKeys {
		t.Setenv(name, vars[name])
	}
}

func serverVars(server *httptest.Server) map[string]string {
	return map[string]string{
		"ATTENDANCE_BASE_URL":  server.URL,
		"ATTENDANCE_API_KEY":   "api-key",
		"ATTENDANCE_AUTH_URL":  server.URL + "/identity",
		"ATTENDANCE_TOKEN_URL": server.URL + "/token",
	}
}

func TestCLI_LoginPersistsSessionAcrossInvocations(t *testing.T) {
	fake := &fakeServer{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()
	vars := serverVars(server)
	dsn := "--state-dsn=file:" + filepath.Join(t.TempDir(), "session.db") + "?_busy_timeout=5000"

	login := runCLI(t, vars, "login", "--email", "ada@example.com", "--password", "secret", dsn)
	if login.err != nil {
		t.Fatalf("login: %v (stderr %s)", login.err, login.stderr)
	}
	var account core.Account
	if err := json.Unmarshal([]byte(login.stdout), &account); err != nil {
		t.Fatalf("decode login output %q: %v", login.stdout, err)
	}
	if account.UID != "uid-1" || account.DisplayName != "Ada" {
		t.Fatalf("unexpected account %#v", account)
	}

	list := runCLI(t, vars, "users", "list", dsn)
	if list.err != nil {
		t.Fatalf("users list: %v (stderr %s)", list.err, list.stderr)
	}
	var users []map[string]any
	if err := json.Unmarshal([]byte(list.stdout), &users); err != nil {
		t.Fatalf("decode users output %q: %v", list.stdout, err)
	}
	if len(users) != 1 || users[0]["id"] != "7" {
		t.Fatalf("unexpected users %#v", users)
	}
	if len(fake.apiAuth) != 1 || fake.apiAuth[0] != "Bearer id-1" {
		t.Fatalf("expected restored token on the api call, got %v", fake.apiAuth)
	}

	whoami := runCLI(t, vars, "whoami", "-o", "yaml", dsn)
	if whoami.err != nil {
		t.Fatalf("whoami: %v", whoami.err)
	}
	if !strings.Contains(whoami.stdout, "uid: uid-1") {
		t.Fatalf("unexpected whoami output %q", whoami.stdout)
	}

	if logout := runCLI(t, vars, "logout", dsn); logout.err != nil {
		t.Fatalf("logout: %v", logout.err)
	}
	after := runCLI(t, vars, "whoami", dsn)
	if after.err != nil {
		t.Fatalf("whoami after logout: %v", after.err)
	}
	if !strings.Contains(after.stdout, `"signed_out"`) {
		t.Fatalf("expected signed out status, got %q", after.stdout)
	}
	if fake.signIns != 1 {
		t.Fatalf("expected a single sign in, got %d", fake.signIns)
	}
}

func TestCLI_ListWithoutSessionIsTokenUnavailable(t *testing.T) {
	fake := &fakeServer{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	res := runCLI(t, serverVars(server), "users", "list", "--ephemeral")
	if !core.IsTokenUnavailable(res.err) {
		t.Fatalf("expected token unavailable error, got %v", res.err)
	}
	if len(fake.apiAuth) != 0 {
		t.Fatalf("expected no api call without a session, got %v", fake.apiAuth)
	}
	var stderr bytes.Buffer
	printError(&stderr, res.err)
	if !strings.HasPrefix(stderr.String(), "error: ") {
		t.Fatalf("unexpected error output %q", stderr.String())
	}
}

func TestCLI_DeviceRecordWorksWithoutSession(t *testing.T) {
	fake := &fakeServer{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	res := runCLI(t, serverVars(server), "attendance", "device-record", "--fingerprint-id", "4", "--device-key", "device-key", "--ephemeral")
	if res.err != nil {
		t.Fatalf("device record: %v (stderr %s)", res.err, res.stderr)
	}
	if !strings.Contains(res.stdout, `"success": true`) {
		t.Fatalf("unexpected output %q", res.stdout)
	}
	if len(fake.apiAuth) != 1 || fake.apiAuth[0] != "" {
		t.Fatalf("expected one request without a bearer token, got %v", fake.apiAuth)
	}

	t.Setenv(deviceKeyEnv, "wrong-key")
	res = runCLI(t, serverVars(server), "attendance", "device-record", "--fingerprint-id", "4", "--ephemeral")
	if status, ok := core.HTTPStatus(res.err); !ok || status != http.StatusUnauthorized {
		t.Fatalf("expected 401 from the device key in the environment, got %v", res.err)
	}
}

func TestCLI_LoginRejectedShowsProviderMessage(t *testing.T) {
	server := httptest.NewServer((&fakeServer{}).handler())
	defer server.Close()

	res := runCLI(t, serverVars(server), "login", "--email", "ada@example.com", "--password", "wrong", "--ephemeral")
	if res.err == nil {
		t.Fatalf("expected sign in to fail")
	}
	var stderr bytes.Buffer
	printError(&stderr, res.err)
	if stderr.String() != "error: Incorrect password.\n" {
		t.Fatalf("unexpected error output %q", stderr.String())
	}
}

func TestCLI_FlagsOverrideEnvironment(t *testing.T) {
	fake := &fakeServer{}
	server := httptest.NewServer(fake.handler())
	defer server.Close()
	vars := serverVars(server)
	dsn := "--state-dsn=file:" + filepath.Join(t.TempDir(), "session.db") + "?_busy_timeout=5000"

	if login := runCLI(t, vars, "login", "--email", "ada@example.com", "--password", "secret", dsn); login.err != nil {
		t.Fatalf("login: %v", login.err)
	}

	vars["ATTENDANCE_BASE_URL"] = "http://127.0.0.1:1"
	res := runCLI(t, vars, "users", "list", dsn, "--base-url", server.URL, "--metrics")
	if res.err != nil {
		t.Fatalf("users list: %v (stderr %s)", res.err, res.stderr)
	}
	if !strings.Contains(res.stdout, `"name": "Ada"`) {
		t.Fatalf("unexpected users output %q", res.stdout)
	}
	if !strings.Contains(res.stderr, "count=1") {
		t.Fatalf("expected metrics on stderr, got %q", res.stderr)
	}
}

func TestCLI_ValidationFailsBeforeWiring(t *testing.T) {
	res := runCLI(t, nil, "attendance", "record", "--fingerprint-id", "0", "--ephemeral")
	if res.err == nil || !strings.Contains(res.err.Error(), "fingerprint") {
		t.Fatalf("expected fingerprint validation error, got %v", res.err)
	}
	res = runCLI(t, nil, "users", "list", "-o", "xml", "--ephemeral")
	if res.err == nil || !strings.Contains(res.err.Error(), "unsupported output format") {
		t.Fatalf("expected output format error, got %v", res.err)
	}
}

func TestEnvConfigLoader(t *testing.T) {
	setEnv(t, map[string]string{
		"ATTENDANCE_BASE_URL":           " https://attendance.example.com ",
		"ATTENDANCE_TIMEOUT":            "3s",
		"ATTENDANCE_MAX_RESPONSE_BYTES": "2048",
		"ATTENDANCE_RENEW_BEFORE":       "90s",
	})
	t.Setenv("ATTENDANCE_UNKNOWN", "ignored")

	raw, err := envConfigLoader{}.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	api, ok := raw["api"].(map[string]any)
	if !ok {
		t.Fatalf("expected api section, got %#v", raw)
	}
	if api["base_url"] != "https://attendance.example.com" {
		t.Fatalf("unexpected base url %#v", api["base_url"])
	}
	if _, ok := raw["unknown"]; ok {
		t.Fatalf("unexpected variables should be skipped, got %#v", raw)
	}
	identity, _ := raw["identity"].(map[string]any)
	if _, ok := identity["api_key"]; ok {
		t.Fatalf("empty values should be skipped, got %#v", identity)
	}

	cfg, err := core.NewCfgxConfigProvider(envConfigLoader{}).Load(context.Background(), core.DefaultConfig())
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.API.Timeout)
	}
	if cfg.API.MaxResponseBodyBytes != 2048 {
		t.Fatalf("unexpected max bytes %d", cfg.API.MaxResponseBodyBytes)
	}
	if cfg.Identity.RenewBefore != 90*time.Second {
		t.Fatalf("unexpected renew before %s", cfg.Identity.RenewBefore)
	}
}

func TestEnvConfigLoader_RejectsMalformedValues(t *testing.T) {
	setEnv(t, map[string]string{
		"ATTENDANCE_RENEW_BEFORE":       "soon",
		"ATTENDANCE_MAX_RESPONSE_BYTES": "lots",
	})
	_, err := envConfigLoader{}.LoadRaw(context.Background())
	if err == nil {
		t.Fatalf("expected parse error")
	}
	for _, name := range []string{"ATTENDANCE_RENEW_BEFORE", "ATTENDANCE_MAX_RESPONSE_BYTES"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("expected %s in error, got %v", name, err)
		}
	}
}

func TestPrinter_YAML(t *testing.T) {
	var buf bytes.Buffer
	out, err := newPrinter("YML", &buf)
	if err != nil {
		t.Fatalf("new printer: %v", err)
	}
	if err := out.print(core.Account{UID: "u-1", Email: "ada@example.com"}); err != nil {
		t.Fatalf("print: %v", err)
	}
	if buf.String() != "uid: u-1\nemail: ada@example.com\n" {
		t.Fatalf("unexpected yaml %q", buf.String())
	}
}

func TestPrintError_ValidationShowsFields(t *testing.T) {
	res := runCLI(t, nil, "courses", "add", "--ephemeral")
	if res.err == nil {
		t.Fatalf("expected validation error")
	}
	var stderr bytes.Buffer
	printError(&stderr, res.err)
	if !strings.Contains(stderr.String(), "code") || strings.Contains(stderr.String(), "[validation") {
		t.Fatalf("unexpected error output %q", stderr.String())
	}
}
