package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-attendance/core"
	"github.com/goliatone/go-config/koanf/providers/env"
	glog "github.com/goliatone/go-logger/glog"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/v2"
	"golang.org/x/term"
)

// cliEnv isolates process state so commands can run in tests.
type cliEnv struct {
	stdin        io.Reader
	stdout       io.Writer
	stderr       io.Writer
	configDir    func() (string, error)
	isTerminal   func() bool
	readPassword func() ([]byte, error)
}

func defaultEnv() cliEnv {
	return cliEnv{
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		configDir:  os.UserConfigDir,
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		readPassword: func() ([]byte, error) {
			return term.ReadPassword(int(os.Stdin.Fd()))
		},
	}
}

// readSecret prompts on a terminal without echo, otherwise reads one line
// from stdin.
func (e cliEnv) readSecret(prompt string) (string, error) {
	if e.isTerminal != nil && e.isTerminal() && e.readPassword != nil {
		fmt.Fprint(e.stderr, prompt)
		secret, err := e.readPassword()
		fmt.Fprintln(e.stderr)
		if err != nil {
			return "", err
		}
		return string(secret), nil
	}
	line, err := bufio.NewReader(e.stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (e cliEnv) defaultStatePath() string {
	if e.configDir == nil {
		return "attendance-session.db"
	}
	dir, err := e.configDir()
	if err != nil || strings.TrimSpace(dir) == "" {
		return "attendance-session.db"
	}
	return filepath.Join(dir, "attendance", "session.db")
}

const envPrefix = "ATTENDANCE_"

type envKind int

const (
	envString envKind = iota
	envDuration
	envInt
)

type envKey struct {
	path string
	kind envKind
}

// envKeys maps ATTENDANCE_* variables onto dotted config paths. Variables
// outside this table are ignored.
var envKeys = map[string]envKey{
	"ATTENDANCE_SERVICE_NAME":       {"service_name", envString},
	"ATTENDANCE_BASE_URL":           {"api.base_url", envString},
	"ATTENDANCE_TIMEOUT":            {"api.timeout", envDuration},
	"ATTENDANCE_MAX_RESPONSE_BYTES": {"api.max_response_body_bytes", envInt},
	"ATTENDANCE_USER_AGENT":         {"api.user_agent", envString},
	"ATTENDANCE_API_KEY":            {"identity.api_key", envString},
	"ATTENDANCE_AUTH_URL":           {"identity.auth_url", envString},
	"ATTENDANCE_TOKEN_URL":          {"identity.token_url", envString},
	"ATTENDANCE_RENEW_BEFORE":       {"identity.renew_before", envDuration},
}

// envConfigLoader reads ATTENDANCE_* variables from the process environment
// through the go-config env provider.
type envConfigLoader struct{}

func (envConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	var invalid []string
	provider := env.ProviderWithValue(envPrefix, ".", func(name string, value string) (string, any) {
		key, ok := envKeys[name]
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			return "", nil
		}
		switch key.kind {
		case envDuration:
			if _, err := time.ParseDuration(value); err != nil {
				invalid = append(invalid, fmt.Sprintf("%s: %v", name, err))
				return "", nil
			}
		case envInt:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				invalid = append(invalid, fmt.Sprintf("%s: %v", name, err))
				return "", nil
			}
			return key.path, n
		}
		return key.path, value
	})
	provider.SetLogger(glog.Nop())

	k := koanf.New(".")
	if err := k.Load(provider, kjson.Parser()); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, fmt.Errorf("invalid environment: %s", strings.Join(invalid, "; "))
	}
	return k.Raw(), nil
}

var _ core.RawConfigLoader = envConfigLoader{}
