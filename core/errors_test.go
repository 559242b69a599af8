package core

import (
	stderrors "errors"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	goerrors "github.com/goliatone/go-errors"
)

func TestDefaultErrorMapper_AssignsStableCodes(t *testing.T) {
	mapped := DefaultErrorMapper(stderrors.New("dial tcp: connection refused"))
	if mapped.TextCode != ErrorTransportFailure {
		t.Fatalf("expected transport text code, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", mapped.Code)
	}

	mapped = DefaultErrorMapper(stderrors.New("core: api.base_url is required"))
	if mapped.TextCode != ErrorBadInput {
		t.Fatalf("expected bad input text code, got %q", mapped.TextCode)
	}
	if mapped.Category != goerrors.CategoryBadInput {
		t.Fatalf("expected bad input category, got %q", mapped.Category)
	}

	if DefaultErrorMapper(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestDefaultErrorMapper_KeepsRichErrors(t *testing.T) {
	source := goerrors.New("token rejected", goerrors.CategoryAuth).
		WithTextCode(ErrorAuthRetryExhausted)
	mapped := DefaultErrorMapper(source)
	if mapped.TextCode != ErrorAuthRetryExhausted {
		t.Fatalf("expected text code to be preserved, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusUnauthorized {
		t.Fatalf("expected code filled from category, got %d", mapped.Code)
	}
}

func TestCategoryForStatus(t *testing.T) {
	cases := map[int]goerrors.Category{
		http.StatusBadRequest:          goerrors.CategoryBadInput,
		http.StatusUnauthorized:        goerrors.CategoryAuth,
		http.StatusForbidden:           goerrors.CategoryAuthz,
		http.StatusNotFound:            goerrors.CategoryNotFound,
		http.StatusConflict:            goerrors.CategoryConflict,
		http.StatusUnprocessableEntity: goerrors.CategoryValidation,
		http.StatusTooManyRequests:     goerrors.CategoryRateLimit,
		http.StatusInternalServerError: goerrors.CategoryExternal,
		http.StatusServiceUnavailable:  goerrors.CategoryExternal,
	}
	for status, expected := range cases {
		if got := CategoryForStatus(status); got != expected {
			t.Fatalf("status %d: expected %q, got %q", status, expected, got)
		}
	}
}

func TestHTTPStatus_OnlyForRemoteStatusErrors(t *testing.T) {
	statusErr := httpStatusError(TransportResponse{StatusCode: 418, Body: []byte(`{"message":"teapot"}`)}, nil)
	status, ok := HTTPStatus(statusErr)
	if !ok || status != 418 {
		t.Fatalf("expected 418, got %d %t", status, ok)
	}
	var richErr *goerrors.Error
	if !goerrors.As(statusErr, &richErr) || richErr.Metadata["server_message"] != "teapot" {
		t.Fatalf("expected server message metadata")
	}

	transportErr := transportFailureError(stderrors.New("i/o timeout"), map[string]any{"endpoint": "/api/health"})
	if _, ok := HTTPStatus(transportErr); ok {
		t.Fatalf("transport errors should not expose a status")
	}
	if !IsTransportError(transportErr) {
		t.Fatalf("expected transport classification")
	}

	if _, ok := HTTPStatus(stderrors.New("plain")); ok {
		t.Fatalf("plain errors should not expose a status")
	}
}

func TestTransportFailureError_PassesThroughBadInput(t *testing.T) {
	source := goerrors.New("transport: request url is required", goerrors.CategoryBadInput).
		WithTextCode(ErrorBadInput)
	err := transportFailureError(source, nil)
	if IsTransportError(err) {
		t.Fatalf("bad input must not be reported as a transport failure")
	}
}

func TestServerMessage(t *testing.T) {
	cases := map[string]string{
		`{"error":"bad date"}`:              "bad date",
		`{"message":"missing name"}`:        "missing name",
		`{"error":{"message":"INVALID_ID"}}`: "INVALID_ID",
		`plain text failure`:                "plain text failure",
		`{"status":"x"}`:                    "",
		``:                                  "",
	}
	for body, expected := range cases {
		if got := serverMessage([]byte(body)); got != expected {
			t.Fatalf("body %q: expected %q, got %q", body, expected, got)
		}
	}
}

func TestTruncate_KeepsRuneBoundaries(t *testing.T) {
	message := "Présence déjà enregistrée"
	for limit := 1; limit <= len(message); limit++ {
		got := truncate(message, limit)
		if !utf8.ValidString(got) {
			t.Fatalf("limit %d produced invalid utf-8 %q", limit, got)
		}
		if len(got) > limit || !strings.HasPrefix(message, got) {
			t.Fatalf("limit %d produced %q", limit, got)
		}
	}
	if got := truncate("Pré", 3); got != "Pr" {
		t.Fatalf("expected split accent to be dropped, got %q", got)
	}

	long := `{"error":"` + strings.Repeat("é", maxServerMessageLength) + `"}`
	if got := serverMessage([]byte(long)); !utf8.ValidString(got) || len(got) > maxServerMessageLength {
		t.Fatalf("server message not truncated safely: %d bytes", len(got))
	}
}
