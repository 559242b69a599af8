package command

import (
	"context"
	"net/http"
	"testing"

	"github.com/goliatone/go-attendance/backend"
	"github.com/goliatone/go-attendance/core"
	goerrors "github.com/goliatone/go-errors"
)

func TestRecordAttendanceMessage_ValidateReturnsRichError(t *testing.T) {
	err := (RecordAttendanceMessage{}).Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.TextCode != core.ErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.ErrorBadInput, rich.TextCode)
	}
	if rich.Code != http.StatusBadRequest {
		t.Fatalf("expected %d code, got %d", http.StatusBadRequest, rich.Code)
	}
	validation := rich.AllValidationErrors()
	if len(validation) == 0 {
		t.Fatalf("expected validation errors in envelope")
	}
	if validation[0].Field != "fingerprint_id" {
		t.Fatalf("expected fingerprint_id validation field, got %q", validation[0].Field)
	}
}

func TestCreateUserMessage_ValidateUsesUserRules(t *testing.T) {
	err := (CreateUserMessage{User: backend.NewUser{Email: "ada@example.com"}}).Validate()
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if err := (CreateUserMessage{User: backend.NewUser{Email: "ada@example.com", Password: "pw"}}).Validate(); err != nil {
		t.Fatalf("expected valid user, got %v", err)
	}
}

func TestSignInMessage_Validate(t *testing.T) {
	if err := (SignInMessage{Password: "pw"}).Validate(); err == nil {
		t.Fatalf("expected email validation error")
	}
	if err := (SignInMessage{Email: "ada@example.com"}).Validate(); err == nil {
		t.Fatalf("expected password validation error")
	}
	if err := (SignInMessage{Email: "ada@example.com", Password: "pw"}).Validate(); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
}

func TestCreateUserCommand_NilServiceReturnsRichError(t *testing.T) {
	var cmd *CreateUserCommand
	err := cmd.Execute(context.Background(), CreateUserMessage{})
	if err == nil {
		t.Fatalf("expected dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
	if rich.TextCode != core.ErrorInternal {
		t.Fatalf("expected %q text code, got %q", core.ErrorInternal, rich.TextCode)
	}
	if rich.Code != http.StatusInternalServerError {
		t.Fatalf("expected %d code, got %d", http.StatusInternalServerError, rich.Code)
	}
}
