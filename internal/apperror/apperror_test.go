package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_ErrorMessagePriority(t *testing.T) {
	base := errors.New("base")
	err := &Error{Kind: KindValidation, Msg: "msg", Err: base}
	if err.Error() != "msg" {
		t.Fatalf("expected msg, got %q", err.Error())
	}
}

func TestError_ErrorFallsBackToWrapped(t *testing.T) {
	base := errors.New("base")
	err := &Error{Kind: KindValidation, Err: base}
	if err.Error() != "base" {
		t.Fatalf("expected base, got %q", err.Error())
	}
}

func TestError_ErrorFallsBackToKind(t *testing.T) {
	err := &Error{Kind: KindNotFound}
	if err.Error() != string(KindNotFound) {
		t.Fatalf("expected kind string, got %q", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	base := errors.New("base")
	err := &Error{Kind: KindValidation, Err: base}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to be reachable via errors.Is")
	}
}

func TestIs_MatchesWrappedKind(t *testing.T) {
	err := NotFound("x", nil)
	wrapped := fmt.Errorf("wrap: %w", err)
	if !Is(wrapped, KindNotFound) {
		t.Fatalf("expected Is to match wrapped kind")
	}
	if Is(wrapped, KindValidation) {
		t.Fatalf("expected Is to be false for different kind")
	}
}

func TestForField_CarriesRejectedValue(t *testing.T) {
	err := ForField(KindNotFound, "route", "route not found", "Kaunas")
	wrapped := fmt.Errorf("resolve: %w", err)

	if !Is(wrapped, KindNotFound) {
		t.Fatalf("expected not_found kind")
	}
	fields := Fields(wrapped)
	if len(fields) != 1 {
		t.Fatalf("expected one field error, got %d", len(fields))
	}
	if fields[0].Field != "route" || fields[0].Message != "route not found" || fields[0].Rejected != "Kaunas" {
		t.Fatalf("unexpected field error: %+v", fields[0])
	}
}

func TestInvalid_EmptyIsNil(t *testing.T) {
	if err := Invalid("Validation failed", nil); err != nil {
		t.Fatalf("expected nil for no violations, got %v", err)
	}
}

func TestInvalid_KeepsAllFields(t *testing.T) {
	err := Invalid("Validation failed", []FieldError{
		{Field: "route", Message: "must not be blank", Rejected: " "},
		{Field: "passengers", Message: "must not be empty"},
	})
	if !Is(err, KindValidation) {
		t.Fatalf("expected validation kind")
	}
	if got := len(Fields(err)); got != 2 {
		t.Fatalf("expected 2 fields, got %d", got)
	}
}

func TestFields_PlainError(t *testing.T) {
	if Fields(errors.New("plain")) != nil {
		t.Fatalf("expected nil fields for plain error")
	}
}
