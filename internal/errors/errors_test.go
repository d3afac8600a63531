package errors

import (
	stderrors "errors"
	"net/http"
	"testing"
)

func TestWrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrInternalServer, cause)

	if err.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", err.Code)
	}
	if err.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", err.StatusCode)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected wrapped error to match cause via errors.Is")
	}
	if err.Error() != ErrInternalServer.Message {
		t.Errorf("Error() leaked internal detail: %q", err.Error())
	}
	if ErrInternalServer.Internal != nil {
		t.Error("Wrap must not mutate the sentinel")
	}
}

func TestWithMessage(t *testing.T) {
	err := WithMessage(ErrInvalidInput, "name is required")

	if err.Message != "name is required" {
		t.Errorf("message = %q", err.Message)
	}
	if err.Code != ErrInvalidInput.Code || err.StatusCode != http.StatusBadRequest {
		t.Errorf("unexpected code/status: %s/%d", err.Code, err.StatusCode)
	}

	var appErr *AppError
	if !stderrors.As(error(err), &appErr) {
		t.Fatal("expected errors.As to find *AppError")
	}
}
