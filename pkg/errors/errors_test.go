package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/arthur-debert/karmatic/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{
			name:    "no_bundler",
			code:    errors.ErrNoBundler,
			message: "no bundler found",
			wantStr: "[NO_BUNDLER] no bundler found",
		},
		{
			name:    "invalid_input",
			code:    errors.ErrInvalidInput,
			message: "bad browser",
			wantStr: "[INVALID_INPUT] bad browser",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)

			if err.Code != tt.code {
				t.Errorf("New() code = %v, want %v", err.Code, tt.code)
			}
			if err.Details == nil {
				t.Error("New() details should be initialized")
			}
			if got := err.Error(); got != tt.wantStr {
				t.Errorf("Error() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	baseErr := stderrors.New("base error")

	t.Run("wrap_non_nil_error", func(t *testing.T) {
		err := errors.Wrap(baseErr, errors.ErrConfigInvalid, "bad config")

		if err.Wrapped != baseErr {
			t.Error("Wrap() should preserve wrapped error")
		}
		wantStr := "[CONFIG_INVALID] bad config: base error"
		if got := err.Error(); got != wantStr {
			t.Errorf("Error() = %q, want %q", got, wantStr)
		}
		if !stderrors.Is(err, baseErr) {
			t.Error("errors.Is() should reach the wrapped error")
		}
	})

	t.Run("wrap_nil_error_returns_nil", func(t *testing.T) {
		if err := errors.Wrap(nil, errors.ErrInternal, "internal error"); err != nil {
			t.Error("Wrap(nil) should return nil")
		}
	})
}

func TestIsErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     errors.ErrorCode
		expected bool
	}{
		{"matching_code", errors.New(errors.ErrNotFound, "x"), errors.ErrNotFound, true},
		{"different_code", errors.New(errors.ErrNotFound, "x"), errors.ErrInternal, false},
		{"wrapped_error", errors.Wrap(stderrors.New("base"), errors.ErrFileAccess, "denied"), errors.ErrFileAccess, true},
		{"plain_error", stderrors.New("plain"), errors.ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.IsErrorCode(tt.err, tt.code); got != tt.expected {
				t.Errorf("IsErrorCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    int
		handled bool
	}{
		{"nil", nil, 0, true},
		{"credentials", errors.New(errors.ErrCredentialMissing, "x"), errors.ExitCredentialMissing, true},
		{"no_bundler", errors.New(errors.ErrNoBundler, "x"), errors.ExitNoBundler, true},
		{"engine_mirrors_status", errors.New(errors.ErrEngineFailed, "x").WithDetail(errors.DetailExitCode, 1), 1, true},
		{"engine_reserved_status", errors.New(errors.ErrEngineFailed, "x").WithDetail(errors.DetailExitCode, 7), 7, true},
		{"engine_high_status", errors.New(errors.ErrEngineFailed, "x").WithDetail(errors.DetailExitCode, 42), 1, false},
		{"engine_negative_status", errors.New(errors.ErrEngineFailed, "x").WithDetail(errors.DetailExitCode, -1), 1, false},
		{"signal", errors.New(errors.ErrEngineSignal, "x"), errors.ExitInterrupted, false},
		{"plain_error", stderrors.New("boom"), 1, false},
		{"internal", errors.New(errors.ErrInternal, "x"), 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
			if got := errors.IsHandled(tt.err); got != tt.handled {
				t.Errorf("IsHandled() = %v, want %v", got, tt.handled)
			}
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := errors.Wrap(stderrors.New("EACCES"), errors.ErrFileWrite, "writing config")

	if !stderrors.Is(err, errors.New(errors.ErrFileWrite, "other message")) {
		t.Error("errors.Is() should match on code")
	}
	if stderrors.Is(err, errors.New(errors.ErrFileAccess, "writing config")) {
		t.Error("errors.Is() should not match a different code")
	}
}

func TestHint(t *testing.T) {
	withHint := errors.New(errors.ErrEngineNotFound, "karma is not installed").
		WithDetail(errors.DetailHint, "npm install --save-dev karma")

	if got := errors.Hint(withHint); got != "npm install --save-dev karma" {
		t.Errorf("Hint() = %q", got)
	}
	if got := errors.Hint(errors.New(errors.ErrNoBundler, "x")); got != "" {
		t.Errorf("Hint() without detail = %q, want empty", got)
	}
	if got := errors.Hint(stderrors.New("plain")); got != "" {
		t.Errorf("Hint() on plain error = %q, want empty", got)
	}
}
