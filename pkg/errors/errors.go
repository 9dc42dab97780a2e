package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a failure category. Codes are stable so callers and
// tests can match on them.
type ErrorCode string

const (
	// General
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Options and project files
	ErrConfigAbsent      ErrorCode = "CONFIG_ABSENT"
	ErrConfigInvalid     ErrorCode = "CONFIG_INVALID"
	ErrConfigUnsupported ErrorCode = "CONFIG_UNSUPPORTED"
	ErrConfigLoad        ErrorCode = "CONFIG_LOAD"

	// Composition
	ErrCredentialMissing ErrorCode = "CREDENTIAL_MISSING"
	ErrNoBundler         ErrorCode = "NO_BUNDLER"
	ErrBundlerLocked     ErrorCode = "BUNDLER_LOCKED"

	// The test runner process
	ErrEngineNotFound ErrorCode = "ENGINE_NOT_FOUND"
	ErrEngineFailed   ErrorCode = "ENGINE_FAILED"
	ErrEngineSignal   ErrorCode = "ENGINE_SIGNAL"

	// Filesystem
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrFileWrite  ErrorCode = "FILE_WRITE"
)

// Detail keys with meaning outside the package that set them.
const (
	// DetailExitCode holds the exit status of a failed engine.
	DetailExitCode = "exit_code"
	// DetailHint holds a one-line remedy shown to the user.
	DetailHint = "hint"
)

// KarmaticError carries a stable code, a user-facing message and optional
// structured details. Two KarmaticErrors match under errors.Is when their
// codes are equal.
type KarmaticError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

func (e *KarmaticError) Error() string {
	if e.Wrapped == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
}

func (e *KarmaticError) Unwrap() error { return e.Wrapped }

func (e *KarmaticError) Is(target error) bool {
	t, ok := target.(*KarmaticError)
	return ok && t.Code == e.Code
}

// WithDetail sets a detail and returns e for chaining.
func (e *KarmaticError) WithDetail(key string, value interface{}) *KarmaticError {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

func build(code ErrorCode, message string, wrapped error) *KarmaticError {
	return &KarmaticError{Code: code, Message: message, Details: map[string]interface{}{}, Wrapped: wrapped}
}

// New returns an error with the given code.
func New(code ErrorCode, message string) *KarmaticError {
	return build(code, message, nil)
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *KarmaticError {
	return build(code, fmt.Sprintf(format, args...), nil)
}

// Wrap attaches a code and message to err. It returns nil when err is nil.
func Wrap(err error, code ErrorCode, message string) *KarmaticError {
	if err == nil {
		return nil
	}
	return build(code, message, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *KarmaticError {
	if err == nil {
		return nil
	}
	return build(code, fmt.Sprintf(format, args...), err)
}

func asKarmatic(err error) (*KarmaticError, bool) {
	var kErr *KarmaticError
	ok := errors.As(err, &kErr)
	return kErr, ok
}

// IsErrorCode reports whether the outermost KarmaticError in err's chain
// has code.
func IsErrorCode(err error, code ErrorCode) bool {
	kErr, ok := asKarmatic(err)
	return ok && kErr.Code == code
}

// GetErrorCode returns err's code, or ErrUnknown for foreign errors.
func GetErrorCode(err error) ErrorCode {
	if kErr, ok := asKarmatic(err); ok {
		return kErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns err's details, or nil for foreign errors.
func GetErrorDetails(err error) map[string]interface{} {
	if kErr, ok := asKarmatic(err); ok {
		return kErr.Details
	}
	return nil
}

// Hint returns the remedy attached under DetailHint, if any.
func Hint(err error) string {
	hint, _ := GetErrorDetails(err)[DetailHint].(string)
	return hint
}
