package errors

// Exit statuses for failures the CLI reports without a stack.
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitConfigInvalid     = 2
	ExitCredentialMissing = 3
	ExitNoBundler         = 4
	ExitEngineNotFound    = 5
	ExitInterrupted       = 130
)

var codeExits = map[ErrorCode]int{
	ErrConfigInvalid:     ExitConfigInvalid,
	ErrConfigLoad:        ExitConfigInvalid,
	ErrCredentialMissing: ExitCredentialMissing,
	ErrNoBundler:         ExitNoBundler,
	ErrBundlerLocked:     ExitFailure,
	ErrEngineNotFound:    ExitEngineNotFound,
	ErrEngineSignal:      ExitInterrupted,
}

// ExitCode maps err to a process exit status. A failed engine's own
// status is mirrored when it falls in the reserved 1-9 range; nil maps to 0
// and anything else to 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if code, ok := engineStatus(err); ok {
		if reserved(code) {
			return code
		}
		return ExitFailure
	}
	if code, ok := codeExits[GetErrorCode(err)]; ok {
		return code
	}
	return ExitFailure
}

// IsHandled reports whether err is an expected failure, where the CLI
// prints a one-line message instead of a cleaned stack. Engine exits
// outside the reserved range are not handled.
func IsHandled(err error) bool {
	if err == nil {
		return true
	}
	switch GetErrorCode(err) {
	case ErrUnknown, ErrInternal:
		return false
	}
	if code, ok := engineStatus(err); ok || GetErrorCode(err) == ErrEngineFailed {
		return ok && reserved(code)
	}
	return reserved(ExitCode(err))
}

func engineStatus(err error) (int, bool) {
	code, ok := GetErrorDetails(err)[DetailExitCode].(int)
	return code, ok && code != 0
}

func reserved(code int) bool {
	return code >= 1 && code <= 9
}
