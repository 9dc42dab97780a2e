package karmatic

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/karmatic/pkg/diagnostics"
	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/style"
)

// HandleError reports err on w and returns the process exit status.
// Statuses 1-9 are expected failures and get a one-line message; anything
// else, including an engine exit outside that range, prints the cleaned
// diagnostic and exits 1.
func HandleError(w io.Writer, err error) int {
	cwd, _ := workingDir()
	reportError(w, err, cwd)
	return errors.ExitCode(err)
}

func reportError(w io.Writer, err error, cwd string) {
	if err == nil {
		return
	}
	switch {
	case errors.IsErrorCode(err, errors.ErrEngineSignal):
	case errors.IsErrorCode(err, errors.ErrEngineFailed) && errors.IsHandled(err):
		// The runner has already reported on its own output.
	case errors.IsHandled(err):
		style.Fail(w, userMessage(err))
	default:
		fmt.Fprintln(w, diagnostics.CleanStack(err.Error(), cwd))
	}
}

// userMessage is the error text without its code, followed by any hint.
func userMessage(err error) string {
	var kErr *errors.KarmaticError
	if !stderrors.As(err, &kErr) {
		return err.Error()
	}
	msg := kErr.Message
	if kErr.Wrapped != nil {
		msg += ": " + kErr.Wrapped.Error()
	}
	if hint := errors.Hint(err); hint != "" {
		msg += "\n" + style.Indent(strings.TrimSpace(hint), 1)
	}
	return msg
}
