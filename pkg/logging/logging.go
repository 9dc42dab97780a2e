package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvLogFile overrides where the log file is written. Set it to "-" to
// disable the file entirely.
const EnvLogFile = "KARMATIC_LOG_FILE"

// levels maps the -v count to a level; counts past the end use the last.
var levels = []zerolog.Level{
	zerolog.WarnLevel,
	zerolog.InfoLevel,
	zerolog.DebugLevel,
	zerolog.TraceLevel,
}

// Level returns the log level for a -v count.
func Level(verbosity int) zerolog.Level {
	if verbosity < 0 {
		verbosity = 0
	}
	if verbosity >= len(levels) {
		verbosity = len(levels) - 1
	}
	return levels[verbosity]
}

// Config describes where log records go.
type Config struct {
	Verbosity int
	// Console receives human readable records. Nil means os.Stderr.
	Console io.Writer
	// File receives JSON records. Empty means no file.
	File string
}

// Setup installs the global logger described by cfg. The returned closer
// releases the log file, if one was opened.
func Setup(cfg Config) (io.Closer, error) {
	zerolog.SetGlobalLevel(Level(cfg.Verbosity))

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}
	cw := zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.Kitchen,
		NoColor:    !colorful(console),
	}
	if cfg.Verbosity < 2 {
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
	}

	var (
		out    io.Writer = cw
		closer io.Closer = nopCloser{}
		err    error
	)
	if cfg.File != "" {
		var f *os.File
		if f, err = openLogFile(cfg.File); err == nil {
			out = zerolog.MultiLevelWriter(cw, f)
			closer = f
		}
	}

	ctx := zerolog.New(out).With().Timestamp()
	if cfg.Verbosity >= 2 {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()

	if err != nil {
		log.Warn().Err(err).Str("path", cfg.File).Msg("Logging to console only")
		return closer, err
	}
	log.Debug().Int("verbosity", cfg.Verbosity).Str("file", cfg.File).Msg("Logger ready")
	return closer, nil
}

// SetupLogger logs to stderr and to the default log file. The file stays
// open for the life of the process.
func SetupLogger(verbosity int) {
	_, _ = Setup(Config{Verbosity: verbosity, File: LogFilePath()})
}

// LogFilePath is $KARMATIC_LOG_FILE, or karmatic/karmatic.log under the XDG
// state directory. It returns "" when file logging is disabled.
func LogFilePath() string {
	if p, ok := os.LookupEnv(EnvLogFile); ok {
		if p == "-" {
			return ""
		}
		return p
	}
	state := os.Getenv("XDG_STATE_HOME")
	if state == "" {
		state = xdg.StateHome
	}
	return filepath.Join(state, "karmatic", "karmatic.log")
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

func colorful(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// GetLogger returns the global logger tagged with a component name.
func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// LogCommand records a child process about to be spawned.
func LogCommand(name string, args []string) {
	log.Debug().Str("exec", name).Strs("args", args).Msg("Spawning process")
}

// LogOperationStart logs the start of an operation and returns a function to log its completion
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().Str("operation", operation).Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}
