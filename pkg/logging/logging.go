package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// console is the process-wide console sink. All console log lines and all
// streamed subprocess output pass through it so that the stage runner's
// indentation scope applies uniformly.
var console = &indentWriter{out: os.Stdout}

// SetupLogger configures the global logger based on verbosity level.
// It sets up dual output to both console and a log file. Stage
// announcements are emitted at info level, so info is the default.
func SetupLogger(verbosity int) {
	switch verbosity {
	case 0:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case 1:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.Kitchen,
	}

	writers := []io.Writer{consoleWriter}

	logFile := getLogFilePath()
	logFileHandle, err := setupLogFile(logFile)
	if err == nil {
		writers = append(writers, logFileHandle)
	}

	multi := io.MultiWriter(writers...)
	log.Logger = zerolog.New(multi).With().Timestamp().Logger()

	if err != nil {
		log.Warn().Err(err).Str("path", logFile).Msg("Failed to create log file, logging to console only")
	}

	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}

	log.Debug().Int("verbosity", verbosity).Str("logFile", logFile).Msg("Logger initialized")
}

// GetLogger returns a contextualized logger with the given name
func GetLogger(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// Indent widens the console indentation scope by one step and returns a
// function restoring the previous width. Used by the stage runner so that
// diagnostic output emitted inside a stage body is visually nested under
// the stage announcement.
func Indent() func() {
	console.push("  ")
	return console.pop
}

// ConsoleOut returns the indentation-aware console sink. Subprocess
// stdout/stderr is streamed through it so external output lines up with
// the surrounding log messages.
func ConsoleOut() io.Writer {
	return console
}

// SetConsoleOut redirects the console sink, returning the previous
// destination. Tests use it to capture console output.
func SetConsoleOut(w io.Writer) io.Writer {
	return console.swap(w)
}

// indentWriter prefixes every output line with the current indentation.
// A write ending mid-line leaves the prefix suppressed until the line is
// terminated, so chunked subprocess output is not broken up.
type indentWriter struct {
	mu      sync.Mutex
	out     io.Writer
	prefix  []byte
	midline bool
}

func (w *indentWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.prefix) == 0 {
		return w.out.Write(p)
	}

	total := len(p)
	var buf bytes.Buffer
	for len(p) > 0 {
		if !w.midline {
			buf.Write(w.prefix)
		}
		idx := bytes.IndexByte(p, '\n')
		if idx < 0 {
			buf.Write(p)
			w.midline = true
			break
		}
		buf.Write(p[:idx+1])
		w.midline = false
		p = p[idx+1:]
	}
	if _, err := w.out.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return total, nil
}

func (w *indentWriter) push(step string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prefix = append(w.prefix, step...)
}

func (w *indentWriter) pop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.prefix) >= 2 {
		w.prefix = w.prefix[:len(w.prefix)-2]
	}
}

func (w *indentWriter) swap(out io.Writer) io.Writer {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev := w.out
	w.out = out
	return prev
}

// getLogFilePath returns the path to the log file.
// It respects XDG_STATE_HOME if set, otherwise uses ~/.local/state/dotfiles-installer/
func getLogFilePath() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "dotfiles-installer.log"
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "dotfiles-installer", "dotfiles-installer.log")
}

// setupLogFile creates the log file and its parent directories
func setupLogFile(logPath string) (*os.File, error) {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return file, nil
}

// LogCommand logs a command execution with its arguments
func LogCommand(cmd string, args []string) {
	log.Debug().
		Str("command", cmd).
		Strs("args", args).
		Msg("Executing command")
}
