package babylon

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var (
	logMu   sync.Mutex
	logFile *os.File
	verbose bool
	logger  = newLogger(nil)
)

// stderrWriter renders human readable lines on the current os.Stderr,
// colored only on a terminal. BABYLON_QUIET silences it.
type stderrWriter struct{}

func (stderrWriter) Write(p []byte) (int, error) {
	if os.Getenv("BABYLON_QUIET") != "" {
		return len(p), nil
	}
	f := os.Stderr
	w := zerolog.ConsoleWriter{
		Out:        f,
		NoColor:    !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()),
		TimeFormat: time.TimeOnly,
	}
	return w.Write(p)
}

func newLogger(file io.Writer) zerolog.Logger {
	writers := []io.Writer{stderrWriter{}}
	if file != nil {
		writers = append(writers, file)
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
}

// SetVerbose enables debug output.
func SetVerbose(v bool) {
	logMu.Lock()
	defer logMu.Unlock()
	verbose = v
	logger = newLogger(fileWriter())
}

func fileWriter() io.Writer {
	if logFile == nil {
		return nil
	}
	return logFile
}

// InitLogFile additionally writes JSON log lines to path.
func InitLogFile(path string) error {
	logMu.Lock()
	defer logMu.Unlock()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	logger = newLogger(f)
	return nil
}

func CloseLogFile() {
	logMu.Lock()
	defer logMu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logger = newLogger(nil)
}

func logEvent(level zerolog.Level, ok bool, format string, args ...any) {
	logMu.Lock()
	l := logger
	logMu.Unlock()
	ev := l.WithLevel(level)
	if ev == nil {
		return
	}
	if ok {
		ev = ev.Bool("ok", true)
	}
	ev.Msg(fmt.Sprintf(format, args...))
}

func LogInfo(format string, args ...any) {
	logEvent(zerolog.InfoLevel, false, format, args...)
}

// LogOK logs a completed step.
func LogOK(format string, args ...any) {
	logEvent(zerolog.InfoLevel, true, format, args...)
}

func LogWarn(format string, args ...any) {
	logEvent(zerolog.WarnLevel, false, format, args...)
}

func LogError(format string, args ...any) {
	logEvent(zerolog.ErrorLevel, false, format, args...)
}

func LogDebug(format string, args ...any) {
	logEvent(zerolog.DebugLevel, false, format, args...)
}
