package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelFor maps a -v count to a zerolog level.
func LevelFor(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Setup configures the global logger to write to the console and to the
// daily log file inside logsDir. The returned closer should be closed when
// logging is no longer needed. When the file cannot be opened the logger
// still writes to the console and the error is returned alongside it.
func Setup(verbosity int, console io.Writer, logsDir string) (zerolog.Logger, io.Closer, error) {
	zerolog.SetGlobalLevel(LevelFor(verbosity))

	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen}}

	file, fileErr := openLogFile(logsDir)
	var closer io.Closer = nopCloser{}
	if fileErr == nil {
		writers = append(writers, file)
		closer = file
	}

	logger := zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
	if verbosity >= 2 {
		logger = logger.With().Caller().Logger()
	}
	log.Logger = logger

	if fileErr != nil {
		logger.Warn().Err(fileErr).Str("dir", logsDir).Msg("logging to console only")
	}
	return logger, closer, fileErr
}

// keepLogFiles is how many daily log files survive a sweep.
const keepLogFiles = 14

const logFilePattern = "darkrift-????????.log"

// openLogFile appends to today's log file in logsDir and removes the oldest
// daily files beyond keepLogFiles.
func openLogFile(logsDir string) (*os.File, error) {
	if logsDir == "" {
		return nil, fmt.Errorf("no logs directory configured")
	}
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure logs directory: %w", err)
	}

	filename := "darkrift-" + time.Now().Format("20060102") + ".log"
	file, err := os.OpenFile(filepath.Join(logsDir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	pruneLogFiles(logsDir, keepLogFiles)
	return file, nil
}

// pruneLogFiles deletes daily log files older than the newest keep. The date
// in the name sorts chronologically. Other files are left alone.
func pruneLogFiles(logsDir string, keep int) {
	matches, err := filepath.Glob(filepath.Join(logsDir, logFilePattern))
	if err != nil || len(matches) <= keep {
		return
	}
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-keep] {
		_ = os.Remove(old)
	}
}

// Component returns the global logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
