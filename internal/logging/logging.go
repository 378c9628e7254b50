// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Setup sends logs to path at level. While the TUI runs it owns the
// terminal, so the run command always logs to a file; an empty path picks
// DefaultPath. The returned closer releases the file.
func Setup(level, path string) (io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	configure(file, lvl, &log.TextFormatter{DisableColors: true, FullTimestamp: true})
	return file, nil
}

// SetupStderr is used by the one-shot subcommands.
func SetupStderr(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	configure(os.Stderr, lvl, &log.TextFormatter{})
	return nil
}

func ParseLevel(level string) (log.Level, error) {
	if level == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// DefaultPath is $XDG_STATE_HOME/lyroverlay/lyroverlay.log.
func DefaultPath() (string, error) {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "lyroverlay", "lyroverlay.log"), nil
}

func configure(out io.Writer, level log.Level, formatter log.Formatter) {
	log.SetOutput(out)
	log.SetLevel(level)
	log.SetFormatter(formatter)
}
