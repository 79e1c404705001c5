// Package logger owns the process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// L is the global logger instance. It discards all output until Init is called.
var L = newDiscard()

const (
	logPrefix     = "upkflags-"
	logSuffix     = ".log"
	retentionDays = 30
)

// Options configures the logger initialization.
type Options struct {
	Enabled bool         // If false, all logging is discarded
	Debug   bool         // Log at DebugLevel instead of InfoLevel
	Output  io.Writer    // Destination when LogDir is empty. Default: os.Stderr
	LogDir  string       // When set, log to a dated file in this directory
	NoColor bool
}

func newDiscard() *logrus.Logger {
	return &logrus.Logger{
		Out:       io.Discard,
		Level:     logrus.PanicLevel,
		Formatter: &logrus.TextFormatter{},
		Hooks:     make(logrus.LevelHooks),
	}
}

// Init configures logging. Call from main() before any log calls.
func Init(opts Options) error {
	if !opts.Enabled {
		L = newDiscard()
		return nil
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.LogDir != "" {
		if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
			return errors.Wrap(err, "create log dir")
		}
		cleanOldLogs(opts.LogDir)

		name := filepath.Join(opts.LogDir, logPrefix+time.Now().Format("2006-01-02")+logSuffix)
		f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return errors.Wrap(err, "open log file")
		}
		out = f
		opts.NoColor = true
	}

	level := logrus.InfoLevel
	if opts.Debug {
		level = logrus.DebugLevel
	}

	L = &logrus.Logger{
		Out:   out,
		Level: level,
		Formatter: &prefixed.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FullTimestamp:   true,
			ForceFormatting: true,
			DisableColors:   opts.NoColor,
		},
		Hooks: make(logrus.LevelHooks),
	}
	return nil
}

// cleanOldLogs removes log files older than retentionDays.
func cleanOldLogs(logDir string) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, logPrefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}

		// upkflags-2024-01-05.log
		dateStr := strings.TrimPrefix(strings.TrimSuffix(name, logSuffix), logPrefix)
		logDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}

		if logDate.Before(cutoff) {
			os.Remove(filepath.Join(logDir, name))
		}
	}
}

// WithPackage returns an entry tagged with the package being edited.
func WithPackage(name string) *logrus.Entry {
	return L.WithField("package", name)
}
