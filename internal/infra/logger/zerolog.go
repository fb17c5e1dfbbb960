// Package logger bridges kratos log.Logger onto a zerolog sink.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/rs/zerolog"
)

var _ log.Logger = (*ZeroLogger)(nil)

// ZeroLogger writes kratos key/value records as zerolog events.
type ZeroLogger struct {
	zl zerolog.Logger
}

// Options selects the sink format and minimum level.
type Options struct {
	// Console switches to human readable output.
	Console bool
	Level   string
}

// New writes JSON lines to w, or console output when opts.Console is set.
func New(w io.Writer, opts Options) *ZeroLogger {
	if w == nil {
		w = os.Stdout
	}
	if opts.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	return &ZeroLogger{zl: zerolog.New(w).Level(level)}
}

// Log implements log.Logger. The "msg" key becomes the zerolog message.
func (l *ZeroLogger) Log(level log.Level, keyvals ...interface{}) error {
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "KEYVALS UNPAIRED")
	}

	var evt *zerolog.Event
	switch level {
	case log.LevelDebug:
		evt = l.zl.Debug()
	case log.LevelInfo:
		evt = l.zl.Info()
	case log.LevelWarn:
		evt = l.zl.Warn()
	case log.LevelError:
		evt = l.zl.Error()
	case log.LevelFatal:
		// zerolog's Fatal exits the process; kratos' helper does that itself.
		evt = l.zl.WithLevel(zerolog.FatalLevel)
	default:
		evt = l.zl.Info()
	}
	if evt == nil {
		return nil
	}

	var msg string
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if key == log.DefaultMessageKey {
			msg = fmt.Sprint(keyvals[i+1])
			continue
		}
		switch v := keyvals[i+1].(type) {
		case error:
			evt = evt.AnErr(key, v)
		default:
			evt = evt.Interface(key, v)
		}
	}
	evt.Msg(msg)
	return nil
}

// Sync is a no-op; zerolog writes synchronously.
func (l *ZeroLogger) Sync() error {
	return nil
}
