package eventbus

import (
	"sort"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-kratos/kratos/v2/log"
)

// watermillLogger writes Watermill's router and pub/sub logs to a kratos logger.
type watermillLogger struct {
	sink   log.Logger
	fields watermill.LogFields
}

// NewWatermillLogger tags every record with module=eventbus.
func NewWatermillLogger(logger log.Logger) watermill.LoggerAdapter {
	return &watermillLogger{sink: log.With(logger, "module", "eventbus")}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.emit(log.LevelError, msg, fields, err)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.emit(log.LevelInfo, msg, fields, nil)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.emit(log.LevelDebug, msg, fields, nil)
}

// Trace is per message and too noisy for the analytics path.
func (l *watermillLogger) Trace(string, watermill.LogFields) {}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{sink: l.sink, fields: l.fields.Add(fields)}
}

func (l *watermillLogger) emit(level log.Level, msg string, fields watermill.LogFields, err error) {
	all := l.fields.Add(fields)
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]interface{}, 0, 2*len(keys)+4)
	kv = append(kv, log.DefaultMessageKey, msg)
	for _, k := range keys {
		kv = append(kv, k, all[k])
	}
	if err != nil {
		kv = append(kv, "error", err)
	}
	_ = l.sink.Log(level, kv...)
}
