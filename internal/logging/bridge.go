package logging

import (
	"context"

	"github.com/zoobzio/capitan"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Bridge writes capitan events to a zap logger.
type Bridge struct {
	logger   *zap.Logger
	observer *capitan.Observer
}

// NewBridge observes the given signals, or every signal when none are
// given, and logs each event at its severity.
func NewBridge(logger *zap.Logger, signals ...capitan.Signal) *Bridge {
	b := &Bridge{logger: logger.Named("events")}
	b.observer = capitan.Observe(b.handle, signals...)
	return b
}

// Close stops observing.
func (b *Bridge) Close() {
	b.observer.Close()
}

func (b *Bridge) handle(_ context.Context, e *capitan.Event) {
	fields := make([]zap.Field, 0, len(e.Fields())+1)
	fields = append(fields, zap.String("signal", e.Signal().Name()))
	for _, f := range e.Fields() {
		fields = append(fields, zap.Any(f.Key().Name(), f.Value()))
	}

	if ce := b.logger.Check(level(e.Severity()), e.Signal().Description()); ce != nil {
		ce.Time = e.Timestamp()
		ce.Write(fields...)
	}
}

func level(s capitan.Severity) zapcore.Level {
	switch s {
	case capitan.SeverityDebug:
		return zapcore.DebugLevel
	case capitan.SeverityWarn:
		return zapcore.WarnLevel
	case capitan.SeverityError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
