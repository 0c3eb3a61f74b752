package analytics

import (
	"context"
	"errors"

	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/observability"
)

// Sink receives enriched events.
type Sink interface {
	Capture(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) Capture(ctx context.Context, ev Event) error { return f(ctx, ev) }

// LogSink writes each event as an info line.
func LogSink(log *logger.Logger) Sink {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("analytics")
	return SinkFunc(func(_ context.Context, ev Event) error {
		fields := make(map[string]interface{}, len(ev.Properties)+1)
		for k, v := range ev.Properties {
			fields[k] = v
		}
		fields["event"] = ev.Name
		log.Info("analytics event", fields)
		return nil
	})
}

// MeterSink counts events by name and user type.
func MeterSink(m *observability.Metrics) Sink {
	return SinkFunc(func(ctx context.Context, ev Event) error {
		userType := ev.UserType()
		if userType == "" {
			userType = "anonymous"
		}
		m.RecordEvent(ctx, ev.Name, userType)
		return nil
	})
}

// MultiSink fans an event out to every sink and joins their errors.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, ev Event) error {
		var errs []error
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := s.Capture(ctx, ev); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
