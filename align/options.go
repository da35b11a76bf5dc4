package align

import (
	"github.com/signalsfoundry/polaralign/internal/logging"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Session at construction.
type Option func(*environment)

// WithLogger sets the session logger.
func WithLogger(l logging.Logger) Option {
	return func(e *environment) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetricsRecorder attaches a metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(e *environment) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithEpochConverter replaces the default precession model.
func WithEpochConverter(c EpochConverter) Option {
	return func(e *environment) {
		if c != nil {
			e.epoch = c
		}
	}
}

// WithHorizontalTransform replaces the default horizon transform.
func WithHorizontalTransform(h HorizontalTransform) Option {
	return func(e *environment) {
		if h != nil {
			e.horizontal = h
		}
	}
}

// WithTracerProvider traces session operations with tp instead of the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *environment) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithSessionID fixes the session identifier used in logs and spans.
func WithSessionID(id string) Option {
	return func(e *environment) {
		if id != "" {
			e.id = id
		}
	}
}
