package injector

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

type settings struct {
	strict       bool
	detectCycles bool
	logger       *log.Logger
	timingCtx    context.Context
}

// Option configures a Container.
type Option func(*settings) error

// WithStrict disables implicit annotation. In strict mode every callable with parameters
// must be annotated with Inject.
func WithStrict(strict bool) Option {
	return func(s *settings) error {
		s.strict = strict
		return nil
	}
}

// WithLogger sets the logger the container reports loading and resolution on, at debug
// level. By default nothing is logged.
func WithLogger(logger *log.Logger) Option {
	return func(s *settings) error {
		if logger == nil {
			return newError(ErrConfiguration, "logger", "logger must not be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithTiming records every service build as a timing block under ctx, which should come
// from timing.Root. Builds that happen while another service is being built are nested
// under it.
func WithTiming(ctx context.Context) Option {
	return func(s *settings) error {
		if ctx == nil {
			return newError(ErrConfiguration, "timing", "timing context must not be nil")
		}
		s.timingCtx = ctx
		return nil
	}
}

// WithModuleCycleDetection makes a module that requires itself, directly or through
// other modules, fail with ErrModuleCycle. Without it each module of the cycle is loaded
// once, in an order that depends on which one was requested first.
func WithModuleCycleDetection(detect bool) Option {
	return func(s *settings) error {
		s.detectCycles = detect
		return nil
	}
}

func defaultSettings() *settings {
	return &settings{
		logger: log.New(io.Discard),
	}
}
