package services

import (
	"log/slog"
	"time"

	"github.com/vncsmyrnk/onlinepoll/internal/core/ports"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type options struct {
	clock  ports.Clock
	logger *slog.Logger
}

// Option customises the collaborators shared by every service.
type Option func(*options)

func WithClock(clock ports.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		clock:  systemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
