package pcd

import "log/slog"

type options struct {
	logger *slog.Logger
}

// Option configures a Parser.
type Option func(*options)

// WithLogger attaches a structured logger to the Parser. Operations are
// recorded at debug level, failures at error level. If nil is passed,
// logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func applyOptions(opts []Option) *options {
	o := &options{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}
