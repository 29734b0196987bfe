package vault

type options struct {
	logger  *Logger
	metrics MetricsObserver
}

func defaultOptions() *options {
	return &options{
		logger:  NoopLogger(),
		metrics: &NoopMetricsObserver{},
	}
}

// Option configures Vault construction behavior.
type Option func(*options)

// WithLogger configures the logger used for operation logging.
//
// If nil is passed, logging stays disabled (the default).
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsObserver configures the observer notified on every pool
// operation. If nil is passed, the no-op observer is used (the default).
func WithMetricsObserver(m MetricsObserver) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}
