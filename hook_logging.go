package props

import "time"

// HookLogEvent describes a hook expression evaluation attempt for logging.
type HookLogEvent struct {
	Engine   string
	Expr     string
	Property string
	Duration time.Duration
	Err      error
}

// HookLogger records hook evaluation events.
type HookLogger interface {
	LogHookEvaluation(HookLogEvent)
}

// HookLoggerFunc adapts a function to HookLogger.
type HookLoggerFunc func(HookLogEvent)

// LogHookEvaluation implements HookLogger.
func (f HookLoggerFunc) LogHookEvaluation(event HookLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopHookLogger struct{}

func (noopHookLogger) LogHookEvaluation(HookLogEvent) {}

// WithHookLogger attaches a hook evaluation logger to the runtime.
func WithHookLogger(logger HookLogger) Option {
	return func(cfg *runtimeConfig) {
		if logger == nil {
			cfg.logger = noopHookLogger{}
			return
		}
		cfg.logger = logger
	}
}
