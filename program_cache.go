package props

// ProgramCache stores compiled hook expression programs keyed by expression
// strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache on the runtime. The cache is
// shared by every expression engine the runtime builds.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *runtimeConfig) {
		cfg.programCache = cache
	}
}
