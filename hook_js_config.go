package props

type jsHookEvaluatorConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// JSHookEvaluatorOption configures the JS hook evaluator.
type JSHookEvaluatorOption func(*jsHookEvaluatorConfig)

// JSWithProgramCache applies a ProgramCache to the JS evaluator.
func JSWithProgramCache(cache ProgramCache) JSHookEvaluatorOption {
	return func(cfg *jsHookEvaluatorConfig) {
		cfg.cache = cache
	}
}

// JSWithFunctionRegistry applies a FunctionRegistry to the JS evaluator.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSHookEvaluatorOption {
	return func(cfg *jsHookEvaluatorConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyJSHookEvaluatorOptions(opts []JSHookEvaluatorOption) jsHookEvaluatorConfig {
	cfg := jsHookEvaluatorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
