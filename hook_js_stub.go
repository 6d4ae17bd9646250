//go:build !js_eval

package props

// NewJSHookEvaluator is unavailable without the js_eval build tag.
func NewJSHookEvaluator(opts ...JSHookEvaluatorOption) HookEvaluator {
	_ = applyJSHookEvaluatorOptions(opts)
	return nil
}

func jsHookEvaluatorAvailable() bool {
	return false
}
