package props

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprHookEvaluatorOption configures an expr hook evaluator instance.
type ExprHookEvaluatorOption func(*exprHookEvaluator)

// ExprWithProgramCache wires a ProgramCache into the expr evaluator.
func ExprWithProgramCache(cache ProgramCache) ExprHookEvaluatorOption {
	return func(e *exprHookEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr evaluator.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprHookEvaluatorOption {
	return func(e *exprHookEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// exprHookEvaluator executes hook expressions using github.com/expr-lang/expr.
type exprHookEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprHookEvaluator constructs a HookEvaluator backed by expr-lang/expr.
// It is the engine the runtime falls back to when none is configured.
func NewExprHookEvaluator(opts ...ExprHookEvaluatorOption) HookEvaluator {
	e := &exprHookEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Evaluate compiles and runs expression against the hook context binding.
func (e *exprHookEvaluator) Evaluate(ctx HookContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEngineError("expr", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	env := e.environment(ctx)
	if e.cache == nil {
		result, err := exprlang.Eval(expression, env)
		if err != nil {
			return nil, wrapHookEvaluationError("expr", expression, ctx.propertyLabel(), err)
		}
		return result, nil
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return nil, wrapHookEvaluationError("expr", expression, ctx.propertyLabel(), err)
	}
	return result, nil
}

// Compile returns a compiled hook that evaluates expression per invocation.
func (e *exprHookEvaluator) Compile(expression string, _ ...CompileOption) (CompiledHook, error) {
	if expression == "" {
		return nil, wrapEngineError("expr", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &exprCompiledHook{
		evaluator:  e,
		program:    program,
		expression: expression,
	}, nil
}

func (e *exprHookEvaluator) loadOrCompile(expression string) (*exprvm.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.registryNames() {
		fn := e.registryFunction(name)
		options = append(options, exprlang.Function(name, fn))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapHookEvaluationError("expr", expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

type exprCompiledHook struct {
	evaluator  *exprHookEvaluator
	program    *exprvm.Program
	expression string
}

func (h *exprCompiledHook) Evaluate(ctx HookContext) (any, error) {
	if h.evaluator == nil {
		return nil, wrapEngineError("expr", fmt.Errorf("compiled hook missing evaluator"))
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	if h.program == nil {
		return h.evaluator.Evaluate(ctx, h.expression)
	}
	env := h.evaluator.environment(ctx)
	result, err := exprlang.Run(h.program, env)
	if err != nil {
		return nil, wrapHookEvaluationError("expr", h.expression, ctx.propertyLabel(), err)
	}
	return result, nil
}

func (e *exprHookEvaluator) environment(ctx HookContext) map[string]any {
	env := ctx.binding()
	if e.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
		for _, name := range e.registry.Names() {
			fn := name
			env[fn] = func(arguments ...any) (any, error) {
				return e.registry.Call(fn, arguments...)
			}
		}
	}
	return env
}

func (e *exprHookEvaluator) registryNames() []string {
	if e == nil || e.registry == nil {
		return nil
	}
	return e.registry.Names()
}

func (e *exprHookEvaluator) registryFunction(name string) func(...any) (any, error) {
	if e == nil || e.registry == nil {
		return nil
	}
	return func(arguments ...any) (any, error) {
		return e.registry.Call(name, arguments...)
	}
}
