//go:build js_eval

package props

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsHookEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSHookEvaluator constructs a HookEvaluator backed by goja.
func NewJSHookEvaluator(opts ...JSHookEvaluatorOption) HookEvaluator {
	cfg := applyJSHookEvaluatorOptions(opts)
	return &jsHookEvaluator{
		cache:    cfg.cache,
		registry: cfg.registry,
	}
}

func (e *jsHookEvaluator) Evaluate(ctx HookContext, expression string) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	if e.cache == nil {
		return e.run(ctx, expression, nil)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, expression, program)
}

func (e *jsHookEvaluator) Compile(expression string, _ ...CompileOption) (CompiledHook, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &jsCompiledHook{
		evaluator:  e,
		expression: expression,
		program:    program,
	}, nil
}

func (e *jsHookEvaluator) loadOrCompile(expression string) (*goja.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", e.wrapExpression(expression), false)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

func (e *jsHookEvaluator) run(ctx HookContext, expression string, program *goja.Program) (any, error) {
	vm := goja.New()
	e.injectContext(vm, ctx)
	if program != nil {
		value, err := vm.RunProgram(program)
		if err != nil {
			return nil, err
		}
		return value.Export(), nil
	}
	value, err := vm.RunString(e.wrapExpression(expression))
	if err != nil {
		return nil, err
	}
	return value.Export(), nil
}

func (e *jsHookEvaluator) injectContext(vm *goja.Runtime, ctx HookContext) {
	for key, value := range ctx.binding() {
		vm.Set(key, value)
	}
	if e.registry != nil {
		vm.Set("call", func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		})
		for _, name := range e.registry.Names() {
			fn := name
			vm.Set(fn, func(arguments ...any) (any, error) {
				return e.registry.Call(fn, arguments...)
			})
		}
	}
}

func (e *jsHookEvaluator) wrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

type jsCompiledHook struct {
	evaluator  *jsHookEvaluator
	expression string
	program    *goja.Program
}

func (h *jsCompiledHook) Evaluate(ctx HookContext) (any, error) {
	if h.evaluator == nil {
		return nil, fmt.Errorf("js compiled hook missing evaluator")
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	return h.evaluator.run(ctx, h.expression, h.program)
}

func jsHookEvaluatorAvailable() bool {
	return true
}
