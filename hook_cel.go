package props

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELHookEvaluatorOption configures the CEL hook evaluator.
type CELHookEvaluatorOption func(*celHookEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELHookEvaluatorOption {
	return func(e *celHookEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELHookEvaluatorOption {
	return func(e *celHookEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celHookEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELHookEvaluator constructs a HookEvaluator backed by cel-go.
func NewCELHookEvaluator(opts ...CELHookEvaluatorOption) HookEvaluator {
	e := &celHookEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celHookEvaluator) Evaluate(ctx HookContext, expression string) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(e.activation(ctx))
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

func (e *celHookEvaluator) Compile(expression string, _ ...CompileOption) (CompiledHook, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	return &celCompiledHook{
		evaluator:  e,
		expression: expression,
	}, nil
}

func (e *celHookEvaluator) loadOrCompile(expression string) (*celProgram, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, err
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if e.cache != nil {
		e.cache.Set(expression, bundle)
	}
	return bundle, nil
}

func (e *celHookEvaluator) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("value", celgo.DynType),
		celgo.Variable("raw", celgo.DynType),
		celgo.Variable("property", celgo.StringType),
		celgo.Variable("class", celgo.StringType),
		celgo.Variable("id", celgo.StringType),
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
	}
	if e.registry != nil {
		// cel-go has no vararg overloads; declare one fixed-arity overload per
		// supported argument count, all sharing the same binding.
		const maxCallArgs = 8
		args := []*celgo.Type{celgo.StringType}
		overloads := make([]celgo.FunctionOpt, 0, maxCallArgs+1)
		for i := 0; i <= maxCallArgs; i++ {
			overloads = append(overloads, celgo.Overload(
				fmt.Sprintf("call_dyn_%d", i),
				append([]*celgo.Type(nil), args...),
				celgo.DynType,
				celgo.FunctionBinding(e.callBinding()),
			))
			args = append(args, celgo.DynType)
		}
		opts = append(opts, celgo.Function("call", overloads...))
	}
	return celgo.NewEnv(opts...)
}

func (e *celHookEvaluator) activation(ctx HookContext) map[string]any {
	activation := ctx.binding()
	if e.registry != nil {
		activation["call"] = func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
	}
	return activation
}

type celCompiledHook struct {
	evaluator  *celHookEvaluator
	expression string
}

func (h *celCompiledHook) Evaluate(ctx HookContext) (any, error) {
	if h.evaluator == nil {
		return nil, fmt.Errorf("cel compiled hook missing evaluator")
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	program, err := h.evaluator.loadOrCompile(h.expression)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(h.evaluator.activation(ctx))
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

func (e *celHookEvaluator) callBinding() functions.FunctionOp {
	return func(values ...ref.Val) ref.Val {
		if e.registry == nil {
			return types.NewErr("props: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("props: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("props: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
