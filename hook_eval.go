package props

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoHookEvaluator is returned when expression hooks are declared but no
// evaluator could be resolved.
var ErrNoHookEvaluator = errors.New("props: hook evaluator not configured")

// EvaluateHook executes expr against ctx using the runtime's configured
// evaluator, falling back to the expr-lang engine. Every evaluation is
// reported to the hook logger.
func (rt *Runtime) EvaluateHook(ctx HookContext, expr string) (any, error) {
	if expr == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	evaluator, err := rt.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	engine := hookEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	evalErr = wrapHookEvaluationError(engine, expr, ctx.propertyLabel(), evalErr)
	rt.hookLogger().LogHookEvaluation(HookLogEvent{
		Engine:   engine,
		Expr:     expr,
		Property: ctx.propertyLabel(),
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

func (rt *Runtime) resolveEvaluator() (HookEvaluator, error) {
	rt.evalMu.Lock()
	defer rt.evalMu.Unlock()
	if rt.cfg.evaluator != nil {
		return rt.cfg.evaluator, nil
	}
	var exprOpts []ExprHookEvaluatorOption
	if cache := rt.cfg.programCache; cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cache))
	}
	if registry := rt.cfg.functions; registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
	}
	defaultEvaluator := NewExprHookEvaluator(exprOpts...)
	if defaultEvaluator == nil {
		return nil, ErrNoHookEvaluator
	}
	rt.cfg.evaluator = defaultEvaluator
	return defaultEvaluator, nil
}

func (rt *Runtime) hookLogger() HookLogger {
	if rt.cfg.logger != nil {
		return rt.cfg.logger
	}
	return noopHookLogger{}
}

func hookEngineName(e HookEvaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*props.exprHookEvaluator":
		return "expr"
	case "*props.celHookEvaluator":
		return "cel"
	case "*props.jsHookEvaluator":
		return "js"
	default:
		return "custom"
	}
}

// exprValidateHook builds a set hook that evaluates expr with the incoming
// value bound; any result other than boolean true rejects the write.
func exprValidateHook(rt *Runtime, expr string) SetHook {
	return func(ctx HookContext, value any) (any, error) {
		ctx.Value = value
		out, err := rt.EvaluateHook(ctx, expr)
		if err != nil {
			return nil, err
		}
		accepted, isBool := out.(bool)
		if !isBool {
			return nil, fmt.Errorf("props: validation expression %q must evaluate to bool, got %T", expr, out)
		}
		if !accepted {
			return nil, fmt.Errorf("props: validation expression %q evaluated to false", expr)
		}
		return value, nil
	}
}

// exprSetTransformHook builds a set hook that stores the expression result
// instead of the incoming value.
func exprSetTransformHook(rt *Runtime, expr string) SetHook {
	return func(ctx HookContext, value any) (any, error) {
		ctx.Value = value
		return rt.EvaluateHook(ctx, expr)
	}
}

// exprGetTransformHook builds a get hook returning the expression result
// computed over the raw stored value.
func exprGetTransformHook(rt *Runtime, expr string) GetHook {
	return func(ctx HookContext, raw any) (any, error) {
		ctx.Raw = raw
		return rt.EvaluateHook(ctx, expr)
	}
}
