package props

import (
	"errors"
	"fmt"
	"strings"
)

// HookEvaluationError captures engine metadata alongside the originating
// error from a hook expression.
type HookEvaluationError struct {
	Engine   string
	Expr     string
	Property string
	Err      error
}

func (e *HookEvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("props: %s hook %s property=%s: %v", e.Engine, describeExpression(e.Expr), e.Property, e.Err)
}

func (e *HookEvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEngineError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var hookErr *HookEvaluationError
	if errors.As(err, &hookErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "props:") {
		return err
	}
	return fmt.Errorf("props: %s hook: %w", engine, err)
}

func wrapHookEvaluationError(engine, expr, property string, err error) error {
	if err == nil {
		return nil
	}

	var hookErr *HookEvaluationError
	if errors.As(err, &hookErr) {
		if hookErr.Engine == "" {
			hookErr.Engine = engine
		}
		if hookErr.Expr == "" {
			hookErr.Expr = expr
		}
		if hookErr.Property == "" {
			hookErr.Property = property
		}
		return hookErr
	}

	return &HookEvaluationError{
		Engine:   engine,
		Expr:     expr,
		Property: property,
		Err:      err,
	}
}
