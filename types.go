package props

import (
	"time"

	"github.com/goliatone/go-props/pkg/activity"
	"github.com/goliatone/go-props/pkg/identity"
)

// Visibility controls the externally exposed write path of an accessor.
// Enforcement happens at the accessor boundary only; the underlying store has
// no access control.
type Visibility string

const (
	// VisibilityPublic allows writes through the accessor.
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate rejects writes through the accessor; declaring code
	// writes the store directly.
	VisibilityPrivate Visibility = "private"
	// VisibilityReadOnly rejects writes through the accessor permanently.
	VisibilityReadOnly Visibility = "readonly"
)

// HookContext carries the inputs available to a hook invocation, both native
// Go hooks and expression-evaluated ones.
type HookContext struct {
	Class    string
	Property string
	ID       identity.ID

	// Raw is the stored value on reads; Value is the incoming value on
	// writes.
	Raw   any
	Value any

	Args     map[string]any
	Metadata map[string]any
	Now      *time.Time
}

func (ctx HookContext) withDefaultNow() HookContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx HookContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx HookContext) withDefaultMaps() HookContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx HookContext) propertyLabel() string {
	if ctx.Class == "" && ctx.Property == "" {
		return "unknown"
	}
	if ctx.Class == "" {
		return ctx.Property
	}
	return ctx.Class + "." + ctx.Property
}

// binding exposes the context to expression engines under stable names.
func (ctx HookContext) binding() map[string]any {
	env := map[string]any{
		"value":    ctx.Value,
		"raw":      ctx.Raw,
		"property": ctx.Property,
		"class":    ctx.Class,
		"id":       ctx.ID.String(),
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
	}
	return env
}

// GetHook transforms the raw stored value on reads. The returned value is
// what the accessor hands back to the caller.
type GetHook func(ctx HookContext, raw any) (any, error)

// SetHook validates or transforms the incoming value on writes. Returning an
// error rejects the write and leaves the store unmodified; otherwise the
// returned value is stored.
type SetHook func(ctx HookContext, value any) (any, error)

// HookEvaluator executes hook expressions against a hook context.
type HookEvaluator interface {
	Evaluate(ctx HookContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledHook, error)
}

// CompiledHook represents a reusable hook expression program.
type CompiledHook interface {
	Evaluate(ctx HookContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// Option configures a Runtime.
type Option func(*runtimeConfig)

type runtimeConfig struct {
	evaluator       HookEvaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	logger          HookLogger
	activityHooks   activity.Hooks
	activityChannel string
	finalizerErr    FinalizerErrorFunc
	declareDefaults []DeclareOption
}

func applyOptions(opts []Option) runtimeConfig {
	cfg := runtimeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithHookEvaluator configures the evaluator used for expression hooks.
func WithHookEvaluator(e HookEvaluator) Option {
	return func(cfg *runtimeConfig) {
		cfg.evaluator = e
	}
}

// WithActivityHooks attaches lifecycle activity hooks to the runtime. Hooks
// are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *runtimeConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel overrides the default channel stamped on lifecycle
// events.
func WithActivityChannel(channel string) Option {
	return func(cfg *runtimeConfig) {
		cfg.activityChannel = channel
	}
}

// WithDefaultDeclareOptions configures declaration options applied to every
// Declare on this runtime, before class defaults and call-site options.
// Defaults are explicit per-runtime state, never ambient process globals, so
// declarations stay deterministic and testable in isolation.
func WithDefaultDeclareOptions(opts ...DeclareOption) Option {
	return func(cfg *runtimeConfig) {
		cfg.declareDefaults = append(cfg.declareDefaults, opts...)
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.Hook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
