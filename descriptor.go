package props

import "fmt"

// DeclareOption configures a single property declaration. Options are
// applied in layers: runtime defaults first, then class defaults, then the
// call site.
type DeclareOption func(*declareConfig)

type declareConfig struct {
	visibility Visibility
	getHook    GetHook
	setHook    SetHook

	exprValidate     string
	exprSetTransform string
	exprGetTransform string
}

// WithVisibility sets the accessor visibility for the property.
func WithVisibility(v Visibility) DeclareOption {
	return func(cfg *declareConfig) {
		cfg.visibility = v
	}
}

// WithGetHook installs a native read transform. A native hook takes
// precedence over an expression-based one declared on the same property.
func WithGetHook(fn GetHook) DeclareOption {
	return func(cfg *declareConfig) {
		cfg.getHook = fn
	}
}

// WithSetHook installs a native write validator/transform. A native hook
// takes precedence over expression-based ones declared on the same property.
func WithSetHook(fn SetHook) DeclareOption {
	return func(cfg *declareConfig) {
		cfg.setHook = fn
	}
}

// WithExprValidate installs an expression set hook: the expression runs with
// the incoming value bound as `value` and must evaluate to boolean true for
// the write to proceed.
func WithExprValidate(expr string) DeclareOption {
	return func(cfg *declareConfig) {
		cfg.exprValidate = expr
	}
}

// WithExprSetTransform installs an expression set hook whose result is
// stored instead of the incoming value.
func WithExprSetTransform(expr string) DeclareOption {
	return func(cfg *declareConfig) {
		cfg.exprSetTransform = expr
	}
}

// WithExprGetTransform installs an expression get hook computed over the raw
// stored value, bound as `raw`.
func WithExprGetTransform(expr string) DeclareOption {
	return func(cfg *declareConfig) {
		cfg.exprGetTransform = expr
	}
}

// Descriptor describes one declared property: its label, visibility, hooks
// and backing store. Descriptors are immutable once declared.
type Descriptor struct {
	class      *Class
	label      string
	visibility Visibility
	getHook    GetHook
	setHook    SetHook
	store      StoreHandle
}

// Label returns the property label, unique within its declaring class.
func (d *Descriptor) Label() string {
	return d.label
}

// ClassName returns the name of the declaring class.
func (d *Descriptor) ClassName() string {
	return d.class.name
}

// Visibility returns the accessor visibility.
func (d *Descriptor) Visibility() Visibility {
	return d.visibility
}

// HasGetHook reports whether a read transform is installed.
func (d *Descriptor) HasGetHook() bool {
	return d.getHook != nil
}

// HasSetHook reports whether a write validator/transform is installed.
func (d *Descriptor) HasSetHook() bool {
	return d.setHook != nil
}

// Store returns the untyped handle of the backing store.
func (d *Descriptor) Store() StoreHandle {
	return d.store
}

// Declare registers a property of type V on class and returns its typed
// accessor. The descriptor set an instance is cleaned against is snapshotted
// at registration time, so instances registered before a Declare are not
// retroactively bound to the new property.
func Declare[V any](class *Class, label string, opts ...DeclareOption) (*Accessor[V], error) {
	if class == nil {
		return nil, fmt.Errorf("props: class is required")
	}
	if label == "" {
		return nil, fmt.Errorf("props: property label must not be empty")
	}
	rt := class.runtime

	cfg := declareConfig{visibility: VisibilityPublic}
	for _, layer := range [][]DeclareOption{rt.cfg.declareDefaults, class.defaults, opts} {
		for _, opt := range layer {
			if opt != nil {
				opt(&cfg)
			}
		}
	}
	switch cfg.visibility {
	case VisibilityPublic, VisibilityPrivate, VisibilityReadOnly:
	default:
		return nil, fmt.Errorf("props: invalid visibility %q for %s.%s", cfg.visibility, class.name, label)
	}

	getHook := cfg.getHook
	if getHook == nil && cfg.exprGetTransform != "" {
		getHook = exprGetTransformHook(rt, cfg.exprGetTransform)
	}
	setHook := cfg.setHook
	if setHook == nil {
		switch {
		case cfg.exprValidate != "" && cfg.exprSetTransform != "":
			setHook = composeSetHooks(
				exprValidateHook(rt, cfg.exprValidate),
				exprSetTransformHook(rt, cfg.exprSetTransform),
			)
		case cfg.exprValidate != "":
			setHook = exprValidateHook(rt, cfg.exprValidate)
		case cfg.exprSetTransform != "":
			setHook = exprSetTransformHook(rt, cfg.exprSetTransform)
		}
	}

	store := NewStore[V]()
	desc := &Descriptor{
		class:      class,
		label:      label,
		visibility: cfg.visibility,
		getHook:    getHook,
		setHook:    setHook,
		store:      store,
	}
	if err := class.attach(desc); err != nil {
		return nil, err
	}
	return &Accessor[V]{descriptor: desc, store: store, runtime: rt}, nil
}

func composeSetHooks(hooks ...SetHook) SetHook {
	return func(ctx HookContext, value any) (any, error) {
		current := value
		for _, hook := range hooks {
			out, err := hook(ctx, current)
			if err != nil {
				return nil, err
			}
			current = out
		}
		return current, nil
	}
}
