// Package props attaches private, per-instance data to arbitrary Go objects
// without embedding that data inside the objects themselves. Properties are
// declared once per class as identity-indexed stores; instances are
// registered to obtain a unique runtime identity, and every property entry
// for an instance is removed exactly once when the instance is destroyed,
// across the class's full ancestor chain.
package props

import (
	"fmt"
	"sync"

	"github.com/goliatone/go-props/pkg/activity"
	"github.com/goliatone/go-props/pkg/identity"
)

// Runtime owns one execution context: an identity registry, the classes
// defined against it, and the lifecycle machinery. Identities minted by one
// runtime have no meaning in another.
type Runtime struct {
	cfg    runtimeConfig
	evalMu sync.Mutex

	registry  *identity.Registry
	lifecycle *manager
	emitter   *activity.Emitter

	mu      sync.RWMutex
	classes map[string]*Class
}

// New constructs a runtime with the provided configuration.
func New(opts ...Option) *Runtime {
	cfg := applyOptions(opts)
	rt := &Runtime{
		cfg:      cfg,
		registry: identity.New(),
		classes:  map[string]*Class{},
	}
	rt.lifecycle = newManager(rt)
	rt.emitter = activity.NewEmitter(cfg.activityHooks, activity.Config{
		Enabled: len(cfg.activityHooks) > 0,
		Channel: cfg.activityChannel,
	})
	return rt
}

// Registry exposes the runtime's identity registry.
func (rt *Runtime) Registry() *identity.Registry {
	return rt.registry
}

// NewClass defines a class on the runtime. Class names are unique per
// runtime, and a parent class must belong to the same runtime.
func (rt *Runtime) NewClass(name string, opts ...ClassOption) (*Class, error) {
	if name == "" {
		return nil, fmt.Errorf("props: class name must not be empty")
	}
	cfg := classConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.parent != nil && cfg.parent.runtime != rt {
		return nil, fmt.Errorf("props: parent class %q belongs to another runtime", cfg.parent.name)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, exists := rt.classes[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateClass, name)
	}
	class := &Class{
		runtime:   rt,
		name:      name,
		parent:    cfg.parent,
		finalizer: cfg.finalizer,
		defaults:  cfg.defaults,
		byLabel:   map[string]*Descriptor{},
	}
	rt.classes[name] = class
	return class, nil
}

// Class returns the class defined under name.
func (rt *Runtime) Class(name string) (*Class, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	class, ok := rt.classes[name]
	return class, ok
}

// Register allocates an identity for obj and binds it to class for lifecycle
// purposes. The descriptor set cleaned up at destruction is the class chain
// as declared at this moment. Registering the same object twice is rejected;
// the returned ID is the one from the first registration.
func Register[T any](rt *Runtime, obj *T, class *Class) (identity.ID, error) {
	if class == nil {
		return identity.ID{}, fmt.Errorf("props: class is required")
	}
	if class.runtime != rt {
		return identity.ID{}, fmt.Errorf("props: class %q belongs to another runtime", class.name)
	}

	id, err := identity.Register(rt.registry, obj)
	if err != nil {
		return id, err
	}
	rt.lifecycle.track(id, class)
	_ = rt.registry.OnUnreachable(id, rt.lifecycle.unreachable)

	rt.emit(activity.BuildRegisteredEvent(activity.LifecycleEventInput{
		Class:      class.name,
		ObjectID:   id.String(),
		ContextID:  rt.registry.Context().String(),
		Properties: len(class.chain()),
	}))
	return id, nil
}

// Object is the minimal identity-bearing instance allocated when callers
// register a bare class instead of their own value.
type Object struct {
	id identity.ID
}

// ID returns the identity assigned at registration.
func (o *Object) ID() identity.ID {
	return o.id
}

// NewObject allocates a minimal instance of class and registers it.
func (rt *Runtime) NewObject(class *Class) (*Object, error) {
	obj := &Object{}
	id, err := Register(rt, obj, class)
	if err != nil {
		return nil, err
	}
	obj.id = id
	return obj, nil
}

// Destroy runs the destruction sequence for id deterministically: the class
// finalizer first, then removal of every property entry across the ancestor
// chain, then retirement of the identity. This is the synchronous
// counterpart of the garbage-collector-driven path and the one tests and
// explicit ownership models should use.
func (rt *Runtime) Destroy(id identity.ID) error {
	obj, _ := rt.registry.Resolve(id)
	return rt.lifecycle.destroy(id, obj)
}

// Property resolves label on class or any of its ancestors.
func (rt *Runtime) Property(class *Class, label string) (*Descriptor, error) {
	if class == nil {
		return nil, fmt.Errorf("props: class is required")
	}
	d, ok := class.property(label)
	if !ok {
		return nil, &UnknownPropertyError{Class: class.name, Label: label}
	}
	return d, nil
}

// Rescope re-synchronizes the runtime after an execution context
// duplication: identity entries whose objects did not survive into this
// context are discarded, along with their property entries, without running
// finalizers. It returns the number of identities discarded.
func (rt *Runtime) Rescope() int {
	ids := rt.registry.Rescope()
	rt.lifecycle.forget(ids)
	return len(ids)
}
