package props

import (
	"fmt"
	"sync"
)

// FinalizerFunc is a per-class cleanup routine invoked exactly once before
// property removal when an instance is destroyed. The object is still
// identity-valid during the call, so the finalizer may read and write
// properties. Finalizers resolve on the concrete class only and are never
// inherited.
type FinalizerFunc func(obj any) error

// ClassOption configures a class definition.
type ClassOption func(*classConfig)

type classConfig struct {
	parent    *Class
	finalizer FinalizerFunc
	defaults  []DeclareOption
}

// WithParent sets the ancestor class whose properties participate in this
// class's cleanup. Ancestry is explicit: only classes linked here contribute
// descriptors, there is no structural inheritance inspection.
func WithParent(parent *Class) ClassOption {
	return func(cfg *classConfig) {
		cfg.parent = parent
	}
}

// WithFinalizer installs the class finalizer.
func WithFinalizer(fn FinalizerFunc) ClassOption {
	return func(cfg *classConfig) {
		cfg.finalizer = fn
	}
}

// WithClassDeclareDefaults sets declaration options applied to every Declare
// on this class, after runtime defaults and before call-site options.
func WithClassDeclareDefaults(opts ...DeclareOption) ClassOption {
	return func(cfg *classConfig) {
		cfg.defaults = append(cfg.defaults, opts...)
	}
}

// Class groups the property descriptors declared for one object class, plus
// its explicit ancestor link and optional finalizer.
type Class struct {
	runtime   *Runtime
	name      string
	parent    *Class
	finalizer FinalizerFunc
	defaults  []DeclareOption

	mu          sync.RWMutex
	descriptors []*Descriptor
	byLabel     map[string]*Descriptor
}

// Name returns the class name, unique within its runtime.
func (c *Class) Name() string {
	return c.name
}

// Parent returns the explicit ancestor class, or nil.
func (c *Class) Parent() *Class {
	return c.parent
}

func (c *Class) attach(d *Descriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byLabel[d.label]; exists {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateProperty, c.name, d.label)
	}
	c.byLabel[d.label] = d
	c.descriptors = append(c.descriptors, d)
	return nil
}

// property resolves label on the class or any ancestor, nearest class first.
func (c *Class) property(label string) (*Descriptor, bool) {
	for cls := c; cls != nil; cls = cls.parent {
		cls.mu.RLock()
		d, ok := cls.byLabel[label]
		cls.mu.RUnlock()
		if ok {
			return d, true
		}
	}
	return nil, false
}

// chain snapshots the descriptors contributed by the class and every
// ancestor, concrete class first. The lifecycle layer captures this at
// registration time so cleanup covers exactly the properties the instance
// was registered against.
func (c *Class) chain() []*Descriptor {
	var out []*Descriptor
	for cls := c; cls != nil; cls = cls.parent {
		cls.mu.RLock()
		out = append(out, cls.descriptors...)
		cls.mu.RUnlock()
	}
	return out
}

func (c *Class) storeHandles() []StoreHandle {
	descriptors := c.chain()
	handles := make([]StoreHandle, 0, len(descriptors))
	for _, d := range descriptors {
		handles = append(handles, d.store)
	}
	return handles
}
