package props

import (
	"fmt"

	"github.com/goliatone/go-props/pkg/identity"
)

// Accessor is the generated read/write surface for one declared property.
// It applies visibility rules and hooks; the backing store itself applies
// neither.
type Accessor[V any] struct {
	descriptor *Descriptor
	store      *Store[V]
	runtime    *Runtime
}

// Descriptor returns the property descriptor this accessor was built for.
func (a *Accessor[V]) Descriptor() *Descriptor {
	return a.descriptor
}

// Store returns the typed backing store. This is the declaring package's
// internal path: writes through it bypass visibility and hooks, which is how
// private and read-only properties are populated by their owning code.
func (a *Accessor[V]) Store() *Store[V] {
	return a.store
}

// Get reads the property for id. Absence is reported via the second return
// and is not an error. A configured get hook transforms the raw value before
// it is returned.
func (a *Accessor[V]) Get(id identity.ID) (V, bool, error) {
	var zero V
	raw, ok := a.store.Get(id)
	if !ok {
		return zero, false, nil
	}
	if a.descriptor.getHook == nil {
		return raw, true, nil
	}

	ctx := a.hookContext(id)
	ctx.Raw = raw
	out, err := a.descriptor.getHook(ctx, raw)
	if err != nil {
		return zero, false, err
	}
	value, convertible := out.(V)
	if !convertible {
		return zero, false, fmt.Errorf("props: get hook for %s.%s returned %T, want %T",
			a.descriptor.class.name, a.descriptor.label, out, zero)
	}
	return value, true, nil
}

// Set writes the property for id. Visibility is enforced before anything
// else: read-only and private properties reject the write with an
// AccessError and the store is never touched. A configured set hook may
// transform the value or reject it, in which case the store retains its
// previous state and a ValidationError is returned.
func (a *Accessor[V]) Set(id identity.ID, value V) error {
	if a.descriptor.visibility != VisibilityPublic {
		return &AccessError{
			Class:      a.descriptor.class.name,
			Property:   a.descriptor.label,
			Visibility: a.descriptor.visibility,
		}
	}
	return a.write(id, value)
}

// write is the hook-applying store path shared by Set and the lifecycle
// layer. It still verifies the identity is live so retired IDs can never
// repopulate a store.
func (a *Accessor[V]) write(id identity.ID, value V) error {
	if !a.runtime.registry.IsRegistered(id) {
		return fmt.Errorf("props: set %s.%s for %s: %w",
			a.descriptor.class.name, a.descriptor.label, id, ErrUnknownIdentity)
	}
	if a.descriptor.setHook == nil {
		a.store.Set(id, value)
		return nil
	}

	ctx := a.hookContext(id)
	ctx.Value = value
	out, err := a.descriptor.setHook(ctx, value)
	if err != nil {
		return &ValidationError{
			Class:    a.descriptor.class.name,
			Property: a.descriptor.label,
			Value:    value,
			Err:      err,
		}
	}
	stored, convertible := out.(V)
	if !convertible {
		var zero V
		return &ValidationError{
			Class:    a.descriptor.class.name,
			Property: a.descriptor.label,
			Value:    value,
			Err:      fmt.Errorf("set hook returned %T, want %T", out, zero),
		}
	}
	a.store.Set(id, stored)
	return nil
}

func (a *Accessor[V]) hookContext(id identity.ID) HookContext {
	return HookContext{
		Class:    a.descriptor.class.name,
		Property: a.descriptor.label,
		ID:       id,
	}
}
