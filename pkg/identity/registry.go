package identity

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"weak"

	"github.com/google/uuid"
)

var (
	// ErrNilObject is returned when a nil pointer is registered.
	ErrNilObject = errors.New("identity: object must not be nil")
	// ErrNotRegistered is returned for IDs with no live registry entry.
	ErrNotRegistered = errors.New("identity: id is not registered")
	// ErrForeignContext is returned for IDs minted by another registry.
	ErrForeignContext = errors.New("identity: id was minted by another context")
	// ErrDoubleRegistration is returned when an object is registered twice.
	ErrDoubleRegistration = errors.New("identity: object is already registered")
)

// DoubleRegistrationError reports a rejected second registration along with
// the identity assigned by the first one.
type DoubleRegistrationError struct {
	ID ID
}

func (e *DoubleRegistrationError) Error() string {
	return fmt.Sprintf("identity: object is already registered as %s", e.ID)
}

func (e *DoubleRegistrationError) Unwrap() error {
	return ErrDoubleRegistration
}

// UnreachableFunc receives the identity and the still-valid object after the
// object became unreachable and before its memory is reclaimed. The object
// must not be retained past the call.
type UnreachableFunc func(id ID, obj any)

type slot struct {
	gen Generation

	// deref resolves the weak back-reference; nil result means collected.
	deref func() any
	// key is the weak pointer used in byObject, kept for removal.
	key any
	// detach clears the runtime finalizer when the object is still alive.
	detach func()

	callback UnreachableFunc
	fired    bool
}

// Registry is an arena of identity slots with weak back-references. All
// methods are safe for concurrent use. The registry holds no strong
// references to registered objects.
type Registry struct {
	context uuid.UUID

	mu       sync.Mutex
	slots    []slot
	free     []uint32
	byObject map[any]ID
	live     int
}

// New constructs an empty registry bound to a fresh execution context ID.
func New() *Registry {
	return &Registry{
		context:  uuid.New(),
		byObject: map[any]ID{},
	}
}

// Context returns the UUID scoping every ID this registry mints.
func (r *Registry) Context() uuid.UUID {
	return r.context
}

// Register allocates an identity for obj and records a weak back-reference.
// Registering the same object twice is rejected with a
// DoubleRegistrationError carrying the original ID.
func Register[T any](r *Registry, obj *T) (ID, error) {
	if obj == nil {
		return ID{}, ErrNilObject
	}
	w := weak.Make(obj)

	r.mu.Lock()
	if existing, ok := r.byObject[w]; ok {
		r.mu.Unlock()
		return existing, &DoubleRegistrationError{ID: existing}
	}

	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = uint32(len(r.slots))
		r.slots = append(r.slots, slot{})
	}

	id := ID{Context: r.context, Slot: idx, Gen: randomGeneration()}
	r.slots[idx] = slot{
		gen: id.Gen,
		deref: func() any {
			if p := w.Value(); p != nil {
				return p
			}
			return nil
		},
		key: w,
		detach: func() {
			if p := w.Value(); p != nil {
				runtime.SetFinalizer(p, nil)
			}
		},
	}
	r.byObject[w] = id
	r.live++
	r.mu.Unlock()

	runtime.SetFinalizer(obj, func(p *T) {
		r.unreachable(id, p)
	})
	return id, nil
}

// IsRegistered reports whether id refers to a live entry in this registry.
func (r *Registry) IsRegistered(id ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slotFor(id) != nil
}

// Resolve returns the registered object for id when it is still alive.
func (r *Registry) Resolve(id ID) (any, bool) {
	r.mu.Lock()
	s := r.slotFor(id)
	var deref func() any
	if s != nil {
		deref = s.deref
	}
	r.mu.Unlock()

	if deref == nil {
		return nil, false
	}
	obj := deref()
	if obj == nil {
		return nil, false
	}
	return obj, true
}

// OnUnreachable installs fn as the unreachability callback for id. The
// callback fires at most once, on the runtime's finalizer goroutine.
// Installing a callback replaces any previous one.
func (r *Registry) OnUnreachable(id ID, fn UnreachableFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.slotFor(id)
	if s == nil {
		return r.missErr(id)
	}
	s.callback = fn
	return nil
}

// Retire removes the entry for id and recycles its slot under a fresh
// generation on the next allocation. The lifecycle layer calls this once
// cleanup for the identity has completed; after Retire the ID is permanently
// invalid.
func (r *Registry) Retire(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slotFor(id) == nil {
		return r.missErr(id)
	}
	r.retireLocked(id.Slot)
	return nil
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// Rescope discards every entry whose weak back-reference is dead, without
// firing unreachability callbacks, and returns the retired IDs so callers
// can purge dependent state. It re-synchronizes the registry after an
// execution context was duplicated: identities that did not survive into
// this context must not linger as live entries.
func (r *Registry) Rescope() []ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []ID
	for idx := range r.slots {
		s := &r.slots[idx]
		if s.gen == 0 {
			continue
		}
		if s.deref() != nil {
			continue
		}
		removed = append(removed, ID{Context: r.context, Slot: uint32(idx), Gen: s.gen})
		s.fired = true
		r.retireLocked(uint32(idx))
	}
	return removed
}

// unreachable is invoked from the runtime finalizer attached at Register.
func (r *Registry) unreachable(id ID, obj any) {
	r.mu.Lock()
	s := r.slotFor(id)
	if s == nil || s.fired {
		r.mu.Unlock()
		return
	}
	s.fired = true
	cb := s.callback
	if cb == nil {
		// Nothing downstream owns cleanup for this identity; drop the entry
		// so the slot can be recycled.
		r.retireLocked(id.Slot)
	}
	r.mu.Unlock()

	if cb != nil {
		cb(id, obj)
	}
}

// slotFor returns the live slot for id, or nil when the ID is foreign,
// stale, or vacant. Callers must hold r.mu.
func (r *Registry) slotFor(id ID) *slot {
	if id.IsZero() || id.Context != r.context {
		return nil
	}
	if int(id.Slot) >= len(r.slots) {
		return nil
	}
	s := &r.slots[id.Slot]
	if s.gen == 0 || s.gen != id.Gen {
		return nil
	}
	return s
}

func (r *Registry) missErr(id ID) error {
	if !id.IsZero() && id.Context != r.context {
		return ErrForeignContext
	}
	return ErrNotRegistered
}

func (r *Registry) retireLocked(idx uint32) {
	s := &r.slots[idx]
	if s.detach != nil {
		s.detach()
	}
	if s.key != nil {
		delete(r.byObject, s.key)
	}
	*s = slot{}
	r.free = append(r.free, idx)
	r.live--
}
