package props

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-props/pkg/activity"
	"github.com/goliatone/go-props/pkg/identity"
)

// FinalizerErrorFunc receives finalizer failures. No caller is waiting when
// an object becomes unreachable, so these are reported out-of-band instead
// of being returned.
type FinalizerErrorFunc func(id identity.ID, class string, err error)

// WithFinalizerErrorFunc routes finalizer errors to fn in addition to the
// activity event emitted for them.
func WithFinalizerErrorFunc(fn FinalizerErrorFunc) Option {
	return func(cfg *runtimeConfig) {
		cfg.finalizerErr = fn
	}
}

type lifecycleState uint8

const (
	stateRegistered lifecycleState = iota + 1
	stateFinalizing
	stateCleaned
)

// lifecycleEntry pins the descriptor set an instance was registered against.
type lifecycleEntry struct {
	state  lifecycleState
	class  *Class
	stores []StoreHandle
}

// manager drives each identity through Registered -> Finalizing -> Cleaned.
type manager struct {
	runtime *Runtime

	mu      sync.Mutex
	entries map[identity.ID]*lifecycleEntry
}

func newManager(rt *Runtime) *manager {
	return &manager{
		runtime: rt,
		entries: map[identity.ID]*lifecycleEntry{},
	}
}

func (m *manager) track(id identity.ID, class *Class) {
	m.mu.Lock()
	m.entries[id] = &lifecycleEntry{
		state:  stateRegistered,
		class:  class,
		stores: class.storeHandles(),
	}
	m.mu.Unlock()
}

// unreachable is the registry callback; obj is the still-valid object handed
// over by the runtime finalizer machinery.
func (m *manager) unreachable(id identity.ID, obj any) {
	_ = m.destroy(id, obj)
}

// destroy runs the finalize-then-clean sequence for id. The finalizer runs
// before any property removal so it still observes the instance's last
// written values. A finalizer error or panic is reported to the error sink
// and never prevents cleanup.
func (m *manager) destroy(id identity.ID, obj any) error {
	m.mu.Lock()
	entry, ok := m.entries[id]
	if !ok || entry.state != stateRegistered {
		m.mu.Unlock()
		return fmt.Errorf("props: destroy %s: %w", id, ErrUnknownIdentity)
	}
	entry.state = stateFinalizing
	m.mu.Unlock()

	if fin := entry.class.finalizer; fin != nil {
		if err := runFinalizer(fin, obj); err != nil {
			m.reportFinalizerError(id, entry.class, err)
		}
	}

	for _, store := range entry.stores {
		store.Remove(id)
	}

	m.mu.Lock()
	entry.state = stateCleaned
	delete(m.entries, id)
	m.mu.Unlock()

	_ = m.runtime.registry.Retire(id)

	m.runtime.emit(activity.BuildDestroyedEvent(activity.LifecycleEventInput{
		Class:      entry.class.name,
		ObjectID:   id.String(),
		ContextID:  m.runtime.registry.Context().String(),
		Properties: len(entry.stores),
	}))
	return nil
}

// forget drops lifecycle tracking for identities retired by a rescope. The
// identities are already dead in the registry; only dependent state is
// purged, no finalizers fire.
func (m *manager) forget(ids []identity.ID) {
	for _, id := range ids {
		m.mu.Lock()
		entry, ok := m.entries[id]
		delete(m.entries, id)
		m.mu.Unlock()
		if !ok {
			continue
		}
		for _, store := range entry.stores {
			store.Remove(id)
		}
	}
}

func (m *manager) reportFinalizerError(id identity.ID, class *Class, err error) {
	if fn := m.runtime.cfg.finalizerErr; fn != nil {
		fn(id, class.name, err)
	}
	m.runtime.emit(activity.BuildFinalizerErrorEvent(activity.LifecycleEventInput{
		Class:     class.name,
		ObjectID:  id.String(),
		ContextID: m.runtime.registry.Context().String(),
		Err:       err,
	}))
}

func runFinalizer(fn FinalizerFunc, obj any) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("props: finalizer panic: %v", rec)
		}
	}()
	return fn(obj)
}

func (rt *Runtime) emit(event activity.Event) {
	if !rt.emitter.Enabled() {
		return
	}
	_ = rt.emitter.Emit(context.Background(), event)
}
