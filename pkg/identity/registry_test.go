package identity

import (
	"errors"
	"runtime"
	"testing"
	"time"
)

type payload struct {
	Marker int
}

func TestRegisterAssignsUniqueIDs(t *testing.T) {
	reg := New()

	const n = 64
	objects := make([]*payload, 0, n)
	seen := map[ID]bool{}
	for i := 0; i < n; i++ {
		obj := &payload{Marker: i}
		objects = append(objects, obj)
		id, err := Register(reg, obj)
		if err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
		if id.IsZero() {
			t.Fatalf("expected non-zero id for object %d", i)
		}
		if seen[id] {
			t.Fatalf("id %s assigned twice", id)
		}
		seen[id] = true
		if !reg.IsRegistered(id) {
			t.Fatalf("expected id %s to be registered", id)
		}
	}
	if reg.Len() != n {
		t.Fatalf("expected %d live entries, got %d", n, reg.Len())
	}
	runtime.KeepAlive(objects)
}

func TestRegisterRejectsNil(t *testing.T) {
	reg := New()
	if _, err := Register[payload](reg, nil); !errors.Is(err, ErrNilObject) {
		t.Fatalf("expected ErrNilObject, got %v", err)
	}
}

func TestDoubleRegistrationRejected(t *testing.T) {
	reg := New()
	obj := &payload{Marker: 1}

	first, err := Register(reg, obj)
	if err != nil {
		t.Fatalf("first register: %v", err)
	}

	second, err := Register(reg, obj)
	if !errors.Is(err, ErrDoubleRegistration) {
		t.Fatalf("expected ErrDoubleRegistration, got %v", err)
	}
	var dup *DoubleRegistrationError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DoubleRegistrationError, got %T", err)
	}
	if dup.ID != first || second != first {
		t.Fatalf("expected original id %s to be reported, got %s / %s", first, dup.ID, second)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected single entry after rejected re-registration, got %d", reg.Len())
	}
	runtime.KeepAlive(obj)
}

func TestResolveReturnsRegisteredObject(t *testing.T) {
	reg := New()
	obj := &payload{Marker: 42}
	id, err := Register(reg, obj)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, ok := reg.Resolve(id)
	if !ok {
		t.Fatalf("expected resolve to succeed")
	}
	if got.(*payload) != obj {
		t.Fatalf("expected the registered object back, got %+v", got)
	}

	if _, ok := reg.Resolve(ID{}); ok {
		t.Fatalf("expected zero id to not resolve")
	}
	runtime.KeepAlive(obj)
}

func TestRetireRecyclesSlotUnderFreshGeneration(t *testing.T) {
	reg := New()
	first := &payload{Marker: 1}
	id, err := Register(reg, first)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := reg.Retire(id); err != nil {
		t.Fatalf("retire: %v", err)
	}
	if reg.IsRegistered(id) {
		t.Fatalf("expected retired id to be unregistered")
	}
	if err := reg.Retire(id); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered on second retire, got %v", err)
	}

	second := &payload{Marker: 2}
	recycled, err := Register(reg, second)
	if err != nil {
		t.Fatalf("register after retire: %v", err)
	}
	if recycled.Slot != id.Slot {
		t.Fatalf("expected slot %d to be recycled, got %d", id.Slot, recycled.Slot)
	}
	if recycled.Gen == id.Gen {
		t.Fatalf("expected a fresh generation on recycled slot")
	}
	if reg.IsRegistered(id) {
		t.Fatalf("stale id must not alias the recycled slot")
	}
	if _, ok := reg.Resolve(id); ok {
		t.Fatalf("stale id must not resolve after slot reuse")
	}
	runtime.KeepAlive(first)
	runtime.KeepAlive(second)
}

func TestForeignContextIDsAreRejected(t *testing.T) {
	regA := New()
	regB := New()
	obj := &payload{Marker: 7}

	id, err := Register(regA, obj)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if regB.IsRegistered(id) {
		t.Fatalf("id from context A must not be live in context B")
	}
	if _, ok := regB.Resolve(id); ok {
		t.Fatalf("id from context A must not resolve in context B")
	}
	if err := regB.OnUnreachable(id, func(ID, any) {}); !errors.Is(err, ErrForeignContext) {
		t.Fatalf("expected ErrForeignContext, got %v", err)
	}
	if err := regB.Retire(id); !errors.Is(err, ErrForeignContext) {
		t.Fatalf("expected ErrForeignContext, got %v", err)
	}
	runtime.KeepAlive(obj)
}

func TestUnreachableCallbackReceivesObjectOnce(t *testing.T) {
	reg := New()

	fired := make(chan int, 2)
	id := func() ID {
		obj := &payload{Marker: 99}
		id, err := Register(reg, obj)
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if err := reg.OnUnreachable(id, func(_ ID, got any) {
			fired <- got.(*payload).Marker
		}); err != nil {
			t.Fatalf("on unreachable: %v", err)
		}
		return id
	}()

	marker := waitForCollection(t, fired)
	if marker != 99 {
		t.Fatalf("expected the still-valid object in the callback, got marker %d", marker)
	}

	select {
	case <-fired:
		t.Fatalf("callback must fire at most once")
	case <-time.After(50 * time.Millisecond):
	}
	_ = id
}

func TestRescopeDiscardsDeadEntries(t *testing.T) {
	reg := New()

	survivor := &payload{Marker: 1}
	if _, err := Register(reg, survivor); err != nil {
		t.Fatalf("register survivor: %v", err)
	}

	const dead = 8
	for i := 0; i < dead; i++ {
		obj := &payload{Marker: 100 + i}
		id, err := Register(reg, obj)
		if err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
		// Keep the entry alive past collection: with a callback installed the
		// registry defers retirement to the callback owner.
		if err := reg.OnUnreachable(id, func(ID, any) {}); err != nil {
			t.Fatalf("on unreachable: %v", err)
		}
	}

	removed := 0
	deadline := time.Now().Add(2 * time.Second)
	for removed < dead && time.Now().Before(deadline) {
		runtime.GC()
		removed += len(reg.Rescope())
		time.Sleep(10 * time.Millisecond)
	}
	if removed != dead {
		t.Fatalf("expected %d entries discarded by rescope, got %d", dead, removed)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected only the survivor to remain, got %d entries", reg.Len())
	}
	runtime.KeepAlive(survivor)
}

// waitForCollection nudges the collector until the unreachability callback
// delivers, failing the test after a deadline.
func waitForCollection(t *testing.T, fired chan int) int {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		runtime.GC()
		select {
		case marker := <-fired:
			return marker
		case <-time.After(10 * time.Millisecond):
		}
	}
	t.Fatalf("unreachability callback did not fire before deadline")
	return 0
}
