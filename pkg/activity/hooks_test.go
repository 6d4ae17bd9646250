package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventTrimsAndDefaults(t *testing.T) {
	metadata := map[string]any{"properties": 2}
	event := Event{
		Verb:       "  object.registered ",
		ObjectType: " Person ",
		ObjectID:   " id:1#2@ctx ",
		ContextID:  " ctx ",
		Channel:    " props ",
		Metadata:   metadata,
	}

	normalized := NormalizeEvent(event)
	if normalized.Verb != "object.registered" {
		t.Fatalf("expected trimmed verb, got %q", normalized.Verb)
	}
	if normalized.ObjectType != "Person" || normalized.ObjectID != "id:1#2@ctx" {
		t.Fatalf("expected trimmed object fields, got %+v", normalized)
	}
	if normalized.ContextID != "ctx" || normalized.Channel != "props" {
		t.Fatalf("expected trimmed context fields, got %+v", normalized)
	}
	if normalized.OccurredAt.IsZero() {
		t.Fatalf("expected timestamp to be defaulted")
	}

	normalized.Metadata["properties"] = 99
	if metadata["properties"] != 2 {
		t.Fatalf("expected metadata to be cloned, source was mutated")
	}
}

func TestHooksNotifyFansOutAndJoinsErrors(t *testing.T) {
	errFirst := errors.New("first hook failed")
	var delivered []Event

	hooks := Hooks{
		&CaptureHook{Err: errFirst},
		HookFunc(func(_ context.Context, event Event) error {
			delivered = append(delivered, event)
			return nil
		}),
		nil,
	}

	err := hooks.Notify(context.Background(), Event{
		Verb:       VerbRegistered,
		ObjectType: "Person",
		ObjectID:   "id:1#2@ctx",
	})
	if !errors.Is(err, errFirst) {
		t.Fatalf("expected joined error to carry the hook failure, got %v", err)
	}
	if len(delivered) != 1 {
		t.Fatalf("failing hook must not block later hooks, delivered=%d", len(delivered))
	}
}

func TestHooksNotifySkipsIncompleteEvents(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}

	if err := hooks.Notify(context.Background(), Event{Verb: VerbRegistered}); err != nil {
		t.Fatalf("incomplete event must be dropped silently, got %v", err)
	}
	if len(capture.Snapshot()) != 0 {
		t.Fatalf("expected no delivery for incomplete event")
	}
}

func TestEmitterAppliesDefaultChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true})

	err := emitter.Emit(context.Background(), Event{
		Verb:       VerbDestroyed,
		ObjectType: "Person",
		ObjectID:   "id:1#2@ctx",
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	events := capture.Snapshot()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if events[0].Channel != "props" {
		t.Fatalf("expected default channel props, got %q", events[0].Channel)
	}

	capture = &CaptureHook{}
	emitter = NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "custom"})
	if err := emitter.Emit(context.Background(), Event{
		Verb:       VerbDestroyed,
		ObjectType: "Person",
		ObjectID:   "id:1#2@ctx",
		Channel:    "explicit",
	}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if got := capture.Snapshot()[0].Channel; got != "explicit" {
		t.Fatalf("explicit channel must not be overridden, got %q", got)
	}
}

func TestEmitterDisabledDropsEvents(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: false})

	if emitter.Enabled() {
		t.Fatalf("expected emitter to report disabled")
	}
	if err := emitter.Emit(context.Background(), Event{
		Verb:       VerbRegistered,
		ObjectType: "Person",
		ObjectID:   "id:1#2@ctx",
	}); err != nil {
		t.Fatalf("emit on disabled emitter: %v", err)
	}
	if len(capture.Snapshot()) != 0 {
		t.Fatalf("disabled emitter must not deliver events")
	}
}

func TestLifecycleEventBuilders(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	registered := BuildRegisteredEvent(LifecycleEventInput{
		Class:      "Person",
		ObjectID:   "id:1#2@ctx",
		ContextID:  "ctx",
		Properties: 3,
		OccurredAt: now,
	})
	if registered.Verb != VerbRegistered || registered.ObjectType != "Person" {
		t.Fatalf("unexpected registered event: %+v", registered)
	}
	if registered.Metadata["properties"] != 3 {
		t.Fatalf("expected property count metadata, got %v", registered.Metadata)
	}
	if registered.OccurredAt != now {
		t.Fatalf("expected provided timestamp kept, got %v", registered.OccurredAt)
	}

	failure := BuildFinalizerErrorEvent(LifecycleEventInput{
		Class:     "Person",
		ObjectID:  "id:1#2@ctx",
		ContextID: "ctx",
		Err:       errors.New("close failed"),
	})
	if failure.Verb != VerbFinalizerError {
		t.Fatalf("unexpected verb %q", failure.Verb)
	}
	if failure.Metadata["error"] != "close failed" {
		t.Fatalf("expected error string in metadata, got %v", failure.Metadata)
	}

	anonymous := BuildDestroyedEvent(LifecycleEventInput{ObjectID: "id:1#2@ctx"})
	if anonymous.ObjectType != "object" {
		t.Fatalf("expected fallback object type, got %q", anonymous.ObjectType)
	}
}
