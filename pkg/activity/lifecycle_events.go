package activity

import (
	"strings"
	"time"
)

// Lifecycle verbs emitted by the props runtime.
const (
	VerbRegistered     = "object.registered"
	VerbDestroyed      = "object.destroyed"
	VerbFinalizerError = "object.finalizer_error"
)

// LifecycleEventInput describes the common fields for lifecycle events.
type LifecycleEventInput struct {
	Class      string
	ObjectID   string
	ContextID  string
	Channel    string
	Properties int
	Err        error
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildRegisteredEvent constructs an event for an object registration.
func BuildRegisteredEvent(input LifecycleEventInput) Event {
	return buildLifecycleEvent(VerbRegistered, input)
}

// BuildDestroyedEvent constructs an event for a completed destruction
// sequence (finalizer ran, property entries removed).
func BuildDestroyedEvent(input LifecycleEventInput) Event {
	return buildLifecycleEvent(VerbDestroyed, input)
}

// BuildFinalizerErrorEvent constructs an event for a finalizer failure. The
// destruction sequence still completes; this event is the asynchronous error
// report.
func BuildFinalizerErrorEvent(input LifecycleEventInput) Event {
	return buildLifecycleEvent(VerbFinalizerError, input)
}

func buildLifecycleEvent(verb string, input LifecycleEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Properties > 0 {
		metadata = ensureMetadata(metadata)
		metadata["properties"] = input.Properties
	}
	if input.Err != nil {
		metadata = ensureMetadata(metadata)
		metadata["error"] = input.Err.Error()
	}

	objectType := strings.TrimSpace(input.Class)
	if objectType == "" {
		objectType = "object"
	}

	return Event{
		Verb:       verb,
		ObjectType: objectType,
		ObjectID:   strings.TrimSpace(input.ObjectID),
		ContextID:  strings.TrimSpace(input.ContextID),
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
