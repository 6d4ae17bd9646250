package usersink

import (
	"context"
	"time"

	"github.com/goliatone/go-props/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts lifecycle activity events to a go-users ActivitySink, giving
// deployments an audit trail of object registration and destruction. Lifecycle
// events carry no actor of their own, so the acting service identity is
// configured on the hook.
type Hook struct {
	Sink    usertypes.ActivitySink
	ActorID uuid.UUID
	Tenant  uuid.UUID
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" || normalized.ObjectID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	record := usertypes.ActivityRecord{
		ActorID:    h.ActorID,
		TenantID:   h.Tenant,
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       cloneMap(normalized.Metadata),
		OccurredAt: normalized.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}
	if normalized.ContextID != "" {
		if record.Data == nil {
			record.Data = map[string]any{}
		}
		record.Data["context_id"] = normalized.ContextID
	}

	return h.Sink.Log(ctx, record)
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
