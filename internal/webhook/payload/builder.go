package payload

import (
	"context"
	"encoding/json"
)

// PayloadBuilder expands the thin internal event a service published into the
// full payload delivered to endpoints. Data carries the internal event body,
// typically just entity ids; builders re-read the entities so the delivered
// payload reflects state at dispatch time.
type PayloadBuilder interface {
	BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error)
}
