package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActorRef records who triggered the event, when a request actor exists.
// Cron and webhook originated events carry no actor.
type ActorRef struct {
	UserID uuid.UUID  `json:"userId"`
	OrgID  *uuid.UUID `json:"orgId,omitempty"`
	Role   string     `json:"role,omitempty"`
}

// PayloadEnvelope is the versioned wrapper persisted in outbox_events.
// Consumers dispatch on Version before touching Data, which lets payload
// schemas evolve without breaking older consumers.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
