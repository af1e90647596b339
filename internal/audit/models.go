package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - batch_id is required; every audited action targets one batch.
// - actor and ip capture are best-effort; do not block critical flows on audit failures.
type Event struct {
	ID      string    `json:"id"`
	Type    EventType `json:"type"`
	BatchID string    `json:"batch_id"`

	// ActorClientID is the authenticated client causing the event, or "anonymous".
	ActorClientID string `json:"actor_client_id,omitempty"`
	ActorRole     string `json:"actor_role,omitempty"`

	// IPAddress is the resolved client IP.
	IPAddress string `json:"ip_address,omitempty"`

	// RecipientCount is set for submissions.
	RecipientCount int `json:"recipient_count,omitempty"`

	// RequestID correlates the event with the request log line.
	RequestID string `json:"request_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventTypeBatchSubmitted EventType = "batch_submitted"
	EventTypeBatchCancelled EventType = "batch_cancelled"
)

// Actor identifies who performed an audited action.
type Actor struct {
	ClientID  string
	Role      string
	IP        string
	RequestID string
}
