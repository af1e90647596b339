package batchcall

import (
	"encoding/json"

	"github.com/tidwall/sjson"
)

// Recipient is one call target inside a batch.
//
// TemplatingData and InitiationData are opaque to this service: they are copied
// through to the provider or stripped, never interpreted.
type Recipient struct {
	PhoneNumber string `json:"phone_number"`
	ID          string `json:"id,omitempty"`

	// TemplatingData holds the per-recipient variables interpolated by the provider
	// into the call script.
	TemplatingData *Variables `json:"templating_data,omitempty"`

	// InitiationData is the nested per-recipient custom initiation payload.
	InitiationData *Variables `json:"initiation_data,omitempty"`
}

// SubmitRequest is a validated batch submission.
type SubmitRequest struct {
	CallName         string      `json:"call_name"`
	AgentID          string      `json:"agent_id"`
	AgentPhoneLineID string      `json:"agent_phone_line_id"`
	Recipients       []Recipient `json:"recipients"`

	// ScheduledTimeUnix nil means dispatch immediately.
	ScheduledTimeUnix *int64         `json:"scheduled_time_unix,omitempty"`
	PhoneProvider     *PhoneProvider `json:"phone_provider,omitempty"`

	// IncludeTemplatingData nil is treated as true.
	IncludeTemplatingData *bool `json:"include_templating_data,omitempty"`
}

type PhoneProvider string

const (
	PhoneProviderTwilio   PhoneProvider = "twilio"
	PhoneProviderSIPTrunk PhoneProvider = "sip_trunk"
)

func (p PhoneProvider) Valid() bool {
	switch p {
	case PhoneProviderTwilio, PhoneProviderSIPTrunk:
		return true
	default:
		return false
	}
}

// Status is owned by the provider. Values outside the known set are passed through.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Summary describes a batch as reported by the provider on submit and cancel.
//
// Raw, when set, is the provider's object with only structural renames applied.
// It is what gets marshalled, so fields this service does not model and fields
// the provider left out or sent as null are echoed exactly as received.
type Summary struct {
	ID                   string         `json:"id"`
	PhoneLineID          string         `json:"phone_line_id"`
	Name                 string         `json:"name"`
	AgentID              string         `json:"agent_id"`
	CreatedAtUnix        int64          `json:"created_at_unix"`
	ScheduledTimeUnix    *int64         `json:"scheduled_time_unix"`
	TotalCallsDispatched int            `json:"total_calls_dispatched"`
	TotalCallsScheduled  int            `json:"total_calls_scheduled"`
	LastUpdatedAtUnix    int64          `json:"last_updated_at_unix"`
	Status               Status         `json:"status"`
	AgentName            string         `json:"agent_name"`
	PhoneProvider        *PhoneProvider `json:"phone_provider"`

	Raw json.RawMessage `json:"-"`
}

type summaryFields Summary

func (s Summary) MarshalJSON() ([]byte, error) {
	if len(s.Raw) > 0 {
		return s.Raw, nil
	}
	return json.Marshal(summaryFields(s))
}

// RecipientDetail is the per-recipient state returned with a batch detail.
type RecipientDetail struct {
	ID             string     `json:"id"`
	PhoneNumber    string     `json:"phone_number"`
	Status         Status     `json:"status"`
	CreatedAtUnix  int64      `json:"created_at_unix"`
	UpdatedAtUnix  int64      `json:"updated_at_unix"`
	ConversationID string     `json:"conversation_id,omitempty"`
	TemplatingData *Variables `json:"templating_data,omitempty"`
	InitiationData *Variables `json:"initiation_data,omitempty"`
}

// Detail is a Summary plus the full recipient list.
type Detail struct {
	Summary
	Recipients []RecipientDetail `json:"recipients"`
}

// MarshalJSON writes the summary object with the recipients set on it. Without
// it the embedded Summary's marshaller would drop the recipients.
func (d Detail) MarshalJSON() ([]byte, error) {
	base, err := d.Summary.MarshalJSON()
	if err != nil {
		return nil, err
	}
	recipients := d.Recipients
	if recipients == nil {
		recipients = []RecipientDetail{}
	}
	encoded, err := json.Marshal(recipients)
	if err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(base, "recipients", encoded)
}
