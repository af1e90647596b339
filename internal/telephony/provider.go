package telephony

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"call-manager/internal/batchcall"
)

// Wire types for the ElevenLabs ConvAI batch-calling API.
//
// Rules:
// - Only this package knows the provider's field names.
// - batchcall types never carry provider-specific shapes.

const (
	dynamicVariablesKey = "dynamic_variables"
	phoneNumberIDKey    = "phone_number_id"
	phoneLineIDKey      = "phone_line_id"
	recipientsKey       = "recipients"
)

type submitPayload struct {
	CallName           string                   `json:"call_name"`
	AgentID            string                   `json:"agent_id"`
	AgentPhoneNumberID string                   `json:"agent_phone_number_id"`
	Recipients         []recipientPayload       `json:"recipients"`
	ScheduledTimeUnix  *int64                   `json:"scheduled_time_unix,omitempty"`
	PhoneProvider      *batchcall.PhoneProvider `json:"phone_provider,omitempty"`
}

type recipientPayload struct {
	PhoneNumber string `json:"phone_number"`
	ID          string `json:"id,omitempty"`

	ConversationInitiationClientData *batchcall.Variables `json:"conversation_initiation_client_data,omitempty"`
}

func toSubmitPayload(req batchcall.SubmitRequest) (submitPayload, error) {
	out := submitPayload{
		CallName:           req.CallName,
		AgentID:            req.AgentID,
		AgentPhoneNumberID: req.AgentPhoneLineID,
		Recipients:         make([]recipientPayload, 0, len(req.Recipients)),
		ScheduledTimeUnix:  req.ScheduledTimeUnix,
		PhoneProvider:      req.PhoneProvider,
	}
	for _, r := range req.Recipients {
		initData, err := initiationPayload(r)
		if err != nil {
			return submitPayload{}, err
		}
		out.Recipients = append(out.Recipients, recipientPayload{
			PhoneNumber:                      r.PhoneNumber,
			ID:                               r.ID,
			ConversationInitiationClientData: initData,
		})
	}
	return out, nil
}

// initiationPayload merges a recipient's initiation data with its templating
// variables. Templating data becomes dynamic_variables and replaces any value
// already nested there.
func initiationPayload(r batchcall.Recipient) (*batchcall.Variables, error) {
	if r.InitiationData == nil && r.TemplatingData == nil {
		return nil, nil
	}
	out := r.InitiationData.Clone()
	if out == nil {
		out = batchcall.NewVariables()
	}
	if r.TemplatingData != nil {
		raw, err := json.Marshal(r.TemplatingData)
		if err != nil {
			return nil, err
		}
		out.Set(dynamicVariablesKey, raw)
	}
	return out, nil
}

type batchResponse struct {
	ID                   string                   `json:"id"`
	PhoneNumberID        string                   `json:"phone_number_id"`
	Name                 string                   `json:"name"`
	AgentID              string                   `json:"agent_id"`
	CreatedAtUnix        int64                    `json:"created_at_unix"`
	ScheduledTimeUnix    *int64                   `json:"scheduled_time_unix"`
	TotalCallsDispatched int                      `json:"total_calls_dispatched"`
	TotalCallsScheduled  int                      `json:"total_calls_scheduled"`
	LastUpdatedAtUnix    int64                    `json:"last_updated_at_unix"`
	Status               batchcall.Status         `json:"status"`
	AgentName            string                   `json:"agent_name"`
	PhoneProvider        *batchcall.PhoneProvider `json:"phone_provider"`
}

func (b batchResponse) toSummary(raw []byte) (batchcall.Summary, error) {
	echo, err := summaryJSON(raw)
	if err != nil {
		return batchcall.Summary{}, err
	}
	return batchcall.Summary{
		ID:                   b.ID,
		PhoneLineID:          b.PhoneNumberID,
		Name:                 b.Name,
		AgentID:              b.AgentID,
		CreatedAtUnix:        b.CreatedAtUnix,
		ScheduledTimeUnix:    b.ScheduledTimeUnix,
		TotalCallsDispatched: b.TotalCallsDispatched,
		TotalCallsScheduled:  b.TotalCallsScheduled,
		LastUpdatedAtUnix:    b.LastUpdatedAtUnix,
		Status:               b.Status,
		AgentName:            b.AgentName,
		PhoneProvider:        b.PhoneProvider,
		Raw:                  echo,
	}, nil
}

// summaryJSON returns the provider's batch object as it is echoed to callers:
// phone_number_id renamed to phone_line_id and recipients dropped. Every other
// key is kept as sent.
func summaryJSON(raw []byte) (json.RawMessage, error) {
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, fmt.Errorf("batch response is not an object")
	}
	out := []byte(doc.Raw)
	var err error
	if id := doc.Get(phoneNumberIDKey); id.Exists() {
		if out, err = sjson.SetRawBytes(out, phoneLineIDKey, []byte(id.Raw)); err != nil {
			return nil, err
		}
		if out, err = sjson.DeleteBytes(out, phoneNumberIDKey); err != nil {
			return nil, err
		}
	}
	if doc.Get(recipientsKey).Exists() {
		if out, err = sjson.DeleteBytes(out, recipientsKey); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type recipientResponse struct {
	ID             string           `json:"id"`
	PhoneNumber    string           `json:"phone_number"`
	Status         batchcall.Status `json:"status"`
	CreatedAtUnix  int64            `json:"created_at_unix"`
	UpdatedAtUnix  int64            `json:"updated_at_unix"`
	ConversationID string           `json:"conversation_id"`

	ConversationInitiationClientData json.RawMessage `json:"conversation_initiation_client_data"`
}

func (r recipientResponse) toDetail() (batchcall.RecipientDetail, error) {
	out := batchcall.RecipientDetail{
		ID:             r.ID,
		PhoneNumber:    r.PhoneNumber,
		Status:         r.Status,
		CreatedAtUnix:  r.CreatedAtUnix,
		UpdatedAtUnix:  r.UpdatedAtUnix,
		ConversationID: r.ConversationID,
	}
	if !gjson.ParseBytes(r.ConversationInitiationClientData).IsObject() {
		return out, nil
	}

	initData := batchcall.NewVariables()
	if err := json.Unmarshal(r.ConversationInitiationClientData, initData); err != nil {
		return batchcall.RecipientDetail{}, err
	}
	if raw, ok := initData.Get(dynamicVariablesKey); ok && gjson.ParseBytes(raw).IsObject() {
		vars := batchcall.NewVariables()
		if err := json.Unmarshal(raw, vars); err != nil {
			return batchcall.RecipientDetail{}, err
		}
		out.TemplatingData = vars
		initData.Delete(dynamicVariablesKey)
	}
	if initData.Len() > 0 {
		out.InitiationData = initData
	}
	return out, nil
}

type batchDetailResponse struct {
	batchResponse
	Recipients []recipientResponse `json:"recipients"`
}

func (b batchDetailResponse) toDetail(raw []byte) (batchcall.Detail, error) {
	summary, err := b.toSummary(raw)
	if err != nil {
		return batchcall.Detail{}, err
	}
	out := batchcall.Detail{
		Summary:    summary,
		Recipients: make([]batchcall.RecipientDetail, 0, len(b.Recipients)),
	}
	for _, r := range b.Recipients {
		d, err := r.toDetail()
		if err != nil {
			return batchcall.Detail{}, err
		}
		out.Recipients = append(out.Recipients, d)
	}
	return out, nil
}
