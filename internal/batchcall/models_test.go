package batchcall

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary_MarshalPrefersRaw(t *testing.T) {
	s := Summary{ID: "ignored", Raw: json.RawMessage(`{"id":"b1","scheduled_time_unix":null,"retry_count":2}`)}
	got, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"b1","scheduled_time_unix":null,"retry_count":2}`, string(got))
}

func TestSummary_MarshalWithoutRaw(t *testing.T) {
	got, err := json.Marshal(Summary{ID: "b1", Status: StatusPending})
	require.NoError(t, err)
	assert.Equal(t, "b1", jsonField(t, got, "id"))
	assert.Equal(t, "pending", jsonField(t, got, "status"))
	assert.Nil(t, jsonField(t, got, "scheduled_time_unix"))
}

func TestDetail_MarshalKeepsRecipients(t *testing.T) {
	d := Detail{
		Summary:    Summary{Raw: json.RawMessage(`{"id":"b1","status":"completed","extra":true}`)},
		Recipients: []RecipientDetail{{ID: "r1", PhoneNumber: "+1", Status: StatusCompleted}},
	}
	got, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"b1","status":"completed","extra":true,"recipients":[
		{"id":"r1","phone_number":"+1","status":"completed","created_at_unix":0,"updated_at_unix":0}]}`, string(got))

	got, err = json.Marshal(Detail{Summary: Summary{ID: "b2"}})
	require.NoError(t, err)
	assert.Equal(t, "b2", jsonField(t, got, "id"))
	assert.Equal(t, []any{}, jsonField(t, got, "recipients"))
}

func jsonField(t *testing.T, raw []byte, key string) any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m[key]
}
