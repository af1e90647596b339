package batchcall

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func violationFields(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
	fields := make([]string, 0, len(verr.Violations))
	for _, v := range verr.Violations {
		fields = append(fields, v.Field)
	}
	return fields
}

func TestValidateSubmit_Minimal(t *testing.T) {
	req, err := ValidateSubmit([]byte(`{
		"call_name":"Promo",
		"agent_id":"a1",
		"agent_phone_line_id":"p1",
		"recipients":[{"phone_number":"+15550001111"}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "Promo", req.CallName)
	assert.Equal(t, "a1", req.AgentID)
	assert.Equal(t, "p1", req.AgentPhoneLineID)
	require.Len(t, req.Recipients, 1)
	assert.Equal(t, "+15550001111", req.Recipients[0].PhoneNumber)
	assert.Nil(t, req.Recipients[0].TemplatingData)
	assert.Nil(t, req.ScheduledTimeUnix)
	assert.Nil(t, req.PhoneProvider)
	assert.Nil(t, req.IncludeTemplatingData)
}

func TestValidateSubmit_FullPayload(t *testing.T) {
	req, err := ValidateSubmit([]byte(`{
		"call_name":"Reminders",
		"agent_id":"a1",
		"agent_phone_line_id":"p1",
		"recipients":[{
			"phone_number":"+15550001111",
			"id":"r-1",
			"templating_data":{"name":"Ana","plan":{"tier":"gold"},"price":299},
			"initiation_data":{"source":"crm"}
		}],
		"scheduled_time_unix":1760000000,
		"phone_provider":"sip_trunk",
		"include_templating_data":true
	}`))
	require.NoError(t, err)
	require.NotNil(t, req.ScheduledTimeUnix)
	assert.EqualValues(t, 1760000000, *req.ScheduledTimeUnix)
	require.NotNil(t, req.PhoneProvider)
	assert.Equal(t, PhoneProviderSIPTrunk, *req.PhoneProvider)
	require.NotNil(t, req.IncludeTemplatingData)
	assert.True(t, *req.IncludeTemplatingData)

	r := req.Recipients[0]
	assert.Equal(t, "r-1", r.ID)
	assert.Equal(t, []string{"name", "plan", "price"}, r.TemplatingData.Keys())
	plan, ok := r.TemplatingData.Get("plan")
	require.True(t, ok)
	assert.JSONEq(t, `{"tier":"gold"}`, string(plan))
	assert.Equal(t, []string{"source"}, r.InitiationData.Keys())
}

func TestValidateSubmit_MissingRequiredFields(t *testing.T) {
	_, err := ValidateSubmit([]byte(`{"recipients":[]}`))
	assert.Equal(t, []string{"call_name", "agent_id", "agent_phone_line_id", "recipients"}, violationFields(t, err))
}

func TestValidateSubmit_EmptyStringsRejected(t *testing.T) {
	_, err := ValidateSubmit([]byte(`{
		"call_name":"",
		"agent_id":"a1",
		"agent_phone_line_id":7,
		"recipients":[{"phone_number":"+1"}]
	}`))
	assert.Equal(t, []string{"call_name", "agent_phone_line_id"}, violationFields(t, err))
}

func TestValidateSubmit_RecipientChecksAccumulate(t *testing.T) {
	_, err := ValidateSubmit([]byte(`{
		"call_name":"c","agent_id":"a","agent_phone_line_id":"p",
		"recipients":[
			{"phone_number":""},
			{"phone_number":"+1","templating_data":["x"]},
			{"phone_number":"+2","initiation_data":"nope"},
			{"phone_number":"+3","initiation_data":{"dynamic_variables":5}},
			{"id":3}
		]
	}`))
	assert.Equal(t, []string{
		"recipients[0].phone_number",
		"recipients[1].templating_data",
		"recipients[2].initiation_data",
		"recipients[3].initiation_data.dynamic_variables",
		"recipients[4].phone_number",
		"recipients[4].id",
	}, violationFields(t, err))
}

func TestValidateSubmit_OptionalFieldTypes(t *testing.T) {
	_, err := ValidateSubmit([]byte(`{
		"call_name":"c","agent_id":"a","agent_phone_line_id":"p",
		"recipients":[{"phone_number":"+1"}],
		"scheduled_time_unix":12.5,
		"phone_provider":"vonage",
		"include_templating_data":"no"
	}`))
	assert.Equal(t, []string{"scheduled_time_unix", "phone_provider", "include_templating_data"}, violationFields(t, err))
}

func TestValidateSubmit_NullOptionalsAccepted(t *testing.T) {
	req, err := ValidateSubmit([]byte(`{
		"call_name":"c","agent_id":"a","agent_phone_line_id":"p",
		"recipients":[{"phone_number":"+1","templating_data":null}],
		"scheduled_time_unix":null,
		"phone_provider":null
	}`))
	require.NoError(t, err)
	assert.Nil(t, req.ScheduledTimeUnix)
	assert.Nil(t, req.PhoneProvider)
	assert.Nil(t, req.Recipients[0].TemplatingData)
}

func TestValidateSubmit_RepeatedKeysRejected(t *testing.T) {
	_, err := ValidateSubmit([]byte(`{
		"call_name":"Promo","agent_id":"a1","agent_phone_line_id":"p1",
		"recipients":[{"phone_number":"+1"}],
		"recipients":[],
		"call_name":""
	}`))
	assert.Equal(t, []string{"recipients", "call_name"}, violationFields(t, err))
}

func TestValidateSubmit_RepeatedKeysInsideRecipient(t *testing.T) {
	_, err := ValidateSubmit([]byte(`{
		"call_name":"c","agent_id":"a","agent_phone_line_id":"p",
		"recipients":[
			{"phone_number":"+1","phone_number":""},
			{"phone_number":"+2","initiation_data":{"dynamic_variables":{},"dynamic_variables":3}}
		]
	}`))
	assert.Equal(t, []string{
		"recipients[0].phone_number",
		"recipients[1].initiation_data.dynamic_variables",
	}, violationFields(t, err))
}

func TestValidateSubmit_DecodedMatchesChecked(t *testing.T) {
	req, err := ValidateSubmit([]byte(`{
		"call_name":"Promo","agent_id":"a1","agent_phone_line_id":"p1",
		"recipients":[{"phone_number":"+1","templating_data":{"name":"Ana"}}]
	}`))
	require.NoError(t, err)
	assert.NotEmpty(t, req.CallName)
	assert.NotEmpty(t, req.AgentID)
	assert.NotEmpty(t, req.AgentPhoneLineID)
	require.NotEmpty(t, req.Recipients)
	for _, r := range req.Recipients {
		assert.NotEmpty(t, r.PhoneNumber)
	}
}

func TestValidateSubmit_NotAnObject(t *testing.T) {
	for _, body := range []string{`[]`, `"x"`, `{`, ``} {
		_, err := ValidateSubmit([]byte(body))
		assert.Equal(t, []string{"body"}, violationFields(t, err), "body %q", body)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Violations: []Violation{{Field: "call_name", Message: "call_name is required"}}}
	assert.Equal(t, "batchcall: validation failed: call_name: call_name is required", err.Error())
}
