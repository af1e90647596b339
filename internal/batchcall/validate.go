package batchcall

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// ValidateSubmit checks a raw submission body and decodes it.
//
// Checks run against the raw JSON so that type mismatches are reported per field
// instead of as a single decode error. All violations are collected before
// returning. An explicit JSON null is treated like an absent optional field.
func ValidateSubmit(raw []byte) (SubmitRequest, error) {
	if !gjson.ValidBytes(raw) {
		return SubmitRequest{}, &ValidationError{Violations: []Violation{
			{Field: "body", Message: "body must be valid JSON"},
		}}
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return SubmitRequest{}, &ValidationError{Violations: []Violation{
			{Field: "body", Message: "body must be a JSON object"},
		}}
	}

	var v []Violation
	add := func(field, msg string) {
		v = append(v, Violation{Field: field, Message: msg})
	}
	repeated := func(prefix string, obj gjson.Result) {
		for _, key := range duplicateKeys(obj) {
			add(prefix+key, key+" must appear only once")
		}
	}

	repeated("", doc)

	for _, field := range []string{"call_name", "agent_id", "agent_phone_line_id"} {
		if !nonEmptyString(doc.Get(field)) {
			add(field, field+" is required")
		}
	}

	recipients := doc.Get("recipients")
	if !recipients.IsArray() || len(recipients.Array()) == 0 {
		add("recipients", "recipients must be an array with at least one element")
	} else {
		for i, r := range recipients.Array() {
			prefix := fmt.Sprintf("recipients[%d]", i)
			repeated(prefix+".", r)
			if !nonEmptyString(r.Get("phone_number")) {
				add(prefix+".phone_number", "each recipient must have a phone_number")
			}
			if id := r.Get("id"); present(id) && id.Type != gjson.String {
				add(prefix+".id", "id must be a string")
			}
			if td := r.Get("templating_data"); present(td) && !td.IsObject() {
				add(prefix+".templating_data", "templating_data must be an object")
			}
			initData := r.Get("initiation_data")
			if present(initData) {
				if !initData.IsObject() {
					add(prefix+".initiation_data", "initiation_data must be an object")
				} else {
					repeated(prefix+".initiation_data.", initData)
					if dv := initData.Get("dynamic_variables"); present(dv) && !dv.IsObject() {
						add(prefix+".initiation_data.dynamic_variables", "dynamic_variables must be an object")
					}
				}
			}
		}
	}

	if st := doc.Get("scheduled_time_unix"); present(st) && !isInteger(st) {
		add("scheduled_time_unix", "scheduled_time_unix must be an integer")
	}
	if pp := doc.Get("phone_provider"); present(pp) {
		if pp.Type != gjson.String || !PhoneProvider(pp.Str).Valid() {
			add("phone_provider", `phone_provider must be "twilio" or "sip_trunk"`)
		}
	}
	if inc := doc.Get("include_templating_data"); present(inc) && inc.Type != gjson.True && inc.Type != gjson.False {
		add("include_templating_data", "include_templating_data must be a boolean")
	}

	if len(v) > 0 {
		return SubmitRequest{}, &ValidationError{Violations: v}
	}

	var req SubmitRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return SubmitRequest{}, &ValidationError{Violations: []Violation{
			{Field: "body", Message: err.Error()},
		}}
	}
	return req, nil
}

// duplicateKeys lists keys that occur more than once in obj, in first-seen order.
// gjson reads the first occurrence and encoding/json the last, so a repeated key
// would let the checked value differ from the decoded one.
func duplicateKeys(obj gjson.Result) []string {
	if !obj.IsObject() {
		return nil
	}
	seen := make(map[string]int)
	var dups []string
	obj.ForEach(func(key, _ gjson.Result) bool {
		k := key.String()
		seen[k]++
		if seen[k] == 2 {
			dups = append(dups, k)
		}
		return true
	})
	return dups
}

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

func nonEmptyString(r gjson.Result) bool {
	return r.Type == gjson.String && r.Str != ""
}

func isInteger(r gjson.Result) bool {
	if r.Type != gjson.Number {
		return false
	}
	_, err := strconv.ParseInt(r.Raw, 10, 64)
	return err == nil
}
