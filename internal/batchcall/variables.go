package batchcall

import (
	"bytes"
	"encoding/json"
	"errors"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var errVariablesNotObject = errors.New("batchcall: variables must be a JSON object")

// Variables is an insertion-ordered bag of raw JSON values keyed by name.
// Values are kept as the caller sent them.
type Variables struct {
	m *orderedmap.OrderedMap[string, json.RawMessage]
}

func NewVariables() *Variables {
	return &Variables{m: orderedmap.New[string, json.RawMessage]()}
}

func (v *Variables) ensure() {
	if v.m == nil {
		v.m = orderedmap.New[string, json.RawMessage]()
	}
}

func (v *Variables) Set(key string, raw json.RawMessage) {
	v.ensure()
	v.m.Set(key, raw)
}

// SetValue marshals value and stores it under key.
func (v *Variables) SetValue(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	v.Set(key, raw)
	return nil
}

func (v *Variables) Get(key string) (json.RawMessage, bool) {
	if v == nil || v.m == nil {
		return nil, false
	}
	return v.m.Get(key)
}

func (v *Variables) Delete(key string) {
	if v == nil || v.m == nil {
		return
	}
	v.m.Delete(key)
}

func (v *Variables) Len() int {
	if v == nil || v.m == nil {
		return 0
	}
	return v.m.Len()
}

// Keys returns keys in insertion order.
func (v *Variables) Keys() []string {
	if v == nil || v.m == nil {
		return nil
	}
	keys := make([]string, 0, v.m.Len())
	for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Clone returns a copy that shares no mutable state with v.
func (v *Variables) Clone() *Variables {
	if v == nil {
		return nil
	}
	out := NewVariables()
	if v.m == nil {
		return out
	}
	for pair := v.m.Oldest(); pair != nil; pair = pair.Next() {
		out.m.Set(pair.Key, append(json.RawMessage(nil), pair.Value...))
	}
	return out
}

func (v *Variables) MarshalJSON() ([]byte, error) {
	if v == nil || v.m == nil || v.m.Len() == 0 {
		return []byte("{}"), nil
	}
	return v.m.MarshalJSON()
}

func (v *Variables) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errVariablesNotObject
	}
	m := orderedmap.New[string, json.RawMessage]()
	if err := m.UnmarshalJSON(trimmed); err != nil {
		return err
	}
	v.m = m
	return nil
}
