package gateway

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// optInt decodes a number that the gateway may emit as an integer, a float,
// or a numeric string. Anything else decodes as absent.
type optInt struct {
	value int64
	set   bool
}

func (o *optInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil //nolint:nilerr // malformed optional field reads as absent
		}

		data = []byte(s)
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}

	o.value = int64(f)
	o.set = true

	return nil
}

func (o optInt) ptr() *int64 {
	if !o.set {
		return nil
	}

	v := o.value

	return &v
}

func (o optInt) intPtr() *int {
	if !o.set {
		return nil
	}

	v := int(o.value)

	return &v
}

// optString decodes a string, or the textual form of a number, as absent on
// any other type.
type optString string

func (o *optString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*o = optString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*o = optString(n.String())
	}

	return nil
}

// optBool decodes a boolean; other types read as absent.
type optBool struct {
	value bool
	set   bool
}

func (o *optBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		o.value, o.set = b, true
	}

	return nil
}

func (o optBool) or(fallback bool) bool {
	if o.set {
		return o.value
	}

	return fallback
}

func hasKey(raw json.RawMessage, key string) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}

	_, ok := probe[key]

	return ok
}
