package types

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

var jsonNull = []byte("null")

// NullableUUID distinguishes three JSON states for an optional UUID field:
// absent (Valid false), explicit null (Valid true, Value nil), and a
// concrete id. Partial-update handlers use it where null means "clear".
type NullableUUID struct {
	Valid bool
	Value *uuid.UUID
}

// UnmarshalJSON implements json.Unmarshaler. A field that never appears in
// the body leaves the zero value untouched, so Valid stays false.
func (n *NullableUUID) UnmarshalJSON(data []byte) error {
	n.Valid = true
	n.Value = nil

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull) {
		return nil
	}

	var parsed uuid.UUID
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		n.Valid = false
		return err
	}
	n.Value = &parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n NullableUUID) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return jsonNull, nil
	}
	return json.Marshal(*n.Value)
}
