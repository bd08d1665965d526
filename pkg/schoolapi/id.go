package schoolapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an identifier that the school API may send either as a number or as a string.
type ID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("schoolapi: invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes purely numeric identifiers as JSON numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return json.Marshal(string(id))
		}
	}
	return []byte(id), nil
}

// String returns the identifier as text.
func (id ID) String() string { return string(id) }
