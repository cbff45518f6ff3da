package common

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ParseJSON decodes a JSON string into v. Numbers are kept as json.Number
// and trailing data after the first value is rejected.
func ParseJSON(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v)
}

// DecodeJSON decodes a single JSON value from r.
func DecodeJSON(r io.Reader, v interface{}) error {
	return decodeJSON(r, v)
}

func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return err
	}

	// exactly one value
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected extra JSON data")
	}
	return nil
}
