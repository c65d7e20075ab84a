package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// marshalJSON encodes v as compact JSON TEXT with HTML escaping disabled,
// so market descriptions containing <, > or & are stored verbatim.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// marshalValues encodes an argument or return list. nil encodes as [].
func marshalValues(values []any) (string, error) {
	if values == nil {
		values = []any{}
	}
	data, err := marshalJSON(values)
	if err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return data, nil
}

// unmarshalValues parses an argument or return list. Numbers decode as
// json.Number to avoid float64 precision loss.
func unmarshalValues(data string) ([]any, error) {
	if data == "" {
		return []any{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var values []any
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	if values == nil {
		values = []any{}
	}
	return values, nil
}

func unmarshalFields(data string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	fields := map[string]any{}
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return fields, nil
}
