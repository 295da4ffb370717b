// Package envelope strips the inconsistent wrappers providers put around their payloads.
// Everything past Unwrap decodes into typed structs and never inspects raw envelopes.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrAbsent means the response carried no payload: empty body, "[]", null, or an empty array.
	ErrAbsent = errors.New("envelope: no payload")
	// ErrMalformed means the body was not valid JSON.
	ErrMalformed = errors.New("envelope: malformed JSON")
)

// Unwrap returns the payload from a provider response body. The first non-null of these wins:
// the "0" member of an object, element 0 of an array, the bare object.
func Unwrap(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == "[]" {
		return nil, ErrAbsent
	}

	data := []byte(trimmed)
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, snippet(trimmed))
	}

	switch data[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if first, ok := obj["0"]; ok && !isNull(first) {
			return first, nil
		}
		return json.RawMessage(data), nil

	case '[':
		var arr []json.RawMessage
		if err := json.Unmarshal(data, &arr); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(arr) > 0 && !isNull(arr[0]) {
			return arr[0], nil
		}
		return nil, ErrAbsent

	default:
		// null or a bare scalar
		return nil, ErrAbsent
	}
}

// TechnicalData descends into a "TechnicalData" member when the payload has one.
func TechnicalData(payload json.RawMessage) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return payload
	}
	if inner, ok := obj["TechnicalData"]; ok && !isNull(inner) {
		return inner
	}
	return payload
}

// Decode unwraps text, descends into TechnicalData and decodes the result into v.
func Decode(text string, v interface{}) error {
	payload, err := Unwrap(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(TechnicalData(payload), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// OneOrMany decodes a member that is sometimes a single object and sometimes an array.
type OneOrMany[T any] []T

func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || isNull(trimmed) {
		*o = nil
		return nil
	}

	if trimmed[0] == '[' {
		var many []T
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}

	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return err
	}
	*o = OneOrMany[T]{one}
	return nil
}

// FlexString accepts a JSON string or number. Identifiers arrive as either.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || isNull(trimmed):
		*f = ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", trimmed)
		}
		*f = FlexString(n.String())
	}
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// FlexBool accepts true/false, 0/1 and their string forms.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	var raw FlexString
	if err := raw.UnmarshalJSON(data); err != nil {
		var v bool
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*b = FlexBool(v)
		return nil
	}

	if raw == "" {
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(strings.ToLower(raw.String()))
	if err != nil {
		return fmt.Errorf("expected boolean, got %s", data)
	}
	*b = FlexBool(v)
	return nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func snippet(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
