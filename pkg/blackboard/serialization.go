package blackboard

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Serialization helpers for converting between Go structs and Redis values
//
// Transcript messages and cause items are stored as JSON strings inside Redis
// lists. Evidence is a string-to-string hash whose values are either formatted
// confidence factors or free-text facts; the typed accessors on Client pick the
// right decoding.

// EncodeMessage converts a Message to its Redis list entry.
func EncodeMessage(m Message) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}
	return string(data), nil
}

// DecodeMessage converts a Redis list entry back to a Message.
func DecodeMessage(raw string) (Message, error) {
	var m Message
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Message{}, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return m, nil
}

// EncodeCause converts a CauseItem to its Redis list entry.
func EncodeCause(c CauseItem) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cause item: %w", err)
	}
	return string(data), nil
}

// DecodeCause converts a Redis list entry back to a CauseItem.
func DecodeCause(raw string) (CauseItem, error) {
	var c CauseItem
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return CauseItem{}, fmt.Errorf("failed to unmarshal cause item: %w", err)
	}
	return c, nil
}

// FormatCF renders a confidence factor for storage in the evidence hash.
func FormatCF(cf float64) string {
	return strconv.FormatFloat(cf, 'f', -1, 64)
}

// ParseCF parses a stored confidence factor. Returns an error for values that
// were stored as free text rather than numbers.
func ParseCF(raw string) (float64, error) {
	cf, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("evidence value %q is not a confidence factor: %w", raw, err)
	}
	return cf, nil
}
