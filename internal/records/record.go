package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// UnknownCategory is used for records with a missing or empty type
const UnknownCategory = "unknown"

// Record is one item of a load result. Every field is optional; accessors
// report absence instead of failing.
type Record map[string]any

// Category returns the grouping key for the record
func (r Record) Category() string {
	v, ok := r["type"]
	if !ok || v == nil {
		return UnknownCategory
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return UnknownCategory
		}
		return t
	case bool:
		if !t {
			return UnknownCategory
		}
		return "true"
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return UnknownCategory
		}
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return UnknownCategory
		}
		return string(b)
	}
}

// Name returns the display label
func (r Record) Name() (string, bool) {
	return r.text("name")
}

// ID returns the opaque identifier as text
func (r Record) ID() (string, bool) {
	return r.text("id")
}

// URL returns the external link, unvalidated
func (r Record) URL() (string, bool) {
	return r.text("url")
}

// Created returns the raw creation_time value
func (r Record) Created() (any, bool) {
	return r.raw("creation_time")
}

// Modified returns the raw last_modified_time value
func (r Record) Modified() (any, bool) {
	return r.raw("last_modified_time")
}

func (r Record) raw(key string) (any, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && s == "" {
		return nil, false
	}
	return v, true
}

func (r Record) text(key string) (string, bool) {
	v, ok := r.raw(key)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}

// Decode parses a JSON payload into a generic value, keeping numbers verbatim
func Decode(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return v, nil
}

// Parse returns the records of an array payload. ok is false when the payload
// is absent, invalid or not an array. Non-object elements become empty records.
func Parse(raw []byte) ([]Record, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false
	}
	v, err := Decode(raw)
	if err != nil {
		return nil, false
	}
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}

	out := make([]Record, 0, len(items))
	for _, item := range items {
		obj, _ := item.(map[string]any)
		out = append(out, Record(obj))
	}
	return out, true
}

// Count returns the number of items in an array payload, or 0 otherwise
func Count(raw []byte) int {
	items, _ := Parse(raw)
	return len(items)
}

// Pretty indents a JSON payload with two spaces, preserving key order
func Pretty(raw []byte) string {
	var b bytes.Buffer
	if err := json.Indent(&b, raw, "", "  "); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return b.String()
}
