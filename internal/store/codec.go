package store

import (
	"encoding/json"
	"fmt"
)

// ToDocument converts any JSON-serialisable value into a generic document.
func ToDocument(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("document must be a JSON object: %w", err)
	}
	return doc, nil
}

// Decode copies src (a generic document or slice of documents) into dst.
func Decode(src any, dst any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// MatchesField reports whether doc[field] renders to value.
func MatchesField(doc map[string]any, field, value string) bool {
	v, ok := doc[field]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s == value
	}
	return fmt.Sprint(v) == value
}
