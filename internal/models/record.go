package models

import (
	"fmt"
	"strings"
)

// Record is a raw document as stored in a collection.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"data"`
}

// Data exposes the raw document body.
func (r Record) Data() map[string]any {
	return r.Fields
}

// Lookup resolves a dotted field path such as "destination.city".
// It reports false when any segment is missing or is not an object,
// or when the leaf is null.
func (r Record) Lookup(path string) (any, bool) {
	if path == "" || r.Fields == nil {
		return nil, false
	}

	var cur any = r.Fields
	for _, seg := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// String resolves a path to trimmed text. Numbers and booleans are formatted;
// objects and arrays are treated as absent.
func (r Record) String(path string) (string, bool) {
	v, ok := r.Lookup(path)
	if !ok {
		return "", false
	}

	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case float64, int, int64, bool:
		return fmt.Sprint(t), true
	default:
		return "", false
	}
}
