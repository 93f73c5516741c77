// Package redact strips credential-like fields from structured payloads
// before they cross the live-event boundary to browsers. Activity details
// are arbitrary JSON captured from request handling and can incidentally
// contain secrets, so this transform is mandatory, not best-effort.
package redact

import (
	"encoding/json"
	"strings"
)

// Marker replaces every redacted value.
const Marker = "[REDACTED]"

// Field names containing any of these fragments are redacted
// (case-insensitive).
var fragments = []string{
	"password",
	"token",
	"secret",
	"credential",
	"auth",
	"cookie",
	"session",
}

// Field names exactly matching these (case-insensitive) are redacted.
var exact = map[string]struct{}{
	"state":        {},
	"codeverifier": {},
	"apikey":       {},
	"key":          {},
}

// Sensitive reports whether a field name must be redacted.
func Sensitive(name string) bool {
	lower := strings.ToLower(name)
	if _, ok := exact[lower]; ok {
		return true
	}
	for _, frag := range fragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// Value redacts v recursively. Maps and slices are walked; any map entry
// with a sensitive key has its value replaced by Marker regardless of the
// value's own type. The input is not mutated.
func Value(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, inner := range t {
			if Sensitive(k) {
				out[k] = Marker
				continue
			}
			out[k] = Value(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, inner := range t {
			out[i] = Value(inner)
		}
		return out
	default:
		return v
	}
}

// Map redacts a string-keyed map payload.
func Map(m map[string]interface{}) map[string]interface{} {
	redacted, _ := Value(m).(map[string]interface{})
	return redacted
}

// JSON redacts a serialized JSON document. Input that does not parse is
// returned unchanged: an opaque string carries no field names to match.
func JSON(raw string) string {
	if raw == "" {
		return raw
	}
	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return raw
	}
	out, err := json.Marshal(Value(decoded))
	if err != nil {
		return raw
	}
	return string(out)
}
