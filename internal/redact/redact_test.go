package redact

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSensitive(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"password", true},
		{"PASSWORD", true},
		{"userPassword", true},
		{"refresh_token", true},
		{"tokenKey", true},
		{"clientSecret", true},
		{"credentials", true},
		{"Authorization", true},
		{"cookieJar", true},
		{"sessionId", true},
		{"state", true},
		{"codeVerifier", true},
		{"apiKey", true},
		{"key", true},
		{"username", false},
		{"email", false},
		{"statement", false}, // "state" matches exactly, not as a fragment
		{"monkey", false},    // same for "key"
		{"action", false},
	}
	for _, c := range cases {
		if got := Sensitive(c.name); got != c.want {
			t.Errorf("Sensitive(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestValueRedactsNested(t *testing.T) {
	payload := map[string]interface{}{
		"action": "user_login",
		"details": map[string]interface{}{
			"email":    "ops@example.com",
			"password": "hunter2",
			"attempts": []interface{}{
				map[string]interface{}{"token": "abc", "at": "2026-01-01"},
			},
		},
	}

	out := Map(payload)

	details := out["details"].(map[string]interface{})
	if details["password"] != Marker {
		t.Fatalf("nested password not redacted: %v", details["password"])
	}
	if details["email"] != "ops@example.com" {
		t.Fatal("benign nested field must be preserved")
	}
	attempt := details["attempts"].([]interface{})[0].(map[string]interface{})
	if attempt["token"] != Marker {
		t.Fatal("map inside a slice must be redacted too")
	}
	if attempt["at"] != "2026-01-01" {
		t.Fatal("benign field inside slice element must be preserved")
	}
}

func TestValueRedactsWholeSubtree(t *testing.T) {
	payload := map[string]interface{}{
		"credentials": map[string]interface{}{
			"user": "svc",
			"pass": "x",
		},
	}

	out := Map(payload)
	if out["credentials"] != Marker {
		t.Fatalf("sensitive key must replace the whole value, got %v", out["credentials"])
	}
}

func TestValueDoesNotMutateInput(t *testing.T) {
	payload := map[string]interface{}{"password": "hunter2"}
	_ = Map(payload)
	if payload["password"] != "hunter2" {
		t.Fatal("input map was mutated")
	}
}

func TestJSON(t *testing.T) {
	out := JSON(`{"user":"a","apiKey":"k","inner":{"session":"s"}}`)

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["apiKey"] != Marker {
		t.Fatal("apiKey not redacted")
	}
	if decoded["inner"].(map[string]interface{})["session"] != Marker {
		t.Fatal("nested session not redacted")
	}
	if decoded["user"] != "a" {
		t.Fatal("benign field lost")
	}
}

func TestJSONPassesOpaqueInputThrough(t *testing.T) {
	for _, raw := range []string{"", "not json", "password=hunter2"} {
		if got := JSON(raw); got != raw {
			t.Fatalf("JSON(%q) = %q, want input unchanged", raw, got)
		}
	}
	// Sanity: the opaque passthrough never invents a marker.
	if strings.Contains(JSON("plain text"), Marker) {
		t.Fatal("opaque input must not gain a marker")
	}
}
