package logger

import (
	"strings"
	"testing"
)

func TestIsRedactKey(t *testing.T) {
	redacted := []string{
		"token", "access_token", "refresh_token", "authorization",
		"password", "jwt_secret", "cookie", "api_key", "apikey",
		"email", "chunk_text",
	}
	for _, k := range redacted {
		if !isRedactKey(k) {
			t.Fatalf("key %q not redacted", k)
		}
	}
	clear := []string{"cv_id", "request_id", "status", "rule_key"}
	for _, k := range clear {
		if isRedactKey(k) {
			t.Fatalf("key %q wrongly redacted", k)
		}
	}
}

func TestIsHashKey(t *testing.T) {
	for _, k := range []string{"user_id", "owner_id", "session_id"} {
		if !isHashKey(k) {
			t.Fatalf("key %q not hashed", k)
		}
	}
	if isHashKey("cv_id") {
		t.Fatalf("cv_id wrongly hashed")
	}
}

func TestSanitizeValueRedacts(t *testing.T) {
	if got := sanitizeValue("password", "hunter2"); got != "[REDACTED]" {
		t.Fatalf("password value=%v", got)
	}
	if got := sanitizeValue("email", "jane@example.com"); got != "[REDACTED]" {
		t.Fatalf("email value=%v", got)
	}
	if got := sanitizeValue("cv_id", "abc"); got != "abc" {
		t.Fatalf("plain value=%v", got)
	}
}

func TestSanitizeValueHashesIdentity(t *testing.T) {
	got, ok := sanitizeValue("user_id", "11111111-1111-1111-1111-111111111111").(string)
	if !ok || !strings.HasPrefix(got, "hash:") {
		t.Fatalf("user_id value=%v, want hash: prefix", got)
	}
	if strings.Contains(got, "1111") {
		t.Fatalf("hash leaks the raw id: %v", got)
	}
	again, _ := sanitizeValue("user_id", "11111111-1111-1111-1111-111111111111").(string)
	if got != again {
		t.Fatalf("hash not stable: %v vs %v", got, again)
	}
}

func TestLooksLikeJWT(t *testing.T) {
	jwtish := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.signature"
	if !looksLikeJWT(jwtish) {
		t.Fatalf("jwt-shaped string not detected")
	}
	if got := sanitizeValue("note", jwtish); got != "[REDACTED]" {
		t.Fatalf("jwt under harmless key=%v, want redacted", got)
	}
	for _, s := range []string{"", "plain text", "a.b.c", "v1.2.3"} {
		if looksLikeJWT(s) {
			t.Fatalf("%q wrongly detected as a jwt", s)
		}
	}
}

func TestSanitizeMapRecurses(t *testing.T) {
	out := sanitizeMap(map[string]interface{}{
		"password": "hunter2",
		"nested":   map[string]interface{}{"api_key": "k", "cv_id": "c"},
	})
	if out["password"] != "[REDACTED]" {
		t.Fatalf("top-level password=%v", out["password"])
	}
	nested := out["nested"].(map[string]interface{})
	if nested["api_key"] != "[REDACTED]" || nested["cv_id"] != "c" {
		t.Fatalf("nested=%v", nested)
	}
}
