package auth

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, err := m.Generate("u1", "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.ID != "u1" || claims.Name != "alice" || claims.Email != "alice@example.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	// NotBefore is backdated one second relative to IssuedAt
	gap := claims.IssuedAt.Time.Sub(claims.NotBefore.Time)
	if gap != time.Second {
		t.Errorf("IssuedAt - NotBefore = %v, want 1s", gap)
	}

	ttl := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time)
	if ttl != time.Hour {
		t.Errorf("token lifetime = %v, want 1h", ttl)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret-a", time.Hour).Generate("u1", "alice", "a@example.com")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := NewJWTManager("secret-b", time.Hour).Verify(token); err == nil {
		t.Error("token signed with a different secret verified")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewJWTManager("test-secret", -10*time.Second)
	token, err := m.Generate("u1", "alice", "a@example.com")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := m.Verify(token); err == nil {
		t.Error("expired token verified")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	if _, err := NewJWTManager("test-secret", time.Hour).Verify("not.a.token"); err == nil {
		t.Error("garbage token verified")
	}
}

func TestExpiry(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	token, err := m.Generate("u1", "alice", "a@example.com")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	exp, err := m.Expiry(token)
	if err != nil {
		t.Fatalf("Expiry: %v", err)
	}
	want := time.Now().Add(time.Hour)
	if exp.Before(want.Add(-5*time.Second)) || exp.After(want.Add(5*time.Second)) {
		t.Errorf("expiry %v not within 5s of %v", exp, want)
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer abc123")

	token, err := ExtractTokenFromHeader(r)
	if err != nil {
		t.Fatalf("ExtractTokenFromHeader: %v", err)
	}
	if token != "abc123" {
		t.Errorf("token = %q, want %q", token, "abc123")
	}

	r.Header.Set("Authorization", "Basic abc123")
	if _, err := ExtractTokenFromHeader(r); err == nil {
		t.Error("non-bearer header accepted")
	}
}
