package session

import (
	"testing"
)

const adminEmail = "admin@myawesomesite.com"

func TestIssueParseRoundtrip(t *testing.T) {
	m, err := NewManager(adminEmail)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}

	sess := m.NewSession("user@example.com", "user-1")
	token, err := m.Issue(sess)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	got, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if *got != sess {
		t.Errorf("Parse() = %+v, want %+v", *got, sess)
	}
}

func TestRoleDerivation(t *testing.T) {
	m, err := NewManager(adminEmail)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}

	tests := []struct {
		email string
		want  Role
	}{
		{adminEmail, RoleAdmin},
		{"user@example.com", RoleUser},
		{"ADMIN@myawesomesite.com", RoleUser}, // exact match only
		{"admin@myawesomesite.com.evil.com", RoleUser},
	}

	for _, tt := range tests {
		if got := m.NewSession(tt.email, "id").Role; got != tt.want {
			t.Errorf("NewSession(%q).Role = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	m, err := NewManager(adminEmail)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}

	token, err := m.Issue(m.NewSession("user@example.com", "user-1"))
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := m.Parse(tampered); err == nil {
		t.Error("Parse() accepted a tampered token")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	m, err := NewManager(adminEmail)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Parse(raw); err == nil {
			t.Errorf("Parse(%q) accepted garbage", raw)
		}
	}
}

func TestTokensDieWithTheProcess(t *testing.T) {
	// Two managers model a process restart: each draws its own secret,
	// so tokens from one are rejected by the other
	m1, err := NewManager(adminEmail)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	m2, err := NewManager(adminEmail)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}

	token, err := m1.Issue(m1.NewSession("user@example.com", "user-1"))
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := m2.Parse(token); err == nil {
		t.Error("a fresh manager accepted a token from the previous one")
	}
}
