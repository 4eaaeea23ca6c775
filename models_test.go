package accounts

import (
	"testing"
	"time"
)

func TestUserEnsureStatusDefaultsToOffline(t *testing.T) {
	u := &User{}

	u.EnsureStatus()

	if u.Status != UserStatusOffline {
		t.Fatalf("expected default status %q, got %q", UserStatusOffline, u.Status)
	}
}

func TestUserEnsureStatusKeepsExistingStatus(t *testing.T) {
	u := &User{Status: UserStatusBusy}

	u.EnsureStatus()

	if u.Status != UserStatusBusy {
		t.Fatalf("expected status %q to survive, got %q", UserStatusBusy, u.Status)
	}
}

func TestValidUserStatus(t *testing.T) {
	cases := []struct {
		status   UserStatus
		expected bool
	}{
		{UserStatusOnline, true},
		{UserStatusOffline, true},
		{UserStatusAway, true},
		{UserStatusBusy, true},
		{"", false},
		{"invisible", false},
		{"ONLINE", false},
	}

	for _, tc := range cases {
		if got := ValidUserStatus(tc.status); got != tc.expected {
			t.Fatalf("ValidUserStatus(%q) returned %t, expected %t", tc.status, got, tc.expected)
		}
	}
}

func TestUserTouch(t *testing.T) {
	u := &User{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	u.Touch(now)

	if u.UpdatedAt == nil || !u.UpdatedAt.Equal(now) {
		t.Fatalf("expected UpdatedAt %v, got %v", now, u.UpdatedAt)
	}
}
