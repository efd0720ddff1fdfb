package models

import (
	"testing"
	"time"
)

func TestCanBeTransferredNeverAssigned(t *testing.T) {
	l := &License{Status: LICENSE_STATUS_PARKED}
	if !l.CanBeTransferred(time.Now()) {
		t.Fatal("expected a never-assigned license to be transferable")
	}
}

func TestCanBeTransferredCooldownBoundary(t *testing.T) {
	assigned := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l := &License{Status: LICENSE_STATUS_ACTIVE, LastAssignedAt: &assigned}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "one day later", now: assigned.Add(24 * time.Hour), want: false},
		{name: "29 days later", now: assigned.Add(29 * 24 * time.Hour), want: false},
		{name: "exactly 30 days", now: assigned.Add(TransferCooldown), want: false},
		{name: "30 days and one second", now: assigned.Add(TransferCooldown + time.Second), want: true},
		{name: "31 days later", now: assigned.Add(31 * 24 * time.Hour), want: true},
	}

	for _, tt := range tests {
		if got := l.CanBeTransferred(tt.now); got != tt.want {
			t.Fatalf("%s: CanBeTransferred = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTransferAvailableAt(t *testing.T) {
	l := &License{}
	if l.TransferAvailableAt() != nil {
		t.Fatal("expected nil for a never-assigned license")
	}

	assigned := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l.LastAssignedAt = &assigned
	got := l.TransferAvailableAt()
	if got == nil || !got.Equal(assigned.Add(TransferCooldown)) {
		t.Fatalf("TransferAvailableAt = %v, want %v", got, assigned.Add(TransferCooldown))
	}
}
