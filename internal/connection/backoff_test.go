package connection

import (
	"testing"
	"time"
)

func TestBackoff_Wait(t *testing.T) {
	b := DefaultBackoff()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second}, // capped
		{10, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := b.Wait(tt.attempt); got != tt.want {
			t.Errorf("Wait(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoff_WaitClampsBadAttempt(t *testing.T) {
	b := DefaultBackoff()

	if got := b.Wait(0); got != time.Second {
		t.Errorf("Wait(0) = %v, want 1s", got)
	}
	if got := b.Wait(-3); got != time.Second {
		t.Errorf("Wait(-3) = %v, want 1s", got)
	}
	if got := b.Wait(500); got != 30*time.Second {
		t.Errorf("Wait(500) = %v, want 30s", got)
	}
}

func TestBackoff_Exhausted(t *testing.T) {
	b := DefaultBackoff()

	for attempt := 1; attempt <= 5; attempt++ {
		if b.Exhausted(attempt) {
			t.Errorf("Exhausted(%d) = true, want false", attempt)
		}
	}
	if !b.Exhausted(6) {
		t.Error("Exhausted(6) = false, want true")
	}
}
