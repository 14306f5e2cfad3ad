package sensor

import (
	"testing"
	"time"
)

func TestBackoffPolicy_NextDelay(t *testing.T) {
	policy := BackoffPolicy{BaseDelay: 5 * time.Second, MaxAttempts: 5}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: 5 * time.Second},
		{attempt: 2, want: 10 * time.Second},
		{attempt: 3, want: 20 * time.Second},
		{attempt: 4, want: 40 * time.Second},
		{attempt: 5, want: 80 * time.Second},
		// No cap: growth continues past the attempt limit.
		{attempt: 8, want: 640 * time.Second},
	}

	for _, tt := range tests {
		if got := policy.NextDelay(tt.attempt); got != tt.want {
			t.Errorf("NextDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoffPolicy_NextDelayMonotonic(t *testing.T) {
	policy := DefaultBackoffPolicy()

	prev := time.Duration(0)
	for attempt := 1; attempt <= 10; attempt++ {
		delay := policy.NextDelay(attempt)
		if delay <= prev {
			t.Fatalf("NextDelay(%d) = %v, not greater than previous %v", attempt, delay, prev)
		}
		prev = delay
	}
}

func TestBackoffPolicy_NextDelayFloorsAttempt(t *testing.T) {
	policy := BackoffPolicy{BaseDelay: time.Second, MaxAttempts: 5}

	if got := policy.NextDelay(0); got != time.Second {
		t.Errorf("NextDelay(0) = %v, want %v", got, time.Second)
	}
	if got := policy.NextDelay(-3); got != time.Second {
		t.Errorf("NextDelay(-3) = %v, want %v", got, time.Second)
	}
}

func TestBackoffPolicy_ShouldContinue(t *testing.T) {
	policy := BackoffPolicy{BaseDelay: time.Second, MaxAttempts: 5}

	for attempt := 0; attempt < 5; attempt++ {
		if !policy.ShouldContinue(attempt) {
			t.Errorf("ShouldContinue(%d) = false, want true", attempt)
		}
	}
	for _, attempt := range []int{5, 6, 100} {
		if policy.ShouldContinue(attempt) {
			t.Errorf("ShouldContinue(%d) = true, want false", attempt)
		}
	}
}

func TestDefaultBackoffPolicy(t *testing.T) {
	policy := DefaultBackoffPolicy()

	if policy.BaseDelay != 5*time.Second {
		t.Errorf("BaseDelay = %v, want 5s", policy.BaseDelay)
	}
	if policy.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", policy.MaxAttempts)
	}
}
