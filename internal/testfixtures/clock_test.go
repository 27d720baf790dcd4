package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
	if got := ReferenceDay(); got.Hour() != 0 || got.Day() != ReferenceTime().Day() {
		t.Fatalf("expected midnight of the reference day, got %v", got)
	}
}

func TestClockAdvanceDaysAndSet(t *testing.T) {
	start := time.Date(2024, time.March, 30, 23, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.AdvanceDays(2)
	if want := time.Date(2024, time.April, 1, 23, 0, 0, 0, time.UTC); !updated.Equal(want) {
		t.Fatalf("expected %v, got %v", want, updated)
	}

	clock.Set(start)
	if got := clock.NowFunc()(); !got.Equal(start) {
		t.Fatalf("expected %v, got %v", start, got)
	}
}
