package scheduling

import (
	"testing"
	"time"
)

func TestSlotsForDate_Weekday(t *testing.T) {
	monday := time.Date(2025, 6, 16, 0, 0, 0, 0, time.Local)
	slots := SlotsForDate(monday)

	if len(slots) != 10 {
		t.Fatalf("expected 10 slots, got %d", len(slots))
	}

	wantHours := []int{8, 9, 10, 11, 12, 15, 16, 17, 18, 19}
	for i, s := range slots {
		if s.Start.Hour() != wantHours[i] {
			t.Errorf("slot %d: expected start hour %d, got %d", i, wantHours[i], s.Start.Hour())
		}
		if !s.End.Equal(s.Start.Add(time.Hour)) {
			t.Errorf("slot %d: expected one-hour window, got %v–%v", i, s.Start, s.End)
		}
		if s.Start.Day() != 16 || s.Start.Month() != time.June {
			t.Errorf("slot %d: wrong date %v", i, s.Start)
		}
	}

	// Non-overlapping and ascending.
	for i := 1; i < len(slots); i++ {
		if slots[i].Start.Before(slots[i-1].End) {
			t.Errorf("slot %d overlaps previous", i)
		}
	}
}

func TestSlotsForDate_Weekend(t *testing.T) {
	saturday := time.Date(2025, 6, 14, 0, 0, 0, 0, time.Local)
	if slots := SlotsForDate(saturday); len(slots) != 0 {
		t.Errorf("expected no slots on Saturday, got %d", len(slots))
	}

	sunday := time.Date(2025, 6, 15, 0, 0, 0, 0, time.Local)
	if slots := SlotsForDate(sunday); len(slots) != 0 {
		t.Errorf("expected no slots on Sunday, got %d", len(slots))
	}
}

func TestSlotsForDate_Deterministic(t *testing.T) {
	d := time.Date(2025, 6, 17, 0, 0, 0, 0, time.Local)
	a, b := SlotsForDate(d), SlotsForDate(d)
	for i := range a {
		if !a[i].Start.Equal(b[i].Start) || !a[i].End.Equal(b[i].End) {
			t.Fatalf("slot %d differs across calls", i)
		}
	}
}
