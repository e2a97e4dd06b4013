package schedule

import (
	"errors"
	"testing"
)

func TestSlots_EvenWindow(t *testing.T) {
	slots, err := Slots("10:00", "12:00", 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d (%v)", len(slots), slots)
	}
	if slots[0] != "10:00" || slots[1] != "11:00" {
		t.Fatalf("unexpected slots: %v", slots)
	}
}

func TestSlots_DropsPartialTrailingSlot(t *testing.T) {
	slots, err := Slots("09:00", "10:30", 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 09:00 fits; a 10:00 slot would run to 11:00, past the window end.
	if len(slots) != 1 || slots[0] != "09:00" {
		t.Fatalf("unexpected slots: %v", slots)
	}
}

func TestSlots_CountAndEndpoints(t *testing.T) {
	// duration divides the window evenly: (end-start)/duration slots,
	// first == start, last == end-duration.
	slots, err := Slots("08:00", "17:00", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 18 {
		t.Fatalf("expected 18 slots, got %d", len(slots))
	}
	if slots[0] != "08:00" {
		t.Fatalf("expected first slot 08:00, got %s", slots[0])
	}
	if slots[len(slots)-1] != "16:30" {
		t.Fatalf("expected last slot 16:30, got %s", slots[len(slots)-1])
	}
}

func TestSlots_NoSlotExceedsWindowEnd(t *testing.T) {
	slots, err := Slots("09:10", "11:45", 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	endMin, _ := ParseClock("11:45")
	for _, s := range slots {
		start, err := ParseClock(s)
		if err != nil {
			t.Fatalf("generated slot %q is not a valid clock time", s)
		}
		if start+40 > endMin {
			t.Fatalf("slot %s ends past the window", s)
		}
	}
}

func TestSlots_DurationLargerThanWindow(t *testing.T) {
	slots, err := Slots("10:00", "10:30", 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", slots)
	}
}

func TestSlots_RejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name     string
		start    string
		end      string
		duration int
	}{
		{"start equals end", "10:00", "10:00", 30},
		{"start after end", "12:00", "10:00", 30},
		{"zero duration", "10:00", "12:00", 0},
		{"negative duration", "10:00", "12:00", -15},
		{"malformed start", "25:99", "12:00", 30},
		{"malformed end", "10:00", "noon", 30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Slots(tc.start, tc.end, tc.duration); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestFormatClock_ZeroPads(t *testing.T) {
	if got := FormatClock(9*60 + 5); got != "09:05" {
		t.Fatalf("expected 09:05, got %s", got)
	}
	if got := FormatClock(0); got != "00:00" {
		t.Fatalf("expected 00:00, got %s", got)
	}
}
