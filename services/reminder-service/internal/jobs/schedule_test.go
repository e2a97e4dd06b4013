package jobs

import (
	"strings"
	"testing"
	"time"
)

func TestRemindAt_SubtractsOffset(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	at, err := RemindAt("2026-03-02", "10:00", 24*time.Hour, now)
	if err != nil {
		t.Fatalf("RemindAt: %v", err)
	}
	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if !at.Equal(want) {
		t.Fatalf("expected %v, got %v", want, at)
	}
}

func TestRemindAt_ClampsToNowForSameDayBookings(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	at, err := RemindAt("2026-03-02", "10:00", 24*time.Hour, now)
	if err != nil {
		t.Fatalf("RemindAt: %v", err)
	}
	if !at.Equal(now) {
		t.Fatalf("expected clamp to now %v, got %v", now, at)
	}
}

func TestRemindAt_RejectsMalformedStart(t *testing.T) {
	if _, err := RemindAt("03/02/2026", "10:00", time.Hour, time.Now()); err == nil {
		t.Fatal("expected error for bad date")
	}
	if _, err := RemindAt("2026-03-02", "10am", time.Hour, time.Now()); err == nil {
		t.Fatal("expected error for bad time")
	}
}

func TestRenderBody(t *testing.T) {
	body := RenderBody(map[string]any{"date": "2026-03-02", "time": "10:00", "pet_name": "Biscuit"})
	if !strings.Contains(body, "Biscuit") || !strings.Contains(body, "2026-03-02") || !strings.Contains(body, "10:00") {
		t.Fatalf("unexpected body: %s", body)
	}

	body = RenderBody(map[string]any{"date": "2026-03-02", "time": "10:00"})
	if !strings.Contains(body, "you have a clinic appointment") {
		t.Fatalf("unexpected fallback body: %s", body)
	}
}
