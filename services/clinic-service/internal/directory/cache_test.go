package directory

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

type fakeLister struct {
	pros []Professional
	err  error
}

func (f *fakeLister) ListProfessionals(ctx context.Context) ([]Professional, error) {
	return f.pros, f.err
}

func TestProfessionalCache_RefreshAndLookup(t *testing.T) {
	lister := &fakeLister{pros: []Professional{
		{ID: "vet-1", Name: "Dr. Reyes", Active: true},
		{ID: "vet-2", Name: "Dr. Okafor", Active: false},
	}}
	cache := NewProfessionalCache(lister, slog.New(slog.DiscardHandler))

	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if !cache.Active("vet-1") {
		t.Fatal("vet-1 should be active")
	}
	if cache.Active("vet-2") {
		t.Fatal("vet-2 is deactivated and must not be bookable")
	}
	if cache.Active("vet-3") {
		t.Fatal("unknown id must not be active")
	}
	if got := len(cache.List()); got != 2 {
		t.Fatalf("expected 2 professionals, got %d", got)
	}
}

func TestProfessionalCache_RefreshErrorKeepsSnapshot(t *testing.T) {
	lister := &fakeLister{pros: []Professional{{ID: "vet-1", Active: true}}}
	cache := NewProfessionalCache(lister, slog.New(slog.DiscardHandler))
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	lister.err = errors.New("db down")
	if err := cache.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	if !cache.Active("vet-1") {
		t.Fatal("failed refresh must keep the previous snapshot")
	}
}
