package memstore

import (
	"context"
	"testing"

	"bigtwo/internal/domain"
	"bigtwo/internal/ports"
)

func TestLoadMissing(t *testing.T) {
	s := New()
	if _, err := s.Load(context.Background(), "NOPE"); err != ports.ErrPartyNotFound {
		t.Fatalf("err = %v, want %v", err, ports.ErrPartyNotFound)
	}
}

func TestSaveLoadDeleteRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	table := &domain.TableState{
		PartyID:     "ABCD",
		RoundWinner: -1,
		Players:     []*domain.Player{{Name: "alice"}},
		Version:     7,
	}
	if err := s.Save(ctx, table); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(ctx, "ABCD")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Version != 7 || got.Players[0].Name != "alice" {
		t.Fatalf("loaded %+v", got)
	}

	// Mutating the loaded copy must not leak into the store.
	got.Players[0].Name = "mallory"
	again, err := s.Load(ctx, "ABCD")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Players[0].Name != "alice" {
		t.Fatalf("store aliased a loaded snapshot")
	}

	if err := s.Delete(ctx, "ABCD"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Load(ctx, "ABCD"); err != ports.ErrPartyNotFound {
		t.Fatalf("after delete err = %v, want %v", err, ports.ErrPartyNotFound)
	}
}
