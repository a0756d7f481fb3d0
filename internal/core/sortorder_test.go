package core

import (
	"context"
	"errors"
	"testing"

	"treasuremap/internal/infra/persistence/memory"
	"treasuremap/pkg/domain"
)

func TestNextSortOrderSequence(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	sig := domain.ChestCounts{Small: 1}.Signature()
	for i, want := range []int{100, 200, 300} {
		got, err := NextSortOrder(ctx, sig, store.MaxSortOrder)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if got != want {
			t.Fatalf("step %d: got %d want %d", i, got, want)
		}
		if err := store.Insert(ctx, stored(string(rune('A'+i))+"xyz", got, sampleBoard(), domain.ChestCounts{Small: 1})); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
}

func TestNextSortOrderIgnoresOtherGroups(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	if err := store.Insert(ctx, stored("Aaaa", 700, sampleBoard(), domain.ChestCounts{Medium: 2})); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := NextSortOrder(ctx, domain.ChestCounts{}.Signature(), store.MaxSortOrder)
	if err != nil || got != SortOrderStep {
		t.Fatalf("got %d %v", got, err)
	}
}

func TestNextSortOrderPropagatesError(t *testing.T) {
	boom := errors.New("down")
	_, err := NextSortOrder(context.Background(), "0.0.0.0", func(context.Context, domain.ChestSignature) (int, bool, error) {
		return 0, false, boom
	})
	var se domain.StoreError
	if !errors.As(err, &se) || !errors.Is(err, boom) {
		t.Fatalf("expected StoreError, got %v", err)
	}
}
