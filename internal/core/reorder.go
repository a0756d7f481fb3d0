package core

import (
	"context"

	"treasuremap/pkg/domain"
)

// Reorder swaps the map with its neighbour in the given direction within its
// chest signature group. moved is false when the map is already first (up)
// or last (down).
func Reorder(ctx context.Context, store domain.MapStore, id string, dir domain.Direction) (moved bool, err error) {
	if _, err := domain.ParseDirection(string(dir)); err != nil {
		return false, err
	}
	current, err := store.FetchByID(ctx, id)
	if err != nil {
		return false, domain.WrapStore("fetch by id", err)
	}
	neighbour, ok, err := store.Neighbor(ctx, current.ChestSignature, current.SortOrder, dir)
	if err != nil {
		return false, domain.WrapStore("neighbor", err)
	}
	if !ok {
		return false, nil
	}
	if err := store.SwapSortOrder(ctx, current.ID, neighbour.ID); err != nil {
		return false, domain.WrapStore("swap sort order", err)
	}
	return true, nil
}
