package core

import (
	"context"

	"treasuremap/pkg/domain"
)

// SortOrderStep is the gap left between neighbouring maps of a group.
const SortOrderStep = 100

// MaxSortOrderFetcher reports the largest sort order of a group; ok is false
// when the group is empty.
type MaxSortOrderFetcher func(ctx context.Context, sig domain.ChestSignature) (max int, ok bool, err error)

// NextSortOrder returns the sort order for a map appended to the group:
// SortOrderStep for an empty group, otherwise the current maximum plus
// SortOrderStep.
//
// This reads then decides; two concurrent saves into the same group can
// compute the same value.
func NextSortOrder(ctx context.Context, sig domain.ChestSignature, fetchMax MaxSortOrderFetcher) (int, error) {
	max, ok, err := fetchMax(ctx, sig)
	if err != nil {
		return 0, domain.WrapStore("max sort order", err)
	}
	if !ok {
		return SortOrderStep, nil
	}
	return max + SortOrderStep, nil
}
