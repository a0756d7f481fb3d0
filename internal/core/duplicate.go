package core

import (
	"context"
	"log/slog"

	"treasuremap/pkg/domain"
)

// SignatureFetcher lists stored maps of one chest signature in sort order.
type SignatureFetcher func(ctx context.Context, sig domain.ChestSignature) ([]domain.StoredMap, error)

// DuplicateResult reports whether a candidate matches a stored map.
type DuplicateResult struct {
	IsDuplicate bool
	MatchedID   string
}

// CheckDuplicate reports whether candidate, in any of its four rotations,
// equals a stored map with the same chest signature. The map whose id is
// excludeID is ignored so an edited map is not compared with itself.
//
// A fetch failure is returned as a StoreError: the caller must not save.
func CheckDuplicate(ctx context.Context, candidate domain.Board, sig domain.ChestSignature, excludeID string, fetch SignatureFetcher) (DuplicateResult, error) {
	return checkDuplicate(ctx, nil, candidate, sig, excludeID, fetch)
}

func checkDuplicate(ctx context.Context, logger *slog.Logger, candidate domain.Board, sig domain.ChestSignature, excludeID string, fetch SignatureFetcher) (DuplicateResult, error) {
	if logger == nil {
		logger = discardLogger
	}
	wanted := domain.RotationFingerprints(candidate)

	existing, err := fetch(ctx, sig)
	if err != nil {
		return DuplicateResult{}, domain.WrapStore("fetch by signature", err)
	}

	owners := make(map[string]string)
	for _, m := range existing {
		if excludeID != "" && m.ID == excludeID {
			continue
		}
		board, _, err := domain.DecodeBoard(m.MapData)
		if err != nil {
			logger.Warn("skipping undecodable map in duplicate check", "id", m.ID, "err", err)
			continue
		}
		for _, fp := range domain.RotationFingerprints(board) {
			if _, taken := owners[fp]; !taken {
				owners[fp] = m.ID
			}
		}
	}

	for _, fp := range wanted {
		if id, ok := owners[fp]; ok {
			logger.Warn("duplicate map found", "signature", sig, "matched_id", id)
			return DuplicateResult{IsDuplicate: true, MatchedID: id}, nil
		}
	}
	return DuplicateResult{}, nil
}
