package core

import (
	"context"
	"fmt"

	"treasuremap/pkg/domain"
)

// NewTileMarkersRule returns the rule rejecting stars, bulbs and borders on
// blank tiles or on tiles without treasure.
func NewTileMarkersRule() domain.Rule {
	return tileMarkersRule{}
}

type tileMarkersRule struct{}

func (tileMarkersRule) Name() string { return "tile_markers" }

func (tileMarkersRule) Evaluate(_ context.Context, _ domain.MapData, board domain.Board) (domain.Result, error) {
	res := domain.Result{}
	for i, tile := range board.Flat() {
		msg := tile.MarkerViolation()
		if msg == "" {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:      "tile_markers",
			Severity:  domain.SeverityBlock,
			Message:   fmt.Sprintf("Tile %d: %s", i+1, msg),
			TileIndex: i + 1,
		})
	}
	return res, nil
}
