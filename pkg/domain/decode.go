package domain

import (
	"fmt"
	"strings"
)

// DecodeWarning records a value that was coerced to a default while decoding.
type DecodeWarning struct {
	Index  int    // tile index in row-major order, -1 when not tile specific
	Field  string // "type" or "border"
	Value  string // the rejected input
	Reason string
}

func (w DecodeWarning) String() string {
	return fmt.Sprintf("tile %d: %s", w.Index+1, w.Reason)
}

// TileDecode is the outcome of decoding one tile: either clean, or decoded
// with warnings about values that were replaced by defaults.
type TileDecode struct {
	Tile     Tile
	Warnings []DecodeWarning
}

// Ok reports whether the tile decoded without coercion.
func (d TileDecode) Ok() bool { return len(d.Warnings) == 0 }

// DecodeTile converts a stored tile. An unknown type degrades to blank and an
// unknown border to none; both are reported rather than silently dropped.
func DecodeTile(w WireTile) TileDecode {
	var out TileDecode
	typ := TileType(strings.TrimSpace(w.Type))
	if !typ.Valid() {
		out.Warnings = append(out.Warnings, DecodeWarning{
			Index:  -1,
			Field:  "type",
			Value:  w.Type,
			Reason: fmt.Sprintf("unknown tile type %q, using %q", w.Type, TileBlank),
		})
		typ = TileBlank
	}
	border, err := ParseWireBorder(w.Border)
	if err != nil {
		out.Warnings = append(out.Warnings, DecodeWarning{
			Index:  -1,
			Field:  "border",
			Value:  w.Border,
			Reason: fmt.Sprintf("unknown border %q, using %q", w.Border, BorderNone),
		})
	}
	out.Tile = Tile{
		Type:     typ,
		Treasure: w.HasTreasure,
		Star:     w.HasStar,
		Bulb:     w.HasBulb,
		Border:   border,
	}
	return out
}

// EncodeTile converts a tile to its stored form.
func EncodeTile(t Tile) WireTile {
	typ := t.Type
	if typ == "" {
		typ = TileBlank
	}
	return WireTile{
		Type:        string(typ),
		HasTreasure: t.Treasure,
		HasStar:     t.Star,
		HasBulb:     t.Bulb,
		Border:      t.Border.Wire(),
	}
}

// DecodeBoard decodes the tiles of a payload into a board. A wrong tile count
// is a ValidationError; unknown enum values are coerced and reported.
func DecodeBoard(m MapData) (Board, []DecodeWarning, error) {
	if len(m.Tiles) != TileCount {
		return Board{}, nil, ValidationError{Field: "tiles", Message: fmt.Sprintf("expected %d tiles, got %d", TileCount, len(m.Tiles))}
	}
	var (
		b        Board
		warnings []DecodeWarning
	)
	for i, w := range m.Tiles {
		d := DecodeTile(w)
		for _, warn := range d.Warnings {
			warn.Index = i
			warnings = append(warnings, warn)
		}
		b[i/BoardSize][i%BoardSize] = d.Tile
	}
	return b, warnings, nil
}

// EncodeBoard converts a board to TileCount stored tiles in row-major order.
func EncodeBoard(b Board) []WireTile {
	out := make([]WireTile, 0, TileCount)
	for _, t := range b.Flat() {
		out = append(out, EncodeTile(t))
	}
	return out
}
