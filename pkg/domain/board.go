package domain

import "fmt"

// Board geometry.
const (
	BoardSize = 5
	TileCount = BoardSize * BoardSize
)

// Board is the 5x5 tile matrix indexed [row][col], row 0 at the top.
// Being an array of values, assigning or passing a Board copies every tile,
// so no two boards ever alias each other.
type Board [BoardSize][BoardSize]Tile

// NewBlankBoard returns a board of blank tiles.
func NewBlankBoard() Board {
	var b Board
	for i := range b {
		for j := range b[i] {
			b[i][j] = BlankTile()
		}
	}
	return b
}

// BoardFromFlat builds a board from exactly TileCount tiles in row-major
// order: index i lands on (i/5, i%5).
func BoardFromFlat(tiles []Tile) (Board, error) {
	var b Board
	if len(tiles) != TileCount {
		return b, ValidationError{Field: "tiles", Message: fmt.Sprintf("expected %d tiles, got %d", TileCount, len(tiles))}
	}
	for i, t := range tiles {
		b[i/BoardSize][i%BoardSize] = t
	}
	return b, nil
}

// Flat returns the tiles in row-major order.
func (b Board) Flat() []Tile {
	out := make([]Tile, 0, TileCount)
	for i := range b {
		out = append(out, b[i][:]...)
	}
	return out
}

// At returns the tile at (row, col).
func (b Board) At(row, col int) Tile {
	return b[row][col]
}

// With returns a copy of b with the tile at (row, col) replaced.
func (b Board) With(row, col int, t Tile) Board {
	b[row][col] = t
	return b
}

// RotateClockwise90 turns the board a quarter turn clockwise:
// result[i][j] = b[N-1-j][i].
func RotateClockwise90(b Board) Board {
	const n = BoardSize
	var out Board
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i][j] = b[n-1-j][i]
		}
	}
	return out
}

// Rotate180 turns the board half way round: result[i][j] = b[N-1-i][N-1-j].
func Rotate180(b Board) Board {
	const n = BoardSize
	var out Board
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i][j] = b[n-1-i][n-1-j]
		}
	}
	return out
}

// Orientations returns the board turned 0, 90, 180 and 270 degrees clockwise.
func Orientations(b Board) [4]Board {
	var out [4]Board
	out[0] = b
	for k := 1; k < len(out); k++ {
		out[k] = RotateClockwise90(out[k-1])
	}
	return out
}

// Quadrant names a slot in the four-up display of a map.
type Quadrant string

// Display slots.
const (
	QuadrantTopLeft     Quadrant = "top-left"
	QuadrantTopRight    Quadrant = "top-right"
	QuadrantBottomRight Quadrant = "bottom-right"
	QuadrantBottomLeft  Quadrant = "bottom-left"
)

// DisplayOrder lists the quadrants in reading order alongside the clockwise
// rotation (in degrees) shown in each. Saved maps render with this exact
// association: 0 top-left, 270 top-right, 180 bottom-right, 90 bottom-left.
var DisplayOrder = []struct {
	Quadrant Quadrant
	Degrees  int
}{
	{QuadrantTopLeft, 0},
	{QuadrantTopRight, 270},
	{QuadrantBottomRight, 180},
	{QuadrantBottomLeft, 90},
}

// DisplayLayout maps every quadrant to the rotated board it shows.
func DisplayLayout(b Board) map[Quadrant]Board {
	rot := Orientations(b)
	out := make(map[Quadrant]Board, len(DisplayOrder))
	for _, slot := range DisplayOrder {
		out[slot.Quadrant] = rot[slot.Degrees/90]
	}
	return out
}
