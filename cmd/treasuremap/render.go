package main

import (
	"fmt"
	"io"
	"strings"

	"treasuremap/pkg/domain"
)

const cellWidth = 11

// cell renders a tile as "<type> <marks>" where marks are $ treasure,
// * star, ! bulb and the border initial.
func cell(t domain.Tile) string {
	var marks strings.Builder
	if t.Treasure {
		marks.WriteByte('$')
	}
	if t.Star {
		marks.WriteByte('*')
	}
	if t.Bulb {
		marks.WriteByte('!')
	}
	if t.Border != "" && t.Border != domain.BorderNone {
		marks.WriteString(strings.ToUpper(string(t.Border[:1])))
	}
	label := string(t.Type)
	if t.Type == domain.TileBlank {
		label = "."
	}
	s := label
	if marks.Len() > 0 {
		s += " " + marks.String()
	}
	if len(s) > cellWidth {
		s = s[:cellWidth]
	}
	return fmt.Sprintf("%-*s", cellWidth, s)
}

func boardRows(b domain.Board) []string {
	rows := make([]string, domain.BoardSize)
	for i := 0; i < domain.BoardSize; i++ {
		var sb strings.Builder
		for j := 0; j < domain.BoardSize; j++ {
			sb.WriteString(cell(b[i][j]))
		}
		rows[i] = strings.TrimRight(sb.String(), " ")
	}
	return rows
}

func renderBoard(w io.Writer, b domain.Board) error {
	for _, row := range boardRows(b) {
		if _, err := fmt.Fprintln(w, row); err != nil {
			return err
		}
	}
	return nil
}

// renderFourUp prints the display quadrants two by two in reading order.
func renderFourUp(w io.Writer, layout map[domain.Quadrant]domain.Board) error {
	degrees := make(map[domain.Quadrant]int, len(domain.DisplayOrder))
	for _, slot := range domain.DisplayOrder {
		degrees[slot.Quadrant] = slot.Degrees
	}
	width := cellWidth * domain.BoardSize
	pairs := [][2]domain.Quadrant{
		{domain.QuadrantTopLeft, domain.QuadrantTopRight},
		{domain.QuadrantBottomLeft, domain.QuadrantBottomRight},
	}
	for i, pair := range pairs {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		left, right := boardRows(layout[pair[0]]), boardRows(layout[pair[1]])
		if _, err := fmt.Fprintf(w, "%-*s   %d°\n", width, fmt.Sprintf("%d°", degrees[pair[0]]), degrees[pair[1]]); err != nil {
			return err
		}
		for r := 0; r < domain.BoardSize; r++ {
			if _, err := fmt.Fprintf(w, "%-*s   %s\n", width, left[r], right[r]); err != nil {
				return err
			}
		}
	}
	return nil
}
