package domain

import "strings"

// canonicalSeparator joins both cells and rows. A row boundary is therefore
// indistinguishable from a cell boundary; the string is only ever compared
// whole and must not be decoded cell by cell.
const canonicalSeparator = ";"

// Canonicalize renders the board as a comparable string: every cell as
// "<type>,<t|f>" in row-major order, joined by ";". Two boards are the same
// puzzle iff their canonical strings are equal.
func Canonicalize(b Board) string {
	var sb strings.Builder
	sb.Grow(TileCount * 10)
	for i := range b {
		for j := range b[i] {
			if i > 0 || j > 0 {
				sb.WriteString(canonicalSeparator)
			}
			sb.WriteString(b[i][j].Fingerprint())
		}
	}
	return sb.String()
}

// RotationFingerprints returns the distinct canonical strings of the four
// orientations in rotation order (0, 90, 180, 270). Symmetric boards yield
// fewer than four entries.
func RotationFingerprints(b Board) []string {
	seen := make(map[string]struct{}, 4)
	out := make([]string, 0, 4)
	for _, r := range Orientations(b) {
		s := Canonicalize(r)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
