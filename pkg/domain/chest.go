package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ChestSignature groups maps by chest counts, e.g. "2.1.0.0". It is a string
// key, not a number: "2.10.0.0" and "2.1.0.0" are unrelated groups.
type ChestSignature string

// ChestCounts holds the number of chests of each size on a map.
type ChestCounts struct {
	Small      int `json:"sm"`
	Medium     int `json:"md"`
	Large      int `json:"lg"`
	ExtraLarge int `json:"xl"`
}

// ChestRange bounds one chest count.
type ChestRange struct {
	Min int
	Max int
}

// Limits are the selectable chest counts per size.
var Limits = struct {
	Small, Medium, Large, ExtraLarge ChestRange
}{
	Small:      ChestRange{Min: 0, Max: 11},
	Medium:     ChestRange{Min: 0, Max: 4},
	Large:      ChestRange{Min: 0, Max: 4},
	ExtraLarge: ChestRange{Min: 0, Max: 4},
}

// Signature joins the four counts with ".".
func (c ChestCounts) Signature() ChestSignature {
	return ChestSignature(fmt.Sprintf("%d.%d.%d.%d", c.Small, c.Medium, c.Large, c.ExtraLarge))
}

// Total returns the number of chests of any size.
func (c ChestCounts) Total() int {
	return c.Small + c.Medium + c.Large + c.ExtraLarge
}

// ParseSignature splits a signature back into counts. Empty parts count as
// zero, matching a search form where unselected sizes mean "none".
func ParseSignature(s string) (ChestCounts, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 4 {
		return ChestCounts{}, ValidationError{Field: "chestSignature", Message: fmt.Sprintf("signature %q must have four parts", s)}
	}
	var vals [4]int
	for i, p := range parts {
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return ChestCounts{}, ValidationError{Field: "chestSignature", Message: fmt.Sprintf("signature %q has invalid count %q", s, p)}
		}
		vals[i] = n
	}
	return ChestCounts{Small: vals[0], Medium: vals[1], Large: vals[2], ExtraLarge: vals[3]}, nil
}

func (s ChestSignature) String() string { return string(s) }
