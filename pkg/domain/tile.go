// Package domain defines the treasure map board model shared by every layer:
// tiles, the 5x5 board and its rotations, the canonical fingerprint used for
// duplicate detection, chest signatures and the stored document shapes.
package domain

import (
	"fmt"
	"strings"
)

// TileType identifies the scoring category printed on a tile.
type TileType string

// Tile categories. Blank is the neutral tile; the rest score.
const (
	TileBlank   TileType = "blank"
	TileOne     TileType = "one"
	TileTwo     TileType = "two"
	TileThree   TileType = "three"
	TileFour    TileType = "four"
	TileFive    TileType = "five"
	TileSix     TileType = "six"
	TileThreeX  TileType = "threex"
	TileFourX   TileType = "fourx"
	TileYahtzee TileType = "yahtzee"
	TileChance  TileType = "chance"
	TilePair    TileType = "pair"
	TileOdds    TileType = "odds"
	TileEvens   TileType = "evens"
	TileFull    TileType = "full"
	TileSmall   TileType = "sm"
	TileLarge   TileType = "lg"
)

var tileTypes = []TileType{
	TileBlank, TileOne, TileTwo, TileThree, TileFour, TileFive, TileSix,
	TileThreeX, TileFourX, TileYahtzee, TileChance, TilePair, TileOdds,
	TileEvens, TileFull, TileSmall, TileLarge,
}

var tileLabels = map[TileType]string{
	TileBlank:   "Blank",
	TileOne:     "1",
	TileTwo:     "2",
	TileThree:   "3",
	TileFour:    "4",
	TileFive:    "5",
	TileSix:     "6",
	TileThreeX:  "3x",
	TileFourX:   "4x",
	TileYahtzee: "Yahtzee",
	TileChance:  "?",
	TilePair:    "2 Pair",
	TileOdds:    "Odds",
	TileEvens:   "Evens",
	TileFull:    "Full House",
	TileSmall:   "Sm Straight",
	TileLarge:   "Lg Straight",
}

// TileTypes returns every tile category in menu order.
func TileTypes() []TileType {
	return append([]TileType(nil), tileTypes...)
}

// Valid reports whether t is one of the known categories.
func (t TileType) Valid() bool {
	_, ok := tileLabels[t]
	return ok
}

// Label returns the human readable caption for the category.
func (t TileType) Label() string {
	if l, ok := tileLabels[t]; ok {
		return l
	}
	return string(t)
}

// Border is the frame colour drawn around a treasure tile. The in-memory
// form is lowercase; documents store it capitalised (see Wire).
type Border string

// Border colours.
const (
	BorderNone   Border = "none"
	BorderBlack  Border = "black"
	BorderBrown  Border = "brown"
	BorderSilver Border = "silver"
	BorderPurple Border = "purple"
	BorderGold   Border = "gold"
)

var borders = []Border{BorderNone, BorderBlack, BorderBrown, BorderSilver, BorderPurple, BorderGold}

// wireBorderNone is the stored spelling of BorderNone.
const wireBorderNone = "NONE"

// Borders returns every border colour in menu order.
func Borders() []Border {
	return append([]Border(nil), borders...)
}

// Valid reports whether b is one of the known colours.
func (b Border) Valid() bool {
	for _, known := range borders {
		if b == known {
			return true
		}
	}
	return false
}

// Wire returns the stored spelling: "NONE" or the capitalised colour.
func (b Border) Wire() string {
	if b == "" || b == BorderNone {
		return wireBorderNone
	}
	s := strings.ToLower(string(b))
	return strings.ToUpper(s[:1]) + s[1:]
}

// normalizeWireBorder maps any stored spelling to the in-memory form without
// checking it against the known colours.
func normalizeWireBorder(s string) Border {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, wireBorderNone) {
		return BorderNone
	}
	return Border(strings.ToLower(s))
}

// ParseWireBorder converts a stored border value to its in-memory form.
func ParseWireBorder(s string) (Border, error) {
	b := normalizeWireBorder(s)
	if !b.Valid() {
		return BorderNone, fmt.Errorf("unknown border %q", s)
	}
	return b, nil
}

// Tile is one board cell. It is a plain value: copying a Tile copies all of
// its state, and == compares every field.
type Tile struct {
	Type     TileType
	Treasure bool
	Star     bool
	Bulb     bool
	Border   Border
}

// BlankTile returns the neutral tile.
func BlankTile() Tile {
	return Tile{Type: TileBlank, Border: BorderNone}
}

// Fingerprint renders the fields that take part in duplicate detection.
// Star, bulb and border are cosmetic and deliberately left out.
func (t Tile) Fingerprint() string {
	typ := t.Type
	if typ == "" {
		typ = TileBlank
	}
	flag := "f"
	if t.Treasure {
		flag = "t"
	}
	return string(typ) + "," + flag
}

// HasExtras reports whether the tile carries a star, bulb or border.
func (t Tile) HasExtras() bool {
	return t.Star || t.Bulb || (t.Border != "" && t.Border != BorderNone)
}

// MarkerViolation describes why the tile breaks the marker rule, or returns
// "" when it is fine. Blank tiles carry no extras, and extras need treasure.
func (t Tile) MarkerViolation() string {
	if !t.HasExtras() {
		return ""
	}
	if t.Type == TileBlank || t.Type == "" {
		return "Cannot have stars, bulbs, or borders on a 'blank' tile."
	}
	if !t.Treasure {
		return "Stars, bulbs, or borders are only allowed on tiles with treasure."
	}
	return ""
}
