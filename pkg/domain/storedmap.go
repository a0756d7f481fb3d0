package domain

import "time"

// WireTile is the stored and exchanged form of a tile. Field names are part
// of the document format and must not change.
type WireTile struct {
	Type        string `json:"type"`
	HasTreasure bool   `json:"hasTreasure"`
	HasStar     bool   `json:"hasStar"`
	HasBulb     bool   `json:"hasBulb"`
	Border      string `json:"border"`
}

// MapData is the board payload embedded in stored documents and exports.
type MapData struct {
	IsAlmostCopy bool       `json:"isAlmostCopy"`
	NumberOf     int        `json:"numberOf"`
	OutOf        int        `json:"outOf"`
	Small        int        `json:"sm"`
	Medium       int        `json:"md"`
	Large        int        `json:"lg"`
	ExtraLarge   int        `json:"xl"`
	Tiles        []WireTile `json:"tiles"`
}

// Counts returns the chest counts carried by the payload.
func (m MapData) Counts() ChestCounts {
	return ChestCounts{Small: m.Small, Medium: m.Medium, Large: m.Large, ExtraLarge: m.ExtraLarge}
}

// Signature derives the chest signature of the payload.
func (m MapData) Signature() ChestSignature {
	return m.Counts().Signature()
}

// Clone returns a deep copy.
func (m MapData) Clone() MapData {
	cp := m
	cp.Tiles = append([]WireTile(nil), m.Tiles...)
	return cp
}

// NewMapData assembles a payload from a board and its metadata.
func NewMapData(b Board, counts ChestCounts) MapData {
	return MapData{
		Small:      counts.Small,
		Medium:     counts.Medium,
		Large:      counts.Large,
		ExtraLarge: counts.ExtraLarge,
		Tiles:      EncodeBoard(b),
	}
}

// StoredMap is one persisted map document.
type StoredMap struct {
	ID             string         `json:"id"`
	SortOrder      int            `json:"sortOrder"`
	CountSm        int            `json:"countSm"`
	CountMd        int            `json:"countMd"`
	CountLg        int            `json:"countLg"`
	CountXl        int            `json:"countXl"`
	ChestSignature ChestSignature `json:"chestSignature"`
	NotesHTML      string         `json:"notesHtml"`
	MapData        MapData        `json:"mapData"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Counts returns the chest counts recorded on the document.
func (m StoredMap) Counts() ChestCounts {
	return ChestCounts{Small: m.CountSm, Medium: m.CountMd, Large: m.CountLg, ExtraLarge: m.CountXl}
}

// SetCounts records counts and the signature derived from them.
func (m *StoredMap) SetCounts(c ChestCounts) {
	m.CountSm = c.Small
	m.CountMd = c.Medium
	m.CountLg = c.Large
	m.CountXl = c.ExtraLarge
	m.ChestSignature = c.Signature()
}

// Clone returns a deep copy.
func (m StoredMap) Clone() StoredMap {
	cp := m
	cp.MapData = m.MapData.Clone()
	return cp
}
