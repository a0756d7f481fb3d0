package domain

import (
	"errors"
	"testing"
)

func TestChestSignatureIsStringKey(t *testing.T) {
	a := ChestCounts{Small: 2, Medium: 1}.Signature()
	b := ChestCounts{Small: 2, Medium: 10}.Signature()
	if a != "2.1.0.0" || b != "2.10.0.0" {
		t.Fatalf("unexpected signatures %q %q", a, b)
	}
	if a == b {
		t.Fatalf("distinct counts must not share a signature")
	}
}

func TestParseSignature(t *testing.T) {
	c, err := ParseSignature("3.0.2.1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c != (ChestCounts{Small: 3, Large: 2, ExtraLarge: 1}) || c.Total() != 6 {
		t.Fatalf("unexpected counts %+v", c)
	}
	if c, err := ParseSignature("1...2"); err != nil || c.Signature() != "1.0.0.2" {
		t.Fatalf("empty parts should be zero: %+v %v", c, err)
	}
	for _, bad := range []string{"1.2.3", "a.0.0.0", "-1.0.0.0"} {
		_, err := ParseSignature(bad)
		var ve ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%q: expected ValidationError, got %v", bad, err)
		}
	}
}

func TestStoredMapSetCountsAndClone(t *testing.T) {
	var m StoredMap
	m.SetCounts(ChestCounts{Small: 1, ExtraLarge: 4})
	if m.ChestSignature != "1.0.0.4" || m.Counts().ExtraLarge != 4 {
		t.Fatalf("unexpected counts %+v", m)
	}
	m.MapData = NewMapData(NewBlankBoard(), m.Counts())
	cp := m.Clone()
	cp.MapData.Tiles[0].Type = string(TileSix)
	if m.MapData.Tiles[0].Type != string(TileBlank) {
		t.Fatalf("clone shares tiles with the original")
	}
	if m.MapData.Signature() != m.ChestSignature {
		t.Fatalf("payload signature %q differs from document %q", m.MapData.Signature(), m.ChestSignature)
	}
}
