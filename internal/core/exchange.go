package core

import (
	"encoding/json"
	"fmt"
	"time"

	"treasuremap/pkg/domain"
)

// ExportVersion tags the current exchange envelope.
const ExportVersion = "2.0"

// ExportEnvelope is the text interchange format for a single map.
type ExportEnvelope struct {
	Version    string         `json:"version"`
	ExportDate string         `json:"exportDate"`
	BoardData  domain.MapData `json:"boardData"`
	NotesHTML  string         `json:"notesHtml"`
}

// Export wraps a payload and its notes in the versioned envelope and renders
// it as indented JSON.
func Export(data domain.MapData, notesHTML string, now time.Time) ([]byte, error) {
	env := ExportEnvelope{
		Version:    ExportVersion,
		ExportDate: now.UTC().Format(time.RFC3339Nano),
		BoardData:  data.Clone(),
		NotesHTML:  notesHTML,
	}
	return json.MarshalIndent(env, "", "  ")
}

// importHead decodes either accepted shape: the envelope, or the bare
// payload written by older versions (tiles and chest counts, no notes).
type importHead struct {
	Version   string          `json:"version"`
	BoardData *domain.MapData `json:"boardData"`
	NotesHTML string          `json:"notesHtml"`
	domain.MapData
}

// Import parses exchange text. The versioned envelope and the legacy raw
// payload are both accepted; the result always has TileCount tiles.
func Import(raw []byte) (domain.MapData, string, error) {
	var head importHead
	if err := json.Unmarshal(raw, &head); err != nil {
		return domain.MapData{}, "", domain.ValidationError{Message: fmt.Sprintf("invalid board data: %v", err)}
	}
	var (
		data  domain.MapData
		notes string
	)
	switch {
	case head.Version != "" && head.BoardData != nil:
		data = *head.BoardData
		notes = head.NotesHTML
	case len(head.Tiles) > 0:
		data = head.MapData
	default:
		return domain.MapData{}, "", domain.ValidationError{Message: "invalid board data format: not a recognized export or raw board object"}
	}
	if len(data.Tiles) != domain.TileCount {
		return domain.MapData{}, "", domain.ValidationError{Field: "tiles", Message: fmt.Sprintf("expected %d tiles, got %d", domain.TileCount, len(data.Tiles))}
	}
	return data, notes, nil
}
