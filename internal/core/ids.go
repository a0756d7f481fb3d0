package core

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"

	"treasuremap/pkg/domain"
)

const (
	// MapIDLength is the number of characters in a generated map id.
	MapIDLength = 4
	// MaxIDAttempts bounds the collision retries of GenerateUniqueID.
	MaxIDAttempts = 5

	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// ExistsFunc reports whether a map id is already taken.
type ExistsFunc func(ctx context.Context, id string) (bool, error)

// IDGenerator produces short random map ids.
type IDGenerator struct {
	rand   io.Reader
	logger *slog.Logger
}

// NewIDGenerator returns a generator reading from r, or crypto/rand when r
// is nil.
func NewIDGenerator(r io.Reader, logger *slog.Logger) *IDGenerator {
	if r == nil {
		r = rand.Reader
	}
	if logger == nil {
		logger = discardLogger
	}
	return &IDGenerator{rand: r, logger: logger}
}

// Candidate draws one id from the 62-symbol alphabet.
func (g *IDGenerator) Candidate() (string, error) {
	out := make([]byte, MapIDLength)
	buf := make([]byte, 1)
	for i := 0; i < MapIDLength; {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", err
		}
		// 248 = 4*62: reject the tail to keep the draw uniform.
		if buf[0] >= 248 {
			continue
		}
		out[i] = idAlphabet[int(buf[0])%len(idAlphabet)]
		i++
	}
	return string(out), nil
}

// Unique draws ids until exists reports a free one, giving up after
// MaxIDAttempts with ExhaustedRetriesError. An exists failure is returned
// as a StoreError immediately.
func (g *IDGenerator) Unique(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 1; attempt <= MaxIDAttempts; attempt++ {
		id, err := g.Candidate()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, id)
		if err != nil {
			return "", domain.WrapStore("exists", err)
		}
		if !taken {
			return id, nil
		}
		g.logger.Warn("map id collision, retrying", "id", id, "attempt", attempt)
	}
	return "", domain.ExhaustedRetriesError{Attempts: MaxIDAttempts}
}

// GenerateUniqueID draws a free 4-character id using crypto/rand.
func GenerateUniqueID(ctx context.Context, exists ExistsFunc) (string, error) {
	return NewIDGenerator(nil, nil).Unique(ctx, exists)
}

// ValidMapID reports whether id looks like a generated map id.
func ValidMapID(id string) bool {
	if len(id) != MapIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
