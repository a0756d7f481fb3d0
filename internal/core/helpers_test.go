package core

import (
	"bytes"
	"context"
	"sync"
	"time"

	"treasuremap/internal/infra/persistence/memory"
	"treasuremap/pkg/domain"
)

// sampleBoard is asymmetric so all four rotations differ.
func sampleBoard() domain.Board {
	b := domain.NewBlankBoard()
	b = b.With(0, 0, domain.Tile{Type: domain.TileYahtzee, Treasure: true, Star: true, Border: domain.BorderGold})
	b = b.With(0, 1, domain.Tile{Type: domain.TileSix, Border: domain.BorderNone})
	b = b.With(2, 3, domain.Tile{Type: domain.TileFull, Treasure: true, Border: domain.BorderNone})
	return b
}

func sampleData(b domain.Board, counts domain.ChestCounts) domain.MapData {
	return domain.NewMapData(b, counts)
}

func stored(id string, sortOrder int, b domain.Board, counts domain.ChestCounts) domain.StoredMap {
	m := domain.StoredMap{ID: id, SortOrder: sortOrder, MapData: sampleData(b, counts)}
	m.SetCounts(counts)
	return m
}

func fixedClock() Clock {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return ClockFunc(func() time.Time { return ts })
}

// idSource yields ids drawn from the given 4-character strings in order.
func idSource(ids ...string) *bytes.Reader {
	var buf bytes.Buffer
	for _, id := range ids {
		for i := 0; i < len(id); i++ {
			buf.WriteByte(byte(bytes.IndexByte([]byte(idAlphabet), id[i])))
		}
	}
	return bytes.NewReader(buf.Bytes())
}

type observation struct {
	op      string
	success bool
}

type captureMetrics struct {
	mu  sync.Mutex
	obs []observation
}

func (c *captureMetrics) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.mu.Lock()
	c.obs = append(c.obs, observation{op: op, success: success})
	c.mu.Unlock()
}

func (c *captureMetrics) last() observation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.obs) == 0 {
		return observation{}
	}
	return c.obs[len(c.obs)-1]
}

type captureTracer struct {
	mu    sync.Mutex
	spans []string
	errs  []error
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	c.mu.Lock()
	c.spans = append(c.spans, op)
	c.mu.Unlock()
	return ctx, captureSpan{tracer: c}
}

type captureSpan struct{ tracer *captureTracer }

func (s captureSpan) End(err error) {
	s.tracer.mu.Lock()
	s.tracer.errs = append(s.tracer.errs, err)
	s.tracer.mu.Unlock()
}

// failingStore lets a test make single MapStore calls fail.
type failingStore struct {
	*memory.Store
	fetchErr  error
	maxErr    error
	existsErr error
	swapErr   error
}

func (f *failingStore) FetchBySignature(ctx context.Context, sig domain.ChestSignature, excludeID string) ([]domain.StoredMap, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.Store.FetchBySignature(ctx, sig, excludeID)
}

func (f *failingStore) MaxSortOrder(ctx context.Context, sig domain.ChestSignature) (int, bool, error) {
	if f.maxErr != nil {
		return 0, false, f.maxErr
	}
	return f.Store.MaxSortOrder(ctx, sig)
}

func (f *failingStore) Exists(ctx context.Context, id string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.Store.Exists(ctx, id)
}

func (f *failingStore) SwapSortOrder(ctx context.Context, a, b string) error {
	if f.swapErr != nil {
		return f.swapErr
	}
	return f.Store.SwapSortOrder(ctx, a, b)
}
