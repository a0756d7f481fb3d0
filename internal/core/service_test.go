package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"treasuremap/internal/blob"
	"treasuremap/internal/infra/persistence/memory"
	"treasuremap/pkg/domain"
)

func newTestService(t *testing.T, store domain.MapStore, opts ...ServiceOption) (*Service, *captureMetrics, *captureTracer) {
	t.Helper()
	metrics := &captureMetrics{}
	tracer := &captureTracer{}
	base := []ServiceOption{WithClock(fixedClock()), WithMetrics(metrics), WithTracer(tracer)}
	return NewService(store, append(base, opts...)...), metrics, tracer
}

func TestServiceSaveNewAssignsIDAndSortOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc, metrics, tracer := newTestService(t, store, WithIDSource(idSource("Aaaa", "Bbbb")))
	counts := domain.ChestCounts{Small: 2, Medium: 1}

	first, err := svc.SaveNew(ctx, sampleData(sampleBoard(), counts), "<p>one</p>")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first.ID != "Aaaa" || first.SortOrder != 100 || first.ChestSignature != "2.1.0.0" || first.CountSm != 2 {
		t.Fatalf("unexpected saved map %+v", first)
	}
	if !first.CreatedAt.Equal(fixedClock().Now()) {
		t.Fatalf("clock not applied: %v", first.CreatedAt)
	}
	if got := metrics.last(); got.op != "save_new" || !got.success {
		t.Fatalf("unexpected metrics %+v", got)
	}
	if len(tracer.spans) != 1 || tracer.spans[0] != "save_new" {
		t.Fatalf("unexpected spans %v", tracer.spans)
	}

	other := sampleBoard().With(4, 4, domain.Tile{Type: domain.TileTwo, Border: domain.BorderNone})
	second, err := svc.SaveNew(ctx, sampleData(other, counts), "")
	if err != nil {
		t.Fatalf("save second: %v", err)
	}
	if second.ID != "Bbbb" || second.SortOrder != 200 {
		t.Fatalf("unexpected second map %+v", second)
	}
}

func TestServiceSaveNewRejectsRotatedDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, metrics, _ := newTestService(t, memory.NewStore())
	counts := domain.ChestCounts{Large: 1}
	first, err := svc.SaveNew(ctx, sampleData(sampleBoard(), counts), "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	_, err = svc.SaveNew(ctx, sampleData(domain.Rotate180(sampleBoard()), counts), "")
	var dup domain.DuplicateError
	if !errors.As(err, &dup) || dup.MatchedID != first.ID {
		t.Fatalf("expected duplicate of %s, got %v", first.ID, err)
	}
	if got := metrics.last(); got.op != "save_new" || got.success {
		t.Fatalf("failure not recorded: %+v", got)
	}
}

func TestServiceSaveNewBlocksRuleViolations(t *testing.T) {
	svc, _, _ := newTestService(t, memory.NewStore())
	bad := domain.NewBlankBoard().With(0, 0, domain.Tile{Type: domain.TileBlank, Star: true, Border: domain.BorderNone})
	_, err := svc.SaveNew(context.Background(), sampleData(bad, domain.ChestCounts{}), "")
	var rv domain.RuleViolationError
	if !errors.As(err, &rv) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if !strings.Contains(err.Error(), "Tile 1:") {
		t.Fatalf("message should name the tile: %v", err)
	}
}

func TestServiceSaveNewNormalizesTiles(t *testing.T) {
	svc, _, _ := newTestService(t, memory.NewStore())
	data := sampleData(sampleBoard(), domain.ChestCounts{})
	data.Tiles[24].Type = "mystery"
	data.Tiles[24].Border = "none"
	saved, err := svc.SaveNew(context.Background(), data, "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.MapData.Tiles[24].Type != "blank" || saved.MapData.Tiles[24].Border != "NONE" {
		t.Fatalf("tile not normalized: %+v", saved.MapData.Tiles[24])
	}
}

func TestServiceSaveNewStoreErrors(t *testing.T) {
	ctx := context.Background()
	data := sampleData(sampleBoard(), domain.ChestCounts{})

	store := &failingStore{Store: memory.NewStore(), fetchErr: errors.New("fetch down")}
	svc, _, _ := newTestService(t, store)
	if _, err := svc.SaveNew(ctx, data, ""); !errors.As(err, new(domain.StoreError)) {
		t.Fatalf("expected StoreError from duplicate check, got %v", err)
	}
	if maps, _ := store.Store.FetchAll(ctx); len(maps) != 0 {
		t.Fatalf("nothing should be written after a failed check")
	}

	store = &failingStore{Store: memory.NewStore(), maxErr: errors.New("max down")}
	svc, _, _ = newTestService(t, store)
	if _, err := svc.SaveNew(ctx, data, ""); err == nil || !strings.Contains(err.Error(), "max down") {
		t.Fatalf("expected max sort order failure, got %v", err)
	}

	store = &failingStore{Store: memory.NewStore()}
	svc, _, _ = newTestService(t, store, WithIDSource(idSource("Aaaa", "Aaaa", "Aaaa", "Aaaa", "Aaaa", "Aaaa")))
	if err := store.Insert(ctx, stored("Aaaa", 100, domain.NewBlankBoard(), domain.ChestCounts{Small: 9})); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.SaveNew(ctx, data, ""); !errors.As(err, new(domain.ExhaustedRetriesError)) {
		t.Fatalf("expected exhausted retries, got %v", err)
	}
}

func TestServiceUpdateKeepsOrMovesGroup(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc, _, _ := newTestService(t, store, WithIDSource(idSource("Aaaa", "Bbbb", "Cccc")))
	counts := domain.ChestCounts{Small: 1}
	a, err := svc.SaveNew(ctx, sampleData(sampleBoard(), counts), "a")
	if err != nil {
		t.Fatalf("save a: %v", err)
	}
	target := domain.ChestCounts{Small: 2}
	other := domain.NewBlankBoard().With(1, 1, domain.Tile{Type: domain.TileOdds, Border: domain.BorderNone})
	if _, err := svc.SaveNew(ctx, sampleData(other, target), "b"); err != nil {
		t.Fatalf("save b: %v", err)
	}

	same, err := svc.Update(ctx, a.ID, sampleData(sampleBoard().With(3, 3, domain.Tile{Type: domain.TileOne, Border: domain.BorderNone}), counts), "edited")
	if err != nil {
		t.Fatalf("update in place: %v", err)
	}
	if same.SortOrder != a.SortOrder || same.NotesHTML != "edited" || same.ChestSignature != a.ChestSignature {
		t.Fatalf("in-place update changed group state: %+v", same)
	}

	moved, err := svc.Update(ctx, a.ID, sampleData(sampleBoard(), target), "moved")
	if err != nil {
		t.Fatalf("update moving group: %v", err)
	}
	if moved.ChestSignature != "2.0.0.0" || moved.SortOrder != 200 || moved.CountSm != 2 {
		t.Fatalf("group move not applied: %+v", moved)
	}
}

func TestServiceUpdateExcludesSelfButRejectsOthers(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, memory.NewStore(), WithIDSource(idSource("Aaaa", "Bbbb")))
	counts := domain.ChestCounts{}
	a, err := svc.SaveNew(ctx, sampleData(sampleBoard(), counts), "")
	if err != nil {
		t.Fatalf("save a: %v", err)
	}
	if _, err := svc.Update(ctx, a.ID, sampleData(domain.RotateClockwise90(sampleBoard()), counts), ""); err != nil {
		t.Fatalf("rotating own board should not be a duplicate: %v", err)
	}
	other := domain.NewBlankBoard()
	b, err := svc.SaveNew(ctx, sampleData(other, counts), "")
	if err != nil {
		t.Fatalf("save b: %v", err)
	}
	_, err = svc.Update(ctx, b.ID, sampleData(sampleBoard(), counts), "")
	var dup domain.DuplicateError
	if !errors.As(err, &dup) || dup.MatchedID != a.ID {
		t.Fatalf("expected duplicate of %s, got %v", a.ID, err)
	}
}

func TestServiceGetSearchListDelete(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, memory.NewStore(), WithIDSource(idSource("Aaaa")))
	counts := domain.ChestCounts{Medium: 2}
	saved, err := svc.SaveNew(ctx, sampleData(sampleBoard(), counts), "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := svc.Get(ctx, "Aaa"); !errors.As(err, new(domain.ValidationError)) {
		t.Fatalf("short id should be rejected, got %v", err)
	}
	if _, err := svc.Get(ctx, "Zzzz"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	got, err := svc.Get(ctx, saved.ID)
	if err != nil || got.ID != saved.ID {
		t.Fatalf("get: %+v %v", got, err)
	}
	found, err := svc.Search(ctx, counts)
	if err != nil || len(found) != 1 {
		t.Fatalf("search: %v %v", found, err)
	}
	if none, _ := svc.Search(ctx, domain.ChestCounts{Medium: 20}); len(none) != 0 {
		t.Fatalf("unrelated signature matched")
	}
	all, err := svc.ListAll(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("list: %v %v", all, err)
	}
	if err := svc.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, saved.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestServiceRotationsAndReorder(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, memory.NewStore(), WithIDSource(idSource("Aaaa", "Bbbb")))
	counts := domain.ChestCounts{ExtraLarge: 1}
	a, err := svc.SaveNew(ctx, sampleData(sampleBoard(), counts), "")
	if err != nil {
		t.Fatalf("save a: %v", err)
	}
	b, err := svc.SaveNew(ctx, sampleData(domain.NewBlankBoard(), counts), "")
	if err != nil {
		t.Fatalf("save b: %v", err)
	}

	m, layout, err := svc.Rotations(ctx, a.ID)
	if err != nil || m.ID != a.ID {
		t.Fatalf("rotations: %v", err)
	}
	if layout[domain.QuadrantTopRight] != domain.Orientations(sampleBoard())[3] {
		t.Fatalf("top-right should show the 270 degree rotation")
	}

	moved, err := svc.Reorder(ctx, b.ID, domain.DirectionUp)
	if err != nil || !moved {
		t.Fatalf("reorder: %v %v", moved, err)
	}
	found, _ := svc.Search(ctx, counts)
	if found[0].ID != b.ID {
		t.Fatalf("reorder not applied: %v", found)
	}
}

func TestServiceCheckDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, memory.NewStore())
	saved, err := svc.SaveNew(ctx, sampleData(sampleBoard(), domain.ChestCounts{}), "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	rotated := sampleData(domain.RotateClockwise90(sampleBoard()), domain.ChestCounts{})
	if err := svc.CheckDuplicate(ctx, rotated, ""); !errors.As(err, new(domain.DuplicateError)) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if err := svc.CheckDuplicate(ctx, rotated, saved.ID); err != nil {
		t.Fatalf("excluded map reported: %v", err)
	}
}

func TestServiceCheckDuplicateKeepsAmbiguousSignaturesApart(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, memory.NewStore())
	short := domain.ChestCounts{Small: 2, Medium: 1}
	long := domain.ChestCounts{Small: 2, Medium: 10}
	if short.Signature() != "2.1.0.0" || long.Signature() != "2.10.0.0" {
		t.Fatalf("unexpected signatures %s %s", short.Signature(), long.Signature())
	}
	if _, err := svc.SaveNew(ctx, sampleData(sampleBoard(), short), ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := svc.CheckDuplicate(ctx, sampleData(sampleBoard(), long), ""); err != nil {
		t.Fatalf("board under 2.10.0.0 matched the 2.1.0.0 map: %v", err)
	}
	if err := svc.CheckDuplicate(ctx, sampleData(sampleBoard(), short), ""); !errors.As(err, new(domain.DuplicateError)) {
		t.Fatalf("expected duplicate under 2.1.0.0, got %v", err)
	}
}

func TestServiceArchiveFlow(t *testing.T) {
	ctx := context.Background()
	archive := blob.NewMemory()
	svc, _, _ := newTestService(t, memory.NewStore(), WithArchive(archive), WithIDSource(idSource("Aaaa", "Bbbb")))
	counts := domain.ChestCounts{Small: 3}
	saved, err := svc.SaveNew(ctx, sampleData(sampleBoard(), counts), "<b>x</b>")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := svc.ArchiveExport(ctx, saved.ID)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if info.Key != "exports/Aaaa/20240501T120000.000000000Z.json" || info.Metadata["chest-signature"] != "3.0.0.0" {
		t.Fatalf("unexpected archive info %+v", info)
	}
	if _, err := svc.ArchiveExport(ctx, saved.ID); !errors.Is(err, blob.ErrExists) {
		t.Fatalf("same instant should collide, got %v", err)
	}

	listed, err := svc.ListArchives(ctx, saved.ID)
	if err != nil || len(listed) != 1 {
		t.Fatalf("list archives: %v %v", listed, err)
	}
	if none, _ := svc.ListArchives(ctx, "Zzzz"); len(none) != 0 {
		t.Fatalf("foreign map archives listed")
	}

	data, notes, err := svc.ImportArchive(ctx, info.Key)
	if err != nil || notes != "<b>x</b>" || data.Signature() != "3.0.0.0" {
		t.Fatalf("import archive: %+v %q %v", data, notes, err)
	}
	if _, _, err := svc.ImportArchive(ctx, "exports/missing.json"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := svc.ShareURL(ctx, info.Key, 0); !errors.Is(err, blob.ErrUnsupported) {
		t.Fatalf("memory archive cannot share, got %v", err)
	}
	if _, err := svc.ShareURL(ctx, "exports/missing.json", 0); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("share of missing key: %v", err)
	}
}

func TestServiceArchiveRequiresStore(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, memory.NewStore())
	if svc.Archive() != nil {
		t.Fatalf("no archive expected")
	}
	if _, err := svc.ArchiveExport(ctx, "Aaaa"); !errors.Is(err, ErrNoArchive) {
		t.Fatalf("archive: %v", err)
	}
	if _, err := svc.ListArchives(ctx, ""); !errors.Is(err, ErrNoArchive) {
		t.Fatalf("list: %v", err)
	}
	if _, _, err := svc.ImportArchive(ctx, "k"); !errors.Is(err, ErrNoArchive) {
		t.Fatalf("import: %v", err)
	}
	if _, err := svc.ShareURL(ctx, "k", 0); !errors.Is(err, ErrNoArchive) {
		t.Fatalf("share: %v", err)
	}
}

func TestServiceExportMap(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, memory.NewStore())
	saved, err := svc.SaveNew(ctx, sampleData(sampleBoard(), domain.ChestCounts{}), "notes")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	doc, err := svc.ExportMap(ctx, saved.ID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	data, notes, err := Import(doc)
	if err != nil || notes != "notes" || len(data.Tiles) != domain.TileCount {
		t.Fatalf("export not importable: %v", err)
	}
}
