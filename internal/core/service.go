package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"treasuremap/internal/blob"
	"treasuremap/pkg/domain"
)

// maxArchiveBytes caps how much of an archived export is read back.
const maxArchiveBytes = 1 << 20

// ErrNoArchive is returned by archive operations when the service was built
// without an archive store.
var ErrNoArchive = errors.New("no archive store configured")

// Clock supplies timestamps for stored documents.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now returns the function's result.
func (f ClockFunc) Now() time.Time { return f() }

// ServiceOption customises a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	clock    Clock
	logger   *slog.Logger
	metrics  MetricsRecorder
	tracer   Tracer
	engine   *RulesEngine
	idSource io.Reader
	archive  blob.Store
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		clock:   ClockFunc(func() time.Time { return time.Now().UTC() }),
		logger:  discardLogger,
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		engine:  NewDefaultRulesEngine(),
	}
}

// WithClock overrides the timestamp source.
func WithClock(c Clock) ServiceOption {
	return func(o *serviceOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger routes service logs to l.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records the outcome of every operation.
func WithMetrics(m MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTracer wraps every operation in a span.
func WithTracer(t Tracer) ServiceOption {
	return func(o *serviceOptions) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithRulesEngine replaces the default rule set.
func WithRulesEngine(e *RulesEngine) ServiceOption {
	return func(o *serviceOptions) {
		if e != nil {
			o.engine = e
		}
	}
}

// WithIDSource sets the random source used for map ids.
func WithIDSource(r io.Reader) ServiceOption {
	return func(o *serviceOptions) { o.idSource = r }
}

// WithArchive enables the archive operations against store.
func WithArchive(store blob.Store) ServiceOption {
	return func(o *serviceOptions) { o.archive = store }
}

// Service runs the save, edit, search and reorder flows against a MapStore.
type Service struct {
	store   domain.MapStore
	engine  *RulesEngine
	ids     *IDGenerator
	clock   Clock
	logger  *slog.Logger
	metrics MetricsRecorder
	tracer  Tracer
	archive blob.Store
}

// NewService constructs a service backed by store.
func NewService(store domain.MapStore, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		store:   store,
		engine:  o.engine,
		ids:     NewIDGenerator(o.idSource, o.logger),
		clock:   o.clock,
		logger:  o.logger,
		metrics: o.metrics,
		tracer:  o.tracer,
		archive: o.archive,
	}
}

// Store returns the underlying map store.
func (s *Service) Store() domain.MapStore { return s.store }

// Archive returns the archive store, nil when none is configured.
func (s *Service) Archive() blob.Store { return s.archive }

func (s *Service) observe(ctx context.Context, op string, fn func(context.Context) error) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	err := fn(ctx)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	if err != nil {
		s.logger.Debug("operation failed", "op", op, "err", err)
	}
	return err
}

// prepare decodes and vets a payload before it is written.
func (s *Service) prepare(ctx context.Context, id string, data domain.MapData) (domain.Board, error) {
	board, warnings, err := domain.DecodeBoard(data)
	if err != nil {
		return domain.Board{}, err
	}
	s.logDecodeWarnings(id, warnings)
	res, err := s.engine.Evaluate(ctx, data, board)
	if err != nil {
		return domain.Board{}, fmt.Errorf("evaluate rules: %w", err)
	}
	if res.HasBlocking() {
		return domain.Board{}, domain.RuleViolationError{Result: res}
	}
	for _, v := range res.Violations {
		s.logger.Warn("rule violation", "rule", v.Rule, "severity", v.Severity, "message", v.Message)
	}
	return board, nil
}

func (s *Service) logDecodeWarnings(id string, warnings []domain.DecodeWarning) {
	for _, w := range warnings {
		s.logger.Warn("tile decoded with fallback", "id", id, "tile", w.Index, "field", w.Field, "value", w.Value, "reason", w.Reason)
	}
}

func (s *Service) fetchSignature(ctx context.Context, sig domain.ChestSignature) ([]domain.StoredMap, error) {
	return s.store.FetchBySignature(ctx, sig, "")
}

func (s *Service) duplicateCheck(ctx context.Context, board domain.Board, sig domain.ChestSignature, excludeID string) error {
	res, err := checkDuplicate(ctx, s.logger, board, sig, excludeID, s.fetchSignature)
	if err != nil {
		return err
	}
	if res.IsDuplicate {
		return domain.DuplicateError{MatchedID: res.MatchedID}
	}
	return nil
}

// SaveNew stores data as a new map. The duplicate check completes before the
// sort order and id are derived; those two run concurrently.
func (s *Service) SaveNew(ctx context.Context, data domain.MapData, notesHTML string) (domain.StoredMap, error) {
	var saved domain.StoredMap
	err := s.observe(ctx, "save_new", func(ctx context.Context) error {
		board, err := s.prepare(ctx, "", data)
		if err != nil {
			return err
		}
		sig := data.Signature()
		if err := s.duplicateCheck(ctx, board, sig, ""); err != nil {
			return err
		}

		var (
			sortOrder int
			id        string
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			sortOrder, err = NextSortOrder(gctx, sig, s.store.MaxSortOrder)
			return err
		})
		g.Go(func() error {
			var err error
			id, err = s.ids.Unique(gctx, s.store.Exists)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		now := s.clock.Now()
		m := domain.StoredMap{
			ID:        id,
			SortOrder: sortOrder,
			NotesHTML: notesHTML,
			MapData:   normalized(data, board),
			CreatedAt: now,
			UpdatedAt: now,
		}
		m.SetCounts(data.Counts())
		if err := s.store.Insert(ctx, m); err != nil {
			return domain.WrapStore("insert", err)
		}
		s.logger.Info("map saved", "id", id, "signature", sig, "sort_order", sortOrder)
		saved = m
		return nil
	})
	return saved, err
}

// Update replaces the board and notes of an existing map. When the chest
// signature changes the counts are rewritten and the map is appended to the
// end of its new group.
func (s *Service) Update(ctx context.Context, id string, data domain.MapData, notesHTML string) (domain.StoredMap, error) {
	var updated domain.StoredMap
	err := s.observe(ctx, "update", func(ctx context.Context) error {
		board, err := s.prepare(ctx, id, data)
		if err != nil {
			return err
		}
		sig := data.Signature()
		if err := s.duplicateCheck(ctx, board, sig, id); err != nil {
			return err
		}
		current, err := s.store.FetchByID(ctx, id)
		if err != nil {
			return domain.WrapStore("fetch by id", err)
		}
		sortOrder := current.SortOrder
		if current.ChestSignature != sig {
			if sortOrder, err = NextSortOrder(ctx, sig, s.store.MaxSortOrder); err != nil {
				return err
			}
		}
		now := s.clock.Now()
		updated, err = s.store.Update(ctx, id, func(m *domain.StoredMap) error {
			m.MapData = normalized(data, board)
			m.NotesHTML = notesHTML
			m.UpdatedAt = now
			if m.ChestSignature != sig {
				m.SetCounts(data.Counts())
				m.SortOrder = sortOrder
			}
			return nil
		})
		if err != nil {
			return domain.WrapStore("update", err)
		}
		s.logger.Info("map updated", "id", id, "signature", sig, "moved_group", current.ChestSignature != sig)
		return nil
	})
	return updated, err
}

// normalized re-encodes the decoded board so stored tiles only carry known
// types and canonical borders.
func normalized(data domain.MapData, board domain.Board) domain.MapData {
	out := data.Clone()
	out.Tiles = domain.EncodeBoard(board)
	return out
}

// Get loads a map by id. Ids shorter than the generated length are rejected
// without touching the store.
func (s *Service) Get(ctx context.Context, id string) (domain.StoredMap, error) {
	var m domain.StoredMap
	err := s.observe(ctx, "get", func(ctx context.Context) error {
		if len(id) < MapIDLength {
			return domain.ValidationError{Field: "id", Message: fmt.Sprintf("map ids have at least %d characters", MapIDLength)}
		}
		var err error
		m, err = s.store.FetchByID(ctx, id)
		if err != nil {
			return domain.WrapStore("fetch by id", err)
		}
		return nil
	})
	return m, err
}

// Search lists the maps holding exactly the given chest counts in sort order.
func (s *Service) Search(ctx context.Context, counts domain.ChestCounts) ([]domain.StoredMap, error) {
	var out []domain.StoredMap
	err := s.observe(ctx, "search", func(ctx context.Context) error {
		var err error
		out, err = s.store.FetchBySignature(ctx, counts.Signature(), "")
		return domain.WrapStore("fetch by signature", err)
	})
	return out, err
}

// ListAll lists every map grouped by signature.
func (s *Service) ListAll(ctx context.Context) ([]domain.StoredMap, error) {
	var out []domain.StoredMap
	err := s.observe(ctx, "list_all", func(ctx context.Context) error {
		var err error
		out, err = s.store.FetchAll(ctx)
		return domain.WrapStore("fetch all", err)
	})
	return out, err
}

// Delete removes a map.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.observe(ctx, "delete", func(ctx context.Context) error {
		if err := s.store.Delete(ctx, id); err != nil {
			return domain.WrapStore("delete", err)
		}
		s.logger.Info("map deleted", "id", id)
		return nil
	})
}

// Reorder moves a map one place up or down within its group.
func (s *Service) Reorder(ctx context.Context, id string, dir domain.Direction) (bool, error) {
	var moved bool
	err := s.observe(ctx, "reorder", func(ctx context.Context) error {
		var err error
		moved, err = Reorder(ctx, s.store, id, dir)
		return err
	})
	return moved, err
}

// CheckDuplicate returns a DuplicateError when data matches a stored map
// other than excludeID in any rotation.
func (s *Service) CheckDuplicate(ctx context.Context, data domain.MapData, excludeID string) error {
	return s.observe(ctx, "check_duplicate", func(ctx context.Context) error {
		board, warnings, err := domain.DecodeBoard(data)
		if err != nil {
			return err
		}
		s.logDecodeWarnings(excludeID, warnings)
		return s.duplicateCheck(ctx, board, data.Signature(), excludeID)
	})
}

// Rotations loads a map and lays out its four orientations for display.
func (s *Service) Rotations(ctx context.Context, id string) (domain.StoredMap, map[domain.Quadrant]domain.Board, error) {
	var (
		m      domain.StoredMap
		layout map[domain.Quadrant]domain.Board
	)
	err := s.observe(ctx, "rotations", func(ctx context.Context) error {
		var err error
		m, err = s.store.FetchByID(ctx, id)
		if err != nil {
			return domain.WrapStore("fetch by id", err)
		}
		board, warnings, err := domain.DecodeBoard(m.MapData)
		if err != nil {
			return err
		}
		s.logDecodeWarnings(id, warnings)
		layout = domain.DisplayLayout(board)
		return nil
	})
	return m, layout, err
}

// ExportMap renders a stored map as an exchange document.
func (s *Service) ExportMap(ctx context.Context, id string) ([]byte, error) {
	var out []byte
	err := s.observe(ctx, "export", func(ctx context.Context) error {
		m, err := s.store.FetchByID(ctx, id)
		if err != nil {
			return domain.WrapStore("fetch by id", err)
		}
		out, err = Export(m.MapData, m.NotesHTML, s.clock.Now())
		return err
	})
	return out, err
}

// ArchiveKey is the object key an export of id taken at ts is written to.
func ArchiveKey(id string, ts time.Time) string {
	return fmt.Sprintf("exports/%s/%s.json", id, ts.UTC().Format("20060102T150405.000000000Z"))
}

// ArchiveExport writes the exchange document of a map to the archive store.
func (s *Service) ArchiveExport(ctx context.Context, id string) (blob.Info, error) {
	var info blob.Info
	err := s.observe(ctx, "archive_export", func(ctx context.Context) error {
		if s.archive == nil {
			return ErrNoArchive
		}
		m, err := s.store.FetchByID(ctx, id)
		if err != nil {
			return domain.WrapStore("fetch by id", err)
		}
		now := s.clock.Now()
		doc, err := Export(m.MapData, m.NotesHTML, now)
		if err != nil {
			return err
		}
		info, err = s.archive.Put(ctx, ArchiveKey(id, now), bytes.NewReader(doc), blob.PutOptions{
			ContentType: "application/json",
			Metadata:    map[string]string{"map-id": id, "chest-signature": string(m.ChestSignature)},
		})
		if err != nil {
			return fmt.Errorf("archive export %s: %w", id, err)
		}
		s.logger.Info("map archived", "id", id, "key", info.Key, "driver", s.archive.Driver())
		return nil
	})
	return info, err
}

// ListArchives lists archived exports, optionally only those of one map.
func (s *Service) ListArchives(ctx context.Context, id string) ([]blob.Info, error) {
	var out []blob.Info
	err := s.observe(ctx, "list_archives", func(ctx context.Context) error {
		if s.archive == nil {
			return ErrNoArchive
		}
		prefix := "exports/"
		if id != "" {
			prefix += id + "/"
		}
		var err error
		out, err = s.archive.List(ctx, prefix)
		return err
	})
	return out, err
}

// ImportArchive reads an archived export back into a payload and notes.
func (s *Service) ImportArchive(ctx context.Context, key string) (domain.MapData, string, error) {
	var (
		data  domain.MapData
		notes string
	)
	err := s.observe(ctx, "import_archive", func(ctx context.Context) error {
		if s.archive == nil {
			return ErrNoArchive
		}
		_, rc, err := s.archive.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("read archive %s: %w", key, err)
		}
		defer rc.Close()
		raw, err := io.ReadAll(io.LimitReader(rc, maxArchiveBytes))
		if err != nil {
			return fmt.Errorf("read archive %s: %w", key, err)
		}
		data, notes, err = Import(raw)
		return err
	})
	return data, notes, err
}

// ShareURL returns a time-limited link to an archived export. Backends that
// cannot serve links return blob.ErrUnsupported.
func (s *Service) ShareURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	var url string
	err := s.observe(ctx, "share_url", func(ctx context.Context) error {
		if s.archive == nil {
			return ErrNoArchive
		}
		if _, err := s.archive.Head(ctx, key); err != nil {
			return fmt.Errorf("share %s: %w", key, err)
		}
		var err error
		url, err = s.archive.PresignURL(ctx, key, blob.SignedURLOptions{Method: "GET", Expiry: expiry})
		return err
	})
	return url, err
}
