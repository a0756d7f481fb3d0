// Package sqldoc persists map documents to a single SQL table, one JSON row
// per map. The table is the source of truth: the in-memory index is rebuilt
// from it at the start of every operation, so several stores sharing one
// database see each other's writes. Every write goes to the database before
// it is acknowledged, and a refused write is rolled back in memory.
package sqldoc

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"treasuremap/internal/infra/persistence/memory"
	"treasuremap/pkg/domain"
)

var _ domain.MapStore = (*Store)(nil)

// Dialect captures the SQL differences between backends.
type Dialect struct {
	Name        string
	PayloadType string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
}

// SQLite uses positional question marks and a BLOB payload.
var SQLite = Dialect{
	Name:        "sqlite",
	PayloadType: "BLOB",
	Placeholder: func(int) string { return "?" },
}

// Postgres uses numbered placeholders and JSONB.
var Postgres = Dialect{
	Name:        "postgres",
	PayloadType: "JSONB",
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
}

// Store is a write-through MapStore over db.
type Store struct {
	*memory.Store
	db      *sql.DB
	dialect Dialect
	mu      sync.Mutex // serialises refresh and operation on the index
}

// Open ensures the maps table exists and loads every stored document.
func Open(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	s := &Store{Store: memory.NewStore(), db: db, dialect: dialect}
	if err := s.ensureTable(ctx); err != nil {
		return nil, err
	}
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Driver identifies the backend.
func (s *Store) Driver() string { return s.dialect.Name }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ensureTable(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS maps (
		id TEXT PRIMARY KEY,
		chest_signature TEXT NOT NULL,
		sort_order INTEGER NOT NULL,
		payload %s NOT NULL
	)`, s.dialect.PayloadType),
		`CREATE INDEX IF NOT EXISTS maps_signature_order ON maps (chest_signature, sort_order)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure maps table: %w", err)
		}
	}
	return nil
}

// refresh replaces the index with the current contents of the table.
func (s *Store) refresh(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, payload FROM maps`)
	if err != nil {
		return fmt.Errorf("select maps: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var snapshot memory.Snapshot
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return fmt.Errorf("scan map: %w", err)
		}
		var m domain.StoredMap
		if err := json.Unmarshal(payload, &m); err != nil {
			return fmt.Errorf("decode map %s: %w", id, err)
		}
		m.ID = id
		snapshot.Maps = append(snapshot.Maps, m)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate maps: %w", err)
	}
	s.ImportState(snapshot)
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = s.dialect.Placeholder(i + 1)
	}
	return strings.Join(ph, ",")
}

func (s *Store) write(ctx context.Context, ex execer, m domain.StoredMap, onConflict string) (int64, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return 0, fmt.Errorf("encode map %s: %w", m.ID, err)
	}
	q := fmt.Sprintf(`INSERT INTO maps(id, chest_signature, sort_order, payload) VALUES(%s) ON CONFLICT(id) %s`,
		s.placeholders(4), onConflict)
	res, err := ex.ExecContext(ctx, q, m.ID, string(m.ChestSignature), m.SortOrder, string(payload))
	if err != nil {
		return 0, fmt.Errorf("write map %s: %w", m.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("write map %s: %w", m.ID, err)
	}
	return n, nil
}

func (s *Store) upsert(ctx context.Context, ex execer, m domain.StoredMap) error {
	_, err := s.write(ctx, ex, m, `DO UPDATE SET chest_signature=excluded.chest_signature, sort_order=excluded.sort_order, payload=excluded.payload`)
	return err
}

// FetchBySignature returns the maps of one group in sort order.
func (s *Store) FetchBySignature(ctx context.Context, sig domain.ChestSignature, excludeID string) ([]domain.StoredMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	return s.Store.FetchBySignature(ctx, sig, excludeID)
}

// FetchByID returns one map or domain.ErrNotFound.
func (s *Store) FetchByID(ctx context.Context, id string) (domain.StoredMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(ctx); err != nil {
		return domain.StoredMap{}, err
	}
	return s.Store.FetchByID(ctx, id)
}

// FetchAll returns every map ordered by signature then sort order.
func (s *Store) FetchAll(ctx context.Context) ([]domain.StoredMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	return s.Store.FetchAll(ctx)
}

// MaxSortOrder reports the highest sort order in a group.
func (s *Store) MaxSortOrder(ctx context.Context, sig domain.ChestSignature) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(ctx); err != nil {
		return 0, false, err
	}
	return s.Store.MaxSortOrder(ctx, sig)
}

// Exists reports whether id is taken.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(ctx); err != nil {
		return false, err
	}
	return s.Store.Exists(ctx, id)
}

// Neighbor returns the adjacent map of a group in direction dir.
func (s *Store) Neighbor(ctx context.Context, sig domain.ChestSignature, sortOrder int, dir domain.Direction) (domain.StoredMap, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(ctx); err != nil {
		return domain.StoredMap{}, false, err
	}
	return s.Store.Neighbor(ctx, sig, sortOrder, dir)
}

// Insert stores a new map. It fails with domain.ErrAlreadyExists when the
// id is present in the table, including rows written by another store.
func (s *Store) Insert(ctx context.Context, m domain.StoredMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(ctx); err != nil {
		return err
	}
	if err := s.Store.Insert(ctx, m); err != nil {
		return err
	}
	n, err := s.write(ctx, s.db, m, `DO NOTHING`)
	if err != nil {
		s.Remove(m.ID)
		return err
	}
	if n == 0 {
		s.Remove(m.ID)
		return fmt.Errorf("insert map %s: %w", m.ID, domain.ErrAlreadyExists)
	}
	return nil
}

// Update applies mutator and writes the result.
func (s *Store) Update(ctx context.Context, id string, mutator func(*domain.StoredMap) error) (domain.StoredMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(ctx); err != nil {
		return domain.StoredMap{}, err
	}
	prev, err := s.Store.FetchByID(ctx, id)
	if err != nil {
		return domain.StoredMap{}, err
	}
	next, err := s.Store.Update(ctx, id, mutator)
	if err != nil {
		return domain.StoredMap{}, err
	}
	if err := s.upsert(ctx, s.db, next); err != nil {
		s.Put(prev)
		return domain.StoredMap{}, err
	}
	return next, nil
}

// Delete removes a map.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(ctx); err != nil {
		return err
	}
	prev, err := s.Store.FetchByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	q := "DELETE FROM maps WHERE id = " + s.dialect.Placeholder(1)
	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		s.Put(prev)
		return fmt.Errorf("delete map %s: %w", id, err)
	}
	return nil
}

// SwapSortOrder exchanges two sort orders in a single transaction.
func (s *Store) SwapSortOrder(ctx context.Context, idA, idB string) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(ctx); err != nil {
		return err
	}
	prevA, err := s.Store.FetchByID(ctx, idA)
	if err != nil {
		return err
	}
	prevB, err := s.Store.FetchByID(ctx, idB)
	if err != nil {
		return err
	}
	if err := s.Store.SwapSortOrder(ctx, idA, idB); err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			s.Put(prevA)
			s.Put(prevB)
		}
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, id := range []string{idA, idB} {
		m, err := s.Store.FetchByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.upsert(ctx, tx, m); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}
