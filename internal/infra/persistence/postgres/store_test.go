package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"treasuremap/internal/infra/persistence/postgres/testutil"
	"treasuremap/pkg/domain"
)

func TestNewStoreWithStubDriver(t *testing.T) {
	db, conn := testutil.NewStubDB()
	var gotDriver, gotDSN string
	restore := OverrideSQLOpen(func(driverName, dsn string) (*sql.DB, error) {
		gotDriver, gotDSN = driverName, dsn
		return db, nil
	})
	defer restore()

	s, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = s.Close() }()
	if gotDriver != "pgx" || gotDSN != defaultDSN {
		t.Fatalf("unexpected open %s %s", gotDriver, gotDSN)
	}
	if s.Driver() != "postgres" {
		t.Fatalf("driver %s", s.Driver())
	}
	counts := domain.ChestCounts{Large: 1}
	m := domain.StoredMap{ID: "Aaaa", SortOrder: 100, MapData: domain.NewMapData(domain.NewBlankBoard(), counts)}
	m.SetCounts(counts)
	if err := s.Insert(context.Background(), m); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, ok := conn.Row("Aaaa"); !ok {
		t.Fatalf("row not written through")
	}
}

func TestNewStoreErrors(t *testing.T) {
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) {
		return nil, errors.New("no driver")
	})
	if _, err := NewStore(context.Background(), "postgres://x"); err == nil {
		t.Fatalf("expected open failure")
	}
	restore()

	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore = OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), "postgres://x"); err == nil {
		t.Fatalf("expected ping failure")
	}
}

func TestNewStoreSchemaFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailExec = true
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), "postgres://x"); err == nil {
		t.Fatalf("expected schema failure")
	}
}
