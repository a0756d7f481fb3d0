package testutil

import (
	"context"
	"database/sql/driver"
	"testing"
)

func TestStubDBWritesDeletesAndQueries(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	upsert := "INSERT INTO maps(id, payload) VALUES($1,$2) ON CONFLICT(id) DO UPDATE SET payload=excluded.payload"
	for _, payload := range []string{"first", "second"} {
		if _, err := conn.ExecContext(ctx, upsert, []driver.NamedValue{{Value: "Ab12"}, {Value: payload}}); err != nil {
			t.Fatalf("ExecContext upsert: %v", err)
		}
	}
	if got := len(conn.Maps); got != 1 {
		t.Fatalf("expected upsert to replace the row, got %d rows", got)
	}
	row, ok := conn.Row("Ab12")
	if !ok || row["payload"] != "second" {
		t.Fatalf("unexpected row: %v", row)
	}

	insert := "INSERT INTO maps(id, payload) VALUES($1,$2) ON CONFLICT(id) DO NOTHING"
	res, err := conn.ExecContext(ctx, insert, []driver.NamedValue{{Value: "Ab12"}, {Value: "third"}})
	if err != nil {
		t.Fatalf("ExecContext insert: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 0 {
		t.Fatalf("conflicting insert affected %d rows", n)
	}
	if row, _ := conn.Row("Ab12"); row["payload"] != "second" {
		t.Fatalf("conflicting insert overwrote the row: %v", row)
	}

	rows, err := conn.QueryContext(ctx, "SELECT id, payload FROM maps", nil)
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	dest := make([]driver.Value, 2)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if dest[0] != "Ab12" || dest[1] != "second" {
		t.Fatalf("unexpected row values: %v", dest)
	}
	_ = rows.Close()

	res, err = conn.ExecContext(ctx, "DELETE FROM maps WHERE id = $1", []driver.NamedValue{{Value: "Ab12"}})
	if err != nil {
		t.Fatalf("ExecContext delete: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		t.Fatalf("expected one row deleted, got %d", n)
	}
	if len(conn.Maps) != 0 {
		t.Fatalf("expected empty table, got %v", conn.Maps)
	}
}

func TestStubDBFailureSwitches(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()
	conn.FailWrites = true
	if _, err := conn.ExecContext(ctx, "INSERT INTO maps(id) VALUES($1)", []driver.NamedValue{{Value: "x"}}); err == nil {
		t.Fatalf("expected write failure")
	}
	if _, err := conn.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS i ON maps (id)", nil); err != nil {
		t.Fatalf("schema statements should pass while writes fail: %v", err)
	}
	if _, err := conn.QueryContext(ctx, "SELECT id FROM maps", nil); err != nil {
		t.Fatalf("reads should pass while writes fail: %v", err)
	}
	conn.FailQuery = true
	if _, err := conn.QueryContext(ctx, "SELECT id FROM maps", nil); err == nil {
		t.Fatalf("expected query failure")
	}
	conn.FailBegin = true
	if _, err := conn.BeginTx(ctx, driver.TxOptions{}); err == nil {
		t.Fatalf("expected begin failure")
	}
	conn.FailPing = true
	if err := conn.Ping(ctx); err == nil {
		t.Fatalf("expected ping failure")
	}
	conn.FailQuery = false
	if _, err := conn.QueryContext(ctx, "UPDATE maps SET x = 1", nil); err == nil {
		t.Fatalf("expected parse failure for non-select")
	}
}
