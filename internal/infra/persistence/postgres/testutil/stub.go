// Package testutil provides an in-memory database/sql driver that understands
// the statements the map document store issues against its maps table.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

var stubSeq atomic.Int64

// StubConn records statements and keeps the rows of the maps table, keyed by
// their id column.
type StubConn struct {
	Execs []string
	Maps  []map[string]any

	FailPing   bool
	FailExec   bool // every ExecContext, schema statements included
	FailWrites bool // INSERT and DELETE only
	FailQuery  bool
	FailBegin  bool
	FailCommit bool
	RowsErr    error

	Commits   int
	Rollbacks int
}

// NewStubDB registers a fresh driver and returns a sql.DB backed by it.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StubConn) Ping(context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *StubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, fmt.Errorf("begin fail")
	}
	return &stubTx{conn: c}, nil
}

// ExecContext implements driver.ExecerContext. It handles
// INSERT INTO maps(...) ... ON CONFLICT(id) DO NOTHING | DO UPDATE and
// DELETE FROM maps WHERE id = $1; anything else is accepted as schema.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	upper := strings.ToUpper(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(upper, "INSERT INTO MAPS"):
		if c.FailWrites {
			return nil, fmt.Errorf("write fail")
		}
		cols, err := insertColumns(query)
		if err != nil {
			return nil, err
		}
		if len(cols) != len(args) {
			return nil, fmt.Errorf("column/arg mismatch")
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = args[i].Value
		}
		if _, exists := c.Row(row["id"]); exists {
			if strings.Contains(upper, "DO NOTHING") {
				return driver.RowsAffected(0), nil
			}
			c.Maps = without(c.Maps, row["id"])
		}
		c.Maps = append(c.Maps, row)
		return driver.RowsAffected(1), nil
	case strings.HasPrefix(upper, "DELETE FROM MAPS"):
		if c.FailWrites {
			return nil, fmt.Errorf("write fail")
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("missing id for delete")
		}
		before := len(c.Maps)
		c.Maps = without(c.Maps, args[0].Value)
		return driver.RowsAffected(int64(before - len(c.Maps))), nil
	}
	return driver.RowsAffected(0), nil
}

// QueryContext implements driver.QueryerContext for SELECT <cols> FROM maps.
// WHERE clauses are ignored.
func (c *StubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if c.FailQuery {
		return nil, fmt.Errorf("query fail")
	}
	cols, err := selectColumns(query)
	if err != nil {
		return nil, err
	}
	values := make([][]driver.Value, 0, len(c.Maps))
	for _, row := range c.Maps {
		vals := make([]driver.Value, len(cols))
		for i, col := range cols {
			vals[i] = row[col]
		}
		values = append(values, vals)
	}
	return &stubRows{cols: cols, rows: values, err: c.RowsErr}, nil
}

// Row returns the stored row with the given id.
func (c *StubConn) Row(id any) (map[string]any, bool) {
	for _, row := range c.Maps {
		if row["id"] == id {
			return row, true
		}
	}
	return nil, false
}

func without(rows []map[string]any, id any) []map[string]any {
	var out []map[string]any
	for _, row := range rows {
		if row["id"] != id {
			out = append(out, row)
		}
	}
	return out
}

type stubTx struct {
	conn *StubConn
}

func (t *stubTx) Commit() error {
	if t.conn.FailCommit {
		return fmt.Errorf("commit fail")
	}
	t.conn.Commits++
	return nil
}

func (t *stubTx) Rollback() error {
	t.conn.Rollbacks++
	return nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

func insertColumns(query string) ([]string, error) {
	open := strings.Index(query, "(")
	closeIdx := strings.Index(query, ")")
	if open == -1 || closeIdx <= open {
		return nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	return splitColumns(query[open+1 : closeIdx]), nil
}

func selectColumns(query string) ([]string, error) {
	trimmed := strings.TrimSpace(query)
	lower := strings.ToLower(trimmed)
	fromIdx := strings.Index(lower, " from maps")
	if !strings.HasPrefix(lower, "select ") || fromIdx == -1 {
		return nil, fmt.Errorf("cannot parse select: %s", query)
	}
	return splitColumns(trimmed[len("select "):fromIdx]), nil
}

func splitColumns(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(part)))
	}
	return out
}
