// Package storage provides the transactional storage abstraction (C1)
// described in spec.md §4.1; the meta-schema bootstrap (C2) lives in
// internal/storage/sqlite. It
// treats SQLite as the abstract transactional store spec.md calls for:
// foreign-key cascades, views, dynamic column add/drop, and savepoints.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	// Registers the "sqlite3" driver. Pure-Go, no cgo.
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/dyntab/dyntab/internal/dyerr"
)

const lockPollInterval = 50 * time.Millisecond

// Engine is the process-wide storage handle (spec.md §5): the path to
// the active backing file, the open *sql.DB, and the file lock that
// enforces the single-writer session model.
type Engine struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open creates the backing file if missing and returns a ready handle.
// Foreign-key enforcement and WAL journaling are enabled on every
// connection (spec.md §4.1, §6). Open itself performs no meta-schema
// writes — callers invoke Bootstrap (C2) afterward.
func Open(ctx context.Context, path string) (*Engine, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockPollInterval)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire single-writer lock: %v", dyerr.Storage, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: database %s is locked by another session", dyerr.Storage, path)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("%w: open %s: %v", dyerr.Storage, path, err)
	}
	db.SetMaxOpenConns(1) // single-writer session (spec.md §5)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("%w: %s: %v", dyerr.Storage, pragma, err)
		}
	}

	return &Engine{db: db, path: path, lock: lock}, nil
}

// Close releases the connection pool and the single-writer lock.
func (e *Engine) Close() error {
	err := e.db.Close()
	if unlockErr := e.lock.Unlock(); unlockErr != nil && err == nil {
		err = unlockErr
	}
	return err
}

// Path returns the backing file path (for diagnostics/CLI output).
func (e *Engine) Path() string { return e.path }

// DB exposes the underlying *sql.DB for callers (bootstrap, ad-hoc
// introspection) that need it. Direct use bypasses the transaction
// discipline below; prefer RunInTransaction for anything mutating.
func (e *Engine) DB() *sql.DB { return e.db }

// RunInTransaction runs fn inside a single transaction (spec.md §4.1).
// fn's return value decides the outcome: nil commits, non-nil rolls
// back and is returned unchanged so the caller sees the original
// error (spec.md §7 propagation policy).
func (e *Engine) RunInTransaction(ctx context.Context, fn func(tx *Tx) error) (err error) {
	sqlTx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", dyerr.Storage, err)
	}

	tx := &Tx{tx: sqlTx, ctx: ctx}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", dyerr.Storage, err)
	}
	return nil
}

// Tx is the transactional handle C4/C5/C6 mutate through. It never
// outlives the call to RunInTransaction that created it.
type Tx struct {
	tx  *sql.Tx
	ctx context.Context
}

// Exec runs a parameterized DDL/DML statement.
func (t *Tx) Exec(query string, args ...any) (sql.Result, error) {
	res, err := t.tx.ExecContext(t.ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dyerr.Storage, err)
	}
	return res, nil
}

// QueryRow runs query and passes the single matching row to scan.
// Returns dyerr.NotFound when the query matches no rows.
func (t *Tx) QueryRow(scan func(*sql.Row) error, query string, args ...any) error {
	row := t.tx.QueryRowContext(t.ctx, query, args...)
	if err := scan(row); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w", dyerr.NotFound)
		}
		return fmt.Errorf("%w: %v", dyerr.Storage, err)
	}
	return nil
}

// Stream runs query and invokes scan once per matching row, in row
// order, while the underlying *sql.Rows cursor is still open. scan must
// not run another query against this Tx: doing so would reenter the
// open cursor and is unsupported by database/sql's single-connection
// model here. Callers that need to look something up per row (for
// example, a precomputed uniqueness-violation set) must compute it
// before calling Stream, the way uniqueViolations does, rather than
// from inside scan.
func (t *Tx) Stream(query string, args []any, scan func(*sql.Rows) error) error {
	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", dyerr.Storage, err)
	}

	for rows.Next() {
		if err := scan(rows); err != nil {
			_ = rows.Close()
			return err
		}
	}
	closeErr := rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", dyerr.Storage, err)
	}
	if closeErr != nil {
		return fmt.Errorf("%w: %v", dyerr.Storage, closeErr)
	}
	return nil
}

// LastInsertRowID returns the rowid of the most recently inserted row
// in this transaction (spec.md §4.1).
func (t *Tx) LastInsertRowID() (int64, error) {
	var id int64
	err := t.QueryRow(func(r *sql.Row) error { return r.Scan(&id) }, "SELECT last_insert_rowid()")
	return id, err
}

// WithSavepoint runs fn inside a named savepoint nested in the
// surrounding transaction (spec.md §4.1 "named savepoints";
// SPEC_FULL.md's supplemented savepoint-scoped partial application,
// grounded in original_source's transaction-scoped DDL application).
// On error the savepoint alone is rolled back; the outer transaction
// is untouched and the caller decides whether to propagate.
func (t *Tx) WithSavepoint(fn func() error) error {
	name := "sp_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := t.Exec("SAVEPOINT " + name); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if _, rbErr := t.Exec("ROLLBACK TO SAVEPOINT " + name); rbErr != nil {
			return fmt.Errorf("%w: rollback savepoint after %v: %v", dyerr.Storage, err, rbErr)
		}
		_, _ = t.Exec("RELEASE SAVEPOINT " + name)
		return err
	}
	if _, err := t.Exec("RELEASE SAVEPOINT " + name); err != nil {
		return err
	}
	return nil
}
