// Package sqlite bootstraps the meta-schema (C2) and provides the
// sqlite-specific helpers layered over internal/storage's transactional
// handle: the id allocator, primitive validators, and test fixtures.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyntab/dyntab/internal/dyerr"
	"github.com/dyntab/dyntab/internal/storage"
)

// bootstrapSchema creates the fixed meta-schema relations (spec.md §3,
// §4.2 C2) and is safe to run against an already-bootstrapped database:
// every statement is IF NOT EXISTS, and the primitive seed rows are
// inserted OR IGNORE keyed by their well-known id.
const bootstrapSchema = `
-- MTYPE: one row per Type (spec.md §3 "Type"). mode 0 is primitive
-- (id-encoded subtype 0..9); modes 1..5 are SingleSelect, MultiSelect,
-- Reference, ChildObject, ChildTable. For ChildTable the id also names
-- a backing MTABLE row; for SingleSelect/MultiSelect it names only the
-- TABLE_<id> value relation (see internal/coltype).
CREATE TABLE IF NOT EXISTS MTYPE (
    id    INTEGER PRIMARY KEY,
    trash INTEGER NOT NULL DEFAULT 0,
    mode  INTEGER NOT NULL
);

-- MTABLE: one row per Table (independent user table, child-object
-- type, child-table type, or object type in the inheritance design).
CREATE TABLE IF NOT EXISTS MTABLE (
    id              INTEGER PRIMARY KEY,
    trash           INTEGER NOT NULL DEFAULT 0,
    parent_table_id INTEGER,
    name            TEXT NOT NULL,
    FOREIGN KEY (id) REFERENCES MTYPE(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_mtable_name ON MTABLE(name);

-- MTABLE_INHERITANCE: directed inheritor -> master edges (spec.md §3
-- Table-inheritance; SPEC_FULL supplemented operations).
CREATE TABLE IF NOT EXISTS MTABLE_INHERITANCE (
    inheritor_id INTEGER NOT NULL,
    master_id    INTEGER NOT NULL,
    trash        INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (inheritor_id, master_id),
    FOREIGN KEY (inheritor_id) REFERENCES MTABLE(id) ON DELETE CASCADE,
    FOREIGN KEY (master_id) REFERENCES MTABLE(id) ON DELETE CASCADE
);

-- MTABLE_COLUMN: one row per Column (spec.md §3 "Column").
CREATE TABLE IF NOT EXISTS MTABLE_COLUMN (
    id            INTEGER PRIMARY KEY,
    trash         INTEGER NOT NULL DEFAULT 0,
    table_id      INTEGER NOT NULL,
    name          TEXT NOT NULL,
    type_id       INTEGER NOT NULL,
    mode          INTEGER NOT NULL,
    ordering      INTEGER NOT NULL,
    display_style TEXT NOT NULL DEFAULT '',
    nullable      INTEGER NOT NULL DEFAULT 1,
    is_unique     INTEGER NOT NULL DEFAULT 0,
    primary_key   INTEGER NOT NULL DEFAULT 0,
    default_value TEXT,
    FOREIGN KEY (table_id) REFERENCES MTABLE(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_mtable_column_table ON MTABLE_COLUMN(table_id, ordering);

-- MORDER_BY: optional per-table sort override (spec.md §3 "Order-by
-- row"; SPEC_FULL's SetTableSort/GetTableSort).
CREATE TABLE IF NOT EXISTS MORDER_BY (
    table_id  INTEGER NOT NULL,
    column_id INTEGER NOT NULL,
    ordering  INTEGER NOT NULL,
    ascending INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (table_id, column_id),
    FOREIGN KEY (table_id) REFERENCES MTABLE(id) ON DELETE CASCADE,
    FOREIGN KEY (column_id) REFERENCES MTABLE_COLUMN(id) ON DELETE CASCADE
);

-- MREPORT: bootstrapped per spec.md §2 C2 ("report metadata") even
-- though the report subsystem itself is a Non-goal (spec.md §1, §9).
-- No operation in this module reads or writes rows here beyond
-- bootstrap; it exists so a future report subsystem has its table.
CREATE TABLE IF NOT EXISTS MREPORT (
    id         INTEGER PRIMARY KEY,
    trash      INTEGER NOT NULL DEFAULT 0,
    name       TEXT NOT NULL,
    table_id   INTEGER,
    definition TEXT NOT NULL DEFAULT ''
);

-- MSEQUENCE: monotonic id allocator (spec.md §3 "Identifiers"), one
-- counter per meta-relation namespace sharing a Type/Table id space
-- and a separate Column id space.
CREATE TABLE IF NOT EXISTS MSEQUENCE (
    name TEXT PRIMARY KEY,
    next INTEGER NOT NULL
);

INSERT OR IGNORE INTO MSEQUENCE (name, next) VALUES ('type', 10);
INSERT OR IGNORE INTO MSEQUENCE (name, next) VALUES ('column', 0);

-- Ten well-known primitive Type rows, ids 0-9 (spec.md §3, §4.2).
INSERT OR IGNORE INTO MTYPE (id, trash, mode) VALUES
    (0, 0, 0), (1, 0, 0), (2, 0, 0), (3, 0, 0), (4, 0, 0),
    (5, 0, 0), (6, 0, 0), (7, 0, 0), (8, 0, 0), (9, 0, 0);
`

// Bootstrap runs bootstrapSchema against e's database (spec.md §4.2).
// It is idempotent and is called once by internal/engine right after
// storage.Open.
func Bootstrap(ctx context.Context, e *storage.Engine) error {
	statements := splitStatements(bootstrapSchema)
	return e.RunInTransaction(ctx, func(tx *storage.Tx) error {
		for _, stmt := range statements {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("%w: bootstrap: %v", dyerr.Storage, err)
			}
		}
		return nil
	})
}

// splitStatements splits a semicolon-separated block of DDL/DML into
// individual statements. The bootstrap schema contains no string
// literal with an embedded semicolon, so a plain split is sufficient.
func splitStatements(block string) []string {
	return strings.Split(block, ";")
}

