package types

// FailedValidation is one annotation attached to a cell when its value
// violates a column constraint (spec.md §4.6).
type FailedValidation struct {
	Description string
}

// RowStart opens a row in the cell stream (spec.md §6).
type RowStart struct {
	RowOID   int64
	RowIndex int64
}

// ColumnValue is one cell in the cell stream (spec.md §6). TableOID is
// the owning relation for the value — the base table, or an inherited
// master's table when the column comes from a master via inheritance
// (spec.md §4.6).
type ColumnValue struct {
	TableOID          int64
	RowOID            int64
	ColumnOID         int64
	ColumnType        string // coltype.ColumnType.String()
	TrueValue         *string
	DisplayValue      *string
	FailedValidations []FailedValidation
}

// RowExists reports whether a requested row id matched (spec.md §6).
type RowExists struct {
	Exists bool
}

// CellEvent is the closed set of events a data-read streams to its
// sink (spec.md §4.6, §6): exactly one of the three fields is set.
type CellEvent struct {
	RowStart    *RowStart
	ColumnValue *ColumnValue
	RowExists   *RowExists
}

// Sink receives cell events as a data-read query streams them. Returning
// an error stops the stream early; per spec.md §5 delivery to the
// outbound channel is best-effort and does not roll back the read
// transaction, so a Sink should not itself fail the underlying query —
// it reports delivery problems to its caller, not to the engine.
type Sink func(CellEvent) error
