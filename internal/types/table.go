package types

// Table is a meta-schema Table row (spec.md §3). Its id equals the
// backing Type id for object-like kinds (single-select/multi-select
// value relations aside); independent user tables allocate both a
// fresh Type row and a fresh Table row sharing that id.
type Table struct {
	ID       int64
	Name     string
	Trash    bool
	ParentID *int64 // set for child-object/child-table backing relations
}

// OrderBy is one order-by metadata row for a table's data-read query
// (spec.md §3, §4.6).
type OrderBy struct {
	TableID   int64
	ColumnID  int64
	Ordering  int
	Ascending bool
}

// TableListItem is the projection returned by GetTableList: only
// non-trashed tables, sorted by name (spec.md §4.4).
type TableListItem struct {
	OID  int64
	Name string
}

// Inheritance is a directed edge in the single-inheritance object
// hierarchy (spec.md §3 Table-inheritance; supplemented per
// SPEC_FULL.md from original_source/backend/obj_type.rs).
type Inheritance struct {
	InheritorID int64
	MasterID    int64
	Trash       bool
}
