// Package journal implements the action journal (C7, spec.md §4.7): a
// two-stack undo/redo log over the C4/C5/C6 mutations. Every mutation
// the engine accepts is wrapped in a types.Action; executing one pushes
// its inverse onto the reverse stack and clears the forward stack,
// exactly like a conventional editor undo buffer.
package journal

import (
	"fmt"
	"sync"

	"github.com/dyntab/dyntab/internal/dyerr"
	"github.com/dyntab/dyntab/internal/storage"
	"github.com/dyntab/dyntab/internal/types"
)

// Result carries the ids a dispatched action produced, so callers (the
// engine's command surface) can report a freshly created table/column/
// row id back to the caller without re-querying.
type Result struct {
	TableID int64
	ColumnID int64
	RowID    int64
	CloneID  int64
}

// Journal holds the per-session undo/redo stacks (spec.md §4.7). It is
// not persisted: a fresh process starts with empty stacks, and undo
// never reaches further back than the session that is currently open.
type Journal struct {
	mu      sync.Mutex
	reverse []types.Action
	forward []types.Action
}

// New returns an empty journal.
func New() *Journal {
	return &Journal{}
}

// Execute applies action, pushes its inverse onto the reverse stack,
// and discards the forward stack (spec.md §4.7 "Execute").
func (j *Journal) Execute(tx *storage.Tx, action types.Action) (Result, error) {
	inverse, result, err := apply(tx, action)
	if err != nil {
		return Result{}, err
	}
	j.mu.Lock()
	j.reverse = append(j.reverse, inverse)
	j.forward = nil
	j.mu.Unlock()
	return result, nil
}

// Undo applies the most recently executed action's inverse, moving it
// onto the forward stack (spec.md §4.7 "Undo"). Returns
// dyerr.NotFound when there is nothing left to undo.
func (j *Journal) Undo(tx *storage.Tx) error {
	j.mu.Lock()
	if len(j.reverse) == 0 {
		j.mu.Unlock()
		return fmt.Errorf("%w: no actions to undo", dyerr.NotFound)
	}
	action := j.reverse[len(j.reverse)-1]
	j.reverse = j.reverse[:len(j.reverse)-1]
	j.mu.Unlock()

	inverse, _, err := apply(tx, action)
	if err != nil {
		return err
	}
	j.mu.Lock()
	j.forward = append(j.forward, inverse)
	j.mu.Unlock()
	return nil
}

// Redo re-applies the most recently undone action, moving it back onto
// the reverse stack (spec.md §4.7 "Redo"). Returns dyerr.NotFound when
// there is nothing left to redo.
func (j *Journal) Redo(tx *storage.Tx) error {
	j.mu.Lock()
	if len(j.forward) == 0 {
		j.mu.Unlock()
		return fmt.Errorf("%w: no actions to redo", dyerr.NotFound)
	}
	action := j.forward[len(j.forward)-1]
	j.forward = j.forward[:len(j.forward)-1]
	j.mu.Unlock()

	inverse, _, err := apply(tx, action)
	if err != nil {
		return err
	}
	j.mu.Lock()
	j.reverse = append(j.reverse, inverse)
	j.mu.Unlock()
	return nil
}

// CanUndo/CanRedo report whether the respective stack is non-empty,
// for CLI/UI affordances.
func (j *Journal) CanUndo() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.reverse) > 0
}

func (j *Journal) CanRedo() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.forward) > 0
}
