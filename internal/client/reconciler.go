package client

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hearthside/crm/internal/domain"
)

// DragState is the reconciler's position in a reorder gesture.
type DragState int

const (
	StateIdle DragState = iota
	StateDragging
	StateReordering
)

func (s DragState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateReordering:
		return "reordering"
	default:
		return fmt.Sprintf("DragState(%d)", int(s))
	}
}

// ReorderPersister is the slice of the entity store the reconciler needs.
type ReorderPersister interface {
	Reorder(ctx context.Context, ownerID uuid.UUID, items []domain.ReorderItem) error
}

// Reconciler drives drag-based reordering of one owner's smart lists: the
// local order updates the moment a drop lands, the server stays the source
// of truth, and any persistence failure rolls the local order back to the
// last server-confirmed snapshot.
//
// The reconciler belongs to a single event loop; it is not safe for
// concurrent use from multiple goroutines.
type Reconciler struct {
	store   ReorderPersister
	ownerID uuid.UUID

	// confirmed is the last server-confirmed order; working is what the
	// sidebar displays.
	confirmed []domain.SmartList
	working   []domain.SmartList

	state  DragState
	dragID uuid.UUID
}

// NewReconciler builds a reconciler over a server-confirmed list order.
func NewReconciler(store ReorderPersister, ownerID uuid.UUID, lists []domain.SmartList) *Reconciler {
	r := &Reconciler{store: store, ownerID: ownerID, state: StateIdle}
	r.SetLists(lists)
	return r
}

// SetLists replaces both snapshots after a successful fetch. Ignored while a
// gesture or persistence call is underway so a stale refresh cannot clobber
// an optimistic order mid-flight.
func (r *Reconciler) SetLists(lists []domain.SmartList) {
	if r.state != StateIdle {
		return
	}
	r.confirmed = cloneLists(lists)
	r.working = cloneLists(lists)
}

// Lists returns the currently displayed order.
func (r *Reconciler) Lists() []domain.SmartList {
	return cloneLists(r.working)
}

// State returns the current gesture state.
func (r *Reconciler) State() DragState {
	return r.state
}

// BeginDrag starts tracking a drag. It refuses to start while a previous
// gesture's persistence call is still outstanding, so at most one reorder
// call is ever in flight per sidebar.
func (r *Reconciler) BeginDrag(id uuid.UUID) error {
	if r.state != StateIdle {
		return fmt.Errorf("cannot begin drag in state %s", r.state)
	}
	if indexOf(r.working, id) < 0 {
		return fmt.Errorf("unknown smart list %s", id)
	}
	r.state = StateDragging
	r.dragID = id
	return nil
}

// CancelDrag abandons the gesture: no mutation, no network call.
func (r *Reconciler) CancelDrag() {
	if r.state == StateDragging {
		r.state = StateIdle
		r.dragID = uuid.Nil
	}
}

// Drop lands the dragged item at the 1-based target position. A drop at the
// item's original position is a no-op and issues zero network calls. A valid
// drop resplices the local order immediately, rewrites every index to its new
// 1-based position, then persists the full order; on failure the local order
// reverts to the confirmed snapshot and the error is returned for display.
func (r *Reconciler) Drop(ctx context.Context, targetPos int) error {
	if r.state != StateDragging {
		return fmt.Errorf("cannot drop in state %s", r.state)
	}
	defer func() { r.dragID = uuid.Nil }()

	from := indexOf(r.working, r.dragID)
	if targetPos < 1 || targetPos > len(r.working) || from < 0 {
		// No valid target: gesture ends without mutation.
		r.state = StateIdle
		return nil
	}
	to := targetPos - 1
	if to == from {
		r.state = StateIdle
		return nil
	}

	// Optimistic update: remove, reinsert, rewrite indices.
	moved := r.working[from]
	r.working = append(r.working[:from], r.working[from+1:]...)
	r.working = append(r.working[:to], append([]domain.SmartList{moved}, r.working[to:]...)...)
	for i := range r.working {
		r.working[i].ListIndex = i + 1
	}

	r.state = StateReordering
	items := make([]domain.ReorderItem, len(r.working))
	for i, list := range r.working {
		items[i] = domain.ReorderItem{ID: list.ID, ListIndex: list.ListIndex}
	}

	err := r.store.Reorder(ctx, r.ownerID, items)
	r.state = StateIdle
	if err != nil {
		// Rollback to the last server-confirmed order.
		r.working = cloneLists(r.confirmed)
		return err
	}
	r.confirmed = cloneLists(r.working)
	return nil
}

func indexOf(lists []domain.SmartList, id uuid.UUID) int {
	for i, list := range lists {
		if list.ID == id {
			return i
		}
	}
	return -1
}

func cloneLists(lists []domain.SmartList) []domain.SmartList {
	out := make([]domain.SmartList, len(lists))
	for i, list := range lists {
		list.FilterCriteria = list.FilterCriteria.Clone()
		out[i] = list
	}
	return out
}
