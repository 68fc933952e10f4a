package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SmartList is a named, ordered, persisted filter over the owner's contacts.
type SmartList struct {
	ID             uuid.UUID      `json:"id"`
	OwnerID        uuid.UUID      `json:"owner_id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	FilterCriteria FilterCriteria `json:"filter_criteria"`
	// ListIndex is the 1-based display position among the owner's lists.
	// Indices for one owner always form the contiguous set {1..N}.
	ListIndex    int       `json:"list_index"`
	ContactCount int       `json:"contact_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ReorderItem carries one list's new position in a batch reorder.
type ReorderItem struct {
	ID        uuid.UUID `json:"id"`
	ListIndex int       `json:"list_index"`
}

// ValidateReorder checks that items describe a full permutation of n lists:
// every id distinct and the indices exactly {1..n}. The server applies a batch
// only when this holds, so a client rollback after failure is always safe.
func ValidateReorder(items []ReorderItem, n int) error {
	if len(items) != n {
		return fmt.Errorf("reorder batch has %d items, expected %d", len(items), n)
	}
	seenIDs := make(map[uuid.UUID]struct{}, len(items))
	seenIdx := make(map[int]struct{}, len(items))
	for _, item := range items {
		if _, dup := seenIDs[item.ID]; dup {
			return fmt.Errorf("duplicate list id %s in reorder batch", item.ID)
		}
		seenIDs[item.ID] = struct{}{}
		if item.ListIndex < 1 || item.ListIndex > n {
			return fmt.Errorf("list index %d out of range 1..%d", item.ListIndex, n)
		}
		if _, dup := seenIdx[item.ListIndex]; dup {
			return fmt.Errorf("duplicate list index %d in reorder batch", item.ListIndex)
		}
		seenIdx[item.ListIndex] = struct{}{}
	}
	return nil
}

// ContiguousIndices reports whether the lists' indices are exactly {1..N}
// in slice order.
func ContiguousIndices(lists []SmartList) bool {
	for i, l := range lists {
		if l.ListIndex != i+1 {
			return false
		}
	}
	return true
}
