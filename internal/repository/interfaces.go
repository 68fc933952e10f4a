package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hearthside/crm/internal/domain"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrReorderConflict is returned when a reorder batch does not describe a
// full permutation of the owner's lists.
var ErrReorderConflict = errors.New("reorder batch does not match the owner's lists")

// SmartListRepository defines the interface for smart list operations
type SmartListRepository interface {
	Create(ctx context.Context, ownerID uuid.UUID, name, description string) (domain.SmartList, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.SmartList, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]domain.SmartList, error)
	Rename(ctx context.Context, id uuid.UUID, name, description string) (domain.SmartList, error)
	SetFilterCriteria(ctx context.Context, id uuid.UUID, criteria domain.FilterCriteria) (domain.SmartList, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Reorder applies the batch atomically: either every list gets its new
	// index or none does.
	Reorder(ctx context.Context, ownerID uuid.UUID, items []domain.ReorderItem) error
}

// ContactRepository defines the interface for contact query operations
type ContactRepository interface {
	Create(ctx context.Context, contact domain.Contact) (domain.Contact, error)
	ListByCriteria(ctx context.Context, ownerID uuid.UUID, criteria domain.FilterCriteria) ([]domain.Contact, error)
	CountByCriteria(ctx context.Context, ownerID uuid.UUID, criteria domain.FilterCriteria) (int, error)
}
