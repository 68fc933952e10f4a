package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hearthside/crm/internal/domain"
)

// smartListRepository implements SmartListRepository backed by Postgres.
// Contact counts are computed at read time from the stored criteria so the
// reported count always matches what the contact query would return.
type smartListRepository struct {
	pool     *pgxpool.Pool
	contacts ContactRepository
}

// NewSmartListRepository creates a new smart list repository
func NewSmartListRepository(pool *pgxpool.Pool, contacts ContactRepository) SmartListRepository {
	return &smartListRepository{pool: pool, contacts: contacts}
}

const smartListColumns = `id, owner_id, name, description, filter_criteria, list_index, created_at, updated_at`

// Create appends the new list at the end of the owner's ordering.
func (r *smartListRepository) Create(ctx context.Context, ownerID uuid.UUID, name, description string) (domain.SmartList, error) {
	if name == "" {
		return domain.SmartList{}, fmt.Errorf("smart list name is required")
	}

	var list domain.SmartList
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var nextIndex int
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(list_index), 0) + 1 FROM smart_lists WHERE owner_id = $1`,
			ownerID,
		).Scan(&nextIndex); err != nil {
			return fmt.Errorf("failed to compute next list index: %w", err)
		}

		row := tx.QueryRow(ctx,
			`INSERT INTO smart_lists (owner_id, name, description, list_index)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+smartListColumns,
			ownerID, name, description, nextIndex,
		)
		var err error
		list, err = scanSmartList(row)
		if err != nil {
			return fmt.Errorf("failed to create smart list: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.SmartList{}, err
	}

	return r.withContactCount(ctx, list)
}

// GetByID retrieves a smart list by ID
func (r *smartListRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.SmartList, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+smartListColumns+` FROM smart_lists WHERE id = $1`, id)
	list, err := scanSmartList(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SmartList{}, ErrNotFound
		}
		return domain.SmartList{}, fmt.Errorf("failed to get smart list: %w", err)
	}
	return r.withContactCount(ctx, list)
}

// List retrieves the owner's smart lists in display order.
func (r *smartListRepository) List(ctx context.Context, ownerID uuid.UUID) ([]domain.SmartList, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+smartListColumns+` FROM smart_lists WHERE owner_id = $1 ORDER BY list_index`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list smart lists: %w", err)
	}
	defer rows.Close()

	lists := []domain.SmartList{}
	for rows.Next() {
		list, err := scanSmartList(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan smart list: %w", err)
		}
		lists = append(lists, list)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read smart lists: %w", err)
	}

	for i := range lists {
		lists[i], err = r.withContactCount(ctx, lists[i])
		if err != nil {
			return nil, err
		}
	}
	return lists, nil
}

// Rename updates the list's name and description.
func (r *smartListRepository) Rename(ctx context.Context, id uuid.UUID, name, description string) (domain.SmartList, error) {
	if name == "" {
		return domain.SmartList{}, fmt.Errorf("smart list name is required")
	}
	row := r.pool.QueryRow(ctx,
		`UPDATE smart_lists SET name = $2, description = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+smartListColumns,
		id, name, description)
	list, err := scanSmartList(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SmartList{}, ErrNotFound
		}
		return domain.SmartList{}, fmt.Errorf("failed to rename smart list: %w", err)
	}
	return r.withContactCount(ctx, list)
}

// SetFilterCriteria replaces the list's criteria. Writing identical criteria
// twice yields the same persisted state.
func (r *smartListRepository) SetFilterCriteria(ctx context.Context, id uuid.UUID, criteria domain.FilterCriteria) (domain.SmartList, error) {
	if err := criteria.Validate(); err != nil {
		return domain.SmartList{}, fmt.Errorf("invalid filter criteria: %w", err)
	}
	if criteria == nil {
		criteria = domain.FilterCriteria{}
	}
	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return domain.SmartList{}, fmt.Errorf("failed to marshal filter criteria: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE smart_lists SET filter_criteria = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+smartListColumns,
		id, criteriaJSON)
	list, err := scanSmartList(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SmartList{}, ErrNotFound
		}
		return domain.SmartList{}, fmt.Errorf("failed to set filter criteria: %w", err)
	}
	return r.withContactCount(ctx, list)
}

// Delete removes the list and closes the gap its index leaves behind, so the
// owner's indices stay contiguous.
func (r *smartListRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			ownerID   uuid.UUID
			listIndex int
		)
		err := tx.QueryRow(ctx,
			`DELETE FROM smart_lists WHERE id = $1 RETURNING owner_id, list_index`, id,
		).Scan(&ownerID, &listIndex)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to delete smart list: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE smart_lists SET list_index = list_index - 1
			 WHERE owner_id = $1 AND list_index > $2`,
			ownerID, listIndex,
		); err != nil {
			return fmt.Errorf("failed to resequence smart lists: %w", err)
		}
		return nil
	})
}

// Reorder applies a full permutation of the owner's lists in one transaction.
// The batch is rejected wholesale when it does not cover exactly the owner's
// lists with indices {1..N}; partial application never happens.
func (r *smartListRepository) Reorder(ctx context.Context, ownerID uuid.UUID, items []domain.ReorderItem) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT id FROM smart_lists WHERE owner_id = $1 FOR UPDATE`, ownerID)
		if err != nil {
			return fmt.Errorf("failed to lock smart lists: %w", err)
		}
		owned := make(map[uuid.UUID]struct{})
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan smart list id: %w", err)
			}
			owned[id] = struct{}{}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to read smart list ids: %w", err)
		}

		if err := domain.ValidateReorder(items, len(owned)); err != nil {
			return fmt.Errorf("%w: %v", ErrReorderConflict, err)
		}
		for _, item := range items {
			if _, ok := owned[item.ID]; !ok {
				return fmt.Errorf("%w: list %s does not belong to owner %s", ErrReorderConflict, item.ID, ownerID)
			}
		}

		for _, item := range items {
			if _, err := tx.Exec(ctx,
				`UPDATE smart_lists SET list_index = $2, updated_at = now() WHERE id = $1`,
				item.ID, item.ListIndex,
			); err != nil {
				return fmt.Errorf("failed to update list index: %w", err)
			}
		}
		return nil
	})
}

func (r *smartListRepository) withContactCount(ctx context.Context, list domain.SmartList) (domain.SmartList, error) {
	count, err := r.contacts.CountByCriteria(ctx, list.OwnerID, list.FilterCriteria)
	if err != nil {
		return domain.SmartList{}, fmt.Errorf("failed to count matching contacts: %w", err)
	}
	list.ContactCount = count
	return list, nil
}

func scanSmartList(row pgx.Row) (domain.SmartList, error) {
	var (
		list         domain.SmartList
		criteriaJSON []byte
	)
	if err := row.Scan(
		&list.ID,
		&list.OwnerID,
		&list.Name,
		&list.Description,
		&criteriaJSON,
		&list.ListIndex,
		&list.CreatedAt,
		&list.UpdatedAt,
	); err != nil {
		return domain.SmartList{}, err
	}
	if err := json.Unmarshal(criteriaJSON, &list.FilterCriteria); err != nil {
		return domain.SmartList{}, fmt.Errorf("failed to decode filter criteria for list %s: %w", list.ID, err)
	}
	if list.FilterCriteria == nil {
		list.FilterCriteria = domain.FilterCriteria{}
	}
	return list, nil
}
