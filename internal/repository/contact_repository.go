package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hearthside/crm/internal/domain"
)

// contactRepository implements ContactRepository backed by Postgres. It is the
// query engine side of the filter contract: given criteria it returns the
// exact current set of matching contacts for the owner.
type contactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository creates a new contact repository
func NewContactRepository(pool *pgxpool.Pool) ContactRepository {
	return &contactRepository{pool: pool}
}

// contactColumns ends with the aggregated tag ids so every read path returns
// the same shape the in-memory repository produces.
const contactColumns = `c.id, c.owner_id, c.first_name, c.last_name, c.birthdate, c.source,
	c.status, c.address, c.city, c.state, c.zip_code, c.lender, c.price_range,
	c.timeframe, c.last_contacted_at, c.created_at, c.updated_at,
	ARRAY(SELECT ct.tag_id FROM contact_tags ct WHERE ct.contact_id = c.id ORDER BY ct.tag_id)`

// Create inserts a contact together with its tag associations.
func (r *contactRepository) Create(ctx context.Context, contact domain.Contact) (domain.Contact, error) {
	var created domain.Contact
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO contacts AS c (owner_id, first_name, last_name, birthdate, source, status,
				address, city, state, zip_code, lender, price_range, timeframe, last_contacted_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			 RETURNING `+contactColumns,
			contact.OwnerID, contact.FirstName, contact.LastName, contact.Birthdate,
			contact.Source, contact.Status, contact.Address, contact.City, contact.State,
			contact.ZipCode, contact.Lender, contact.PriceRange, contact.Timeframe,
			contact.LastContactedAt,
		)
		var err error
		created, err = scanContact(row)
		if err != nil {
			return fmt.Errorf("failed to create contact: %w", err)
		}

		for _, tagID := range contact.TagIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO contact_tags (contact_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				created.ID, tagID,
			); err != nil {
				return fmt.Errorf("failed to tag contact: %w", err)
			}
		}
		created.TagIDs = append([]uuid.UUID(nil), contact.TagIDs...)
		return nil
	})
	if err != nil {
		return domain.Contact{}, err
	}
	return created, nil
}

// ListByCriteria returns every contact of the owner satisfying all criteria
// clauses. Empty criteria matches the whole collection.
func (r *contactRepository) ListByCriteria(ctx context.Context, ownerID uuid.UUID, criteria domain.FilterCriteria) ([]domain.Contact, error) {
	where, args, err := buildCriteriaWhere(criteria, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to build contact filter: %w", err)
	}

	query := `SELECT ` + contactColumns + ` FROM contacts c WHERE c.owner_id = $1` + where +
		` ORDER BY c.last_name, c.first_name, c.id`
	rows, err := r.pool.Query(ctx, query, append([]any{ownerID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	contacts := []domain.Contact{}
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read contacts: %w", err)
	}
	return contacts, nil
}

// CountByCriteria returns the size of the result set ListByCriteria would
// produce right now.
func (r *contactRepository) CountByCriteria(ctx context.Context, ownerID uuid.UUID, criteria domain.FilterCriteria) (int, error) {
	where, args, err := buildCriteriaWhere(criteria, 2)
	if err != nil {
		return 0, fmt.Errorf("failed to build contact filter: %w", err)
	}

	query := `SELECT COUNT(*) FROM contacts c WHERE c.owner_id = $1` + where
	var count int
	if err := r.pool.QueryRow(ctx, query, append([]any{ownerID}, args...)...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return count, nil
}

func scanContact(row pgx.Row) (domain.Contact, error) {
	var contact domain.Contact
	if err := row.Scan(
		&contact.ID,
		&contact.OwnerID,
		&contact.FirstName,
		&contact.LastName,
		&contact.Birthdate,
		&contact.Source,
		&contact.Status,
		&contact.Address,
		&contact.City,
		&contact.State,
		&contact.ZipCode,
		&contact.Lender,
		&contact.PriceRange,
		&contact.Timeframe,
		&contact.LastContactedAt,
		&contact.CreatedAt,
		&contact.UpdatedAt,
		&contact.TagIDs,
	); err != nil {
		return domain.Contact{}, err
	}
	return contact, nil
}
