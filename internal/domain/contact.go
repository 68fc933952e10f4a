package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a CRM contact record. Smart lists reference contacts but never
// own them; the fields here mirror the filterable set plus identity and
// timestamps.
type Contact struct {
	ID              uuid.UUID   `json:"id"`
	OwnerID         uuid.UUID   `json:"owner_id"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	Birthdate       string      `json:"birthdate,omitempty"`
	Source          string      `json:"source,omitempty"`
	Status          string      `json:"status,omitempty"`
	Address         string      `json:"address,omitempty"`
	City            string      `json:"city,omitempty"`
	State           string      `json:"state,omitempty"`
	ZipCode         string      `json:"zip_code,omitempty"`
	Lender          string      `json:"lender,omitempty"`
	PriceRange      string      `json:"price_range,omitempty"`
	Timeframe       string      `json:"timeframe,omitempty"`
	TagIDs          []uuid.UUID `json:"tag_ids,omitempty"`
	LastContactedAt *time.Time  `json:"last_contacted_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// FieldValue returns the contact's value for a filterable scalar field.
// tag_id and last_contacted_days are relational and handled by the query
// layer directly.
func (c Contact) FieldValue(field FilterField) (string, bool) {
	switch field {
	case FieldFirstName:
		return c.FirstName, true
	case FieldLastName:
		return c.LastName, true
	case FieldBirthdate:
		return c.Birthdate, true
	case FieldSource:
		return c.Source, true
	case FieldStatus:
		return c.Status, true
	case FieldAddress:
		return c.Address, true
	case FieldCity:
		return c.City, true
	case FieldState:
		return c.State, true
	case FieldZipCode:
		return c.ZipCode, true
	case FieldLender:
		return c.Lender, true
	case FieldPriceRange:
		return c.PriceRange, true
	case FieldTimeframe:
		return c.Timeframe, true
	default:
		return "", false
	}
}
