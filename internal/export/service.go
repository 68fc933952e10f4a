// Package export renders a smart list's matching contacts as an XLSX workbook.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hearthside/crm/internal/domain"
	"github.com/hearthside/crm/internal/repository"
)

var exportHeaders = []any{
	"First Name", "Last Name", "Status", "Source", "Address", "City", "State",
	"Zip Code", "Lender", "Price Range", "Timeframe", "Last Contacted",
}

// Service streams contact exports for smart lists.
type Service struct {
	contacts repository.ContactRepository
}

// NewService creates a new export service
func NewService(contacts repository.ContactRepository) *Service {
	return &Service{contacts: contacts}
}

// WriteWorkbook writes an XLSX workbook containing every contact that
// currently matches the list's criteria.
func (s *Service) WriteWorkbook(ctx context.Context, list domain.SmartList, w io.Writer) error {
	contacts, err := s.contacts.ListByCriteria(ctx, list.OwnerID, list.FilterCriteria)
	if err != nil {
		return fmt.Errorf("failed to list matching contacts: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &exportHeaders); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, contact := range contacts {
		lastContacted := ""
		if contact.LastContactedAt != nil {
			lastContacted = contact.LastContactedAt.UTC().Format("2006-01-02")
		}
		row := []any{
			contact.FirstName, contact.LastName, contact.Status, contact.Source,
			contact.Address, contact.City, contact.State, contact.ZipCode,
			contact.Lender, contact.PriceRange, contact.Timeframe, lastContacted,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write contact row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// FileName derives a download file name from the list's name.
func (s *Service) FileName(list domain.SmartList) string {
	base := sanitizeFileComponent(list.Name)
	if base == "" {
		base = "smart-list"
	}
	return base + ".xlsx"
}

func sanitizeFileComponent(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	builder := strings.Builder{}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			builder.WriteRune(r)
		case r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '-' || r == '_':
			builder.WriteRune(r)
		default:
			builder.WriteRune('-')
		}
	}
	return strings.Trim(builder.String(), "-")
}
