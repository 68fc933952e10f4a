package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hearthside/crm/internal/domain"
)

// scalar filter fields map directly onto contacts columns.
var criteriaColumns = map[domain.FilterField]string{
	domain.FieldFirstName:  "first_name",
	domain.FieldLastName:   "last_name",
	domain.FieldBirthdate:  "birthdate",
	domain.FieldSource:     "source",
	domain.FieldStatus:     "status",
	domain.FieldAddress:    "address",
	domain.FieldCity:       "city",
	domain.FieldState:      "state",
	domain.FieldZipCode:    "zip_code",
	domain.FieldLender:     "lender",
	domain.FieldPriceRange: "price_range",
	domain.FieldTimeframe:  "timeframe",
}

// buildCriteriaWhere translates filter criteria into a conjunctive WHERE
// fragment over the contacts table (aliased c). Placeholders start at
// $startArg; the owner scope condition is the caller's job. An empty criteria
// yields an empty fragment, which matches every contact in scope.
func buildCriteriaWhere(criteria domain.FilterCriteria, startArg int) (string, []any, error) {
	if err := criteria.Validate(); err != nil {
		return "", nil, err
	}

	var (
		conds []string
		args  []any
	)
	arg := startArg
	next := func(value any) string {
		args = append(args, value)
		placeholder := "$" + strconv.Itoa(arg)
		arg++
		return placeholder
	}

	// Iterate in the fixed field order so the generated SQL is stable.
	for _, field := range domain.FilterFields() {
		value, ok := criteria[field]
		if !ok {
			continue
		}
		switch field {
		case domain.FieldTagID:
			if value.IsList() {
				conds = append(conds, fmt.Sprintf(
					"EXISTS (SELECT 1 FROM contact_tags ct WHERE ct.contact_id = c.id AND ct.tag_id = ANY(%s::uuid[]))",
					next(value.List)))
			} else {
				conds = append(conds, fmt.Sprintf(
					"EXISTS (SELECT 1 FROM contact_tags ct WHERE ct.contact_id = c.id AND ct.tag_id = %s::uuid)",
					next(value.Scalar)))
			}
		case domain.FieldLastContactedDays:
			days, err := lastContactedDays(value)
			if err != nil {
				return "", nil, err
			}
			conds = append(conds, fmt.Sprintf(
				"c.last_contacted_at >= now() - (%s || ' days')::interval",
				next(days)))
		default:
			column, known := criteriaColumns[field]
			if !known {
				return "", nil, fmt.Errorf("no column mapping for filter field %q", field)
			}
			if value.IsList() {
				conds = append(conds, fmt.Sprintf("c.%s = ANY(%s)", column, next(value.List)))
			} else {
				conds = append(conds, fmt.Sprintf("c.%s = %s", column, next(value.Scalar)))
			}
		}
	}

	if len(conds) == 0 {
		return "", nil, nil
	}
	return " AND " + strings.Join(conds, " AND "), args, nil
}

// lastContactedDays resolves the day window. A list value keeps the widest
// window so the inclusion semantic (match any of the values) is preserved.
func lastContactedDays(value domain.FilterValue) (int, error) {
	parse := func(raw string) (int, error) {
		days, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return 0, fmt.Errorf("invalid last_contacted_days value %q: %w", raw, err)
		}
		if days < 0 {
			return 0, fmt.Errorf("last_contacted_days must be non-negative, got %d", days)
		}
		return days, nil
	}

	if !value.IsList() {
		return parse(value.Scalar)
	}
	max := 0
	for _, raw := range value.List {
		days, err := parse(raw)
		if err != nil {
			return 0, err
		}
		if days > max {
			max = days
		}
	}
	return max, nil
}
