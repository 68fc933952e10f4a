package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FilterField is one of the contact fields a smart list may filter on.
type FilterField string

const (
	FieldFirstName         FilterField = "first_name"
	FieldLastName          FilterField = "last_name"
	FieldBirthdate         FilterField = "birthdate"
	FieldSource            FilterField = "source"
	FieldStatus            FilterField = "status"
	FieldAddress           FilterField = "address"
	FieldCity              FilterField = "city"
	FieldState             FilterField = "state"
	FieldZipCode           FilterField = "zip_code"
	FieldLender            FilterField = "lender"
	FieldPriceRange        FilterField = "price_range"
	FieldTimeframe         FilterField = "timeframe"
	FieldTagID             FilterField = "tag_id"
	FieldLastContactedDays FilterField = "last_contacted_days"
)

var filterFields = map[FilterField]struct{}{
	FieldFirstName:         {},
	FieldLastName:          {},
	FieldBirthdate:         {},
	FieldSource:            {},
	FieldStatus:            {},
	FieldAddress:           {},
	FieldCity:              {},
	FieldState:             {},
	FieldZipCode:           {},
	FieldLender:            {},
	FieldPriceRange:        {},
	FieldTimeframe:         {},
	FieldTagID:             {},
	FieldLastContactedDays: {},
}

// Valid reports whether the field belongs to the fixed filterable set.
func (f FilterField) Valid() bool {
	_, ok := filterFields[f]
	return ok
}

// FilterFields returns the filterable contact fields in a stable order.
func FilterFields() []FilterField {
	fields := make([]FilterField, 0, len(filterFields))
	for f := range filterFields {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// FilterValue is either a single value (equality) or a list of values
// (inclusion test) for one filtered field.
type FilterValue struct {
	Scalar string
	List   []string
}

// ScalarValue builds an equality value.
func ScalarValue(v string) FilterValue {
	return FilterValue{Scalar: v}
}

// ListValue builds an inclusion value.
func ListValue(vs ...string) FilterValue {
	return FilterValue{List: vs}
}

// IsList reports whether the value is an inclusion test.
func (v FilterValue) IsList() bool {
	return v.List != nil
}

// Equal compares two filter values.
func (v FilterValue) Equal(other FilterValue) bool {
	if v.IsList() != other.IsList() {
		return false
	}
	if !v.IsList() {
		return v.Scalar == other.Scalar
	}
	if len(v.List) != len(other.List) {
		return false
	}
	for i := range v.List {
		if v.List[i] != other.List[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes a scalar as a JSON string and a list as a JSON array,
// matching the wire shape the backend query engine expects.
func (v FilterValue) MarshalJSON() ([]byte, error) {
	if v.IsList() {
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Scalar)
}

// UnmarshalJSON accepts either a string or an array of strings.
func (v *FilterValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decode filter value list: %w", err)
		}
		if list == nil {
			list = []string{}
		}
		*v = FilterValue{List: list}
		return nil
	}
	var scalar string
	if err := json.Unmarshal(data, &scalar); err != nil {
		return fmt.Errorf("decode filter value: %w", err)
	}
	*v = FilterValue{Scalar: scalar}
	return nil
}

// FilterCriteria maps filterable contact fields to the value they must match.
// An empty criteria matches every contact in the owner's scope. The client
// constructs and displays criteria; evaluation belongs to the server's query
// layer.
type FilterCriteria map[FilterField]FilterValue

// Validate rejects criteria that carry keys outside the fixed field set.
func (c FilterCriteria) Validate() error {
	for field := range c {
		if !field.Valid() {
			return fmt.Errorf("unknown filter field %q", string(field))
		}
	}
	return nil
}

// Equal compares two criteria for the idempotence check on repeated writes.
func (c FilterCriteria) Equal(other FilterCriteria) bool {
	if len(c) != len(other) {
		return false
	}
	for field, value := range c {
		ov, ok := other[field]
		if !ok || !value.Equal(ov) {
			return false
		}
	}
	return true
}

// Clone returns a copy safe for the caller to mutate.
func (c FilterCriteria) Clone() FilterCriteria {
	out := make(FilterCriteria, len(c))
	for field, value := range c {
		if value.IsList() {
			value.List = append([]string(nil), value.List...)
		}
		out[field] = value
	}
	return out
}
