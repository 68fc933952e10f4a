package domain

import (
	"encoding/json"
	"testing"
)

func TestFilterCriteria_ValidateRejectsUnknownFields(t *testing.T) {
	criteria := FilterCriteria{
		FieldStatus:           ScalarValue("active"),
		FilterField("budget"): ScalarValue("high"),
	}
	if err := criteria.Validate(); err == nil {
		t.Fatalf("expected validation error for unknown field")
	}

	delete(criteria, FilterField("budget"))
	if err := criteria.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFilterCriteria_JSONShape(t *testing.T) {
	criteria := FilterCriteria{
		FieldStatus: ScalarValue("active"),
		FieldSource: ListValue("zillow", "referral"),
	}

	data, err := json.Marshal(criteria)
	if err != nil {
		t.Fatalf("marshal criteria: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if _, ok := raw["status"].(string); !ok {
		t.Fatalf("equals value should encode as a string, got %#v", raw["status"])
	}
	if _, ok := raw["source"].([]any); !ok {
		t.Fatalf("in value should encode as an array, got %#v", raw["source"])
	}

	var decoded FilterCriteria
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode criteria: %v", err)
	}
	if !decoded.Equal(criteria) {
		t.Fatalf("round trip changed criteria: %#v vs %#v", decoded, criteria)
	}
}

func TestFilterCriteria_EqualIgnoresNothing(t *testing.T) {
	a := FilterCriteria{FieldStatus: ScalarValue("active")}
	b := FilterCriteria{FieldStatus: ListValue("active")}
	if a.Equal(b) {
		t.Fatalf("scalar and list values must not compare equal")
	}
	if !a.Equal(a.Clone()) {
		t.Fatalf("clone must compare equal to its source")
	}
}

func TestFilterFields_CoversDocumentedSet(t *testing.T) {
	fields := FilterFields()
	if len(fields) != 14 {
		t.Fatalf("expected 14 filterable fields, got %d", len(fields))
	}
	for _, f := range fields {
		if !f.Valid() {
			t.Fatalf("field %q reported invalid", f)
		}
	}
}
