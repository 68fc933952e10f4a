package domain

import "testing"

func TestSerialize_DropsEmptyValues(t *testing.T) {
	l := NewClauseList(
		Clause{Field: FieldStatus, Op: OpEquals, Value: "active"},
		Clause{Field: FieldCity, Op: OpEquals, Value: "   "},
		Clause{Field: FieldSource, Op: OpIn, Value: ""},
	)

	criteria := l.Serialize()
	if len(criteria) != 1 {
		t.Fatalf("expected 1 criteria entry, got %d: %#v", len(criteria), criteria)
	}
	if got := criteria[FieldStatus]; got.IsList() || got.Scalar != "active" {
		t.Fatalf("unexpected status value: %#v", got)
	}
}

func TestSerialize_InSplitsAndTrims(t *testing.T) {
	l := NewClauseList(Clause{Field: FieldSource, Op: OpIn, Value: "zillow, referral ,open house"})

	criteria := l.Serialize()
	got, ok := criteria[FieldSource]
	if !ok || !got.IsList() {
		t.Fatalf("expected list value for source, got %#v", got)
	}
	want := []string{"zillow", "referral", "open house"}
	if len(got.List) != len(want) {
		t.Fatalf("expected %d elements, got %v", len(want), got.List)
	}
	for i := range want {
		if got.List[i] != want[i] {
			t.Fatalf("element %d: expected %q, got %q", i, want[i], got.List[i])
		}
	}
}

func TestSerialize_LastWriteWinsOnDuplicateFields(t *testing.T) {
	l := NewClauseList(
		Clause{Field: FieldStatus, Op: OpEquals, Value: "new"},
		Clause{Field: FieldStatus, Op: OpEquals, Value: "active"},
	)

	criteria := l.Serialize()
	if got := criteria[FieldStatus]; got.Scalar != "active" {
		t.Fatalf("expected last write to win, got %#v", got)
	}
}

func TestSerialize_EmptyListMatchesAll(t *testing.T) {
	if criteria := NewClauseList().Serialize(); len(criteria) != 0 {
		t.Fatalf("expected empty criteria, got %#v", criteria)
	}
}

func TestClauseList_AddDefaults(t *testing.T) {
	l := NewClauseList()
	l.Add()
	clauses := l.Clauses()
	if len(clauses) != 1 {
		t.Fatalf("expected 1 clause, got %d", len(clauses))
	}
	if clauses[0].Field != FieldStatus || clauses[0].Op != OpEquals || clauses[0].Value != "" {
		t.Fatalf("unexpected default clause: %#v", clauses[0])
	}
}

func TestClauseList_UpdateOutOfBoundsIsNoop(t *testing.T) {
	l := NewClauseList(Clause{Field: FieldCity, Op: OpEquals, Value: "Austin"})
	l.Update(5, Clause{Field: FieldState, Op: OpEquals, Value: "TX"})
	l.Update(-1, Clause{Field: FieldState, Op: OpEquals, Value: "TX"})

	clauses := l.Clauses()
	if len(clauses) != 1 || clauses[0].Field != FieldCity {
		t.Fatalf("out-of-bounds update mutated the list: %#v", clauses)
	}
}

func TestClauseList_RemoveLastClauseLeavesMatchAll(t *testing.T) {
	l := NewClauseList(Clause{Field: FieldStatus, Op: OpEquals, Value: "active"})
	l.Remove(0)
	if l.Len() != 0 {
		t.Fatalf("expected empty clause list, got %d", l.Len())
	}
	if criteria := l.Serialize(); len(criteria) != 0 {
		t.Fatalf("expected match-all criteria, got %#v", criteria)
	}
}
