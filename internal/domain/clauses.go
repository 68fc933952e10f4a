package domain

import "strings"

// ClauseOp selects how a clause value is interpreted.
type ClauseOp string

const (
	OpEquals ClauseOp = "equals"
	OpIn     ClauseOp = "in"
)

// Clause is one editable (field, operator, value) row of the filter form.
// The value is kept as raw text; splitting and trimming happen at
// serialization time.
type Clause struct {
	Field FilterField `json:"field"`
	Op    ClauseOp    `json:"op"`
	Value string      `json:"value"`
}

// ClauseList holds the clauses being edited for one smart list.
type ClauseList struct {
	clauses []Clause
}

// NewClauseList builds an editor seeded with the given clauses.
func NewClauseList(clauses ...Clause) *ClauseList {
	return &ClauseList{clauses: append([]Clause(nil), clauses...)}
}

// Add appends a new clause with the default field and operator.
func (l *ClauseList) Add() {
	l.clauses = append(l.clauses, Clause{Field: FieldStatus, Op: OpEquals})
}

// Update mutates one clause in place. Out-of-bounds indices are ignored; the
// editing surface never produces them.
func (l *ClauseList) Update(i int, clause Clause) {
	if i < 0 || i >= len(l.clauses) {
		return
	}
	l.clauses[i] = clause
}

// Remove deletes the clause at i. Removing the last clause leaves a
// match-all filter.
func (l *ClauseList) Remove(i int) {
	if i < 0 || i >= len(l.clauses) {
		return
	}
	l.clauses = append(l.clauses[:i], l.clauses[i+1:]...)
}

// Clauses returns a copy of the current clause rows.
func (l *ClauseList) Clauses() []Clause {
	return append([]Clause(nil), l.clauses...)
}

// Len returns the number of clause rows.
func (l *ClauseList) Len() int {
	return len(l.clauses)
}

// Serialize collapses the clause rows into persistable criteria. Clauses with
// an empty value are dropped, an "in" value is split on commas with each
// element trimmed, and when two clauses target the same field the later one
// wins. Serialize is total: it cannot fail for any well-typed clause list.
func (l *ClauseList) Serialize() FilterCriteria {
	criteria := make(FilterCriteria)
	for _, clause := range l.clauses {
		value := strings.TrimSpace(clause.Value)
		if value == "" {
			continue
		}
		if clause.Op == OpIn {
			parts := strings.Split(value, ",")
			list := make([]string, 0, len(parts))
			for _, part := range parts {
				list = append(list, strings.TrimSpace(part))
			}
			criteria[clause.Field] = ListValue(list...)
			continue
		}
		criteria[clause.Field] = ScalarValue(value)
	}
	return criteria
}
