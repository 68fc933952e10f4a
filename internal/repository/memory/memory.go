// Package memory holds an in-process implementation of the repository
// interfaces. It mirrors the Postgres semantics, contiguous list indices
// included, and backs handler and client tests.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hearthside/crm/internal/domain"
	"github.com/hearthside/crm/internal/repository"
)

// Store is the shared in-memory state. SmartLists() and Contacts() expose
// the repository facets over it.
type Store struct {
	mu       sync.Mutex
	lists    map[uuid.UUID]domain.SmartList
	contacts map[uuid.UUID]domain.Contact

	// reorderErr, when set, makes Reorder calls fail. Tests use it to
	// simulate backend rejection.
	reorderErr error

	now func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		lists:    make(map[uuid.UUID]domain.SmartList),
		contacts: make(map[uuid.UUID]domain.Contact),
		now:      time.Now,
	}
}

// SmartLists returns the smart list repository facet.
func (s *Store) SmartLists() repository.SmartListRepository {
	return &smartLists{s: s}
}

// Contacts returns the contact repository facet.
func (s *Store) Contacts() repository.ContactRepository {
	return &contacts{s: s}
}

// SetReorderErr injects a failure into subsequent Reorder calls; pass nil to
// clear it.
func (s *Store) SetReorderErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reorderErr = err
}

type smartLists struct{ s *Store }

var _ repository.SmartListRepository = (*smartLists)(nil)

func (r *smartLists) Create(ctx context.Context, ownerID uuid.UUID, name, description string) (domain.SmartList, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := 1
	for _, list := range s.lists {
		if list.OwnerID == ownerID && list.ListIndex >= nextIndex {
			nextIndex = list.ListIndex + 1
		}
	}

	now := s.now()
	list := domain.SmartList{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Name:           name,
		Description:    description,
		FilterCriteria: domain.FilterCriteria{},
		ListIndex:      nextIndex,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.lists[list.ID] = list
	return s.withCountLocked(list), nil
}

func (r *smartLists) GetByID(ctx context.Context, id uuid.UUID) (domain.SmartList, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[id]
	if !ok {
		return domain.SmartList{}, repository.ErrNotFound
	}
	return s.withCountLocked(list), nil
}

func (r *smartLists) List(ctx context.Context, ownerID uuid.UUID) ([]domain.SmartList, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	lists := []domain.SmartList{}
	for _, list := range s.lists {
		if list.OwnerID == ownerID {
			lists = append(lists, s.withCountLocked(list))
		}
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].ListIndex < lists[j].ListIndex })
	return lists, nil
}

func (r *smartLists) Rename(ctx context.Context, id uuid.UUID, name, description string) (domain.SmartList, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[id]
	if !ok {
		return domain.SmartList{}, repository.ErrNotFound
	}
	list.Name = name
	list.Description = description
	list.UpdatedAt = s.now()
	s.lists[id] = list
	return s.withCountLocked(list), nil
}

func (r *smartLists) SetFilterCriteria(ctx context.Context, id uuid.UUID, criteria domain.FilterCriteria) (domain.SmartList, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[id]
	if !ok {
		return domain.SmartList{}, repository.ErrNotFound
	}
	if criteria == nil {
		criteria = domain.FilterCriteria{}
	}
	list.FilterCriteria = criteria.Clone()
	list.UpdatedAt = s.now()
	s.lists[id] = list
	return s.withCountLocked(list), nil
}

func (r *smartLists) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.lists[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(s.lists, id)
	for lid, other := range s.lists {
		if other.OwnerID == list.OwnerID && other.ListIndex > list.ListIndex {
			other.ListIndex--
			s.lists[lid] = other
		}
	}
	return nil
}

func (r *smartLists) Reorder(ctx context.Context, ownerID uuid.UUID, items []domain.ReorderItem) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reorderErr != nil {
		return s.reorderErr
	}

	owned := 0
	for _, list := range s.lists {
		if list.OwnerID == ownerID {
			owned++
		}
	}
	if err := domain.ValidateReorder(items, owned); err != nil {
		return repository.ErrReorderConflict
	}
	for _, item := range items {
		list, ok := s.lists[item.ID]
		if !ok || list.OwnerID != ownerID {
			return repository.ErrReorderConflict
		}
	}

	now := s.now()
	for _, item := range items {
		list := s.lists[item.ID]
		list.ListIndex = item.ListIndex
		list.UpdatedAt = now
		s.lists[item.ID] = list
	}
	return nil
}

type contacts struct{ s *Store }

var _ repository.ContactRepository = (*contacts)(nil)

func (r *contacts) Create(ctx context.Context, contact domain.Contact) (domain.Contact, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	contact.ID = uuid.New()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	s.contacts[contact.ID] = contact
	return contact, nil
}

func (r *contacts) ListByCriteria(ctx context.Context, ownerID uuid.UUID, criteria domain.FilterCriteria) ([]domain.Contact, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchLocked(ownerID, criteria), nil
}

func (r *contacts) CountByCriteria(ctx context.Context, ownerID uuid.UUID, criteria domain.FilterCriteria) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matchLocked(ownerID, criteria)), nil
}

func (s *Store) withCountLocked(list domain.SmartList) domain.SmartList {
	list.ContactCount = len(s.matchLocked(list.OwnerID, list.FilterCriteria))
	list.FilterCriteria = list.FilterCriteria.Clone()
	return list
}

func (s *Store) matchLocked(ownerID uuid.UUID, criteria domain.FilterCriteria) []domain.Contact {
	matched := []domain.Contact{}
	for _, contact := range s.contacts {
		if contact.OwnerID != ownerID {
			continue
		}
		if s.matches(contact, criteria) {
			matched = append(matched, contact)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].LastName != matched[j].LastName {
			return matched[i].LastName < matched[j].LastName
		}
		return matched[i].FirstName < matched[j].FirstName
	})
	return matched
}

// matches applies conjunctive criteria to one contact, the same semantics
// the SQL builder produces.
func (s *Store) matches(contact domain.Contact, criteria domain.FilterCriteria) bool {
	for field, value := range criteria {
		switch field {
		case domain.FieldTagID:
			if !matchTag(contact, value) {
				return false
			}
		case domain.FieldLastContactedDays:
			if !matchRecency(contact, value, s.now()) {
				return false
			}
		default:
			got, ok := contact.FieldValue(field)
			if !ok || !matchValue(got, value) {
				return false
			}
		}
	}
	return true
}

func matchValue(got string, value domain.FilterValue) bool {
	if !value.IsList() {
		return got == value.Scalar
	}
	for _, candidate := range value.List {
		if got == candidate {
			return true
		}
	}
	return false
}

func matchTag(contact domain.Contact, value domain.FilterValue) bool {
	want := value.List
	if !value.IsList() {
		want = []string{value.Scalar}
	}
	for _, tagID := range contact.TagIDs {
		for _, candidate := range want {
			if tagID.String() == strings.TrimSpace(candidate) {
				return true
			}
		}
	}
	return false
}

func matchRecency(contact domain.Contact, value domain.FilterValue, now time.Time) bool {
	if contact.LastContactedAt == nil {
		return false
	}
	raw := value.Scalar
	if value.IsList() {
		// Widest window wins, matching the SQL builder.
		max := 0
		for _, candidate := range value.List {
			if days, err := strconv.Atoi(strings.TrimSpace(candidate)); err == nil && days > max {
				max = days
			}
		}
		raw = strconv.Itoa(max)
	}
	days, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || days < 0 {
		return false
	}
	return !contact.LastContactedAt.Before(now.AddDate(0, 0, -days))
}
