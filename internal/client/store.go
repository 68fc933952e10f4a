// Package client implements the smart list entity store and the reorder
// reconciler used by presentation code. All persistence happens through the
// REST backend; the client constructs criteria and orders but never evaluates
// a filter itself.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hearthside/crm/internal/auth"
	"github.com/hearthside/crm/internal/domain"
)

// Store talks to the smart list endpoints of the backend. Every call is
// asynchronous from the UI's point of view and fire-once: there is no retry,
// and duplicate submission is the caller's concern.
type Store struct {
	baseURL string
	http    *http.Client
}

// Option customizes a Store.
type Option func(*Store)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) {
		if c != nil {
			s.http = c
		}
	}
}

// NewStore creates a store bound to the backend base URL.
func NewStore(baseURL string, opts ...Option) *Store {
	s := &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List fetches all smart lists for an owner. It fails open: on any failure it
// returns an empty slice alongside the error so the sidebar can render empty
// while the caller shows a transient warning.
func (s *Store) List(ctx context.Context, ownerID uuid.UUID) ([]domain.SmartList, error) {
	var lists []domain.SmartList
	if err := s.do(ctx, "list smart lists", http.MethodGet, "/smart-lists/"+ownerID.String(), nil, &lists); err != nil {
		return []domain.SmartList{}, err
	}
	if lists == nil {
		lists = []domain.SmartList{}
	}
	return lists, nil
}

// Get fetches one smart list.
func (s *Store) Get(ctx context.Context, listID uuid.UUID) (domain.SmartList, error) {
	var list domain.SmartList
	if err := s.do(ctx, "get smart list", http.MethodGet, "/smart-lists/"+listID.String(), nil, &list); err != nil {
		return domain.SmartList{}, err
	}
	return list, nil
}

// Create makes a new smart list with empty criteria. An empty name fails
// pre-flight with a ValidationError and never reaches the network.
func (s *Store) Create(ctx context.Context, ownerID uuid.UUID, name, description string) (domain.SmartList, error) {
	if strings.TrimSpace(name) == "" {
		return domain.SmartList{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	body := map[string]string{"name": name, "description": description}
	var list domain.SmartList
	if err := s.do(ctx, "create smart list", http.MethodPost, "/smart-lists/"+ownerID.String(), body, &list); err != nil {
		return domain.SmartList{}, err
	}
	return list, nil
}

// SetFilterCriteria persists the list's criteria. Setting identical criteria
// twice yields the same persisted state. On failure the caller keeps the edit
// surface open and shows the error.
func (s *Store) SetFilterCriteria(ctx context.Context, listID uuid.UUID, criteria domain.FilterCriteria) (domain.SmartList, error) {
	if criteria == nil {
		criteria = domain.FilterCriteria{}
	}
	if err := criteria.Validate(); err != nil {
		return domain.SmartList{}, &ValidationError{Field: "filter_criteria", Reason: err.Error()}
	}

	body := map[string]domain.FilterCriteria{"filter_criteria": criteria}
	var list domain.SmartList
	if err := s.do(ctx, "set filter criteria", http.MethodPut, "/smart-lists/"+listID.String()+"/filter", body, &list); err != nil {
		return domain.SmartList{}, err
	}
	return list, nil
}

// Rename updates the list's name and description.
func (s *Store) Rename(ctx context.Context, listID uuid.UUID, name, description string) (domain.SmartList, error) {
	if strings.TrimSpace(name) == "" {
		return domain.SmartList{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	body := map[string]string{"name": name, "description": description}
	var list domain.SmartList
	if err := s.do(ctx, "rename smart list", http.MethodPut, "/smart-lists/name/"+listID.String(), body, &list); err != nil {
		return domain.SmartList{}, err
	}
	return list, nil
}

// Delete removes a smart list. Missing list and missing permission both
// surface as the same generic RemoteError.
func (s *Store) Delete(ctx context.Context, listID uuid.UUID) error {
	return s.do(ctx, "delete smart list", http.MethodDelete, "/smart-lists/"+listID.String(), nil, nil)
}

// Reorder persists a full permutation of the owner's lists. The backend
// applies it atomically, which is what makes the reconciler's all-or-nothing
// rollback sound.
func (s *Store) Reorder(ctx context.Context, ownerID uuid.UUID, items []domain.ReorderItem) error {
	return s.do(ctx, "reorder smart lists", http.MethodPut, "/smart-lists/order/"+ownerID.String(), items, nil)
}

func (s *Store) do(ctx context.Context, op, method, path string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &RemoteError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if ownerID, ok := auth.OwnerIDFromContext(ctx); ok {
		req.Header.Set("X-Owner-ID", ownerID.String())
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return &RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		if envelope.Error == "" {
			envelope.Error = http.StatusText(resp.StatusCode)
		}
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: envelope.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &RemoteError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}
