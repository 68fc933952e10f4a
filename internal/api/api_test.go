package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/hearthside/crm/internal/domain"
	"github.com/hearthside/crm/internal/export"
	"github.com/hearthside/crm/internal/repository/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := New(store.SmartLists(), store.Contacts(), export.NewService(store.Contacts()), log)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reqBody = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}

func seedContacts(t *testing.T, store *memory.Store, ownerID uuid.UUID, statuses ...string) {
	t.Helper()
	for i, status := range statuses {
		_, err := store.Contacts().Create(context.Background(), domain.Contact{
			OwnerID:   ownerID,
			FirstName: fmt.Sprintf("Contact%d", i),
			LastName:  "Seed",
			Status:    status,
		})
		if err != nil {
			t.Fatalf("seed contact: %v", err)
		}
	}
}

func TestCreateSmartList(t *testing.T) {
	srv, store := newTestServer(t)
	ownerID := uuid.New()
	seedContacts(t, store, ownerID, "active", "new")

	resp, data := doJSON(t, http.MethodPost, srv.URL+"/smart-lists/"+ownerID.String(),
		map[string]string{"name": "Hot Leads"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, data)
	}

	var list domain.SmartList
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Name != "Hot Leads" || list.ListIndex != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}
	if len(list.FilterCriteria) != 0 {
		t.Fatalf("new list should have empty criteria: %#v", list.FilterCriteria)
	}
	if list.ContactCount != 2 {
		t.Fatalf("empty criteria should match every contact, got count %d", list.ContactCount)
	}
}

func TestCreateSmartList_EmptyNameRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	ownerID := uuid.New()

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/smart-lists/"+ownerID.String(),
		map[string]string{"name": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSetFilterCriteria_NarrowsCount(t *testing.T) {
	srv, store := newTestServer(t)
	ownerID := uuid.New()
	seedContacts(t, store, ownerID, "active", "active", "new")

	_, data := doJSON(t, http.MethodPost, srv.URL+"/smart-lists/"+ownerID.String(),
		map[string]string{"name": "Active"})
	var list domain.SmartList
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}

	resp, data := doJSON(t, http.MethodPut, srv.URL+"/smart-lists/"+list.ID.String()+"/filter",
		map[string]any{"filter_criteria": map[string]any{"status": "active"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}
	var updated domain.SmartList
	if err := json.Unmarshal(data, &updated); err != nil {
		t.Fatalf("decode updated list: %v", err)
	}
	if updated.ContactCount != 2 {
		t.Fatalf("expected 2 matching contacts, got %d", updated.ContactCount)
	}
	if got := updated.FilterCriteria[domain.FieldStatus]; got.Scalar != "active" {
		t.Fatalf("criteria not persisted: %#v", updated.FilterCriteria)
	}
}

func TestSetFilterCriteria_UnknownFieldRejected(t *testing.T) {
	srv, store := newTestServer(t)
	ownerID := uuid.New()
	list, err := store.SmartLists().Create(context.Background(), ownerID, "Leads", "")
	if err != nil {
		t.Fatalf("create list: %v", err)
	}

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/smart-lists/"+list.ID.String()+"/filter",
		map[string]any{"filter_criteria": map[string]any{"budget": "high"}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestReorder_AppliesPermutation(t *testing.T) {
	srv, store := newTestServer(t)
	ownerID := uuid.New()
	ctx := context.Background()

	var ids []uuid.UUID
	for _, name := range []string{"A", "B", "C"} {
		list, err := store.SmartLists().Create(ctx, ownerID, name, "")
		if err != nil {
			t.Fatalf("create list: %v", err)
		}
		ids = append(ids, list.ID)
	}

	// Move C to the front.
	items := []domain.ReorderItem{
		{ID: ids[2], ListIndex: 1},
		{ID: ids[0], ListIndex: 2},
		{ID: ids[1], ListIndex: 3},
	}
	resp, data := doJSON(t, http.MethodPut, srv.URL+"/smart-lists/order/"+ownerID.String(), items)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}

	var lists []domain.SmartList
	if err := json.Unmarshal(data, &lists); err != nil {
		t.Fatalf("decode lists: %v", err)
	}
	if len(lists) != 3 || !domain.ContiguousIndices(lists) {
		t.Fatalf("expected contiguous indices, got %+v", lists)
	}
	if lists[0].Name != "C" {
		t.Fatalf("expected C first, got %q", lists[0].Name)
	}
}

func TestReorder_ConflictOnBadBatch(t *testing.T) {
	srv, store := newTestServer(t)
	ownerID := uuid.New()
	ctx := context.Background()

	a, _ := store.SmartLists().Create(ctx, ownerID, "A", "")
	if _, err := store.SmartLists().Create(ctx, ownerID, "B", ""); err != nil {
		t.Fatalf("create list: %v", err)
	}

	// Batch covers only one of two lists.
	items := []domain.ReorderItem{{ID: a.ID, ListIndex: 1}}
	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/smart-lists/order/"+ownerID.String(), items)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestDelete_ResequencesIndices(t *testing.T) {
	srv, store := newTestServer(t)
	ownerID := uuid.New()
	ctx := context.Background()

	if _, err := store.SmartLists().Create(ctx, ownerID, "A", ""); err != nil {
		t.Fatalf("create list: %v", err)
	}
	b, _ := store.SmartLists().Create(ctx, ownerID, "B", "")
	c, _ := store.SmartLists().Create(ctx, ownerID, "C", "")

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/smart-lists/"+b.ID.String(), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	lists, err := store.SmartLists().List(ctx, ownerID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lists) != 2 || !domain.ContiguousIndices(lists) {
		t.Fatalf("expected contiguous indices after delete, got %+v", lists)
	}
	if lists[1].ID != c.ID || lists[1].ListIndex != 2 {
		t.Fatalf("expected C at index 2, got %+v", lists[1])
	}
}

func TestDelete_MissingListIs404(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/smart-lists/"+uuid.NewString(), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestOwnerScope_MismatchForbidden(t *testing.T) {
	srv, _ := newTestServer(t)
	ownerID := uuid.New()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/smart-lists/"+ownerID.String(), nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("X-Owner-ID", uuid.NewString())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestSmartListContacts(t *testing.T) {
	srv, store := newTestServer(t)
	ownerID := uuid.New()
	ctx := context.Background()
	seedContacts(t, store, ownerID, "active", "new")

	list, _ := store.SmartLists().Create(ctx, ownerID, "Active", "")
	if _, err := store.SmartLists().SetFilterCriteria(ctx, list.ID,
		domain.FilterCriteria{domain.FieldStatus: domain.ScalarValue("active")}); err != nil {
		t.Fatalf("set criteria: %v", err)
	}

	resp, data := doJSON(t, http.MethodGet, srv.URL+"/smart-lists/"+list.ID.String()+"/contacts", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}
	var payload struct {
		Contacts []domain.Contact `json:"contacts"`
		Count    int              `json:"count"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Count != 1 || len(payload.Contacts) != 1 {
		t.Fatalf("expected exactly one matching contact, got %+v", payload)
	}
	if payload.Contacts[0].Status != "active" {
		t.Fatalf("wrong contact matched: %+v", payload.Contacts[0])
	}
}

func TestExportSmartList_ServesWorkbook(t *testing.T) {
	srv, store := newTestServer(t)
	ownerID := uuid.New()
	seedContacts(t, store, ownerID, "active")
	list, _ := store.SmartLists().Create(context.Background(), ownerID, "All Contacts", "")

	resp, data := doJSON(t, http.MethodGet, srv.URL+"/smart-lists/"+list.ID.String()+"/export", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if len(data) == 0 {
		t.Fatalf("expected workbook bytes")
	}
	// XLSX files are zip archives.
	if data[0] != 'P' || data[1] != 'K' {
		t.Fatalf("expected zip magic, got %q", data[:2])
	}
}

func TestCreateAndListContacts(t *testing.T) {
	srv, _ := newTestServer(t)
	ownerID := uuid.New()

	resp, data := doJSON(t, http.MethodPost, srv.URL+"/contacts/"+ownerID.String(),
		map[string]string{"first_name": "Dana", "last_name": "Reyes", "status": "active"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, data)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/contacts/"+ownerID.String(),
		map[string]string{"status": "active"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("nameless contact should be rejected, got %d", resp.StatusCode)
	}

	resp, data = doJSON(t, http.MethodGet, srv.URL+"/contacts/"+ownerID.String(), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var contacts []domain.Contact
	if err := json.Unmarshal(data, &contacts); err != nil {
		t.Fatalf("decode contacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].FirstName != "Dana" {
		t.Fatalf("unexpected contacts: %+v", contacts)
	}
}

func doJSONScoped(t *testing.T, ownerID uuid.UUID, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reqBody = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Owner-ID", ownerID.String())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}

func TestDelete_OtherOwnerForbidden(t *testing.T) {
	srv, store := newTestServer(t)
	ownerID := uuid.New()
	list, err := store.SmartLists().Create(context.Background(), ownerID, "Hot Leads", "")
	if err != nil {
		t.Fatalf("create list: %v", err)
	}

	resp, _ := doJSONScoped(t, uuid.New(), http.MethodDelete, srv.URL+"/smart-lists/"+list.ID.String(), nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if _, err := store.SmartLists().GetByID(context.Background(), list.ID); err != nil {
		t.Fatalf("list should survive a cross-owner delete: %v", err)
	}
}

func TestSetFilterCriteria_OtherOwnerForbidden(t *testing.T) {
	srv, store := newTestServer(t)
	ownerID := uuid.New()
	list, err := store.SmartLists().Create(context.Background(), ownerID, "Hot Leads", "")
	if err != nil {
		t.Fatalf("create list: %v", err)
	}

	resp, _ := doJSONScoped(t, uuid.New(), http.MethodPut, srv.URL+"/smart-lists/"+list.ID.String()+"/filter",
		map[string]any{"filter_criteria": map[string]any{"status": "active"}})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	current, err := store.SmartLists().GetByID(context.Background(), list.ID)
	if err != nil {
		t.Fatalf("get list: %v", err)
	}
	if len(current.FilterCriteria) != 0 {
		t.Fatalf("criteria should survive a cross-owner write: %#v", current.FilterCriteria)
	}
}

func TestCreateSmartList_WhitespaceNameRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	ownerID := uuid.New()

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/smart-lists/"+ownerID.String(),
		map[string]string{"name": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/smart-lists/name/"+uuid.NewString(),
		map[string]string{"name": "\t "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 from combined update, got %d", resp.StatusCode)
	}
}

func TestGet_MissingListIs404(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/smart-lists/"+uuid.NewString(), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
