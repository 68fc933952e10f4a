// Package api exposes the smart list and contact collections over REST.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hearthside/crm/internal/auth"
	"github.com/hearthside/crm/internal/export"
	"github.com/hearthside/crm/internal/repository"
)

type api struct {
	lists    repository.SmartListRepository
	contacts repository.ContactRepository
	exporter *export.Service
	log      *slog.Logger
}

// New builds the REST handler set over the given repositories.
func New(lists repository.SmartListRepository, contacts repository.ContactRepository, exporter *export.Service, log *slog.Logger) http.Handler {
	a := &api{lists: lists, contacts: contacts, exporter: exporter, log: log}
	mux := http.NewServeMux()
	a.routes(mux)
	return a.withOwnerScope(mux)
}

func (a *api) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", a.handleHealth)

	// Fetch-one and list-all share the /smart-lists/{id} shape, and the PUT
	// variants ({listId}/filter, name/{listId}, order/{userId}) overlap in
	// segment layout, so both groups register once and dispatch themselves.
	mux.HandleFunc("POST /smart-lists/{userId}", a.handleCreateSmartList)
	mux.HandleFunc("GET /smart-lists/{id}", a.handleSmartListGet)
	mux.HandleFunc("PUT /smart-lists/{seg1}/{seg2}", a.handleSmartListPut)
	mux.HandleFunc("DELETE /smart-lists/{listId}", a.handleDeleteSmartList)
	mux.HandleFunc("GET /smart-lists/{listId}/contacts", a.handleSmartListContacts)
	mux.HandleFunc("GET /smart-lists/{listId}/export", a.handleExportSmartList)

	mux.HandleFunc("POST /contacts/{userId}", a.handleCreateContact)
	mux.HandleFunc("GET /contacts/{userId}", a.handleListContacts)
}

// withOwnerScope threads the authenticated owner identity, when the session
// layer provides one, into the request context. Scope checks happen in the
// handlers; requests without the header pass through unscoped.
func (a *api) withOwnerScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get("X-Owner-ID"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid owner id header")
				return
			}
			r = r.WithContext(auth.ContextWithOwnerID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func parseUUID(s string) (uuid.UUID, error) { return uuid.Parse(s) }

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, r.Body)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}
