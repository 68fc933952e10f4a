package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hearthside/crm/internal/auth"
	"github.com/hearthside/crm/internal/domain"
	"github.com/hearthside/crm/internal/repository"
)

func (a *api) handleCreateSmartList(w http.ResponseWriter, r *http.Request) {
	ownerID, err := parseUUID(r.PathValue("userId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := auth.EnforceOwnerScope(r.Context(), ownerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	list, err := a.lists.Create(r.Context(), ownerID, req.Name, req.Description)
	if err != nil {
		a.log.Error("create smart list", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (a *api) handleListSmartLists(w http.ResponseWriter, r *http.Request) {
	ownerID, err := parseUUID(r.PathValue("userId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := auth.EnforceOwnerScope(r.Context(), ownerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	lists, err := a.lists.List(r.Context(), ownerID)
	if err != nil {
		a.log.Error("list smart lists", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// handleSmartListGet serves both fetch-one and list-all. An id equal to the
// authenticated owner means the owner's index; any other id is read as a list
// id, so listing requires the owner scope header.
func (a *api) handleSmartListGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	scoped, ok := auth.OwnerIDFromContext(r.Context())
	if ok && scoped == id {
		r.SetPathValue("userId", id.String())
		a.handleListSmartLists(w, r)
		return
	}

	list, err := a.lists.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if ok {
				// A scoped caller naming neither its own index nor a list
				// is asking for someone else's index.
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		a.log.Error("get smart list", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := auth.EnforceOwnerScope(r.Context(), list.OwnerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleSmartListPut routes the overlapping PUT shapes to their handlers.
func (a *api) handleSmartListPut(w http.ResponseWriter, r *http.Request) {
	seg1, seg2 := r.PathValue("seg1"), r.PathValue("seg2")
	switch {
	case seg1 == "name":
		r.SetPathValue("listId", seg2)
		a.handleUpdateSmartList(w, r)
	case seg1 == "order":
		r.SetPathValue("userId", seg2)
		a.handleReorderSmartLists(w, r)
	case seg2 == "filter":
		r.SetPathValue("listId", seg1)
		a.handleSetFilterCriteria(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (a *api) handleSetFilterCriteria(w http.ResponseWriter, r *http.Request) {
	listID, err := parseUUID(r.PathValue("listId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	var req struct {
		FilterCriteria domain.FilterCriteria `json:"filter_criteria"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.FilterCriteria == nil {
		req.FilterCriteria = domain.FilterCriteria{}
	}
	if err := req.FilterCriteria.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := a.lists.GetByID(r.Context(), listID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		a.log.Error("get smart list", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := auth.EnforceOwnerScope(r.Context(), list.OwnerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	list, err = a.lists.SetFilterCriteria(r.Context(), listID, req.FilterCriteria)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		a.log.Error("set filter criteria", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleUpdateSmartList is the combined rename/describe/set-filter variant.
func (a *api) handleUpdateSmartList(w http.ResponseWriter, r *http.Request) {
	listID, err := parseUUID(r.PathValue("listId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	var req struct {
		Name           *string               `json:"name"`
		Description    *string               `json:"description"`
		FilterCriteria domain.FilterCriteria `json:"filter_criteria"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.FilterCriteria != nil {
		if err := req.FilterCriteria.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	list, err := a.lists.GetByID(r.Context(), listID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		a.log.Error("get smart list", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := auth.EnforceOwnerScope(r.Context(), list.OwnerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if req.Name != nil || req.Description != nil {
		name := list.Name
		if req.Name != nil {
			name = *req.Name
		}
		description := list.Description
		if req.Description != nil {
			description = *req.Description
		}
		if list, err = a.lists.Rename(r.Context(), listID, name, description); err != nil {
			a.log.Error("rename smart list", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	if req.FilterCriteria != nil {
		if list, err = a.lists.SetFilterCriteria(r.Context(), listID, req.FilterCriteria); err != nil {
			a.log.Error("set filter criteria", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *api) handleReorderSmartLists(w http.ResponseWriter, r *http.Request) {
	ownerID, err := parseUUID(r.PathValue("userId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := auth.EnforceOwnerScope(r.Context(), ownerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var items []domain.ReorderItem
	if err := readJSON(w, r, &items); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := a.lists.Reorder(r.Context(), ownerID, items); err != nil {
		if errors.Is(err, repository.ErrReorderConflict) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		a.log.Error("reorder smart lists", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	lists, err := a.lists.List(r.Context(), ownerID)
	if err != nil {
		a.log.Error("list smart lists after reorder", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (a *api) handleDeleteSmartList(w http.ResponseWriter, r *http.Request) {
	listID, err := parseUUID(r.PathValue("listId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	list, err := a.lists.GetByID(r.Context(), listID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		a.log.Error("get smart list", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := auth.EnforceOwnerScope(r.Context(), list.OwnerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := a.lists.Delete(r.Context(), listID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		a.log.Error("delete smart list", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *api) handleSmartListContacts(w http.ResponseWriter, r *http.Request) {
	listID, err := parseUUID(r.PathValue("listId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	list, err := a.lists.GetByID(r.Context(), listID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		a.log.Error("get smart list", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := auth.EnforceOwnerScope(r.Context(), list.OwnerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	contacts, err := a.contacts.ListByCriteria(r.Context(), list.OwnerID, list.FilterCriteria)
	if err != nil {
		a.log.Error("list matching contacts", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"contacts": contacts,
		"count":    len(contacts),
	})
}

func (a *api) handleExportSmartList(w http.ResponseWriter, r *http.Request) {
	listID, err := parseUUID(r.PathValue("listId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	list, err := a.lists.GetByID(r.Context(), listID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		a.log.Error("get smart list", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := auth.EnforceOwnerScope(r.Context(), list.OwnerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.exporter.FileName(list)))
	if err := a.exporter.WriteWorkbook(r.Context(), list, w); err != nil {
		// Headers are already out; all we can do is log.
		a.log.Error("export smart list", "err", err)
	}
}
