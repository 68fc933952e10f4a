package api

import (
	"net/http"

	"github.com/hearthside/crm/internal/auth"
	"github.com/hearthside/crm/internal/domain"
)

func (a *api) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	ownerID, err := parseUUID(r.PathValue("userId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := auth.EnforceOwnerScope(r.Context(), ownerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var contact domain.Contact
	if err := readJSON(w, r, &contact); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if contact.FirstName == "" && contact.LastName == "" {
		writeError(w, http.StatusBadRequest, "contact name is required")
		return
	}
	contact.OwnerID = ownerID

	created, err := a.contacts.Create(r.Context(), contact)
	if err != nil {
		a.log.Error("create contact", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *api) handleListContacts(w http.ResponseWriter, r *http.Request) {
	ownerID, err := parseUUID(r.PathValue("userId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := auth.EnforceOwnerScope(r.Context(), ownerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	contacts, err := a.contacts.ListByCriteria(r.Context(), ownerID, domain.FilterCriteria{})
	if err != nil {
		a.log.Error("list contacts", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}
