package permission

import (
	"encoding/json"
	"net/http"

	"github.com/gleeworld/gleeworld/internal"
	"github.com/gleeworld/gleeworld/internal/module"
	"github.com/gleeworld/gleeworld/internal/transport"
)

// SubjectResolver pulls the authenticated subject out of the request
// context. The auth package provides the implementation.
type SubjectResolver func(r *http.Request) (Subject, bool)

type Handler struct {
	*transport.BaseHandler
	Service *Service
	subject SubjectResolver
}

func NewHandler(svc *Service, subject SubjectResolver) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(nil),
		Service:     svc,
		subject:     subject,
	}
}

// MyAccess returns the caller's effective per-module access map. The UI
// gates navigation with this.
func (h *Handler) MyAccess(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	access, err := h.Service.EffectiveAccess(subject)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, access)
}

// ListGrants returns stored grants for one subject, for the admin matrix.
func (h *Handler) ListGrants(w http.ResponseWriter, r *http.Request) {
	kindParam := r.URL.Query().Get("subject_kind")
	subjectID := r.URL.Query().Get("subject_id")

	kind, err := ParseSubjectKind(kindParam)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if subjectID == "" {
		h.WriteError(w, http.StatusBadRequest, "subject_id is required")
		return
	}

	grants, err := h.Service.ListGrants(kind, subjectID, r.URL.Query().Get("module"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, grants)
}

// Toggle flips one permission checkbox, cascading the manage-implies-view
// invariant server-side.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	var dto ToggleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	grantedBy := internal.UserIDFromContext(r.Context())

	if err := h.Service.Toggle(r.Context(), dto, grantedBy); err != nil {
		if err == module.ErrModuleNotFound {
			h.WriteError(w, http.StatusNotFound, "module not found")
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var dto UpsertGrantDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	grantedBy := internal.UserIDFromContext(r.Context())

	if err := h.Service.UpsertGrant(r.Context(), dto, grantedBy); err != nil {
		if err == module.ErrModuleNotFound {
			h.WriteError(w, http.StatusNotFound, "module not found")
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	var dto DeleteGrantDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.DeleteGrant(r.Context(), dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
