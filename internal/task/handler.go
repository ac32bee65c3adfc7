package task

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gleeworld/gleeworld/internal"
	"github.com/gleeworld/gleeworld/internal/transport"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(nil),
		Service:     svc,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var dto CreateTaskDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.Service.Create(r.Context(), dto, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, NewView(created, time.Now()))
}

// List returns tasks assigned to the caller. ?assigned_by=me flips to
// tasks the caller handed out; ?status=pending filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var (
		tasks []*Task
		err   error
	)
	if r.URL.Query().Get("assigned_by") == "me" {
		tasks, err = h.Service.ListAssignedBy(userID)
	} else {
		tasks, err = h.Service.ListAssignedTo(userID, r.URL.Query().Get("status"))
	}
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, NewViewSlice(tasks, time.Now()))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	t, err := h.Service.Get(id)
	if err != nil {
		if err == ErrTaskNotFound {
			h.WriteError(w, http.StatusNotFound, "task not found")
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, NewView(t, time.Now()))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var dto UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.Service.UpdateStatus(r.Context(), id, dto, userID)
	if err != nil {
		if err == ErrTaskNotFound {
			h.WriteError(w, http.StatusNotFound, "task not found")
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, NewView(updated, time.Now()))
}
