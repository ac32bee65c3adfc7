package module

import (
	"encoding/json"
	"net/http"

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

// ListActive returns the modules currently switched on, in display order.
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	modules, err := h.Service.ListActive()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, modules)
}

// ListAll includes inactive modules, for the admin toggle screen.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	modules, err := h.Service.ListAll()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, modules)
}

type setActiveDTO struct {
	IsActive bool `json:"is_active"`
}

func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var dto setActiveDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.SetActive(name, dto.IsActive); err != nil {
		if err == ErrModuleNotFound {
			h.WriteError(w, http.StatusNotFound, "module not found")
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
