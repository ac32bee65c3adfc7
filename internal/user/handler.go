package user

import (
	"net/http"

	"github.com/gleeworld/gleeworld/internal"
	"github.com/gleeworld/gleeworld/internal/transport"
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

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	profile, err := h.Service.GetProfile(userID)
	if err != nil {
		if err == ErrUserNotFound {
			h.WriteError(w, http.StatusNotFound, "profile not found")
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profile)
}

// Directory lists active members, optionally filtered by role.
func (h *Handler) Directory(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")

	var (
		profiles []*Profile
		err      error
	)
	if role != "" {
		profiles, err = h.Service.ListByRole(role)
	} else {
		profiles, err = h.Service.ListActive()
	}
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, profiles)
}

func (h *Handler) ExecBoard(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Service.ListExecBoard()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, profiles)
}
