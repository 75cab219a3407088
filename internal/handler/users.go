package handler

import (
	"net/http"

	"github.com/rsud-anugerah/shift-swap/backend/internal/domain"
)

// GetAllUsers backs the partner dropdown of the swap form. Every employee
// may see the staff directory; the same-role restriction on actual swap
// partners is enforced by the workflow, not here.
func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.GetAllUsers(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	active := make([]*domain.User, 0, len(users))
	for _, user := range users {
		if user.IsActive {
			active = append(active, user)
		}
	}

	h.successResponse(w, r, "users fetched", active)
}
