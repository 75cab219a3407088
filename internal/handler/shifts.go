package handler

import (
	"net/http"
	"time"

	"github.com/rsud-anugerah/shift-swap/backend/internal/domain"
)

// GetMyUpcomingShifts lists the caller's future shifts, the ones eligible
// for a swap proposal.
func (h *Handler) GetMyUpcomingShifts(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	shifts, err := h.shifts.ListUpcomingShiftsByOwner(r.Context(), myInfo.ID, time.Now())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "shifts fetched", shifts)
}
