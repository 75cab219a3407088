package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rsud-anugerah/shift-swap/backend/internal/domain"
)

func (h *Handler) CreateSwapRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		TargetID int64  `json:"targetID" validate:"required"`
		ShiftID  int64  `json:"shiftID" validate:"required"`
		Reason   string `json:"reason" validate:"required,min=10"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	created, err := h.swaps.ProposeSwap(r.Context(), myInfo.ID, req.TargetID, req.ShiftID, req.Reason)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "swap request submitted", created)
}

func (h *Handler) ListSwapRequests(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	requests, err := h.swaps.ListRequestsFor(r.Context(), myInfo)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "swap requests fetched", requests)
}

func (h *Handler) GetSwapRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	requestID, err := h.swapRequestID(r)
	if err != nil {
		h.errorResponse(w, r, "invalid request ID")
		return
	}

	req, err := h.swaps.GetRequest(r.Context(), requestID)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	if !canViewSwapRequest(myInfo, req) {
		h.errorResponse(w, r, "insufficient permissions")
		return
	}

	h.successResponse(w, r, "swap request fetched", req)
}

func (h *Handler) DecideSwapRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	requestID, err := h.swapRequestID(r)
	if err != nil {
		h.errorResponse(w, r, "invalid request ID")
		return
	}

	var req struct {
		Outcome string `json:"outcome" validate:"required,oneof=APPROVED REJECTED"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	updated, err := h.swaps.Decide(r.Context(), requestID, myInfo.ID, domain.DecisionOutcome(req.Outcome))
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "decision recorded", updated)
}

func (h *Handler) CancelSwapRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	requestID, err := h.swapRequestID(r)
	if err != nil {
		h.errorResponse(w, r, "invalid request ID")
		return
	}

	updated, err := h.swaps.Cancel(r.Context(), requestID, myInfo.ID)
	if err != nil {
		h.domainError(w, r, err)
		return
	}

	h.successResponse(w, r, "swap request cancelled", updated)
}

func (h *Handler) swapRequestID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func canViewSwapRequest(viewer *domain.User, req *domain.SwapRequest) bool {
	if viewer.ID == req.RequesterID || viewer.ID == req.TargetID {
		return true
	}
	switch viewer.Role {
	case domain.RoleAdmin, domain.RoleSupervisor, domain.RoleUnitHead:
		return true
	}
	return false
}
