package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rsud-anugerah/shift-swap/backend/internal/domain"
)

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	h.successResponse(w, r, "profile fetched", myInfo)
}

func (h *Handler) UpdateTelegramChatID(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		TelegramChatID string `json:"telegramChatID" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	myInfo.TelegramChatID = req.TelegramChatID

	if err := h.users.UpdateUser(r.Context(), myInfo); err != nil {
		switch {
		case errors.Is(err, domain.ErrStaleState):
			h.errorResponse(w, r, "profile changed concurrently, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "telegram chat ID updated", myInfo)
}

// TestNotification lets staff verify their Telegram setup before they rely
// on it for swap updates.
func (h *Handler) TestNotification(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		Message string `json:"message" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if myInfo.TelegramChatID == "" {
		h.errorResponse(w, r, "telegram chat ID is not configured yet")
		return
	}

	notification := domain.Notification{
		Type: domain.NotificationTest,
		Data: domain.TestNotificationData{
			Message: fmt.Sprintf("%s (sent at %s)", req.Message, time.Now().Format(time.RFC3339)),
		},
	}

	if err := h.notifier.Deliver(r.Context(), myInfo, notification); err != nil {
		h.errorResponse(w, r, "could not enqueue the test notification")
		return
	}

	h.successResponse(w, r, "test notification sent", nil)
}
