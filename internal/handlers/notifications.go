package handlers

import (
	"net/http"

	"github.com/abrezinsky/surveydesk/internal/services"
)

func (h *Handlers) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := false
	if b := queryBool(r, "unread"); b != nil {
		unreadOnly = *b
	}
	page, limit := pageParams(r)
	list, err := h.Notifications.List(r.Context(), actor(r).UserID, unreadOnly, page, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, list)
}

func (h *Handlers) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.Notifications.UnreadCount(r.Context(), actor(r).UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, UnreadCountResponse{Unread: n})
}

func (h *Handlers) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Notifications.MarkRead(r.Context(), actor(r).UserID, id); err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, "Notification marked read")
}

func (h *Handlers) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.Notifications.MarkAllRead(r.Context(), actor(r).UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, MarkedResponse{Marked: n})
}

// handleSendNotification queues an admin notification; delivery happens on the worker pool
func (h *Handlers) handleSendNotification(w http.ResponseWriter, r *http.Request) {
	var req services.SendRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	result, err := h.Notifications.Send(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, result)
}
