package handlers

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/abrezinsky/surveydesk/internal/auth"
	"github.com/abrezinsky/surveydesk/internal/services"
)

// ==================== Admin Pages ====================

// adminPage renders page inside the admin layout
func (h *Handlers) adminPage(page *template.Template, title, nav string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := AdminPageData{
			Title:     title,
			PageTitle: title,
			ActiveNav: nav,
		}
		if claims := auth.UserFromContext(r.Context()); claims != nil {
			data.UserEmail = claims.Email
		}
		page.ExecuteTemplate(w, "admin", data)
	}
}

// ==================== Stats & Settings ====================

func (h *Handlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Settings.GetStats(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, stats)
}

func (h *Handlers) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Settings.AllSettings(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, settings)
}

func (h *Handlers) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req services.Settings
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Settings.UpdateSettings(r.Context(), req); err != nil {
		h.respondError(w, err)
		return
	}
	settings, err := h.Settings.AllSettings(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, settings)
}

// ==================== Users ====================

func (h *Handlers) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	users, err := h.Users.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")), page, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, users)
}

func (h *Handlers) handleSetUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req RoleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	user, err := h.Users.SetRole(r.Context(), actor(r), id, req.Role)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, user)
}
