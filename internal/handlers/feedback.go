package handlers

import (
	"net/http"
	"strings"

	"github.com/abrezinsky/surveydesk/internal/services"
)

// ==================== Question Bank ====================

func (h *Handlers) handleListBankItems(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	items, err := h.QuestionBank.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("category")), page, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, items)
}

func (h *Handlers) handleBankCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.QuestionBank.Categories(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, categories)
}

func (h *Handlers) handleGetBankItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	item, err := h.QuestionBank.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, item)
}

func (h *Handlers) handleCreateBankItem(w http.ResponseWriter, r *http.Request) {
	var req services.BankItemInput
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	item, err := h.QuestionBank.Create(r.Context(), actor(r), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, item)
}

func (h *Handlers) handleUpdateBankItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req services.BankItemInput
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	item, err := h.QuestionBank.Update(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, item)
}

func (h *Handlers) handleDeleteBankItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.QuestionBank.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	respondDeleted(w)
}

// ==================== Ideas ====================

func (h *Handlers) handleListIdeas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := pageParams(r)
	ideas, err := h.Feedback.ListIdeas(r.Context(), q.Get("sort"), q.Get("status"), actor(r).UserID, page, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, ideas)
}

func (h *Handlers) handleCreateIdea(w http.ResponseWriter, r *http.Request) {
	var req services.IdeaInput
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	idea, err := h.Feedback.CreateIdea(r.Context(), actor(r).UserID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, idea)
}

func (h *Handlers) handleGetIdea(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	idea, err := h.Feedback.GetIdea(r.Context(), id, actor(r).UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, idea)
}

func (h *Handlers) handleToggleVote(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	result, err := h.Feedback.ToggleVote(r.Context(), id, actor(r).UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, result)
}

func (h *Handlers) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req CommentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	comment, err := h.Feedback.AddComment(r.Context(), id, actor(r).UserID, req.Body)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, comment)
}

func (h *Handlers) handleUpdateIdeaStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Feedback.UpdateIdeaStatus(r.Context(), id, req.Status); err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, "Idea status updated")
}

// ==================== Bug Reports ====================

// handleSubmitBugReport accepts anonymous reports; a token attributes the report
func (h *Handlers) handleSubmitBugReport(w http.ResponseWriter, r *http.Request) {
	var req services.BugReportInput
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	id, err := h.Feedback.SubmitBugReport(r.Context(), optionalUserID(r), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, CreatedIDResponse{ID: id})
}

func (h *Handlers) handleListBugReports(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	reports, err := h.Feedback.ListBugReports(r.Context(), r.URL.Query().Get("status"), page, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, reports)
}

func (h *Handlers) handleUpdateBugReportStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Feedback.UpdateBugReportStatus(r.Context(), id, req.Status); err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, "Bug report status updated")
}
