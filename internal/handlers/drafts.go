package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/surveydesk/internal/services"
)

// Draft mutations answer 409 CONFIRMATION_REQUIRED when a change would
// drop conditional rules; the client repeats the call with confirm=true.

func (h *Handlers) handleOpenDraft(w http.ResponseWriter, r *http.Request) {
	var req OpenDraftRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.respondError(w, err)
			return
		}
	}
	res, err := h.Drafts.Open(r.Context(), actor(r), req.SurveyID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, res)
}

func (h *Handlers) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.Drafts.Get(actor(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, d)
}

func (h *Handlers) handleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.Drafts.Discard(actor(r), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	respondDeleted(w)
}

func (h *Handlers) handleUpdateDraftMeta(w http.ResponseWriter, r *http.Request) {
	var req services.DraftMeta
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	res, err := h.Drafts.UpdateMeta(actor(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, res)
}

func (h *Handlers) handleMoveQuestion(w http.ResponseWriter, r *http.Request) {
	var req MoveQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	res, err := h.Drafts.Move(actor(r), chi.URLParam(r, "id"), req.From, req.To)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, res)
}

func (h *Handlers) handleInsertQuestion(w http.ResponseWriter, r *http.Request) {
	var req InsertQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	res, err := h.Drafts.Insert(actor(r), chi.URLParam(r, "id"), req.Index, req.Question)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, res)
}

func (h *Handlers) handleInsertFromBank(w http.ResponseWriter, r *http.Request) {
	var req InsertFromBankRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	res, err := h.Drafts.InsertFromBank(r.Context(), actor(r), chi.URLParam(r, "id"), req.ItemID, req.Index)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, res)
}

func (h *Handlers) handleReplaceQuestion(w http.ResponseWriter, r *http.Request) {
	index, err := parseIntParam(r, "index")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req ReplaceQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	res, err := h.Drafts.Replace(actor(r), chi.URLParam(r, "id"), index, req.Question, req.Confirm)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, res)
}

func (h *Handlers) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	index, err := parseIntParam(r, "index")
	if err != nil {
		h.respondError(w, err)
		return
	}
	confirm, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	res, err := h.Drafts.Delete(actor(r), chi.URLParam(r, "id"), index, confirm)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, res)
}

// ==================== Editors ====================

func (h *Handlers) handleOpenEditor(w http.ResponseWriter, r *http.Request) {
	var req OpenEditorRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	res, err := h.Drafts.OpenEditor(actor(r), chi.URLParam(r, "id"), req.Type, req.Index, req.Position)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, res)
}

func (h *Handlers) handleUpdateEditor(w http.ResponseWriter, r *http.Request) {
	var req EditorUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	res, err := h.Drafts.UpdateEditor(actor(r), chi.URLParam(r, "id"), chi.URLParam(r, "editorID"), req.Question)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, res)
}

func (h *Handlers) handleSubmitEditor(w http.ResponseWriter, r *http.Request) {
	var req SubmitEditorRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.respondError(w, err)
			return
		}
	}
	res, err := h.Drafts.SubmitEditor(actor(r), chi.URLParam(r, "id"), chi.URLParam(r, "editorID"), req.Confirm)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, res)
}

func (h *Handlers) handleCloseEditor(w http.ResponseWriter, r *http.Request) {
	res, err := h.Drafts.CloseEditor(actor(r), chi.URLParam(r, "id"), chi.URLParam(r, "editorID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, res)
}

func (h *Handlers) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	survey, err := h.Drafts.Save(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, survey)
}
