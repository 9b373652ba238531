package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/repository"
	"github.com/abrezinsky/surveydesk/internal/services"
)

// ==================== Surveys ====================

// handleListSurveys lists surveys visible to the caller: admins see all,
// businesses their own, everyone else published surveys
func (h *Handlers) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	a := actor(r)
	f := repository.SurveyFilter{
		Published: queryBool(r, "published"),
		QuickPoll: queryBool(r, "quick_poll"),
		Search:    strings.TrimSpace(r.URL.Query().Get("q")),
	}
	switch a.Role {
	case models.RoleAdmin:
		f.CreatedBy = queryInt(r, "created_by", 0)
	case models.RoleBusiness:
		f.CreatedBy = a.UserID
	default:
		published := true
		f.Published = &published
	}

	page, limit := pageParams(r)
	surveys, err := h.Surveys.List(r.Context(), f, page, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, surveys)
}

func (h *Handlers) handleGetSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	survey, err := h.Surveys.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if !survey.Published {
		if _, err := h.Surveys.GetManaged(r.Context(), actor(r), id); err != nil {
			h.respondError(w, NotFound("survey not found"))
			return
		}
	}
	respondOK(w, survey)
}

func (h *Handlers) handleCreateSurvey(w http.ResponseWriter, r *http.Request) {
	var req services.SurveyInput
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	survey, err := h.Surveys.Create(r.Context(), actor(r), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, survey)
}

func (h *Handlers) handleCreateQuickPoll(w http.ResponseWriter, r *http.Request) {
	var req services.QuickPollInput
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	survey, err := h.Surveys.CreateQuickPoll(r.Context(), actor(r), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, survey)
}

func (h *Handlers) handleUpdateSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req services.SurveyInput
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	survey, err := h.Surveys.Update(r.Context(), actor(r), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, survey)
}

func (h *Handlers) handleDeleteSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Surveys.Delete(r.Context(), actor(r), id); err != nil {
		h.respondError(w, err)
		return
	}
	respondDeleted(w)
}

func (h *Handlers) handlePublishSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	survey, err := h.Surveys.Publish(r.Context(), actor(r), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, survey)
}

func (h *Handlers) handleUnpublishSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	survey, err := h.Surveys.Unpublish(r.Context(), actor(r), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, survey)
}

func (h *Handlers) handleShareSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	survey, err := h.Surveys.GetManaged(r.Context(), actor(r), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	link, err := h.Surveys.ShareURL(r.Context(), survey)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, ShareResponse{URL: link, QRURL: fmt.Sprintf("/api/surveys/%d/qr", id)})
}

func (h *Handlers) handleShareQR(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	png, err := h.Surveys.ShareQR(r.Context(), actor(r), id, queryInt(r, "size", 0))
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(png)
}

func (h *Handlers) handleSurveyResults(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	results, err := h.Surveys.Results(r.Context(), actor(r), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, results)
}

// ==================== Business Surveys ====================

// businessID returns the {id} business a caller may act for: itself, or any when admin
func businessID(r *http.Request) (int, error) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		return 0, err
	}
	a := actor(r)
	if !a.IsAdmin() && a.UserID != id {
		return 0, Forbidden("you cannot manage surveys of this business")
	}
	return id, nil
}

func (h *Handlers) handleListBusinessSurveys(w http.ResponseWriter, r *http.Request) {
	id, err := businessID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	page, limit := pageParams(r)
	surveys, err := h.Surveys.List(r.Context(), repository.SurveyFilter{
		BusinessID: id,
		Published:  queryBool(r, "published"),
	}, page, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, surveys)
}

func (h *Handlers) handleCreateBusinessSurvey(w http.ResponseWriter, r *http.Request) {
	id, err := businessID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req services.SurveyInput
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	req.BusinessID = &id
	survey, err := h.Surveys.Create(r.Context(), actor(r), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, survey)
}

// ==================== Public Survey ====================

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.templates.Index.Execute(w, nil)
}

// handleRespondPage serves the respondent page; the page loads the survey over the API
func (h *Handlers) handleRespondPage(w http.ResponseWriter, r *http.Request) {
	h.templates.Respond.Execute(w, map[string]string{"UUID": chi.URLParam(r, "uuid")})
}

func (h *Handlers) handleGetPublicSurvey(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	survey, err := h.Surveys.GetPublic(r.Context(), uuid)
	if err != nil {
		h.respondError(w, err)
		return
	}
	visible, err := h.Responses.Visibility(r.Context(), uuid, map[string]interface{}{})
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, PublicSurveyResponse{
		UUID:        survey.UUID,
		Title:       survey.Title,
		Description: survey.Description,
		Questions:   survey.Questions,
		Visible:     visible,
	})
}

func (h *Handlers) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req AnswersRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	visible, err := h.Responses.Visibility(r.Context(), chi.URLParam(r, "uuid"), req.Answers)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, VisibilityResponse{Visible: visible})
}

func (h *Handlers) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	var req AnswersRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	result, err := h.Responses.Submit(r.Context(), chi.URLParam(r, "uuid"), optionalUserID(r), req.Answers)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, result)
}
