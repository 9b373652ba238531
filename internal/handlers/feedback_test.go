package handlers_test

import (
	"net/http"
	"testing"

	"github.com/abrezinsky/surveydesk/internal/handlers"
	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
	"github.com/abrezinsky/surveydesk/internal/services"
)

// ==================== Ideas ====================

func TestIdeas_VoteAndComment(t *testing.T) {
	ts := newTestSetup(t)

	rec := ts.do(t, http.MethodPost, "/api/ideas", ts.userToken, services.IdeaInput{Title: "Dark mode", Description: "Please"})
	expect(t, rec, http.StatusCreated)
	idea := decode[models.Idea](t, rec)
	path := "/api/ideas/" + itoa(idea.ID)

	rec = ts.do(t, http.MethodPost, path+"/vote", ts.businessToken, nil)
	expect(t, rec, http.StatusOK)
	if v := decode[services.VoteResult](t, rec); !v.Voted || v.Votes != 1 {
		t.Errorf("expected one vote, got %+v", v)
	}

	rec = ts.do(t, http.MethodGet, path, ts.businessToken, nil)
	expect(t, rec, http.StatusOK)
	if got := decode[models.Idea](t, rec); !got.Voted || got.Votes != 1 {
		t.Errorf("expected viewer's vote reflected, got %+v", got)
	}
	rec = ts.do(t, http.MethodGet, path, ts.userToken, nil)
	if got := decode[models.Idea](t, rec); got.Voted {
		t.Error("expected author not to have voted")
	}

	// Voting again takes the vote back
	rec = ts.do(t, http.MethodPost, path+"/vote", ts.businessToken, nil)
	expect(t, rec, http.StatusOK)
	if v := decode[services.VoteResult](t, rec); v.Voted || v.Votes != 0 {
		t.Errorf("expected vote removed, got %+v", v)
	}

	rec = ts.do(t, http.MethodPost, path+"/comments", ts.businessToken, handlers.CommentRequest{Body: "  "})
	expect(t, rec, http.StatusBadRequest)
	rec = ts.do(t, http.MethodPost, path+"/comments", ts.businessToken, handlers.CommentRequest{Body: "Yes please"})
	expect(t, rec, http.StatusCreated)

	rec = ts.do(t, http.MethodPost, "/api/ideas/9999/vote", ts.userToken, nil)
	expect(t, rec, http.StatusNotFound)
}

func TestIdeas_StatusModeration(t *testing.T) {
	ts := newTestSetup(t)

	rec := ts.do(t, http.MethodPost, "/api/ideas", ts.userToken, services.IdeaInput{Title: "Export CSV"})
	expect(t, rec, http.StatusCreated)
	idea := decode[models.Idea](t, rec)
	path := "/api/admin/ideas/" + itoa(idea.ID) + "/status"

	rec = ts.do(t, http.MethodPut, path, ts.userToken, handlers.StatusRequest{Status: models.IdeaPlanned})
	expect(t, rec, http.StatusForbidden)

	rec = ts.do(t, http.MethodPut, path, ts.adminToken, handlers.StatusRequest{Status: "someday"})
	expect(t, rec, http.StatusBadRequest)

	rec = ts.do(t, http.MethodPut, path, ts.adminToken, handlers.StatusRequest{Status: models.IdeaPlanned})
	expect(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodGet, "/api/ideas?status="+models.IdeaPlanned, ts.userToken, nil)
	expect(t, rec, http.StatusOK)
	if page := decode[paginator.Page[models.Idea]](t, rec); page.TotalItems != 1 || page.Items[0].ID != idea.ID {
		t.Errorf("expected the planned idea, got %+v", page.Items)
	}
}

// ==================== Bug Reports ====================

func TestBugReports_SubmitAndTriage(t *testing.T) {
	ts := newTestSetup(t)

	// Anonymous reports are accepted
	rec := ts.do(t, http.MethodPost, "/api/bug-reports", "", services.BugReportInput{Title: "Broken link", Description: "404 on /help"})
	expect(t, rec, http.StatusCreated)
	anon := decode[handlers.CreatedIDResponse](t, rec)

	rec = ts.do(t, http.MethodPost, "/api/bug-reports", ts.userToken, services.BugReportInput{
		Title: "Crash", Description: "On submit", Severity: services.SeverityCritical,
	})
	expect(t, rec, http.StatusCreated)

	rec = ts.do(t, http.MethodPost, "/api/bug-reports", "", services.BugReportInput{Title: "x", Description: "y", Severity: "meh"})
	expect(t, rec, http.StatusBadRequest)

	rec = ts.do(t, http.MethodGet, "/api/admin/bug-reports", ts.adminToken, nil)
	expect(t, rec, http.StatusOK)
	page := decode[paginator.Page[models.BugReport]](t, rec)
	if page.TotalItems != 2 {
		t.Fatalf("expected 2 reports, got %d", page.TotalItems)
	}
	for _, r := range page.Items {
		if r.ID == int(anon.ID) && r.UserID != nil {
			t.Error("expected anonymous report to carry no user")
		}
		if r.ID != int(anon.ID) && (r.UserID == nil || *r.UserID != ts.userID) {
			t.Errorf("expected report attributed to user %d, got %v", ts.userID, r.UserID)
		}
	}

	rec = ts.do(t, http.MethodPut, "/api/admin/bug-reports/"+itoa(int(anon.ID))+"/status", ts.adminToken, handlers.StatusRequest{Status: services.BugResolved})
	expect(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodGet, "/api/admin/bug-reports?status="+services.BugOpen, ts.adminToken, nil)
	expect(t, rec, http.StatusOK)
	if page := decode[paginator.Page[models.BugReport]](t, rec); page.TotalItems != 1 {
		t.Errorf("expected 1 open report, got %d", page.TotalItems)
	}

	rec = ts.do(t, http.MethodPut, "/api/admin/bug-reports/9999/status", ts.adminToken, handlers.StatusRequest{Status: services.BugClosed})
	expect(t, rec, http.StatusNotFound)
}

// ==================== Question Bank ====================

func TestQuestionBank_CRUD(t *testing.T) {
	ts := newTestSetup(t)

	rec := ts.do(t, http.MethodPost, "/api/question-bank", ts.adminToken, services.BankItemInput{
		Type: models.QuestionSingleChoice, Text: "Favourite colour?", Options: []string{"Red"}, Category: "fun",
	})
	expect(t, rec, http.StatusBadRequest)
	if got := decode[apiError](t, rec); len(got.Errors["options"]) == 0 {
		t.Errorf("expected an options error, got %v", got.Errors)
	}

	rec = ts.do(t, http.MethodPost, "/api/question-bank", ts.adminToken, services.BankItemInput{
		Type: models.QuestionSingleChoice, Text: "Favourite colour?", Options: []string{"Red", "Blue"}, Category: "fun",
	})
	expect(t, rec, http.StatusCreated)
	item := decode[models.QuestionBankItem](t, rec)
	path := "/api/question-bank/" + itoa(item.ID)

	rec = ts.do(t, http.MethodPut, path, ts.adminToken, services.BankItemInput{Type: models.QuestionText, Text: "Why?", Category: "open"})
	expect(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodGet, "/api/question-bank/categories", ts.businessToken, nil)
	expect(t, rec, http.StatusOK)
	if cats := decode[[]string](t, rec); len(cats) != 1 || cats[0] != "open" {
		t.Errorf("expected [open], got %v", cats)
	}

	rec = ts.do(t, http.MethodGet, "/api/question-bank?category=open", ts.businessToken, nil)
	expect(t, rec, http.StatusOK)
	if page := decode[paginator.Page[models.QuestionBankItem]](t, rec); page.TotalItems != 1 {
		t.Errorf("expected 1 item, got %d", page.TotalItems)
	}

	rec = ts.do(t, http.MethodDelete, path, ts.adminToken, nil)
	expect(t, rec, http.StatusNoContent)
	rec = ts.do(t, http.MethodGet, path, ts.businessToken, nil)
	expect(t, rec, http.StatusNotFound)
}
