package services_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	apperrors "github.com/abrezinsky/surveydesk/internal/errors"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/repository"
	"github.com/abrezinsky/surveydesk/internal/repository/mock"
	"github.com/abrezinsky/surveydesk/internal/services"
	"github.com/abrezinsky/surveydesk/internal/testutil"
)

type surveySetup struct {
	svc      *services.SurveyService
	repo     *repository.Repository
	settings *services.SettingsService
	owner    services.Actor
	other    services.Actor
	admin    services.Actor
}

func newSurveySetup(t *testing.T) *surveySetup {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	settings := services.NewSettingsService(logger.Discard(), repo)
	return &surveySetup{
		svc:      services.NewSurveyService(logger.Discard(), repo, settings),
		repo:     repo,
		settings: settings,
		owner:    services.Actor{UserID: testutil.CreateUser(t, repo, "owner@example.com", models.RoleBusiness), Role: models.RoleBusiness},
		other:    services.Actor{UserID: testutil.CreateUser(t, repo, "other@example.com", models.RoleBusiness), Role: models.RoleBusiness},
		admin:    services.Actor{UserID: testutil.CreateUser(t, repo, "admin@example.com", models.RoleAdmin), Role: models.RoleAdmin},
	}
}

// sampleQuestions returns [choice(1), rating(2, shown when 1 == "Yes"), text(3)]
func sampleQuestions() []models.Question {
	return []models.Question{
		{UUID: "q-choice", SequenceNumber: 1, Type: models.QuestionSingleChoice, Text: "Do you like it?", Options: []string{"Yes", "No"}, Required: true},
		{UUID: "q-rating", SequenceNumber: 2, Type: models.QuestionRating, Text: "How much?", Required: true,
			ConditionalLogicRules: &models.ConditionalLogicRules{BaseQuestionSequence: testutil.IntPtr(1), Operator: "equals", Values: []string{"Yes"}}},
		{UUID: "q-text", SequenceNumber: 3, Type: models.QuestionText, Text: "Anything else?"},
	}
}

func fieldErrors(t *testing.T, err error) apperrors.FieldErrors {
	t.Helper()
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected application error, got %v", err)
	}
	if appErr.Kind != apperrors.ErrValidation {
		t.Fatalf("expected validation error, got %v", appErr.Kind)
	}
	return appErr.Fields
}

func (s *surveySetup) published(t *testing.T) *models.Survey {
	t.Helper()
	ctx := context.Background()
	survey, err := s.svc.Create(ctx, s.owner, services.SurveyInput{Title: "Feedback", Questions: sampleQuestions()})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if survey, err = s.svc.Publish(ctx, s.owner, survey.ID); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	return survey
}

func TestSurveyService_Create(t *testing.T) {
	s := newSurveySetup(t)

	survey, err := s.svc.Create(context.Background(), s.owner, services.SurveyInput{
		Title:          "  Feedback  ",
		ParticipantMin: intPtr(1),
		ParticipantMax: intPtr(50),
		Questions:      sampleQuestions(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if survey.Title != "Feedback" {
		t.Errorf("expected trimmed title, got %q", survey.Title)
	}
	if survey.UUID == "" || survey.Published {
		t.Errorf("expected unpublished survey with uuid, got %+v", survey)
	}
	if survey.CreatedBy != s.owner.UserID {
		t.Errorf("expected owner %d, got %d", s.owner.UserID, survey.CreatedBy)
	}
	if len(survey.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(survey.Questions))
	}
	rules := survey.Questions[1].ConditionalLogicRules
	if rules == nil || *rules.BaseQuestionSequence != 1 {
		t.Errorf("expected rule on question 1 to survive, got %+v", rules)
	}
}

func TestSurveyService_Create_FieldErrors(t *testing.T) {
	s := newSurveySetup(t)

	_, err := s.svc.Create(context.Background(), s.owner, services.SurveyInput{
		ParticipantMin: intPtr(10),
		ParticipantMax: intPtr(5),
		Questions: []models.Question{
			{SequenceNumber: 1, Type: models.QuestionSingleChoice, Text: "Pick", Options: []string{"Only"}},
		},
	})
	fields := fieldErrors(t, err)
	for _, key := range []string{"title", "participant_max", "questions[0].options"} {
		if len(fields[key]) == 0 {
			t.Errorf("expected field error on %s, got %v", key, fields)
		}
	}
}

func TestSurveyService_Create_ParticipantLimitsBelowOne(t *testing.T) {
	s := newSurveySetup(t)

	_, err := s.svc.Create(context.Background(), s.owner, services.SurveyInput{
		Title:          "T",
		ParticipantMin: intPtr(0),
		ParticipantMax: intPtr(-1),
	})
	fields := fieldErrors(t, err)
	if len(fields["participant_min"]) == 0 || len(fields["participant_max"]) != 1 {
		t.Errorf("expected one error per limit, got %v", fields)
	}
}

func TestSurveyService_Create_UnnumberedQuestionsKeepRules(t *testing.T) {
	s := newSurveySetup(t)
	qs := sampleQuestions()
	for i := range qs {
		qs[i].SequenceNumber = 0
	}

	survey, err := s.svc.Create(context.Background(), s.owner, services.SurveyInput{Title: "T", Questions: qs})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	rules := survey.Questions[1].ConditionalLogicRules
	if rules == nil || rules.BaseQuestionSequence == nil || *rules.BaseQuestionSequence != 1 {
		t.Errorf("expected rule on question 1 to survive, got %+v", rules)
	}
}

func TestSurveyService_Create_DanglingBaseIsFieldError(t *testing.T) {
	s := newSurveySetup(t)
	qs := sampleQuestions()
	qs[1].ConditionalLogicRules.BaseQuestionSequence = intPtr(7)

	_, err := s.svc.Create(context.Background(), s.owner, services.SurveyInput{Title: "T", Questions: qs})
	if len(fieldErrors(t, err)["questions[1].conditional_logic_rules"]) == 0 {
		t.Errorf("expected error on question 2's rules, got %v", err)
	}
}

func TestSurveyService_BusinessAssignment(t *testing.T) {
	s := newSurveySetup(t)
	ctx := context.Background()

	_, err := s.svc.Create(ctx, s.owner, services.SurveyInput{Title: "T", BusinessID: &s.other.UserID})
	if !errors.Is(err, services.ErrForeignBusiness) {
		t.Errorf("expected ErrForeignBusiness, got %v", err)
	}
	_, err = s.svc.CreateQuickPoll(ctx, s.owner, services.QuickPollInput{Question: "Q?", Options: []string{"a", "b"}, BusinessID: &s.other.UserID})
	if !errors.Is(err, services.ErrForeignBusiness) {
		t.Errorf("expected ErrForeignBusiness for quick poll, got %v", err)
	}

	own, err := s.svc.Create(ctx, s.owner, services.SurveyInput{Title: "T", BusinessID: &s.owner.UserID})
	if err != nil {
		t.Fatalf("Create for own business failed: %v", err)
	}
	_, err = s.svc.Update(ctx, s.owner, own.ID, services.SurveyInput{Title: "T", BusinessID: &s.other.UserID})
	if !errors.Is(err, services.ErrForeignBusiness) {
		t.Errorf("expected ErrForeignBusiness on update, got %v", err)
	}

	// an admin may assign any business, and the owner may keep it
	assigned, err := s.svc.Create(ctx, s.admin, services.SurveyInput{Title: "T", BusinessID: &s.other.UserID})
	if err != nil {
		t.Fatalf("admin Create failed: %v", err)
	}
	if _, err := s.svc.Update(ctx, s.admin, assigned.ID, services.SurveyInput{Title: "Renamed", BusinessID: &s.other.UserID}); err != nil {
		t.Errorf("unchanged business should be accepted: %v", err)
	}
}

func TestSurveyService_Create_DatabaseError(t *testing.T) {
	mockRepo := mock.NewRepository(testutil.NewTestRepository(t))
	mockRepo.SaveSurveyError = errors.New("database error")
	svc := services.NewSurveyService(logger.Discard(), mockRepo, nil)

	_, err := svc.Create(context.Background(), services.Actor{UserID: 1}, services.SurveyInput{Title: "T"})
	if apperrors.KindOf(err) != apperrors.ErrInternal {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestSurveyService_GetManaged_Ownership(t *testing.T) {
	s := newSurveySetup(t)
	ctx := context.Background()
	survey, _ := s.svc.Create(ctx, s.owner, services.SurveyInput{Title: "Mine"})

	if _, err := s.svc.GetManaged(ctx, s.other, survey.ID); apperrors.KindOf(err) != apperrors.ErrForbidden {
		t.Errorf("expected forbidden for another user, got %v", err)
	}
	if _, err := s.svc.GetManaged(ctx, s.admin, survey.ID); err != nil {
		t.Errorf("admin should manage any survey: %v", err)
	}
	if _, err := s.svc.GetManaged(ctx, s.owner, 9999); apperrors.KindOf(err) != apperrors.ErrNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSurveyService_Update(t *testing.T) {
	s := newSurveySetup(t)
	ctx := context.Background()
	survey, _ := s.svc.Create(ctx, s.owner, services.SurveyInput{Title: "Old", Questions: sampleQuestions()})

	// Dropping the base question leaves a dangling rule
	qs := models.CloneQuestions(survey.Questions[1:])
	_, err := s.svc.Update(ctx, s.owner, survey.ID, services.SurveyInput{Title: "New", Questions: qs})
	if len(fieldErrors(t, err)["questions[0].conditional_logic_rules"]) == 0 {
		t.Fatalf("expected dangling rule error, got %v", err)
	}

	qs[0].ConditionalLogicRules = nil
	updated, err := s.svc.Update(ctx, s.owner, survey.ID, services.SurveyInput{Title: "New", Questions: qs})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "New" || len(updated.Questions) != 2 {
		t.Fatalf("unexpected survey: %+v", updated)
	}
	if updated.Questions[0].SequenceNumber != 1 || updated.Questions[0].ConditionalLogicRules != nil {
		t.Errorf("expected renumbered question without rules, got %+v", updated.Questions[0])
	}

	if _, err := s.svc.Update(ctx, s.other, survey.ID, services.SurveyInput{Title: "X"}); apperrors.KindOf(err) != apperrors.ErrForbidden {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestSurveyService_Update_PublishedNeedsQuestions(t *testing.T) {
	s := newSurveySetup(t)
	survey := s.published(t)

	_, err := s.svc.Update(context.Background(), s.owner, survey.ID, services.SurveyInput{Title: "Empty"})
	if len(fieldErrors(t, err)["questions"]) == 0 {
		t.Errorf("expected questions error, got %v", err)
	}
}

func TestSurveyService_PublishAndUnpublish(t *testing.T) {
	s := newSurveySetup(t)
	ctx := context.Background()

	empty, _ := s.svc.Create(ctx, s.owner, services.SurveyInput{Title: "Empty"})
	_, err := s.svc.Publish(ctx, s.owner, empty.ID)
	if len(fieldErrors(t, err)["questions"]) == 0 {
		t.Errorf("expected questions error publishing empty survey, got %v", err)
	}

	survey := s.published(t)
	if !survey.Published {
		t.Fatal("expected published survey")
	}
	if _, err := s.svc.GetPublic(ctx, survey.UUID); err != nil {
		t.Errorf("GetPublic failed: %v", err)
	}

	if _, err := s.svc.Unpublish(ctx, s.owner, survey.ID); err != nil {
		t.Fatalf("Unpublish failed: %v", err)
	}
	if _, err := s.svc.GetPublic(ctx, survey.UUID); !errors.Is(err, services.ErrSurveyNotPublished) {
		t.Errorf("expected not published, got %v", err)
	}
	if _, err := s.svc.GetPublic(ctx, "missing"); !errors.Is(err, services.ErrSurveyNotPublished) {
		t.Errorf("expected not found for unknown uuid, got %v", err)
	}
}

func TestSurveyService_Delete(t *testing.T) {
	s := newSurveySetup(t)
	ctx := context.Background()
	survey, _ := s.svc.Create(ctx, s.owner, services.SurveyInput{Title: "Bye"})

	if err := s.svc.Delete(ctx, s.other, survey.ID); apperrors.KindOf(err) != apperrors.ErrForbidden {
		t.Errorf("expected forbidden, got %v", err)
	}
	if err := s.svc.Delete(ctx, s.owner, survey.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.svc.Get(ctx, survey.ID); apperrors.KindOf(err) != apperrors.ErrNotFound {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestSurveyService_List(t *testing.T) {
	s := newSurveySetup(t)
	ctx := context.Background()
	s.svc.Create(ctx, s.owner, services.SurveyInput{Title: "Draft"})
	s.published(t)
	s.svc.CreateQuickPoll(ctx, s.other, services.QuickPollInput{Question: "Tea or coffee?", Options: []string{"Tea", "Coffee"}})

	yes := true
	page, err := s.svc.List(ctx, repository.SurveyFilter{Published: &yes}, 1, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.TotalItems != 2 {
		t.Errorf("expected 2 published surveys, got %d", page.TotalItems)
	}

	page, _ = s.svc.List(ctx, repository.SurveyFilter{CreatedBy: s.owner.UserID}, 1, 10)
	if page.TotalItems != 2 {
		t.Errorf("expected 2 surveys by owner, got %d", page.TotalItems)
	}

	page, _ = s.svc.List(ctx, repository.SurveyFilter{QuickPoll: &yes}, 1, 10)
	if page.TotalItems != 1 {
		t.Errorf("expected 1 quick poll, got %d", page.TotalItems)
	}
}

func TestSurveyService_CreateQuickPoll(t *testing.T) {
	s := newSurveySetup(t)

	poll, err := s.svc.CreateQuickPoll(context.Background(), s.owner, services.QuickPollInput{
		Question: "Best day?",
		Options:  []string{" Monday ", "Friday"},
	})
	if err != nil {
		t.Fatalf("CreateQuickPoll failed: %v", err)
	}
	if !poll.Published || !poll.IsQuickPoll {
		t.Errorf("expected published quick poll, got %+v", poll)
	}
	if len(poll.Questions) != 1 {
		t.Fatalf("expected one question, got %d", len(poll.Questions))
	}
	q := poll.Questions[0]
	if q.Type != models.QuestionSingleChoice || !q.Required || q.Options[0] != "Monday" {
		t.Errorf("unexpected question: %+v", q)
	}
}

func TestSurveyService_CreateQuickPoll_Validation(t *testing.T) {
	s := newSurveySetup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   services.QuickPollInput
		wantKey string
	}{
		{"missing question", services.QuickPollInput{Options: []string{"a", "b"}}, "question"},
		{"one option", services.QuickPollInput{Question: "Q", Options: []string{"a"}}, "options"},
		{"eleven options", services.QuickPollInput{Question: "Q", Options: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"}}, "options"},
		{"blank option", services.QuickPollInput{Question: "Q", Options: []string{"a", " "}}, "options"},
		{"duplicate option", services.QuickPollInput{Question: "Q", Options: []string{"a", "a"}}, "options"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.svc.CreateQuickPoll(ctx, s.owner, tt.input)
			if len(fieldErrors(t, err)[tt.wantKey]) == 0 {
				t.Errorf("expected error on %s, got %v", tt.wantKey, err)
			}
		})
	}
}

func TestSurveyService_ShareURLAndQR(t *testing.T) {
	s := newSurveySetup(t)
	ctx := context.Background()
	base := "https://surveys.example.com/"
	if err := s.settings.UpdateSettings(ctx, services.Settings{BaseURL: &base}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	draft, _ := s.svc.Create(ctx, s.owner, services.SurveyInput{Title: "Draft"})
	if _, err := s.svc.ShareQR(ctx, s.owner, draft.ID, 0); apperrors.KindOf(err) != apperrors.ErrInvalidInput {
		t.Errorf("expected unpublished survey to be rejected, got %v", err)
	}

	survey := s.published(t)
	link, err := s.svc.ShareURL(ctx, survey)
	if err != nil {
		t.Fatalf("ShareURL failed: %v", err)
	}
	if link != "https://surveys.example.com/s/"+survey.UUID {
		t.Errorf("unexpected link %q", link)
	}

	png, err := s.svc.ShareQR(ctx, s.owner, survey.ID, 0)
	if err != nil {
		t.Fatalf("ShareQR failed: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("expected PNG data")
	}
}

func TestSurveyService_Results(t *testing.T) {
	s := newSurveySetup(t)
	ctx := context.Background()
	survey := s.published(t)
	responses := services.NewResponseService(logger.Discard(), s.repo, nil, s.settings)

	submissions := []map[string]interface{}{
		{"q-choice": "Yes", "q-rating": float64(4), "q-text": "great"},
		{"q-choice": "Yes", "q-rating": float64(2)},
		{"q-choice": "No"},
	}
	for _, answers := range submissions {
		if _, err := responses.Submit(ctx, survey.UUID, nil, answers); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	results, err := s.svc.Results(ctx, s.owner, survey.ID)
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}
	if results.TotalResponses != 3 {
		t.Errorf("expected 3 responses, got %d", results.TotalResponses)
	}

	choice := results.Questions[0]
	if choice.OptionCounts["Yes"] != 2 || choice.OptionCounts["No"] != 1 {
		t.Errorf("unexpected counts: %v", choice.OptionCounts)
	}
	rating := results.Questions[1]
	if rating.Answered != 2 || rating.Average == nil || *rating.Average != 3 {
		t.Errorf("unexpected rating summary: %+v", rating)
	}
	text := results.Questions[2]
	if len(text.TextAnswers) != 1 || text.TextAnswers[0] != "great" {
		t.Errorf("unexpected text answers: %v", text.TextAnswers)
	}

	if _, err := s.svc.Results(ctx, s.other, survey.ID); apperrors.KindOf(err) != apperrors.ErrForbidden {
		t.Errorf("expected forbidden, got %v", err)
	}
}
