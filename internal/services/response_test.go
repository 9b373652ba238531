package services_test

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/abrezinsky/surveydesk/internal/errors"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/repository/mock"
	"github.com/abrezinsky/surveydesk/internal/services"
	"github.com/abrezinsky/surveydesk/internal/testutil"
)

func newResponseService(s *surveySetup) *services.ResponseService {
	return services.NewResponseService(logger.Discard(), s.repo, nil, s.settings)
}

func TestResponseService_Submit_AwardsXPOnce(t *testing.T) {
	s := newSurveySetup(t)
	ctx := context.Background()
	survey := s.published(t)
	svc := newResponseService(s)
	user := testutil.CreateUser(t, s.repo, "respondent@example.com", models.RoleUser)

	result, err := svc.Submit(ctx, survey.UUID, &user, map[string]interface{}{"q-choice": "No"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.XPEarned != services.DefaultXPPerResponse {
		t.Errorf("expected %d XP, got %d", services.DefaultXPPerResponse, result.XPEarned)
	}
	u, _ := s.repo.GetUser(ctx, user)
	if u.XP != services.DefaultXPPerResponse {
		t.Errorf("expected user XP %d, got %d", services.DefaultXPPerResponse, u.XP)
	}

	_, err = svc.Submit(ctx, survey.UUID, &user, map[string]interface{}{"q-choice": "No"})
	if !errors.Is(err, services.ErrAlreadyResponded) {
		t.Errorf("expected ErrAlreadyResponded, got %v", err)
	}
	u, _ = s.repo.GetUser(ctx, user)
	if u.XP != services.DefaultXPPerResponse {
		t.Errorf("XP must not be awarded twice, got %d", u.XP)
	}
}

func TestResponseService_Submit_AnonymousEarnsNothing(t *testing.T) {
	s := newSurveySetup(t)
	survey := s.published(t)

	result, err := newResponseService(s).Submit(context.Background(), survey.UUID, nil, map[string]interface{}{"q-choice": "No"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.XPEarned != 0 {
		t.Errorf("expected no XP for anonymous response, got %d", result.XPEarned)
	}
}

func TestResponseService_Submit_NotPublished(t *testing.T) {
	s := newSurveySetup(t)
	ctx := context.Background()
	survey, _ := s.svc.Create(ctx, s.owner, services.SurveyInput{Title: "Draft", Questions: sampleQuestions()})

	_, err := newResponseService(s).Submit(ctx, survey.UUID, nil, map[string]interface{}{"q-choice": "No"})
	if !errors.Is(err, services.ErrSurveyNotPublished) {
		t.Errorf("expected ErrSurveyNotPublished, got %v", err)
	}
}

func TestResponseService_Submit_ParticipantMax(t *testing.T) {
	s := newSurveySetup(t)
	ctx := context.Background()
	survey, _ := s.svc.Create(ctx, s.owner, services.SurveyInput{Title: "Tiny", ParticipantMax: intPtr(1), Questions: sampleQuestions()})
	s.svc.Publish(ctx, s.owner, survey.ID)
	svc := newResponseService(s)

	if _, err := svc.Submit(ctx, survey.UUID, nil, map[string]interface{}{"q-choice": "No"}); err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	_, err := svc.Submit(ctx, survey.UUID, nil, map[string]interface{}{"q-choice": "No"})
	if !errors.Is(err, services.ErrSurveyFull) {
		t.Errorf("expected ErrSurveyFull, got %v", err)
	}
}

func TestResponseService_Submit_Validation(t *testing.T) {
	s := newSurveySetup(t)
	survey := s.published(t)
	svc := newResponseService(s)

	tests := []struct {
		name    string
		answers map[string]interface{}
		wantKey string
	}{
		{"missing required", map[string]interface{}{}, "answers.q-choice"},
		{"unknown option", map[string]interface{}{"q-choice": "Maybe"}, "answers.q-choice"},
		{"visible rating required", map[string]interface{}{"q-choice": "Yes"}, "answers.q-rating"},
		{"rating too high", map[string]interface{}{"q-choice": "Yes", "q-rating": float64(6)}, "answers.q-rating"},
		{"rating fraction", map[string]interface{}{"q-choice": "Yes", "q-rating": 2.5}, "answers.q-rating"},
		{"text not a string", map[string]interface{}{"q-choice": "No", "q-text": float64(3)}, "answers.q-text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), survey.UUID, nil, tt.answers)
			if len(fieldErrors(t, err)[tt.wantKey]) == 0 {
				t.Errorf("expected error on %s, got %v", tt.wantKey, err)
			}
		})
	}
}

func TestResponseService_Submit_DropsHiddenAndUnknownAnswers(t *testing.T) {
	s := newSurveySetup(t)
	ctx := context.Background()
	survey := s.published(t)

	_, err := newResponseService(s).Submit(ctx, survey.UUID, nil, map[string]interface{}{
		"q-choice": "No",
		"q-rating": float64(9), // hidden, so never validated
		"bogus":    "x",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	responses, _ := s.repo.ListResponses(ctx, survey.ID)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	if _, ok := responses[0].Answers["q-rating"]; ok {
		t.Error("hidden answer should be dropped")
	}
	if _, ok := responses[0].Answers["bogus"]; ok {
		t.Error("unknown answer should be dropped")
	}
}

func TestResponseService_Submit_MultipleChoiceAndYesNo(t *testing.T) {
	s := newSurveySetup(t)
	ctx := context.Background()
	survey, _ := s.svc.Create(ctx, s.owner, services.SurveyInput{Title: "Mixed", Questions: []models.Question{
		{UUID: "multi", SequenceNumber: 1, Type: models.QuestionMultipleChoice, Text: "Pick", Options: []string{"a", "b", "c"}, Required: true},
		{UUID: "yn", SequenceNumber: 2, Type: models.QuestionYesNo, Text: "Ok?", Required: true},
	}})
	if _, err := s.svc.Publish(ctx, s.owner, survey.ID); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	svc := newResponseService(s)

	_, err := svc.Submit(ctx, survey.UUID, nil, map[string]interface{}{"multi": []interface{}{"a", "a"}, "yn": "yes"})
	if len(fieldErrors(t, err)["answers.multi"]) == 0 {
		t.Errorf("expected duplicate selection error, got %v", err)
	}

	if _, err := svc.Submit(ctx, survey.UUID, nil, map[string]interface{}{"multi": []interface{}{"a", "c"}, "yn": "yes"}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	responses, _ := s.repo.ListResponses(ctx, survey.ID)
	if responses[0].Answers["yn"] != "Yes" {
		t.Errorf("expected canonical yes/no answer, got %v", responses[0].Answers["yn"])
	}
}

func TestResponseService_Submit_YesNoCaseShowsDependent(t *testing.T) {
	s := newSurveySetup(t)
	ctx := context.Background()
	survey, err := s.svc.Create(ctx, s.owner, services.SurveyInput{Title: "Why", Questions: []models.Question{
		{UUID: "yn", SequenceNumber: 1, Type: models.QuestionYesNo, Text: "Ok?", Required: true},
		{UUID: "why", SequenceNumber: 2, Type: models.QuestionText, Text: "Why?", Required: true,
			ConditionalLogicRules: &models.ConditionalLogicRules{BaseQuestionSequence: intPtr(1), Operator: "equals", Values: []string{"Yes"}}},
	}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := s.svc.Publish(ctx, s.owner, survey.ID); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	svc := newResponseService(s)

	_, err = svc.Submit(ctx, survey.UUID, nil, map[string]interface{}{"yn": "yes"})
	if len(fieldErrors(t, err)["answers.why"]) == 0 {
		t.Errorf("expected dependent to be required after a lowercase yes, got %v", err)
	}

	if _, err := svc.Submit(ctx, survey.UUID, nil, map[string]interface{}{"yn": "yes", "why": "because"}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	responses, _ := s.repo.ListResponses(ctx, survey.ID)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	if responses[0].Answers["yn"] != "Yes" || responses[0].Answers["why"] != "because" {
		t.Errorf("expected both answers kept, got %v", responses[0].Answers)
	}
}

func TestResponseService_Visibility(t *testing.T) {
	s := newSurveySetup(t)
	survey := s.published(t)
	svc := newResponseService(s)

	visible, err := svc.Visibility(context.Background(), survey.UUID, map[string]interface{}{"q-choice": "No"})
	if err != nil {
		t.Fatalf("Visibility failed: %v", err)
	}
	if !visible["q-choice"] || visible["q-rating"] || !visible["q-text"] {
		t.Errorf("unexpected visibility: %v", visible)
	}

	visible, _ = svc.Visibility(context.Background(), survey.UUID, map[string]interface{}{"q-choice": "Yes"})
	if !visible["q-rating"] {
		t.Error("rating should be visible after Yes")
	}
}

func TestResponseService_Submit_DatabaseError(t *testing.T) {
	s := newSurveySetup(t)
	survey := s.published(t)
	mockRepo := mock.NewRepository(s.repo)
	mockRepo.CreateResponseError = errors.New("database error")
	svc := services.NewResponseService(logger.Discard(), mockRepo, nil, s.settings)

	_, err := svc.Submit(context.Background(), survey.UUID, nil, map[string]interface{}{"q-choice": "No"})
	if apperrors.KindOf(err) != apperrors.ErrInternal {
		t.Errorf("expected internal error, got %v", err)
	}
}
