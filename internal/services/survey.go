package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/surveydesk/internal/builder"
	"github.com/abrezinsky/surveydesk/internal/errors"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
	"github.com/abrezinsky/surveydesk/internal/repository"
)

// Quick poll option bounds
const (
	QuickPollMinOptions = 2
	QuickPollMaxOptions = 10
)

// DefaultQRSize is the share QR edge length in pixels
const DefaultQRSize = 256

// Actor identifies who is making a request
type Actor struct {
	UserID int
	Role   string
}

// IsAdmin reports whether the actor has the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// canActFor reports whether a may assign a survey to businessID.
// Businesses act for themselves; admins act for any.
func (a Actor) canActFor(businessID *int) bool {
	return businessID == nil || a.IsAdmin() || (a.UserID != 0 && *businessID == a.UserID)
}

// canManage reports whether a may change survey s
func (a Actor) canManage(s *models.Survey) bool {
	return a.IsAdmin() || (a.UserID != 0 && s.CreatedBy == a.UserID)
}

// SurveyServiceRepository defines the repository methods needed by SurveyService
type SurveyServiceRepository interface {
	repository.SurveyRepository
	repository.ResponseRepository
}

// BaseURLProvider supplies the public base URL for share links
type BaseURLProvider interface {
	GetBaseURL(ctx context.Context) (string, error)
}

// SurveyService handles survey CRUD, publishing, sharing and results
type SurveyService struct {
	log      logger.Logger
	repo     SurveyServiceRepository
	settings BaseURLProvider
}

// NewSurveyService creates a new SurveyService
func NewSurveyService(log logger.Logger, repo SurveyServiceRepository, settings BaseURLProvider) *SurveyService {
	return &SurveyService{log: log, repo: repo, settings: settings}
}

// SurveyInput represents the editable fields of a survey
type SurveyInput struct {
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	ParticipantMin *int              `json:"participant_min"`
	ParticipantMax *int              `json:"participant_max"`
	BusinessID     *int              `json:"business_id"`
	Questions      []models.Question `json:"questions"`
}

// QuickPollInput represents a one-question poll
type QuickPollInput struct {
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	BusinessID *int     `json:"business_id"`
}

// validateSurveyMeta adds field errors for the survey-level fields
func validateSurveyMeta(fields errors.FieldErrors, title string, min, max *int) {
	if strings.TrimSpace(title) == "" {
		fields.Add("title", "is required")
	}
	validateParticipantLimits(fields, min, max)
}

func validateParticipantLimits(fields errors.FieldErrors, min, max *int) {
	if min != nil && *min < 1 {
		fields.Add("participant_min", "must be at least 1")
	}
	if max != nil && *max < 1 {
		fields.Add("participant_max", "must be at least 1")
	}
	if min != nil && max != nil && *min >= 1 && *max >= 1 && *min > *max {
		fields.Add("participant_max", "must be greater than or equal to participant_min")
	}
}

// mergeFieldErrors folds the field errors of err into fields, returning any other error
func mergeFieldErrors(fields errors.FieldErrors, err error) error {
	if err == nil {
		return nil
	}
	var appErr *errors.Error
	if !stderrors.As(err, &appErr) || len(appErr.Fields) == 0 {
		return err
	}
	for field, msgs := range appErr.Fields {
		for _, msg := range msgs {
			fields.Add(field, msg)
		}
	}
	return nil
}

// prepareQuestions normalizes client-supplied questions and validates them.
// A rule whose base sequence names no question in the list is reported as a
// field error rather than dropped.
func prepareQuestions(fields errors.FieldErrors, qs []models.Question) ([]models.Question, error) {
	res := builder.Normalize(qs)
	for _, w := range res.Warnings {
		fields.Add(fmt.Sprintf("questions[%d].conditional_logic_rules", w.SequenceNumber-1), "base question does not exist")
	}
	if err := mergeFieldErrors(fields, builder.Validate(res.Questions)); err != nil {
		return nil, err
	}
	return res.Questions, nil
}

// Create stores a new unpublished survey owned by actor
func (s *SurveyService) Create(ctx context.Context, actor Actor, in SurveyInput) (*models.Survey, error) {
	if !actor.canActFor(in.BusinessID) {
		return nil, ErrForeignBusiness
	}

	fields := errors.FieldErrors{}
	validateSurveyMeta(fields, in.Title, in.ParticipantMin, in.ParticipantMax)
	questions, err := prepareQuestions(fields, in.Questions)
	if err != nil {
		return nil, err
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	survey := &models.Survey{
		UUID:           uuid.NewString(),
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		ParticipantMin: in.ParticipantMin,
		ParticipantMax: in.ParticipantMax,
		BusinessID:     in.BusinessID,
		CreatedBy:      actor.UserID,
		Questions:      questions,
	}
	id, err := s.repo.SaveSurvey(ctx, survey)
	if err != nil {
		return nil, errors.Internal(err)
	}

	s.log.Info("Survey created", "survey_id", id, "questions", len(questions))
	return s.Get(ctx, int(id))
}

// Get returns a survey with its questions
func (s *SurveyService) Get(ctx context.Context, id int) (*models.Survey, error) {
	survey, err := s.repo.GetSurvey(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "survey not found")
	}
	return survey, nil
}

// GetManaged returns a survey the actor may change
func (s *SurveyService) GetManaged(ctx context.Context, actor Actor, id int) (*models.Survey, error) {
	survey, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canManage(survey) {
		return nil, errors.Forbidden("you cannot manage this survey")
	}
	return survey, nil
}

// GetPublic returns a published survey by its public UUID
func (s *SurveyService) GetPublic(ctx context.Context, surveyUUID string) (*models.Survey, error) {
	survey, err := s.repo.GetSurveyByUUID(ctx, surveyUUID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, ErrSurveyNotPublished
		}
		return nil, errors.Internal(err)
	}
	if !survey.Published {
		return nil, ErrSurveyNotPublished
	}
	return survey, nil
}

// List returns a page of surveys
func (s *SurveyService) List(ctx context.Context, f repository.SurveyFilter, page, limit int) (*paginator.Page[models.Survey], error) {
	surveys, err := s.repo.ListSurveys(ctx, f, page, limit)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return surveys, nil
}

// Update replaces a survey's fields and question list
func (s *SurveyService) Update(ctx context.Context, actor Actor, id int, in SurveyInput) (*models.Survey, error) {
	existing, err := s.GetManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if !sameBusiness(existing.BusinessID, in.BusinessID) && !actor.canActFor(in.BusinessID) {
		return nil, ErrForeignBusiness
	}

	fields := errors.FieldErrors{}
	validateSurveyMeta(fields, in.Title, in.ParticipantMin, in.ParticipantMax)
	questions, err := prepareQuestions(fields, in.Questions)
	if err != nil {
		return nil, err
	}
	if existing.Published && len(questions) == 0 {
		fields.Add("questions", "a published survey needs at least one question")
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	existing.Title = strings.TrimSpace(in.Title)
	existing.Description = in.Description
	existing.ParticipantMin = in.ParticipantMin
	existing.ParticipantMax = in.ParticipantMax
	existing.BusinessID = in.BusinessID
	existing.Questions = questions
	if _, err := s.repo.SaveSurvey(ctx, existing); err != nil {
		return nil, fromRepo(err, "survey not found")
	}

	s.log.Info("Survey updated", "survey_id", id)
	return s.Get(ctx, id)
}

func sameBusiness(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Delete removes a survey with its questions and responses
func (s *SurveyService) Delete(ctx context.Context, actor Actor, id int) error {
	if _, err := s.GetManaged(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.DeleteSurvey(ctx, id); err != nil {
		return fromRepo(err, "survey not found")
	}
	s.log.Info("Survey deleted", "survey_id", id)
	return nil
}

// Publish makes a survey available to respondents. It needs a title, at
// least one question and a valid question list.
func (s *SurveyService) Publish(ctx context.Context, actor Actor, id int) (*models.Survey, error) {
	survey, err := s.GetManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	fields := errors.FieldErrors{}
	if strings.TrimSpace(survey.Title) == "" {
		fields.Add("title", "is required")
	}
	if len(survey.Questions) == 0 {
		fields.Add("questions", "must contain at least one question")
	}
	if err := mergeFieldErrors(fields, builder.Validate(survey.Questions)); err != nil {
		return nil, err
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	return s.setPublished(ctx, survey, true)
}

// Unpublish hides a survey from respondents
func (s *SurveyService) Unpublish(ctx context.Context, actor Actor, id int) (*models.Survey, error) {
	survey, err := s.GetManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.setPublished(ctx, survey, false)
}

func (s *SurveyService) setPublished(ctx context.Context, survey *models.Survey, published bool) (*models.Survey, error) {
	if err := s.repo.SetPublished(ctx, survey.ID, published); err != nil {
		return nil, fromRepo(err, "survey not found")
	}
	survey.Published = published
	s.log.Info("Survey publish state changed", "survey_id", survey.ID, "published", published)
	return survey, nil
}

// CreateQuickPoll creates and publishes a survey with one single-choice question
func (s *SurveyService) CreateQuickPoll(ctx context.Context, actor Actor, in QuickPollInput) (*models.Survey, error) {
	if !actor.canActFor(in.BusinessID) {
		return nil, ErrForeignBusiness
	}

	fields := errors.FieldErrors{}
	text := strings.TrimSpace(in.Question)
	if text == "" {
		fields.Add("question", "is required")
	}

	options := make([]string, 0, len(in.Options))
	seen := make(map[string]bool, len(in.Options))
	for _, o := range in.Options {
		o = strings.TrimSpace(o)
		if o == "" {
			fields.Add("options", "must not contain blank options")
			continue
		}
		if seen[o] {
			fields.Add("options", fmt.Sprintf("duplicate option %q", o))
			continue
		}
		seen[o] = true
		options = append(options, o)
	}
	if len(in.Options) < QuickPollMinOptions || len(in.Options) > QuickPollMaxOptions {
		fields.Add("options", fmt.Sprintf("must have between %d and %d options", QuickPollMinOptions, QuickPollMaxOptions))
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	survey := &models.Survey{
		UUID:        uuid.NewString(),
		Title:       text,
		Published:   true,
		IsQuickPoll: true,
		BusinessID:  in.BusinessID,
		CreatedBy:   actor.UserID,
		Questions: []models.Question{{
			UUID:           uuid.NewString(),
			SequenceNumber: 1,
			Type:           models.QuestionSingleChoice,
			Text:           text,
			Options:        options,
			Required:       true,
		}},
	}
	id, err := s.repo.SaveSurvey(ctx, survey)
	if err != nil {
		return nil, errors.Internal(err)
	}

	s.log.Info("Quick poll created", "survey_id", id, "options", len(options))
	return s.Get(ctx, int(id))
}

// ShareURL returns the public link for a survey
func (s *SurveyService) ShareURL(ctx context.Context, survey *models.Survey) (string, error) {
	base, err := s.settings.GetBaseURL(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(base, "/") + "/s/" + survey.UUID, nil
}

// ShareQR renders the public link of a published survey as a PNG QR code
func (s *SurveyService) ShareQR(ctx context.Context, actor Actor, id, size int) ([]byte, error) {
	survey, err := s.GetManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !survey.Published {
		return nil, errors.InvalidInput("survey must be published before it can be shared")
	}
	if size <= 0 {
		size = DefaultQRSize
	}

	link, err := s.ShareURL(ctx, survey)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return png, nil
}

// ==================== Results ====================

// QuestionResult summarizes the answers to one question
type QuestionResult struct {
	QuestionUUID   string         `json:"question_uuid"`
	SequenceNumber int            `json:"sequence_number"`
	Text           string         `json:"text"`
	Type           string         `json:"type"`
	Answered       int            `json:"answered"`
	OptionCounts   map[string]int `json:"option_counts,omitempty"`
	Average        *float64       `json:"average,omitempty"`
	TextAnswers    []string       `json:"text_answers,omitempty"`
}

// SurveyResults is the per-question summary of a survey's responses
type SurveyResults struct {
	SurveyID       int              `json:"survey_id"`
	Title          string           `json:"title"`
	TotalResponses int              `json:"total_responses"`
	Questions      []QuestionResult `json:"questions"`
}

// Results summarizes the responses to a survey
func (s *SurveyService) Results(ctx context.Context, actor Actor, id int) (*SurveyResults, error) {
	survey, err := s.GetManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	responses, err := s.repo.ListResponses(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}

	results := &SurveyResults{
		SurveyID:       survey.ID,
		Title:          survey.Title,
		TotalResponses: len(responses),
		Questions:      make([]QuestionResult, 0, len(survey.Questions)),
	}
	for _, q := range survey.Questions {
		results.Questions = append(results.Questions, summarizeQuestion(q, responses))
	}
	return results, nil
}

func summarizeQuestion(q models.Question, responses []models.Response) QuestionResult {
	r := QuestionResult{
		QuestionUUID:   q.UUID,
		SequenceNumber: q.SequenceNumber,
		Text:           q.Text,
		Type:           q.Type,
	}

	if models.IsChoiceType(q.Type) {
		options := q.Options
		if q.Type == models.QuestionYesNo && len(options) == 0 {
			options = defaultYesNo
		}
		r.OptionCounts = make(map[string]int, len(options))
		for _, o := range options {
			r.OptionCounts[o] = 0
		}
	}

	var sum float64
	rated := 0
	for _, resp := range responses {
		answer, ok := resp.Answers[q.UUID]
		if !ok || emptyAnswer(answer) {
			continue
		}
		r.Answered++

		switch {
		case models.IsChoiceType(q.Type):
			for _, v := range answerValues(answer) {
				r.OptionCounts[v]++
			}
		case q.Type == models.QuestionRating:
			if n, ok := ratingValue(answer); ok {
				sum += float64(n)
				rated++
			}
		default:
			if str, ok := answer.(string); ok {
				r.TextAnswers = append(r.TextAnswers, str)
			}
		}
	}

	if rated > 0 {
		avg := sum / float64(rated)
		r.Average = &avg
	}
	return r
}
