package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/abrezinsky/surveydesk/internal/builder"
	"github.com/abrezinsky/surveydesk/internal/errors"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/repository"
)

// Rating bounds
const (
	RatingMin = 1
	RatingMax = 5
)

// yes/no questions without options accept these answers
var defaultYesNo = []string{"Yes", "No"}

// XPSource supplies the XP awarded per response
type XPSource interface {
	XPPerResponse(ctx context.Context) (int, error)
}

// ResponseServiceRepository defines the repository methods needed by ResponseService
type ResponseServiceRepository interface {
	GetSurveyByUUID(ctx context.Context, uuid string) (*models.Survey, error)
	repository.ResponseRepository
}

// ResponseService validates and stores survey responses
type ResponseService struct {
	log  logger.Logger
	repo ResponseServiceRepository
	eval *builder.Evaluator
	xp   XPSource
}

// NewResponseService creates a new ResponseService. A nil eval gets a fresh Evaluator.
func NewResponseService(log logger.Logger, repo ResponseServiceRepository, eval *builder.Evaluator, xp XPSource) *ResponseService {
	if eval == nil {
		eval = builder.NewEvaluator()
	}
	return &ResponseService{log: log, repo: repo, eval: eval, xp: xp}
}

// SubmitResult is returned after a response is stored
type SubmitResult struct {
	ResponseID int64 `json:"response_id"`
	XPEarned   int   `json:"xp_earned"`
}

// Visibility returns which questions of a published survey are shown for answers
func (s *ResponseService) Visibility(ctx context.Context, surveyUUID string, answers map[string]interface{}) (map[string]bool, error) {
	survey, err := s.published(ctx, surveyUUID)
	if err != nil {
		return nil, err
	}
	visible, err := s.eval.VisibleSet(survey.Questions, answers)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return visible, nil
}

// Submit validates and stores a response. userID is nil for anonymous
// respondents. Answers to hidden or unknown questions are dropped.
func (s *ResponseService) Submit(ctx context.Context, surveyUUID string, userID *int, answers map[string]interface{}) (*SubmitResult, error) {
	survey, err := s.published(ctx, surveyUUID)
	if err != nil {
		return nil, err
	}

	if survey.ParticipantMax != nil {
		count, err := s.repo.CountResponses(ctx, survey.ID)
		if err != nil {
			return nil, errors.Internal(err)
		}
		if count >= *survey.ParticipantMax {
			return nil, ErrSurveyFull
		}
	}

	if userID != nil {
		done, err := s.repo.HasResponded(ctx, survey.ID, *userID)
		if err != nil {
			return nil, errors.Internal(err)
		}
		if done {
			return nil, ErrAlreadyResponded
		}
	}

	kept, err := s.validateAnswers(survey.Questions, answers)
	if err != nil {
		return nil, err
	}

	xp := 0
	if userID != nil {
		if xp, err = s.xp.XPPerResponse(ctx); err != nil {
			return nil, err
		}
	}

	id, err := s.repo.CreateResponse(ctx, models.Response{SurveyID: survey.ID, UserID: userID, Answers: kept}, xp)
	if err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyResponded
		}
		return nil, errors.Internal(err)
	}

	s.log.Info("Response recorded", "survey_id", survey.ID, "response_id", id, "xp", xp)
	return &SubmitResult{ResponseID: id, XPEarned: xp}, nil
}

func (s *ResponseService) published(ctx context.Context, surveyUUID string) (*models.Survey, error) {
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

// validateAnswers returns the answers to visible questions, or field errors keyed "answers.<uuid>"
func (s *ResponseService) validateAnswers(qs []models.Question, answers map[string]interface{}) (map[string]interface{}, error) {
	answers = canonicalAnswers(qs, answers)
	visible, err := s.eval.VisibleSet(qs, answers)
	if err != nil {
		return nil, errors.Internal(err)
	}

	fields := errors.FieldErrors{}
	kept := make(map[string]interface{}, len(answers))
	for _, q := range qs {
		if !visible[q.UUID] {
			continue
		}
		field := "answers." + q.UUID
		answer, ok := answers[q.UUID]
		if !ok || emptyAnswer(answer) {
			if q.Required {
				fields.Add(field, fmt.Sprintf("question %d is required", q.SequenceNumber))
			}
			continue
		}
		if msg := checkAnswer(q, answer); msg != "" {
			fields.Add(field, msg)
			continue
		}
		kept[q.UUID] = answer
	}

	if err := fields.Err(); err != nil {
		return nil, err
	}
	return kept, nil
}

// canonicalAnswers returns a copy of answers with yes/no answers spelled as
// their option, so visibility rules and storage see the same value
func canonicalAnswers(qs []models.Question, answers map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(answers))
	for k, v := range answers {
		out[k] = v
	}
	for _, q := range qs {
		if q.Type != models.QuestionYesNo {
			continue
		}
		if str, ok := out[q.UUID].(string); ok {
			if o := canonicalOption(q, str); o != "" {
				out[q.UUID] = o
			}
		}
	}
	return out
}

// checkAnswer returns a message when answer does not fit question q
func checkAnswer(q models.Question, answer interface{}) string {
	switch q.Type {
	case models.QuestionSingleChoice, models.QuestionYesNo:
		str, ok := answer.(string)
		if !ok {
			return "must be a single option"
		}
		if !hasOption(q, str) {
			return fmt.Sprintf("%q is not one of the options", str)
		}
	case models.QuestionMultipleChoice:
		list, ok := answer.([]interface{})
		if !ok {
			return "must be a list of options"
		}
		seen := make(map[string]bool, len(list))
		for _, v := range list {
			str, ok := v.(string)
			if !ok || !hasOption(q, str) {
				return fmt.Sprintf("%v is not one of the options", v)
			}
			if seen[str] {
				return fmt.Sprintf("%q is selected more than once", str)
			}
			seen[str] = true
		}
	case models.QuestionRating:
		if _, ok := ratingValue(answer); !ok {
			return fmt.Sprintf("must be a whole number from %d to %d", RatingMin, RatingMax)
		}
	case models.QuestionText:
		if _, ok := answer.(string); !ok {
			return "must be text"
		}
	}
	return ""
}

func hasOption(q models.Question, v string) bool {
	return canonicalOption(q, v) != ""
}

// canonicalOption returns the option matching v, or "". Yes/no answers match
// case-insensitively.
func canonicalOption(q models.Question, v string) string {
	options := q.Options
	if q.Type == models.QuestionYesNo && len(options) == 0 {
		options = defaultYesNo
	}
	for _, o := range options {
		if o == v || (q.Type == models.QuestionYesNo && strings.EqualFold(o, v)) {
			return o
		}
	}
	return ""
}

// ratingValue reads a 1..5 rating from a JSON number or numeric string
func ratingValue(answer interface{}) (int, bool) {
	var f float64
	switch v := answer.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if f != math.Trunc(f) || f < RatingMin || f > RatingMax {
		return 0, false
	}
	return int(f), true
}

// answerValues flattens a choice answer into its selected options
func answerValues(answer interface{}) []string {
	switch v := answer.(type) {
	case string:
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case []string:
		return v
	}
	return nil
}

func emptyAnswer(answer interface{}) bool {
	switch v := answer.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []interface{}:
		return len(v) == 0
	case []string:
		return len(v) == 0
	}
	return false
}
