package services

import (
	stderrors "errors"

	"github.com/abrezinsky/surveydesk/internal/builder"
	"github.com/abrezinsky/surveydesk/internal/errors"
	"github.com/abrezinsky/surveydesk/internal/repository"
)

// Service errors
var (
	ErrInvalidCredentials = errors.Unauthorized("invalid email or password")
	ErrInvalidOTP         = errors.InvalidInput("invalid or expired code")
	ErrTooManyAttempts    = errors.InvalidInput("too many attempts, request a new code")
	ErrEmailNotVerified   = errors.InvalidInput("email has not been verified")
	ErrInvalidToken       = errors.Unauthorized("invalid or expired token")
	ErrSurveyNotPublished = errors.NotFound("survey not found")
	ErrSurveyFull         = errors.Conflict("survey has reached its participant limit")
	ErrAlreadyResponded   = errors.Conflict("you have already responded to this survey")
	ErrForeignBusiness    = errors.Forbidden("you cannot manage surveys of this business")
	ErrDraftNotFound      = errors.NotFound("draft not found")
	ErrEditorNotFound     = errors.NotFound("editor not found")
	ErrNoActiveSeason     = errors.NotFound("no active season")
	ErrAlreadyPurchased   = errors.Conflict("premium pass already purchased for this season")
	ErrAlreadyClaimed     = errors.Conflict("reward already claimed")
	ErrNotEnoughXP        = errors.Forbidden("not enough XP to claim this reward")
	ErrPremiumRequired    = errors.Forbidden("reward requires the premium pass")
	ErrMailNotConfigured  = errors.InvalidInput("mail relay is not configured")
)

// ConfirmationRequiredError is returned when a draft change breaks other
// questions' conditional logic and was not confirmed. Resubmitting with
// confirmation applies it.
type ConfirmationRequiredError struct {
	Prompt builder.Prompt
}

func (e *ConfirmationRequiredError) Error() string {
	return e.Prompt.Message()
}

// Unwrap lets callers match builder.ErrAborted
func (e *ConfirmationRequiredError) Unwrap() error {
	return builder.ErrAborted
}

// fromRepo maps repository sentinels to application errors
func fromRepo(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, repository.ErrNotFound):
		return errors.NotFound(notFound)
	case stderrors.Is(err, repository.ErrDuplicate):
		return errors.Conflict("already exists")
	default:
		return errors.Internal(err)
	}
}

// fromBuilder maps builder errors, turning a declined prompt into a
// ConfirmationRequiredError carrying what would have been asked
func fromBuilder(err error, rec *builder.Recorder) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, builder.ErrAborted) && rec != nil && rec.Last != nil:
		return &ConfirmationRequiredError{Prompt: *rec.Last}
	case stderrors.Is(err, builder.ErrIndexOutOfRange):
		return errors.InvalidInput(err.Error())
	default:
		return err
	}
}
