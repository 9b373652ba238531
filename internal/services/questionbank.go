package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/abrezinsky/surveydesk/internal/builder"
	"github.com/abrezinsky/surveydesk/internal/errors"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
	"github.com/abrezinsky/surveydesk/internal/repository"
)

// QuestionBankService manages reusable question templates
type QuestionBankService struct {
	log  logger.Logger
	repo repository.QuestionBankRepository
}

// NewQuestionBankService creates a new QuestionBankService
func NewQuestionBankService(log logger.Logger, repo repository.QuestionBankRepository) *QuestionBankService {
	return &QuestionBankService{log: log, repo: repo}
}

// BankItemInput represents the editable fields of a bank item
type BankItemInput struct {
	Type     string   `json:"type"`
	Text     string   `json:"text"`
	Options  []string `json:"options"`
	Category string   `json:"category"`
}

// validate checks the item as a one-question survey and reports errors
// under the item's own field names
func (in BankItemInput) validate() error {
	q := models.Question{UUID: "bank", SequenceNumber: 1, Type: in.Type, Text: in.Text, Options: in.Options}
	err := builder.Validate([]models.Question{q})
	if err == nil {
		return nil
	}
	all := errors.FieldErrors{}
	if other := mergeFieldErrors(all, err); other != nil {
		return other
	}
	fields := errors.FieldErrors{}
	for field, msgs := range all {
		name := strings.TrimPrefix(field, "questions[0].")
		for _, msg := range msgs {
			fields.Add(name, msg)
		}
	}
	return fields.Err()
}

// Create adds an item to the bank
func (s *QuestionBankService) Create(ctx context.Context, actor Actor, in BankItemInput) (*models.QuestionBankItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	id, err := s.repo.CreateBankItem(ctx, models.QuestionBankItem{
		UUID:      uuid.NewString(),
		Type:      in.Type,
		Text:      strings.TrimSpace(in.Text),
		Options:   in.Options,
		Category:  strings.TrimSpace(in.Category),
		CreatedBy: actor.UserID,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	s.log.Info("Question bank item created", "item_id", id)
	return s.Get(ctx, int(id))
}

// Get returns one bank item
func (s *QuestionBankService) Get(ctx context.Context, id int) (*models.QuestionBankItem, error) {
	item, err := s.repo.GetBankItem(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "question bank item not found")
	}
	return item, nil
}

// Update replaces a bank item's fields
func (s *QuestionBankService) Update(ctx context.Context, id int, in BankItemInput) (*models.QuestionBankItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	err := s.repo.UpdateBankItem(ctx, models.QuestionBankItem{
		ID:       id,
		Type:     in.Type,
		Text:     strings.TrimSpace(in.Text),
		Options:  in.Options,
		Category: strings.TrimSpace(in.Category),
	})
	if err != nil {
		return nil, fromRepo(err, "question bank item not found")
	}
	return s.Get(ctx, id)
}

// Delete removes a bank item
func (s *QuestionBankService) Delete(ctx context.Context, id int) error {
	return fromRepo(s.repo.DeleteBankItem(ctx, id), "question bank item not found")
}

// List returns a page of bank items, optionally in one category
func (s *QuestionBankService) List(ctx context.Context, category string, page, limit int) (*paginator.Page[models.QuestionBankItem], error) {
	items, err := s.repo.ListBankItems(ctx, strings.TrimSpace(category), page, limit)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return items, nil
}

// Categories returns the categories in use
func (s *QuestionBankService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.ListBankCategories(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return categories, nil
}
