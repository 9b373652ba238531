package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/surveydesk/internal/builder"
	"github.com/abrezinsky/surveydesk/internal/errors"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/models"
)

// DefaultDraftTTL is how long an untouched draft is kept
const DefaultDraftTTL = 2 * time.Hour

// Editor positions
const (
	EditorInsert = "insert"
	EditorEdit   = "edit"
)

// Editor is an open question edit card. Its pending question is not part
// of the draft until the editor is submitted.
type Editor struct {
	ID           string           `json:"id"`
	Type         string           `json:"type"`
	Index        int              `json:"index"`
	Position     string           `json:"position"`
	QuestionUUID string           `json:"question_uuid,omitempty"`
	Pending      *models.Question `json:"pending"`
}

// Draft is an unsaved working copy of a survey
type Draft struct {
	ID             string            `json:"id"`
	SurveyID       int               `json:"survey_id"`
	OwnerID        int               `json:"owner_id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	ParticipantMin *int              `json:"participant_min"`
	ParticipantMax *int              `json:"participant_max"`
	BusinessID     *int              `json:"business_id,omitempty"`
	Questions      []models.Question `json:"questions"`
	Editors        []Editor          `json:"editors"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	n := *p
	return &n
}

func (d *Draft) clone() *Draft {
	c := *d
	c.ParticipantMin = copyInt(d.ParticipantMin)
	c.ParticipantMax = copyInt(d.ParticipantMax)
	c.BusinessID = copyInt(d.BusinessID)
	c.Questions = models.CloneQuestions(d.Questions)
	if c.Questions == nil {
		c.Questions = []models.Question{}
	}
	c.Editors = make([]Editor, len(d.Editors))
	for i, e := range d.Editors {
		c.Editors[i] = e
		if e.Pending != nil {
			p := e.Pending.Clone()
			c.Editors[i].Pending = &p
		}
	}
	return &c
}

func (d *Draft) editor(id string) (int, error) {
	for i, e := range d.Editors {
		if e.ID == id {
			return i, nil
		}
	}
	return -1, ErrEditorNotFound
}

func (d *Draft) indexOf(questionUUID string) int {
	for i, q := range d.Questions {
		if q.UUID == questionUUID {
			return i
		}
	}
	return -1
}

// syncEditors re-points edit cards at their question after a structural
// change and closes the ones whose question is gone
func (d *Draft) syncEditors() []builder.Warning {
	var warnings []builder.Warning
	kept := d.Editors[:0]
	for _, e := range d.Editors {
		switch e.Position {
		case EditorEdit:
			i := d.indexOf(e.QuestionUUID)
			if i < 0 {
				warnings = append(warnings, builder.Warning{
					QuestionUUID: e.QuestionUUID,
					Message:      "Editor closed: the question it was editing was deleted",
				})
				continue
			}
			e.Index = i
		case EditorInsert:
			if e.Index > len(d.Questions) {
				e.Index = len(d.Questions)
			}
		}
		kept = append(kept, e)
	}
	d.Editors = kept
	return warnings
}

// DraftResult is returned by every draft mutation
type DraftResult struct {
	Draft    *Draft            `json:"draft"`
	Editor   *Editor           `json:"editor,omitempty"`
	Warnings []builder.Warning `json:"warnings,omitempty"`
}

// DraftMeta represents the survey-level fields of a draft
type DraftMeta struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	ParticipantMin *int   `json:"participant_min"`
	ParticipantMax *int   `json:"participant_max"`
	BusinessID     *int   `json:"business_id"`
}

type draftEntry struct {
	mu       sync.Mutex
	ownerID  int
	lastUsed atomic.Int64
	draft    *Draft
}

// DraftServiceRepository defines the repository methods needed by DraftService
type DraftServiceRepository interface {
	GetSurvey(ctx context.Context, id int) (*models.Survey, error)
	SaveSurvey(ctx context.Context, s *models.Survey) (int64, error)
	GetBankItem(ctx context.Context, id int) (*models.QuestionBankItem, error)
}

// DraftService keeps survey drafts in memory while they are edited.
// Every mutation is applied to a copy and committed only when it succeeds,
// so an error or a declined confirmation leaves the draft as it was.
type DraftService struct {
	log  logger.Logger
	repo DraftServiceRepository
	ttl  time.Duration
	now  func() time.Time

	mu     sync.Mutex
	drafts map[string]*draftEntry
}

// NewDraftService creates a new DraftService; ttl <= 0 uses DefaultDraftTTL
func NewDraftService(log logger.Logger, repo DraftServiceRepository, ttl time.Duration) *DraftService {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &DraftService{
		log:    log,
		repo:   repo,
		ttl:    ttl,
		now:    time.Now,
		drafts: make(map[string]*draftEntry),
	}
}

// SetClock overrides the time source (for testing)
func (s *DraftService) SetClock(now func() time.Time) {
	s.now = now
}

// Start runs the janitor that evicts idle drafts until ctx is done
func (s *DraftService) Start(ctx context.Context) {
	interval := s.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.EvictIdle()
			}
		}
	}()
}

// EvictIdle drops drafts untouched for longer than the TTL and returns how many went
func (s *DraftService) EvictIdle() int {
	cutoff := s.now().Add(-s.ttl).UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, e := range s.drafts {
		if e.lastUsed.Load() < cutoff {
			delete(s.drafts, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.log.Debug("Evicted idle drafts", "count", evicted, "remaining", len(s.drafts))
	}
	return evicted
}

// Count returns the number of open drafts
func (s *DraftService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

func (s *DraftService) entry(actor Actor, id string) (*draftEntry, error) {
	s.mu.Lock()
	e, ok := s.drafts[id]
	s.mu.Unlock()
	if !ok || (e.ownerID != actor.UserID && !actor.IsAdmin()) {
		return nil, ErrDraftNotFound
	}
	e.lastUsed.Store(s.now().UnixNano())
	return e, nil
}

// mutate applies fn to a copy of the draft and commits the copy when fn succeeds
func (s *DraftService) mutate(actor Actor, id string, fn func(d *Draft) ([]builder.Warning, error)) (*DraftResult, error) {
	e, err := s.entry(actor, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.draft.clone()
	warnings, err := fn(work)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, work.syncEditors()...)
	work.UpdatedAt = s.now()
	e.draft = work

	return &DraftResult{Draft: work.clone(), Warnings: warnings}, nil
}

// Open starts a draft of an existing survey, or of a new one when surveyID is 0
func (s *DraftService) Open(ctx context.Context, actor Actor, surveyID int) (*DraftResult, error) {
	d := &Draft{
		ID:        uuid.NewString(),
		OwnerID:   actor.UserID,
		Questions: []models.Question{},
		Editors:   []Editor{},
		UpdatedAt: s.now(),
	}

	if surveyID != 0 {
		survey, err := s.repo.GetSurvey(ctx, surveyID)
		if err != nil {
			return nil, fromRepo(err, "survey not found")
		}
		if !actor.canManage(survey) {
			return nil, errors.Forbidden("you cannot manage this survey")
		}
		d.SurveyID = survey.ID
		d.Title = survey.Title
		d.Description = survey.Description
		d.ParticipantMin = survey.ParticipantMin
		d.ParticipantMax = survey.ParticipantMax
		d.BusinessID = survey.BusinessID
		d.Questions = models.CloneQuestions(survey.Questions)
	}

	e := &draftEntry{ownerID: actor.UserID, draft: d}
	e.lastUsed.Store(s.now().UnixNano())

	s.mu.Lock()
	s.drafts[d.ID] = e
	s.mu.Unlock()

	s.log.Debug("Draft opened", "draft_id", d.ID, "survey_id", surveyID)
	return &DraftResult{Draft: d.clone()}, nil
}

// Get returns a snapshot of a draft
func (s *DraftService) Get(actor Actor, id string) (*Draft, error) {
	e, err := s.entry(actor, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.clone(), nil
}

// Discard throws a draft away
func (s *DraftService) Discard(actor Actor, id string) error {
	if _, err := s.entry(actor, id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.drafts, id)
	s.mu.Unlock()
	s.log.Debug("Draft discarded", "draft_id", id)
	return nil
}

// UpdateMeta replaces the survey-level fields of a draft
func (s *DraftService) UpdateMeta(actor Actor, id string, meta DraftMeta) (*DraftResult, error) {
	return s.mutate(actor, id, func(d *Draft) ([]builder.Warning, error) {
		fields := errors.FieldErrors{}
		// the title is checked on save so a draft can start untitled
		validateParticipantLimits(fields, meta.ParticipantMin, meta.ParticipantMax)
		if err := fields.Err(); err != nil {
			return nil, err
		}
		if !sameBusiness(d.BusinessID, meta.BusinessID) && !actor.canActFor(meta.BusinessID) {
			return nil, ErrForeignBusiness
		}
		d.Title = strings.TrimSpace(meta.Title)
		d.Description = meta.Description
		d.ParticipantMin = copyInt(meta.ParticipantMin)
		d.ParticipantMax = copyInt(meta.ParticipantMax)
		d.BusinessID = copyInt(meta.BusinessID)
		return nil, nil
	})
}

// Move moves the question at from to index to
func (s *DraftService) Move(actor Actor, id string, from, to int) (*DraftResult, error) {
	return s.mutate(actor, id, func(d *Draft) ([]builder.Warning, error) {
		res, err := builder.Move(d.Questions, from, to)
		if err != nil {
			return nil, fromBuilder(err, nil)
		}
		d.Questions = res.Questions
		return res.Warnings, nil
	})
}

// Insert inserts q at index at
func (s *DraftService) Insert(actor Actor, id string, at int, q models.Question) (*DraftResult, error) {
	return s.mutate(actor, id, func(d *Draft) ([]builder.Warning, error) {
		return d.insert(at, q)
	})
}

func (d *Draft) insert(at int, q models.Question) ([]builder.Warning, error) {
	if len(d.Questions) >= builder.MaxQuestions {
		return nil, errors.Field("questions", fmt.Sprintf("must not contain more than %d questions", builder.MaxQuestions))
	}
	res, err := builder.Insert(d.Questions, at, q)
	if err != nil {
		return nil, fromBuilder(err, nil)
	}
	if err := questionErrors(res.Questions, at); err != nil {
		return nil, err
	}
	d.Questions = res.Questions
	return res.Warnings, nil
}

// InsertFromBank inserts a copy of a question bank item at index at
func (s *DraftService) InsertFromBank(ctx context.Context, actor Actor, id string, itemID, at int) (*DraftResult, error) {
	item, err := s.repo.GetBankItem(ctx, itemID)
	if err != nil {
		return nil, fromRepo(err, "question bank item not found")
	}
	q := models.Question{
		Type:    item.Type,
		Text:    item.Text,
		Options: append([]string(nil), item.Options...),
	}
	return s.Insert(actor, id, at, q)
}

// Delete removes the question at index at. When other questions depend on
// it and confirm is false nothing changes and a ConfirmationRequiredError
// describes what would break.
func (s *DraftService) Delete(actor Actor, id string, at int, confirm bool) (*DraftResult, error) {
	return s.mutate(actor, id, func(d *Draft) ([]builder.Warning, error) {
		rec := &builder.Recorder{Accept: confirm}
		res, err := builder.Remove(d.Questions, at, rec)
		if err != nil {
			return nil, fromBuilder(err, rec)
		}
		d.Questions = res.Questions
		return res.Warnings, nil
	})
}

// Replace swaps the question at index at for q. A critical edit of a
// question others depend on needs confirm.
func (s *DraftService) Replace(actor Actor, id string, at int, q models.Question, confirm bool) (*DraftResult, error) {
	return s.mutate(actor, id, func(d *Draft) ([]builder.Warning, error) {
		return d.replace(at, q, confirm)
	})
}

func (d *Draft) replace(at int, q models.Question, confirm bool) ([]builder.Warning, error) {
	rec := &builder.Recorder{Accept: confirm}
	res, err := builder.Replace(d.Questions, at, q, rec)
	if err != nil {
		return nil, fromBuilder(err, rec)
	}
	if err := questionErrors(res.Questions, at); err != nil {
		return nil, err
	}
	d.Questions = res.Questions
	return res.Warnings, nil
}

// questionErrors returns the validation errors of the question at index i only
func questionErrors(qs []models.Question, i int) error {
	err := builder.Validate(qs)
	if err == nil {
		return nil
	}
	all := errors.FieldErrors{}
	if other := mergeFieldErrors(all, err); other != nil {
		return other
	}
	prefix := fmt.Sprintf("questions[%d].", i)
	mine := errors.FieldErrors{}
	for field, msgs := range all {
		if strings.HasPrefix(field, prefix) {
			for _, msg := range msgs {
				mine.Add(field, msg)
			}
		}
	}
	return mine.Err()
}

// ==================== Editors ====================

// OpenEditor opens an edit card. For EditorInsert, index is the insert
// position and qType the new question's type; for EditorEdit, index is
// the question to edit and an empty qType keeps its type.
func (s *DraftService) OpenEditor(actor Actor, id, qType string, index int, position string) (*DraftResult, error) {
	var opened Editor
	res, err := s.mutate(actor, id, func(d *Draft) ([]builder.Warning, error) {
		ed := Editor{ID: uuid.NewString(), Index: index, Position: position}

		switch position {
		case EditorInsert:
			if index < 0 || index > len(d.Questions) {
				return nil, fromBuilder(builder.ErrIndexOutOfRange, nil)
			}
			if !models.IsValidQuestionType(qType) {
				return nil, errors.Field("type", fmt.Sprintf("unknown question type %q", qType))
			}
			ed.Type = qType
			ed.Pending = &models.Question{Type: qType, Options: []string{}}
		case EditorEdit:
			if index < 0 || index >= len(d.Questions) {
				return nil, fromBuilder(builder.ErrIndexOutOfRange, nil)
			}
			q := d.Questions[index].Clone()
			for _, e := range d.Editors {
				if e.Position == EditorEdit && e.QuestionUUID == q.UUID {
					return nil, errors.Conflictf("question %d is already being edited", index+1)
				}
			}
			if qType != "" {
				if !models.IsValidQuestionType(qType) {
					return nil, errors.Field("type", fmt.Sprintf("unknown question type %q", qType))
				}
				q.Type = qType
			}
			ed.Type = q.Type
			ed.QuestionUUID = q.UUID
			ed.Pending = &q
		default:
			return nil, errors.Field("position", "must be insert or edit")
		}

		d.Editors = append(d.Editors, ed)
		opened = ed
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	res.Editor = &opened
	return res, nil
}

// UpdateEditor replaces an editor's pending question
func (s *DraftService) UpdateEditor(actor Actor, id, editorID string, pending models.Question) (*DraftResult, error) {
	var updated Editor
	res, err := s.mutate(actor, id, func(d *Draft) ([]builder.Warning, error) {
		i, err := d.editor(editorID)
		if err != nil {
			return nil, err
		}
		p := pending.Clone()
		if p.Type == "" {
			p.Type = d.Editors[i].Type
		}
		if !models.IsValidQuestionType(p.Type) {
			return nil, errors.Field("type", fmt.Sprintf("unknown question type %q", p.Type))
		}
		if p.Options == nil {
			p.Options = []string{}
		}
		d.Editors[i].Type = p.Type
		d.Editors[i].Pending = &p
		updated = d.Editors[i]
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	res.Editor = &updated
	return res, nil
}

// SubmitEditor applies an editor's pending question to the draft and closes
// the editor. When the change needs confirmation and confirm is false, or
// the pending question is invalid, the editor stays open with its pending
// question and the draft is unchanged.
func (s *DraftService) SubmitEditor(actor Actor, id, editorID string, confirm bool) (*DraftResult, error) {
	return s.mutate(actor, id, func(d *Draft) ([]builder.Warning, error) {
		i, err := d.editor(editorID)
		if err != nil {
			return nil, err
		}
		ed := d.Editors[i]

		var warnings []builder.Warning
		switch ed.Position {
		case EditorInsert:
			warnings, err = d.insert(ed.Index, *ed.Pending)
		default:
			at := d.indexOf(ed.QuestionUUID)
			if at < 0 {
				return nil, ErrEditorNotFound
			}
			warnings, err = d.replace(at, *ed.Pending, confirm)
		}
		if err != nil {
			return nil, err
		}

		d.Editors = append(d.Editors[:i], d.Editors[i+1:]...)
		return warnings, nil
	})
}

// CloseEditor discards an editor and its pending question
func (s *DraftService) CloseEditor(actor Actor, id, editorID string) (*DraftResult, error) {
	return s.mutate(actor, id, func(d *Draft) ([]builder.Warning, error) {
		i, err := d.editor(editorID)
		if err != nil {
			return nil, err
		}
		d.Editors = append(d.Editors[:i], d.Editors[i+1:]...)
		return nil, nil
	})
}

// ==================== Save ====================

// Save validates the draft and writes it to the survey in one transaction.
// Open editors are not part of the save. The draft stays open afterwards.
func (s *DraftService) Save(ctx context.Context, actor Actor, id string) (*models.Survey, error) {
	e, err := s.entry(actor, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	d := e.draft

	fields := errors.FieldErrors{}
	validateSurveyMeta(fields, d.Title, d.ParticipantMin, d.ParticipantMax)
	if err := mergeFieldErrors(fields, builder.Validate(d.Questions)); err != nil {
		return nil, err
	}

	survey := &models.Survey{UUID: uuid.NewString(), CreatedBy: d.OwnerID}
	if d.SurveyID != 0 {
		if survey, err = s.repo.GetSurvey(ctx, d.SurveyID); err != nil {
			return nil, fromRepo(err, "survey not found")
		}
		if survey.Published && len(d.Questions) == 0 {
			fields.Add("questions", "a published survey needs at least one question")
		}
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	survey.Title = d.Title
	survey.Description = d.Description
	survey.ParticipantMin = copyInt(d.ParticipantMin)
	survey.ParticipantMax = copyInt(d.ParticipantMax)
	survey.BusinessID = copyInt(d.BusinessID)
	survey.Questions = models.CloneQuestions(d.Questions)

	surveyID, err := s.repo.SaveSurvey(ctx, survey)
	if err != nil {
		return nil, fromRepo(err, "survey not found")
	}
	saved, err := s.repo.GetSurvey(ctx, int(surveyID))
	if err != nil {
		return nil, fromRepo(err, "survey not found")
	}

	next := d.clone()
	next.SurveyID = saved.ID
	next.Questions = models.CloneQuestions(saved.Questions)
	next.UpdatedAt = s.now()
	e.draft = next

	s.log.Info("Draft saved", "draft_id", id, "survey_id", saved.ID, "questions", len(saved.Questions))
	return saved, nil
}
