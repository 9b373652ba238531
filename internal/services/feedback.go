package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/abrezinsky/surveydesk/internal/errors"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
	"github.com/abrezinsky/surveydesk/internal/repository"
)

// Bug report statuses
const (
	BugOpen       = "open"
	BugInProgress = "in_progress"
	BugResolved   = "resolved"
	BugClosed     = "closed"
)

// Bug report severities
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

var (
	ideaStatuses = []string{models.IdeaOpen, models.IdeaPlanned, models.IdeaInProgress, models.IdeaDone, models.IdeaDeclined}
	bugStatuses  = []string{BugOpen, BugInProgress, BugResolved, BugClosed}
	severities   = []string{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
)

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// FeedbackService handles the idea board and bug reports
type FeedbackService struct {
	log  logger.Logger
	repo repository.FeedbackRepository
}

// NewFeedbackService creates a new FeedbackService
func NewFeedbackService(log logger.Logger, repo repository.FeedbackRepository) *FeedbackService {
	return &FeedbackService{log: log, repo: repo}
}

// IdeaInput represents a new idea
type IdeaInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// VoteResult is the state of an idea's votes after a toggle
type VoteResult struct {
	Voted bool `json:"voted"`
	Votes int  `json:"votes"`
}

// ==================== Ideas ====================

// CreateIdea posts an idea in status open
func (s *FeedbackService) CreateIdea(ctx context.Context, authorID int, in IdeaInput) (*models.Idea, error) {
	fields := errors.FieldErrors{}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		fields.Add("title", "is required")
	} else if len(title) > 200 {
		fields.Add("title", "must be at most 200 characters")
	}
	if strings.TrimSpace(in.Description) == "" {
		fields.Add("description", "is required")
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	id, err := s.repo.CreateIdea(ctx, models.Idea{Title: title, Description: strings.TrimSpace(in.Description), AuthorID: authorID})
	if err != nil {
		return nil, errors.Internal(err)
	}
	s.log.Info("Idea created", "idea_id", id, "author_id", authorID)
	return s.GetIdea(ctx, int(id), authorID)
}

// ListIdeas returns a page of ideas sorted top (most votes) or new
func (s *FeedbackService) ListIdeas(ctx context.Context, sort, status string, viewerID, page, limit int) (*paginator.Page[models.Idea], error) {
	if sort == "" {
		sort = repository.IdeaSortTop
	}
	if sort != repository.IdeaSortTop && sort != repository.IdeaSortNew {
		return nil, errors.Field("sort", "must be top or new")
	}
	if status != "" && !oneOf(status, ideaStatuses) {
		return nil, errors.Field("status", fmt.Sprintf("must be one of %s", strings.Join(ideaStatuses, ", ")))
	}
	ideas, err := s.repo.ListIdeas(ctx, sort, status, viewerID, page, limit)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return ideas, nil
}

// GetIdea returns an idea with its comments
func (s *FeedbackService) GetIdea(ctx context.Context, id, viewerID int) (*models.Idea, error) {
	idea, err := s.repo.GetIdea(ctx, id, viewerID)
	if err != nil {
		return nil, fromRepo(err, "idea not found")
	}
	idea.Comments, err = s.repo.ListIdeaComments(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return idea, nil
}

// ToggleVote adds the user's upvote or takes it back
func (s *FeedbackService) ToggleVote(ctx context.Context, ideaID, userID int) (*VoteResult, error) {
	voted, votes, err := s.repo.ToggleVote(ctx, ideaID, userID)
	if err != nil {
		return nil, fromRepo(err, "idea not found")
	}
	return &VoteResult{Voted: voted, Votes: votes}, nil
}

// AddComment comments on an idea
func (s *FeedbackService) AddComment(ctx context.Context, ideaID, authorID int, body string) (*models.IdeaComment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, errors.Field("body", "is required")
	}
	if _, err := s.repo.GetIdea(ctx, ideaID, authorID); err != nil {
		return nil, fromRepo(err, "idea not found")
	}

	id, err := s.repo.AddIdeaComment(ctx, models.IdeaComment{IdeaID: ideaID, AuthorID: authorID, Body: body})
	if err != nil {
		return nil, errors.Internal(err)
	}
	comments, err := s.repo.ListIdeaComments(ctx, ideaID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	for i := range comments {
		if comments[i].ID == int(id) {
			return &comments[i], nil
		}
	}
	return nil, errors.Internalf("comment %d not found after insert", id)
}

// UpdateIdeaStatus moves an idea through the board
func (s *FeedbackService) UpdateIdeaStatus(ctx context.Context, id int, status string) error {
	if !oneOf(status, ideaStatuses) {
		return errors.Field("status", fmt.Sprintf("must be one of %s", strings.Join(ideaStatuses, ", ")))
	}
	if err := s.repo.UpdateIdeaStatus(ctx, id, status); err != nil {
		return fromRepo(err, "idea not found")
	}
	s.log.Info("Idea status changed", "idea_id", id, "status", status)
	return nil
}

// ==================== Bug Reports ====================

// BugReportInput represents a bug report submission
type BugReportInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	PageURL     string `json:"page_url"`
}

// SubmitBugReport files a bug report; userID is nil for anonymous reports
func (s *FeedbackService) SubmitBugReport(ctx context.Context, userID *int, in BugReportInput) (int64, error) {
	fields := errors.FieldErrors{}
	if strings.TrimSpace(in.Title) == "" {
		fields.Add("title", "is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		fields.Add("description", "is required")
	}
	if in.Severity == "" {
		in.Severity = SeverityMedium
	}
	if !oneOf(in.Severity, severities) {
		fields.Add("severity", fmt.Sprintf("must be one of %s", strings.Join(severities, ", ")))
	}
	if err := fields.Err(); err != nil {
		return 0, err
	}

	id, err := s.repo.CreateBugReport(ctx, models.BugReport{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Severity:    in.Severity,
		PageURL:     strings.TrimSpace(in.PageURL),
	})
	if err != nil {
		return 0, errors.Internal(err)
	}
	s.log.Info("Bug report submitted", "report_id", id, "severity", in.Severity)
	return id, nil
}

// ListBugReports returns a page of bug reports, optionally by status
func (s *FeedbackService) ListBugReports(ctx context.Context, status string, page, limit int) (*paginator.Page[models.BugReport], error) {
	if status != "" && !oneOf(status, bugStatuses) {
		return nil, errors.Field("status", fmt.Sprintf("must be one of %s", strings.Join(bugStatuses, ", ")))
	}
	reports, err := s.repo.ListBugReports(ctx, status, page, limit)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return reports, nil
}

// UpdateBugReportStatus changes a bug report's status
func (s *FeedbackService) UpdateBugReportStatus(ctx context.Context, id int, status string) error {
	if !oneOf(status, bugStatuses) {
		return errors.Field("status", fmt.Sprintf("must be one of %s", strings.Join(bugStatuses, ", ")))
	}
	return fromRepo(s.repo.UpdateBugReportStatus(ctx, id, status), "bug report not found")
}
