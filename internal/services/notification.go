package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/abrezinsky/surveydesk/internal/errors"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
	"github.com/abrezinsky/surveydesk/internal/repository"
	"github.com/abrezinsky/surveydesk/internal/workerpool"
	"github.com/abrezinsky/surveydesk/pkg/mailgate"
)

// Notification audiences
const (
	AudienceAll   = "all"
	AudienceRole  = "role"
	AudienceUsers = "users"
)

// Notification types
const (
	NotificationInfo     = "info"
	NotificationSuccess  = "success"
	NotificationWarning  = "warning"
	NotificationDelivery = "delivery"
	NotificationReward   = "reward"
)

// Websocket message types
const (
	MsgNotification = "notification"
	MsgUnreadCount  = "unread_count"
)

// Mail retry policy
const (
	MailRetries    = 3
	MailRetryDelay = 5 * time.Second
)

// sqliteTime is the layout of CURRENT_TIMESTAMP values
const sqliteTime = "2006-01-02 15:04:05"

var notificationTypes = []string{NotificationInfo, NotificationSuccess, NotificationWarning, NotificationDelivery, NotificationReward}

// Pusher delivers live messages to connected users
type Pusher interface {
	SendToUser(userID int, msgType string, payload interface{})
}

// JobQueue runs background jobs
type JobQueue interface {
	Submit(job workerpool.Job) error
}

// NotificationServiceRepository defines the repository methods needed by NotificationService
type NotificationServiceRepository interface {
	repository.NotificationRepository
	GetUser(ctx context.Context, id int) (*models.User, error)
	ListUserIDs(ctx context.Context, role string) ([]int, error)
}

// NotificationService stores notifications and fans them out to users
type NotificationService struct {
	log        logger.Logger
	repo       NotificationServiceRepository
	jobs       JobQueue
	hub        Pusher
	mail       Mailer
	retryDelay time.Duration
	now        func() time.Time
}

// NewNotificationService creates a new NotificationService. hub and mail may be nil.
func NewNotificationService(log logger.Logger, repo NotificationServiceRepository, jobs JobQueue, hub Pusher, mail Mailer) *NotificationService {
	return &NotificationService{
		log:        log,
		repo:       repo,
		jobs:       jobs,
		hub:        hub,
		mail:       mail,
		retryDelay: MailRetryDelay,
		now:        time.Now,
	}
}

// SetMailRetryDelay overrides the delay between mail attempts (for testing)
func (s *NotificationService) SetMailRetryDelay(d time.Duration) {
	s.retryDelay = d
}

// SendRequest is an admin notification to an audience
type SendRequest struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Type     string `json:"type"`
	Audience string `json:"audience"`
	Role     string `json:"role,omitempty"`
	UserIDs  []int  `json:"user_ids,omitempty"`
	Email    bool   `json:"email"`
}

// SendResult reports how a fan-out was queued
type SendResult struct {
	Recipients int `json:"recipients"`
	Queued     int `json:"queued"`
	Dropped    int `json:"dropped"`
}

func (r *SendRequest) validate() error {
	fields := errors.FieldErrors{}
	r.Title = strings.TrimSpace(r.Title)
	r.Message = strings.TrimSpace(r.Message)
	if r.Title == "" {
		fields.Add("title", "is required")
	}
	if r.Message == "" {
		fields.Add("message", "is required")
	}
	if r.Type == "" {
		r.Type = NotificationInfo
	}
	if !oneOf(r.Type, notificationTypes) {
		fields.Add("type", fmt.Sprintf("must be one of %s", strings.Join(notificationTypes, ", ")))
	}
	switch r.Audience {
	case AudienceAll:
	case AudienceRole:
		if !oneOf(r.Role, []string{models.RoleUser, models.RoleBusiness, models.RoleAdmin}) {
			fields.Add("role", "must be user, business or admin")
		}
	case AudienceUsers:
		if len(r.UserIDs) == 0 {
			fields.Add("user_ids", "must name at least one user")
		}
	default:
		fields.Add("audience", "must be all, role or users")
	}
	return fields.Err()
}

// Send queues a notification for every user in the audience. Each
// recipient's notification is stored and pushed on the worker pool;
// emails, when requested, are separate jobs retried on failure.
func (s *NotificationService) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var recipients []int
	switch req.Audience {
	case AudienceUsers:
		seen := make(map[int]bool, len(req.UserIDs))
		for _, id := range req.UserIDs {
			if id > 0 && !seen[id] {
				seen[id] = true
				recipients = append(recipients, id)
			}
		}
	default:
		role := ""
		if req.Audience == AudienceRole {
			role = req.Role
		}
		ids, err := s.repo.ListUserIDs(ctx, role)
		if err != nil {
			return nil, errors.Internal(err)
		}
		recipients = ids
	}

	result := &SendResult{Recipients: len(recipients)}
	for _, userID := range recipients {
		userID := userID
		err := s.jobs.Submit(func(ctx context.Context) {
			if _, err := s.Notify(ctx, userID, req.Title, req.Message, req.Type); err != nil {
				s.log.Error("Failed to notify user", "user_id", userID, "error", err)
				return
			}
			if req.Email {
				s.queueEmail(userID, req.Title, req.Message)
			}
		})
		if err != nil {
			result.Dropped++
			continue
		}
		result.Queued++
	}

	s.log.Info("Notification queued", "audience", req.Audience, "recipients", result.Recipients, "dropped", result.Dropped)
	return result, nil
}

func (s *NotificationService) queueEmail(userID int, subject, body string) {
	if s.mail == nil {
		return
	}
	job := workerpool.WithRetry(s.log, MailRetries, s.retryDelay, func(ctx context.Context) error {
		user, err := s.repo.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		return s.mail.Send(ctx, mailgate.Message{To: user.Email, Subject: subject, Body: body})
	})
	if err := s.jobs.Submit(job); err != nil {
		s.log.Warn("Notification email dropped", "user_id", userID, "error", err)
	}
}

// Notify stores a notification for one user and pushes it if they are connected
func (s *NotificationService) Notify(ctx context.Context, userID int, title, message, kind string) (*models.Notification, error) {
	id, err := s.repo.CreateNotification(ctx, models.Notification{UserID: userID, Title: title, Message: message, Type: kind})
	if err != nil {
		return nil, errors.Internal(err)
	}
	n := &models.Notification{
		ID:         int(id),
		UserID:     userID,
		Title:      title,
		Message:    message,
		Type:       kind,
		CreatedAt:  s.now().UTC().Format(sqliteTime),
		CreatedAgo: "now",
	}

	if s.hub != nil {
		s.hub.SendToUser(userID, MsgNotification, n)
		if unread, err := s.repo.CountUnread(ctx, userID); err == nil {
			s.hub.SendToUser(userID, MsgUnreadCount, map[string]int{"unread": unread})
		}
	}
	return n, nil
}

// List returns a page of a user's notifications with a human-readable age
func (s *NotificationService) List(ctx context.Context, userID int, unreadOnly bool, page, limit int) (*paginator.Page[models.Notification], error) {
	result, err := s.repo.ListNotifications(ctx, userID, unreadOnly, page, limit)
	if err != nil {
		return nil, errors.Internal(err)
	}
	now := s.now()
	for i := range result.Items {
		result.Items[i].CreatedAgo = s.age(result.Items[i].CreatedAt, now)
	}
	return result, nil
}

func (s *NotificationService) age(createdAt string, now time.Time) string {
	t, err := time.Parse(sqliteTime, createdAt)
	if err != nil {
		// drivers may hand back RFC 3339 instead
		if t, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return ""
		}
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// UnreadCount returns the number of unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, userID int) (int, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, errors.Internal(err)
	}
	return n, nil
}

// MarkRead marks one notification read
func (s *NotificationService) MarkRead(ctx context.Context, userID, id int) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return fromRepo(err, "notification not found")
	}
	s.pushUnread(ctx, userID)
	return nil
}

// MarkAllRead marks every notification read and returns how many changed
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, errors.Internal(err)
	}
	s.pushUnread(ctx, userID)
	return n, nil
}

func (s *NotificationService) pushUnread(ctx context.Context, userID int) {
	if s.hub == nil {
		return
	}
	if unread, err := s.repo.CountUnread(ctx, userID); err == nil {
		s.hub.SendToUser(userID, MsgUnreadCount, map[string]int{"unread": unread})
	}
}
