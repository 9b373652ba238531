package repository

import (
	"context"

	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
)

// UserRepository defines user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, u models.User) (int64, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int, hash string) error
	UpdateUserRole(ctx context.Context, userID int, role string) error
	AddXP(ctx context.Context, userID, xp int) error
	ListUserIDs(ctx context.Context, role string) ([]int, error)
	ListUsers(ctx context.Context, search string, page, limit int) (*paginator.Page[models.User], error)
	Leaderboard(ctx context.Context, page, limit int) (*paginator.Page[models.LeaderboardEntry], error)
	UserRank(ctx context.Context, userID int) (int, error)
}

// CredentialRepository defines OTP and passkey data operations
type CredentialRepository interface {
	SaveOTP(ctx context.Context, otp models.OTP) error
	GetOTP(ctx context.Context, email, purpose string) (*models.OTP, error)
	IncrementOTPAttempts(ctx context.Context, email, purpose string) error
	MarkOTPVerified(ctx context.Context, email, purpose string) error
	DeleteOTP(ctx context.Context, email, purpose string) error
	CreatePasskey(ctx context.Context, p models.Passkey) (int64, error)
	GetPasskey(ctx context.Context, id int) (*models.Passkey, error)
	ListPasskeys(ctx context.Context, userID int) ([]models.Passkey, error)
	DeletePasskey(ctx context.Context, userID, id int) error
	CreateChallenge(ctx context.Context, c models.PasskeyChallenge) error
	TakeChallenge(ctx context.Context, id string) (*models.PasskeyChallenge, error)
}

// SurveyRepository defines survey and question data operations
type SurveyRepository interface {
	SaveSurvey(ctx context.Context, s *models.Survey) (int64, error)
	GetSurvey(ctx context.Context, id int) (*models.Survey, error)
	GetSurveyByUUID(ctx context.Context, uuid string) (*models.Survey, error)
	ListQuestions(ctx context.Context, surveyID int) ([]models.Question, error)
	ListSurveys(ctx context.Context, f SurveyFilter, page, limit int) (*paginator.Page[models.Survey], error)
	SetPublished(ctx context.Context, id int, published bool) error
	DeleteSurvey(ctx context.Context, id int) error
}

// ResponseRepository defines response data operations
type ResponseRepository interface {
	CreateResponse(ctx context.Context, resp models.Response, xp int) (int64, error)
	CountResponses(ctx context.Context, surveyID int) (int, error)
	HasResponded(ctx context.Context, surveyID, userID int) (bool, error)
	ListResponses(ctx context.Context, surveyID int) ([]models.Response, error)
}

// QuestionBankRepository defines question bank data operations
type QuestionBankRepository interface {
	CreateBankItem(ctx context.Context, item models.QuestionBankItem) (int64, error)
	GetBankItem(ctx context.Context, id int) (*models.QuestionBankItem, error)
	UpdateBankItem(ctx context.Context, item models.QuestionBankItem) error
	DeleteBankItem(ctx context.Context, id int) error
	ListBankItems(ctx context.Context, category string, page, limit int) (*paginator.Page[models.QuestionBankItem], error)
	ListBankCategories(ctx context.Context) ([]string, error)
}

// SeasonRepository defines season, reward and purchase data operations
type SeasonRepository interface {
	CreateSeason(ctx context.Context, s models.Season) (int64, error)
	GetSeason(ctx context.Context, id int) (*models.Season, error)
	GetActiveSeason(ctx context.Context) (*models.Season, error)
	ListSeasons(ctx context.Context) ([]models.Season, error)
	UpdateSeason(ctx context.Context, s models.Season) error
	DeleteSeason(ctx context.Context, id int) error
	ActivateSeason(ctx context.Context, id int) error
	CreateReward(ctx context.Context, rw models.Reward) (int64, error)
	GetReward(ctx context.Context, id int) (*models.Reward, error)
	ListRewards(ctx context.Context, seasonID int) ([]models.Reward, error)
	UpdateReward(ctx context.Context, rw models.Reward) error
	DeleteReward(ctx context.Context, id int) error
	CreatePurchase(ctx context.Context, p models.Purchase) (int64, error)
	HasPurchase(ctx context.Context, userID, seasonID int) (bool, error)
	ListPurchases(ctx context.Context, userID int) ([]models.Purchase, error)
}

// DeliveryRepository defines reward claim data operations
type DeliveryRepository interface {
	CreateDelivery(ctx context.Context, d models.Delivery) (int64, error)
	GetDelivery(ctx context.Context, id int) (*models.Delivery, error)
	ListDeliveries(ctx context.Context, f DeliveryFilter, page, limit int) (*paginator.Page[models.Delivery], error)
	ListClaimedRewardIDs(ctx context.Context, userID, seasonID int) (map[int]string, error)
	UpdateDeliveryStatus(ctx context.Context, id int, status, trackingNumber, notes string) error
}

// NotificationRepository defines notification data operations
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n models.Notification) (int64, error)
	ListNotifications(ctx context.Context, userID int, unreadOnly bool, page, limit int) (*paginator.Page[models.Notification], error)
	CountUnread(ctx context.Context, userID int) (int, error)
	MarkRead(ctx context.Context, userID, id int) error
	MarkAllRead(ctx context.Context, userID int) (int64, error)
}

// FeedbackRepository defines idea board and bug report data operations
type FeedbackRepository interface {
	CreateIdea(ctx context.Context, idea models.Idea) (int64, error)
	GetIdea(ctx context.Context, id, viewerID int) (*models.Idea, error)
	ListIdeas(ctx context.Context, sort, status string, viewerID, page, limit int) (*paginator.Page[models.Idea], error)
	ToggleVote(ctx context.Context, ideaID, userID int) (bool, int, error)
	AddIdeaComment(ctx context.Context, c models.IdeaComment) (int64, error)
	ListIdeaComments(ctx context.Context, ideaID int) ([]models.IdeaComment, error)
	UpdateIdeaStatus(ctx context.Context, id int, status string) error
	CreateBugReport(ctx context.Context, b models.BugReport) (int64, error)
	ListBugReports(ctx context.Context, status string, page, limit int) (*paginator.Page[models.BugReport], error)
	UpdateBugReportStatus(ctx context.Context, id int, status string) error
}

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) (map[string]string, error)
	GetStats(ctx context.Context) (models.Stats, error)
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	UserRepository
	CredentialRepository
	SurveyRepository
	ResponseRepository
	QuestionBankRepository
	SeasonRepository
	DeliveryRepository
	NotificationRepository
	FeedbackRepository
	SettingsRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
