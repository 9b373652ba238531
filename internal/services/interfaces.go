package services

import (
	"context"

	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
	"github.com/abrezinsky/surveydesk/internal/repository"
)

// AuthServicer defines the interface for account and session operations
type AuthServicer interface {
	RegisterStart(ctx context.Context, email string) (string, error)
	RegisterVerify(ctx context.Context, token, code string) error
	RegisterComplete(ctx context.Context, token, name, password, confirm string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Me(ctx context.Context, userID int) (*models.User, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetOTP(ctx context.Context, email, code string) (string, error)
	ResetPassword(ctx context.Context, resetToken, password, confirm string) error
	UpdatePassword(ctx context.Context, userID int, current, password, confirm string) error
	RegisterPasskey(ctx context.Context, userID int, name, publicKey string) (*models.Passkey, error)
	ListPasskeys(ctx context.Context, userID int) ([]models.Passkey, error)
	DeletePasskey(ctx context.Context, userID, id int) error
	PasskeyChallenge(ctx context.Context, email string) (*PasskeyChallengeResult, error)
	PasskeyLogin(ctx context.Context, challengeID string, credentialID int, signature string) (*AuthResult, error)
}

// UserServicer defines the interface for admin user management
type UserServicer interface {
	List(ctx context.Context, search string, page, limit int) (*paginator.Page[models.User], error)
	SetRole(ctx context.Context, actor Actor, userID int, role string) (*models.User, error)
}

// SurveyServicer defines the interface for survey operations
type SurveyServicer interface {
	Create(ctx context.Context, actor Actor, in SurveyInput) (*models.Survey, error)
	Get(ctx context.Context, id int) (*models.Survey, error)
	GetManaged(ctx context.Context, actor Actor, id int) (*models.Survey, error)
	GetPublic(ctx context.Context, surveyUUID string) (*models.Survey, error)
	List(ctx context.Context, f repository.SurveyFilter, page, limit int) (*paginator.Page[models.Survey], error)
	Update(ctx context.Context, actor Actor, id int, in SurveyInput) (*models.Survey, error)
	Delete(ctx context.Context, actor Actor, id int) error
	Publish(ctx context.Context, actor Actor, id int) (*models.Survey, error)
	Unpublish(ctx context.Context, actor Actor, id int) (*models.Survey, error)
	CreateQuickPoll(ctx context.Context, actor Actor, in QuickPollInput) (*models.Survey, error)
	ShareURL(ctx context.Context, survey *models.Survey) (string, error)
	ShareQR(ctx context.Context, actor Actor, id, size int) ([]byte, error)
	Results(ctx context.Context, actor Actor, id int) (*SurveyResults, error)
}

// ResponseServicer defines the interface for response collection
type ResponseServicer interface {
	Visibility(ctx context.Context, surveyUUID string, answers map[string]interface{}) (map[string]bool, error)
	Submit(ctx context.Context, surveyUUID string, userID *int, answers map[string]interface{}) (*SubmitResult, error)
}

// DraftServicer defines the interface for draft and editor operations
type DraftServicer interface {
	Open(ctx context.Context, actor Actor, surveyID int) (*DraftResult, error)
	Get(actor Actor, id string) (*Draft, error)
	Discard(actor Actor, id string) error
	UpdateMeta(actor Actor, id string, meta DraftMeta) (*DraftResult, error)
	Move(actor Actor, id string, from, to int) (*DraftResult, error)
	Insert(actor Actor, id string, at int, q models.Question) (*DraftResult, error)
	InsertFromBank(ctx context.Context, actor Actor, id string, itemID, at int) (*DraftResult, error)
	Delete(actor Actor, id string, at int, confirm bool) (*DraftResult, error)
	Replace(actor Actor, id string, at int, q models.Question, confirm bool) (*DraftResult, error)
	OpenEditor(actor Actor, id, qType string, index int, position string) (*DraftResult, error)
	UpdateEditor(actor Actor, id, editorID string, pending models.Question) (*DraftResult, error)
	SubmitEditor(actor Actor, id, editorID string, confirm bool) (*DraftResult, error)
	CloseEditor(actor Actor, id, editorID string) (*DraftResult, error)
	Save(ctx context.Context, actor Actor, id string) (*models.Survey, error)
}

// QuestionBankServicer defines the interface for question bank operations
type QuestionBankServicer interface {
	Create(ctx context.Context, actor Actor, in BankItemInput) (*models.QuestionBankItem, error)
	Get(ctx context.Context, id int) (*models.QuestionBankItem, error)
	Update(ctx context.Context, id int, in BankItemInput) (*models.QuestionBankItem, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, category string, page, limit int) (*paginator.Page[models.QuestionBankItem], error)
	Categories(ctx context.Context) ([]string, error)
}

// SeasonPassServicer defines the interface for season pass operations
type SeasonPassServicer interface {
	CreateSeason(ctx context.Context, in SeasonInput) (*models.Season, error)
	UpdateSeason(ctx context.Context, id int, in SeasonInput) (*models.Season, error)
	DeleteSeason(ctx context.Context, id int) error
	ListSeasons(ctx context.Context) ([]models.Season, error)
	GetSeason(ctx context.Context, id int) (*SeasonDetail, error)
	ActivateSeason(ctx context.Context, id int) error
	CreateReward(ctx context.Context, seasonID int, in RewardInput) (*models.Reward, error)
	UpdateReward(ctx context.Context, id int, in RewardInput) (*models.Reward, error)
	DeleteReward(ctx context.Context, id int) error
	Current(ctx context.Context, userID int) (*SeasonProgress, error)
	Purchase(ctx context.Context, userID int) (*models.Purchase, error)
	ListPurchases(ctx context.Context, userID int) ([]models.Purchase, error)
	Claim(ctx context.Context, userID, rewardID int, shippingAddress string) (*models.Delivery, error)
	Leaderboard(ctx context.Context, page, limit int) (*paginator.Page[models.LeaderboardEntry], error)
	MyRank(ctx context.Context, userID int) (*models.LeaderboardEntry, error)
}

// DeliveryServicer defines the interface for delivery management
type DeliveryServicer interface {
	List(ctx context.Context, f repository.DeliveryFilter, page, limit int) (*paginator.Page[models.Delivery], error)
	Get(ctx context.Context, id int) (*models.Delivery, error)
	UpdateStatus(ctx context.Context, id int, upd DeliveryUpdate) (*models.Delivery, error)
}

// NotificationServicer defines the interface for notification operations
type NotificationServicer interface {
	Send(ctx context.Context, req SendRequest) (*SendResult, error)
	List(ctx context.Context, userID int, unreadOnly bool, page, limit int) (*paginator.Page[models.Notification], error)
	UnreadCount(ctx context.Context, userID int) (int, error)
	MarkRead(ctx context.Context, userID, id int) error
	MarkAllRead(ctx context.Context, userID int) (int64, error)
}

// FeedbackServicer defines the interface for the idea board and bug reports
type FeedbackServicer interface {
	CreateIdea(ctx context.Context, authorID int, in IdeaInput) (*models.Idea, error)
	ListIdeas(ctx context.Context, sort, status string, viewerID, page, limit int) (*paginator.Page[models.Idea], error)
	GetIdea(ctx context.Context, id, viewerID int) (*models.Idea, error)
	ToggleVote(ctx context.Context, ideaID, userID int) (*VoteResult, error)
	AddComment(ctx context.Context, ideaID, authorID int, body string) (*models.IdeaComment, error)
	UpdateIdeaStatus(ctx context.Context, id int, status string) error
	SubmitBugReport(ctx context.Context, userID *int, in BugReportInput) (int64, error)
	ListBugReports(ctx context.Context, status string, page, limit int) (*paginator.Page[models.BugReport], error)
	UpdateBugReportStatus(ctx context.Context, id int, status string) error
}

// SettingsServicer defines the interface for settings operations
type SettingsServicer interface {
	AllSettings(ctx context.Context) (map[string]interface{}, error)
	UpdateSettings(ctx context.Context, settings Settings) error
	GetStats(ctx context.Context) (models.Stats, error)
}

// Ensure services implement interfaces
var (
	_ AuthServicer         = (*AuthService)(nil)
	_ UserServicer         = (*UserService)(nil)
	_ SurveyServicer       = (*SurveyService)(nil)
	_ ResponseServicer     = (*ResponseService)(nil)
	_ DraftServicer        = (*DraftService)(nil)
	_ QuestionBankServicer = (*QuestionBankService)(nil)
	_ SeasonPassServicer   = (*SeasonPassService)(nil)
	_ DeliveryServicer     = (*DeliveryService)(nil)
	_ NotificationServicer = (*NotificationService)(nil)
	_ FeedbackServicer     = (*FeedbackService)(nil)
	_ SettingsServicer     = (*SettingsService)(nil)
	_ Notifier             = (*NotificationService)(nil)
)
