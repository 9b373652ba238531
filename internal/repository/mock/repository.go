package mock

import (
	"context"

	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
	"github.com/abrezinsky/surveydesk/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.SaveSurveyError = errors.New("database error")
//	svc := services.NewSurveyService(log, mockRepo, settings)
//	_, err := svc.Create(ctx, actor, input)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== User Errors =====
	CreateUserError     error
	GetUserError        error
	GetUserByEmailError error
	UpdatePasswordError error
	ListUserIDsError    error
	LeaderboardError    error

	// ===== Credential Errors =====
	SaveOTPError       error
	GetOTPError        error
	CreatePasskeyError error
	TakeChallengeError error

	// ===== Survey Errors =====
	SaveSurveyError     error
	GetSurveyError      error
	ListSurveysError    error
	SetPublishedError   error
	DeleteSurveyError   error
	CreateResponseError error
	ListResponsesError  error
	CountResponsesError error
	GetBankItemError    error
	ListBankItemsError  error
	CreateBankItemError error

	// ===== Season Errors =====
	GetActiveSeasonError error
	ActivateSeasonError  error
	ListRewardsError     error
	CreatePurchaseError  error
	HasPurchaseError     error

	// ===== Delivery Errors =====
	CreateDeliveryError       error
	GetDeliveryError          error
	ListDeliveriesError       error
	UpdateDeliveryStatusError error

	// ===== Notification Errors =====
	CreateNotificationError error
	ListNotificationsError  error
	MarkAllReadError        error

	// ===== Feedback Errors =====
	CreateIdeaError      error
	ToggleVoteError      error
	CreateBugReportError error

	// ===== Settings Errors =====
	GetSettingError error
	SetSettingError error
	GetStatsError   error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== User Methods =====

func (m *Repository) CreateUser(ctx context.Context, u models.User) (int64, error) {
	if m.CreateUserError != nil {
		return 0, m.CreateUserError
	}
	return m.FullRepository.CreateUser(ctx, u)
}

func (m *Repository) GetUser(ctx context.Context, id int) (*models.User, error) {
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}
	return m.FullRepository.GetUser(ctx, id)
}

func (m *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetUserByEmailError != nil {
		return nil, m.GetUserByEmailError
	}
	return m.FullRepository.GetUserByEmail(ctx, email)
}

func (m *Repository) UpdatePassword(ctx context.Context, userID int, hash string) error {
	if m.UpdatePasswordError != nil {
		return m.UpdatePasswordError
	}
	return m.FullRepository.UpdatePassword(ctx, userID, hash)
}

func (m *Repository) ListUserIDs(ctx context.Context, role string) ([]int, error) {
	if m.ListUserIDsError != nil {
		return nil, m.ListUserIDsError
	}
	return m.FullRepository.ListUserIDs(ctx, role)
}

func (m *Repository) Leaderboard(ctx context.Context, page, limit int) (*paginator.Page[models.LeaderboardEntry], error) {
	if m.LeaderboardError != nil {
		return nil, m.LeaderboardError
	}
	return m.FullRepository.Leaderboard(ctx, page, limit)
}

// ===== Credential Methods =====

func (m *Repository) SaveOTP(ctx context.Context, otp models.OTP) error {
	if m.SaveOTPError != nil {
		return m.SaveOTPError
	}
	return m.FullRepository.SaveOTP(ctx, otp)
}

func (m *Repository) GetOTP(ctx context.Context, email, purpose string) (*models.OTP, error) {
	if m.GetOTPError != nil {
		return nil, m.GetOTPError
	}
	return m.FullRepository.GetOTP(ctx, email, purpose)
}

func (m *Repository) CreatePasskey(ctx context.Context, p models.Passkey) (int64, error) {
	if m.CreatePasskeyError != nil {
		return 0, m.CreatePasskeyError
	}
	return m.FullRepository.CreatePasskey(ctx, p)
}

func (m *Repository) TakeChallenge(ctx context.Context, id string) (*models.PasskeyChallenge, error) {
	if m.TakeChallengeError != nil {
		return nil, m.TakeChallengeError
	}
	return m.FullRepository.TakeChallenge(ctx, id)
}

// ===== Survey Methods =====

func (m *Repository) SaveSurvey(ctx context.Context, s *models.Survey) (int64, error) {
	if m.SaveSurveyError != nil {
		return 0, m.SaveSurveyError
	}
	return m.FullRepository.SaveSurvey(ctx, s)
}

func (m *Repository) GetSurvey(ctx context.Context, id int) (*models.Survey, error) {
	if m.GetSurveyError != nil {
		return nil, m.GetSurveyError
	}
	return m.FullRepository.GetSurvey(ctx, id)
}

func (m *Repository) ListSurveys(ctx context.Context, f repository.SurveyFilter, page, limit int) (*paginator.Page[models.Survey], error) {
	if m.ListSurveysError != nil {
		return nil, m.ListSurveysError
	}
	return m.FullRepository.ListSurveys(ctx, f, page, limit)
}

func (m *Repository) SetPublished(ctx context.Context, id int, published bool) error {
	if m.SetPublishedError != nil {
		return m.SetPublishedError
	}
	return m.FullRepository.SetPublished(ctx, id, published)
}

func (m *Repository) DeleteSurvey(ctx context.Context, id int) error {
	if m.DeleteSurveyError != nil {
		return m.DeleteSurveyError
	}
	return m.FullRepository.DeleteSurvey(ctx, id)
}

func (m *Repository) CreateResponse(ctx context.Context, resp models.Response, xp int) (int64, error) {
	if m.CreateResponseError != nil {
		return 0, m.CreateResponseError
	}
	return m.FullRepository.CreateResponse(ctx, resp, xp)
}

func (m *Repository) ListResponses(ctx context.Context, surveyID int) ([]models.Response, error) {
	if m.ListResponsesError != nil {
		return nil, m.ListResponsesError
	}
	return m.FullRepository.ListResponses(ctx, surveyID)
}

func (m *Repository) CountResponses(ctx context.Context, surveyID int) (int, error) {
	if m.CountResponsesError != nil {
		return 0, m.CountResponsesError
	}
	return m.FullRepository.CountResponses(ctx, surveyID)
}

func (m *Repository) GetBankItem(ctx context.Context, id int) (*models.QuestionBankItem, error) {
	if m.GetBankItemError != nil {
		return nil, m.GetBankItemError
	}
	return m.FullRepository.GetBankItem(ctx, id)
}

func (m *Repository) ListBankItems(ctx context.Context, category string, page, limit int) (*paginator.Page[models.QuestionBankItem], error) {
	if m.ListBankItemsError != nil {
		return nil, m.ListBankItemsError
	}
	return m.FullRepository.ListBankItems(ctx, category, page, limit)
}

func (m *Repository) CreateBankItem(ctx context.Context, item models.QuestionBankItem) (int64, error) {
	if m.CreateBankItemError != nil {
		return 0, m.CreateBankItemError
	}
	return m.FullRepository.CreateBankItem(ctx, item)
}

// ===== Season Methods =====

func (m *Repository) GetActiveSeason(ctx context.Context) (*models.Season, error) {
	if m.GetActiveSeasonError != nil {
		return nil, m.GetActiveSeasonError
	}
	return m.FullRepository.GetActiveSeason(ctx)
}

func (m *Repository) ActivateSeason(ctx context.Context, id int) error {
	if m.ActivateSeasonError != nil {
		return m.ActivateSeasonError
	}
	return m.FullRepository.ActivateSeason(ctx, id)
}

func (m *Repository) ListRewards(ctx context.Context, seasonID int) ([]models.Reward, error) {
	if m.ListRewardsError != nil {
		return nil, m.ListRewardsError
	}
	return m.FullRepository.ListRewards(ctx, seasonID)
}

func (m *Repository) CreatePurchase(ctx context.Context, p models.Purchase) (int64, error) {
	if m.CreatePurchaseError != nil {
		return 0, m.CreatePurchaseError
	}
	return m.FullRepository.CreatePurchase(ctx, p)
}

func (m *Repository) HasPurchase(ctx context.Context, userID, seasonID int) (bool, error) {
	if m.HasPurchaseError != nil {
		return false, m.HasPurchaseError
	}
	return m.FullRepository.HasPurchase(ctx, userID, seasonID)
}

// ===== Delivery Methods =====

func (m *Repository) CreateDelivery(ctx context.Context, d models.Delivery) (int64, error) {
	if m.CreateDeliveryError != nil {
		return 0, m.CreateDeliveryError
	}
	return m.FullRepository.CreateDelivery(ctx, d)
}

func (m *Repository) GetDelivery(ctx context.Context, id int) (*models.Delivery, error) {
	if m.GetDeliveryError != nil {
		return nil, m.GetDeliveryError
	}
	return m.FullRepository.GetDelivery(ctx, id)
}

func (m *Repository) ListDeliveries(ctx context.Context, f repository.DeliveryFilter, page, limit int) (*paginator.Page[models.Delivery], error) {
	if m.ListDeliveriesError != nil {
		return nil, m.ListDeliveriesError
	}
	return m.FullRepository.ListDeliveries(ctx, f, page, limit)
}

func (m *Repository) UpdateDeliveryStatus(ctx context.Context, id int, status, trackingNumber, notes string) error {
	if m.UpdateDeliveryStatusError != nil {
		return m.UpdateDeliveryStatusError
	}
	return m.FullRepository.UpdateDeliveryStatus(ctx, id, status, trackingNumber, notes)
}

// ===== Notification Methods =====

func (m *Repository) CreateNotification(ctx context.Context, n models.Notification) (int64, error) {
	if m.CreateNotificationError != nil {
		return 0, m.CreateNotificationError
	}
	return m.FullRepository.CreateNotification(ctx, n)
}

func (m *Repository) ListNotifications(ctx context.Context, userID int, unreadOnly bool, page, limit int) (*paginator.Page[models.Notification], error) {
	if m.ListNotificationsError != nil {
		return nil, m.ListNotificationsError
	}
	return m.FullRepository.ListNotifications(ctx, userID, unreadOnly, page, limit)
}

func (m *Repository) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	if m.MarkAllReadError != nil {
		return 0, m.MarkAllReadError
	}
	return m.FullRepository.MarkAllRead(ctx, userID)
}

// ===== Feedback Methods =====

func (m *Repository) CreateIdea(ctx context.Context, idea models.Idea) (int64, error) {
	if m.CreateIdeaError != nil {
		return 0, m.CreateIdeaError
	}
	return m.FullRepository.CreateIdea(ctx, idea)
}

func (m *Repository) ToggleVote(ctx context.Context, ideaID, userID int) (bool, int, error) {
	if m.ToggleVoteError != nil {
		return false, 0, m.ToggleVoteError
	}
	return m.FullRepository.ToggleVote(ctx, ideaID, userID)
}

func (m *Repository) CreateBugReport(ctx context.Context, b models.BugReport) (int64, error) {
	if m.CreateBugReportError != nil {
		return 0, m.CreateBugReportError
	}
	return m.FullRepository.CreateBugReport(ctx, b)
}

// ===== Settings Methods =====

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}

func (m *Repository) GetStats(ctx context.Context) (models.Stats, error) {
	if m.GetStatsError != nil {
		return models.Stats{}, m.GetStatsError
	}
	return m.FullRepository.GetStats(ctx)
}
