package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/abrezinsky/surveydesk/internal/errors"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/paginator"
	"github.com/abrezinsky/surveydesk/internal/repository"
)

// seasonDate is the layout of season start and end dates
const seasonDate = "2006-01-02"

// SeasonPassServiceRepository defines the repository methods needed by SeasonPassService
type SeasonPassServiceRepository interface {
	repository.SeasonRepository
	CreateDelivery(ctx context.Context, d models.Delivery) (int64, error)
	GetDelivery(ctx context.Context, id int) (*models.Delivery, error)
	ListClaimedRewardIDs(ctx context.Context, userID, seasonID int) (map[int]string, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	Leaderboard(ctx context.Context, page, limit int) (*paginator.Page[models.LeaderboardEntry], error)
	UserRank(ctx context.Context, userID int) (int, error)
}

// SeasonPassService handles seasons, rewards, purchases, claims and the leaderboard
type SeasonPassService struct {
	log      logger.Logger
	repo     SeasonPassServiceRepository
	notifier Notifier
}

// NewSeasonPassService creates a new SeasonPassService. notifier may be nil.
func NewSeasonPassService(log logger.Logger, repo SeasonPassServiceRepository, notifier Notifier) *SeasonPassService {
	return &SeasonPassService{log: log, repo: repo, notifier: notifier}
}

// SeasonInput represents the editable fields of a season
type SeasonInput struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	StartsAt          string `json:"starts_at"`
	EndsAt            string `json:"ends_at"`
	PremiumPriceCents int    `json:"premium_price_cents"`
}

func (in SeasonInput) validate() error {
	fields := errors.FieldErrors{}
	if strings.TrimSpace(in.Name) == "" {
		fields.Add("name", "is required")
	}
	starts, errStart := time.Parse(seasonDate, in.StartsAt)
	if errStart != nil {
		fields.Add("starts_at", "must be a date (YYYY-MM-DD)")
	}
	ends, errEnd := time.Parse(seasonDate, in.EndsAt)
	if errEnd != nil {
		fields.Add("ends_at", "must be a date (YYYY-MM-DD)")
	}
	if errStart == nil && errEnd == nil && ends.Before(starts) {
		fields.Add("ends_at", "must not be before starts_at")
	}
	if in.PremiumPriceCents < 0 {
		fields.Add("premium_price_cents", "must not be negative")
	}
	return fields.Err()
}

// RewardInput represents the editable fields of a reward
type RewardInput struct {
	Tier        int    `json:"tier"`
	XPRequired  int    `json:"xp_required"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Premium     bool   `json:"premium"`
}

func (in RewardInput) validate() error {
	fields := errors.FieldErrors{}
	if in.Tier < 1 {
		fields.Add("tier", "must be at least 1")
	}
	if in.XPRequired < 0 {
		fields.Add("xp_required", "must not be negative")
	}
	if strings.TrimSpace(in.Name) == "" {
		fields.Add("name", "is required")
	}
	if in.Kind != models.RewardDigital && in.Kind != models.RewardPhysical {
		fields.Add("kind", "must be digital or physical")
	}
	return fields.Err()
}

// SeasonDetail is a season with its rewards
type SeasonDetail struct {
	models.Season
	Rewards []models.Reward `json:"rewards"`
}

// RewardProgress is a reward as seen by one user
type RewardProgress struct {
	models.Reward
	Unlocked bool   `json:"unlocked"`
	Claimed  bool   `json:"claimed"`
	Status   string `json:"status,omitempty"`
}

// SeasonProgress is the active season as seen by one user
type SeasonProgress struct {
	Season    models.Season    `json:"season"`
	XP        int              `json:"xp"`
	XPDisplay string           `json:"xp_display"`
	Premium   bool             `json:"premium"`
	Rewards   []RewardProgress `json:"rewards"`
}

// ==================== Seasons (admin) ====================

// CreateSeason adds an inactive season
func (s *SeasonPassService) CreateSeason(ctx context.Context, in SeasonInput) (*models.Season, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	id, err := s.repo.CreateSeason(ctx, models.Season{
		Name:              strings.TrimSpace(in.Name),
		Description:       in.Description,
		StartsAt:          in.StartsAt,
		EndsAt:            in.EndsAt,
		PremiumPriceCents: in.PremiumPriceCents,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	s.log.Info("Season created", "season_id", id)
	season, err := s.repo.GetSeason(ctx, int(id))
	return season, fromRepo(err, "season not found")
}

// UpdateSeason replaces a season's fields
func (s *SeasonPassService) UpdateSeason(ctx context.Context, id int, in SeasonInput) (*models.Season, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	err := s.repo.UpdateSeason(ctx, models.Season{
		ID:                id,
		Name:              strings.TrimSpace(in.Name),
		Description:       in.Description,
		StartsAt:          in.StartsAt,
		EndsAt:            in.EndsAt,
		PremiumPriceCents: in.PremiumPriceCents,
	})
	if err != nil {
		return nil, fromRepo(err, "season not found")
	}
	season, err := s.repo.GetSeason(ctx, id)
	return season, fromRepo(err, "season not found")
}

// DeleteSeason removes a season and its rewards
func (s *SeasonPassService) DeleteSeason(ctx context.Context, id int) error {
	return fromRepo(s.repo.DeleteSeason(ctx, id), "season not found")
}

// ListSeasons returns every season
func (s *SeasonPassService) ListSeasons(ctx context.Context) ([]models.Season, error) {
	seasons, err := s.repo.ListSeasons(ctx)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return seasons, nil
}

// GetSeason returns a season with its rewards
func (s *SeasonPassService) GetSeason(ctx context.Context, id int) (*SeasonDetail, error) {
	season, err := s.repo.GetSeason(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "season not found")
	}
	rewards, err := s.repo.ListRewards(ctx, id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &SeasonDetail{Season: *season, Rewards: rewards}, nil
}

// ActivateSeason makes a season the only active one
func (s *SeasonPassService) ActivateSeason(ctx context.Context, id int) error {
	if err := s.repo.ActivateSeason(ctx, id); err != nil {
		return fromRepo(err, "season not found")
	}
	s.log.Info("Season activated", "season_id", id)
	return nil
}

// ==================== Rewards (admin) ====================

// CreateReward adds a reward to a season
func (s *SeasonPassService) CreateReward(ctx context.Context, seasonID int, in RewardInput) (*models.Reward, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetSeason(ctx, seasonID); err != nil {
		return nil, fromRepo(err, "season not found")
	}
	id, err := s.repo.CreateReward(ctx, models.Reward{
		SeasonID:    seasonID,
		Tier:        in.Tier,
		XPRequired:  in.XPRequired,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Kind:        in.Kind,
		Premium:     in.Premium,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	reward, err := s.repo.GetReward(ctx, int(id))
	return reward, fromRepo(err, "reward not found")
}

// UpdateReward replaces a reward's fields
func (s *SeasonPassService) UpdateReward(ctx context.Context, id int, in RewardInput) (*models.Reward, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	err := s.repo.UpdateReward(ctx, models.Reward{
		ID:          id,
		Tier:        in.Tier,
		XPRequired:  in.XPRequired,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Kind:        in.Kind,
		Premium:     in.Premium,
	})
	if err != nil {
		return nil, fromRepo(err, "reward not found")
	}
	reward, err := s.repo.GetReward(ctx, id)
	return reward, fromRepo(err, "reward not found")
}

// DeleteReward removes a reward
func (s *SeasonPassService) DeleteReward(ctx context.Context, id int) error {
	return fromRepo(s.repo.DeleteReward(ctx, id), "reward not found")
}

// ListRewards returns a season's rewards
func (s *SeasonPassService) ListRewards(ctx context.Context, seasonID int) ([]models.Reward, error) {
	rewards, err := s.repo.ListRewards(ctx, seasonID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return rewards, nil
}

// ==================== User ====================

func (s *SeasonPassService) activeSeason(ctx context.Context) (*models.Season, error) {
	season, err := s.repo.GetActiveSeason(ctx)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveSeason
		}
		return nil, errors.Internal(err)
	}
	return season, nil
}

// Current returns the active season with the user's progress on each reward
func (s *SeasonPassService) Current(ctx context.Context, userID int) (*SeasonProgress, error) {
	season, err := s.activeSeason(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fromRepo(err, "user not found")
	}
	premium, err := s.repo.HasPurchase(ctx, userID, season.ID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	rewards, err := s.repo.ListRewards(ctx, season.ID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	claimed, err := s.repo.ListClaimedRewardIDs(ctx, userID, season.ID)
	if err != nil {
		return nil, errors.Internal(err)
	}

	progress := &SeasonProgress{
		Season:    *season,
		XP:        user.XP,
		XPDisplay: humanize.Comma(int64(user.XP)),
		Premium:   premium,
		Rewards:   make([]RewardProgress, 0, len(rewards)),
	}
	for _, rw := range rewards {
		status, isClaimed := claimed[rw.ID]
		progress.Rewards = append(progress.Rewards, RewardProgress{
			Reward:   rw,
			Unlocked: user.XP >= rw.XPRequired && (!rw.Premium || premium),
			Claimed:  isClaimed,
			Status:   status,
		})
	}
	return progress, nil
}

// Purchase records the premium pass for the active season. Payment is
// handled elsewhere; this only records it, once per season.
func (s *SeasonPassService) Purchase(ctx context.Context, userID int) (*models.Purchase, error) {
	season, err := s.activeSeason(ctx)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.CreatePurchase(ctx, models.Purchase{UserID: userID, SeasonID: season.ID, AmountCents: season.PremiumPriceCents})
	if err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyPurchased
		}
		return nil, errors.Internal(err)
	}
	s.log.Info("Premium pass purchased", "user_id", userID, "season_id", season.ID)
	return &models.Purchase{ID: int(id), UserID: userID, SeasonID: season.ID, AmountCents: season.PremiumPriceCents}, nil
}

// ListPurchases returns a user's purchases
func (s *SeasonPassService) ListPurchases(ctx context.Context, userID int) ([]models.Purchase, error) {
	purchases, err := s.repo.ListPurchases(ctx, userID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return purchases, nil
}

// Claim claims a reward of the active season. Physical rewards need a
// shipping address and start as pending deliveries; digital rewards are
// delivered at once.
func (s *SeasonPassService) Claim(ctx context.Context, userID, rewardID int, shippingAddress string) (*models.Delivery, error) {
	season, err := s.activeSeason(ctx)
	if err != nil {
		return nil, err
	}
	reward, err := s.repo.GetReward(ctx, rewardID)
	if err != nil {
		return nil, fromRepo(err, "reward not found")
	}
	if reward.SeasonID != season.ID {
		return nil, errors.InvalidInput("reward is not part of the active season")
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fromRepo(err, "user not found")
	}
	if user.XP < reward.XPRequired {
		return nil, ErrNotEnoughXP
	}
	if reward.Premium {
		premium, err := s.repo.HasPurchase(ctx, userID, season.ID)
		if err != nil {
			return nil, errors.Internal(err)
		}
		if !premium {
			return nil, ErrPremiumRequired
		}
	}

	status := models.DeliveryDelivered
	shippingAddress = strings.TrimSpace(shippingAddress)
	if reward.Kind == models.RewardPhysical {
		if shippingAddress == "" {
			return nil, errors.Field("shipping_address", "is required for physical rewards")
		}
		status = models.DeliveryPending
	}

	id, err := s.repo.CreateDelivery(ctx, models.Delivery{
		UserID:          userID,
		RewardID:        rewardID,
		Status:          status,
		ShippingAddress: shippingAddress,
	})
	if err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyClaimed
		}
		return nil, errors.Internal(err)
	}
	s.log.Info("Reward claimed", "user_id", userID, "reward_id", rewardID, "status", status)

	if s.notifier != nil {
		if _, err := s.notifier.Notify(ctx, userID, "Reward claimed", "You claimed "+reward.Name+".", NotificationReward); err != nil {
			s.log.Warn("Failed to notify reward claim", "user_id", userID, "error", err)
		}
	}

	d, err := s.repo.GetDelivery(ctx, int(id))
	return d, fromRepo(err, "delivery not found")
}

// ==================== Leaderboard ====================

// Leaderboard returns users ranked by XP
func (s *SeasonPassService) Leaderboard(ctx context.Context, page, limit int) (*paginator.Page[models.LeaderboardEntry], error) {
	board, err := s.repo.Leaderboard(ctx, page, limit)
	if err != nil {
		return nil, errors.Internal(err)
	}
	for i := range board.Items {
		board.Items[i].XPDisplay = humanize.Comma(int64(board.Items[i].XP))
	}
	return board, nil
}

// MyRank returns the user's own leaderboard entry
func (s *SeasonPassService) MyRank(ctx context.Context, userID int) (*models.LeaderboardEntry, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fromRepo(err, "user not found")
	}
	rank, err := s.repo.UserRank(ctx, userID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &models.LeaderboardEntry{
		Rank:      rank,
		UserID:    user.ID,
		Name:      user.Name,
		XP:        user.XP,
		XPDisplay: humanize.Comma(int64(user.XP)),
	}, nil
}
