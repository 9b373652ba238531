package services

import (
	"context"
	stderrors "errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/abrezinsky/surveydesk/internal/errors"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/repository"
)

// DefaultXPPerResponse is used when the setting is missing or unreadable
const DefaultXPPerResponse = 10

// MaxXPPerResponse bounds the admin-configurable award
const MaxXPPerResponse = 1000

// RelayConfigurer is told when the mail relay URL changes
type RelayConfigurer interface {
	SetBaseURL(url string)
}

// SettingsService handles settings-related business logic
type SettingsService struct {
	log   logger.Logger
	repo  repository.SettingsRepository
	relay RelayConfigurer
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(log logger.Logger, repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{log: log, repo: repo}
}

// SetRelay registers the mail client to reconfigure when the relay URL changes
func (s *SettingsService) SetRelay(r RelayConfigurer) {
	s.relay = r
}

// XPPerResponse returns the XP awarded for answering a survey
func (s *SettingsService) XPPerResponse(ctx context.Context) (int, error) {
	value, err := s.repo.GetSetting(ctx, repository.SettingXPPerResponse)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return DefaultXPPerResponse, nil
		}
		return 0, errors.Internal(err)
	}
	xp, err := strconv.Atoi(value)
	if err != nil || xp < 0 {
		s.log.Warn("Invalid xp_per_response setting, using default", "value", value)
		return DefaultXPPerResponse, nil
	}
	return xp, nil
}

// GetBaseURL returns the public base URL used in share links
func (s *SettingsService) GetBaseURL(ctx context.Context) (string, error) {
	return s.optional(ctx, repository.SettingBaseURL)
}

// GetMailURL returns the mail relay URL
func (s *SettingsService) GetMailURL(ctx context.Context) (string, error) {
	return s.optional(ctx, repository.SettingMailURL)
}

// GetSetting retrieves an arbitrary setting
func (s *SettingsService) GetSetting(ctx context.Context, key string) (string, error) {
	value, err := s.repo.GetSetting(ctx, key)
	return value, fromRepo(err, "setting not found")
}

func (s *SettingsService) optional(ctx context.Context, key string) (string, error) {
	value, err := s.repo.GetSetting(ctx, key)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return "", nil // No default - setting not yet configured
		}
		return "", errors.Internal(err)
	}
	return value, nil
}

// AllSettings returns the runtime settings as a map
func (s *SettingsService) AllSettings(ctx context.Context) (map[string]interface{}, error) {
	settings := make(map[string]interface{})

	xp, err := s.XPPerResponse(ctx)
	if err != nil {
		return nil, err
	}
	settings[repository.SettingXPPerResponse] = xp

	baseURL, _ := s.GetBaseURL(ctx)
	settings[repository.SettingBaseURL] = baseURL

	mailURL, _ := s.GetMailURL(ctx)
	settings[repository.SettingMailURL] = mailURL

	return settings, nil
}

// Settings represents application settings for update operations.
// Nil fields are left unchanged.
type Settings struct {
	XPPerResponse *int    `json:"xp_per_response"`
	BaseURL       *string `json:"base_url"`
	MailURL       *string `json:"mail_url"`
}

// UpdateSettings validates and stores the given settings
func (s *SettingsService) UpdateSettings(ctx context.Context, settings Settings) error {
	fields := errors.FieldErrors{}
	if settings.XPPerResponse != nil && (*settings.XPPerResponse < 0 || *settings.XPPerResponse > MaxXPPerResponse) {
		fields.Add(repository.SettingXPPerResponse, "must be between 0 and "+strconv.Itoa(MaxXPPerResponse))
	}
	if settings.BaseURL != nil && !validURL(*settings.BaseURL) {
		fields.Add(repository.SettingBaseURL, "must be an http(s) URL")
	}
	if settings.MailURL != nil && !validURL(*settings.MailURL) {
		fields.Add(repository.SettingMailURL, "must be an http(s) URL")
	}
	if err := fields.Err(); err != nil {
		return err
	}

	if settings.XPPerResponse != nil {
		if err := s.repo.SetSetting(ctx, repository.SettingXPPerResponse, strconv.Itoa(*settings.XPPerResponse)); err != nil {
			return errors.Internal(err)
		}
	}
	if settings.BaseURL != nil {
		if err := s.repo.SetSetting(ctx, repository.SettingBaseURL, strings.TrimRight(*settings.BaseURL, "/")); err != nil {
			return errors.Internal(err)
		}
	}
	if settings.MailURL != nil {
		if err := s.repo.SetSetting(ctx, repository.SettingMailURL, *settings.MailURL); err != nil {
			return errors.Internal(err)
		}
		if s.relay != nil {
			s.relay.SetBaseURL(*settings.MailURL)
		}
		s.log.Info("Mail relay URL updated", "url", *settings.MailURL)
	}
	return nil
}

// GetStats returns dashboard counters
func (s *SettingsService) GetStats(ctx context.Context) (models.Stats, error) {
	stats, err := s.repo.GetStats(ctx)
	if err != nil {
		return models.Stats{}, errors.Internal(err)
	}
	return stats, nil
}

// validURL accepts an empty string (to clear) or an absolute http(s) URL
func validURL(raw string) bool {
	if raw == "" {
		return true
	}
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
