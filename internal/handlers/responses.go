package handlers

import "github.com/abrezinsky/surveydesk/internal/models"

// RegisterStartResponse carries the temporary registration token
type RegisterStartResponse struct {
	RegTempAuthToken string `json:"reg_temp_auth_token"`
}

// ResetTokenResponse carries a password reset token
type ResetTokenResponse struct {
	ResetToken string `json:"reset_token"`
}

// ShareResponse is a survey's public link
type ShareResponse struct {
	URL   string `json:"url"`
	QRURL string `json:"qr_url"`
}

// PublicSurveyResponse is what a respondent sees
type PublicSurveyResponse struct {
	UUID        string            `json:"uuid"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Questions   []models.Question `json:"questions"`
	Visible     map[string]bool   `json:"visible"`
}

// VisibilityResponse lists which questions are shown for a set of answers
type VisibilityResponse struct {
	Visible map[string]bool `json:"visible"`
}

// UnreadCountResponse is the unread notification badge
type UnreadCountResponse struct {
	Unread int `json:"unread"`
}

// MarkedResponse reports how many notifications were marked read
type MarkedResponse struct {
	Marked int64 `json:"marked"`
}

// CreatedIDResponse is returned for resources created by ID only
type CreatedIDResponse struct {
	ID int64 `json:"id"`
}
