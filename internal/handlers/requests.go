package handlers

import "github.com/abrezinsky/surveydesk/internal/models"

// RegisterStartRequest starts an email-verified registration
type RegisterStartRequest struct {
	Email string `json:"email"`
}

// RegisterVerifyRequest confirms the emailed code
type RegisterVerifyRequest struct {
	Token string `json:"token"`
	OTP   string `json:"otp"`
}

// RegisterCompleteRequest creates the account
type RegisterCompleteRequest struct {
	Token           string `json:"token"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginRequest is an email and password login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest asks for a reset code
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest exchanges a reset code for a reset token
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// ResetPasswordRequest sets a new password with a reset token
type ResetPasswordRequest struct {
	ResetToken      string `json:"reset_token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// UpdatePasswordRequest changes the caller's password
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// PasskeyRegisterRequest registers a device public key
type PasskeyRegisterRequest struct {
	Name      string `json:"name"`
	PublicKey string `json:"public_key"`
}

// PasskeyChallengeRequest asks for a login challenge
type PasskeyChallengeRequest struct {
	Email string `json:"email"`
}

// PasskeyLoginRequest answers a challenge
type PasskeyLoginRequest struct {
	ChallengeID  string `json:"challenge_id"`
	CredentialID int    `json:"credential_id"`
	Signature    string `json:"signature"`
}

// AnswersRequest carries answers keyed by question UUID
type AnswersRequest struct {
	Answers map[string]interface{} `json:"answers"`
}

// OpenDraftRequest opens a draft; SurveyID 0 starts a new survey
type OpenDraftRequest struct {
	SurveyID int `json:"survey_id"`
}

// MoveQuestionRequest moves the question at From to To
type MoveQuestionRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// InsertQuestionRequest inserts a question at Index
type InsertQuestionRequest struct {
	Index    int             `json:"index"`
	Question models.Question `json:"question"`
}

// InsertFromBankRequest inserts a bank item at Index
type InsertFromBankRequest struct {
	ItemID int `json:"item_id"`
	Index  int `json:"index"`
}

// ReplaceQuestionRequest replaces a question; Confirm accepts dropping dependent rules
type ReplaceQuestionRequest struct {
	Question models.Question `json:"question"`
	Confirm  bool            `json:"confirm"`
}

// OpenEditorRequest opens an insert or edit card
type OpenEditorRequest struct {
	Type     string `json:"type"`
	Index    int    `json:"index"`
	Position string `json:"position"`
}

// EditorUpdateRequest stores an editor's unsaved question
type EditorUpdateRequest struct {
	Question models.Question `json:"question"`
}

// SubmitEditorRequest applies an editor
type SubmitEditorRequest struct {
	Confirm bool `json:"confirm"`
}

// ClaimRewardRequest claims a season reward
type ClaimRewardRequest struct {
	ShippingAddress string `json:"shipping_address"`
}

// CommentRequest adds a comment to an idea
type CommentRequest struct {
	Body string `json:"body"`
}

// StatusRequest changes the status of an idea or bug report
type StatusRequest struct {
	Status string `json:"status"`
}

// RoleRequest changes a user's role
type RoleRequest struct {
	Role string `json:"role"`
}
