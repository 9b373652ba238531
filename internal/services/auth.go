package services

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abrezinsky/surveydesk/internal/auth"
	"github.com/abrezinsky/surveydesk/internal/errors"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/repository"
	"github.com/abrezinsky/surveydesk/pkg/mailgate"
)

const (
	OTPExpiry       = 10 * time.Minute
	OTPMaxAttempts  = 5
	ChallengeExpiry = 2 * time.Minute
)

// AuthServiceRepository defines the repository methods needed by AuthService
type AuthServiceRepository interface {
	repository.UserRepository
	repository.CredentialRepository
}

// Mailer sends one email
type Mailer interface {
	Send(ctx context.Context, msg mailgate.Message) error
}

// AuthService handles registration, login, password recovery and passkeys
type AuthService struct {
	log    logger.Logger
	repo   AuthServiceRepository
	tokens *auth.Auth
	mail   Mailer
	now    func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(log logger.Logger, repo AuthServiceRepository, tokens *auth.Auth, mail Mailer) *AuthService {
	return &AuthService{log: log, repo: repo, tokens: tokens, mail: mail, now: time.Now}
}

// SetClock overrides the time source (for testing)
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

// AuthResult is returned by every successful login
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// PasskeyChallengeResult is what a device signs to log in
type PasskeyChallengeResult struct {
	ChallengeID   string `json:"challenge_id"`
	Challenge     string `json:"challenge"`
	CredentialIDs []int  `json:"credential_ids"`
	ExpiresAt     int64  `json:"expires_at"`
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errors.Field("email", "must be a valid email address")
	}
	return email, nil
}

// ==================== Registration ====================

// RegisterStart sends a verification code to email and returns a
// temporary token identifying the registration
func (s *AuthService) RegisterStart(ctx context.Context, email string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return "", errors.Field("email", "is already registered")
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return "", errors.Internal(err)
	}

	if err := s.issueOTP(ctx, email, models.OTPRegistration, "Verify your email"); err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(0, email, "", auth.PurposeRegistration, auth.RegistrationExpiry)
	if err != nil {
		return "", errors.Internal(err)
	}
	return token, nil
}

// RegisterVerify checks the emailed code for a registration
func (s *AuthService) RegisterVerify(ctx context.Context, token, code string) error {
	claims, err := s.tokens.Parse(token, auth.PurposeRegistration)
	if err != nil {
		return ErrInvalidToken
	}
	if err := s.checkOTP(ctx, claims.Email, models.OTPRegistration, code); err != nil {
		return err
	}
	if err := s.repo.MarkOTPVerified(ctx, claims.Email, models.OTPRegistration); err != nil {
		return errors.Internal(err)
	}
	return nil
}

// RegisterComplete creates the account once the email is verified
func (s *AuthService) RegisterComplete(ctx context.Context, token, name, password, confirm string) (*AuthResult, error) {
	claims, err := s.tokens.Parse(token, auth.PurposeRegistration)
	if err != nil {
		return nil, ErrInvalidToken
	}

	otp, err := s.repo.GetOTP(ctx, claims.Email, models.OTPRegistration)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, ErrEmailNotVerified
		}
		return nil, errors.Internal(err)
	}
	if !otp.Verified {
		return nil, ErrEmailNotVerified
	}

	fields := errors.FieldErrors{}
	name = strings.TrimSpace(name)
	if name == "" {
		fields.Add("name", "is required")
	}
	auth.ValidatePassword(fields, "password", "confirm_password", password, confirm)
	if err := fields.Err(); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, claims.Email, name, password, models.RoleUser)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteOTP(ctx, claims.Email, models.OTPRegistration); err != nil {
		s.log.Warn("Failed to delete registration code", "email", claims.Email, "error", err)
	}

	s.log.Info("User registered", "user_id", user.ID)
	return s.session(user)
}

func (s *AuthService) createUser(ctx context.Context, email, name, password, role string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, errors.Internal(err)
	}
	id, err := s.repo.CreateUser(ctx, models.User{Email: email, Name: name, PasswordHash: hash, Role: role})
	if err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Field("email", "is already registered")
		}
		return nil, errors.Internal(err)
	}
	user, err := s.repo.GetUser(ctx, int(id))
	if err != nil {
		return nil, errors.Internal(err)
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist.
// An empty password is replaced by a generated one, which is returned so
// it can be shown once at startup.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}
	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return "", nil
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return "", errors.Internal(err)
	}

	generated := ""
	if password == "" {
		password = auth.GeneratePassword()
		generated = password
	}
	if _, err := s.createUser(ctx, email, "Administrator", password, models.RoleAdmin); err != nil {
		return "", err
	}
	s.log.Info("Admin account created", "email", email)
	return generated, nil
}

// ==================== Login ====================

// Login checks email and password and returns a session token
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Internal(err)
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		s.log.Debug("Login failed", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

// Me returns the logged-in user's profile
func (s *AuthService) Me(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	return user, fromRepo(err, "user not found")
}

func (s *AuthService) session(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.SessionToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

// ==================== Password Recovery ====================

// ForgotPassword emails a reset code when the account exists. It reports
// success either way so callers cannot probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.repo.GetUserByEmail(ctx, email); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return errors.Internal(err)
	}
	if err := s.issueOTP(ctx, email, models.OTPReset, "Reset your password"); err != nil {
		s.log.Warn("Reset code not sent", "error", err)
	}
	return nil
}

// VerifyResetOTP exchanges a valid reset code for a short-lived reset token
func (s *AuthService) VerifyResetOTP(ctx context.Context, email, code string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.checkOTP(ctx, email, models.OTPReset, code); err != nil {
		return "", err
	}
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fromRepo(err, "user not found")
	}
	if err := s.repo.DeleteOTP(ctx, email, models.OTPReset); err != nil {
		return "", errors.Internal(err)
	}
	token, err := s.tokens.Issue(user.ID, user.Email, user.Role, auth.PurposeReset, auth.ResetExpiry)
	if err != nil {
		return "", errors.Internal(err)
	}
	return token, nil
}

// ResetPassword sets a new password using a reset token
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, password, confirm string) error {
	claims, err := s.tokens.Parse(resetToken, auth.PurposeReset)
	if err != nil {
		return ErrInvalidToken
	}
	fields := errors.FieldErrors{}
	auth.ValidatePassword(fields, "password", "confirm_password", password, confirm)
	if err := fields.Err(); err != nil {
		return err
	}
	return s.setPassword(ctx, claims.UserID, password)
}

// UpdatePassword changes the password of a logged-in user
func (s *AuthService) UpdatePassword(ctx context.Context, userID int, current, password, confirm string) error {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return fromRepo(err, "user not found")
	}

	fields := errors.FieldErrors{}
	if !auth.CheckPassword(current, user.PasswordHash) {
		fields.Add("current_password", "is incorrect")
	}
	auth.ValidatePassword(fields, "new_password", "confirm_password", password, confirm)
	if password != "" && password == current {
		fields.Add("new_password", "must differ from the current password")
	}
	if err := fields.Err(); err != nil {
		return err
	}
	return s.setPassword(ctx, userID, password)
}

func (s *AuthService) setPassword(ctx context.Context, userID int, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return errors.Internal(err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return fromRepo(err, "user not found")
	}
	s.log.Info("Password changed", "user_id", userID)
	return nil
}

// ==================== One-Time Codes ====================

func (s *AuthService) issueOTP(ctx context.Context, email, purpose, subject string) error {
	code := auth.GenerateOTP()
	hash, err := auth.HashPassword(code)
	if err != nil {
		return errors.Internal(err)
	}
	err = s.repo.SaveOTP(ctx, models.OTP{
		Email:     email,
		Purpose:   purpose,
		CodeHash:  hash,
		ExpiresAt: s.now().Add(OTPExpiry).Unix(),
	})
	if err != nil {
		return errors.Internal(err)
	}

	msg := mailgate.Message{
		To:      email,
		Subject: subject,
		Body:    fmt.Sprintf("Your SurveyDesk code is %s. It expires in %d minutes.", code, int(OTPExpiry.Minutes())),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Error("Failed to send code", "email", email, "purpose", purpose, "error", err)
		if stderrors.Is(err, mailgate.ErrNotConfigured) {
			return ErrMailNotConfigured
		}
		return errors.Wrap(err, errors.ErrInternal, "failed to send email")
	}
	return nil
}

func (s *AuthService) checkOTP(ctx context.Context, email, purpose, code string) error {
	otp, err := s.repo.GetOTP(ctx, email, purpose)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOTP
		}
		return errors.Internal(err)
	}
	if s.now().Unix() > otp.ExpiresAt {
		return ErrInvalidOTP
	}
	if otp.Attempts >= OTPMaxAttempts {
		return ErrTooManyAttempts
	}
	if !auth.CheckPassword(strings.TrimSpace(code), otp.CodeHash) {
		if err := s.repo.IncrementOTPAttempts(ctx, email, purpose); err != nil {
			return errors.Internal(err)
		}
		return ErrInvalidOTP
	}
	return nil
}

// ==================== Passkeys ====================

// RegisterPasskey stores a device public key for a logged-in user
func (s *AuthService) RegisterPasskey(ctx context.Context, userID int, name, publicKey string) (*models.Passkey, error) {
	fields := errors.FieldErrors{}
	name = strings.TrimSpace(name)
	if name == "" {
		fields.Add("name", "is required")
	}
	key, err := auth.ParsePublicKey(publicKey)
	if err != nil {
		fields.Add("public_key", err.Error())
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	id, err := s.repo.CreatePasskey(ctx, models.Passkey{UserID: userID, Name: name, PublicKey: key})
	if err != nil {
		return nil, errors.Internal(err)
	}
	pk, err := s.repo.GetPasskey(ctx, int(id))
	return pk, fromRepo(err, "passkey not found")
}

// ListPasskeys returns a user's registered devices
func (s *AuthService) ListPasskeys(ctx context.Context, userID int) ([]models.Passkey, error) {
	keys, err := s.repo.ListPasskeys(ctx, userID)
	return keys, fromRepo(err, "passkey not found")
}

// DeletePasskey removes one of a user's devices
func (s *AuthService) DeletePasskey(ctx context.Context, userID, id int) error {
	return fromRepo(s.repo.DeletePasskey(ctx, userID, id), "passkey not found")
}

// PasskeyChallenge issues a single-use challenge for the user's devices
func (s *AuthService) PasskeyChallenge(ctx context.Context, email string) (*PasskeyChallengeResult, error) {
	noPasskeys := errors.NotFound("no passkeys registered for this email")

	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, noPasskeys
		}
		return nil, errors.Internal(err)
	}
	keys, err := s.repo.ListPasskeys(ctx, user.ID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if len(keys) == 0 {
		return nil, noPasskeys
	}

	challenge, err := auth.NewChallenge()
	if err != nil {
		return nil, errors.Internal(err)
	}
	c := models.PasskeyChallenge{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Challenge: challenge,
		ExpiresAt: s.now().Add(ChallengeExpiry).Unix(),
	}
	if err := s.repo.CreateChallenge(ctx, c); err != nil {
		return nil, errors.Internal(err)
	}

	ids := make([]int, len(keys))
	for i, k := range keys {
		ids[i] = k.ID
	}
	return &PasskeyChallengeResult{
		ChallengeID:   c.ID,
		Challenge:     base64.StdEncoding.EncodeToString(challenge),
		CredentialIDs: ids,
		ExpiresAt:     c.ExpiresAt,
	}, nil
}

// PasskeyLogin verifies a signed challenge and returns a session token
func (s *AuthService) PasskeyLogin(ctx context.Context, challengeID string, credentialID int, signature string) (*AuthResult, error) {
	failed := errors.Unauthorized("passkey verification failed")

	c, err := s.repo.TakeChallenge(ctx, challengeID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, failed
		}
		return nil, errors.Internal(err)
	}
	if s.now().Unix() > c.ExpiresAt {
		return nil, failed
	}

	pk, err := s.repo.GetPasskey(ctx, credentialID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, failed
		}
		return nil, errors.Internal(err)
	}
	if pk.UserID != c.UserID || !auth.VerifyChallenge(pk.PublicKey, c.Challenge, signature) {
		return nil, failed
	}

	user, err := s.repo.GetUser(ctx, c.UserID)
	if err != nil {
		return nil, fromRepo(err, "user not found")
	}
	return s.session(user)
}
