package handlers

import (
	"net/http"

	"github.com/abrezinsky/surveydesk/internal/auth"
	"github.com/abrezinsky/surveydesk/internal/models"
)

// LoginPageData holds data for the login template
type LoginPageData struct {
	Email string
	Error string
}

// ==================== Admin Session ====================

// handleLoginPage renders the login form
func (h *Handlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if claims, ok := h.Tokens.ClaimsFromRequest(r); ok && claims.Role == models.RoleAdmin {
		http.Redirect(w, r, "/admin", http.StatusFound)
		return
	}
	h.templates.AdminLogin.Execute(w, LoginPageData{})
}

// handleLogin processes login form submission
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	result, err := h.Auth.Login(r.Context(), email, r.FormValue("password"))
	if err != nil {
		h.templates.AdminLogin.Execute(w, LoginPageData{Email: email, Error: "Invalid email or password"})
		return
	}
	if result.User.Role != models.RoleAdmin {
		h.templates.AdminLogin.Execute(w, LoginPageData{Email: email, Error: "Admin access required"})
		return
	}

	auth.SetSessionCookie(w, result.Token)
	http.Redirect(w, r, "/admin", http.StatusFound)
}

// handleLogout clears the session and redirects to login
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	http.Redirect(w, r, "/admin/login", http.StatusFound)
}

// ==================== Registration ====================

func (h *Handlers) handleRegisterStart(w http.ResponseWriter, r *http.Request) {
	var req RegisterStartRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	token, err := h.Auth.RegisterStart(r.Context(), req.Email)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, RegisterStartResponse{RegTempAuthToken: token})
}

func (h *Handlers) handleRegisterVerify(w http.ResponseWriter, r *http.Request) {
	var req RegisterVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Auth.RegisterVerify(r.Context(), req.Token, req.OTP); err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, "Email verified")
}

func (h *Handlers) handleRegisterComplete(w http.ResponseWriter, r *http.Request) {
	var req RegisterCompleteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	result, err := h.Auth.RegisterComplete(r.Context(), req.Token, req.Name, req.Password, req.ConfirmPassword)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, result)
}

// ==================== Login & Password ====================

func (h *Handlers) handleAPILogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	result, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, result)
}

func (h *Handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.Auth.Me(r.Context(), actor(r).UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, user)
}

// handleForgotPassword always answers 200 so it cannot be used to probe for accounts
func (h *Handlers) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Auth.ForgotPassword(r.Context(), req.Email); err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, "If the account exists, a code has been sent")
}

func (h *Handlers) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	token, err := h.Auth.VerifyResetOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, ResetTokenResponse{ResetToken: token})
}

func (h *Handlers) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Auth.ResetPassword(r.Context(), req.ResetToken, req.Password, req.ConfirmPassword); err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, "Password reset")
}

func (h *Handlers) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req UpdatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	err := h.Auth.UpdatePassword(r.Context(), actor(r).UserID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, "Password updated")
}

// ==================== Passkeys ====================

func (h *Handlers) handleListPasskeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.Auth.ListPasskeys(r.Context(), actor(r).UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, keys)
}

func (h *Handlers) handleRegisterPasskey(w http.ResponseWriter, r *http.Request) {
	var req PasskeyRegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	key, err := h.Auth.RegisterPasskey(r.Context(), actor(r).UserID, req.Name, req.PublicKey)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, key)
}

func (h *Handlers) handleDeletePasskey(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Auth.DeletePasskey(r.Context(), actor(r).UserID, id); err != nil {
		h.respondError(w, err)
		return
	}
	respondDeleted(w)
}

func (h *Handlers) handlePasskeyChallenge(w http.ResponseWriter, r *http.Request) {
	var req PasskeyChallengeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	challenge, err := h.Auth.PasskeyChallenge(r.Context(), req.Email)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, challenge)
}

func (h *Handlers) handlePasskeyLogin(w http.ResponseWriter, r *http.Request) {
	var req PasskeyLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	result, err := h.Auth.PasskeyLogin(r.Context(), req.ChallengeID, req.CredentialID, req.Signature)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, result)
}
