package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abrezinsky/surveydesk/internal/auth"
	"github.com/abrezinsky/surveydesk/internal/models"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	if h.staticServer != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", h.staticServer))
	}
	if h.templates != nil {
		r.Get("/", h.handleIndex)
		r.Get("/s/{uuid}", h.handleRespondPage)
	}
	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}

	// Account API (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register/start", h.handleRegisterStart)
		r.Post("/register/verify", h.handleRegisterVerify)
		r.Post("/register/complete", h.handleRegisterComplete)
		r.Post("/login", h.handleAPILogin)
		r.Post("/forgot-password", h.handleForgotPassword)
		r.Post("/verify-otp", h.handleVerifyOTP)
		r.Post("/reset-password", h.handleResetPassword)
		r.Post("/passkey/challenge", h.handlePasskeyChallenge)
		r.Post("/passkey/login", h.handlePasskeyLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.Tokens.RequireAuthAPI)
			r.Get("/me", h.handleMe)
			r.Post("/update-password", h.handleUpdatePassword)
			r.Get("/passkeys", h.handleListPasskeys)
			r.Post("/passkeys", h.handleRegisterPasskey)
			r.Delete("/passkeys/{id}", h.handleDeletePasskey)
		})
	})

	r.Post("/admin/logout", h.handleLogout)

	if h.templates != nil {
		// Admin login (public)
		r.Get("/admin/login", h.handleLoginPage)
		r.Post("/admin/login", h.handleLogin)

		// Admin pages (protected)
		r.Group(func(r chi.Router) {
			r.Use(h.Tokens.RequireAuth)
			r.Get("/admin", h.adminPage(h.templates.AdminDashboard, "Dashboard", "dashboard"))
			r.Get("/admin/surveys", h.adminPage(h.templates.AdminSurveys, "Surveys", "surveys"))
			r.Get("/admin/seasons", h.adminPage(h.templates.AdminSeasons, "Season Pass", "seasons"))
			r.Get("/admin/deliveries", h.adminPage(h.templates.AdminDeliveries, "Deliveries", "deliveries"))
			r.Get("/admin/notifications", h.adminPage(h.templates.AdminNotifications, "Notifications", "notifications"))
			r.Get("/admin/users", h.adminPage(h.templates.AdminUsers, "Users", "users"))
			r.Get("/admin/feedback", h.adminPage(h.templates.AdminFeedback, "Ideas & Bugs", "feedback"))
			r.Get("/admin/settings", h.adminPage(h.templates.AdminSettings, "Settings", "settings"))
		})
	}

	// Public survey API; a token, when present, credits XP
	r.Group(func(r chi.Router) {
		r.Use(h.Tokens.OptionalAuth)
		r.Get("/api/s/{uuid}", h.handleGetPublicSurvey)
		r.Post("/api/s/{uuid}/visibility", h.handleVisibility)
		r.Post("/api/s/{uuid}/responses", h.handleSubmitResponse)
		r.Post("/api/bug-reports", h.handleSubmitBugReport)
	})

	// Authenticated API
	r.Group(func(r chi.Router) {
		r.Use(h.Tokens.RequireAuthAPI)

		// Surveys
		r.Get("/api/surveys", h.handleListSurveys)
		r.Get("/api/surveys/{id}", h.handleGetSurvey)
		r.Get("/api/leaderboard", h.handleLeaderboard)
		r.Get("/api/leaderboard/me", h.handleMyRank)

		// Season pass
		r.Get("/api/season-pass", h.handleCurrentSeason)
		r.Post("/api/season-pass/rewards/{id}/claim", h.handleClaimReward)
		r.Get("/api/purchases", h.handleListPurchases)
		r.Post("/api/purchases", h.handlePurchase)

		// Notifications
		r.Get("/api/notifications", h.handleListNotifications)
		r.Get("/api/notifications/unread-count", h.handleUnreadCount)
		r.Post("/api/notifications/{id}/read", h.handleMarkRead)
		r.Post("/api/notifications/read-all", h.handleMarkAllRead)

		// Ideas
		r.Get("/api/ideas", h.handleListIdeas)
		r.Post("/api/ideas", h.handleCreateIdea)
		r.Get("/api/ideas/{id}", h.handleGetIdea)
		r.Post("/api/ideas/{id}/vote", h.handleToggleVote)
		r.Post("/api/ideas/{id}/comments", h.handleAddComment)

		// Question bank (read)
		r.Get("/api/question-bank", h.handleListBankItems)
		r.Get("/api/question-bank/categories", h.handleBankCategories)
		r.Get("/api/question-bank/{id}", h.handleGetBankItem)

		// Survey management and drafts (business and admin)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleBusiness, models.RoleAdmin))

			r.Post("/api/surveys", h.handleCreateSurvey)
			r.Post("/api/surveys/quick-poll", h.handleCreateQuickPoll)
			r.Put("/api/surveys/{id}", h.handleUpdateSurvey)
			r.Delete("/api/surveys/{id}", h.handleDeleteSurvey)
			r.Post("/api/surveys/{id}/publish", h.handlePublishSurvey)
			r.Post("/api/surveys/{id}/unpublish", h.handleUnpublishSurvey)
			r.Get("/api/surveys/{id}/share", h.handleShareSurvey)
			r.Get("/api/surveys/{id}/qr", h.handleShareQR)
			r.Get("/api/surveys/{id}/results", h.handleSurveyResults)

			r.Get("/api/businesses/{id}/surveys", h.handleListBusinessSurveys)
			r.Post("/api/businesses/{id}/surveys", h.handleCreateBusinessSurvey)

			r.Post("/api/drafts", h.handleOpenDraft)
			r.Get("/api/drafts/{id}", h.handleGetDraft)
			r.Delete("/api/drafts/{id}", h.handleDiscardDraft)
			r.Put("/api/drafts/{id}/meta", h.handleUpdateDraftMeta)
			r.Post("/api/drafts/{id}/move", h.handleMoveQuestion)
			r.Post("/api/drafts/{id}/questions", h.handleInsertQuestion)
			r.Post("/api/drafts/{id}/questions/from-bank", h.handleInsertFromBank)
			r.Put("/api/drafts/{id}/questions/{index}", h.handleReplaceQuestion)
			r.Delete("/api/drafts/{id}/questions/{index}", h.handleDeleteQuestion)
			r.Post("/api/drafts/{id}/editors", h.handleOpenEditor)
			r.Put("/api/drafts/{id}/editors/{editorID}", h.handleUpdateEditor)
			r.Post("/api/drafts/{id}/editors/{editorID}/submit", h.handleSubmitEditor)
			r.Delete("/api/drafts/{id}/editors/{editorID}", h.handleCloseEditor)
			r.Post("/api/drafts/{id}/save", h.handleSaveDraft)
		})

		// Admin API
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))

			r.Get("/api/admin/stats", h.handleGetStats)
			r.Get("/api/admin/settings", h.handleGetSettings)
			r.Put("/api/admin/settings", h.handleUpdateSettings)

			r.Get("/api/admin/users", h.handleListUsers)
			r.Put("/api/admin/users/{id}/role", h.handleSetUserRole)

			r.Get("/api/admin/seasons", h.handleListSeasons)
			r.Post("/api/admin/seasons", h.handleCreateSeason)
			r.Get("/api/admin/seasons/{id}", h.handleGetSeason)
			r.Put("/api/admin/seasons/{id}", h.handleUpdateSeason)
			r.Delete("/api/admin/seasons/{id}", h.handleDeleteSeason)
			r.Post("/api/admin/seasons/{id}/activate", h.handleActivateSeason)
			r.Post("/api/admin/seasons/{id}/rewards", h.handleCreateReward)
			r.Put("/api/admin/rewards/{id}", h.handleUpdateReward)
			r.Delete("/api/admin/rewards/{id}", h.handleDeleteReward)

			r.Get("/api/admin/deliveries", h.handleListDeliveries)
			r.Get("/api/admin/deliveries/{id}", h.handleGetDelivery)
			r.Put("/api/admin/deliveries/{id}/status", h.handleUpdateDeliveryStatus)

			r.Post("/api/admin/notifications", h.handleSendNotification)

			r.Post("/api/question-bank", h.handleCreateBankItem)
			r.Put("/api/question-bank/{id}", h.handleUpdateBankItem)
			r.Delete("/api/question-bank/{id}", h.handleDeleteBankItem)

			r.Put("/api/admin/ideas/{id}/status", h.handleUpdateIdeaStatus)
			r.Get("/api/admin/bug-reports", h.handleListBugReports)
			r.Put("/api/admin/bug-reports/{id}/status", h.handleUpdateBugReportStatus)
		})
	})

	return r
}
