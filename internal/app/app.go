package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/surveydesk/internal/auth"
	"github.com/abrezinsky/surveydesk/internal/handlers"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/repository"
	"github.com/abrezinsky/surveydesk/internal/services"
	"github.com/abrezinsky/surveydesk/internal/websocket"
	"github.com/abrezinsky/surveydesk/internal/workerpool"
	"github.com/abrezinsky/surveydesk/pkg/mailgate"
)

const (
	jobWorkers   = 4
	jobQueueSize = 256
	shutdownWait = 5 * time.Second
)

// App holds all application dependencies
type App struct {
	log      logger.Logger
	handlers *handlers.Handlers
	repo     *repository.Repository
	authSvc  *services.AuthService
	mail     mailgate.Client
	pool     *workerpool.WorkerPool
	cancel   context.CancelFunc
	server   *http.Server
	mu       sync.Mutex
	stopped  bool
	closed   sync.Once
}

// New creates and initializes a new application instance
func New(log logger.Logger, dbPath string, mailClient mailgate.Client, templatesFS, staticFS fs.FS, tokens *auth.Auth) (*App, error) {
	repo, err := repository.New(dbPath)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := workerpool.New(ctx, log.With("component", "jobs"), jobWorkers, jobQueueSize)

	settingsService := services.NewSettingsService(log.With("component", "settings"), repo)
	settingsService.SetRelay(mailClient)

	hub := websocket.New(log.With("component", "websocket"), tokens, repo)
	hub.Start(ctx)
	notificationService := services.NewNotificationService(log.With("component", "notifications"), repo, pool, hub, mailClient)

	draftService := services.NewDraftService(log.With("component", "drafts"), repo, services.DefaultDraftTTL)
	draftService.Start(ctx)

	authService := services.NewAuthService(log.With("component", "auth"), repo, tokens, mailClient)

	svc := handlers.Services{
		Auth:          authService,
		Users:         services.NewUserService(log, repo),
		Surveys:       services.NewSurveyService(log, repo, settingsService),
		Responses:     services.NewResponseService(log, repo, nil, settingsService),
		Drafts:        draftService,
		QuestionBank:  services.NewQuestionBankService(log, repo),
		SeasonPass:    services.NewSeasonPassService(log, repo, notificationService),
		Deliveries:    services.NewDeliveryService(log, repo, notificationService),
		Notifications: notificationService,
		Feedback:      services.NewFeedbackService(log, repo),
		Settings:      settingsService,
	}

	h, err := handlers.New(svc, templatesFS, handlers.NewStaticServer(staticFS), tokens, hub, log)
	if err != nil {
		cancel()
		repo.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	a := &App{
		log:      log,
		handlers: h,
		repo:     repo,
		authSvc:  authService,
		mail:     mailClient,
		pool:     pool,
		cancel:   cancel,
	}
	a.syncMailRelay(ctx)
	return a, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// EnsureAdmin seeds the admin account. When password is empty and the
// account is new, the generated password is returned.
func (a *App) EnsureAdmin(ctx context.Context, email, password string) (string, error) {
	return a.authSvc.EnsureAdmin(ctx, email, password)
}

// Close performs graceful shutdown of app resources
func (a *App) Close() {
	a.closed.Do(func() {
		a.mu.Lock()
		a.stopped = true
		server := a.server
		a.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()

		if server != nil {
			if err := server.Shutdown(ctx); err != nil {
				a.log.Warn("HTTP server shutdown failed", "error", err)
			}
		}
		if err := a.pool.Shutdown(ctx); err != nil {
			a.log.Warn("Job queue did not drain", "error", err)
		}
		a.cancel()
		if err := a.repo.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	})
}

// Run starts the HTTP server and blocks until it stops
func (a *App) Run(addr string) error {
	// Set default base URL if not configured, using detected LAN IP
	ip := getPreferredIP(realNetworkProvider{})
	baseURL := fmt.Sprintf("http://%s%s", ip, addr)
	a.setDefaultBaseURL(baseURL)

	server := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	a.server = server
	a.mu.Unlock()

	a.log.Info("Server starting", "url", baseURL)
	a.log.Info("Admin URL", "url", baseURL+"/admin")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// setDefaultBaseURL sets the base URL setting if not already configured
// or if current value uses localhost (which isn't useful for QR codes)
func (a *App) setDefaultBaseURL(baseURL string) {
	ctx := context.Background()
	existing, _ := a.repo.GetSetting(ctx, repository.SettingBaseURL)

	needsUpdate := existing == "" || strings.Contains(existing, "localhost")
	if needsUpdate {
		if err := a.repo.SetSetting(ctx, repository.SettingBaseURL, baseURL); err != nil {
			a.log.Warn("Failed to set default base_url", "error", err)
		} else {
			a.log.Info("Default base URL set", "url", baseURL)
		}
	}
}

// syncMailRelay reconciles the relay URL from flags with the stored setting.
// A URL given at startup wins and is persisted; otherwise the stored one is used.
func (a *App) syncMailRelay(ctx context.Context) {
	if url := a.mail.BaseURL(); url != "" {
		if err := a.repo.SetSetting(ctx, repository.SettingMailURL, url); err != nil {
			a.log.Warn("Failed to store mail relay URL", "error", err)
		}
		return
	}
	stored, err := a.repo.GetSetting(ctx, repository.SettingMailURL)
	if err != nil {
		a.log.Warn("Failed to read mail relay URL", "error", err)
		return
	}
	if stored != "" {
		a.mail.SetBaseURL(stored)
		a.log.Info("Mail relay configured from settings", "url", stored)
	} else {
		a.log.Info("Mail relay not configured, outgoing email disabled")
	}
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

// realInterface wraps a real net.Interface
type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

// networkProvider is an interface for getting network interfaces (for testing)
type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

// realNetworkProvider implements networkProvider using actual net package
type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the best IPv4 address for share links.
// Private ranges win; localhost is the fallback.
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP
	for _, iface := range ifaces {
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			candidates = append(candidates, ip)
		}
	}

	for _, ip := range candidates {
		if ip.IsPrivate() {
			return ip.String()
		}
	}
	if len(candidates) > 0 {
		return candidates[0].String()
	}
	return "localhost"
}
