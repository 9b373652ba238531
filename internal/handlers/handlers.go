package handlers

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/abrezinsky/surveydesk/internal/auth"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/internal/services"
	"github.com/abrezinsky/surveydesk/internal/websocket"
)

// NewStaticServer creates a static file server from an fs.FS
func NewStaticServer(staticFS fs.FS) http.Handler {
	return http.FileServer(http.FS(staticFS))
}

// AdminPageData holds the data passed to admin templates
type AdminPageData struct {
	Title     string
	PageTitle string
	ActiveNav string
	UserEmail string
}

// Templates holds all parsed HTML templates
type Templates struct {
	Index              *template.Template
	Respond            *template.Template
	AdminLogin         *template.Template
	AdminDashboard     *template.Template
	AdminSurveys       *template.Template
	AdminSeasons       *template.Template
	AdminDeliveries    *template.Template
	AdminNotifications *template.Template
	AdminUsers         *template.Template
	AdminFeedback      *template.Template
	AdminSettings      *template.Template
}

// Services groups the service dependencies of the HTTP layer
type Services struct {
	Auth          services.AuthServicer
	Users         services.UserServicer
	Surveys       services.SurveyServicer
	Responses     services.ResponseServicer
	Drafts        services.DraftServicer
	QuestionBank  services.QuestionBankServicer
	SeasonPass    services.SeasonPassServicer
	Deliveries    services.DeliveryServicer
	Notifications services.NotificationServicer
	Feedback      services.FeedbackServicer
	Settings      services.SettingsServicer
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Services
	Tokens       *auth.Auth
	Hub          *websocket.Hub
	Log          logger.Logger
	templates    *Templates
	staticServer http.Handler
}

// New creates a new Handlers instance with all dependencies
func New(
	svc Services,
	templatesFS fs.FS,
	staticServer http.Handler,
	tokens *auth.Auth,
	hub *websocket.Hub,
	log logger.Logger,
) (*Handlers, error) {
	templates, err := loadTemplates(templatesFS)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	return &Handlers{
		Services:     svc,
		Tokens:       tokens,
		Hub:          hub,
		Log:          log,
		templates:    templates,
		staticServer: staticServer,
	}, nil
}

// NewForTesting creates a Handlers instance without templates, static
// files or websocket hub (for testing API endpoints)
func NewForTesting(svc Services, tokens *auth.Auth) *Handlers {
	return &Handlers{
		Services: svc,
		Tokens:   tokens,
		Log:      logger.Discard(),
	}
}

// loadTemplates parses all templates once at startup
func loadTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{}
	var err error

	if t.Index, err = template.ParseFS(templatesFS, "index.html"); err != nil {
		return nil, fmt.Errorf("index template: %w", err)
	}
	if t.Respond, err = template.ParseFS(templatesFS, "survey/respond.html"); err != nil {
		return nil, fmt.Errorf("respond template: %w", err)
	}
	if t.AdminLogin, err = template.ParseFS(templatesFS, "admin/login.html"); err != nil {
		return nil, fmt.Errorf("admin login template: %w", err)
	}

	pages := []struct {
		dst  **template.Template
		file string
	}{
		{&t.AdminDashboard, "dashboard"},
		{&t.AdminSurveys, "surveys"},
		{&t.AdminSeasons, "seasons"},
		{&t.AdminDeliveries, "deliveries"},
		{&t.AdminNotifications, "notifications"},
		{&t.AdminUsers, "users"},
		{&t.AdminFeedback, "feedback"},
		{&t.AdminSettings, "settings"},
	}
	for _, p := range pages {
		if *p.dst, err = template.ParseFS(templatesFS, "admin/layout.html", "admin/"+p.file+".html"); err != nil {
			return nil, fmt.Errorf("admin %s template: %w", p.file, err)
		}
	}

	return t, nil
}
