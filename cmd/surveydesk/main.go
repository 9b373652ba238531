package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abrezinsky/surveydesk/internal/app"
	"github.com/abrezinsky/surveydesk/internal/auth"
	"github.com/abrezinsky/surveydesk/internal/config"
	"github.com/abrezinsky/surveydesk/internal/logger"
	"github.com/abrezinsky/surveydesk/pkg/mailgate"
	"github.com/abrezinsky/surveydesk/web"
)

// ANSI escape codes
const (
	clearLine = "\033[2K"
	moveUp    = "\033[%dA"
	reset     = "\033[0m"
	yellow    = "\033[33m"
	red       = "\033[31m"
	green     = "\033[32m"
	cyan      = "\033[36m"
	bold      = "\033[1m"
)

var (
	version = "dev"
)

const usage = `SurveyDesk - surveys, season passes and rewards

Usage:
  surveydesk [options]

Options:
  -port int            HTTP server port (default 8081)
  -db string           SQLite database path (default "surveydesk.db")
  -loglevel str        Log level: debug, info, warn, error (default "info")
  -jwt-secret str      Secret used to sign auth tokens
  -admin-email str     Seeded admin account email
  -admin-password str  Seeded admin password (auto-generated if not set)
  -mail-url str        Mail relay base URL
  -mail-key str        Mail relay API key
  -gelf addr           Mirror logs to a GELF UDP endpoint
  -noanimate           Skip the startup banner animation
  -nokeyboard          Disable keyboard shortcuts
  -version             Show version and exit

Every option can also be set through a SURVEYDESK_* environment
variable or a .env file in the working directory.

Keyboard Shortcuts (when enabled):
  a              Open admin page in browser
  h              Toggle HTTP request logging
  l              Cycle log level (debug → info → warn → error)
  q              Quit server
  ?              Show keyboard help
`

// showBanner prints the logo and, unless skipped, a short progress sweep
func showBanner(skipAnimation bool) {
	width := 62
	border := strings.Repeat("═", width)

	logo := []string{
		"   ____                              ____            _       ",
		"  / ___| _   _ _ ____   _____ _   _ |  _ \\  ___  ___| | __   ",
		"  \\___ \\| | | | '__\\ \\ / / _ \\ | | || | | |/ _ \\/ __| |/ /   ",
		"   ___) | |_| | |   \\ V /  __/ |_| || |_| |  __/\\__ \\   <    ",
		"  |____/ \\__,_|_|    \\_/ \\___|\\__, ||____/ \\___||___/_|\\_\\   ",
		"                              |___/                          ",
	}

	fmt.Printf("\n  %s╔%s╗%s\n", cyan, border, reset)
	for _, line := range logo {
		fmt.Printf("  %s║%s%-62s%s║%s\n", cyan, yellow, line, cyan, reset)
	}
	if skipAnimation {
		fmt.Printf("  %s╚%s╝%s\n\n", cyan, border, reset)
		return
	}

	fmt.Printf("  %s╠%s╣%s\n", cyan, border, reset)
	steps := []string{"questions", "answers", "rewards", "ready"}
	inner := width - 2
	for frame := 0; frame <= inner; frame += 4 {
		label := steps[min(frame*len(steps)/(inner+1), len(steps)-1)]
		bar := strings.Repeat("█", frame) + strings.Repeat("░", inner-frame)
		fmt.Printf("%s  %s║ %s%s%s ║%s\n", clearLine, cyan, green, bar, cyan, reset)
		fmt.Printf("%s  %s║%s%-62s%s║%s\n", clearLine, cyan, reset, " "+label, cyan, reset)
		fmt.Printf("%s  %s╚%s╝%s\n", clearLine, cyan, border, reset)
		fmt.Printf(moveUp, 3)
		time.Sleep(30 * time.Millisecond)
	}
	fmt.Printf("%s  %s║ %s%s%s ║%s\n", clearLine, cyan, green, strings.Repeat("█", inner), cyan, reset)
	fmt.Printf("%s  %s║%s%-62s%s║%s\n", clearLine, cyan, reset, " ready", cyan, reset)
	fmt.Printf("%s  %s╚%s╝%s\n\n", clearLine, cyan, border, reset)
}

// newLogger builds the process logger, mirroring to GELF when configured
func newLogger(cfg config.Config) (*logger.SlogLogger, io.Closer, error) {
	opts := logger.Options{Level: logger.ParseLevel(cfg.LogLevel)}
	if cfg.GELFAddr == "" {
		return logger.NewWithOptions(opts), nil, nil
	}
	gelf, err := logger.NewGELFWriter(cfg.GELFAddr, "surveydesk")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial GELF endpoint %s: %w", cfg.GELFAddr, err)
	}
	opts.Mirror = gelf
	return logger.NewWithOptions(opts), gelf, nil
}

func main() {
	cfg, err := config.Load(os.Args[1:], ".env", io.Discard)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "%v\n\n%s", err, usage)
		os.Exit(2)
	}

	if cfg.ShowVersion {
		fmt.Printf("surveydesk %s\n", version)
		os.Exit(0)
	}

	showBanner(cfg.NoAnimate)

	appLog, gelf, err := newLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if gelf != nil {
		defer gelf.Close()
	}

	if cfg.UsingDefaultSecret() {
		appLog.Warn("Using the development JWT secret; set SURVEYDESK_JWT_SECRET in production")
	}
	tokens := auth.New(cfg.JWTSecret)

	// Relay URL may be empty here; the stored setting is applied on startup
	mailClient := mailgate.NewHTTPClient(cfg.MailURL, cfg.MailAPIKey, appLog)

	a, err := app.New(appLog, cfg.DBPath, mailClient, web.GetTemplatesFS(), web.GetStaticFS(), tokens)
	if err != nil {
		log.Fatal("Failed to initialize application:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generated, err := a.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		a.Close()
		log.Fatal("Failed to seed admin account:", err)
	}
	if generated != "" {
		appLog.Info("Admin account created", "email", cfg.AdminEmail, "password", generated)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.Run(addr)
	}()

	adminURL := fmt.Sprintf("http://localhost:%d/admin", cfg.Port)
	if !cfg.NoKeyboard {
		printKeyboardHelp()
		go listenForKeyboard(adminURL, appLog, stop)
	} else {
		fmt.Printf("\n%sKeyboard shortcuts disabled (use -nokeyboard=false to enable)%s\n\n", yellow, reset)
	}

	select {
	case err := <-serverErr:
		a.Close()
		if err != nil {
			log.Fatal(err)
		}
	case <-ctx.Done():
		fmt.Printf("%sShutting down server...%s\n", yellow, reset)
		a.Close()
		<-serverErr
	}
}
