package main

import (
	"fmt"
	"strings"

	"github.com/abrezinsky/surveydesk/internal/browser"
	"github.com/abrezinsky/surveydesk/internal/logger"
)

// cycleLogLevel cycles through debug -> info -> warn -> error
func cycleLogLevel(appLog *logger.SlogLogger) {
	next := logger.NextLevel(appLog.GetLevel())
	appLog.SetLevel(next)
	fmt.Printf("%sLog level: %s%s%s\n", green, yellow, strings.ToLower(next.String()), reset)
}

// printKeyboardHelp displays all available keyboard shortcuts
func printKeyboardHelp() {
	fmt.Printf("\n%s%s  Keyboard Shortcuts:%s\n", bold, green, reset)
	fmt.Printf("    %sa%s      - Open admin page in browser\n", cyan, reset)
	fmt.Printf("    %sh%s      - Toggle HTTP request logging\n", cyan, reset)
	fmt.Printf("    %sl%s      - Cycle log level (debug → info → warn → error)\n", cyan, reset)
	fmt.Printf("    %sq%s      - Quit server\n", cyan, reset)
	fmt.Printf("    %s?%s      - Show this help\n\n", cyan, reset)
}

// handleKey runs the shortcut bound to key. It reports false once the
// user asked to quit.
func handleKey(key byte, adminURL string, appLog *logger.SlogLogger) bool {
	switch strings.ToLower(string(key)) {
	case "a":
		fmt.Printf("%sOpening admin page in browser...%s\n", cyan, reset)
		if err := browser.Open(adminURL); err != nil {
			fmt.Printf("%sError opening browser: %v%s\n", red, err, reset)
		}
	case "h":
		if appLog.IsHTTPLoggingEnabled() {
			appLog.DisableHTTPLogging()
			fmt.Printf("%sHTTP logging disabled%s\n", yellow, reset)
		} else {
			appLog.EnableHTTPLogging()
			fmt.Printf("%sHTTP logging enabled%s\n", green, reset)
		}
	case "l":
		cycleLogLevel(appLog)
	case "?":
		printKeyboardHelp()
	case "q", "\x03": // q or Ctrl+C
		return false
	}
	return true
}
