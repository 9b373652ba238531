// Package browser opens the admin UI in the desktop browser.
package browser

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
)

// Commander starts an external process
type Commander interface {
	Start(name string, args ...string) error
}

// RealCommander starts processes with os/exec
type RealCommander struct{}

func (RealCommander) Start(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Platform describes the host the browser is launched on
type Platform struct {
	GOOS   string
	Getenv func(string) string
}

// Open opens rawURL in the default browser of the current host
func Open(rawURL string) error {
	return OpenOn(rawURL, RealCommander{}, Platform{GOOS: runtime.GOOS, Getenv: os.Getenv})
}

// OpenOn opens rawURL with commander on the given platform.
// Only absolute http(s) URLs are accepted.
func OpenOn(rawURL string, commander Commander, p Platform) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("refusing to open %q: not an http(s) URL", rawURL)
	}

	name, args, err := command(u.String(), p)
	if err != nil {
		return err
	}
	return commander.Start(name, args...)
}

func command(target string, p Platform) (string, []string, error) {
	getenv := p.Getenv
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	switch p.GOOS {
	case "linux":
		// WSL has no xdg-open by default; hand the URL to Windows
		if getenv("WSL_DISTRO_NAME") != "" {
			return "cmd.exe", []string{"/c", "start", "", target}, nil
		}
		return "xdg-open", []string{target}, nil
	case "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{target}, nil
	case "darwin":
		return "open", []string{target}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", p.GOOS)
	}
}
