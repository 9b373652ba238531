//go:build linux || darwin

package main

import (
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/abrezinsky/surveydesk/internal/logger"
)

// listenForKeyboard reads single keypresses from stdin until q is pressed,
// then calls quit. Output processing stays on so log lines still wrap.
func listenForKeyboard(adminURL string, appLog *logger.SlogLogger, quit func()) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	oldState, err := term.GetState(fd)
	if err != nil {
		return
	}

	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return
	}
	// Disable canonical mode (line buffering) and echo
	termios.Lflag &^= unix.ICANON | unix.ECHO
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, termios); err != nil {
		return
	}
	defer term.Restore(fd, oldState)

	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		if !handleKey(buf[0], adminURL, appLog) {
			term.Restore(fd, oldState)
			quit()
			return
		}
	}
}
