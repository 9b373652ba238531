//go:build windows

package main

import (
	"os"

	"golang.org/x/term"

	"github.com/abrezinsky/surveydesk/internal/logger"
)

// listenForKeyboard reads single keypresses from the console until q is
// pressed, then calls quit
func listenForKeyboard(adminURL string, appLog *logger.SlogLogger, quit func()) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
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
