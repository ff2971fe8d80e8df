package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/Makepad-fr/tada-remote/internal/notify"
)

var (
	reset = "\033[0m"
	bold  = "\033[1m"

	fgGray   = "\033[90m"
	fgGreen  = "\033[32m"
	fgYellow = "\033[33m"
	fgBlue   = "\033[34m"
	fgRed    = "\033[31m"

	symCheck = "✔"
	symCross = "✖"
	symInfo  = "•"
)

var (
	forceColor   bool
	disableColor bool

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func SetColorForcing(force, disable bool) {
	forceColor = force
	disableColor = disable
}

// SetOutput redirects OK/Info and Fail output. Nil restores the defaults.
func SetOutput(out, errOut io.Writer) {
	stdout, stderr = os.Stdout, os.Stderr
	if out != nil {
		stdout = out
	}
	if errOut != nil {
		stderr = errOut
	}
}

func isTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func C(color, s string) string {
	if disableColor || color == "" {
		return s
	}
	if forceColor || isTTY() {
		return color + s + reset
	}
	return s
}

func OK(msg string)   { fmt.Fprintln(stdout, C(Current().Success, symCheck+" "+msg)) }
func Info(msg string) { fmt.Fprintln(stdout, C(Current().Muted, symInfo+" "+msg)) }
func Fail(msg string) { fmt.Fprintln(stderr, C(Current().Error, symCross+" "+msg)) }

// Console prints notifications as they arrive, one line each.
var Console notify.Notifier = notify.Func(func(n notify.Notification) {
	switch n.Level {
	case notify.Success:
		OK(n.Message)
	case notify.Error:
		Fail(n.Message)
	default:
		Info(n.Message)
	}
})
