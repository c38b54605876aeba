// Package format renders CLI status lines.
package format

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	// useColor determines whether to use color in output
	useColor = true

	green   = color.New(color.FgGreen)
	yellow  = color.New(color.FgYellow)
	red     = color.New(color.FgRed)
	cyan    = color.New(color.FgCyan)
	bold    = color.New(color.Bold)
	boldRed = color.New(color.FgRed, color.Bold)
	boldCy  = color.New(color.FgCyan, color.Bold)
	boldGr  = color.New(color.FgGreen, color.Bold)
)

func init() {
	useColor = detectColor(os.LookupEnv, term.IsTerminal(int(os.Stdout.Fd())))
	color.NoColor = !useColor
}

// detectColor honours NO_COLOR and NAVLAUNCH_NO_COLOR, then falls back to
// whether stdout is a terminal. NAVLAUNCH_FORCE_COLOR wins over the terminal
// check.
func detectColor(lookup func(string) (string, bool), isTerminal bool) bool {
	if _, ok := lookup("NO_COLOR"); ok {
		return false
	}
	if _, ok := lookup("NAVLAUNCH_NO_COLOR"); ok {
		return false
	}
	if _, ok := lookup("NAVLAUNCH_FORCE_COLOR"); ok {
		return true
	}
	return isTerminal
}

// EnableColor enables or disables colored output globally
func EnableColor(enable bool) {
	useColor = enable
	color.NoColor = !enable
}

// IsColorEnabled returns whether colored output is enabled
func IsColorEnabled() bool {
	return useColor
}

func paint(c *color.Color, format string, a ...interface{}) string {
	msg := fmt.Sprintf(format, a...)
	if !useColor {
		return msg
	}
	return c.Sprint(msg)
}

// Success formats a message as a success (green)
func Success(format string, a ...interface{}) string { return paint(green, format, a...) }

// Warning formats a message as a warning (yellow)
func Warning(format string, a ...interface{}) string { return paint(yellow, format, a...) }

// Error formats a message as an error (red)
func Error(format string, a ...interface{}) string { return paint(red, format, a...) }

// Info formats a message as info (cyan)
func Info(format string, a ...interface{}) string { return paint(cyan, format, a...) }

// Header formats a message as a header (bold)
func Header(format string, a ...interface{}) string { return paint(bold, format, a...) }

// StatusSymbol returns a colorized status symbol
func StatusSymbol(success bool) string {
	if success {
		return paint(green, "✓")
	}
	return paint(red, "✗")
}

// Label formats a key and value with a label style
func Label(key, value string) string {
	return fmt.Sprintf("%s %s", paint(boldCy, "%s:", key), value)
}

// StateLabel colors a process state.
func StateLabel(state string) string {
	state = strings.ToLower(state)
	switch state {
	case "running", "exited":
		return paint(boldGr, "%s", state)
	case "created":
		return paint(yellow, "%s", state)
	case "failed":
		return paint(boldRed, "%s", state)
	default:
		return state
	}
}
