// Package cli provides colour and table helpers for the netcensus CLI.
package cli

import (
	"os"
	"strings"
	"sync/atomic"
)

const reset = "\033[0m"

// colorEnabled starts false when NO_COLOR is set (per no-color.org).
var colorEnabled atomic.Bool

func init() {
	colorEnabled.Store(os.Getenv("NO_COLOR") == "")
}

// SetColor turns ANSI colouring on or off, e.g. for --no-color or when
// stdout is not a terminal.
func SetColor(on bool) {
	colorEnabled.Store(on)
}

func paint(code, s string) string {
	if !colorEnabled.Load() {
		return s
	}
	return code + s + reset
}

// Green wraps s in ANSI green.
func Green(s string) string { return paint("\033[32m", s) }

// Yellow wraps s in ANSI yellow.
func Yellow(s string) string { return paint("\033[33m", s) }

// Red wraps s in ANSI red.
func Red(s string) string { return paint("\033[31m", s) }

// Bold wraps s in ANSI bold.
func Bold(s string) string { return paint("\033[1m", s) }

// Dim wraps s in ANSI dim.
func Dim(s string) string { return paint("\033[2m", s) }

// Status renders a result flag as a coloured OK or FAIL.
func Status(ok bool) string {
	if ok {
		return Green("OK")
	}
	return Red("FAIL")
}

// DotPad pads name with dots to the given width.
// Example: DotPad("core1", 12) → "core1 ......"
func DotPad(name string, width int) string {
	if width <= 0 || len(name) >= width-1 {
		return name
	}
	dots := width - len(name) - 1
	return name + " " + strings.Repeat(".", dots)
}
