// Package term holds the terminal color state shared by logging and
// display.
//
// [Configure] picks a termenv color profile once during startup. When
// colors are disabled the profile is [termenv.Ascii] and [Paint] returns
// its input unchanged.
package term

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/backmassage/muxgraph/internal/config"
)

// Named colors, as ANSI palette indexes.
const (
	Red     = "9"
	Green   = "10"
	Yellow  = "11"
	Blue    = "12"
	Magenta = "13"
	Cyan    = "14"
	Orange  = "208"
)

var profile = termenv.Ascii

// Configure resolves the color mode against stdout and sets the active
// profile.
func Configure(mode config.ColorMode) {
	profile = resolve(mode)
}

// Profile returns the active color profile.
func Profile() termenv.Profile { return profile }

// Enabled reports whether colors are currently active.
func Enabled() bool { return profile != termenv.Ascii }

// Paint renders s bold in color. It is a no-op when colors are off.
func Paint(color, s string) string {
	if !Enabled() {
		return s
	}
	return profile.String(s).Foreground(profile.Color(color)).Bold().String()
}

// resolve maps the mode to a profile. Auto honors TTY detection, NO_COLOR
// (https://no-color.org) and TERM=dumb.
func resolve(mode config.ColorMode) termenv.Profile {
	switch mode {
	case config.ColorAlways:
		return termenv.ANSI256
	case config.ColorNever:
		return termenv.Ascii
	}
	if !IsTerminal(os.Stdout) || termenv.EnvNoColor() ||
		strings.ToLower(os.Getenv("TERM")) == "dumb" {
		return termenv.Ascii
	}
	p := termenv.NewOutput(os.Stdout).EnvColorProfile()
	if p == termenv.Ascii {
		return termenv.ANSI
	}
	return p
}

// IsTerminal reports whether f is attached to a TTY.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
