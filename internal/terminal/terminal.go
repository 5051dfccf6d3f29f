// Package terminal detects what the attached terminal can do: TTY on
// stdin/stdout, color support (NO_COLOR, TERM=dumb), and dimensions.
package terminal

import (
	"os"

	"golang.org/x/term"
)

// Info holds terminal capability information.
type Info struct {
	IsTTY bool
	// StdinTTY is set when keyboard input is available.
	StdinTTY  bool
	NoColor   bool
	Width     int
	Height    int
	ForceFlag bool // Set when --no-color flag is used
}

// Detect returns terminal information for the current environment.
func Detect() *Info {
	stdoutFD := int(os.Stdout.Fd())
	isTTY := term.IsTerminal(stdoutFD)

	width, height := 80, 24

	if isTTY {
		if w, h, err := term.GetSize(stdoutFD); err == nil {
			width, height = w, h
		}
	}

	// https://no-color.org/
	_, noColor := os.LookupEnv("NO_COLOR")

	if os.Getenv("TERM") == "dumb" {
		noColor = true
	}

	return &Info{
		IsTTY:    isTTY,
		StdinTTY: term.IsTerminal(int(os.Stdin.Fd())),
		NoColor:  noColor,
		Width:    width,
		Height:   height,
	}
}

// ColorEnabled returns true if colored output should be used.
func (t *Info) ColorEnabled() bool {
	if t.ForceFlag {
		return false
	}

	return t.IsTTY && !t.NoColor
}

// SpinnersEnabled returns true if spinners should be used.
func (t *Info) SpinnersEnabled() bool {
	return t.IsTTY && !t.NoColor
}

// DashboardEnabled reports whether a full-screen dashboard can run: it needs
// both a terminal to draw on and keyboard input.
func (t *Info) DashboardEnabled() bool {
	return t.IsTTY && t.StdinTTY && os.Getenv("TERM") != "dumb"
}
