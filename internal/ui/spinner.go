// Package ui renders operator-facing progress on the terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type Spinner struct {
	*spinner.Spinner
	msg string
}

// NewSpinner creates and starts a spinner with the given message.
func NewSpinner(w io.Writer, msg string) *Spinner {
	s := &Spinner{
		spinner.New(
			spinner.CharSets[14],
			100*time.Millisecond,
			spinner.WithHiddenCursor(true),
			spinner.WithWriter(w),
			spinner.WithSuffix(" "+msg),
		),
		msg,
	}
	s.Start()
	return s
}

// Success stops the spinner and prints a success message.
// This function is safe to call on a nil Spinner.
func (s *Spinner) Success() {
	if s == nil {
		return
	}
	s.Spinner.FinalMSG = fmt.Sprintf("%s %s\n", color.GreenString("✓"), s.msg)
	s.Stop()
}

// Fail stops the spinner and prints a failure message.
// This function is safe to call on a nil Spinner.
func (s *Spinner) Fail(err error) {
	if s == nil {
		return
	}
	s.Spinner.FinalMSG = fmt.Sprintf("%s %s: %v\n", color.RedString("✗"), s.msg, err)
	s.Stop()
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
