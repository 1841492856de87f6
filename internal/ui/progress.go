package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Progress prints one line per orchestrator step. On a terminal each running
// step is shown with a spinner.
type Progress struct {
	w       io.Writer
	animate bool
	current *Spinner
}

// NewProgress writes to stderr, animating when stderr is a terminal.
func NewProgress() *Progress {
	return &Progress{w: os.Stderr, animate: IsTerminal(os.Stderr) && !color.NoColor}
}

// NewPlainProgress writes to w without animation.
func NewPlainProgress(w io.Writer) *Progress {
	return &Progress{w: w}
}

// StepStarted implements cluster.Observer.
func (p *Progress) StepStarted(name string) {
	if p.animate {
		p.current = NewSpinner(p.w, name)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", color.CyanString("→"), name)
}

// StepFinished implements cluster.Observer.
func (p *Progress) StepFinished(name string, err error) {
	if p.animate && p.current != nil {
		if err != nil {
			p.current.Fail(err)
		} else {
			p.current.Success()
		}
		p.current = nil
		return
	}
	if err != nil {
		fmt.Fprintf(p.w, "%s %s: %v\n", color.RedString("✗"), name, err)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", color.GreenString("✓"), name)
}
