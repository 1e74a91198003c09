package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	dimColor     = color.New(color.FgHiBlack)
)

// stepTimer prints review progress and, when verbose, per-step timing.
// It implements review.Progress.
type stepTimer struct {
	out        io.Writer
	stepNum    int
	totalSteps int
	start      time.Time
	verbose    bool
}

func newStepTimer(out io.Writer, totalSteps int, verbose bool) *stepTimer {
	return &stepTimer{
		out:        out,
		totalSteps: totalSteps,
		verbose:    verbose,
	}
}

func (t *stepTimer) Step(name string) {
	t.stepNum++
	t.start = time.Now()
	if t.verbose {
		titleColor.Fprintf(t.out, "\n> Step %d/%d: %s...\n", t.stepNum, t.totalSteps, name)
	} else {
		fmt.Fprintf(t.out, "%s...\n", name)
	}
}

func (t *stepTimer) Done(details ...string) {
	if !t.verbose {
		return
	}
	elapsed := time.Since(t.start).Round(time.Millisecond)
	successColor.Fprintf(t.out, "   Done (%s)\n", elapsed)
	for _, d := range details {
		dimColor.Fprintf(t.out, "   `-- %s\n", d)
	}
}

func (t *stepTimer) Info(format string, args ...any) {
	if t.verbose {
		dimColor.Fprintf(t.out, "   |-- "+format+"\n", args...)
	}
}
