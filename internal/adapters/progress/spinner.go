package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

// SpinnerSink renders progress events as a spinner with a stage trail
type SpinnerSink struct {
	out     io.Writer
	spinner *spinner.Spinner
	stages  []stageInfo
}

type stageInfo struct {
	Stage     string
	StartTime time.Time
	EndTime   time.Time
}

// NewSpinnerSink creates a spinner sink writing to stderr
func NewSpinnerSink() *SpinnerSink {
	return NewSpinnerSinkTo(os.Stderr)
}

// NewSpinnerSinkTo creates a spinner sink writing to out
func NewSpinnerSinkTo(out io.Writer) *SpinnerSink {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false
	return &SpinnerSink{out: out, spinner: s}
}

// OnProgress handles progress events
func (r *SpinnerSink) OnProgress(_ context.Context, event usecase.ProgressEvent) {
	if n := len(r.stages); n == 0 || r.stages[n-1].Stage != event.Stage {
		now := time.Now()
		if n > 0 {
			r.stages[n-1].EndTime = now
		}
		r.stages = append(r.stages, stageInfo{Stage: event.Stage, StartTime: now})
	}

	if !event.Spinner {
		r.spinner.Stop()
		return
	}

	suffix := " " + event.Message
	if event.Total > 1 {
		suffix = fmt.Sprintf(" [%d/%d] %s", event.Current, event.Total, event.Message)
	}
	r.spinner.Suffix = suffix + "  " + r.trail()
	if !r.spinner.Active() {
		r.spinner.Start()
	}
}

// Info prints an info message
func (r *SpinnerSink) Info(message string) {
	r.println(color.New(color.FgCyan), message)
}

// Error prints an error message
func (r *SpinnerSink) Error(message string) {
	r.println(color.New(color.FgRed), message)
}

// Stop clears the spinner line
func (r *SpinnerSink) Stop() {
	r.spinner.Stop()
}

func (r *SpinnerSink) println(c *color.Color, message string) {
	// Stop spinner temporarily
	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}

	c.Fprintln(r.out, message)

	if wasActive {
		r.spinner.Start()
	}
}

// trail renders finished stages with their durations
func (r *SpinnerSink) trail() string {
	var display string
	for i, stage := range r.stages {
		icon, stageColor := "●", color.New(color.FgYellow)
		duration := ""
		if !stage.EndTime.IsZero() {
			icon, stageColor = "✓", color.New(color.FgGreen)
			duration = fmt.Sprintf(" (%s)", stage.EndTime.Sub(stage.StartTime).Round(time.Second))
		}
		if i > 0 {
			display += " → "
		}
		display += fmt.Sprintf("%s %s%s", icon, stageColor.Sprint(stage.Stage), duration)
	}
	return color.New(color.Faint).Sprint(display)
}

// LineSink prints one line per stage change, for non-TTY and debug output
type LineSink struct {
	out  io.Writer
	last string
}

// NewLineSink creates a line sink writing to out
func NewLineSink(out io.Writer) *LineSink {
	return &LineSink{out: out}
}

func (l *LineSink) OnProgress(_ context.Context, event usecase.ProgressEvent) {
	line := event.Stage + ": " + event.Message
	if line == l.last {
		return
	}
	l.last = line
	fmt.Fprintln(l.out, line)
}

func (l *LineSink) Info(message string)  { fmt.Fprintln(l.out, message) }
func (l *LineSink) Error(message string) { fmt.Fprintln(l.out, "error: "+message) }

var (
	_ usecase.ProgressSink = (*SpinnerSink)(nil)
	_ usecase.ProgressSink = (*LineSink)(nil)
)
