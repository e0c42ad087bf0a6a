package ui

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	apperrors "policymetrics/pkg/errors"
)

// StepReporter prints pipeline stages as they complete
type StepReporter struct {
	out       io.Writer
	quiet     bool
	startTime time.Time
	mu        sync.Mutex

	current      string
	stepStart    time.Time
	successCount int
	failureCount int
	now          func() time.Time
}

// NewStepReporter creates a reporter writing to out. A quiet reporter only
// records counts.
func NewStepReporter(out io.Writer, quiet bool) *StepReporter {
	r := &StepReporter{out: out, quiet: quiet, now: time.Now}
	r.startTime = r.now()
	return r
}

// Start marks the beginning of a named step
func (r *StepReporter) Start(step string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current = step
	r.stepStart = r.now()
}

// Done completes the current step with an optional detail
func (r *StepReporter) Done(detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.successCount++
	r.print(ColorSuccess("✓"), detail)
}

// Fail completes the current step with an error. Application errors are
// shown by code and message only.
func (r *StepReporter) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failureCount++
	r.print(ColorError("✗"), failureDetail(err))
}

func failureDetail(err error) string {
	if err == nil {
		return ""
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message)
	}
	return err.Error()
}

// Finish prints the overall elapsed time and step counts
func (r *StepReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.quiet {
		return
	}
	fmt.Fprintf(r.out, "\n%s Completed %d steps in %s\n",
		ColorSuccess("✓"),
		r.successCount,
		formatDuration(r.now().Sub(r.startTime)),
	)
	if r.failureCount > 0 {
		fmt.Fprintf(r.out, "  %s %d failed\n", ColorError("✗"), r.failureCount)
	}
}

func (r *StepReporter) print(mark, detail string) {
	if r.quiet {
		return
	}
	elapsed := formatDuration(r.now().Sub(r.stepStart))
	if detail == "" {
		fmt.Fprintf(r.out, "%s %s %s\n", mark, r.current, ColorDim("("+elapsed+")"))
		return
	}
	fmt.Fprintf(r.out, "%s %s: %s %s\n", mark, r.current, detail, ColorDim("("+elapsed+")"))
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", hours, minutes)
}
