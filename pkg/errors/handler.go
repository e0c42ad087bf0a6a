package errors

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
)

// ErrorHandler renders errors for the terminal
type ErrorHandler struct {
	out     io.Writer
	verbose bool
}

// NewErrorHandler creates a handler writing to out. A nil out means stderr.
func NewErrorHandler(out io.Writer, verbose bool) *ErrorHandler {
	if out == nil {
		out = os.Stderr
	}
	return &ErrorHandler{out: out, verbose: verbose}
}

// Handle displays err. Plain errors are wrapped as internal errors first.
func (h *ErrorHandler) Handle(err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = Wrap(err, ErrCodeInternal, err.Error())
	}

	h.display(appErr)
}

func (h *ErrorHandler) display(err *AppError) {
	var paint func(format string, a ...interface{}) string
	switch err.Severity {
	case SeverityCritical:
		paint = color.New(color.FgRed, color.Bold).SprintfFunc()
	case SeverityWarning:
		paint = color.YellowString
	case SeverityInfo:
		paint = color.CyanString
	default:
		paint = color.RedString
	}

	fmt.Fprintf(h.out, "\n%s\n", paint("[%s] %s", err.Code, err.Message))

	if err.Cause != nil && err.Cause.Error() != err.Message {
		var inner *AppError
		if errors.As(err.Cause, &inner) {
			fmt.Fprintf(h.out, "  caused by [%s] %s\n", inner.Code, inner.Message)
		} else {
			fmt.Fprintf(h.out, "  caused by: %v\n", err.Cause)
		}
	}

	if len(err.Context) > 0 {
		fmt.Fprintln(h.out, "\nContext:")
		keys := make([]string, 0, len(err.Context))
		for key := range err.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(h.out, "  %s: %v\n", key, err.Context[key])
		}
	}

	if len(err.Suggestions) > 0 {
		fmt.Fprintln(h.out, "\nSuggestions:")
		for i, suggestion := range err.Suggestions {
			fmt.Fprintf(h.out, "  %d. %s\n", i+1, suggestion)
		}
	}

	if h.verbose {
		fmt.Fprintf(h.out, "\nTimestamp: %s\n", err.Timestamp.Format(time.RFC3339))
		if err.Stack != "" {
			fmt.Fprintf(h.out, "Stack:\n%s", err.Stack)
		}
	}
}
