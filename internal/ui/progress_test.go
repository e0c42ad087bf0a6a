package ui

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "policymetrics/pkg/errors"
)

// fakeClock advances by step on every reading
func fakeClock(step time.Duration) func() time.Time {
	current := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(step)
		return current
	}
}

func TestStepReporter(t *testing.T) {
	withColor(t, false)
	var buf bytes.Buffer

	r := NewStepReporter(&buf, false)
	r.now = fakeClock(250 * time.Millisecond)

	r.Start("Loading dataset")
	r.Done("12 records")
	r.Start("Rendering charts")
	r.Fail(errors.New("disk full"))
	r.Finish()

	output := buf.String()
	if !strings.Contains(output, "✓ Loading dataset: 12 records (250ms)") {
		t.Errorf("Missing completed step in %q", output)
	}
	if !strings.Contains(output, "✗ Rendering charts: disk full") {
		t.Errorf("Missing failed step in %q", output)
	}
	if !strings.Contains(output, "Completed 1 steps") || !strings.Contains(output, "1 failed") {
		t.Errorf("Missing summary in %q", output)
	}
}

func TestStepReporterFailShowsCodeAndMessage(t *testing.T) {
	withColor(t, false)
	var buf bytes.Buffer

	r := NewStepReporter(&buf, false)
	r.now = fakeClock(time.Millisecond)
	r.Start("Loading dataset")
	err := apperrors.Wrap(errors.New("open policies.json: no such file"), apperrors.ErrCodeInputNotFound, "Failed to read dataset").
		WithSuggestions("Check the path")
	r.Fail(err)

	if buf.String() != "✗ Loading dataset: [PM3001] Failed to read dataset (1ms)\n" {
		t.Errorf("Unexpected output %q", buf.String())
	}
}

func TestStepReporterNoDetail(t *testing.T) {
	withColor(t, false)
	var buf bytes.Buffer

	r := NewStepReporter(&buf, false)
	r.now = fakeClock(time.Millisecond)
	r.Start("Repairing columns")
	r.Done("")

	if buf.String() != "✓ Repairing columns (1ms)\n" {
		t.Errorf("Unexpected output %q", buf.String())
	}
}

func TestStepReporterQuiet(t *testing.T) {
	var buf bytes.Buffer

	r := NewStepReporter(&buf, true)
	r.Start("Loading dataset")
	r.Done("ok")
	r.Finish()

	if buf.Len() != 0 {
		t.Errorf("Expected no output, got %q", buf.String())
	}
	if r.successCount != 1 {
		t.Errorf("Expected 1 completed step, got %d", r.successCount)
	}
}

func TestStepReporterConcurrency(t *testing.T) {
	r := NewStepReporter(&bytes.Buffer{}, true)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			if index%2 == 0 {
				r.Done("")
			} else {
				r.Fail(nil)
			}
		}(i)
	}
	wg.Wait()

	if r.successCount != 5 || r.failureCount != 5 {
		t.Errorf("Expected 5/5 steps, got %d/%d", r.successCount, r.failureCount)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{500 * time.Millisecond, "500ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30s"},
		{2*time.Hour + 5*time.Minute, "2h5m"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.expected {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.expected)
		}
	}
}
