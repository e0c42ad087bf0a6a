package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/mattn/go-isatty"
)

func withColor(t *testing.T, enabled bool) {
	t.Helper()
	original := supportsColor
	supportsColor = enabled
	t.Cleanup(func() { supportsColor = original })
}

func TestColorFunc(t *testing.T) {
	tests := []struct {
		name          string
		supportsColor bool
		input         string
		expectColored bool
	}{
		{
			name:          "with color support",
			supportsColor: true,
			input:         "test text",
			expectColored: true,
		},
		{
			name:          "without color support",
			supportsColor: false,
			input:         "test text",
			expectColored: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withColor(t, tt.supportsColor)

			funcs := []func(string) string{
				ColorSuccess,
				ColorError,
				ColorWarning,
				ColorInfo,
				ColorProgress,
				ColorBold,
				ColorDim,
			}

			for _, colorFunc := range funcs {
				result := colorFunc(tt.input)

				if tt.expectColored && result == tt.input {
					t.Error("Expected colored output, got plain text")
				}

				if !tt.expectColored && result != tt.input {
					t.Error("Expected plain text, got colored output")
				}
			}
		})
	}
}

func TestSetColor(t *testing.T) {
	withColor(t, false)

	SetColor(true)
	if !ColorEnabled() {
		t.Error("Expected color to be enabled")
	}
	SetColor(false)
	if ColorEnabled() {
		t.Error("Expected color to be disabled")
	}
}

func TestShowHeader(t *testing.T) {
	withColor(t, false)
	var buf bytes.Buffer

	ShowHeader(&buf, "Test Title")
	output := buf.String()

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 header lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "+-") || !strings.HasSuffix(lines[2], "-+") {
		t.Error("Header missing borders")
	}
	if !strings.Contains(lines[1], "Test Title") {
		t.Error("Header missing title")
	}
	if len(lines[0]) != len(lines[1]) {
		t.Errorf("Header lines not aligned: %q vs %q", lines[0], lines[1])
	}
}

func TestShowHeaderLongTitle(t *testing.T) {
	withColor(t, false)
	var buf bytes.Buffer

	title := strings.Repeat("x", 60)
	ShowHeader(&buf, title)

	if !strings.Contains(buf.String(), "| "+title+" |") {
		t.Errorf("Long title not padded: %q", buf.String())
	}
}

func TestShowMessages(t *testing.T) {
	withColor(t, false)

	tests := []struct {
		name   string
		show   func(w *bytes.Buffer)
		prefix string
	}{
		{"success", func(w *bytes.Buffer) { ShowSuccess(w, "done") }, "SUCCESS: done"},
		{"warning", func(w *bytes.Buffer) { ShowWarning(w, "careful") }, "WARNING: careful"},
		{"info", func(w *bytes.Buffer) { ShowInfo(w, "note") }, "INFO: note"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.show(&buf)
			if strings.TrimSpace(buf.String()) != tt.prefix {
				t.Errorf("Expected %q, got %q", tt.prefix, buf.String())
			}
		})
	}
}

func TestShowList(t *testing.T) {
	withColor(t, false)
	var buf bytes.Buffer

	ShowList(&buf, "Charts", nil)
	if buf.Len() != 0 {
		t.Error("Expected empty list to print nothing")
	}

	ShowList(&buf, "Charts", []string{"a.png", "b.png"})
	if buf.String() != "Charts\n  - a.png\n  - b.png\n" {
		t.Errorf("Unexpected list output: %q", buf.String())
	}
}

func TestBox(t *testing.T) {
	withColor(t, false)
	var buf bytes.Buffer

	Box(&buf, "Test Box", "Line 1\nLine 2\nLine 3")
	output := buf.String()

	if !strings.HasPrefix(output, "+- Test Box") {
		t.Error("Box title not found")
	}

	if !strings.Contains(output, "| Line 1   |") || !strings.Contains(output, "| Line 3   |") {
		t.Errorf("Box content not found: %q", output)
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if !strings.HasPrefix(lines[len(lines)-1], "+---") {
		t.Error("Box missing bottom border")
	}
}

// TestColorDetection tests the terminal color detection
func TestColorDetection(t *testing.T) {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		if supportsColor {
			t.Error("Color support should be false in non-terminal environment")
		}
	}
}
