package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	abs, err := CleanPath("data/policies.json")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))

	_, err = CleanPath("../outside.json")
	assert.Error(t, err)

	_, err = CleanPath("  ")
	assert.Error(t, err)
}

func TestOutputPathCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts", "2024")

	path, err := OutputPath(dir, "figure-1.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "figure-1.png"), path)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOutputPathRejectsNestedNames(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"", ".", "..", filepath.Join("a", "b.png")} {
		_, err := OutputPath(dir, name)
		assert.Error(t, err, name)
	}
}

func TestReplaceExt(t *testing.T) {
	assert.Equal(t, "report.json", ReplaceExt("report", "json"))
	assert.Equal(t, "report.csv", ReplaceExt("report.xlsx", ".csv"))
}
