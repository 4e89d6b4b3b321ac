package poseinterface

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLabelsDispatch(t *testing.T) {
	t.Parallel()

	t.Run("csv selects the DLC loader", func(t *testing.T) {
		t.Parallel()
		csvPath := createDLCProject(t, dlcSingleIndexCSV, "CollectedData_Pranav.csv", false)
		labels, err := LoadLabels(csvPath)
		require.NoError(t, err)
		assert.Len(t, labels.Frames, 5)
	})

	t.Run("extension matching is case insensitive", func(t *testing.T) {
		t.Parallel()
		csvPath := createDLCProject(t, dlcSingleIndexCSV, "CollectedData_Pranav.CSV", false)
		_, err := LoadLabels(csvPath)
		require.NoError(t, err)
	})

	t.Run("unknown extension names the supported ones", func(t *testing.T) {
		t.Parallel()
		_, err := LoadLabels(filepath.Join(t.TempDir(), "labels.slp"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported annotation format")
		assert.Contains(t, err.Error(), ".csv")
		assert.Contains(t, err.Error(), ".json")
	})

	t.Run("parse failures name the file", func(t *testing.T) {
		t.Parallel()
		p := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(p, []byte("{"), 0644))
		_, err := LoadLabels(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse annotations")
		assert.Contains(t, err.Error(), "bad.json")
	})
}

func TestFindLabelFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"CollectedData_P.csv", "labels.json", "frame.png", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	found, err := FindLabelFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "CollectedData_P.csv"),
		filepath.Join(dir, "labels.json"),
	}, found)

	_, err = FindLabelFiles(filepath.Join(dir, "missing"))
	require.Error(t, err)
}
