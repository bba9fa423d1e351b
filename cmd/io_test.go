package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkey1/legalc/internal/legal/config"
)

func TestSaveExport(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{ExportDir: dir}

	path, err := saveExport(cfg, "risk_assessment.txt", "Risk Score: 3/10")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "risk_assessment.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Risk Score: 3/10", string(data))
}

func TestSaveExportNamesDirectoryOnError(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{ExportDir: dir}

	_, err := saveExport(cfg, "..", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), dir)
}
