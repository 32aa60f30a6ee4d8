package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "layouts", cfg.LayoutsDir)
	assert.Equal(t, "raw", cfg.RawDir)
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "", cfg.Project)
	assert.Nil(t, cfg.DataSalt)
	assert.Nil(t, cfg.PiiSalt)
	assert.Equal(t, filepath.Join("data", "_V1_process.log"), cfg.ProcessLog)
	assert.Equal(t, "2006-01-02", cfg.DateFormat)
}

func TestLoad(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tempDir, "sirad.yaml")
	doc := `
project: Test
version: 3
data_dir: /tmp/out/data
data_salt: abc
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0666))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Test", cfg.Project)
	assert.Equal(t, 3, cfg.Version)
	assert.Equal(t, "/tmp/out/data", cfg.DataDir)
	require.NotNil(t, cfg.DataSalt)
	assert.Equal(t, "abc", *cfg.DataSalt)
	assert.Nil(t, cfg.PiiSalt)
	// Unset options keep their defaults; the process log tracks the
	// overridden data dir.
	assert.Equal(t, "pii", cfg.PiiDir)
	assert.Equal(t, filepath.Join("/tmp/out/data", "Test_V3_process.log"), cfg.ProcessLog)
}

func TestLoadUnknownKey(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tempDir, "sirad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bogus: 1\n"), 0666))
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join("does", "not", "exist.yaml"))
	require.Error(t, err)
}

func TestPath(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	cfg := Default()
	cfg.DataDir = filepath.Join(tempDir, "data")
	cfg.Project = "Test"
	cfg.Version = 2
	path, err := cfg.Path("tax", cfg.DataDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "data", "Test_V2", "tax.txt"), path)
	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSourcePath(t *testing.T) {
	cfg := Default()
	cfg.RawDir = "/srv/raw"
	assert.Equal(t, filepath.Join("/srv/raw", "tax.txt"), cfg.SourcePath("tax.txt"))
}
