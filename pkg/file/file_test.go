package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileService_IsFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	fs := NewFileService()

	exists, err := fs.IsFileExists(path)
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = fs.IsFileExists(filepath.Join(dir, "missing.json"))
	assert.NoError(t, err)
	assert.False(t, exists)

	exists, err = fs.IsFileExists(dir)
	assert.NoError(t, err)
	assert.False(t, exists, "directories are not files")
}

func TestFileService_ReadYamlFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device_id: rov-1\ninterval: 2s\n"), 0o600))

	var out struct {
		DeviceID string `yaml:"device_id"`
		Interval string `yaml:"interval"`
	}
	err := NewFileService().ReadYamlFile(path, &out)

	require.NoError(t, err)
	assert.Equal(t, "rov-1", out.DeviceID)
	assert.Equal(t, "2s", out.Interval)
}

func TestFileService_ReadYamlFile_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device_idd: rov-1\n"), 0o600))

	var out struct {
		DeviceID string `yaml:"device_id"`
	}
	assert.Error(t, NewFileService().ReadYamlFile(path, &out))
}
