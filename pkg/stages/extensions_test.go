package stages

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dotfiles-installer/pkg/errors"
)

func TestValidateExtensionName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"ms-python.python", true},
		{"golang.Go", true},
		{"dbaeumer.vscode-eslint", true},
		{"ms-python", false},
		{"", false},
		{".python", false},
		{"ms-python.", false},
		{"pub lisher.ext", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExtensionName(tt.name)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
			}
		})
	}
}

func TestReadExtensionManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extensions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"extensions:\n  - ms-python.python\n  - golang.Go\n"), 0644))

	got, err := ReadExtensionManifest(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ms-python.python", "golang.Go"}, got)
}

func TestReadExtensionManifest_InvalidEntryFailsEagerly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extensions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"extensions:\n  - ms-python.python\n  - ms-python\n"), 0644))

	_, err := ReadExtensionManifest(path)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestReadExtensionManifest_MissingFile(t *testing.T) {
	_, err := ReadExtensionManifest(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileNotFound))
}

func TestMissingExtensions(t *testing.T) {
	required := []string{"ms-python.python", "golang.Go", "dbaeumer.vscode-eslint"}
	installed := []string{"golang.go", "other.extension"}

	// Comparison is case-insensitive; result follows manifest order.
	got := MissingExtensions(required, installed)
	assert.Equal(t, []string{"ms-python.python", "dbaeumer.vscode-eslint"}, got)
}

func TestMissingExtensions_AllInstalled(t *testing.T) {
	required := []string{"ms-python.python"}
	installed := []string{"ms-python.python"}
	assert.Empty(t, MissingExtensions(required, installed))
}
