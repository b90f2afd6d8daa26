package dotfiles_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dotfiles-installer/pkg/dotfiles"
	"dotfiles-installer/pkg/filesystem"
)

const testTimestamp = "2024-03-01_12-00-00"

func newManager() *dotfiles.Manager {
	return dotfiles.NewManager(filesystem.NewOS(), testTimestamp)
}

func TestBackupPath(t *testing.T) {
	mgr := newManager()
	got := mgr.BackupPath("/home/user/.gitconfig")
	assert.Equal(t, "/home/user/.gitconfig.pre-dotfiles-installer-"+testTimestamp, got)
}

func TestSafeWrite_NewFile(t *testing.T) {
	home := t.TempDir()
	mgr := newManager()
	dest := filepath.Join(home, ".gitconfig")

	require.NoError(t, mgr.SafeWrite("[user]\n\tname = Test\n", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "[user]\n\tname = Test\n", string(data))

	entries, err := os.ReadDir(home)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no backup should be created for a fresh write")
}

func TestSafeWrite_BacksUpExistingFile(t *testing.T) {
	home := t.TempDir()
	mgr := newManager()
	dest := filepath.Join(home, ".gitconfig")
	require.NoError(t, os.WriteFile(dest, []byte("old content"), 0644))

	require.NoError(t, mgr.SafeWrite("new content", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "new content", string(data))

	backup, err := os.ReadFile(dest + dotfiles.BackupPrefix + testTimestamp)
	require.NoError(t, err)
	assert.Equal(t, "old content", string(backup), "backup holds exactly the prior content")
}

func TestSafeWrite_RemovesSymlinkWithoutBackup(t *testing.T) {
	home := t.TempDir()
	mgr := newManager()

	target := filepath.Join(home, "elsewhere")
	require.NoError(t, os.WriteFile(target, []byte("target"), 0644))
	dest := filepath.Join(home, ".gitconfig")
	require.NoError(t, os.Symlink(target, dest))

	require.NoError(t, mgr.SafeWrite("fresh", dest))

	info, err := os.Lstat(dest)
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular(), "destination should now be a regular file")

	// The link target must not have been followed and overwritten.
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "target", string(data))

	matches, err := filepath.Glob(dest + dotfiles.BackupPrefix + "*")
	require.NoError(t, err)
	assert.Empty(t, matches, "plain symlinks are removed without backup")
}

func TestSafeWrite_BacksUpDirectory(t *testing.T) {
	home := t.TempDir()
	mgr := newManager()
	dest := filepath.Join(home, ".vim")
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "colors"), 0755))

	require.NoError(t, mgr.SafeWrite("now a file", dest))

	backup := dest + dotfiles.BackupPrefix + testTimestamp
	info, err := os.Stat(backup)
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "directory moved aside as a whole")
}

func TestSafeSymlink_Create(t *testing.T) {
	home := t.TempDir()
	mgr := newManager()
	source := filepath.Join(home, "dotfiles", ".zshrc")
	require.NoError(t, os.MkdirAll(filepath.Dir(source), 0755))
	require.NoError(t, os.WriteFile(source, []byte("export EDITOR=vim"), 0644))
	dest := filepath.Join(home, ".zshrc")

	require.NoError(t, mgr.SafeSymlink(source, dest))

	resolved, err := filepath.EvalSymlinks(dest)
	require.NoError(t, err)
	expected, err := filepath.EvalSymlinks(source)
	require.NoError(t, err)
	assert.Equal(t, expected, resolved)
}

func TestSafeSymlink_ReplacesExistingLink(t *testing.T) {
	home := t.TempDir()
	mgr := newManager()

	oldTarget := filepath.Join(home, "old")
	newTarget := filepath.Join(home, "new")
	require.NoError(t, os.WriteFile(oldTarget, []byte("old"), 0644))
	require.NoError(t, os.WriteFile(newTarget, []byte("new"), 0644))

	dest := filepath.Join(home, ".zshrc")
	require.NoError(t, os.Symlink(oldTarget, dest))

	require.NoError(t, mgr.SafeSymlink(newTarget, dest))

	target, err := os.Readlink(dest)
	require.NoError(t, err)
	assert.Equal(t, newTarget, target)

	matches, err := filepath.Glob(dest + dotfiles.BackupPrefix + "*")
	require.NoError(t, err)
	assert.Empty(t, matches, "replacing a symlink creates no backup")
}

func TestSafeSymlink_IntoDirectory(t *testing.T) {
	home := t.TempDir()
	mgr := newManager()
	source := filepath.Join(home, "dotfiles", "settings.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(source), 0755))
	require.NoError(t, os.WriteFile(source, []byte("{}"), 0644))

	destDir := filepath.Join(home, "Code", "User")
	require.NoError(t, os.MkdirAll(destDir, 0755))

	require.NoError(t, mgr.SafeSymlink(source, destDir))

	target, err := os.Readlink(filepath.Join(destDir, "settings.json"))
	require.NoError(t, err)
	assert.Equal(t, source, target)
}

func TestSafeSymlink_BacksUpExistingFile(t *testing.T) {
	home := t.TempDir()
	mgr := newManager()
	source := filepath.Join(home, "dotfiles", ".vimrc")
	require.NoError(t, os.MkdirAll(filepath.Dir(source), 0755))
	require.NoError(t, os.WriteFile(source, []byte("set number"), 0644))

	dest := filepath.Join(home, ".vimrc")
	require.NoError(t, os.WriteFile(dest, []byte("handwritten"), 0644))

	require.NoError(t, mgr.SafeSymlink(source, dest))

	backup, err := os.ReadFile(dest + dotfiles.BackupPrefix + testTimestamp)
	require.NoError(t, err)
	assert.Equal(t, "handwritten", string(backup))
}

func TestContentMatches(t *testing.T) {
	home := t.TempDir()
	mgr := newManager()
	path := filepath.Join(home, ".gitconfig")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0644))

	assert.True(t, mgr.ContentMatches("content", path))
	assert.False(t, mgr.ContentMatches("other", path))
	assert.False(t, mgr.ContentMatches("content", filepath.Join(home, "missing")))
}

func TestLinkMatches(t *testing.T) {
	home := t.TempDir()
	mgr := newManager()
	source := filepath.Join(home, "source")
	other := filepath.Join(home, "other")
	require.NoError(t, os.WriteFile(source, []byte("a"), 0644))
	require.NoError(t, os.WriteFile(other, []byte("b"), 0644))

	link := filepath.Join(home, ".zshrc")
	require.NoError(t, os.Symlink(source, link))

	assert.True(t, mgr.LinkMatches(source, link))
	assert.False(t, mgr.LinkMatches(other, link))
	assert.False(t, mgr.LinkMatches(source, other), "a regular file never matches")
	assert.False(t, mgr.LinkMatches(source, filepath.Join(home, "missing")))
}

func TestIdempotentReapply(t *testing.T) {
	// The caller contract: probe first, mutate only on mismatch. After
	// one apply, both probes report a match and a second run performs
	// zero mutations and creates zero backups.
	home := t.TempDir()
	mgr := newManager()

	source := filepath.Join(home, "dotfiles", ".zshrc")
	require.NoError(t, os.MkdirAll(filepath.Dir(source), 0755))
	require.NoError(t, os.WriteFile(source, []byte("export EDITOR=vim"), 0644))

	fileDest := filepath.Join(home, ".gitconfig")
	linkDest := filepath.Join(home, ".zshrc")
	require.NoError(t, mgr.SafeWrite("identity", fileDest))
	require.NoError(t, mgr.SafeSymlink(source, linkDest))

	assert.True(t, mgr.ContentMatches("identity", fileDest))
	assert.True(t, mgr.LinkMatches(source, linkDest))

	matches, err := filepath.Glob(filepath.Join(home, "*"+dotfiles.BackupPrefix+"*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
