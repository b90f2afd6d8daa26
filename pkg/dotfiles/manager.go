// Package dotfiles performs the installer's filesystem mutations: safe
// writes and safe symlinks with a backup-or-unlink safeguard, plus the
// probes callers use to keep re-runs free of mutations.
package dotfiles

import (
	"io/fs"
	"path/filepath"

	"github.com/rs/zerolog"

	"dotfiles-installer/pkg/errors"
	"dotfiles-installer/pkg/filesystem"
	"dotfiles-installer/pkg/logging"
)

// BackupPrefix is the marker inserted between a backed-up file's name and
// the run timestamp.
const BackupPrefix = ".pre-dotfiles-installer-"

// Manager mutates dotfiles in the user's home directory. It holds no
// state beyond the run timestamp used to namespace backups.
type Manager struct {
	fs        filesystem.FS
	timestamp string
	log       zerolog.Logger
}

// NewManager creates a Manager. All backups made through it share the
// given timestamp suffix.
func NewManager(fs filesystem.FS, timestamp string) *Manager {
	return &Manager{
		fs:        fs,
		timestamp: timestamp,
		log:       logging.GetLogger("dotfiles"),
	}
}

// BackupPath returns where path would be moved before being overwritten.
func (m *Manager) BackupPath(path string) string {
	return filepath.Join(filepath.Dir(path), filepath.Base(path)+BackupPrefix+m.timestamp)
}

// SafeWrite writes content to destination, moving an existing file or
// directory to its backup path first and removing an existing symlink.
// It writes unconditionally; callers check ContentMatches beforehand to
// keep re-runs mutation-free.
func (m *Manager) SafeWrite(content string, destination string) error {
	if err := m.cleanupPath(destination); err != nil {
		return err
	}
	m.log.Info().Str("path", destination).Msg("Write file")
	if err := m.fs.WriteFile(destination, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "writing %s", destination)
	}
	return nil
}

// SafeSymlink creates a symlink at destination pointing to source. When
// destination is an existing directory the link is created inside it
// under source's base name. An existing file or directory at the
// effective destination is backed up; an existing symlink is removed.
func (m *Manager) SafeSymlink(source, destination string) error {
	if info, err := m.fs.Stat(destination); err == nil && info.IsDir() {
		destination = filepath.Join(destination, filepath.Base(source))
	}

	if err := m.cleanupPath(destination); err != nil {
		return err
	}
	m.log.Info().Str("from", destination).Str("to", source).Msg("Create symlink")
	if err := m.fs.Symlink(source, destination); err != nil {
		return errors.Wrapf(err, errors.ErrSymlinkCreate, "linking %s to %s", destination, source)
	}
	return nil
}

// ContentMatches reports whether the file at path holds exactly content.
func (m *Manager) ContentMatches(content string, path string) bool {
	data, err := m.fs.ReadFile(path)
	if err != nil {
		return false
	}
	return string(data) == content
}

// LinkMatches reports whether path is a symlink resolving to source.
func (m *Manager) LinkMatches(source, path string) bool {
	info, err := m.fs.Lstat(path)
	if err != nil || info.Mode()&fs.ModeSymlink == 0 {
		return false
	}
	target, err := m.fs.Readlink(path)
	if err != nil {
		return false
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return filepath.Clean(target) == filepath.Clean(source)
}

// cleanupPath clears the way for a write or link at path. Symlinks are
// removed without backup; regular files and directories are renamed to
// the backup path.
func (m *Manager) cleanupPath(path string) error {
	info, err := m.fs.Lstat(path)
	if err != nil {
		return nil
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		target, _ := m.fs.Readlink(path)
		m.log.Info().Str("path", path).Str("target", target).Msg("Remove symlink")
		if err := m.fs.Remove(path); err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "removing symlink %s", path)
		}
		return nil
	}

	backup := m.BackupPath(path)
	m.log.Info().Str("path", path).Str("backup", backup).Msg("Move existing file to backup")
	if err := m.fs.Rename(path, backup); err != nil {
		return errors.Wrapf(err, errors.ErrFileBackup, "backing up %s", path)
	}
	return nil
}
