package stages

import (
	"context"
	"path/filepath"

	"github.com/adrg/xdg"

	"dotfiles-installer/pkg/config"
	"dotfiles-installer/pkg/dotfiles"
	"dotfiles-installer/pkg/errors"
	"dotfiles-installer/pkg/logging"
	"dotfiles-installer/pkg/stage"
	"dotfiles-installer/pkg/tools"
)

// linkedDotfiles are symlinked from the dotfiles source directory into
// the home directory.
var linkedDotfiles = []string{
	".gitignore",
	".tmux.conf",
	".pythonstartup",
	".zshrc",
	".vimrc",
}

// darwinDotfiles are additionally linked on macOS.
var darwinDotfiles = []string{".zprofile"}

func linkDotfilesStage(deps Deps) *stage.Stage {
	return &stage.Stage{
		Name: "Link dotfiles",
		Run: func(ctx context.Context, cfg config.Run) error {
			names := linkedDotfiles
			if cfg.Platform == config.PlatformDarwin {
				names = append(append([]string{}, names...), darwinDotfiles...)
			}

			mgr := dotfiles.NewManager(deps.FS, cfg.Timestamp)
			log := logging.GetLogger("link-dotfiles")
			for _, name := range names {
				source := filepath.Join(cfg.DotfilesDir, name)
				dest := homePath(cfg.HomeDir, name)

				if !pathExists(source) {
					return errors.Newf(errors.ErrFileNotFound, "dotfile source %s does not exist", source)
				}
				if mgr.LinkMatches(source, dest) {
					log.Debug().Str("path", dest).Msg("Link already up-to-date")
					continue
				}
				if err := mgr.SafeSymlink(source, dest); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// codeSettingsDir returns the editor's user configuration directory for
// the platform.
func codeSettingsDir(platform config.Platform, home string) string {
	if platform == config.PlatformDarwin {
		return filepath.Join(home, "Library", "Application Support", "Code", "User")
	}
	return filepath.Join(xdg.ConfigHome, "Code", "User")
}

func codeSettingsStage(deps Deps) *stage.Stage {
	return &stage.Stage{
		Name:      "Link code settings",
		Predicate: tools.Code.Available,
		Run: func(ctx context.Context, cfg config.Run) error {
			source := filepath.Join(cfg.DotfilesDir, "vscode", "settings.json")
			if !pathExists(source) {
				return errors.Newf(errors.ErrFileNotFound, "editor settings source %s does not exist", source)
			}

			destDir := codeSettingsDir(cfg.Platform, cfg.HomeDir)
			if err := deps.FS.MkdirAll(destDir, 0755); err != nil {
				return errors.Wrapf(err, errors.ErrDirCreate, "creating %s", destDir)
			}

			mgr := dotfiles.NewManager(deps.FS, cfg.Timestamp)
			dest := filepath.Join(destDir, filepath.Base(source))
			if mgr.LinkMatches(source, dest) {
				log := logging.GetLogger("link-code-settings")
				log.Debug().Str("path", dest).Msg("Link already up-to-date")
				return nil
			}
			return mgr.SafeSymlink(source, destDir)
		},
	}
}
