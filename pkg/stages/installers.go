package stages

import (
	"context"

	"dotfiles-installer/pkg/config"
	"dotfiles-installer/pkg/stage"
	"dotfiles-installer/pkg/tools"
)

// Installer script locations. All are fetched with a trusted-path curl
// and executed with a trusted-path sh.
const (
	ohMyZshInstallerURL = "https://raw.githubusercontent.com/ohmyzsh/ohmyzsh/master/tools/install.sh"
	nvmInstallerURL     = "https://raw.githubusercontent.com/nvm-sh/nvm/v0.40.1/install.sh"
	pyenvInstallerURL   = "https://raw.githubusercontent.com/pyenv/pyenv-installer/master/bin/pyenv-installer"
	fzfRepoURL          = "https://github.com/junegunn/fzf.git"
)

func ohMyZshStage(home string) *stage.Stage {
	return &stage.Stage{
		Name:      "Install oh-my-zsh",
		Confirm:   true,
		Predicate: pathMissing(homePath(home, ".oh-my-zsh")),
		Run: func(ctx context.Context, cfg config.Run) error {
			// RUNZSH/CHSH keep the installer from dropping into an
			// interactive shell mid-run.
			return runRemoteScript(ctx, ohMyZshInstallerURL, "RUNZSH=no", "CHSH=no")
		},
	}
}

func nvmStage(home string) *stage.Stage {
	return &stage.Stage{
		Name:      "Install nvm",
		Confirm:   true,
		Predicate: pathMissing(homePath(home, ".nvm")),
		Run: func(ctx context.Context, cfg config.Run) error {
			return runRemoteScript(ctx, nvmInstallerURL, "PROFILE=/dev/null")
		},
	}
}

func pyenvStage(home string) *stage.Stage {
	return &stage.Stage{
		Name:      "Install pyenv",
		Confirm:   true,
		Predicate: pathMissing(homePath(home, ".pyenv")),
		Run: func(ctx context.Context, cfg config.Run) error {
			return runRemoteScript(ctx, pyenvInstallerURL)
		},
	}
}

func fzfStage(home string) *stage.Stage {
	target := homePath(home, ".fzf")
	return &stage.Stage{
		Name:      "Install fzf",
		Predicate: pathMissing(target),
		Run: func(ctx context.Context, cfg config.Run) error {
			gitPath, err := tools.Git.Path()
			if err != nil {
				return err
			}
			if err := runCommand(ctx, gitPath, "clone", "--depth", "1", fzfRepoURL, target); err != nil {
				return err
			}
			return runCommand(ctx, homePath(home, ".fzf", "install"),
				"--key-bindings", "--completion", "--no-update-rc")
		},
	}
}
