package stages

import (
	"context"

	"dotfiles-installer/pkg/config"
	"dotfiles-installer/pkg/errors"
	"dotfiles-installer/pkg/stage"
	"dotfiles-installer/pkg/tools"
)

// sshKeyName is the keypair generated for the user.
const sshKeyName = "id_ed25519"

func sshKeyStage(deps Deps, home string) *stage.Stage {
	keyPath := homePath(home, ".ssh", sshKeyName)
	return &stage.Stage{
		Name:      "Create SSH key",
		Confirm:   true,
		Predicate: pathMissing(keyPath),
		Run: func(ctx context.Context, cfg config.Run) error {
			if cfg.Email == "" {
				email, err := promptEmail(deps.Prompter)
				if err != nil {
					return err
				}
				// Local copy only; the shared configuration stays
				// untouched for later stages.
				cfg = cfg.WithEmail(email)
			}

			if err := deps.FS.MkdirAll(homePath(cfg.HomeDir, ".ssh"), 0700); err != nil {
				return errors.Wrap(err, errors.ErrDirCreate, "creating ~/.ssh")
			}

			keygen, err := tools.SSHKeygen.Path()
			if err != nil {
				return err
			}
			return runCommand(ctx, keygen,
				"-t", "ed25519",
				"-f", homePath(cfg.HomeDir, ".ssh", sshKeyName),
				"-C", cfg.Email,
				"-N", "")
		},
	}
}
