package stages

import (
	"context"
	_ "embed"
	"os"
	"strings"
	"text/template"

	"dotfiles-installer/pkg/config"
	"dotfiles-installer/pkg/dotfiles"
	"dotfiles-installer/pkg/errors"
	"dotfiles-installer/pkg/logging"
	"dotfiles-installer/pkg/stage"
	"dotfiles-installer/pkg/ui"
)

//go:embed templates/gitconfig.tmpl
var gitconfigTemplate string

// gitconfigData fills the gitconfig template placeholders.
type gitconfigData struct {
	FullName   string
	Email      string
	SigningKey string
}

// renderGitconfig produces the intended ~/.gitconfig content.
func renderGitconfig(data gitconfigData) (string, error) {
	tmpl, err := template.New("gitconfig").Parse(gitconfigTemplate)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "parsing gitconfig template")
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "rendering gitconfig template")
	}
	return buf.String(), nil
}

// gitconfigStage writes the primary git identity file. Continuing a run
// with a broken identity file is worse than stopping, so a failure here
// aborts the whole installation.
func gitconfigStage(deps Deps) *stage.Stage {
	return &stage.Stage{
		Name:         "Write .gitconfig",
		AbortOnError: true,
		Run: func(ctx context.Context, cfg config.Run) error {
			if cfg.Email == "" {
				email, err := promptEmail(deps.Prompter)
				if err != nil {
					return err
				}
				cfg = cfg.WithEmail(email)
			}

			content, err := renderGitconfig(gitconfigData{
				FullName:   cfg.FullName,
				Email:      cfg.Email,
				SigningKey: homePath(cfg.HomeDir, ".ssh", sshKeyName+".pub"),
			})
			if err != nil {
				return err
			}

			mgr := dotfiles.NewManager(deps.FS, cfg.Timestamp)
			dest := homePath(cfg.HomeDir, ".gitconfig")
			log := logging.GetLogger("gitconfig")
			if mgr.ContentMatches(content, dest) {
				log.Info().Str("path", dest).Msg("Already up-to-date")
				return nil
			}

			if existing, err := deps.FS.ReadFile(dest); err == nil {
				diff, err := dotfiles.RenderDiff(string(existing), content, dest, ui.SupportsColor(os.Stdout))
				if err == nil && diff != "" {
					_, _ = logging.ConsoleOut().Write([]byte(diff))
				}
			}

			return mgr.SafeWrite(content, dest)
		},
	}
}
