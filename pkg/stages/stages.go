// Package stages declares the concrete installation stages and registers
// them, in their fixed execution order, with a stage registry built by
// the orchestrator.
package stages

import (
	"context"
	"net/mail"
	"os"
	"os/exec"
	"path/filepath"

	"dotfiles-installer/pkg/errors"
	"dotfiles-installer/pkg/filesystem"
	"dotfiles-installer/pkg/logging"
	"dotfiles-installer/pkg/stage"
	"dotfiles-installer/pkg/tools"
	"dotfiles-installer/pkg/ui"
)

// Deps are the collaborators stage bodies work through.
type Deps struct {
	FS       filesystem.FS
	Prompter *ui.Prompter
}

// RegisterAll declares every stage, in execution order, on the registry.
func RegisterAll(reg *stage.Registry, deps Deps) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return errors.Wrap(err, errors.ErrUserLookup, "resolving home directory")
	}

	declarations := []*stage.Stage{
		sshKeyStage(deps, home),
		gitconfigStage(deps),
		linkDotfilesStage(deps),
		ohMyZshStage(home),
		nvmStage(home),
		pyenvStage(home),
		fzfStage(home),
		codeExtensionsStage(),
		codeSettingsStage(deps),
	}
	for _, s := range declarations {
		if err := reg.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// runCommand executes an external command, streaming its output through
// the indented console so it nests under the running stage.
func runCommand(ctx context.Context, name string, args ...string) error {
	logging.LogCommand(name, args)
	cmd := exec.CommandContext(ctx, name, args...)
	out := logging.ConsoleOut()
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, errors.ErrCommandFailed, "running %s", name)
	}
	return nil
}

// commandOutput executes an external command and returns its stdout.
func commandOutput(ctx context.Context, name string, args ...string) (string, error) {
	logging.LogCommand(name, args)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = logging.ConsoleOut()
	out, err := cmd.Output()
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrCommandFailed, "running %s", name)
	}
	return string(out), nil
}

// runRemoteScript downloads an installer script with curl and executes
// it with sh. Both binaries resolve only against trusted system paths.
// There is no timeout; a hung download blocks the run until interrupted.
func runRemoteScript(ctx context.Context, url string, env ...string) error {
	curlPath, err := tools.Curl.Path()
	if err != nil {
		return err
	}
	shPath, err := tools.Sh.Path()
	if err != nil {
		return err
	}

	script, err := os.CreateTemp("", "dotfiles-installer-*.sh")
	if err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "creating temp script")
	}
	scriptPath := script.Name()
	_ = script.Close()
	defer func() { _ = os.Remove(scriptPath) }()

	if err := runCommand(ctx, curlPath, "-fsSL", "-o", scriptPath, url); err != nil {
		return err
	}

	logging.LogCommand(shPath, []string{scriptPath})
	cmd := exec.CommandContext(ctx, shPath, scriptPath)
	cmd.Env = append(os.Environ(), env...)
	out := logging.ConsoleOut()
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, errors.ErrCommandFailed, "running installer from %s", url)
	}
	return nil
}

// promptEmail asks for an email address, validated as one.
func promptEmail(p *ui.Prompter) (string, error) {
	return p.Prompt("Email address:", "", func(s string) error {
		_, err := mail.ParseAddress(s)
		return err
	})
}

// pathExists is the probe predicates use; it does not follow symlinks.
func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func pathMissing(path string) stage.Predicate {
	return func() bool { return !pathExists(path) }
}

func homePath(home string, parts ...string) string {
	return filepath.Join(append([]string{home}, parts...)...)
}
