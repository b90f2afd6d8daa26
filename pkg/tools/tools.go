// Package tools resolves the external executables the installer shells
// out to. Core tools that stages pipe untrusted downloads into (sh, curl,
// git) resolve only against well-known system directories, never $PATH.
package tools

import (
	"os"
	"os/exec"
	"path/filepath"

	"dotfiles-installer/pkg/errors"
)

// trustedDirs are the only directories searched for trusted tools.
var trustedDirs = []string{"/bin", "/usr/bin", "/usr/local/bin", "/opt/homebrew/bin"}

// Tool is a named external executable. Resolution happens fresh on every
// call; nothing is cached.
type Tool struct {
	// Name of the executable.
	Name string
	// FixedPath, when set, is the only location the tool may live at.
	FixedPath string
	// Trusted restricts resolution to trustedDirs instead of $PATH.
	Trusted bool
}

// Well-known tools used by the stages.
var (
	Curl      = Tool{Name: "curl", Trusted: true}
	Git       = Tool{Name: "git", Trusted: true}
	Sh        = Tool{Name: "sh", Trusted: true}
	Zsh       = Tool{Name: "zsh"}
	Code      = Tool{Name: "code"}
	SSHKeygen = Tool{Name: "ssh-keygen"}
)

// Required are the tools the orchestrator refuses to start without.
var Required = []Tool{Curl, Git, Sh, Zsh}

// Available reports whether the tool resolves, without returning an error.
func (t Tool) Available() bool {
	_, err := t.Path()
	return err == nil
}

// Path resolves the tool to an absolute executable path.
func (t Tool) Path() (string, error) {
	if t.FixedPath != "" {
		if isExecutable(t.FixedPath) {
			return t.FixedPath, nil
		}
		return "", errors.Newf(errors.ErrToolNotFound, "%s not found at %s", t.Name, t.FixedPath)
	}

	if t.Trusted {
		for _, dir := range trustedDirs {
			candidate := filepath.Join(dir, t.Name)
			if isExecutable(candidate) {
				return candidate, nil
			}
		}
		return "", errors.Newf(errors.ErrToolNotFound, "%s executable not found in trusted directories", t.Name)
	}

	path, err := exec.LookPath(t.Name)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrToolNotFound, "%s executable not found", t.Name)
	}
	return filepath.Abs(path)
}

// MissingRequired returns the required tools that are currently
// unavailable.
func MissingRequired() []Tool {
	var missing []Tool
	for _, tool := range Required {
		if !tool.Available() {
			missing = append(missing, tool)
		}
	}
	return missing
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0111 != 0
}
