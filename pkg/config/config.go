// Package config builds the immutable per-run configuration from the OS
// user database, CLI flags, and an optional TOML defaults file.
package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"

	"dotfiles-installer/pkg/errors"
)

// Platform identifies the operating system family a run targets.
type Platform string

const (
	PlatformLinux  Platform = "linux"
	PlatformDarwin Platform = "darwin"
	PlatformOther  Platform = "other"
)

// TimestampLayout is the format of the run timestamp used to namespace
// backups. All backups of one invocation share this suffix.
const TimestampLayout = "2006-01-02_15-04-05"

// Run is the configuration for one installer invocation. It is immutable
// after construction; derived values are produced with WithEmail.
type Run struct {
	Username    string
	FullName    string
	Email       string
	Platform    Platform
	Timestamp   string
	ConfirmAll  bool
	DotfilesDir string
	HomeDir     string

	// SkippedStages and OnlyStages hold stage flag names collected from
	// the CLI. When OnlyStages is non-empty, execution is restricted to
	// the listed stages.
	SkippedStages []string
	OnlyStages    []string
}

// fileDefaults is the schema of the optional defaults file at
// $XDG_CONFIG_HOME/dotfiles-installer/config.toml.
type fileDefaults struct {
	Email       string `toml:"email"`
	DotfilesDir string `toml:"dotfiles_dir"`
}

// FromEnv builds a Run from the OS environment and the given flag
// values. It never prompts; stages that need a missing email prompt
// lazily and work on a WithEmail copy.
func FromEnv(email string, skipped, only []string, confirmAll bool) (Run, error) {
	if len(skipped) > 0 && len(only) > 0 {
		return Run{}, errors.New(errors.ErrConfigInvalid, "cannot set skip and only flags in parallel")
	}

	current, err := user.Current()
	if err != nil {
		return Run{}, errors.Wrap(err, errors.ErrUserLookup, "resolving current user")
	}
	// The GECOS field may carry office and phone entries after the
	// display name.
	fullName := strings.SplitN(current.Name, ",", 2)[0]

	home, err := os.UserHomeDir()
	if err != nil {
		return Run{}, errors.Wrap(err, errors.ErrUserLookup, "resolving home directory")
	}

	defaults, err := loadDefaults()
	if err != nil {
		return Run{}, err
	}
	if email == "" {
		email = defaults.Email
	}
	dotfilesDir := defaults.DotfilesDir
	if dotfilesDir == "" {
		dotfilesDir = filepath.Join(home, "dotfiles")
	}
	dotfilesDir = expandHome(dotfilesDir, home)

	return Run{
		Username:    current.Username,
		FullName:    fullName,
		Email:       email,
		Platform:    CurrentPlatform(),
		Timestamp:   time.Now().Format(TimestampLayout),
		ConfirmAll:  confirmAll,
		DotfilesDir:   dotfilesDir,
		HomeDir:       home,
		SkippedStages: skipped,
		OnlyStages:    only,
	}, nil
}

// WithEmail returns a copy of the Run with the email field set.
func (r Run) WithEmail(email string) Run {
	r.Email = email
	return r
}

// Skips reports whether the stage with the given flag name was excluded
// with --no-<flag>.
func (r Run) Skips(flagName string) bool {
	return contains(r.SkippedStages, flagName)
}

// Selected reports whether the stage with the given flag name survives
// the --only restriction. An empty only-set selects everything.
func (r Run) Selected(flagName string) bool {
	if len(r.OnlyStages) == 0 {
		return true
	}
	return contains(r.OnlyStages, flagName)
}

// DefaultsPath returns the location of the optional defaults file.
func DefaultsPath() string {
	return filepath.Join(xdg.ConfigHome, "dotfiles-installer", "config.toml")
}

func loadDefaults() (fileDefaults, error) {
	var defaults fileDefaults
	data, err := os.ReadFile(DefaultsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return defaults, errors.Wrap(err, errors.ErrConfigLoad, "reading defaults file")
	}
	if err := toml.Unmarshal(data, &defaults); err != nil {
		return defaults, errors.Wrap(err, errors.ErrConfigLoad, "parsing defaults file")
	}
	return defaults, nil
}

// CurrentPlatform maps runtime.GOOS onto the Platform enum.
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case "linux":
		return PlatformLinux
	case "darwin":
		return PlatformDarwin
	default:
		return PlatformOther
	}
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
