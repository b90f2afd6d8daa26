package stages

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"dotfiles-installer/pkg/config"
	"dotfiles-installer/pkg/errors"
	"dotfiles-installer/pkg/logging"
	"dotfiles-installer/pkg/stage"
	"dotfiles-installer/pkg/tools"
)

// extensionManifestName is the required-extensions manifest inside the
// dotfiles source directory.
const extensionManifestName = "vscode/extensions.yaml"

// extensionNamePattern matches marketplace identifiers of the form
// publisher.extension.
var extensionNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*\.[A-Za-z0-9][A-Za-z0-9-._]*$`)

// extensionManifest is the schema of the required-extensions file.
type extensionManifest struct {
	Extensions []string `yaml:"extensions"`
}

// ValidateExtensionName rejects identifiers that are not of the
// publisher.extension form. Invalid entries surface immediately instead
// of being silently filtered.
func ValidateExtensionName(name string) error {
	if !extensionNamePattern.MatchString(name) {
		return errors.Newf(errors.ErrInvalidInput, "invalid extension name %q, expected publisher.extension", name)
	}
	return nil
}

// ReadExtensionManifest loads and validates the required-extensions
// manifest.
func ReadExtensionManifest(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileNotFound, "reading extension manifest %s", path)
	}
	var manifest extensionManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "parsing extension manifest %s", path)
	}
	for _, name := range manifest.Extensions {
		if err := ValidateExtensionName(name); err != nil {
			return nil, err
		}
	}
	return manifest.Extensions, nil
}

// MissingExtensions returns the required extensions not yet installed.
// Marketplace identifiers are compared case-insensitively; order follows
// the manifest.
func MissingExtensions(required, installed []string) []string {
	have := make(map[string]struct{}, len(installed))
	for _, name := range installed {
		have[strings.ToLower(name)] = struct{}{}
	}
	var missing []string
	for _, name := range required {
		if _, ok := have[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func codeExtensionsStage() *stage.Stage {
	return &stage.Stage{
		Name:      "Install code extensions",
		Predicate: tools.Code.Available,
		Run: func(ctx context.Context, cfg config.Run) error {
			required, err := ReadExtensionManifest(filepath.Join(cfg.DotfilesDir, extensionManifestName))
			if err != nil {
				return err
			}

			codePath, err := tools.Code.Path()
			if err != nil {
				return err
			}
			out, err := commandOutput(ctx, codePath, "--list-extensions")
			if err != nil {
				return err
			}
			installed := strings.Fields(out)

			missing := MissingExtensions(required, installed)
			log := logging.GetLogger("install-code-extensions")
			if len(missing) == 0 {
				log.Info().Msg("All required extensions already installed")
				return nil
			}
			for _, name := range missing {
				log.Info().Str("extension", name).Msg("Install extension")
				if err := runCommand(ctx, codePath, "--install-extension", name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
