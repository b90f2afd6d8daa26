package stage

import (
	"context"

	"github.com/spf13/pflag"

	"dotfiles-installer/pkg/config"
	"dotfiles-installer/pkg/errors"
	"dotfiles-installer/pkg/logging"
)

// Registry holds the declared stages in declaration order. It is built
// once during orchestrator setup and passed to both flag generation and
// the execution loop.
type Registry struct {
	stages   []*Stage
	byFlag   map[string]*Stage
	noFlags  map[string]*bool
	onlyFlag map[string]*bool
	platform config.Platform
}

// NewRegistry creates an empty registry for the current platform.
func NewRegistry() *Registry {
	return NewRegistryFor(config.CurrentPlatform())
}

// NewRegistryFor creates an empty registry for an explicit platform.
// Tests use it to exercise platform gating.
func NewRegistryFor(platform config.Platform) *Registry {
	return &Registry{
		byFlag:   make(map[string]*Stage),
		noFlags:  make(map[string]*bool),
		onlyFlag: make(map[string]*bool),
		platform: platform,
	}
}

// Register adds a stage. Stages whose Platforms exclude the registry's
// platform are dropped without error; a flag-name collision is an error.
func (r *Registry) Register(s *Stage) error {
	log := logging.GetLogger("stage")
	if !r.supported(s) {
		log.Debug().Str("stage", s.Name).Msg("Stage not supported on this platform")
		return nil
	}
	flagName := s.FlagName()
	if _, exists := r.byFlag[flagName]; exists {
		return errors.Newf(errors.ErrDuplicateStage, "stage flag %q already registered", flagName)
	}
	log.Debug().Str("stage", s.Name).Msg("Register stage")
	r.byFlag[flagName] = s
	r.stages = append(r.stages, s)
	return nil
}

// Stages returns the registered stages in declaration order.
func (r *Registry) Stages() []*Stage {
	return r.stages
}

// Lookup returns the stage registered under the given flag name.
func (r *Registry) Lookup(flagName string) (*Stage, bool) {
	s, ok := r.byFlag[flagName]
	return s, ok
}

// AddFlags generates the per-stage --no-<flag> and --only-<flag> CLI
// flags on the given flag set.
func (r *Registry) AddFlags(flags *pflag.FlagSet) {
	for _, s := range r.stages {
		flagName := s.FlagName()
		r.noFlags[flagName] = flags.Bool("no-"+flagName, false, "Skip the '"+s.Name+"' stage")
		r.onlyFlag[flagName] = flags.Bool("only-"+flagName, false, "Restrict the run to the '"+s.Name+"' stage (repeatable across stages)")
	}
}

// Selection reads the generated flags back after parsing and returns
// the skipped and only stage-name sets for config.FromEnv.
func (r *Registry) Selection() (skipped, only []string) {
	for _, s := range r.stages {
		flagName := s.FlagName()
		if v := r.noFlags[flagName]; v != nil && *v {
			skipped = append(skipped, flagName)
		}
		if v := r.onlyFlag[flagName]; v != nil && *v {
			only = append(only, flagName)
		}
	}
	return skipped, only
}

// RunAll executes the registered stages in declaration order. It stops
// early only on context cancellation or an AbortOnError stage failure;
// other stage failures have already been logged and isolated.
func (r *Registry) RunAll(ctx context.Context, cfg config.Run, confirmer Confirmer) error {
	for _, s := range r.stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Execute(ctx, cfg, confirmer); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) supported(s *Stage) bool {
	if len(s.Platforms) == 0 {
		return true
	}
	for _, p := range s.Platforms {
		if p == r.platform {
			return true
		}
	}
	return false
}
