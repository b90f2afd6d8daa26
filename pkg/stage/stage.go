// Package stage turns independent setup steps into named, individually
// skippable and selectable units with consistent confirmation, logging,
// and error-isolation semantics. Stages live in an explicit Registry
// constructed by the orchestrator; there is no ambient global state.
package stage

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"dotfiles-installer/pkg/config"
	"dotfiles-installer/pkg/errors"
	"dotfiles-installer/pkg/logging"
)

// Status records what happened to a stage during a run.
type Status int

const (
	StatusNotExecuted Status = iota
	StatusSuccess
	StatusFailure
	StatusSkipped
)

// String returns the human-readable status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusSkipped:
		return "skipped"
	default:
		return "not executed"
	}
}

// Func is a stage body. Bodies return an error on any failure condition
// and never swallow errors themselves; isolation and reporting happen at
// the stage boundary.
type Func func(ctx context.Context, cfg config.Run) error

// Predicate reports whether a stage's effect is still needed. A nil
// predicate means the stage is always needed.
type Predicate func() bool

// Confirmer asks the operator a yes/no question. ui.Prompter satisfies
// it.
type Confirmer interface {
	Confirm(question string, defaultYes bool) (bool, error)
}

// Stage is a named unit of the installation sequence.
type Stage struct {
	// Name is the human-readable stage name. The CLI flag name is
	// derived from it.
	Name string
	// Run is the stage body.
	Run Func
	// Confirm makes the stage prompt the operator before running,
	// unless the run was started with confirm-all.
	Confirm bool
	// Predicate, when set, gates the stage on whether it is still
	// needed.
	Predicate Predicate
	// AbortOnError makes a failure of this stage stop the whole run.
	AbortOnError bool
	// Platforms restricts the stage to the listed platforms. Empty
	// means all platforms. Unsupported stages are not registered, so
	// no CLI flags are generated for them.
	Platforms []config.Platform

	flagName string
	status   Status
	log      zerolog.Logger
}

// FlagName derives the CLI flag name from a stage name: lowercased,
// spaces replaced with dashes, dots removed.
func FlagName(name string) string {
	flag := strings.ToLower(name)
	flag = strings.ReplaceAll(flag, " ", "-")
	flag = strings.ReplaceAll(flag, ".", "")
	return flag
}

// FlagName returns the stage's derived flag name.
func (s *Stage) FlagName() string {
	if s.flagName == "" {
		s.flagName = FlagName(s.Name)
	}
	return s.flagName
}

// Status returns what happened to the stage during this run.
func (s *Stage) Status() Status {
	return s.status
}

// Execute runs the stage through its gates, in order: the skip set, the
// only set, the predicate, and the interactive confirmation. Body errors
// are caught here: a non-fatal failure is logged and Execute returns
// nil so the orchestrator proceeds; an AbortOnError failure comes back
// as STAGE_ABORTED. Context cancellation is not treated as a stage
// failure and propagates to the orchestrator's interrupt handling.
func (s *Stage) Execute(ctx context.Context, cfg config.Run, confirmer Confirmer) error {
	flagName := s.FlagName()
	s.log = logging.GetLogger(flagName)

	if cfg.Skips(flagName) {
		s.log.Debug().Msgf("%s is skipped", s.Name)
		s.status = StatusSkipped
		return nil
	}
	if !cfg.Selected(flagName) {
		s.log.Debug().Msgf("%s is not selected, skip", s.Name)
		s.status = StatusSkipped
		return nil
	}
	if s.Predicate != nil && !s.Predicate() {
		s.log.Info().Msgf("%s is not required, skip", s.Name)
		s.status = StatusSkipped
		return nil
	}
	if s.Confirm && !cfg.ConfirmAll {
		ok, err := confirmer.Confirm(s.Name+"?", true)
		if err != nil {
			s.log.Warn().Err(err).Msgf("%s confirmation failed, skip", s.Name)
			s.status = StatusSkipped
			return nil
		}
		if !ok {
			s.log.Debug().Msgf("%s declined", s.Name)
			s.status = StatusSkipped
			return nil
		}
	}

	s.log.Info().Msgf("%s ...", s.Name)
	outdent := logging.Indent()
	err := s.Run(ctx, cfg)
	outdent()

	if err == nil {
		s.status = StatusSuccess
		s.log.Info().Msgf("%s - done", s.Name)
		return nil
	}

	s.status = StatusFailure
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.log.Error().Msgf("Error: %v", err)
	if s.AbortOnError {
		return errors.Wrapf(err, errors.ErrStageAborted, "stage %s failed", s.Name)
	}
	return nil
}
