// Package ui holds the interactive terminal surface of the installer:
// confirmation prompts, validated input prompts, and color capability
// detection.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pterm/pterm"

	"dotfiles-installer/pkg/errors"
)

// maxAttempts bounds the re-prompt loop on invalid input.
const maxAttempts = 5

// SupportsColor reports whether output to f can carry ANSI colors.
func SupportsColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	return termenv.NewOutput(f).ColorProfile() != termenv.Ascii
}

// Bold returns the string formatted as bold using pterm, when stdout is a
// terminal.
func Bold(s string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return s
	}
	return pterm.Bold.Sprint(s)
}

// Prompter reads operator answers from In and writes questions to Out.
// The zero value is not usable; construct with NewPrompter.
type Prompter struct {
	out     io.Writer
	scanner *bufio.Scanner
}

// NewPrompter creates a Prompter reading from in and writing to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		out:     out,
		scanner: bufio.NewScanner(in),
	}
}

// Default returns a Prompter attached to the process terminal.
func Default() *Prompter {
	return NewPrompter(os.Stdin, os.Stdout)
}

// Confirm asks a yes/no question. An empty answer selects the default.
// After too many unparseable answers it gives up with PROMPT_ABORTED
// rather than looping forever.
func (p *Prompter) Confirm(question string, defaultYes bool) (bool, error) {
	options := "(y/N)"
	if defaultYes {
		options = "(Y/n)"
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := p.ask(fmt.Sprintf("%s %s", Bold(question), options))
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(resp)) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintf(p.out, "Invalid input: %q\n", resp)
		}
	}
	return false, errors.New(errors.ErrPromptAborted, "too many invalid answers")
}

// Prompt asks for a free-form value. An empty answer selects the default
// without validation or confirmation. Non-default answers are validated
// and then confirmed; a declined confirmation re-prompts.
func (p *Prompter) Prompt(question, defaultValue string, validator func(string) error) (string, error) {
	display := question
	if defaultValue != "" {
		display = fmt.Sprintf("%s (%s)", question, defaultValue)
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := p.ask(Bold(display))
		if err != nil {
			return "", err
		}
		resp = strings.TrimSpace(resp)
		if resp == "" && defaultValue != "" {
			return defaultValue, nil
		}

		if validator != nil {
			if err := validator(resp); err != nil {
				fmt.Fprintf(p.out, "Invalid input: %q (%v)\n", resp, err)
				continue
			}
		}

		ok, err := p.Confirm(fmt.Sprintf("Confirm %q?", resp), true)
		if err != nil {
			return "", err
		}
		if ok {
			return resp, nil
		}
	}
	return "", errors.New(errors.ErrPromptAborted, "too many invalid answers")
}

func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprintf(p.out, "%s ", question)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", errors.Wrap(err, errors.ErrPromptAborted, "reading answer")
		}
		return "", errors.New(errors.ErrPromptAborted, "input closed")
	}
	return p.scanner.Text(), nil
}
