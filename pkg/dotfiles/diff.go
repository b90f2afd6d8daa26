package dotfiles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pmezard/go-difflib/difflib"
)

var (
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// RenderDiff produces a unified diff between the existing and proposed
// content of path, for operator display before an overwrite. Lines are
// colored when color is true.
func RenderDiff(existing, proposed, path string, color bool) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(existing),
		B:        difflib.SplitLines(proposed),
		FromFile: path,
		ToFile:   path + " (new)",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", err
	}
	if !color || text == "" {
		return text, nil
	}
	return colorizeDiff(text), nil
}

func colorizeDiff(text string) string {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "@@"):
			lines[i] = hunkStyle.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = addedStyle.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = removedStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
