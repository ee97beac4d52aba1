package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Palette, keyed by what the color marks rather than its hue.
var (
	colorHeading  = lipgloss.AdaptiveColor{Light: "#af3a03", Dark: "#fe8019"}
	colorCategory = lipgloss.AdaptiveColor{Light: "#8f3f71", Dark: "#d3869b"}
	colorProcess  = lipgloss.AdaptiveColor{Light: "#427b58", Dark: "#8ec07c"}
	colorAccent   = lipgloss.AdaptiveColor{Light: "#b57614", Dark: "#fabd2f"}
	colorTag      = lipgloss.AdaptiveColor{Light: "#076678", Dark: "#83a598"}
	colorText     = lipgloss.AdaptiveColor{Light: "#3c3836", Dark: "#ebdbb2"}
	colorMuted    = lipgloss.AdaptiveColor{Light: "#7c6f64", Dark: "#928374"}
)

var (
	StyleHeading  = lipgloss.NewStyle().Foreground(colorHeading).Bold(true)
	StyleCategory = lipgloss.NewStyle().Foreground(colorCategory)
	StyleProcess  = lipgloss.NewStyle().Foreground(colorProcess)
	StyleAccent   = lipgloss.NewStyle().Foreground(colorAccent)
	StyleTag      = lipgloss.NewStyle().Foreground(colorTag)
	StyleText     = lipgloss.NewStyle().Foreground(colorText)
	StyleMuted    = lipgloss.NewStyle().Foreground(colorMuted)
	styleBold     = StyleText.Bold(true)
)

// Header renders an upper-cased section title over a rule of the same width.
func Header(text string) string {
	title := strings.ToUpper(text)
	return fmt.Sprintf("%s\n%s", StyleHeading.Render(title), Dim(strings.Repeat("─", lipgloss.Width(title))))
}

func Dim(text string) string  { return StyleMuted.Render(text) }
func Bold(text string) string { return styleBold.Render(text) }

// KindBadge labels a search hit by entity type.
func KindBadge(t domain.ResultType) string {
	switch t {
	case domain.ResultProcess:
		return StyleProcess.Render("process")
	case domain.ResultCategory:
		return StyleCategory.Render("category")
	}
	return Dim(string(t))
}

// ScoreStyle picks the style for a relevance score. Title-level hits are
// highlighted and anything below a description hit is muted.
func ScoreStyle(score int) lipgloss.Style {
	if score >= domain.ScoreProcessTitle {
		return StyleAccent
	}
	if score >= domain.ScoreProcessDescription {
		return StyleText
	}
	return StyleMuted
}
