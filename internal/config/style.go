package config

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	alterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F080")) // yellow

	containerStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#CCCCCC"))
)

// ValidationError lists the config fields that failed validation
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	fields := lo.Map(e.Errors, func(fe validator.FieldError, _ int) string {
		return fmt.Sprintf("%s: %q is invalid", fieldPath(fe), fmt.Sprint(fe.Value()))
	})
	return "validation error: " + strings.Join(fields, ", ")
}

// Render formats the error for a terminal
func (e *ValidationError) Render() string {
	header := errorStyle.Render("Error: ") + "invalid config"
	var messages []string
	for _, fe := range e.Errors {
		messages = append(messages,
			fmt.Sprintf("%s: %q", alterStyle.Render(fieldPath(fe)), fmt.Sprint(fe.Value())),
			infoStyle.Render(hint(fe)),
		)
	}
	messages = filterEmptyStyledStrings(messages)
	return containerStyle.Render(fmt.Sprintf("%s\n%s",
		header,
		lipgloss.JoinVertical(lipgloss.Left, messages...),
	))
}

// fieldPath drops the root struct name: "Config.core.trash.strategy"
// becomes "core.trash.strategy"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func hint(fe validator.FieldError) string {
	switch fe.Tag() {
	case "validStrategy":
		return "  must be one of: auto, xdg, dir"
	case "validSize":
		return "  must be a size such as 10MB or 1GB"
	case "validDuration":
		return "  must be a duration such as 7d or 3 days"
	case "oneof":
		return "  must be one of: " + fe.Param()
	case "min":
		return "  must be at least " + fe.Param()
	case "required", "required_if":
		return "  is required"
	}
	return ""
}

func isStyleRenderEffectivelyEmpty(styledStr string) bool {
	ansiEscapeRegex := regexp.MustCompile(`\x1b\[[0-9;]*m`)

	cleanStr := ansiEscapeRegex.ReplaceAllString(styledStr, "")

	cleanStr = strings.TrimFunc(cleanStr, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})

	return cleanStr == ""
}

func filterEmptyStyledStrings(styledStrings []string) []string {
	return lo.Filter(styledStrings, func(str string, _ int) bool {
		return !isStyleRenderEffectivelyEmpty(str)
	})
}
