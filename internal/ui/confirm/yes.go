package confirm

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const yesText = "YES"

// YesModel only accepts "YES" typed in full. Characters out of sequence
// are dropped.
type YesModel struct {
	Model

	text         textinput.Model
	validStyle   lipgloss.Style
	invalidStyle lipgloss.Style
}

func NewYes(prompt string) YesModel {
	return YesModel{
		Model:        New(prompt),
		validStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff00")),
		invalidStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("#ff0000")),
	}
}

func isValidYesChar(s, current string) bool {
	if len(current) >= len(yesText) {
		return false
	}
	return s == string(yesText[len(current)])
}

func (y *YesModel) Init() tea.Cmd {
	y.selected = Undecided
	y.done = false

	input := textinput.New()
	input.Placeholder = yesText
	input.Prompt = ""
	input.PlaceholderStyle = y.Styles.Placeholder
	input.CharLimit = len(yesText)
	input.Focus()
	y.text = input
	return nil
}

func (y *YesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return y, nil
	}

	switch keyMsg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		y.selected = Denied
		y.done = true
		return y, tea.Quit
	case tea.KeyEnter:
		if y.text.Value() == yesText {
			y.selected = Accepted
		} else {
			y.selected = Denied
		}
		y.done = true
		return y, tea.Quit
	case tea.KeyBackspace:
		y.text, cmd = y.text.Update(keyMsg)
	default:
		if isValidYesChar(keyMsg.String(), y.text.Value()) {
			y.text, cmd = y.text.Update(keyMsg)
		}
	}
	return y, cmd
}

// Value is what has been typed so far
func (y *YesModel) Value() string {
	return y.text.Value()
}

func (y *YesModel) View() string {
	if y.done {
		return y.Model.View()
	}

	var b strings.Builder
	b.WriteString(y.Styles.PromptPrefix.Inline(true).Render(y.PromptPrefix))
	b.WriteString(y.Styles.Prompt.Inline(true).Render(y.Prompt))
	b.WriteString(" ")
	b.WriteString(y.text.View())
	b.WriteString(" ")
	if y.text.Value() == yesText {
		b.WriteString(y.validStyle.Render("✓"))
	} else {
		b.WriteString(y.invalidStyle.Render("✗"))
	}
	return b.String()
}
