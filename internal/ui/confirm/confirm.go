// Package confirm asks y/N questions before destructive commands.
package confirm

import (
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the styles used for rendering
type Styles struct {
	PromptPrefix lipgloss.Style
	Prompt       lipgloss.Style
	Placeholder  lipgloss.Style
	Answer       lipgloss.Style
}

// KeyMap defines the keys answering a prompt
type KeyMap struct {
	Accept key.Binding
	Deny   key.Binding
	Enter  key.Binding
	Cancel key.Binding
}

var DefaultKeyMap = KeyMap{
	Accept: key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
	Deny:   key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n", "no")),
	Enter:  key.NewBinding(key.WithKeys(tea.KeyEnter.String())),
	Cancel: key.NewBinding(key.WithKeys(tea.KeyCtrlC.String(), tea.KeyEsc.String(), "q")),
}

// Model answers on a single key press: y or n, enter for the default
type Model struct {
	PromptPrefix string
	Prompt       string

	// DefaultValue is chosen on enter
	DefaultValue Decision

	KeyMap KeyMap
	Styles Styles

	selected Decision
	done     bool
}

func New(prompt string) Model {
	return Model{
		PromptPrefix: "? ",
		Prompt:       prompt,
		DefaultValue: Denied,
		KeyMap:       DefaultKeyMap,
		Styles: Styles{
			PromptPrefix: lipgloss.NewStyle().Foreground(lipgloss.Color("#7571F9")),
			Prompt:       lipgloss.NewStyle().Bold(true),
			Placeholder:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
			Answer:       lipgloss.NewStyle().Foreground(lipgloss.Color("#00ADD8")),
		},
	}
}

func (m *Model) Selected() Decision {
	return m.selected
}

func (m *Model) Init() tea.Cmd {
	m.selected = Undecided
	m.done = false
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.KeyMap.Accept):
		return m.decide(Accepted)
	case key.Matches(keyMsg, m.KeyMap.Deny), key.Matches(keyMsg, m.KeyMap.Cancel):
		return m.decide(Denied)
	case key.Matches(keyMsg, m.KeyMap.Enter):
		return m.decide(m.DefaultValue)
	}
	return m, nil
}

func (m *Model) decide(d Decision) (tea.Model, tea.Cmd) {
	m.selected = d
	m.done = true
	return m, tea.Quit
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.Styles.PromptPrefix.Inline(true).Render(m.PromptPrefix))
	b.WriteString(m.Styles.Prompt.Inline(true).Render(m.Prompt))
	b.WriteString(" ")

	if m.done {
		answer := "no"
		if m.selected.IsAccepted() {
			answer = "yes"
		}
		b.WriteString(m.Styles.Answer.Render(answer))
		b.WriteRune('\n')
		return b.String()
	}

	hint := "y/N"
	if m.DefaultValue == Accepted {
		hint = "Y/n"
	}
	b.WriteString(m.Styles.Placeholder.Render(hint))
	return b.String()
}

// Ask runs the prompt on the terminal and reports whether it was accepted.
// Any failure to run the prompt counts as a denial.
func Ask(prompt string, opts ...tea.ProgramOption) bool {
	m := New(prompt)
	return run(&m, func() Decision { return m.Selected() }, opts...)
}

// AskYes is Ask for prompts that must be answered by typing YES
func AskYes(prompt string, opts ...tea.ProgramOption) bool {
	m := NewYes(prompt)
	return run(&m, func() Decision { return m.Selected() }, opts...)
}

func run(m tea.Model, selected func() Decision, opts ...tea.ProgramOption) bool {
	p := tea.NewProgram(m, opts...)
	if _, err := p.Run(); err != nil {
		slog.Error("confirm failed", "error", err)
		return false
	}
	return selected().IsAccepted()
}

// WithIO runs the prompt over the given streams instead of the terminal
func WithIO(in io.Reader, out io.Writer) []tea.ProgramOption {
	return []tea.ProgramOption{tea.WithInput(in), tea.WithOutput(out)}
}
