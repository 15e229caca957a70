package confirm

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelUpdate(t *testing.T) {
	tests := []struct {
		name     string
		def      Decision
		msg      tea.Msg
		want     Decision
		wantQuit bool
	}{
		{name: "y accepts", def: Denied, msg: runes("y"), want: Accepted, wantQuit: true},
		{name: "Y accepts", def: Denied, msg: runes("Y"), want: Accepted, wantQuit: true},
		{name: "n denies", def: Accepted, msg: runes("n"), want: Denied, wantQuit: true},
		{name: "enter takes the default", def: Denied, msg: tea.KeyMsg{Type: tea.KeyEnter}, want: Denied, wantQuit: true},
		{name: "enter takes an accepting default", def: Accepted, msg: tea.KeyMsg{Type: tea.KeyEnter}, want: Accepted, wantQuit: true},
		{name: "esc denies", def: Accepted, msg: tea.KeyMsg{Type: tea.KeyEsc}, want: Denied, wantQuit: true},
		{name: "ctrl+c denies", def: Accepted, msg: tea.KeyMsg{Type: tea.KeyCtrlC}, want: Denied, wantQuit: true},
		{name: "other keys are ignored", def: Denied, msg: runes("x"), want: Undecided},
		{name: "non-key messages are ignored", def: Denied, msg: tea.WindowSizeMsg{Width: 80}, want: Undecided},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New("Delete 3 items?")
			m.DefaultValue = tt.def
			m.Init()

			_, cmd := m.Update(tt.msg)
			assert.Equal(t, tt.want, m.Selected())
			if tt.wantQuit {
				require.NotNil(t, cmd)
				assert.Equal(t, tea.QuitMsg{}, cmd())
			} else {
				assert.Nil(t, cmd)
			}
		})
	}
}

func TestModelView(t *testing.T) {
	m := New("Delete?")
	m.Init()
	assert.Contains(t, m.View(), "Delete?")
	assert.Contains(t, m.View(), "y/N")

	m.Update(runes("y"))
	assert.Contains(t, m.View(), "yes")
}

func TestYesModel(t *testing.T) {
	t.Run("typing YES accepts", func(t *testing.T) {
		m := NewYes("Remove orphans?")
		m.Init()
		for _, r := range "YES" {
			m.Update(runes(string(r)))
		}
		assert.Equal(t, "YES", m.Value())

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)
		assert.Equal(t, Accepted, m.Selected())
	})

	t.Run("out of sequence characters are dropped", func(t *testing.T) {
		m := NewYes("Remove orphans?")
		m.Init()
		m.Update(runes("y"))
		m.Update(runes("E"))
		assert.Empty(t, m.Value())

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.Equal(t, Denied, m.Selected())
	})

	t.Run("esc denies", func(t *testing.T) {
		m := NewYes("Remove orphans?")
		m.Init()
		m.Update(runes("Y"))
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		require.NotNil(t, cmd)
		assert.Equal(t, Denied, m.Selected())
	})
}

func TestIsValidYesChar(t *testing.T) {
	assert.True(t, isValidYesChar("Y", ""))
	assert.True(t, isValidYesChar("E", "Y"))
	assert.True(t, isValidYesChar("S", "YE"))
	assert.False(t, isValidYesChar("y", ""))
	assert.False(t, isValidYesChar("S", "Y"))
	assert.False(t, isValidYesChar("S", "YES"))
}
