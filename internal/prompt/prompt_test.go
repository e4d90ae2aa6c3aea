// SPDX-License-Identifier: AGPL-3.0-or-later
package prompt

import (
	"bytes"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func send(m tea.Model, msgs ...tea.Msg) tea.Model {
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

func TestSelectModel_MovesAndChooses(t *testing.T) {
	m := newSelectModel("Channel", []Option{
		{Label: "development", Value: "development"},
		{Label: "preview", Value: "preview"},
		{Label: "production", Value: "production"},
	}, 0)

	out := send(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter}).(selectModel)
	assert.True(t, out.done)
	assert.Equal(t, "preview", out.choice)
}

func TestSelectModel_InitialAndAbort(t *testing.T) {
	m := newSelectModel("Channel", []Option{{Label: "a", Value: "a"}, {Label: "b", Value: "b"}}, 1)
	out := send(m, tea.KeyMsg{Type: tea.KeyEnter}).(selectModel)
	assert.Equal(t, "b", out.choice)

	out = send(m, tea.KeyMsg{Type: tea.KeyCtrlC}).(selectModel)
	assert.True(t, out.aborted)
}

func TestConfirmModel(t *testing.T) {
	out := send(confirmModel{question: "Proceed?"}, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}).(confirmModel)
	assert.True(t, out.done)
	assert.True(t, out.value)

	out = send(confirmModel{question: "Proceed?", value: true}, tea.KeyMsg{Type: tea.KeyEnter}).(confirmModel)
	assert.True(t, out.value)

	out = send(confirmModel{question: "Proceed?", value: true}, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}).(confirmModel)
	assert.False(t, out.value)
	assert.Contains(t, out.View(), "no")
}

func TestInputModel(t *testing.T) {
	m := newInputModel("Message", "")
	out := send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hot fix")}, tea.KeyMsg{Type: tea.KeyEnter}).(inputModel)
	assert.True(t, out.done)
	assert.Equal(t, "hot fix", out.value)
}

func TestTUI_RequiresTerminal(t *testing.T) {
	tui := TUI{In: bytes.NewBufferString("y\n"), Out: &bytes.Buffer{}}
	_, err := tui.Confirm("Proceed?", false)
	assert.ErrorIs(t, err, ErrNotInteractive)
}

func TestScripted(t *testing.T) {
	s := &Scripted{Selects: []string{"b"}, Confirms: []bool{true}, Inputs: []string{"x"}}
	v, err := s.Select("pick", []Option{{Value: "a"}, {Value: "b"}}, 0)
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	ok, err := s.Confirm("sure?", false)
	require.NoError(t, err)
	assert.True(t, ok)

	in, err := s.Input("text", "")
	require.NoError(t, err)
	assert.Equal(t, "x", in)

	_, err = s.Input("again", "")
	assert.ErrorIs(t, err, ErrNotInteractive)
	assert.Equal(t, []string{"pick", "sure?", "text", "again"}, s.Asked())
}
