// SPDX-License-Identifier: AGPL-3.0-or-later
package prompt

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	answerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	hintStyle   = lipgloss.NewStyle().Faint(true)
)

// TUI is a terminal Prompter built on bubbletea.
type TUI struct {
	In  io.Reader
	Out io.Writer
}

// Select shows options as a list and returns the chosen value.
func (t TUI) Select(title string, options []Option, initial int) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("select %q: no options", title)
	}
	m, err := t.run(newSelectModel(title, options, initial))
	if err != nil {
		return "", err
	}
	sm := m.(selectModel)
	if sm.aborted {
		return "", ErrAborted
	}
	return sm.choice, nil
}

// Confirm asks a yes/no question.
func (t TUI) Confirm(question string, def bool) (bool, error) {
	m, err := t.run(confirmModel{question: question, value: def})
	if err != nil {
		return false, err
	}
	cm := m.(confirmModel)
	if cm.aborted {
		return false, ErrAborted
	}
	return cm.value, nil
}

// Input reads one line of text.
func (t TUI) Input(question, placeholder string) (string, error) {
	m, err := t.run(newInputModel(question, placeholder))
	if err != nil {
		return "", err
	}
	im := m.(inputModel)
	if im.aborted {
		return "", ErrAborted
	}
	return strings.TrimSpace(im.value), nil
}

func (t TUI) run(m tea.Model) (tea.Model, error) {
	if !IsInteractive(t.In) {
		return nil, ErrNotInteractive
	}
	p := tea.NewProgram(m, tea.WithInput(t.In), tea.WithOutput(t.Out))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running prompt: %w", err)
	}
	return final, nil
}

type optionItem struct{ Option }

func (i optionItem) Title() string       { return i.Label }
func (i optionItem) Description() string { return "" }
func (i optionItem) FilterValue() string { return i.Label }

type selectModel struct {
	list    list.Model
	choice  string
	done    bool
	aborted bool
}

func newSelectModel(title string, options []Option, initial int) selectModel {
	items := make([]list.Item, len(options))
	for i, o := range options {
		items[i] = optionItem{o}
	}
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)
	height := len(options) + 6
	if height > 20 {
		height = 20
	}
	l := list.New(items, delegate, 80, height)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	if initial > 0 && initial < len(options) {
		l.Select(initial)
	}
	return selectModel{list: l}
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyEnter:
			if item, ok := m.list.SelectedItem().(optionItem); ok {
				m.choice = item.Value
				m.done = true
				return m, tea.Quit
			}
		}
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m selectModel) View() string {
	if m.done {
		return m.list.Title + " " + answerStyle.Render(m.choice) + "\n"
	}
	return m.list.View()
}

type confirmModel struct {
	question string
	value    bool
	done     bool
	aborted  bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.aborted = true
		return m, tea.Quit
	case tea.KeyEnter:
		m.done = true
		return m, tea.Quit
	}
	switch strings.ToLower(key.String()) {
	case "y":
		m.value, m.done = true, true
		return m, tea.Quit
	case "n":
		m.value, m.done = false, true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		answer := "no"
		if m.value {
			answer = "yes"
		}
		return titleStyle.Render(m.question) + " " + answerStyle.Render(answer) + "\n"
	}
	hint := "(y/N)"
	if m.value {
		hint = "(Y/n)"
	}
	return titleStyle.Render(m.question) + " " + hintStyle.Render(hint) + "\n"
}

type inputModel struct {
	question string
	input    textinput.Model
	value    string
	done     bool
	aborted  bool
}

func newInputModel(question, placeholder string) inputModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	return inputModel{question: question, input: ti}
}

func (m inputModel) Init() tea.Cmd { return textinput.Blink }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.value = m.input.Value()
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.done {
		return titleStyle.Render(m.question) + " " + answerStyle.Render(m.value) + "\n"
	}
	return titleStyle.Render(m.question) + "\n" + m.input.View() + "\n"
}
