package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// ConfirmModel - Interactive yes/no prompt
// =============================================================================

// ConfirmModel is the bubbletea model for a yes/no confirmation prompt.
// The answer defaults to no; only an explicit "y" confirms.
type ConfirmModel struct {
	Prompt   string
	Answered bool
	Answer   bool
}

// NewConfirmModel creates a confirmation prompt with the given question.
func NewConfirmModel(prompt string) ConfirmModel {
	return ConfirmModel{Prompt: prompt}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "Y":
			m.Answered = true
			m.Answer = true
			return m, tea.Quit
		case "n", "N", "enter", "q", "esc", "ctrl+c":
			m.Answered = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	var b strings.Builder
	b.WriteString(m.Prompt)
	b.WriteString(" ")
	b.WriteString(StyleDim.Render("[y/N]"))
	if m.Answered {
		if m.Answer {
			b.WriteString(" " + StyleSuccess.Render("yes"))
		} else {
			b.WriteString(" " + StyleDim.Render("no"))
		}
	}
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// OptionListModel - Interactive single-choice selection
// =============================================================================

// OptionListModel is the bubbletea model for picking one option from a
// short list, used to disambiguate unconstrained packages.
type OptionListModel struct {
	Title    string
	Options  []string
	Cursor   int
	Selected string
}

// NewOptionListModel creates a list selection over the given options.
func NewOptionListModel(title string, options []string) OptionListModel {
	return OptionListModel{Title: title, Options: options}
}

func (m OptionListModel) Init() tea.Cmd {
	return nil
}

func (m OptionListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Options)-1 {
				m.Cursor++
			}
		case "enter":
			m.Selected = m.Options[m.Cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m OptionListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	for i, opt := range m.Options {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		line := cursor + opt
		if i == m.Cursor {
			b.WriteString(StyleHighlight.Render(line))
		} else {
			b.WriteString(StyleValue.Render(line))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// pickOption runs the option list and returns the chosen entry, or
// false when the user backed out.
func pickOption(title string, options []string) (string, bool, error) {
	m := NewOptionListModel(title, options)
	out, err := tea.NewProgram(m).Run()
	if err != nil {
		return "", false, err
	}
	final, ok := out.(OptionListModel)
	if !ok || final.Selected == "" {
		return "", false, nil
	}
	return final.Selected, true, nil
}

// confirmCook asks the user to approve cooking count packages.
func confirmCook(count int) (bool, error) {
	noun := "packages"
	if count == 1 {
		noun = "package"
	}
	m := NewConfirmModel(fmt.Sprintf("Cook %d %s?", count, noun))
	out, err := tea.NewProgram(m).Run()
	if err != nil {
		return false, err
	}
	final, ok := out.(ConfirmModel)
	if !ok {
		return false, nil
	}
	return final.Answer, nil
}
