package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/learnpath/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector component. Chosen is -1 until
// the learner confirms an option with enter or a number key.
type MultiChoice struct {
	Question     string
	Options      []string
	CorrectIndex int
	Cursor       int
	Chosen       int
	Reveal       bool
}

// NewMultiChoice creates a new multiple-choice component with an optional
// pre-existing choice.
func NewMultiChoice(question string, options []string, correctIndex, chosen int) MultiChoice {
	cursor := 0
	if chosen >= 0 && chosen < len(options) {
		cursor = chosen
	} else {
		chosen = -1
	}
	return MultiChoice{
		Question:     question,
		Options:      options,
		CorrectIndex: correctIndex,
		Cursor:       cursor,
		Chosen:       chosen,
	}
}

// Update handles keyboard navigation and selection.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Reveal {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Options)-1 {
			m.Cursor++
		}
	case "enter", "space":
		if len(m.Options) > 0 {
			m.Chosen = m.Cursor
		}
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			idx := int(key[0] - '1')
			if idx < len(m.Options) {
				m.Cursor = idx
				m.Chosen = idx
			}
		}
	}

	return m, nil
}

// Answered reports whether an option has been confirmed.
func (m MultiChoice) Answered() bool {
	return m.Chosen >= 0
}

// View renders the multiple-choice component.
func (m MultiChoice) View() string {
	questionStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)

	var b strings.Builder
	b.WriteString(questionStyle.Render(m.Question) + "\n\n")

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Cursor && !m.Reveal {
			prefix = "▸ "
		}
		marker := " "
		if i == m.Chosen {
			marker = "●"
		}

		line := fmt.Sprintf("%s%s %c)  %s", prefix, marker, rune('A'+i), opt)

		switch {
		case m.Reveal && i == m.CorrectIndex:
			b.WriteString(theme.Correct.Render(line))
		case m.Reveal && i == m.Chosen:
			b.WriteString(theme.Incorrect.Render(line))
		case m.Reveal:
			b.WriteString(theme.Subtitle.Render(line))
		case i == m.Cursor:
			b.WriteString(theme.Selected.Render(line))
		default:
			b.WriteString(theme.Unselected.Render(line))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// IsCorrect returns true if the learner chose the correct answer.
func (m MultiChoice) IsCorrect() bool {
	return m.Chosen >= 0 && m.Chosen == m.CorrectIndex
}
