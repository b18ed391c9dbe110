package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/learnpath/internal/ui/layout"
	"github.com/abhisek/learnpath/internal/ui/theme"
)

// MenuItem represents a single selectable row.
type MenuItem struct {
	Label    string
	Detail   string
	Disabled bool
}

// Menu is a vertical selection list. It only moves the cursor; hosts read
// Selected after each update and act on enter themselves.
type Menu struct {
	Items    []MenuItem
	Selected int
	Width    int
}

// NewMenu creates a new menu with the first enabled item selected.
func NewMenu(items []MenuItem) Menu {
	selected := 0
	for i, item := range items {
		if !item.Disabled {
			selected = i
			break
		}
	}
	return Menu{
		Items:    items,
		Selected: selected,
	}
}

// Update handles keyboard navigation.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		for i := m.Selected - 1; i >= 0; i-- {
			if !m.Items[i].Disabled {
				m.Selected = i
				break
			}
		}
	case "down", "j":
		for i := m.Selected + 1; i < len(m.Items); i++ {
			if !m.Items[i].Disabled {
				m.Selected = i
				break
			}
		}
	case "home", "g":
		m.Selected = 0
	case "end", "G":
		if len(m.Items) > 0 {
			m.Selected = len(m.Items) - 1
		}
	}

	return m, nil
}

// View renders the menu.
func (m Menu) View() string {
	var b strings.Builder
	for i, item := range m.Items {
		label := item.Label
		if m.Width > 4 {
			label = layout.Truncate(label, m.Width-4)
		}
		switch {
		case i == m.Selected:
			b.WriteString(theme.Selected.Render("▸ " + label))
		case item.Disabled:
			b.WriteString(theme.Subtitle.Render("  " + label))
		default:
			b.WriteString(theme.Unselected.Render("  " + label))
		}
		if item.Detail != "" {
			b.WriteString("  " + theme.Subtitle.Render(item.Detail))
		}
		b.WriteString("\n")
	}
	return b.String()
}
