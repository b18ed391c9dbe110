package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/learnpath/internal/ui/theme"
)

// CompletionBar shows course progress one cell per lesson, with a gap
// between modules. Courses too long for the width fall back to a
// proportional bar.
type CompletionBar struct {
	// Done holds one flag per lesson in course order.
	Done []bool
	// ModuleSizes is the lesson count of each module, in order.
	ModuleSizes []int
	Width       int
}

// NewCompletionBar builds a bar for a course.
func NewCompletionBar(done []bool, moduleSizes []int, width int) CompletionBar {
	return CompletionBar{Done: done, ModuleSizes: moduleSizes, Width: width}
}

// Completed counts finished lessons.
func (b CompletionBar) Completed() int {
	n := 0
	for _, d := range b.Done {
		if d {
			n++
		}
	}
	return n
}

// Summary is the "n/m lessons" caption.
func (b CompletionBar) Summary() string {
	return fmt.Sprintf("%d/%d lessons", b.Completed(), len(b.Done))
}

func (b CompletionBar) View() string {
	caption := lipgloss.NewStyle().Foreground(theme.TextDim).Render("  " + b.Summary())
	room := b.Width - lipgloss.Width(caption)
	if room < 4 {
		room = 4
	}

	filled := lipgloss.NewStyle().Foreground(theme.Success)
	empty := lipgloss.NewStyle().Foreground(theme.Border)

	cells := b.cells()
	if len(cells) == 0 || lipgloss.Width(strings.Join(cells, "")) > room {
		return b.proportional(room, filled, empty) + caption
	}

	var sb strings.Builder
	for _, c := range cells {
		switch c {
		case "■":
			sb.WriteString(filled.Render(c))
		case "□":
			sb.WriteString(empty.Render(c))
		default:
			sb.WriteString(c)
		}
	}
	return sb.String() + caption
}

// cells lays out one mark per lesson with a space between modules.
// Module sizes that do not add up to the lesson count are ignored.
func (b CompletionBar) cells() []string {
	sum := 0
	for _, n := range b.ModuleSizes {
		sum += n
	}
	breaks := map[int]bool{}
	if sum == len(b.Done) {
		at := 0
		for _, n := range b.ModuleSizes {
			at += n
			if at < len(b.Done) {
				breaks[at] = true
			}
		}
	}

	out := make([]string, 0, len(b.Done)+len(breaks))
	for i, d := range b.Done {
		if breaks[i] {
			out = append(out, " ")
		}
		if d {
			out = append(out, "■")
		} else {
			out = append(out, "□")
		}
	}
	return out
}

func (b CompletionBar) proportional(width int, filled, empty lipgloss.Style) string {
	n := 0
	if len(b.Done) > 0 {
		n = width * b.Completed() / len(b.Done)
	}
	return filled.Render(strings.Repeat("█", n)) + empty.Render(strings.Repeat("░", width-n))
}
