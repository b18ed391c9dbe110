package components

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompletionBarCells(t *testing.T) {
	b := NewCompletionBar([]bool{true, false, true}, []int{2, 1}, 80)

	assert.Equal(t, []string{"■", "□", " ", "■"}, b.cells())
	assert.Equal(t, 2, b.Completed())
	assert.Equal(t, "2/3 lessons", b.Summary())
	assert.Contains(t, b.View(), "2/3 lessons")
}

func TestCompletionBarIgnoresMismatchedModules(t *testing.T) {
	b := NewCompletionBar([]bool{false, false}, []int{5}, 80)
	assert.Equal(t, []string{"□", "□"}, b.cells())
}

func TestCompletionBarFallsBackWhenNarrow(t *testing.T) {
	done := make([]bool, 40)
	for i := range 10 {
		done[i] = true
	}
	view := NewCompletionBar(done, nil, 30).View()

	assert.NotContains(t, view, "■")
	assert.Contains(t, view, "█")
	assert.Contains(t, view, "10/40 lessons")
}

func TestCompletionBarEmptyCourse(t *testing.T) {
	view := NewCompletionBar(nil, nil, 20).View()
	assert.Contains(t, view, "0/0 lessons")
	assert.False(t, strings.Contains(view, "█"))
}
