package course

import (
	"slices"
	"sort"
)

// Flatten linearizes a course: modules by Order, then lessons by Order
// within each module. Equal sort keys keep the service's order, so two
// flattenings of the same snapshot are identical.
func Flatten(c Course) []FlatLesson {
	modules := c.Modules
	if len(modules) == 0 && len(c.Lessons) > 0 {
		modules = []Module{{Title: c.Title, Lessons: c.Lessons}}
	}

	sortedModules := slices.Clone(modules)
	sort.SliceStable(sortedModules, func(i, j int) bool {
		return sortedModules[i].Order < sortedModules[j].Order
	})

	var flat []FlatLesson
	for _, m := range sortedModules {
		lessons := slices.Clone(m.Lessons)
		sort.SliceStable(lessons, func(i, j int) bool {
			return lessons[i].Order < lessons[j].Order
		})
		for _, l := range lessons {
			if l.ModuleID == "" {
				l.ModuleID = m.ID
			}
			flat = append(flat, FlatLesson{
				Lesson:      l,
				ModuleID:    m.ID,
				ModuleTitle: m.Title,
				Position:    len(flat),
			})
		}
	}
	return flat
}

// PositionOf returns the index of lessonID in flat. A missing lesson is an
// expected outcome (stale links, changed courses) and reports false.
func PositionOf(flat []FlatLesson, lessonID ID) (int, bool) {
	for i := range flat {
		if flat[i].ID == lessonID {
			return i, true
		}
	}
	return -1, false
}

// Graph is a flattened course with precomputed lookups.
type Graph struct {
	course  Course
	flat    []FlatLesson
	index   map[ID]int
	modules []ModuleGroup
}

// ModuleGroup is a contiguous run of the flat sequence sharing a module.
type ModuleGroup struct {
	ID    ID
	Title string
	Start int // index of the first lesson in the flat sequence
	Count int
}

// NewGraph flattens c and builds its indices.
func NewGraph(c Course) *Graph {
	g := &Graph{
		course: c,
		flat:   Flatten(c),
	}
	g.index = make(map[ID]int, len(g.flat))
	for i, l := range g.flat {
		if _, dup := g.index[l.ID]; !dup {
			g.index[l.ID] = i
		}
		n := len(g.modules)
		if n == 0 || g.modules[n-1].ID != l.ModuleID || g.modules[n-1].Title != l.ModuleTitle {
			g.modules = append(g.modules, ModuleGroup{ID: l.ModuleID, Title: l.ModuleTitle, Start: i})
		}
		g.modules[len(g.modules)-1].Count++
	}
	return g
}

// Course returns the snapshot the graph was built from.
func (g *Graph) Course() Course {
	return g.course
}

// Lessons returns the flattened sequence. Callers must not modify it.
func (g *Graph) Lessons() []FlatLesson {
	return g.flat
}

// Len returns the number of lessons.
func (g *Graph) Len() int {
	return len(g.flat)
}

// Position returns the flat index of lessonID.
func (g *Graph) Position(lessonID ID) (int, bool) {
	i, ok := g.index[lessonID]
	return i, ok
}

// Lesson returns the flat lesson with the given id.
func (g *Graph) Lesson(lessonID ID) (FlatLesson, bool) {
	i, ok := g.index[lessonID]
	if !ok {
		return FlatLesson{}, false
	}
	return g.flat[i], true
}

// Modules returns the module groups in flat order.
func (g *Graph) Modules() []ModuleGroup {
	return slices.Clone(g.modules)
}
