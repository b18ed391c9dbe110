package course

import (
	"encoding/json"
	"fmt"
)

// ID identifies a course, module or lesson. The course service emits
// integer ids; ID accepts both JSON numbers and strings.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// LessonType classifies how a lesson's content is interpreted.
type LessonType string

const (
	TypeReading     LessonType = "reading"
	TypeVideo       LessonType = "video"
	TypeQuiz        LessonType = "quiz"
	TypeInteractive LessonType = "interactive"
)

// Label returns a short display label for the lesson type.
func (t LessonType) Label() string {
	switch t {
	case TypeReading:
		return "Reading"
	case TypeVideo:
		return "Video"
	case TypeQuiz:
		return "Quiz"
	case TypeInteractive:
		return "Interactive"
	default:
		if t == "" {
			return "Lesson"
		}
		return string(t)
	}
}

// Course is an immutable snapshot of a course as returned by the service.
type Course struct {
	ID          ID       `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Modules     []Module `json:"modules,omitempty"`

	// Lessons holds ungrouped lessons for services that return a flat course.
	Lessons []Lesson `json:"lessons,omitempty"`
}

// Module groups lessons. Order is the sort key among a course's modules.
type Module struct {
	ID      ID       `json:"id"`
	Title   string   `json:"title"`
	Order   int      `json:"order"`
	Lessons []Lesson `json:"lessons,omitempty"`
}

// Lesson is a single unit of content. Content is only populated when the
// lesson is fetched individually.
type Lesson struct {
	ID         ID         `json:"id"`
	ModuleID   ID         `json:"module_id,omitempty"`
	Title      string     `json:"title"`
	Type       LessonType `json:"type"`
	Difficulty int        `json:"difficulty"`
	Order      int        `json:"order"`
	Content    string     `json:"content,omitempty"`
}

// UnmarshalJSON reads the lesson type from "type", or from "lesson_type"
// as recommendation payloads spell it.
func (l *Lesson) UnmarshalJSON(b []byte) error {
	type plain Lesson
	var aux struct {
		plain
		LessonType LessonType `json:"lesson_type"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*l = Lesson(aux.plain)
	if l.Type == "" {
		l.Type = aux.LessonType
	}
	return nil
}

// FlatLesson is a lesson projected into the linear course order.
type FlatLesson struct {
	Lesson
	ModuleID    ID
	ModuleTitle string
	Position    int
}

// Summary is a course entry from the catalog listing.
type Summary struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Recommendation names the lesson to present next.
type Recommendation struct {
	LessonID   ID         `json:"lesson_id"`
	Title      string     `json:"title"`
	LessonType LessonType `json:"lesson_type"`
	Difficulty int        `json:"difficulty"`
	Score      *float64   `json:"score,omitempty"`
	Reason     string     `json:"reason"`
}

// Identity is the signed-in user as reported by the service.
type Identity struct {
	ID       ID     `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == "admin"
}
