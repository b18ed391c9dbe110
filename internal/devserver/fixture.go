package devserver

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/learnpath/internal/course"
)

//go:embed fixtures/sample.yaml
var sampleFixture []byte

// Fixture is the content served by the dev server.
type Fixture struct {
	Users   []FixtureUser   `yaml:"users"`
	Courses []FixtureCourse `yaml:"courses"`
}

// FixtureUser is a pre-registered account. Passwords are stored in plain
// text in the fixture and hashed when the server starts.
type FixtureUser struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	FullName string `yaml:"full_name"`
	Role     string `yaml:"role"`
}

type FixtureCourse struct {
	ID          string          `yaml:"id"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Modules     []FixtureModule `yaml:"modules"`
}

type FixtureModule struct {
	ID      string          `yaml:"id"`
	Title   string          `yaml:"title"`
	Order   int             `yaml:"order"`
	Lessons []FixtureLesson `yaml:"lessons"`
}

type FixtureLesson struct {
	ID         string `yaml:"id"`
	Title      string `yaml:"title"`
	Type       string `yaml:"type"`
	Difficulty int    `yaml:"difficulty"`
	Order      int    `yaml:"order"`
	Content    string `yaml:"content"`
}

// LoadFixture reads a fixture file, or the embedded sample when path is
// empty.
func LoadFixture(path string) (*Fixture, error) {
	data := sampleFixture
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fixture: %w", err)
		}
		data = b
	}
	return ParseFixture(data)
}

// ParseFixture decodes and checks a YAML fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

func (fx *Fixture) validate() error {
	courses := make(map[string]bool)
	lessons := make(map[string]bool)
	for _, c := range fx.Courses {
		if c.ID == "" {
			return fmt.Errorf("fixture: course %q has no id", c.Title)
		}
		if courses[c.ID] {
			return fmt.Errorf("fixture: duplicate course id %q", c.ID)
		}
		courses[c.ID] = true
		for _, m := range c.Modules {
			for _, l := range m.Lessons {
				if l.ID == "" {
					return fmt.Errorf("fixture: lesson %q in course %q has no id", l.Title, c.ID)
				}
				if lessons[l.ID] {
					return fmt.Errorf("fixture: duplicate lesson id %q", l.ID)
				}
				lessons[l.ID] = true
			}
		}
	}
	for _, u := range fx.Users {
		if u.Email == "" || u.Password == "" {
			return fmt.Errorf("fixture: users need an email and a password")
		}
	}
	return nil
}

// Catalog converts the fixture courses to the client's course model.
func (fx *Fixture) Catalog() []course.Course {
	out := make([]course.Course, 0, len(fx.Courses))
	for _, fc := range fx.Courses {
		c := course.Course{
			ID:          course.ID(fc.ID),
			Title:       fc.Title,
			Description: fc.Description,
		}
		for _, fm := range fc.Modules {
			m := course.Module{ID: course.ID(fm.ID), Title: fm.Title, Order: fm.Order}
			for _, fl := range fm.Lessons {
				m.Lessons = append(m.Lessons, course.Lesson{
					ID:         course.ID(fl.ID),
					ModuleID:   course.ID(fm.ID),
					Title:      fl.Title,
					Type:       course.LessonType(fl.Type),
					Difficulty: fl.Difficulty,
					Order:      fl.Order,
					Content:    fl.Content,
				})
			}
			c.Modules = append(c.Modules, m)
		}
		out = append(out, c)
	}
	return out
}
