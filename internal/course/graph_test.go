package course

import (
	"encoding/json"
	"reflect"
	"testing"
)

func sampleCourse() Course {
	return Course{
		ID:    "1",
		Title: "Go Basics",
		Modules: []Module{
			{ID: "m2", Title: "Concurrency", Order: 2, Lessons: []Lesson{
				{ID: "c2", Title: "Channels", Order: 2},
				{ID: "c1", Title: "Goroutines", Order: 1},
			}},
			{ID: "m1", Title: "Syntax", Order: 1, Lessons: []Lesson{
				{ID: "s1", Title: "Variables", Order: 1},
				{ID: "s3", Title: "Functions", Order: 3},
				{ID: "s2", Title: "Types", Order: 2},
			}},
		},
	}
}

func ids(flat []FlatLesson) []ID {
	out := make([]ID, len(flat))
	for i, l := range flat {
		out[i] = l.ID
	}
	return out
}

func TestFlatten_Order(t *testing.T) {
	flat := Flatten(sampleCourse())
	want := []ID{"s1", "s2", "s3", "c1", "c2"}
	if got := ids(flat); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i, l := range flat {
		if l.Position != i {
			t.Errorf("lesson %s position = %d, want %d", l.ID, l.Position, i)
		}
	}
	if flat[0].ModuleTitle != "Syntax" || flat[3].ModuleTitle != "Concurrency" {
		t.Errorf("module titles = %q, %q", flat[0].ModuleTitle, flat[3].ModuleTitle)
	}
	if flat[4].ModuleID != "m2" {
		t.Errorf("module id = %q, want m2", flat[4].ModuleID)
	}
}

func TestFlatten_Deterministic(t *testing.T) {
	c := sampleCourse()
	a := Flatten(c)
	b := Flatten(c)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two flattenings of the same snapshot differ")
	}
}

func TestFlatten_DoesNotMutateInput(t *testing.T) {
	c := sampleCourse()
	Flatten(c)
	if c.Modules[0].ID != "m2" || c.Modules[0].Lessons[0].ID != "c2" {
		t.Fatal("Flatten reordered the input snapshot")
	}
}

func TestFlatten_ModuleReorderKeepsLessonOrder(t *testing.T) {
	c := sampleCourse()
	c.Modules[0].Order = 0 // Concurrency now first

	flat := Flatten(c)
	want := []ID{"c1", "c2", "s1", "s2", "s3"}
	if got := ids(flat); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestFlatten_StableOnEqualKeys(t *testing.T) {
	c := Course{Modules: []Module{{ID: "m", Lessons: []Lesson{
		{ID: "x", Order: 1},
		{ID: "y", Order: 1},
		{ID: "z", Order: 0},
	}}}}
	want := []ID{"z", "x", "y"}
	if got := ids(Flatten(c)); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestFlatten_Empty(t *testing.T) {
	if got := Flatten(Course{}); len(got) != 0 {
		t.Fatalf("expected empty sequence, got %d lessons", len(got))
	}
	if got := Flatten(Course{Modules: []Module{{ID: "m"}}}); len(got) != 0 {
		t.Fatalf("expected empty sequence for empty module, got %d", len(got))
	}
}

func TestFlatten_UngroupedLessons(t *testing.T) {
	c := Course{ID: "7", Title: "Flat", Lessons: []Lesson{
		{ID: "b", Order: 2},
		{ID: "a", Order: 1},
	}}
	flat := Flatten(c)
	if got := ids(flat); !reflect.DeepEqual(got, []ID{"a", "b"}) {
		t.Fatalf("order = %v", got)
	}
	if flat[0].ModuleTitle != "Flat" {
		t.Errorf("implicit module title = %q, want course title", flat[0].ModuleTitle)
	}
}

func TestPositionOf(t *testing.T) {
	flat := Flatten(sampleCourse())

	pos, ok := PositionOf(flat, "c1")
	if !ok || pos != 3 {
		t.Errorf("PositionOf(c1) = %d, %v; want 3, true", pos, ok)
	}

	if _, ok := PositionOf(flat, "missing"); ok {
		t.Error("PositionOf(missing) reported found")
	}
	if _, ok := PositionOf(nil, "s1"); ok {
		t.Error("PositionOf on empty sequence reported found")
	}
}

func TestGraph(t *testing.T) {
	g := NewGraph(sampleCourse())

	if g.Len() != 5 {
		t.Fatalf("Len = %d, want 5", g.Len())
	}
	l, ok := g.Lesson("s3")
	if !ok || l.Title != "Functions" || l.Position != 2 {
		t.Errorf("Lesson(s3) = %+v, %v", l, ok)
	}
	if _, ok := g.Position("nope"); ok {
		t.Error("Position(nope) reported found")
	}

	groups := g.Modules()
	if len(groups) != 2 {
		t.Fatalf("module groups = %d, want 2", len(groups))
	}
	if groups[0].ID != "m1" || groups[0].Start != 0 || groups[0].Count != 3 {
		t.Errorf("group 0 = %+v", groups[0])
	}
	if groups[1].ID != "m2" || groups[1].Start != 3 || groups[1].Count != 2 {
		t.Errorf("group 1 = %+v", groups[1])
	}
}

func TestID_UnmarshalJSON(t *testing.T) {
	var c Course
	raw := `{"id": 12, "title": "T", "modules": [{"id": "m-1", "order": 1, "lessons": [{"id": 5, "module_id": null, "lesson_type": "quiz"}]}]}`
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.ID != "12" {
		t.Errorf("course id = %q, want 12", c.ID)
	}
	if c.Modules[0].ID != "m-1" {
		t.Errorf("module id = %q, want m-1", c.Modules[0].ID)
	}
	l := c.Modules[0].Lessons[0]
	if l.ID != "5" || l.ModuleID != "" || l.Type != TypeQuiz {
		t.Errorf("lesson = %+v", l)
	}

	var bad ID
	if err := json.Unmarshal([]byte(`{"x":1}`), &bad); err == nil {
		t.Error("expected error for object id")
	}
}

func TestLesson_UnmarshalJSONTypeKeys(t *testing.T) {
	tests := []struct {
		raw  string
		want LessonType
	}{
		{`{"id": 1, "type": "quiz"}`, TypeQuiz},
		{`{"id": 1, "lesson_type": "video"}`, TypeVideo},
		{`{"id": 1, "type": "reading", "lesson_type": "quiz"}`, TypeReading},
		{`{"id": 1}`, ""},
	}
	for _, tt := range tests {
		var l Lesson
		if err := json.Unmarshal([]byte(tt.raw), &l); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.raw, err)
		}
		if l.Type != tt.want || l.ID != "1" {
			t.Errorf("%s: got %+v, want type %q", tt.raw, l, tt.want)
		}
	}

	out, err := json.Marshal(Lesson{ID: "2", Type: TypeQuiz})
	if err != nil {
		t.Fatal(err)
	}
	var back Lesson
	if err := json.Unmarshal(out, &back); err != nil || back.Type != TypeQuiz {
		t.Errorf("round trip %s: %+v, %v", out, back, err)
	}
}

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"2024-03-01T10:20:30Z"`, "2024-03-01T10:20:30Z"},
		{`"2024-03-01T10:20:30.123456"`, "2024-03-01T10:20:30.123456Z"},
		{`"2024-03-01 10:20:30"`, "2024-03-01T10:20:30Z"},
		{`null`, "0001-01-01T00:00:00Z"},
	}
	for _, tt := range tests {
		var ts Timestamp
		if err := json.Unmarshal([]byte(tt.raw), &ts); err != nil {
			t.Errorf("unmarshal %s: %v", tt.raw, err)
			continue
		}
		if got := ts.UTC().Format("2006-01-02T15:04:05.999999999Z07:00"); got != tt.want {
			t.Errorf("unmarshal %s = %s, want %s", tt.raw, got, tt.want)
		}
	}

	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Error("expected error for unparsable timestamp")
	}
}
