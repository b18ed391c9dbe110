package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/learnpath/internal/course"
)

func flatOf(ids ...course.ID) []course.FlatLesson {
	flat := make([]course.FlatLesson, len(ids))
	for i, id := range ids {
		flat[i] = course.FlatLesson{
			Lesson:   course.Lesson{ID: id, Title: "Lesson " + id.String(), Type: course.TypeReading, Difficulty: i + 1},
			Position: i,
		}
	}
	return flat
}

func done(ids ...course.ID) Set {
	s := Set{}
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func TestNextUncompleted(t *testing.T) {
	flat := flatOf("A", "B", "C", "D")

	tests := []struct {
		name     string
		done     Set
		want     course.ID
		wantNone bool
	}{
		{name: "nothing done", done: done(), want: "A"},
		{name: "first done", done: done("A"), want: "B"},
		{name: "gap", done: done("A", "B", "D"), want: "C"},
		{name: "all done", done: done("A", "B", "C", "D"), wantNone: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := NextUncompleted(flat, tt.done)
			if tt.wantNone {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, rec.LessonID)
			assert.Equal(t, ReasonNextInOrder, rec.Reason)
		})
	}
}

func TestNextUncompletedEmptyCourse(t *testing.T) {
	_, ok := NextUncompleted(nil, done())
	assert.False(t, ok)
}

func TestNextAfterCurrent(t *testing.T) {
	tests := []struct {
		name       string
		flat       []course.FlatLesson
		done       Set
		open       course.ID
		want       course.ID
		wantReason string
		wantNone   bool
	}{
		{
			name: "no open lesson", flat: flatOf("A", "B", "C", "D"),
			done: done("A"), open: "", want: "B", wantReason: ReasonNextInOrder,
		},
		{
			name: "forward scan", flat: flatOf("A", "B", "C", "D"),
			done: done("A", "C"), open: "C", want: "D", wantReason: ReasonAfterCurrent,
		},
		{
			name: "skips completed lessons ahead", flat: flatOf("A", "B", "C", "D"),
			done: done("B", "C"), open: "A", want: "D", wantReason: ReasonAfterCurrent,
		},
		{
			name: "all complete", flat: flatOf("A", "B", "C", "D"),
			done: done("A", "B", "C", "D"), open: "D", wantNone: true,
		},
		{
			name: "wraparound to an earlier lesson", flat: flatOf("A", "B", "C"),
			done: done("C"), open: "C", want: "A", wantReason: ReasonWrapAround,
		},
		{
			name: "stale open lesson", flat: flatOf("A", "B", "C"),
			done: done("A"), open: "gone", want: "B", wantReason: ReasonNextInOrder,
		},
		{
			name: "open lesson itself incomplete is not offered", flat: flatOf("A", "B", "C"),
			done: done(), open: "B", want: "C", wantReason: ReasonAfterCurrent,
		},
		{
			name: "wraparound may return the open lesson", flat: flatOf("A", "B"),
			done: done("A"), open: "B", want: "B", wantReason: ReasonWrapAround,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := NextAfterCurrent(tt.flat, tt.done, tt.open)
			if tt.wantNone {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, rec.LessonID)
			assert.Equal(t, tt.wantReason, rec.Reason)
		})
	}
}

func TestRecommendationCarriesLessonFields(t *testing.T) {
	rec, ok := NextUncompleted(flatOf("A", "B"), done("A"))
	require.True(t, ok)
	assert.Equal(t, "Lesson B", rec.Title)
	assert.Equal(t, course.TypeReading, rec.LessonType)
	assert.Equal(t, 2, rec.Difficulty)
	assert.Nil(t, rec.Score)
}

type fakeScorer struct {
	rec   course.Recommendation
	err   error
	calls []string
}

func (f *fakeScorer) NextRecommendation(_ context.Context, courseID course.ID, mode string) (course.Recommendation, error) {
	f.calls = append(f.calls, courseID.String()+"/"+mode)
	return f.rec, f.err
}

func TestAdaptiveValid(t *testing.T) {
	score := 0.42
	scorer := &fakeScorer{rec: course.Recommendation{LessonID: "B", Score: &score, Reason: "weak topic"}}
	r := NewResolver(scorer)

	res, err := r.Adaptive(context.Background(), "7", flatOf("A", "B", "C"))
	require.NoError(t, err)
	assert.False(t, res.NoneAvailable)
	assert.Equal(t, course.ID("B"), res.Recommendation.LessonID)
	assert.Equal(t, "Lesson B", res.Recommendation.Title)
	assert.Equal(t, "weak topic", res.Recommendation.Reason)
	assert.Equal(t, []string{"7/adaptive"}, scorer.calls)
}

func TestAdaptiveRejectsUnknownLesson(t *testing.T) {
	r := NewResolver(&fakeScorer{rec: course.Recommendation{LessonID: "Z"}})

	res, err := r.Adaptive(context.Background(), "7", flatOf("A", "B"))
	var verr *ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, course.ID("Z"), verr.LessonID)
	assert.Equal(t, course.ID("7"), verr.CourseID)
	assert.Equal(t, Result{}, res)
}

func TestAdaptiveSurfacesTransportErrors(t *testing.T) {
	boom := errors.New("connection reset")
	r := NewResolver(&fakeScorer{err: boom})

	_, err := r.Adaptive(context.Background(), "7", flatOf("A"))
	assert.ErrorIs(t, err, boom)
	var verr *ErrValidation
	assert.False(t, errors.As(err, &verr), "transport failures are not validation failures")
}

func TestAdaptiveEmptyMeansNoneAvailable(t *testing.T) {
	r := NewResolver(&fakeScorer{})

	res, err := r.Adaptive(context.Background(), "7", flatOf("A"))
	require.NoError(t, err)
	assert.True(t, res.NoneAvailable)
}

func TestResolveDispatch(t *testing.T) {
	scorer := &fakeScorer{rec: course.Recommendation{LessonID: "C"}}
	r := NewResolver(scorer)
	flat := flatOf("A", "B", "C")
	ctx := context.Background()

	res, err := r.Resolve(ctx, Request{Mode: ModeBaseline, Flat: flat, Progress: done("A")})
	require.NoError(t, err)
	assert.Equal(t, course.ID("B"), res.Recommendation.LessonID)
	assert.Empty(t, scorer.calls)

	res, err = r.Resolve(ctx, Request{Mode: ModeBaseline, Flat: flat, Progress: done("C"), OpenLessonID: "C"})
	require.NoError(t, err)
	assert.Equal(t, course.ID("A"), res.Recommendation.LessonID)

	res, err = r.Resolve(ctx, Request{Mode: ModeBaseline, Flat: flat})
	require.NoError(t, err)
	assert.Equal(t, course.ID("A"), res.Recommendation.LessonID)

	res, err = r.Resolve(ctx, Request{Mode: ModeAdaptive, CourseID: "1", Flat: flat})
	require.NoError(t, err)
	assert.Equal(t, course.ID("C"), res.Recommendation.LessonID)

	res, err = r.Resolve(ctx, Request{Mode: ModeBaseline, Flat: flat, Progress: done("A", "B", "C")})
	require.NoError(t, err)
	assert.True(t, res.NoneAvailable)

	_, err = r.Resolve(ctx, Request{Mode: "random", Flat: flat})
	assert.Error(t, err)
}

func TestAdaptiveWithoutScorer(t *testing.T) {
	_, err := NewResolver(nil).Adaptive(context.Background(), "1", flatOf("A"))
	assert.Error(t, err)
}
