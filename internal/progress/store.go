// Package progress tracks lesson completion per learner and course.
//
// The course service is the source of truth. A local cache keeps the
// completion flags of each course so reopening a course does not need a
// round trip. Completion becomes visible locally only after the service
// has acknowledged it.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/learnpath/internal/course"
	"github.com/abhisek/learnpath/internal/logger"
)

// ErrNoCourse is returned by operations that need a loaded course.
var ErrNoCourse = errors.New("progress: no course loaded")

// namespacePrefix starts every cache namespace.
const namespacePrefix = "progress:"

// Remote is the authoritative side of progress tracking.
type Remote interface {
	MarkCompleted(ctx context.Context, lessonID course.ID, score *float64) (course.ProgressRecord, error)
	MyProgress(ctx context.Context) ([]course.ProgressRecord, error)
}

// Store holds the completion records of the current course.
type Store struct {
	remote Remote
	cache  Cache
	log    *logger.Logger
	now    func() time.Time

	mu       sync.Mutex
	identity string
	courseID course.ID
	records  map[course.ID]course.ProgressRecord
}

// NewStore creates a Store. identity namespaces cache entries so learners
// sharing a machine keep separate progress.
func NewStore(remote Remote, cache Cache, identity string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	if identity == "" {
		identity = "anon"
	}
	return &Store{
		remote:   remote,
		cache:    cache,
		log:      log,
		now:      time.Now,
		identity: identity,
		records:  make(map[course.ID]course.ProgressRecord),
	}
}

// Namespace returns the cache key for a course under the store's identity.
func (s *Store) Namespace(courseID course.ID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.namespace(courseID)
}

func (s *Store) namespace(courseID course.ID) string {
	return namespacePrefix + s.identity + ":" + courseID.String()
}

// SetIdentity switches to another learner and forgets the loaded course.
func (s *Store) SetIdentity(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if identity == "" {
		identity = "anon"
	}
	if identity == s.identity {
		return
	}
	s.identity = identity
	s.courseID = ""
	s.records = make(map[course.ID]course.ProgressRecord)
}

// CourseID returns the loaded course, or "" before the first Load.
func (s *Store) CourseID() course.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.courseID
}

// Load makes courseID the current course and returns its records read
// from the cache. A missing, unreadable or corrupt entry yields an empty
// map. Reloading the current course keeps completions already in memory.
func (s *Store) Load(ctx context.Context, courseID course.ID) map[course.ID]course.ProgressRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached := s.readCache(ctx, s.namespace(courseID), courseID)
	if courseID == s.courseID {
		for id, rec := range s.records {
			if rec.Completed {
				cached[id] = rec
			}
		}
	}
	s.courseID = courseID
	s.records = cached
	return s.snapshot()
}

// readCache decodes a cache entry. Callers hold mu.
func (s *Store) readCache(ctx context.Context, ns string, courseID course.ID) map[course.ID]course.ProgressRecord {
	out := make(map[course.ID]course.ProgressRecord)

	payload, ok, err := s.cache.Get(ctx, ns)
	if err != nil {
		s.log.Warn("progress cache read failed", "course_id", courseID.String(), "error", err)
		return out
	}
	if !ok {
		return out
	}

	var flags map[course.ID]bool
	if err := json.Unmarshal(payload, &flags); err != nil {
		s.log.Warn("ignoring corrupt progress cache entry", "course_id", courseID.String(), "error", err)
		return out
	}
	for id, done := range flags {
		out[id] = course.ProgressRecord{LessonID: id, CourseID: courseID, Completed: done}
	}
	return out
}

// writeCache stores the completion flags of records under ns. Callers
// hold mu.
func (s *Store) writeCache(ctx context.Context, ns string, records map[course.ID]course.ProgressRecord) error {
	flags := make(map[course.ID]bool, len(records))
	for id, rec := range records {
		flags[id] = rec.Completed
	}
	payload, err := json.Marshal(flags)
	if err != nil {
		return fmt.Errorf("encode progress cache: %w", err)
	}
	return s.cache.Put(ctx, ns, payload)
}

// MarkCompleted records completion of lessonID in the current course.
// The service is called first; if it fails nothing changes locally and
// the error is returned. Completing an already completed lesson returns
// the existing record without calling the service.
func (s *Store) MarkCompleted(ctx context.Context, lessonID course.ID, score *float64) (course.ProgressRecord, error) {
	s.mu.Lock()
	courseID := s.courseID
	ns := s.namespace(courseID)
	existing, done := s.records[lessonID]
	s.mu.Unlock()

	if courseID == "" {
		return course.ProgressRecord{}, ErrNoCourse
	}
	if done && existing.Completed {
		return existing, nil
	}

	rec, err := s.remote.MarkCompleted(ctx, lessonID, score)
	if err != nil {
		return course.ProgressRecord{}, err
	}
	rec.LessonID = lessonID
	rec.CourseID = courseID
	rec.Completed = true
	if rec.Score == nil {
		rec.Score = score
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = course.Timestamp{Time: s.now().UTC()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The learner may have switched course while the request was in flight.
	// The acknowledged completion still belongs in that course's cache.
	if s.courseID == courseID && s.namespace(courseID) == ns {
		if prev, ok := s.records[lessonID]; ok && prev.Completed {
			return prev, nil
		}
		s.records[lessonID] = rec
		if err := s.writeCache(ctx, ns, s.records); err != nil {
			s.log.Warn("progress cache write failed", "course_id", courseID.String(), "error", err)
		}
		return rec, nil
	}

	other := s.readCache(ctx, ns, courseID)
	other[lessonID] = rec
	if err := s.writeCache(ctx, ns, other); err != nil {
		s.log.Warn("progress cache write failed", "course_id", courseID.String(), "error", err)
	}
	return rec, nil
}

// IsCompleted reports whether lessonID is completed in the current course.
func (s *Store) IsCompleted(lessonID course.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[lessonID].Completed
}

// Record returns the record for lessonID, if any.
func (s *Store) Record(lessonID course.ID) (course.ProgressRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[lessonID]
	return rec, ok
}

// CompletedCount counts completed lessons of flat. Records of lessons
// not in flat are stale and ignored.
func (s *Store) CompletedCount(flat []course.FlatLesson) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range flat {
		if s.records[l.ID].Completed {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the current course's records.
func (s *Store) Snapshot() map[course.ID]course.ProgressRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) snapshot() map[course.ID]course.ProgressRecord {
	out := make(map[course.ID]course.ProgressRecord, len(s.records))
	for id, rec := range s.records {
		out[id] = rec
	}
	return out
}

// Sync pulls the learner's progress from the service and merges every
// completed lesson that belongs to flat into the current course. Local
// completions are never reverted. It returns how many lessons became
// completed. On failure nothing changes.
func (s *Store) Sync(ctx context.Context, flat []course.FlatLesson) (int, error) {
	s.mu.Lock()
	courseID := s.courseID
	s.mu.Unlock()
	if courseID == "" {
		return 0, ErrNoCourse
	}

	remote, err := s.remote.MyProgress(ctx)
	if err != nil {
		return 0, err
	}

	inCourse := make(map[course.ID]bool, len(flat))
	for _, l := range flat {
		inCourse[l.ID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.courseID != courseID {
		return 0, nil
	}

	added := 0
	for _, rec := range remote {
		if !rec.Completed || !inCourse[rec.LessonID] {
			continue
		}
		prev, ok := s.records[rec.LessonID]
		switch {
		case !ok || !prev.Completed:
			rec.CourseID = courseID
			s.records[rec.LessonID] = rec
			added++
		case prev.Score == nil && rec.Score != nil:
			prev.Score = rec.Score
			s.records[rec.LessonID] = prev
		}
	}

	if err := s.writeCache(ctx, s.namespace(courseID), s.records); err != nil {
		s.log.Warn("progress cache write failed", "course_id", courseID.String(), "error", err)
	}
	s.log.Info("progress synced", "course_id", courseID.String(), "added", added)
	return added, nil
}

// Clear drops the cached progress of courseID. The service is not
// contacted; a later Sync restores remote completions.
func (s *Store) Clear(ctx context.Context, courseID course.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cache.Delete(ctx, s.namespace(courseID)); err != nil {
		return fmt.Errorf("clear progress cache: %w", err)
	}
	if s.courseID == courseID {
		s.records = make(map[course.ID]course.ProgressRecord)
	}
	return nil
}

// ClearAll drops every cached course of the current identity.
func (s *Store) ClearAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.cache.DeletePrefix(ctx, namespacePrefix+s.identity+":")
	if err != nil {
		return 0, fmt.Errorf("clear progress cache: %w", err)
	}
	s.records = make(map[course.ID]course.ProgressRecord)
	return n, nil
}
