package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is covered by TestOpenFileDatabase.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestOpenFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "learnpath.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "learnpath.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.ProgressCache().Put(ctx, "progress:u:1", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, ok, err := s.ProgressCache().Get(ctx, "progress:u:1")
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("payload = %s", got)
	}
}

func TestWithPragmas(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"a.db", "a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(1)"},
		{"file:x?mode=memory", "file:x?mode=memory&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(1)"},
		{"a.db?_pragma=foreign_keys(1)", "a.db?_pragma=foreign_keys(1)"},
	}
	for _, tt := range tests {
		if got := withPragmas(tt.dsn); got != tt.want {
			t.Errorf("withPragmas(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}

func TestProgressCacheRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressCache()
	ctx := context.Background()

	if _, ok, err := repo.Get(ctx, "progress:u:1"); err != nil || ok {
		t.Fatalf("empty get: ok=%v err=%v", ok, err)
	}

	if err := repo.Put(ctx, "progress:u:1", []byte("first")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Put(ctx, "progress:u:1", []byte("second")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, ok, err := repo.Get(ctx, "progress:u:1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(got) != "second" {
		t.Errorf("payload = %q, want %q", got, "second")
	}

	if err := repo.Delete(ctx, "progress:u:1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := repo.Get(ctx, "progress:u:1"); ok {
		t.Error("entry survived delete")
	}
}

func TestProgressCacheDeletePrefix(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressCache()
	ctx := context.Background()

	for _, ns := range []string{"progress:alice:1", "progress:alice:2", "progress:bob:1", "progress:alice_x:1"} {
		if err := repo.Put(ctx, ns, []byte("{}")); err != nil {
			t.Fatalf("put %s: %v", ns, err)
		}
	}

	n, err := repo.DeletePrefix(ctx, "progress:alice:")
	if err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}

	for _, ns := range []string{"progress:alice:1", "progress:alice:2"} {
		if _, ok, _ := repo.Get(ctx, ns); ok {
			t.Errorf("%s survived delete", ns)
		}
	}
	for _, ns := range []string{"progress:bob:1", "progress:alice_x:1"} {
		if _, ok, _ := repo.Get(ctx, ns); !ok {
			t.Errorf("%s was deleted", ns)
		}
	}
}

func TestSessionSaveLoadClear(t *testing.T) {
	s := openTestStore(t)
	repo := s.SessionRepo()
	ctx := context.Background()

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no session, got %+v", got)
	}

	saved := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := repo.Save(ctx, Session{Token: "t1", Email: "a@example.com", SavedAt: saved}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, Session{Token: "t2", Email: "b@example.com", SavedAt: saved}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || got.Token != "t2" || got.Email != "b@example.com" {
		t.Fatalf("session = %+v", got)
	}
	if !got.SavedAt.Equal(saved) {
		t.Errorf("saved_at = %v, want %v", got.SavedAt, saved)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err = repo.Load(ctx)
	if err != nil || got != nil {
		t.Errorf("after clear: %+v, %v", got, err)
	}
}

func TestRequestLogQueryAndStats(t *testing.T) {
	s := openTestStore(t)
	repo := s.RequestLogRepo()
	ctx := context.Background()

	events := []RequestEvent{
		{Op: "get_course", Target: "1", StatusCode: 200, LatencyMs: 10, Success: true},
		{Op: "get_course", Target: "2", StatusCode: 404, LatencyMs: 30, Success: false, ErrorMessage: "not found"},
		{Op: "list_courses", StatusCode: 200, LatencyMs: 5, Success: true, RequestID: "req-1"},
	}
	for _, ev := range events {
		if err := repo.Append(ctx, ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.Query(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d events, want 3", len(all))
	}
	if all[0].Op != "list_courses" || all[0].RequestID != "req-1" {
		t.Errorf("newest event = %+v", all[0])
	}
	if all[0].CreatedAt.IsZero() {
		t.Error("created_at not set")
	}

	limited, err := repo.Query(ctx, QueryOpts{Limit: 1, Op: "get_course"})
	if err != nil {
		t.Fatalf("query limited: %v", err)
	}
	if len(limited) != 1 || limited[0].Target != "2" {
		t.Errorf("limited = %+v", limited)
	}

	failed, err := repo.Query(ctx, QueryOpts{FailedOnly: true})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(failed) != 1 || failed[0].ErrorMessage != "not found" || failed[0].StatusCode != 404 {
		t.Errorf("failed = %+v", failed)
	}

	stats, err := repo.Stats(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d stats, want 2", len(stats))
	}
	if stats[0].Op != "get_course" || stats[0].Count != 2 || stats[0].Failures != 1 || stats[0].AvgLatencyMs != 20 {
		t.Errorf("get_course stats = %+v", stats[0])
	}
	if stats[1].Op != "list_courses" || stats[1].Count != 1 || stats[1].Failures != 0 {
		t.Errorf("list_courses stats = %+v", stats[1])
	}
}
