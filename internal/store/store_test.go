package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func TestStartFinish(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Start(ctx, "job-1", KindPDF, "report.pdf", "hi"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	j, err := s.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if j.Status != StatusRunning || j.Kind != KindPDF || j.Source != "report.pdf" || j.Language != "hi" {
		t.Errorf("unexpected job after Start: %+v", j)
	}

	if err := s.Finish(ctx, "job-1", "/out/job-1/translated_document.pdf", nil); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	j, _ = s.Get(ctx, "job-1")
	if j.Status != StatusDone || j.OutputPath != "/out/job-1/translated_document.pdf" || j.Error != "" {
		t.Errorf("unexpected job after Finish: %+v", j)
	}
	if !j.UpdatedAt.After(j.CreatedAt) {
		t.Errorf("UpdatedAt %v not after CreatedAt %v", j.UpdatedAt, j.CreatedAt)
	}
}

func TestFinishFailed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Start(ctx, "job-2", KindDub, "talk.mp4", "ta"); err != nil {
		t.Fatal(err)
	}
	if err := s.Finish(ctx, "job-2", "", errors.New("could not understand audio")); err != nil {
		t.Fatal(err)
	}

	j, _ := s.Get(ctx, "job-2")
	if j.Status != StatusFailed || j.Error != "could not understand audio" {
		t.Errorf("unexpected failed job: %+v", j)
	}
}

func TestFinishUnknown(t *testing.T) {
	s := newTestStore(t)
	err := s.Finish(context.Background(), "missing", "", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Finish() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestDuplicateStart(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Start(ctx, "dup", KindStory, "prompt", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(ctx, "dup", KindStory, "prompt", ""); err == nil {
		t.Error("expected error for duplicate job id")
	}
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Start(ctx, id, KindStory, "prompt "+id, ""); err != nil {
			t.Fatal(err)
		}
	}

	jobs, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
	if jobs[0].ID != "c" || jobs[1].ID != "b" {
		t.Errorf("order = %s,%s want c,b", jobs[0].ID, jobs[1].ID)
	}

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("got %d jobs, want 3", len(all))
	}
}

func TestListEmpty(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	jobs, err := s.List(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if jobs == nil || len(jobs) != 0 {
		t.Errorf("List() = %v, want empty non-nil slice", jobs)
	}
}
