package session

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/local/pdfstudio/internal/pdftest"
	"github.com/local/pdfstudio/internal/render"
	"github.com/local/pdfstudio/internal/workerpool"
)

func newTestManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	pool := workerpool.New(2)
	t.Cleanup(pool.Destroy)
	return NewManager(pool, render.New(0), ttl)
}

func TestOpenGetClose(t *testing.T) {
	m := newTestManager(t, time.Minute)

	s, err := m.Open("doc.pdf", pdftest.PDF(3))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Handle().PageCount() != 3 {
		t.Fatalf("PageCount = %d, want 3", s.Handle().PageCount())
	}
	if diff := cmp.Diff([]int{1, 2, 3}, s.State().Order()); diff != "" {
		t.Errorf("initial order mismatch (-want +got):\n%s", diff)
	}

	got, ok := m.Get(s.ID)
	if !ok || got != s {
		t.Fatal("Get should return the opened session")
	}

	m.Close(s.ID)
	if _, ok := m.Get(s.ID); ok {
		t.Fatal("Get after Close should miss")
	}
	if m.Len() != 0 {
		t.Fatalf("Len = %d, want 0", m.Len())
	}
}

func TestSurfaceIsStable(t *testing.T) {
	m := newTestManager(t, time.Minute)
	s, err := m.Open("doc.pdf", pdftest.PDF(2))
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close(s.ID)

	if s.Surface(1) != s.Surface(1) {
		t.Fatal("Surface should return the same instance per page")
	}
	if s.Surface(1) == s.Surface(2) {
		t.Fatal("pages should not share a surface")
	}
}

func TestReplaceResetsState(t *testing.T) {
	m := newTestManager(t, time.Minute)
	s, err := m.Open("old.pdf", pdftest.PDF(3))
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close(s.ID)

	if err := s.State().Toggle(2); err != nil {
		t.Fatal(err)
	}
	oldHandle := s.Handle().ID()

	s, err = m.Replace(s.ID, "new.pdf", pdftest.PDF(5))
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if s.Name != "new.pdf" {
		t.Errorf("Name = %s, want new.pdf", s.Name)
	}
	if s.Handle().ID() == oldHandle {
		t.Error("Replace should produce a fresh handle")
	}
	if s.Handle().PageCount() != 5 {
		t.Errorf("PageCount = %d, want 5", s.Handle().PageCount())
	}
	if len(s.State().Selected()) != 0 {
		t.Errorf("Selected = %v, want empty after replace", s.State().Selected())
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4, 5}, s.State().Order()); diff != "" {
		t.Errorf("order after replace mismatch (-want +got):\n%s", diff)
	}
}

func TestSweepClosesIdleSessions(t *testing.T) {
	m := newTestManager(t, time.Millisecond)
	s, err := m.Open("doc.pdf", pdftest.PDF(1))
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(10 * time.Millisecond)
	m.Sweep()

	if _, ok := m.Get(s.ID); ok {
		t.Fatal("idle session should have been swept")
	}
}
