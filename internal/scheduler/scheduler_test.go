package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func noopRender(ctx context.Context, page int) error { return nil }

func order(n int) []int {
	o := make([]int, n)
	for i := range o {
		o[i] = i + 1
	}
	return o
}

func TestVisibleEagerDefault(t *testing.T) {
	s := New(25, noopRender)

	got := s.Visible(order(25), Viewport{}, Layout{})
	if diff := cmp.Diff(order(10), got); diff != "" {
		t.Errorf("eager default mismatch (-want +got):\n%s", diff)
	}

	// Fewer pages than the eager count.
	s = New(3, noopRender)
	got = s.Visible(order(3), Viewport{}, Layout{})
	if diff := cmp.Diff([]int{1, 2, 3}, got); diff != "" {
		t.Errorf("eager default mismatch (-want +got):\n%s", diff)
	}
}

func TestVisibleGeometry(t *testing.T) {
	s := New(12, noopRender)
	layout := Layout{Columns: 3, ItemHeight: 100, Gap: 10}

	// Viewport covering rows 1 and 2 (pages 4..9).
	got := s.Visible(order(12), Viewport{Top: 115, Height: 200}, layout)
	if diff := cmp.Diff([]int{4, 5, 6, 7, 8, 9}, got); diff != "" {
		t.Errorf("visible mismatch (-want +got):\n%s", diff)
	}

	// Reordered pages: visibility follows display position, not number.
	reordered := []int{12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	got = s.Visible(reordered, Viewport{Top: 0, Height: 100}, layout)
	if diff := cmp.Diff([]int{12, 11, 10}, got); diff != "" {
		t.Errorf("visible mismatch (-want +got):\n%s", diff)
	}
}

func TestScheduleSkipsLoaded(t *testing.T) {
	var mu sync.Mutex
	rendered := map[int]int{}
	s := New(10, func(ctx context.Context, page int) error {
		mu.Lock()
		rendered[page]++
		mu.Unlock()
		return nil
	})

	newly := s.Schedule(context.Background(), []int{1, 2, 3})
	if diff := cmp.Diff([]int{1, 2, 3}, newly); diff != "" {
		t.Fatalf("first batch mismatch (-want +got):\n%s", diff)
	}

	// Overlapping second batch renders only the remainder.
	newly = s.Schedule(context.Background(), []int{2, 3, 4})
	if diff := cmp.Diff([]int{4}, newly); diff != "" {
		t.Fatalf("second batch mismatch (-want +got):\n%s", diff)
	}
	for p := 1; p <= 4; p++ {
		if rendered[p] != 1 {
			t.Errorf("page %d rendered %d times, want 1", p, rendered[p])
		}
	}
}

func TestScheduleOutOfOrderCompletion(t *testing.T) {
	// Page 2 blocks until page 5 has completed; the loaded set must be
	// correct regardless of arrival order.
	page5Done := make(chan struct{})
	s := New(5, func(ctx context.Context, page int) error {
		switch page {
		case 2:
			select {
			case <-page5Done:
			case <-time.After(5 * time.Second):
				return errors.New("timed out waiting for page 5")
			}
		case 5:
			close(page5Done)
		}
		return nil
	})

	newly := s.Schedule(context.Background(), []int{2, 5})
	if diff := cmp.Diff([]int{2, 5}, newly); diff != "" {
		t.Fatalf("newly loaded mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 5}, s.Loaded()); diff != "" {
		t.Fatalf("loaded set mismatch (-want +got):\n%s", diff)
	}
}

func TestScheduleContainsFailures(t *testing.T) {
	s := New(5, func(ctx context.Context, page int) error {
		if page == 3 {
			return errors.New("boom")
		}
		return nil
	})

	newly := s.Schedule(context.Background(), []int{1, 2, 3, 4, 5})
	if diff := cmp.Diff([]int{1, 2, 4, 5}, newly); diff != "" {
		t.Fatalf("newly loaded mismatch (-want +got):\n%s", diff)
	}
	if s.IsLoaded(3) {
		t.Error("failed page recorded as loaded")
	}

	// The failed page is retried on the next pass.
	attempts := 0
	s2 := New(1, func(ctx context.Context, page int) error {
		attempts++
		if attempts == 1 {
			return errors.New("boom")
		}
		return nil
	})
	s2.Schedule(context.Background(), []int{1})
	newly = s2.Schedule(context.Background(), []int{1})
	if diff := cmp.Diff([]int{1}, newly); diff != "" {
		t.Fatalf("retry mismatch (-want +got):\n%s", diff)
	}
}

func TestResetDropsStaleCompletions(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	s := New(5, func(ctx context.Context, page int) error {
		close(started)
		<-release
		return nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Schedule(context.Background(), []int{1})
	}()

	<-started
	s.Reset(5, noopRender)
	close(release)
	wg.Wait()

	if got := s.Loaded(); len(got) != 0 {
		t.Fatalf("loaded after reset = %v, want empty", got)
	}
}
