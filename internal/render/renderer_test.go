package render

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/local/pdfstudio/internal/scheduler"
)

type fakeSource struct {
	w, h      float64
	failCount int
	calls     int
}

func (f *fakeSource) PageSize(page int) (float64, float64, error) {
	return f.w, f.h, nil
}

func (f *fakeSource) RenderImage(page int, scale float64) (image.Image, error) {
	f.calls++
	if f.calls <= f.failCount {
		return nil, errors.New("render blew up")
	}
	return image.NewRGBA(image.Rect(0, 0, int(f.w*scale), int(f.h*scale))), nil
}

func TestOptimalScale(t *testing.T) {
	r := New(160)

	if got := r.OptimalScale(612, 792); got != 160.0/612 {
		t.Errorf("OptimalScale(612, 792) = %v, want %v", got, 160.0/612)
	}

	// Abnormally large pages are capped: 160/300 would exceed the cap.
	if got := r.OptimalScale(300, 20000); got != largePageScaleCap {
		t.Errorf("large page scale = %v, want %v", got, largePageScaleCap)
	}

	// A large page whose natural scale is already below the cap keeps it.
	if got := r.OptimalScale(10000, 10000); got != 160.0/10000 {
		t.Errorf("huge page scale = %v, want %v", got, 160.0/10000)
	}

	if got := r.OptimalScale(0, 100); got != 1 {
		t.Errorf("degenerate width scale = %v, want 1", got)
	}
}

func TestThumbnailFirstAttempt(t *testing.T) {
	r := New(160)
	src := &fakeSource{w: 612, h: 792}
	surf := &Surface{}

	if err := r.Thumbnail(context.Background(), src, 1, surf); err != nil {
		t.Fatal(err)
	}
	if surf.Status() != StatusRendered {
		t.Errorf("status = %v, want rendered", surf.Status())
	}
	if surf.Image() == nil {
		t.Fatal("surface image is nil after render")
	}
	if src.calls != 1 {
		t.Errorf("render calls = %d, want 1", src.calls)
	}
}

func TestThumbnailRetriesOnce(t *testing.T) {
	r := New(160)
	src := &fakeSource{w: 612, h: 792, failCount: 1}
	surf := &Surface{}

	if err := r.Thumbnail(context.Background(), src, 1, surf); err != nil {
		t.Fatal(err)
	}
	if surf.Status() != StatusRendered {
		t.Errorf("status = %v, want rendered", surf.Status())
	}
	if src.calls != 2 {
		t.Errorf("render calls = %d, want 2", src.calls)
	}
}

func TestThumbnailPlaceholderAfterRetry(t *testing.T) {
	r := New(160)
	src := &fakeSource{w: 612, h: 792, failCount: 2}
	surf := &Surface{}

	// With the placeholder in place the page counts as handled.
	if err := r.Thumbnail(context.Background(), src, 1, surf); err != nil {
		t.Fatalf("Thumbnail on placeholder path = %v, want nil", err)
	}
	if src.calls != 2 {
		t.Errorf("render calls = %d, want exactly 2 (one retry)", src.calls)
	}
	// The surface is never left blank: a placeholder is drawn.
	if surf.Status() != StatusFailed {
		t.Errorf("status = %v, want error", surf.Status())
	}
	img := surf.Image()
	if img == nil {
		t.Fatal("surface image is nil, want placeholder")
	}
	if img.Bounds().Dx() < 1 || img.Bounds().Dy() < 1 {
		t.Errorf("placeholder bounds = %v, want non-empty", img.Bounds())
	}
}

// A page that ends on the placeholder is recorded as loaded and must
// not be rendered again on later scheduling passes.
func TestPlaceholderPageNotRerendered(t *testing.T) {
	r := New(160)
	src := &fakeSource{w: 612, h: 792, failCount: 99}
	surf := &Surface{}

	sched := scheduler.New(3, func(ctx context.Context, page int) error {
		return r.Thumbnail(ctx, src, page, surf)
	})

	if got := sched.Schedule(context.Background(), []int{1}); len(got) != 1 || got[0] != 1 {
		t.Fatalf("first pass loaded %v, want [1]", got)
	}
	if src.calls != 2 {
		t.Fatalf("render calls after first pass = %d, want 2", src.calls)
	}

	if got := sched.Schedule(context.Background(), []int{1}); got != nil {
		t.Fatalf("second pass loaded %v, want none", got)
	}
	if src.calls != 2 {
		t.Errorf("render calls after second pass = %d, want still 2", src.calls)
	}
	if surf.Status() != StatusFailed {
		t.Errorf("status = %v, want error", surf.Status())
	}
}

func TestStatusString(t *testing.T) {
	if StatusUnrendered.String() != "unrendered" || StatusRendered.String() != "rendered" {
		t.Error("status strings are off")
	}
}
