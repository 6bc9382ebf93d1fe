package inspector

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/local/pdfstudio/internal/pagestate"
)

func TestZoomClamps(t *testing.T) {
	z := New(pagestate.New(3))

	if z.Scale() != DefaultZoom {
		t.Fatalf("default zoom = %v, want %v", z.Scale(), DefaultZoom)
	}

	for i := 0; i < 10; i++ {
		z.ZoomIn()
	}
	if z.Scale() != MaxZoom {
		t.Errorf("after 10 zoom-ins scale = %v, want %v", z.Scale(), MaxZoom)
	}

	for i := 0; i < 10; i++ {
		z.ZoomOut()
	}
	if z.Scale() != MinZoom {
		t.Errorf("after 10 zoom-outs scale = %v, want %v", z.Scale(), MinZoom)
	}
}

func TestZoomStep(t *testing.T) {
	z := New(pagestate.New(1))
	if got := z.ZoomIn(); got != 2.0 {
		t.Errorf("ZoomIn from default = %v, want 2.0", got)
	}
	if got := z.ZoomOut(); got != 1.5 {
		t.Errorf("ZoomOut back = %v, want 1.5", got)
	}
}

func TestOpenRange(t *testing.T) {
	z := New(pagestate.New(4))
	var oor *pagestate.OutOfRangeError
	if err := z.Open(5); !errors.As(err, &oor) {
		t.Errorf("Open(5) = %v, want OutOfRangeError", err)
	}
	if err := z.Open(0); !errors.As(err, &oor) {
		t.Errorf("Open(0) = %v, want OutOfRangeError", err)
	}
	if err := z.Open(4); err != nil {
		t.Fatalf("Open(4): %v", err)
	}
	if z.Page() != 4 {
		t.Errorf("Page() = %d, want 4", z.Page())
	}
}

func TestToggleSharesState(t *testing.T) {
	st := pagestate.New(4)
	z := New(st)

	if err := z.ToggleSelection(); err == nil {
		t.Error("ToggleSelection with no open page should fail")
	}

	if err := z.Open(3); err != nil {
		t.Fatal(err)
	}
	if err := z.ToggleSelection(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{3}, st.Selected()); diff != "" {
		t.Errorf("shared selection mismatch (-want +got):\n%s", diff)
	}
	if err := z.ToggleSelection(); err != nil {
		t.Fatal(err)
	}
	if got := st.Selected(); len(got) != 0 {
		t.Errorf("selection after second toggle = %v, want empty", got)
	}
}
