package document

import (
	"errors"
	"testing"

	"github.com/local/pdfstudio/internal/pdftest"
	"github.com/local/pdfstudio/internal/workerpool"
)

func TestOpenAndNavigate(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Destroy()

	h, err := Open(pool, pdftest.PDF(3))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Destroy()

	if got := h.PageCount(); got != 3 {
		t.Fatalf("PageCount = %d, want 3", got)
	}
	for page := 1; page <= 3; page++ {
		w, ht, err := h.PageSize(page)
		if err != nil {
			t.Fatalf("PageSize(%d): %v", page, err)
		}
		if w <= 0 || ht <= 0 {
			t.Errorf("PageSize(%d) = %v x %v, want positive", page, w, ht)
		}
	}
}

func TestOpenBadBytes(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Destroy()

	var le *LoadError
	if _, err := Open(pool, []byte("this is not a pdf")); !errors.As(err, &le) {
		t.Fatalf("Open bad bytes = %v, want LoadError", err)
	}
}

func TestPageOutOfRange(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Destroy()

	h, err := Open(pool, pdftest.PDF(2))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Destroy()

	if _, _, err := h.PageSize(0); err == nil {
		t.Error("PageSize(0) should fail")
	}
	if _, err := h.RenderImage(3, 1.0); err == nil {
		t.Error("RenderImage(3) on 2-page document should fail")
	}
}

func TestDestroyIdempotent(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Destroy()

	h, err := Open(pool, pdftest.PDF(1))
	if err != nil {
		t.Fatal(err)
	}
	h.Destroy()
	h.Destroy()

	if _, _, err := h.PageSize(1); err == nil {
		t.Error("PageSize after Destroy should fail")
	}
}
