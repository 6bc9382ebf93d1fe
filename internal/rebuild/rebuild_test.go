package rebuild

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/local/pdfstudio/internal/pdftest"
)

func widths(t *testing.T, data []byte) []float64 {
	t.Helper()
	ws, err := pdftest.Widths(data)
	if err != nil {
		t.Fatalf("reading page dims: %v", err)
	}
	return ws
}

func wantWidths(pages ...int) []float64 {
	ws := make([]float64, len(pages))
	for i, p := range pages {
		ws[i] = pdftest.WidthOf(p)
	}
	return ws
}

func TestPageCount(t *testing.T) {
	n, err := PageCount(pdftest.PDF(7))
	if err != nil {
		t.Fatal(err)
	}
	if n != 7 {
		t.Fatalf("PageCount = %d, want 7", n)
	}
}

func TestRemoveNoReorder(t *testing.T) {
	src := pdftest.PDF(5)
	out, err := Remove(src, nil, []int{2, 4})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(wantWidths(1, 3, 5), widths(t, out)); diff != "" {
		t.Errorf("output pages mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveHonorsOrder(t *testing.T) {
	src := pdftest.PDF(5)
	out, err := Remove(src, []int{5, 4, 3, 2, 1}, []int{2, 4})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(wantWidths(5, 3, 1), widths(t, out)); diff != "" {
		t.Errorf("output pages mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveAllPagesRejected(t *testing.T) {
	src := pdftest.PDF(3)
	_, err := Remove(src, nil, []int{1, 2, 3})
	if !errors.Is(err, ErrEmptyKeepList) {
		t.Fatalf("Remove of every page = %v, want ErrEmptyKeepList", err)
	}
	var re *Error
	if !errors.As(err, &re) || re.Op != "remove" {
		t.Errorf("error = %#v, want *Error with Op remove", err)
	}
}

func TestExtractSortsClickOrder(t *testing.T) {
	src := pdftest.PDF(6)
	out, err := Extract(src, []int{5, 2, 6})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(wantWidths(2, 5, 6), widths(t, out)); diff != "" {
		t.Errorf("output pages mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractEmptyRejected(t *testing.T) {
	if _, err := Extract(pdftest.PDF(2), nil); !errors.Is(err, ErrEmptyKeepList) {
		t.Fatalf("Extract with empty selection = %v, want ErrEmptyKeepList", err)
	}
}

func TestCollectOutOfRange(t *testing.T) {
	if _, err := Collect(pdftest.PDF(3), []int{1, 4}); err == nil {
		t.Fatal("Collect with out-of-range page should fail")
	}
}

func TestMergeKeepsInputOrder(t *testing.T) {
	a := pdftest.PDF(3)
	b := pdftest.PDF(2)
	out, err := Merge([]Input{{Name: "a.pdf", Data: a}, {Name: "b.pdf", Data: b}})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(wantWidths(1, 2, 3, 1, 2), widths(t, out)); diff != "" {
		t.Errorf("merged pages mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeNamesBrokenFile(t *testing.T) {
	good := pdftest.PDF(1)
	_, err := Merge([]Input{
		{Name: "good.pdf", Data: good},
		{Name: "broken.pdf", Data: []byte("definitely not a pdf")},
	})
	if err == nil {
		t.Fatal("merge with broken input should fail")
	}
	var re *Error
	if !errors.As(err, &re) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if re.File != "broken.pdf" {
		t.Errorf("offending file = %q, want broken.pdf", re.File)
	}
}

func TestCorruptSource(t *testing.T) {
	if _, err := Remove([]byte("junk"), nil, []int{1}); err == nil {
		t.Fatal("Remove on junk bytes should fail")
	}
}
