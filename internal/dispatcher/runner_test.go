package dispatcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/local/pdfstudio/internal/artifact"
	"github.com/local/pdfstudio/internal/pdftest"
	"github.com/local/pdfstudio/internal/rebuild"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	return NewRunner(nil, artifact.New(t.TempDir(), nil, ""))
}

func writeInput(t *testing.T, pages int) JobInput {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.pdf")
	if err := os.WriteFile(path, pdftest.PDF(pages), 0o644); err != nil {
		t.Fatal(err)
	}
	return JobInput{Name: "input.pdf", Ref: path}
}

func resultWidths(t *testing.T, ref string) []float64 {
	t.Helper()
	data, err := os.ReadFile(ref)
	if err != nil {
		t.Fatal(err)
	}
	widths, err := pdftest.Widths(data)
	if err != nil {
		t.Fatal(err)
	}
	return widths
}

func TestRunRemove(t *testing.T) {
	r := newTestRunner(t)
	job := NewJob(OpRemove)
	job.Inputs = []JobInput{writeInput(t, 5)}
	job.Selected = []int{2, 4}

	ref, err := r.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if filepath.Base(ref) != "input_modified.pdf" {
		t.Errorf("result name = %s, want input_modified.pdf", filepath.Base(ref))
	}

	want := []float64{pdftest.WidthOf(1), pdftest.WidthOf(3), pdftest.WidthOf(5)}
	if diff := cmp.Diff(want, resultWidths(t, ref)); diff != "" {
		t.Errorf("page widths mismatch (-want +got):\n%s", diff)
	}
}

func TestRunExtract(t *testing.T) {
	r := newTestRunner(t)
	job := NewJob(OpExtract)
	job.Inputs = []JobInput{writeInput(t, 6)}
	// Click order is irrelevant; extraction sorts.
	job.Selected = []int{5, 2, 6}

	ref, err := r.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if filepath.Base(ref) != "input_extracted_pages.pdf" {
		t.Errorf("result name = %s, want input_extracted_pages.pdf", filepath.Base(ref))
	}

	want := []float64{pdftest.WidthOf(2), pdftest.WidthOf(5), pdftest.WidthOf(6)}
	if diff := cmp.Diff(want, resultWidths(t, ref)); diff != "" {
		t.Errorf("page widths mismatch (-want +got):\n%s", diff)
	}
}

func TestRunMerge(t *testing.T) {
	r := newTestRunner(t)
	job := NewJob(OpMerge)
	job.Inputs = []JobInput{writeInput(t, 3), writeInput(t, 2)}
	job.Inputs[1].Name = "second.pdf"

	ref, err := r.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if filepath.Base(ref) != "merged.pdf" {
		t.Errorf("result name = %s, want merged.pdf", filepath.Base(ref))
	}

	want := []float64{pdftest.WidthOf(1), pdftest.WidthOf(2), pdftest.WidthOf(3), pdftest.WidthOf(1), pdftest.WidthOf(2)}
	if diff := cmp.Diff(want, resultWidths(t, ref)); diff != "" {
		t.Errorf("page widths mismatch (-want +got):\n%s", diff)
	}
}

func TestRunMergeSingleInput(t *testing.T) {
	r := newTestRunner(t)
	job := NewJob(OpMerge)
	job.Inputs = []JobInput{writeInput(t, 3)}

	var ve *ValidationError
	if _, err := r.Run(context.Background(), job); !errors.As(err, &ve) {
		t.Fatalf("Run = %v, want ValidationError", err)
	}
}

func TestRunRemoveAllPages(t *testing.T) {
	r := newTestRunner(t)
	job := NewJob(OpRemove)
	job.Inputs = []JobInput{writeInput(t, 2)}
	job.Selected = []int{1, 2}

	_, err := r.Run(context.Background(), job)
	if !errors.Is(err, rebuild.ErrEmptyKeepList) {
		t.Fatalf("Run = %v, want ErrEmptyKeepList", err)
	}
}

func TestRunLockUnsupported(t *testing.T) {
	r := newTestRunner(t)
	job := NewJob(OpLock)
	job.Inputs = []JobInput{writeInput(t, 1)}

	var ve *ValidationError
	if _, err := r.Run(context.Background(), job); !errors.As(err, &ve) {
		t.Fatalf("Run = %v, want ValidationError", err)
	}
}

func TestRunUnknownOp(t *testing.T) {
	r := newTestRunner(t)
	job := NewJob("rotate")
	job.Inputs = []JobInput{writeInput(t, 1)}

	var ve *ValidationError
	if _, err := r.Run(context.Background(), job); !errors.As(err, &ve) {
		t.Fatalf("Run = %v, want ValidationError", err)
	}
}

func TestRunNoInputs(t *testing.T) {
	r := newTestRunner(t)
	job := NewJob(OpRemove)

	var ve *ValidationError
	if _, err := r.Run(context.Background(), job); !errors.As(err, &ve) {
		t.Fatalf("Run = %v, want ValidationError", err)
	}
}

func TestJobEncodeDecode(t *testing.T) {
	job := NewJob(OpExtract)
	job.Inputs = []JobInput{{Name: "a.pdf", Ref: "/tmp/a.pdf"}}
	job.Selected = []int{3, 1}

	got, err := DecodeJob(job.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(job, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
