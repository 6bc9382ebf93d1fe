// Package pdftest builds tiny but valid PDF files in memory for tests.
//
// Each page gets a distinct media box width (BaseWidth + page number),
// so after any page-plan operation the identity of every output page
// can be recovered from its dimensions alone, without text extraction.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// BaseWidth is the media box width offset; page p is BaseWidth + p
// points wide. Height is fixed.
const (
	BaseWidth  = 500
	PageHeight = 700
)

// WidthOf returns the media box width that PDF assigns to page p.
func WidthOf(p int) float64 { return float64(BaseWidth + p) }

// PDF returns a minimal n-page PDF. Pages are empty; only structure and
// per-page media boxes matter.
func PDF(n int) []byte {
	if n < 1 {
		panic("pdftest: page count must be positive")
	}

	var buf bytes.Buffer
	offsets := make([]int, 0, n+2)

	write := func(format string, args ...any) {
		fmt.Fprintf(&buf, format, args...)
	}
	object := func(body string, args ...any) {
		offsets = append(offsets, buf.Len())
		write(body, args...)
	}

	write("%%PDF-1.4\n")
	// pdfcpu locates startxref by scanning only the last 512 bytes of
	// the file; pad the header so even one-page fixtures clear that
	// window.
	write("%%%s\n", strings.Repeat("0", 512))

	object("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	kids := &bytes.Buffer{}
	for p := 1; p <= n; p++ {
		if p > 1 {
			kids.WriteByte(' ')
		}
		fmt.Fprintf(kids, "%d 0 R", p+2)
	}
	object("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", kids.String(), n)

	for p := 1; p <= n; p++ {
		object("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << >> >>\nendobj\n",
			p+2, BaseWidth+p, PageHeight)
	}

	xrefOffset := buf.Len()
	write("xref\n0 %d\n", len(offsets)+1)
	write("0000000000 65535 f \n")
	for _, off := range offsets {
		write("%010d 00000 n \n", off)
	}
	write("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefOffset)

	return buf.Bytes()
}
