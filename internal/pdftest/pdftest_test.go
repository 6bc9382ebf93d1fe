package pdftest

import "testing"

// One- and two-page fixtures are the smallest files the generator
// emits; they must still parse and carry their identity widths.
func TestSmallFixturesParse(t *testing.T) {
	for n := 1; n <= 5; n++ {
		widths, err := Widths(PDF(n))
		if err != nil {
			t.Fatalf("Widths(PDF(%d)): %v", n, err)
		}
		if len(widths) != n {
			t.Fatalf("PDF(%d) has %d pages", n, len(widths))
		}
		for i, w := range widths {
			if w != WidthOf(i+1) {
				t.Errorf("PDF(%d) page %d width = %v, want %v", n, i+1, w, WidthOf(i+1))
			}
		}
	}
}
