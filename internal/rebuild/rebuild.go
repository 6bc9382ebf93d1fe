// Package rebuild serializes new PDFs from page plans. It deliberately
// uses a byte-level page-copy engine (pdfcpu) that is distinct from the
// rendering engine: rebuild operations open their own independent
// handle over the source bytes and never share state with a render
// handle.
package rebuild

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"
)

// ErrEmptyKeepList rejects a rebuild that would keep zero pages; a
// zero-page document is not worth serializing.
var ErrEmptyKeepList = errors.New("no pages left to keep")

// Error is a whole-document rebuild failure. It aborts the operation
// with no partial output. File names the offending source when known.
type Error struct {
	Op   string
	File string
	Err  error
}

func (e *Error) Error() string {
	if e.File != "" {
		return fmt.Sprintf("rebuild %s: %s: %v", e.Op, e.File, e.Err)
	}
	return fmt.Sprintf("rebuild %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func conf() *model.Configuration {
	c := model.NewDefaultConfiguration()
	c.ValidationMode = model.ValidationRelaxed
	return c
}

// PageCount returns the number of pages in data.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), conf())
	if err != nil {
		return 0, fmt.Errorf("pdf page count failed: %w", err)
	}
	return n, nil
}

// Collect copies the given pages of data, in exactly the given order,
// into a new document.
func Collect(data []byte, pages []int) ([]byte, error) {
	start := time.Now()
	if len(pages) == 0 {
		return nil, &Error{Op: "collect", Err: ErrEmptyKeepList}
	}

	total, err := PageCount(data)
	if err != nil {
		return nil, &Error{Op: "collect", Err: err}
	}
	selected := make([]string, len(pages))
	for i, p := range pages {
		if p < 1 || p > total {
			return nil, &Error{Op: "collect", Err: fmt.Errorf("page %d out of range (document has %d pages)", p, total)}
		}
		selected[i] = strconv.Itoa(p)
	}

	var out bytes.Buffer
	if err := api.Collect(bytes.NewReader(data), &out, selected, conf()); err != nil {
		return nil, &Error{Op: "collect", Err: err}
	}
	log.Debug().Int("pages_in", total).Int("pages_out", len(pages)).Dur("took", time.Since(start)).Msg("collected page plan")
	return out.Bytes(), nil
}

// Remove keeps the display order (or the natural sequence when order is
// empty) minus the pages selected for removal.
func Remove(data []byte, order []int, remove []int) ([]byte, error) {
	total, err := PageCount(data)
	if err != nil {
		return nil, &Error{Op: "remove", Err: err}
	}
	if len(order) == 0 {
		order = make([]int, total)
		for i := range order {
			order[i] = i + 1
		}
	}

	drop := make(map[int]bool, len(remove))
	for _, p := range remove {
		drop[p] = true
	}
	var keep []int
	for _, p := range order {
		if !drop[p] {
			keep = append(keep, p)
		}
	}
	if len(keep) == 0 {
		return nil, &Error{Op: "remove", Err: ErrEmptyKeepList}
	}

	out, err := Collect(data, keep)
	if err != nil {
		var re *Error
		if errors.As(err, &re) {
			re.Op = "remove"
		}
		return nil, err
	}
	return out, nil
}

// Extract keeps exactly the selected pages, sorted ascending so the
// output order is deterministic regardless of click order.
func Extract(data []byte, selected []int) ([]byte, error) {
	if len(selected) == 0 {
		return nil, &Error{Op: "extract", Err: ErrEmptyKeepList}
	}
	keep := append([]int(nil), selected...)
	sort.Ints(keep)
	out, err := Collect(data, keep)
	if err != nil {
		var re *Error
		if errors.As(err, &re) {
			re.Op = "extract"
		}
		return nil, err
	}
	return out, nil
}

// Input is one merge source.
type Input struct {
	Name string
	Data []byte
}

// Merge concatenates the inputs' pages in the given input order. A
// broken input fails the whole merge and names the offending file.
func Merge(inputs []Input) ([]byte, error) {
	start := time.Now()
	if len(inputs) == 0 {
		return nil, &Error{Op: "merge", Err: errors.New("no input files")}
	}

	// Validate inputs up front so a later engine failure cannot leave
	// the user guessing which file broke.
	rscs := make([]io.ReadSeeker, len(inputs))
	for i, in := range inputs {
		if err := api.Validate(bytes.NewReader(in.Data), conf()); err != nil {
			return nil, &Error{Op: "merge", File: in.Name, Err: fmt.Errorf("not a usable PDF (corrupted or password-protected): %w", err)}
		}
		rscs[i] = bytes.NewReader(in.Data)
	}

	var out bytes.Buffer
	if err := api.MergeRaw(rscs, &out, false, conf()); err != nil {
		return nil, &Error{Op: "merge", Err: err}
	}
	log.Debug().Int("inputs", len(inputs)).Dur("took", time.Since(start)).Msg("merged documents")
	return out.Bytes(), nil
}
