package document

import (
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfstudio/internal/workerpool"
)

// LoadError means the source bytes cannot be parsed as a PDF (corrupt
// header, unsupported encryption, truncated stream). It is always
// user-facing and never worth an automatic retry.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("cannot load document: %v", e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// Handle is an open, navigable reference to a parsed PDF. It is owned
// by exactly one component instance, binds to one pool worker for its
// whole lifetime and must be destroyed explicitly: MuPDF allocates
// internal buffers that leak across repeated loads otherwise.
type Handle struct {
	id     string
	worker *workerpool.Worker
	doc    *fitz.Document
	pages  int

	mu     sync.Mutex
	closed bool
}

// Open reads the full byte buffer into a document handle. The decoding
// engine needs random access to serve arbitrary pages, so a buffer, not
// a stream, is the input.
func Open(pool *workerpool.Pool, data []byte) (*Handle, error) {
	w := pool.Bind()

	var doc *fitz.Document
	var openErr error
	if err := w.Run(func() {
		doc, openErr = fitz.NewFromMemory(data)
	}); err != nil {
		return nil, err
	}
	if openErr != nil {
		return nil, &LoadError{Err: openErr}
	}

	h := &Handle{
		id:     uuid.NewString(),
		worker: w,
		doc:    doc,
		pages:  doc.NumPage(),
	}
	log.Debug().Str("doc", h.id).Int("pages", h.pages).Int("worker", w.ID()).Msg("document opened")
	return h, nil
}

// ID identifies this handle. A replaced document gets a new ID, which
// lets async continuations detect that their result became stale.
func (h *Handle) ID() string { return h.id }

// PageCount is available synchronously once Open has returned.
func (h *Handle) PageCount() int { return h.pages }

// Worker returns the pool worker this handle is bound to.
func (h *Handle) Worker() *workerpool.Worker { return h.worker }

// PageSize returns the width and height of a page in points at scale 1.
// Pages are 1-based.
func (h *Handle) PageSize(page int) (w, ht float64, err error) {
	if err := h.checkPage(page); err != nil {
		return 0, 0, err
	}
	var bounds image.Rectangle
	var boundErr error
	runErr := h.worker.Run(func() {
		bounds, boundErr = h.doc.Bound(page - 1)
	})
	if runErr != nil {
		return 0, 0, runErr
	}
	if boundErr != nil {
		return 0, 0, fmt.Errorf("page %d bounds: %w", page, boundErr)
	}
	return float64(bounds.Dx()), float64(bounds.Dy()), nil
}

// RenderImage rasterizes one page at the given scale, where scale 1.0
// corresponds to 72 DPI.
func (h *Handle) RenderImage(page int, scale float64) (image.Image, error) {
	if err := h.checkPage(page); err != nil {
		return nil, err
	}
	if scale <= 0 {
		return nil, fmt.Errorf("invalid render scale %v", scale)
	}
	var img image.Image
	var renderErr error
	runErr := h.worker.Run(func() {
		img, renderErr = h.doc.ImageDPI(page-1, 72*scale)
	})
	if runErr != nil {
		return nil, runErr
	}
	if renderErr != nil {
		return nil, fmt.Errorf("render page %d: %w", page, renderErr)
	}
	return img, nil
}

func (h *Handle) checkPage(page int) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return fmt.Errorf("document %s already destroyed", h.id)
	}
	if page < 1 || page > h.pages {
		return fmt.Errorf("page %d out of range (document has %d pages)", page, h.pages)
	}
	return nil
}

// Destroy releases the engine buffers. Safe to call more than once.
func (h *Handle) Destroy() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	_ = h.worker.Run(func() {
		if err := h.doc.Close(); err != nil {
			log.Warn().Err(err).Str("doc", h.id).Msg("closing document handle")
		}
	})
	log.Debug().Str("doc", h.id).Msg("document destroyed")
}
