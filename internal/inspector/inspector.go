// Package inspector renders one page at a user-adjustable resolution,
// independent of and never invalidating the thumbnail-scale render of
// the same page.
package inspector

import (
	"fmt"
	"image"
	"sync"

	"github.com/local/pdfstudio/internal/document"
	"github.com/local/pdfstudio/internal/pagestate"
)

// Zoom bounds and stepping.
const (
	MinZoom     = 0.5
	MaxZoom     = 5.0
	ZoomStep    = 0.5
	DefaultZoom = 1.5
)

// Inspector holds the zoom state for one document session. Selection
// toggles route to the shared pagestate instance, the single source of
// truth for both the grid and the zoomed view.
type Inspector struct {
	state *pagestate.State

	mu    sync.Mutex
	page  int
	scale float64
}

// New returns an inspector with no page open at the default zoom.
func New(state *pagestate.State) *Inspector {
	return &Inspector{state: state, scale: DefaultZoom}
}

// Open focuses the inspector on a page, keeping the current zoom.
func (z *Inspector) Open(page int) error {
	if page < 1 || page > z.state.PageCount() {
		return &pagestate.OutOfRangeError{Page: page, Pages: z.state.PageCount()}
	}
	z.mu.Lock()
	z.page = page
	z.mu.Unlock()
	return nil
}

// SetPage switches the inspected page (keyboard navigation); the next
// Render uses the current zoom scale.
func (z *Inspector) SetPage(page int) error { return z.Open(page) }

// Close clears the focused page.
func (z *Inspector) Close() {
	z.mu.Lock()
	z.page = 0
	z.mu.Unlock()
}

// Page returns the focused page, 0 when closed.
func (z *Inspector) Page() int {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.page
}

// Scale returns the current zoom scale.
func (z *Inspector) Scale() float64 {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.scale
}

// ZoomIn raises the scale one step, clamped to MaxZoom.
func (z *Inspector) ZoomIn() float64 {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.scale += ZoomStep
	if z.scale > MaxZoom {
		z.scale = MaxZoom
	}
	return z.scale
}

// ZoomOut lowers the scale one step, clamped to MinZoom.
func (z *Inspector) ZoomOut() float64 {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.scale -= ZoomStep
	if z.scale < MinZoom {
		z.scale = MinZoom
	}
	return z.scale
}

// ToggleSelection flips selection of the focused page in the shared
// state.
func (z *Inspector) ToggleSelection() error {
	page := z.Page()
	if page == 0 {
		return fmt.Errorf("no page open in inspector")
	}
	return z.state.Toggle(page)
}

// Render rasterizes the focused page at the current zoom scale.
func (z *Inspector) Render(h *document.Handle) (image.Image, error) {
	z.mu.Lock()
	page, scale := z.page, z.scale
	z.mu.Unlock()
	if page == 0 {
		return nil, fmt.Errorf("no page open in inspector")
	}
	img, err := h.RenderImage(page, scale)
	if err != nil {
		return nil, fmt.Errorf("zoom render page %d at %.1fx: %w", page, scale, err)
	}
	return img, nil
}
