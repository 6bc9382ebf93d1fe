package render

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfstudio/internal/metrics"
)

// ThumbnailTargetWidth is the pixel width thumbnails aim for.
const ThumbnailTargetWidth = 160

// Pages whose point area exceeds this get their render scale capped
// even lower to bound memory and latency.
const (
	largePageArea     = 5_000_000
	largePageScaleCap = 0.3
)

// Status tracks the rendered state of one page surface.
type Status int

const (
	StatusUnrendered Status = iota
	StatusRendering
	StatusRendered
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRendering:
		return "rendering"
	case StatusRendered:
		return "rendered"
	case StatusFailed:
		return "error"
	default:
		return "unrendered"
	}
}

// Surface is a caller-provided pixel buffer for one page at one scale.
// The image is replaced wholesale on every render, never patched, so
// readers always see a complete frame. Thumbnail-scale and zoom-scale
// renders of the same page live on separate surfaces.
type Surface struct {
	mu     sync.Mutex
	img    image.Image
	status Status
}

// Image returns the current pixel buffer, nil until first render.
func (s *Surface) Image() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img
}

// Status returns the surface's render state.
func (s *Surface) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Surface) set(img image.Image, status Status) {
	s.mu.Lock()
	s.img = img
	s.status = status
	s.mu.Unlock()
}

// PageSource is the slice of a document handle the renderer needs.
type PageSource interface {
	PageSize(page int) (w, h float64, err error)
	RenderImage(page int, scale float64) (image.Image, error)
}

// Renderer rasterizes single pages into surfaces.
type Renderer struct {
	targetWidth int
}

// New returns a renderer with the given thumbnail target width;
// non-positive means ThumbnailTargetWidth.
func New(targetWidth int) *Renderer {
	if targetWidth <= 0 {
		targetWidth = ThumbnailTargetWidth
	}
	return &Renderer{targetWidth: targetWidth}
}

// OptimalScale computes the scale at which pageW approximates the
// target width, capped low for abnormally large pages.
func (r *Renderer) OptimalScale(pageW, pageH float64) float64 {
	if pageW <= 0 {
		return 1
	}
	scale := float64(r.targetWidth) / pageW
	if pageW*pageH > largePageArea && scale > largePageScaleCap {
		return largePageScaleCap
	}
	return scale
}

// Thumbnail renders one page into the surface at the optimal thumbnail
// scale. The fallback ladder guarantees the surface never ends up blank:
// primary render, then clear-and-retry once, then a textual error
// placeholder. Once the placeholder is in place the page counts as
// handled and Thumbnail returns nil, so a broken page is rendered at
// most twice and never retried on later viewport passes. Only a
// cancelled context returns an error.
func (r *Renderer) Thumbnail(ctx context.Context, src PageSource, page int, surf *Surface) error {
	start := time.Now()
	surf.set(surf.Image(), StatusRendering)

	w, h, err := src.PageSize(page)
	if err != nil {
		surf.set(r.placeholder(r.targetWidth, r.targetWidth*3/2), StatusFailed)
		metrics.ObserveRender("error", time.Since(start))
		log.Warn().Err(err).Int("page", page).Msg("page size lookup failed, placeholder shown")
		return nil
	}
	scale := r.OptimalScale(w, h)
	pxW := int(w * scale)
	pxH := int(h * scale)

	img, renderErr := src.RenderImage(page, scale)
	if renderErr == nil {
		surf.set(img, StatusRendered)
		metrics.ObserveRender("ok", time.Since(start))
		return nil
	}
	log.Warn().Err(renderErr).Int("page", page).Msg("page render failed, retrying once")

	if err := ctx.Err(); err != nil {
		surf.set(surf.Image(), StatusUnrendered)
		return err
	}

	// Clear to a neutral background before the retry so a partial first
	// attempt cannot bleed through.
	surf.set(fill(pxW, pxH, color.RGBA{R: 0xf8, G: 0xf8, B: 0xf8, A: 0xff}), StatusRendering)

	img, retryErr := src.RenderImage(page, scale)
	if retryErr == nil {
		surf.set(img, StatusRendered)
		metrics.ObserveRender("ok_retry", time.Since(start))
		return nil
	}

	surf.set(r.placeholder(pxW, pxH), StatusFailed)
	metrics.ObserveRender("error", time.Since(start))
	log.Error().Err(retryErr).Int("page", page).Msg("page render failed after retry, placeholder shown")
	return nil
}

func fill(w, h int, c color.Color) *image.RGBA {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}
