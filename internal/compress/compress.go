// Package compress performs lossy size reduction: every page is
// rasterized at a level-dependent quality and scale, then the images
// are reassembled as full-bleed pages of a new document.
package compress

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfstudio/internal/document"
	"github.com/local/pdfstudio/internal/workerpool"
)

// Level selects the quality/scale policy of a compression run.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// policy maps a level to raster parameters. PNG is preferred only at
// the low level, where text fidelity beats byte count.
type policy struct {
	quality int
	scale   float64
	png     bool
}

func (l Level) policy() (policy, error) {
	switch l {
	case LevelLow:
		return policy{quality: 85, scale: 2.0, png: true}, nil
	case LevelMedium:
		return policy{quality: 55, scale: 1.5}, nil
	case LevelHigh:
		return policy{quality: 25, scale: 1.2}, nil
	default:
		return policy{}, fmt.Errorf("unknown compression level %q", l)
	}
}

// Error is a whole-run compression failure. Compression has no
// partial-success mode: a partially compressed output would be a
// corrupt document, so any page failure aborts everything.
type Error struct {
	Page int
	Err  error
}

func (e *Error) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("compress page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("compress: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Pipeline runs compression jobs against the shared render worker pool.
type Pipeline struct {
	pool *workerpool.Pool
}

// New returns a pipeline bound to the given pool.
func New(pool *workerpool.Pool) *Pipeline {
	return &Pipeline{pool: pool}
}

// Compress rasterizes every page of data at the level's scale and
// rebuilds a document of full-bleed images in original page order.
func (p *Pipeline) Compress(ctx context.Context, data []byte, level Level) ([]byte, error) {
	start := time.Now()
	pol, err := level.policy()
	if err != nil {
		return nil, &Error{Err: err}
	}

	h, err := document.Open(p.pool, data)
	if err != nil {
		return nil, err
	}
	defer h.Destroy()

	pages := h.PageCount()
	imgs := make([]io.Reader, 0, pages)
	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Page: page, Err: err}
		}
		encoded, err := p.rasterize(h, page, pol)
		if err != nil {
			return nil, &Error{Page: page, Err: err}
		}
		imgs = append(imgs, bytes.NewReader(encoded))
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, imgs, pdfcpu.DefaultImportConfig(), conf); err != nil {
		return nil, &Error{Err: fmt.Errorf("assembling output: %w", err)}
	}

	log.Info().
		Str("level", string(level)).
		Int("pages", pages).
		Int("original_size", len(data)).
		Int("compressed_size", out.Len()).
		Str("rate", Rate(int64(len(data)), int64(out.Len()))).
		Dur("took", time.Since(start)).
		Msg("compressed document")

	return out.Bytes(), nil
}

// rasterize renders one page and encodes it per policy. The raster is
// composited over opaque white first; JPEG has no alpha channel and a
// transparent background would come out black.
func (p *Pipeline) rasterize(h *document.Handle, page int, pol policy) ([]byte, error) {
	img, err := h.RenderImage(page, pol.scale)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.White, image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if pol.png {
		if err := png.Encode(&buf, flat); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	} else {
		if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: pol.quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	}

	log.Debug().
		Int("page", page).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("bytes", buf.Len()).
		Bool("png", pol.png).
		Msg("rasterized page")

	return buf.Bytes(), nil
}
