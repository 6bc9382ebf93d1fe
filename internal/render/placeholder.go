package render

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const placeholderText = "Error rendering page"

var (
	placeholderBg = color.RGBA{R: 0xff, G: 0xeb, B: 0xee, A: 0xff}
	placeholderFg = color.RGBA{R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff}
)

// placeholder draws the error tile shown when both render attempts
// fail. A visible message beats a blank or crashed thumbnail.
func (r *Renderer) placeholder(w, h int) *image.RGBA {
	if w < 1 {
		w = r.targetWidth
	}
	if h < 1 {
		h = r.targetWidth * 3 / 2
	}
	img := fill(w, h, placeholderBg)

	face := basicfont.Face7x13
	textW := font.MeasureString(face, placeholderText).Ceil()
	x := (w - textW) / 2
	if x < 2 {
		x = 2
	}
	y := h/2 + face.Metrics().Ascent.Ceil()/2

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(placeholderFg),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(placeholderText)
	return img
}
