package pdftest

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Widths returns the media box width of every page in data, in page
// order. Combined with WidthOf this identifies which source pages ended
// up where.
func Widths(data []byte) ([]float64, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	dims, err := api.PageDims(bytes.NewReader(data), conf)
	if err != nil {
		return nil, err
	}
	ws := make([]float64, len(dims))
	for i, d := range dims {
		ws[i] = d.Width
	}
	return ws, nil
}
