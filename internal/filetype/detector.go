package filetype

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfstudio/internal/metrics"
)

// DefaultMaxUploadBytes caps uploads at 100MB.
const DefaultMaxUploadBytes = 100 << 20

// TooLargeError rejects an upload above the size limit.
type TooLargeError struct {
	Name  string
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%s is %d bytes, above the %d byte limit", e.Name, e.Size, e.Limit)
}

// UnsupportedTypeError rejects an upload whose magic bytes are not a
// PDF. Detection never trusts the filename.
type UnsupportedTypeError struct {
	Name string
	MIME string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("%s is %s, not a PDF", e.Name, e.MIME)
}

// Detector validates uploaded files using magic bytes.
type Detector struct {
	maxBytes int64
}

// New creates a detector; non-positive limit means DefaultMaxUploadBytes.
func New(maxBytes int64) *Detector {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Detector{maxBytes: maxBytes}
}

// MaxBytes returns the upload size limit.
func (d *Detector) MaxBytes() int64 { return d.maxBytes }

// ValidatePDF checks size and MIME type of an upload. The content is
// not parsed here; a well-formed-looking buffer can still fail at the
// document loader, which is the real authority.
func (d *Detector) ValidatePDF(name string, data []byte) error {
	if int64(len(data)) > d.maxBytes {
		metrics.IncUploadRejected("size")
		return &TooLargeError{Name: name, Size: int64(len(data)), Limit: d.maxBytes}
	}

	mtype := mimetype.Detect(data)
	log.Debug().Str("mime", mtype.String()).Str("file", name).Int("size", len(data)).Msg("detected upload type")

	if !mtype.Is("application/pdf") {
		metrics.IncUploadRejected("type")
		return &UnsupportedTypeError{Name: name, MIME: mtype.String()}
	}
	return nil
}
