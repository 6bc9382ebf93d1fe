package compress

import "strconv"

// Rate formats the size reduction percentage with two decimals. It is
// floored at "0.00": a run that failed to shrink the file never reports
// a negative reduction.
func Rate(originalSize, compressedSize int64) string {
	if originalSize <= 0 || compressedSize >= originalSize {
		return "0.00"
	}
	pct := float64(originalSize-compressedSize) / float64(originalSize) * 100
	return strconv.FormatFloat(pct, 'f', 2, 64)
}
