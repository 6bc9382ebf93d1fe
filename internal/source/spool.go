package source

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Spool writes data into dir under a collision-free name and returns
// the path, suitable as a job input ref. Jobs outlive HTTP requests, so
// input bytes must land somewhere durable before enqueueing.
func Spool(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating spool dir: %w", err)
	}
	path := filepath.Join(dir, uuid.NewString()+"-"+filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("spooling %s: %w", name, err)
	}
	return path, nil
}
