// Package artifact stores operation results and hands back a reference
// that the orchestrator can later resolve for download.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfstudio/internal/storage"
)

// Store writes results either to a local directory or, when an S3
// client is configured, to the bucket under results/<jobID>/<name>.
type Store struct {
	dir      string
	s3       *storage.S3Client
	password string
}

// New creates a store. s3 may be nil, in which case results land under
// dir. password enables at-rest encryption for S3 uploads.
func New(dir string, s3 *storage.S3Client, password string) *Store {
	return &Store{dir: dir, s3: s3, password: password}
}

// Save persists data and returns a reference usable with Load.
func (s *Store) Save(ctx context.Context, jobID, name string, data []byte) (string, error) {
	if s.s3 != nil {
		key := fmt.Sprintf("results/%s/%s", jobID, name)
		if err := s.s3.Upload(ctx, key, data, "application/pdf", s.password, nil); err != nil {
			return "", fmt.Errorf("saving result to s3: %w", err)
		}
		return fmt.Sprintf("s3://%s/%s", s.s3.Bucket(), key), nil
	}

	dir := filepath.Join(s.dir, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating result dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing result: %w", err)
	}
	log.Debug().Str("path", path).Int("size", len(data)).Msg("saved result artifact")
	return path, nil
}

// Load resolves a reference returned by Save back into bytes.
func (s *Store) Load(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "s3://") {
		if s.s3 == nil {
			return nil, fmt.Errorf("s3 reference %s but no s3 client configured", ref)
		}
		key := strings.TrimPrefix(ref, "s3://"+s.s3.Bucket()+"/")
		data, _, err := s.s3.Download(ctx, key, s.password)
		return data, err
	}
	return os.ReadFile(ref)
}
