// Package source resolves job input references into byte buffers. The
// loader and rebuilder both need random access, so inputs are always
// fully materialized.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Fetch reads the bytes behind ref. Supported forms:
//   - file://path or plain filesystem paths
//   - http(s):// URLs
//   - s3://bucket/key (via the default AWS credential chain)
func Fetch(ctx context.Context, ref string) ([]byte, error) {
	// Strip optional #page fragment if present
	if i := strings.Index(ref, "#"); i >= 0 {
		ref = ref[:i]
	}

	switch {
	case strings.HasPrefix(ref, "s3://"):
		return fetchS3(ctx, ref)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return fetchHTTP(ctx, ref)
	case strings.HasPrefix(ref, "file://"):
		return os.ReadFile(strings.TrimPrefix(ref, "file://"))
	default:
		// treat as filesystem path
		return os.ReadFile(ref)
	}
}

func fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d fetching %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

func fetchS3(ctx context.Context, s3url string) ([]byte, error) {
	// s3://bucket/key
	path := strings.TrimPrefix(s3url, "s3://")
	slash := strings.Index(path, "/")
	if slash <= 0 {
		return nil, fmt.Errorf("invalid s3 url: %s", s3url)
	}
	bucket := path[:slash]
	key := path[slash+1:]

	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	cli := s3.NewFromConfig(cfg)

	out, err := cli.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("bucket", bucket).Str("key", key).Int("size", len(data)).Msg("fetched s3 input")
	return data, nil
}
