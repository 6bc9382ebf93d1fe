package statuscheck

import (
	"context"
	"os"
	"path/filepath"
	"time"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// Checker aggregates readiness checks for external dependencies.
type Checker struct {
	redis    RedisPinger
	s3Bucket string
	spoolDir string
}

// Options configures the Checker.
type Options struct {
	Redis    RedisPinger
	S3Bucket string
	SpoolDir string
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
	Redis Status `json:"redis"`
	S3    Status `json:"s3"`
	Spool Status `json:"spool"`
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
	return &Checker{
		redis:    opts.Redis,
		s3Bucket: opts.S3Bucket,
		spoolDir: opts.SpoolDir,
	}
}

// OK reports whether every required subsystem is ready. S3 is optional
// and excluded; results fall back to local disk without it.
func (s Summary) OK() bool { return s.Redis.OK && s.Spool.OK }

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		Redis: c.checkRedis(ctx),
		S3:    c.checkS3(ctx),
		Spool: c.checkSpool(),
	}
}

func (c *Checker) checkRedis(ctx context.Context) Status {
	if c.redis == nil {
		return Status{OK: false, Message: "client unavailable"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.redis.Ping(ctx); err != nil {
		return Status{OK: false, Message: err.Error()}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
	if c.s3Bucket == "" {
		return Status{OK: false, Message: "Bucket not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return Status{OK: false, Message: err.Error()}
	}
	cli := s3.NewFromConfig(cfg)
	if _, err := cli.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &c.s3Bucket}); err != nil {
		return Status{OK: false, Message: err.Error()}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkSpool() Status {
	if c.spoolDir == "" {
		return Status{OK: false, Message: "Spool dir not configured"}
	}
	if err := os.MkdirAll(c.spoolDir, 0o755); err != nil {
		return Status{OK: false, Message: err.Error()}
	}
	probe := filepath.Join(c.spoolDir, ".writecheck")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return Status{OK: false, Message: err.Error()}
	}
	_ = os.Remove(probe)
	return Status{OK: true, Message: "Writable"}
}
