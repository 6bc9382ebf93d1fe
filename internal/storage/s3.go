package storage

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLen    = 16
	pbkdf2Iter = 100_000
	keyLen     = 32
)

// S3Client wraps the AWS S3 client with optional at-rest encryption.
// Artifacts uploaded with a password are AES-GCM sealed with a key
// derived via PBKDF2; the salt and nonce travel in front of the
// ciphertext.
type S3Client struct {
	client *s3.Client
	bucket string
}

// NewS3Client creates an S3 client against the given bucket using the
// default AWS credential chain.
func NewS3Client(ctx context.Context, bucket string) (*S3Client, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Client{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// Bucket returns the configured bucket name.
func (s *S3Client) Bucket() string { return s.bucket }

// Upload stores data under key. A non-empty password encrypts the
// payload before it leaves the process.
func (s *S3Client) Upload(ctx context.Context, key string, data []byte, contentType, password string, meta map[string]string) error {
	encrypted := false
	if password != "" {
		sealed, err := seal(data, password)
		if err != nil {
			return fmt.Errorf("encrypting artifact: %w", err)
		}
		data = sealed
		encrypted = true
	}

	if meta == nil {
		meta = map[string]string{}
	}
	if encrypted {
		meta["encrypted"] = "true"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    meta,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Debug().Str("bucket", s.bucket).Str("key", key).Int("size", len(data)).Bool("encrypted", encrypted).Msg("uploaded artifact to s3")
	return nil
}

// Download fetches and, when needed, decrypts an object. The object's
// user metadata is returned alongside the payload.
func (s *S3Client) Download(ctx context.Context, key, password string) ([]byte, map[string]string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read S3 object: %w", err)
	}

	if out.Metadata["encrypted"] == "true" {
		if password == "" {
			return nil, nil, fmt.Errorf("object %s is encrypted and no password is configured", key)
		}
		plain, err := open(data, password)
		if err != nil {
			return nil, nil, fmt.Errorf("decrypting %s: %w", key, err)
		}
		data = plain
	}

	return data, out.Metadata, nil
}

func seal(plain []byte, password string) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, saltLen+len(nonce)+len(plain)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plain, nil), nil
}

func open(sealed []byte, password string) ([]byte, error) {
	if len(sealed) < saltLen {
		return nil, fmt.Errorf("sealed payload too short")
	}
	salt, rest := sealed[:saltLen], sealed[saltLen:]
	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	if len(rest) < gcm.NonceSize() {
		return nil, fmt.Errorf("sealed payload too short")
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iter, keyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
