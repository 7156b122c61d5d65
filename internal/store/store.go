// Package store writes finished documents to where the user asked for
// them: a local file or an S3-compatible bucket.
package store

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Destination receives one finished document.
type Destination interface {
	// Write stores data, replacing any previous object at the destination.
	Write(ctx context.Context, data []byte) error
	// String names the destination for log and console output.
	String() string
}

// S3Options configures S3 destinations. Empty fields fall back to the AWS
// SDK's own configuration chain.
type S3Options struct {
	Region   string
	Endpoint string
}

// Open returns the destination for target: s3://bucket/key uploads to S3,
// anything else is a local file path.
func Open(ctx context.Context, target string, opts S3Options) (Destination, error) {
	if !IsS3(target) {
		return NewFileDestination(target), nil
	}
	bucket, key, err := ParseS3URL(target)
	if err != nil {
		return nil, err
	}
	return NewS3Destination(ctx, bucket, key, opts.Region, opts.Endpoint)
}

// IsS3 reports whether target is an s3:// URL.
func IsS3(target string) bool {
	return strings.HasPrefix(strings.ToLower(target), "s3://")
}

// ParseS3URL splits s3://bucket/path/to/key into bucket and key.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse %q: %w", raw, err)
	}
	if !strings.EqualFold(u.Scheme, "s3") {
		return "", "", fmt.Errorf("%q is not an s3:// URL", raw)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%q must name a bucket and an object key", raw)
	}
	return bucket, key, nil
}

// FileDestination writes to a path on the local filesystem.
type FileDestination struct {
	path string
}

// NewFileDestination returns a destination writing to path.
func NewFileDestination(path string) *FileDestination {
	return &FileDestination{path: path}
}

// Write replaces the file atomically: the data goes to a temporary file in
// the same directory which is then renamed over the target.
func (d *FileDestination) Write(_ context.Context, data []byte) error {
	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".deckpdf-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), d.path); err != nil {
		return fmt.Errorf("rename to %s: %w", d.path, err)
	}
	return nil
}

func (d *FileDestination) String() string {
	return d.path
}
