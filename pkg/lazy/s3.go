package lazy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by S3Loader.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Loader reads chunks from an S3 bucket. The chunk for component
// "pages/HomePage" is the object prefix+"pages/HomePage.js".
//
// Example:
//
//	client := s3.New(s3.Options{Region: "us-east-1"})
//	loader := lazy.NewS3Loader(client, "my-app-assets", "chunks/",
//	    lazy.WithS3MaxSize(5<<20))
type S3Loader struct {
	client  S3API
	bucket  string
	prefix  string
	ext     string
	keys    func(name string) string
	maxSize int64
}

// S3Option configures an S3Loader.
type S3Option func(*S3Loader)

// WithS3Extension sets the object key extension.
func WithS3Extension(ext string) S3Option {
	return func(l *S3Loader) {
		l.ext = ext
	}
}

// WithS3Keys maps component names to object keys with fn. The prefix is
// still prepended.
func WithS3Keys(fn func(name string) string) S3Option {
	return func(l *S3Loader) {
		l.keys = fn
	}
}

// WithS3MaxSize rejects objects larger than n bytes. Zero disables the check.
func WithS3MaxSize(n int64) S3Option {
	return func(l *S3Loader) {
		l.maxSize = n
	}
}

// NewS3Loader creates a loader for bucket. prefix is prepended to every key.
func NewS3Loader(client S3API, bucket, prefix string, opts ...S3Option) *S3Loader {
	l := &S3Loader{
		client: client,
		bucket: bucket,
		prefix: prefix,
		ext:    ".js",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key returns the object key for a component name.
func (l *S3Loader) Key(name string) string {
	if l.keys != nil {
		return l.prefix + l.keys(name)
	}
	return l.prefix + strings.TrimPrefix(name, "/") + l.ext
}

// Load implements Loader.
func (l *S3Loader) Load(ctx context.Context, name string) (*Component, error) {
	key := l.Key(name)

	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrChunkNotFound, l.bucket, key)
		}
		return nil, fmt.Errorf("s3 get s3://%s/%s: %w", l.bucket, key, err)
	}
	defer out.Body.Close()

	if l.maxSize > 0 && out.ContentLength != nil && *out.ContentLength > l.maxSize {
		return nil, fmt.Errorf("%w: s3://%s/%s is %d bytes", ErrChunkTooLarge, l.bucket, key, *out.ContentLength)
	}

	var r io.Reader = out.Body
	if l.maxSize > 0 {
		r = io.LimitReader(out.Body, l.maxSize+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("s3 read s3://%s/%s: %w", l.bucket, key, err)
	}
	if l.maxSize > 0 && int64(len(body)) > l.maxSize {
		return nil, fmt.Errorf("%w: s3://%s/%s", ErrChunkTooLarge, l.bucket, key)
	}

	contentType := contentTypeFor(path.Ext(key))
	if out.ContentType != nil {
		contentType = *out.ContentType
	}
	c := NewComponent(name, key, contentType, body)
	if out.ETag != nil {
		c.Version = strings.Trim(*out.ETag, `"`)
	}
	return c, nil
}
