// Package objectstore implements an S3-compatible object-store backend
// (§4.E) on top of aws-sdk-go-v2, the object-store client most common
// across the retrieved pack. A key prefix namespaces every path under
// a single bucket, mirroring how tfctl's S3 state backend composes a
// workspace prefix with the object key before every call.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/phax/godiver/storage"
)

// Client is the subset of *s3.Client this backend calls, injectable
// for tests against a fake.
type Client interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store is a RawStore backed by a bucket in an S3-compatible object
// store.
type Store struct {
	id           string
	bucket       string
	keyPrefix    string
	client       Client
	capabilities storage.Capabilities
}

// Option configures a Store at construction time.
type Option func(*Store)

func WithWrite() Option  { return func(s *Store) { s.capabilities.Writable = true } }
func WithDelete() Option { return func(s *Store) { s.capabilities.Deletable = true } }

// WithAllowOverwrite lets writes replace an already-present artifact
// payload instead of the default reject-on-conflict behaviour (§4.E,
// §5).
func WithAllowOverwrite() Option { return func(s *Store) { s.capabilities.AllowOverwrite = true } }

// WithKeyPrefix namespaces every object key under prefix. prefix must
// be empty or end in "/" and must not itself start with "/".
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.keyPrefix = prefix }
}

// New creates a backend addressing bucket via client.
func New(id, bucket string, client Client, opts ...Option) (*Store, error) {
	s := &Store{id: id, bucket: bucket, client: client}
	for _, opt := range opts {
		opt(s)
	}
	if strings.HasPrefix(s.keyPrefix, "/") || (s.keyPrefix != "" && !strings.HasSuffix(s.keyPrefix, "/")) {
		return nil, fmt.Errorf("objectstore: key prefix %q must be empty or non-slash-prefixed and slash-suffixed", s.keyPrefix)
	}
	return s, nil
}

func (s *Store) ID() string                     { return s.id }
func (s *Store) Type() string                   { return "objectstore" }
func (s *Store) Capabilities() storage.Capabilities { return s.capabilities }

func (s *Store) objectKey(path string) string {
	return s.keyPrefix + path
}

func isNotFound(err error) bool {
	var nf *types.NoSuchKey
	if errors.As(err, &nf) {
		return true
	}
	var nfd *types.NotFound
	return errors.As(err, &nfd)
}

func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(path)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("objectstore: get object %q: %w", path, err)
	}
	defer out.Body.Close()
	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("objectstore: read body for %q: %w", path, err)
	}
	return content, nil
}

func (s *Store) Head(ctx context.Context, path string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(path)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("objectstore: head object %q: %w", path, err)
	}
	return true, nil
}

func (s *Store) Put(ctx context.Context, path string, content []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(path)),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return fmt.Errorf("objectstore: put object %q: %w", path, err)
	}
	return nil
}

func (s *Store) Del(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(path)),
	})
	if err != nil {
		if isNotFound(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("objectstore: delete object %q: %w", path, err)
	}
	return nil
}
