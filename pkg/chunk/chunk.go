// Package chunk loads view definitions lazily from S3.
//
// A chunk is a JSON manifest stored under a key in a bucket. It names the
// view and the component guards it declares; guard names are bound to Go
// functions registered on the Loader.
//
//	loader := chunk.NewLoader(chunk.NewS3Client("eu-west-1"), "my-bucket",
//	    chunk.WithPrefix("views/"),
//	    chunk.WithGuard("auth", requireLogin),
//	)
//
//	router.RouteConfig{Path: "/admin", Component: loader.View("admin.json")}
package chunk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/vnav/pkg/router"
)

var (
	// ErrNotFound is returned when the manifest object does not exist.
	ErrNotFound = errors.New("chunk: not found")

	// ErrTooLarge is returned when a manifest exceeds the size limit.
	ErrTooLarge = errors.New("chunk: manifest too large")

	// ErrUnknownGuard is returned when a manifest names an unregistered guard.
	ErrUnknownGuard = errors.New("chunk: unknown guard")
)

const defaultMaxSize = 1 << 20

// GetObjectAPI is the part of *s3.Client the Loader uses.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Manifest is the stored form of a view.
type Manifest struct {
	Name string `json:"name"`

	// Guard names, run in the listed order.
	BeforeRouteEnter  []string `json:"beforeRouteEnter,omitempty"`
	BeforeRouteUpdate []string `json:"beforeRouteUpdate,omitempty"`
	BeforeRouteLeave  []string `json:"beforeRouteLeave,omitempty"`
}

// Loader fetches manifests and turns them into router components. Each key
// is fetched at most once per successful load.
type Loader struct {
	client  GetObjectAPI
	bucket  string
	prefix  string
	maxSize int64
	guards  map[string]router.ComponentGuard
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]*router.Component
}

// Option configures a Loader.
type Option func(*Loader)

// WithPrefix sets the key prefix, e.g. "views/".
func WithPrefix(prefix string) Option {
	return func(l *Loader) {
		l.prefix = prefix
	}
}

// WithMaxSize limits manifest size in bytes. The default is 1 MiB.
func WithMaxSize(n int64) Option {
	return func(l *Loader) {
		l.maxSize = n
	}
}

// WithGuard registers a component guard under name.
func WithGuard(name string, g router.ComponentGuard) Option {
	return func(l *Loader) {
		l.guards[name] = g
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader returns a Loader reading from bucket.
func NewLoader(client GetObjectAPI, bucket string, opts ...Option) *Loader {
	l := &Loader{
		client:  client,
		bucket:  bucket,
		maxSize: defaultMaxSize,
		guards:  make(map[string]router.ComponentGuard),
		logger:  slog.Default(),
		cache:   make(map[string]*router.Component),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// View returns a factory that loads key the first time its route matches.
func (l *Loader) View(key string) router.ViewFactory {
	return router.Lazy(func(ctx context.Context) (any, error) {
		return l.Load(ctx, key)
	})
}

// Load fetches and decodes the manifest under key.
func (l *Loader) Load(ctx context.Context, key string) (*router.Component, error) {
	l.mu.Lock()
	if c, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return c, nil
	}
	l.mu.Unlock()

	objectKey := l.prefix + key
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, l.bucket, objectKey)
		}
		return nil, fmt.Errorf("chunk: get %s: %w", objectKey, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, l.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("chunk: read %s: %w", objectKey, err)
	}
	if int64(len(data)) > l.maxSize {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, objectKey)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("chunk: decode %s: %w", objectKey, err)
	}

	c, err := l.build(m)
	if err != nil {
		return nil, fmt.Errorf("chunk: %s: %w", objectKey, err)
	}
	c.Source = "s3://" + l.bucket + "/" + objectKey

	l.mu.Lock()
	if cached, ok := l.cache[key]; ok {
		c = cached
	} else {
		l.cache[key] = c
	}
	l.mu.Unlock()

	l.logger.Debug("view chunk loaded", "key", objectKey, "name", c.Name)
	return c, nil
}

func (l *Loader) build(m Manifest) (*router.Component, error) {
	c := &router.Component{Name: m.Name}
	var err error
	if c.BeforeRouteEnter, err = l.lookup(m.BeforeRouteEnter); err != nil {
		return nil, err
	}
	if c.BeforeRouteUpdate, err = l.lookup(m.BeforeRouteUpdate); err != nil {
		return nil, err
	}
	if c.BeforeRouteLeave, err = l.lookup(m.BeforeRouteLeave); err != nil {
		return nil, err
	}
	return c, nil
}

func (l *Loader) lookup(names []string) ([]router.ComponentGuard, error) {
	if len(names) == 0 {
		return nil, nil
	}
	guards := make([]router.ComponentGuard, 0, len(names))
	for _, name := range names {
		g, ok := l.guards[name]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownGuard, name)
		}
		guards = append(guards, g)
	}
	return guards, nil
}
