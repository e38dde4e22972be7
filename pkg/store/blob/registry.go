// Package blob opens and stores survey files by URI: local paths,
// s3://bucket/key and az://account/container/blob.
package blob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// Location addresses one object.
type Location struct {
	Scheme string
	// Host is the S3 bucket or the Azure storage account; empty for local files.
	Host string
	// Path is the object key, "container/blob" on Azure, or the local file path.
	Path string
}

func (l Location) String() string {
	if l.Scheme == SchemeFile {
		return l.Path
	}
	return l.Scheme + "://" + l.Host + "/" + l.Path
}

// Name returns the last path element, used to detect the file format.
func (l Location) Name() string {
	if i := strings.LastIndex(l.Path, "/"); i >= 0 {
		return l.Path[i+1:]
	}
	return l.Path
}

const (
	SchemeFile  = "file"
	SchemeS3    = "s3"
	SchemeAzure = "az"
)

// Parse splits a URI into a Location. Plain paths are local files.
func Parse(uri string) (Location, error) {
	if !strings.Contains(uri, "://") {
		if uri == "" {
			return Location{}, fmt.Errorf("empty location")
		}
		return Location{Scheme: SchemeFile, Path: uri}, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, fmt.Errorf("invalid location %q: %w", uri, err)
	}
	if u.Scheme == SchemeFile {
		return Location{Scheme: SchemeFile, Path: u.Path}, nil
	}

	loc := Location{Scheme: u.Scheme, Host: u.Host, Path: strings.TrimPrefix(u.Path, "/")}
	if loc.Host == "" || loc.Path == "" {
		return Location{}, fmt.Errorf("invalid location %q: host and path are required", uri)
	}
	return loc, nil
}

// Bucket reads and writes objects of one scheme.
type Bucket interface {
	Open(ctx context.Context, loc Location) (io.ReadCloser, error)
	Put(ctx context.Context, loc Location, r io.Reader) error
}

// BucketFactory creates a Bucket on first use of its scheme.
type BucketFactory func(ctx context.Context) (Bucket, error)

// Registry manages bucket factories by URI scheme.
type Registry interface {
	// Register adds a new scheme
	Register(scheme string, factory BucketFactory) error
	// Open reads the object at uri
	Open(ctx context.Context, uri string) (io.ReadCloser, Location, error)
	// Put writes r to the object at uri
	Put(ctx context.Context, uri string, r io.Reader) error
	// ListSchemes returns the registered schemes, sorted
	ListSchemes() []string
}

type registry struct {
	mu        sync.RWMutex
	factories map[string]BucketFactory
	buckets   map[string]Bucket
}

func NewRegistry() Registry {
	return &registry{
		factories: make(map[string]BucketFactory),
		buckets:   make(map[string]Bucket),
	}
}

// NewDefaultRegistry registers local files, S3 (using the shared AWS
// profile awsProfile, empty for the default chain) and Azure Blob Storage.
func NewDefaultRegistry(awsProfile string) Registry {
	r := NewRegistry()
	_ = r.Register(SchemeFile, func(context.Context) (Bucket, error) { return NewLocalBucket(), nil })
	_ = r.Register(SchemeS3, func(ctx context.Context) (Bucket, error) { return NewS3Bucket(ctx, awsProfile) })
	_ = r.Register(SchemeAzure, func(context.Context) (Bucket, error) { return NewAzureBucket() })
	return r
}

func (r *registry) Register(scheme string, factory BucketFactory) error {
	if scheme == "" {
		return fmt.Errorf("scheme cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[scheme]; exists {
		return fmt.Errorf("scheme %q is already registered", scheme)
	}

	r.factories[scheme] = factory
	return nil
}

func (r *registry) bucket(ctx context.Context, scheme string) (Bucket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.buckets[scheme]; ok {
		return b, nil
	}
	factory, exists := r.factories[scheme]
	if !exists {
		return nil, fmt.Errorf("scheme %q is not registered", scheme)
	}
	b, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", scheme, err)
	}
	r.buckets[scheme] = b
	return b, nil
}

func (r *registry) Open(ctx context.Context, uri string) (io.ReadCloser, Location, error) {
	loc, err := Parse(uri)
	if err != nil {
		return nil, Location{}, err
	}
	b, err := r.bucket(ctx, loc.Scheme)
	if err != nil {
		return nil, loc, err
	}
	rc, err := b.Open(ctx, loc)
	if err != nil {
		return nil, loc, fmt.Errorf("failed to open %s: %w", loc, err)
	}
	return rc, loc, nil
}

func (r *registry) Put(ctx context.Context, uri string, body io.Reader) error {
	loc, err := Parse(uri)
	if err != nil {
		return err
	}
	b, err := r.bucket(ctx, loc.Scheme)
	if err != nil {
		return err
	}
	if err := b.Put(ctx, loc, body); err != nil {
		return fmt.Errorf("failed to write %s: %w", loc, err)
	}
	return nil
}

func (r *registry) ListSchemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemes := make([]string, 0, len(r.factories))
	for scheme := range r.factories {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}
